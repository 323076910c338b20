package main

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/spotsnap/spotsnap/internal/server"
	"github.com/spotsnap/spotsnap/internal/shared"
	"github.com/urfave/cli/v3"
)

// loginTimeout bounds how long the callback server waits for the user to
// finish the browser flow.
const loginTimeout = 3 * time.Minute

func loginCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "login",
		Usage:  "Authenticate with Spotify using OAuth2",
		Action: r.Login,
	}
}

// Login runs the OAuth2 authorization code flow: opens the browser, waits
// for the loopback callback, and persists the session tokens.
func (r *Runner) Login(ctx context.Context, cmd *cli.Command) error {
	if r.client == nil {
		return fmt.Errorf("%w: run `spotsnap setup` and add your Spotify credentials", shared.ErrMissingCredentials)
	}

	addr, path, err := callbackAddr(r.config.Credentials.Spotify.RedirectURI)
	if err != nil {
		return err
	}

	state := shared.GenerateID()
	callback := server.NewCallbackServer(state, r.client.Exchange, r.logger)

	shutdown, err := callback.Listen(addr, path)
	if err != nil {
		return err
	}
	defer shutdown()

	authURL := r.client.GetAuthURL(state)
	r.writePlain("Opening your browser to sign in to Spotify.\nIf nothing happens, open this URL yourself:\n\n  %s\n\n", authURL)
	if err := shared.OpenBrowser(authURL); err != nil {
		r.logger.Warn("failed to open browser", "error", err)
	}

	waitCtx, cancel := context.WithTimeout(ctx, loginTimeout)
	defer cancel()

	token, err := callback.Wait(waitCtx)
	if err != nil {
		return err
	}

	if err := r.config.Credentials.Spotify.Update(token); err != nil {
		return err
	}
	if err := r.saveConfig(); err != nil {
		return err
	}

	if err := r.client.Authenticate(ctx, token); err != nil {
		return err
	}

	user, err := r.client.CurrentUser(ctx)
	if err != nil {
		return err
	}

	name := user.DisplayName
	if name == "" {
		name = user.ID
	}
	return r.writePlain("Signed in as %s.\n", name)
}

// callbackAddr derives the listen address and path from the configured
// redirect URI.
func callbackAddr(redirectURI string) (string, string, error) {
	if redirectURI == "" {
		return "localhost:8080", "/callback", nil
	}

	parsed, err := url.Parse(redirectURI)
	if err != nil {
		return "", "", fmt.Errorf("%w: bad redirect_uri: %v", shared.ErrInvalidConfig, err)
	}

	host := parsed.Host
	if parsed.Port() == "" {
		host += ":8080"
	}

	path := parsed.Path
	if path == "" {
		path = "/callback"
	}

	return host, path, nil
}
