package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spotsnap/spotsnap/internal/shared"
	"github.com/spotsnap/spotsnap/internal/spotify"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	config, configPath := loadConfig(logger)

	var client *spotify.Client
	creds := config.Credentials.Spotify
	if creds.ClientID != "" && creds.ClientSecret != "" {
		c, err := spotify.NewClient(creds.Map(), logger)
		if err != nil {
			logger.Warn("spotify client unavailable", "error", err)
		} else {
			client = c
		}
	}

	runner := NewRunner(RunnerOpts{
		Config:     config,
		ConfigPath: configPath,
		Client:     client,
		Logger:     logger,
	})

	app := &cli.Command{
		Name:     "spotsnap",
		Usage:    "Back up and restore your Spotify library as human-diffable snapshots",
		Version:  "0.3.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		if errors.Is(err, shared.ErrAborted) {
			logger.Warn("aborted", "reason", err)
			os.Exit(1)
		}
		logger.Fatalf("application error: %v", err)
	}
}

// loadConfig finds the active config file: an explicit ./config.toml wins,
// then the one under the config directory. Missing config falls back to the
// embedded defaults.
func loadConfig(logger *log.Logger) (*shared.Config, string) {
	candidates := []string{"config.toml"}
	if dir, err := shared.ConfigDir(); err == nil {
		candidates = append(candidates, filepath.Join(dir, "config.toml"))
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		config, err := shared.LoadConfig(path)
		if err != nil {
			logger.Warn("failed to load config, using defaults", "path", path, "error", err)
			break
		}
		return config, path
	}

	path := ""
	if len(candidates) > 1 {
		path = candidates[1]
	}
	return shared.DefaultConfig(), path
}
