// package spotify implements the live library handle: an authenticated,
// rate-limited Spotify Web API client exposing the listing and mutation
// capabilities the backup engine consumes.
package spotify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spotsnap/spotsnap/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"

	// MaxSavedTrackBatch is the documented per-request maximum for the
	// saved-track add/remove endpoints.
	MaxSavedTrackBatch = 50

	// MaxPlaylistItemBatch is the documented per-request maximum for the
	// playlist item add/remove endpoints.
	MaxPlaylistItemBatch = 100

	// PageLimit is the listing page size used for all paginated walks.
	PageLimit = 50

	// requestsPerSecond paces outgoing API calls well under the Web API's
	// rolling rate window.
	requestsPerSecond = 8
)

// Client is an authenticated Spotify Web API client. All calls block; page
// walks and mutations are paced by a shared rate limiter.
type Client struct {
	config     *oauth2.Config
	token      *oauth2.Token
	source     oauth2.TokenSource
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *log.Logger
	baseURL    string
	onRefresh  func(*oauth2.Token)
}

// NewClient creates a Spotify client from the given OAuth2 credentials map
// (client_id, client_secret, redirect_uri).
func NewClient(credentials map[string]string, logger *log.Logger) (*Client, error) {
	clientID := credentials["client_id"]
	if clientID == "" {
		return nil, fmt.Errorf("%w: missing client_id", shared.ErrMissingCredentials)
	}

	clientSecret := credentials["client_secret"]
	if clientSecret == "" {
		return nil, fmt.Errorf("%w: missing client_secret", shared.ErrMissingCredentials)
	}

	redirectURI := credentials["redirect_uri"]
	if redirectURI == "" {
		redirectURI = "http://localhost:8080/callback"
	}

	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	config := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURI,
		Scopes: []string{
			"playlist-read-private",
			"playlist-read-collaborative",
			"playlist-modify-private",
			"playlist-modify-public",
			"user-library-read",
			"user-library-modify",
		},
		Endpoint: oauth2.Endpoint{
			AuthURL:  spotifyAuthURL,
			TokenURL: spotifyTokenURL,
		},
	}

	return &Client{
		config:     config,
		httpClient: http.DefaultClient,
		limiter:    rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
		logger:     logger,
		baseURL:    spotifyBaseURL,
	}, nil
}

// Name returns the service name.
func (c *Client) Name() string { return "Spotify" }

// GetAuthURL returns the OAuth2 authorization URL for user login.
func (c *Client) GetAuthURL(state string) string {
	return c.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// Exchange trades an authorization code for a token.
func (c *Client) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	token, err := c.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: code exchange failed: %v", shared.ErrAuthFailed, err)
	}
	return token, nil
}

// OnTokenRefresh registers a callback invoked whenever the underlying token
// source rotates the access token, so the caller can persist the session.
func (c *Client) OnTokenRefresh(fn func(*oauth2.Token)) {
	c.onRefresh = fn
}

// Authenticate installs a session token. Accepts either a previously
// persisted token (with refresh handled transparently) or nothing, in which
// case the caller must run the login flow first.
func (c *Client) Authenticate(ctx context.Context, token *oauth2.Token) error {
	if token == nil || (token.AccessToken == "" && token.RefreshToken == "") {
		return fmt.Errorf("%w: run `spotsnap login` first", shared.ErrNotAuthenticated)
	}

	c.token = token
	c.source = c.config.TokenSource(ctx, token)
	c.httpClient = oauth2.NewClient(ctx, c.source)
	return nil
}

// currentToken surfaces refreshed tokens to the persistence callback.
func (c *Client) currentToken() {
	if c.source == nil || c.onRefresh == nil {
		return
	}
	token, err := c.source.Token()
	if err != nil || token == nil {
		return
	}
	if c.token == nil || token.AccessToken != c.token.AccessToken {
		c.token = token
		c.onRefresh(token)
	}
}

// doRequest performs one authenticated JSON request against the API.
// Transport and auth failures are fatal to the caller; no retries here.
func (c *Client) doRequest(ctx context.Context, method, endpoint string, body, result any) error {
	if c.source == nil {
		return fmt.Errorf("%w: run `spotsnap login` first", shared.ErrNotAuthenticated)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	c.currentToken()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return fmt.Errorf("%w: status 401", shared.ErrNotAuthenticated)
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s %s: status 404", shared.ErrAPIRequest, method, endpoint)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return fmt.Errorf("%w: %s %s: status %d", shared.ErrAPIRequest, method, endpoint, resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// CurrentUser retrieves the authenticated user's profile.
func (c *Client) CurrentUser(ctx context.Context) (*User, error) {
	var user User
	if err := c.doRequest(ctx, http.MethodGet, "/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// SavedTracks retrieves one page of the user's saved tracks.
func (c *Client) SavedTracks(ctx context.Context, limit, offset int) (*SavedTracksPage, error) {
	var page SavedTracksPage
	endpoint := fmt.Sprintf("/me/tracks?limit=%d&offset=%d", clampLimit(limit), offset)
	if err := c.doRequest(ctx, http.MethodGet, endpoint, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Playlists retrieves one page of the playlists associated with the user,
// owned and followed interleaved in API order.
func (c *Client) Playlists(ctx context.Context, limit, offset int) (*PlaylistsPage, error) {
	var page PlaylistsPage
	endpoint := fmt.Sprintf("/me/playlists?limit=%d&offset=%d", clampLimit(limit), offset)
	if err := c.doRequest(ctx, http.MethodGet, endpoint, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// PlaylistItems retrieves one page of a playlist's full track listing.
func (c *Client) PlaylistItems(ctx context.Context, playlistID string, limit, offset int) (*PlaylistItemsPage, error) {
	var page PlaylistItemsPage
	endpoint := fmt.Sprintf("/playlists/%s/tracks?limit=%d&offset=%d", url.PathEscape(playlistID), clampLimit(limit), offset)
	if err := c.doRequest(ctx, http.MethodGet, endpoint, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Playlist retrieves a playlist by ID.
func (c *Client) Playlist(ctx context.Context, playlistID string) (*FullPlaylist, error) {
	var playlist FullPlaylist
	endpoint := "/playlists/" + url.PathEscape(playlistID)
	if err := c.doRequest(ctx, http.MethodGet, endpoint, nil, &playlist); err != nil {
		return nil, err
	}
	return &playlist, nil
}

// TrackByID retrieves a single track.
func (c *Client) TrackByID(ctx context.Context, trackID string) (*Track, error) {
	var track Track
	endpoint := "/tracks/" + url.PathEscape(trackID)
	if err := c.doRequest(ctx, http.MethodGet, endpoint, nil, &track); err != nil {
		return nil, err
	}
	return &track, nil
}

// SaveTracks adds tracks to the user's liked songs. At most
// [MaxSavedTrackBatch] IDs per call.
func (c *Client) SaveTracks(ctx context.Context, ids []string) error {
	if err := checkBatch(len(ids), MaxSavedTrackBatch); err != nil {
		return err
	}
	body := map[string][]string{"ids": ids}
	return c.doRequest(ctx, http.MethodPut, "/me/tracks", body, nil)
}

// RemoveSavedTracks removes tracks from the user's liked songs. At most
// [MaxSavedTrackBatch] IDs per call.
func (c *Client) RemoveSavedTracks(ctx context.Context, ids []string) error {
	if err := checkBatch(len(ids), MaxSavedTrackBatch); err != nil {
		return err
	}
	body := map[string][]string{"ids": ids}
	return c.doRequest(ctx, http.MethodDelete, "/me/tracks", body, nil)
}

// AddPlaylistItems appends items (full spotify: URIs) to a playlist. At
// most [MaxPlaylistItemBatch] URIs per call.
func (c *Client) AddPlaylistItems(ctx context.Context, playlistID string, uris []string) error {
	if err := checkBatch(len(uris), MaxPlaylistItemBatch); err != nil {
		return err
	}
	body := map[string][]string{"uris": uris}
	endpoint := fmt.Sprintf("/playlists/%s/tracks", url.PathEscape(playlistID))
	return c.doRequest(ctx, http.MethodPost, endpoint, body, nil)
}

// RemovePlaylistItems removes all occurrences of the given items (full
// spotify: URIs) from a playlist. At most [MaxPlaylistItemBatch] URIs per
// call.
func (c *Client) RemovePlaylistItems(ctx context.Context, playlistID string, uris []string) error {
	if err := checkBatch(len(uris), MaxPlaylistItemBatch); err != nil {
		return err
	}

	type uriObject struct {
		URI string `json:"uri"`
	}
	tracks := make([]uriObject, len(uris))
	for i, u := range uris {
		tracks[i] = uriObject{URI: u}
	}
	body := map[string]any{"tracks": tracks}
	endpoint := fmt.Sprintf("/playlists/%s/tracks", url.PathEscape(playlistID))
	return c.doRequest(ctx, http.MethodDelete, endpoint, body, nil)
}

// CreatePlaylist creates a new empty playlist for the user. The remote
// service assigns the new ID; callers must not assume any relation to a
// previously snapshotted ID.
func (c *Client) CreatePlaylist(ctx context.Context, userID, name, description string) (*FullPlaylist, error) {
	body := map[string]any{
		"name":        name,
		"description": description,
		"public":      false,
	}

	var playlist FullPlaylist
	endpoint := fmt.Sprintf("/users/%s/playlists", url.PathEscape(userID))
	if err := c.doRequest(ctx, http.MethodPost, endpoint, body, &playlist); err != nil {
		return nil, err
	}
	return &playlist, nil
}

// FollowPlaylist follows a playlist privately.
func (c *Client) FollowPlaylist(ctx context.Context, playlistID string) error {
	body := map[string]bool{"public": false}
	endpoint := fmt.Sprintf("/playlists/%s/followers", url.PathEscape(playlistID))
	return c.doRequest(ctx, http.MethodPut, endpoint, body, nil)
}

// UnfollowPlaylist unfollows a playlist. Deleting an owned playlist is the
// same operation on the Spotify API.
func (c *Client) UnfollowPlaylist(ctx context.Context, playlistID string) error {
	endpoint := fmt.Sprintf("/playlists/%s/followers", url.PathEscape(playlistID))
	return c.doRequest(ctx, http.MethodDelete, endpoint, nil, nil)
}

// DownloadImage fetches an image resource (cover art). Unauthenticated;
// callers treat failures as warnings.
func (c *Client) DownloadImage(ctx context.Context, imageURL string) ([]byte, error) {
	if strings.TrimSpace(imageURL) == "" {
		return nil, fmt.Errorf("%w: empty image URL", shared.ErrInvalidArgument)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create image request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: status %d", resp.StatusCode)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}
	return buf.Bytes(), nil
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > PageLimit {
		return PageLimit
	}
	return limit
}

func checkBatch(n, max int) error {
	if n == 0 {
		return fmt.Errorf("%w: empty batch", shared.ErrInvalidArgument)
	}
	if n > max {
		return fmt.Errorf("%w: batch of %d exceeds per-request maximum %d", shared.ErrInvalidArgument, n, max)
	}
	return nil
}
