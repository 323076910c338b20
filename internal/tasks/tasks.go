// package tasks implements the backup and restore operations over a user's
// Spotify library.
//
// The core abstraction is Engine, which collects the live library into an
// immutable snapshot and reconciles a persisted snapshot back against the
// live state. Operations emit progress updates via channels for
// non-blocking status reporting to the CLI layer. Processing is
// sequential; the live library is the only shared resource and is treated
// as externally mutable.
package tasks

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/spotsnap/spotsnap/internal/shared"
	"github.com/spotsnap/spotsnap/internal/spotify"
)

// Service is the live library handle. It abstracts the five capabilities
// the engine needs: paginated listings, single-resource fetches, batched
// add/remove mutations, playlist create/unfollow, and image download.
// Authentication, token refresh, and request pacing are the
// implementation's responsibility.
type Service interface {
	Name() string

	// CurrentUser retrieves the authenticated user's profile.
	CurrentUser(ctx context.Context) (*spotify.User, error)

	// SavedTracks retrieves one page of the user's liked songs.
	SavedTracks(ctx context.Context, limit, offset int) (*spotify.SavedTracksPage, error)

	// Playlists retrieves one page of all playlists associated with the
	// user; owned and followed arrive interleaved.
	Playlists(ctx context.Context, limit, offset int) (*spotify.PlaylistsPage, error)

	// PlaylistItems retrieves one page of a playlist's full track listing.
	PlaylistItems(ctx context.Context, playlistID string, limit, offset int) (*spotify.PlaylistItemsPage, error)

	// SaveTracks / RemoveSavedTracks mutate liked songs in batches of at
	// most [spotify.MaxSavedTrackBatch].
	SaveTracks(ctx context.Context, ids []string) error
	RemoveSavedTracks(ctx context.Context, ids []string) error

	// AddPlaylistItems / RemovePlaylistItems mutate a playlist in batches
	// of at most [spotify.MaxPlaylistItemBatch] full URIs.
	AddPlaylistItems(ctx context.Context, playlistID string, uris []string) error
	RemovePlaylistItems(ctx context.Context, playlistID string, uris []string) error

	// CreatePlaylist creates a new playlist; the service assigns the ID.
	CreatePlaylist(ctx context.Context, userID, name, description string) (*spotify.FullPlaylist, error)

	// FollowPlaylist / UnfollowPlaylist change follow state. Unfollowing
	// an owned playlist deletes it.
	FollowPlaylist(ctx context.Context, playlistID string) error
	UnfollowPlaylist(ctx context.Context, playlistID string) error

	// DownloadImage fetches cover art; failures are warnings, not aborts.
	DownloadImage(ctx context.Context, imageURL string) ([]byte, error)
}

// Engine orchestrates collection and reconciliation against one Service.
type Engine struct {
	svc    Service
	logger *log.Logger
}

// NewEngine creates an Engine for the given live library handle.
func NewEngine(svc Service, logger *log.Logger) *Engine {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Engine{svc: svc, logger: logger}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default so progress reporting never stalls execution.
func (e *Engine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}
