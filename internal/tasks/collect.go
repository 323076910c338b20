package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spotsnap/spotsnap/internal/shared"
	"github.com/spotsnap/spotsnap/internal/snapshot"
	"github.com/spotsnap/spotsnap/internal/spotify"
)

// CollectOptions tunes a collection run.
type CollectOptions struct {
	// ImagesDir, when non-empty, is where playlist cover art is downloaded.
	// Image failures are recorded as warnings and never abort the run.
	ImagesDir string
}

// CollectResult is the outcome of a collection run: the captured library
// plus bookkeeping about entries that could not be captured.
type CollectResult struct {
	Library *snapshot.Library

	// Skipped counts listing entries dropped because the item no longer
	// resolves upstream (null track objects).
	Skipped int

	// Warnings are human-readable notes about non-fatal capture problems.
	Warnings []string
}

// Collect walks the authenticated user's entire library and captures it as
// an immutable snapshot: profile, liked songs, owned playlists with full
// ordered track lists, and followed playlists. Transport and auth errors
// abort the run; unresolvable items are skipped and counted.
//
// The capture is not transactional. A library mutated mid-walk yields a
// snapshot mixing states; the last page read wins.
func (e *Engine) Collect(ctx context.Context, progress chan<- ProgressUpdate, opts CollectOptions) (*CollectResult, error) {
	result := &CollectResult{Library: &snapshot.Library{}}

	e.sendProgress(progress, ProgressUpdate{Phase: PhaseProfile, Message: "fetching profile"})

	user, err := e.svc.CurrentUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user profile: %w", err)
	}

	followers := user.Followers.Total
	result.Library.User = snapshot.User{
		ID:           user.ID,
		DisplayName:  user.DisplayName,
		NumFollowers: &followers,
	}
	e.logger.Debug("captured profile", "user", user.ID)

	e.sendProgress(progress, ProgressUpdate{Phase: PhaseLikedSongs, Message: "collecting liked songs"})

	liked, skipped, err := e.collectSavedTracks(ctx, progress)
	if err != nil {
		return nil, err
	}
	result.Library.LikedSongs = liked
	if skipped > 0 {
		result.Skipped += skipped
		result.Warnings = append(result.Warnings, fmt.Sprintf("skipped %d unresolvable %s in liked songs", skipped, shared.Pluralize(skipped, "item")))
	}

	e.sendProgress(progress, ProgressUpdate{Phase: PhasePlaylists, Message: "listing playlists"})

	summaries, err := e.listPlaylists(ctx)
	if err != nil {
		return nil, err
	}

	for i, summary := range summaries {
		e.sendProgress(progress, ProgressUpdate{
			Phase:   PhaseTracks,
			Current: i + 1,
			Total:   len(summaries),
			Message: summary.Name,
		})

		tracks, skipped, err := e.collectPlaylistTracks(ctx, summary.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to collect playlist %q: %w", summary.Name, err)
		}
		if skipped > 0 {
			result.Skipped += skipped
			result.Warnings = append(result.Warnings, fmt.Sprintf("skipped %d unresolvable %s in playlist %q", skipped, shared.Pluralize(skipped, "item"), summary.Name))
		}

		playlist := snapshot.Playlist{
			ID:          summary.ID,
			Name:        summary.Name,
			Description: summary.Description,
			Photo:       summary.CoverURL(),
			Tracks:      tracks,
		}

		if summary.Owner.ID == user.ID {
			result.Library.OwnedPlaylists = append(result.Library.OwnedPlaylists, playlist)
		} else {
			result.Library.FollowedPlaylists = append(result.Library.FollowedPlaylists, snapshot.FollowedPlaylist{
				Playlist: playlist,
				Owner: snapshot.User{
					ID:          summary.Owner.ID,
					DisplayName: summary.Owner.DisplayName,
				},
			})
		}
	}

	if opts.ImagesDir != "" {
		e.downloadCovers(ctx, progress, result, opts.ImagesDir)
	}

	e.sendProgress(progress, ProgressUpdate{Phase: PhaseDone, Message: "collection complete"})
	e.logger.Info("library collected",
		"liked", len(result.Library.LikedSongs),
		"owned", len(result.Library.OwnedPlaylists),
		"followed", len(result.Library.FollowedPlaylists),
		"skipped", result.Skipped)

	return result, nil
}

// collectSavedTracks walks every page of the liked songs listing.
func (e *Engine) collectSavedTracks(ctx context.Context, progress chan<- ProgressUpdate) ([]snapshot.TrackRef, int, error) {
	var tracks []snapshot.TrackRef
	skipped := 0

	offset := 0
	for {
		page, err := e.svc.SavedTracks(ctx, spotify.PageLimit, offset)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to fetch liked songs: %w", err)
		}

		for _, item := range page.Items {
			ref, ok := trackRef(item.Track, item.AddedAt)
			if !ok {
				skipped++
				continue
			}
			tracks = append(tracks, ref)
		}

		e.sendProgress(progress, ProgressUpdate{
			Phase:   PhaseLikedSongs,
			Current: len(tracks),
			Total:   page.Total,
			Message: "collecting liked songs",
		})

		if page.Next == nil || len(page.Items) == 0 {
			break
		}
		offset += len(page.Items)
	}

	return tracks, skipped, nil
}

// listPlaylists walks every page of the combined playlist listing. The API
// interleaves owned and followed playlists; the caller partitions by owner.
func (e *Engine) listPlaylists(ctx context.Context) ([]spotify.SimplePlaylist, error) {
	var summaries []spotify.SimplePlaylist

	offset := 0
	for {
		page, err := e.svc.Playlists(ctx, spotify.PageLimit, offset)
		if err != nil {
			return nil, fmt.Errorf("failed to list playlists: %w", err)
		}

		summaries = append(summaries, page.Items...)

		if page.Next == nil || len(page.Items) == 0 {
			break
		}
		offset += len(page.Items)
	}

	return summaries, nil
}

// collectPlaylistTracks walks every page of one playlist's track listing.
func (e *Engine) collectPlaylistTracks(ctx context.Context, playlistID string) ([]snapshot.TrackRef, int, error) {
	var tracks []snapshot.TrackRef
	skipped := 0

	offset := 0
	for {
		page, err := e.svc.PlaylistItems(ctx, playlistID, spotify.PageLimit, offset)
		if err != nil {
			return nil, 0, err
		}

		for _, item := range page.Items {
			ref, ok := trackRef(item.Track, item.AddedAt)
			if !ok {
				skipped++
				continue
			}
			tracks = append(tracks, ref)
		}

		if page.Next == nil || len(page.Items) == 0 {
			break
		}
		offset += len(page.Items)
	}

	return tracks, skipped, nil
}

// downloadCovers fetches cover art for every playlist that has one, writing
// each image as <playlist id>.jpg under dir. Failures become warnings.
func (e *Engine) downloadCovers(ctx context.Context, progress chan<- ProgressUpdate, result *CollectResult, dir string) {
	type cover struct {
		id, name, url string
	}

	var covers []cover
	for _, p := range result.Library.OwnedPlaylists {
		if p.Photo != "" {
			covers = append(covers, cover{p.ID, p.Name, p.Photo})
		}
	}
	for _, p := range result.Library.FollowedPlaylists {
		if p.Photo != "" {
			covers = append(covers, cover{p.ID, p.Name, p.Photo})
		}
	}
	if len(covers) == 0 {
		return
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf("cover art directory: %v", err))
		return
	}

	for i, c := range covers {
		e.sendProgress(progress, ProgressUpdate{
			Phase:   PhaseImages,
			Current: i + 1,
			Total:   len(covers),
			Message: c.name,
		})

		data, err := e.svc.DownloadImage(ctx, c.url)
		if err != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("cover art for %q: %v", c.name, err))
			continue
		}
		if err := os.WriteFile(filepath.Join(dir, c.id+".jpg"), data, 0644); err != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("cover art for %q: %v", c.name, err))
		}
	}
}

// trackRef converts an API listing entry into a snapshot track reference.
// Returns false for null tracks, which the API emits for items that no
// longer resolve.
func trackRef(track *spotify.Track, addedAt string) (snapshot.TrackRef, bool) {
	if track == nil || track.ID == "" {
		return snapshot.TrackRef{}, false
	}

	artists := make([]string, 0, len(track.Artists))
	for _, a := range track.Artists {
		artists = append(artists, a.Name)
	}

	resourceType := snapshot.ResourceType(track.Type)
	if resourceType == snapshot.TypeUnknown {
		resourceType = snapshot.TypeTrack
	}

	return snapshot.TrackRef{
		ID:      track.ID,
		Name:    track.Name,
		Artists: artists,
		AddedAt: addedAt,
		Type:    resourceType,
	}, true
}
