package tasks

import (
	"context"
	"fmt"

	"github.com/spotsnap/spotsnap/internal/shared"
	"github.com/spotsnap/spotsnap/internal/snapshot"
	"github.com/spotsnap/spotsnap/internal/spotify"
)

// Policy selects how far reconciliation may go.
type Policy int

const (
	// PolicySoft only adds: tracks missing from the live library are
	// re-added and deleted playlists are recreated, but nothing that exists
	// live is ever removed.
	PolicySoft Policy = iota

	// PolicyHard makes the live library mirror the snapshot exactly,
	// removing live tracks, playlists, and follows absent from it. Hard
	// runs require a fresh pre-restore backup before the first mutation.
	PolicyHard
)

func (p Policy) String() string {
	if p == PolicyHard {
		return "hard"
	}
	return "soft"
}

// TargetResult records what reconciliation did to one target (the liked
// songs list or a single playlist). A non-nil Err means the target was
// abandoned partway; other targets are unaffected.
type TargetResult struct {
	Mode snapshot.ChangeMode

	// Name is the snapshot-side display name. LiveName is set only when the
	// live playlist carries a different name.
	Name     string
	LiveName string

	// Added and Removed are the track changes applied to the live library.
	Added   []snapshot.TrackRef
	Removed []snapshot.TrackRef

	// Before and After are the live track totals around the change.
	Before int
	After  int

	// NewID is set when a playlist was recreated; the service assigns a
	// fresh ID, so the snapshot's old ID no longer resolves.
	NewID string

	Err error
}

// Changed reports whether the target was actually mutated.
func (t TargetResult) Changed() bool {
	return t.Mode != snapshot.ChangeUnchanged
}

// RestoreReport is the full outcome of a reconciliation run.
type RestoreReport struct {
	Policy   Policy
	Liked    TargetResult
	Owned    []TargetResult
	Followed []TargetResult
	Warnings []string
}

// Failures returns the targets that were abandoned due to an error.
func (r *RestoreReport) Failures() []TargetResult {
	var failed []TargetResult
	for _, t := range r.targets() {
		if t.Err != nil {
			failed = append(failed, t)
		}
	}
	return failed
}

// Changed reports whether any target was mutated.
func (r *RestoreReport) Changed() bool {
	for _, t := range r.targets() {
		if t.Changed() {
			return true
		}
	}
	return false
}

func (r *RestoreReport) targets() []TargetResult {
	targets := make([]TargetResult, 0, 1+len(r.Owned)+len(r.Followed))
	targets = append(targets, r.Liked)
	targets = append(targets, r.Owned...)
	targets = append(targets, r.Followed...)
	return targets
}

// RestoreOptions tunes a reconciliation run.
type RestoreOptions struct {
	Policy Policy

	// PreBackup captures the current live state before the first mutation.
	// Required under [PolicyHard]; a backup failure cancels the whole run.
	PreBackup func(ctx context.Context) error
}

// Restore reconciles the live library against a persisted snapshot. Soft
// policy re-adds what is missing; hard policy additionally removes what the
// snapshot does not contain.
//
// Targets are processed independently: a failure on one playlist is
// recorded in the report and reconciliation moves on to the next. Only
// profile and listing fetches, and the hard-policy pre-backup, abort the
// run outright.
func (e *Engine) Restore(ctx context.Context, progress chan<- ProgressUpdate, lib *snapshot.Library, opts RestoreOptions) (*RestoreReport, error) {
	report := &RestoreReport{Policy: opts.Policy}

	if opts.Policy == PolicyHard {
		if opts.PreBackup == nil {
			return nil, fmt.Errorf("%w: hard restore requires a pre-restore backup", shared.ErrBackupFailed)
		}
		e.sendProgress(progress, ProgressUpdate{Phase: PhasePreBackup, Message: "backing up current library"})
		if err := opts.PreBackup(ctx); err != nil {
			return nil, fmt.Errorf("%w: %v", shared.ErrBackupFailed, err)
		}
	}

	user, err := e.svc.CurrentUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user profile: %w", err)
	}

	e.sendProgress(progress, ProgressUpdate{Phase: PhaseRestoreLiked, Message: "reconciling liked songs"})
	report.Liked = e.restoreLiked(ctx, lib, opts.Policy, report)

	summaries, err := e.listPlaylists(ctx)
	if err != nil {
		return nil, err
	}

	liveOwned := make(map[string]spotify.SimplePlaylist)
	liveFollowed := make(map[string]spotify.SimplePlaylist)
	var liveOwnedOrder, liveFollowedOrder []string
	for _, s := range summaries {
		if s.Owner.ID == user.ID {
			liveOwned[s.ID] = s
			liveOwnedOrder = append(liveOwnedOrder, s.ID)
		} else {
			liveFollowed[s.ID] = s
			liveFollowedOrder = append(liveFollowedOrder, s.ID)
		}
	}

	e.restoreOwned(ctx, progress, lib, user.ID, liveOwned, liveOwnedOrder, opts.Policy, report)
	e.restoreFollows(ctx, progress, lib, liveFollowed, liveFollowedOrder, opts.Policy, report)

	e.sendProgress(progress, ProgressUpdate{Phase: PhaseDone, Message: "restore complete"})
	e.logger.Info("restore finished",
		"policy", opts.Policy.String(),
		"changed", report.Changed(),
		"failures", len(report.Failures()))

	return report, nil
}

// restoreLiked reconciles the liked songs list. Missing tracks are saved
// again; under hard policy, live tracks absent from the snapshot are
// removed.
func (e *Engine) restoreLiked(ctx context.Context, lib *snapshot.Library, policy Policy, report *RestoreReport) TargetResult {
	result := TargetResult{Name: "Liked Songs"}

	live, skipped, err := e.collectSavedTracks(ctx, nil)
	if err != nil {
		result.Err = err
		return result
	}
	if skipped > 0 {
		report.Warnings = append(report.Warnings, fmt.Sprintf("skipped %d unresolvable %s in live liked songs", skipped, shared.Pluralize(skipped, "item")))
	}
	result.Before = len(live)
	result.After = len(live)

	delta := snapshot.DiffTracks(lib.LikedSongs, live)

	// Deletions are snapshot tracks missing live: always re-add. Additions
	// are live extras: removed only under hard policy. Adds run first so a
	// partial failure leaves a superset, never a loss.
	if len(delta.Deletions) > 0 {
		ids := trackIDs(delta.Deletions)
		for _, batch := range chunk(ids, spotify.MaxSavedTrackBatch) {
			if err := e.svc.SaveTracks(ctx, batch); err != nil {
				result.Err = fmt.Errorf("failed to re-add liked songs: %w", err)
				return result
			}
			result.After += len(batch)
		}
		result.Added = delta.Deletions
	}

	if policy == PolicyHard && len(delta.Additions) > 0 {
		ids := trackIDs(delta.Additions)
		for _, batch := range chunk(ids, spotify.MaxSavedTrackBatch) {
			if err := e.svc.RemoveSavedTracks(ctx, batch); err != nil {
				result.Err = fmt.Errorf("failed to remove liked songs: %w", err)
				return result
			}
			result.After -= len(batch)
		}
		result.Removed = delta.Additions
	}

	if len(result.Added) > 0 || len(result.Removed) > 0 {
		result.Mode = snapshot.ChangeModified
	}
	return result
}

// restoreOwned reconciles every owned playlist. Playlists missing live are
// recreated from scratch under a new ID; surviving ones get a track-level
// reconciliation. Under hard policy, live owned playlists absent from the
// snapshot are deleted (unfollowed).
func (e *Engine) restoreOwned(ctx context.Context, progress chan<- ProgressUpdate, lib *snapshot.Library, userID string, liveOwned map[string]spotify.SimplePlaylist, liveOrder []string, policy Policy, report *RestoreReport) {
	snapshotIDs := make(map[string]struct{}, len(lib.OwnedPlaylists))

	for i, p := range lib.OwnedPlaylists {
		snapshotIDs[p.ID] = struct{}{}
		e.sendProgress(progress, ProgressUpdate{
			Phase:   PhaseRestoreOwned,
			Current: i + 1,
			Total:   len(lib.OwnedPlaylists),
			Message: p.Name,
		})

		live, ok := liveOwned[p.ID]
		if !ok {
			report.Owned = append(report.Owned, e.recreatePlaylist(ctx, userID, p))
			continue
		}
		report.Owned = append(report.Owned, e.reconcilePlaylist(ctx, p, live, policy))
	}

	if policy != PolicyHard {
		return
	}
	for _, id := range liveOrder {
		if _, ok := snapshotIDs[id]; ok {
			continue
		}
		live := liveOwned[id]
		result := TargetResult{Mode: snapshot.ChangeDeleted, Name: live.Name, Before: live.Tracks.Total}
		if err := e.svc.UnfollowPlaylist(ctx, id); err != nil {
			result.Mode = snapshot.ChangeUnchanged
			result.Err = fmt.Errorf("failed to delete playlist %q: %w", live.Name, err)
		}
		report.Owned = append(report.Owned, result)
	}
}

// recreatePlaylist rebuilds a playlist that no longer exists live. The
// service assigns a fresh ID; track order follows the snapshot with
// duplicates collapsed.
func (e *Engine) recreatePlaylist(ctx context.Context, userID string, p snapshot.Playlist) TargetResult {
	result := TargetResult{Mode: snapshot.ChangeCreated, Name: p.Name}

	created, err := e.svc.CreatePlaylist(ctx, userID, p.Name, p.Description)
	if err != nil {
		result.Mode = snapshot.ChangeUnchanged
		result.Err = fmt.Errorf("failed to recreate playlist %q: %w", p.Name, err)
		return result
	}
	result.NewID = created.ID

	tracks := dedupeTracks(p.Tracks)
	for _, batch := range chunk(spotifyURIs(tracks), spotify.MaxPlaylistItemBatch) {
		if err := e.svc.AddPlaylistItems(ctx, created.ID, batch); err != nil {
			result.Err = fmt.Errorf("failed to fill playlist %q: %w", p.Name, err)
			return result
		}
		result.After += len(batch)
	}
	result.Added = tracks

	return result
}

// reconcilePlaylist applies a track-level diff to a playlist that exists on
// both sides.
func (e *Engine) reconcilePlaylist(ctx context.Context, p snapshot.Playlist, live spotify.SimplePlaylist, policy Policy) TargetResult {
	result := TargetResult{Name: p.Name}
	if live.Name != p.Name {
		result.LiveName = live.Name
	}

	liveTracks, _, err := e.collectPlaylistTracks(ctx, p.ID)
	if err != nil {
		result.Err = fmt.Errorf("failed to read playlist %q: %w", p.Name, err)
		return result
	}
	result.Before = len(liveTracks)
	result.After = len(liveTracks)

	delta := snapshot.DiffTracks(p.Tracks, liveTracks)

	if len(delta.Deletions) > 0 {
		for _, batch := range chunk(spotifyURIs(delta.Deletions), spotify.MaxPlaylistItemBatch) {
			if err := e.svc.AddPlaylistItems(ctx, p.ID, batch); err != nil {
				result.Err = fmt.Errorf("failed to re-add tracks to %q: %w", p.Name, err)
				return result
			}
			result.After += len(batch)
		}
		result.Added = delta.Deletions
	}

	if policy == PolicyHard && len(delta.Additions) > 0 {
		for _, batch := range chunk(spotifyURIs(delta.Additions), spotify.MaxPlaylistItemBatch) {
			if err := e.svc.RemovePlaylistItems(ctx, p.ID, batch); err != nil {
				result.Err = fmt.Errorf("failed to remove tracks from %q: %w", p.Name, err)
				return result
			}
			result.After -= len(batch)
		}
		result.Removed = delta.Additions
	}

	if len(result.Added) > 0 || len(result.Removed) > 0 {
		result.Mode = snapshot.ChangeModified
	}
	return result
}

// restoreFollows reconciles follow state only; tracks of playlists owned by
// other users are never touched.
func (e *Engine) restoreFollows(ctx context.Context, progress chan<- ProgressUpdate, lib *snapshot.Library, liveFollowed map[string]spotify.SimplePlaylist, liveOrder []string, policy Policy, report *RestoreReport) {
	snapshotIDs := make(map[string]struct{}, len(lib.FollowedPlaylists))

	for i, f := range lib.FollowedPlaylists {
		snapshotIDs[f.ID] = struct{}{}
		e.sendProgress(progress, ProgressUpdate{
			Phase:   PhaseRestoreFollow,
			Current: i + 1,
			Total:   len(lib.FollowedPlaylists),
			Message: f.Name,
		})

		if _, ok := liveFollowed[f.ID]; ok {
			report.Followed = append(report.Followed, TargetResult{Name: f.Name})
			continue
		}

		result := TargetResult{Mode: snapshot.ChangeCreated, Name: f.Name}
		if err := e.svc.FollowPlaylist(ctx, f.ID); err != nil {
			result.Mode = snapshot.ChangeUnchanged
			result.Err = fmt.Errorf("failed to re-follow playlist %q: %w", f.Name, err)
		}
		report.Followed = append(report.Followed, result)
	}

	if policy != PolicyHard {
		return
	}
	for _, id := range liveOrder {
		if _, ok := snapshotIDs[id]; ok {
			continue
		}
		live := liveFollowed[id]
		result := TargetResult{Mode: snapshot.ChangeDeleted, Name: live.Name}
		if err := e.svc.UnfollowPlaylist(ctx, id); err != nil {
			result.Mode = snapshot.ChangeUnchanged
			result.Err = fmt.Errorf("failed to unfollow playlist %q: %w", live.Name, err)
		}
		report.Followed = append(report.Followed, result)
	}
}

// chunk splits items into batches of at most size elements.
func chunk(items []string, size int) [][]string {
	if size <= 0 || len(items) == 0 {
		return nil
	}
	batches := make([][]string, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		batches = append(batches, items[start:end])
	}
	return batches
}

func trackIDs(tracks []snapshot.TrackRef) []string {
	ids := make([]string, len(tracks))
	for i, t := range tracks {
		ids[i] = t.ID
	}
	return ids
}

func spotifyURIs(tracks []snapshot.TrackRef) []string {
	uris := make([]string, len(tracks))
	for i, t := range tracks {
		uris[i] = t.SpotifyURI()
	}
	return uris
}

func dedupeTracks(tracks []snapshot.TrackRef) []snapshot.TrackRef {
	seen := make(map[string]struct{}, len(tracks))
	out := make([]snapshot.TrackRef, 0, len(tracks))
	for _, t := range tracks {
		if _, ok := seen[t.URI()]; ok {
			continue
		}
		seen[t.URI()] = struct{}{}
		out = append(out, t)
	}
	return out
}
