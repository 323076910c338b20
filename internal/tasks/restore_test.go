package tasks

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/spotsnap/spotsnap/internal/shared"
	"github.com/spotsnap/spotsnap/internal/snapshot"
	"github.com/spotsnap/spotsnap/internal/spotify"
)

func ref(id string) snapshot.TrackRef {
	return snapshot.TrackRef{ID: id, Name: "Track " + id, Type: snapshot.TypeTrack}
}

func TestRestore(t *testing.T) {
	ctx := context.Background()

	t.Run("soft policy only adds", func(t *testing.T) {
		svc := newMockService()
		svc.user = &spotify.User{ID: "alice"}
		// Live: t1 plus extra t9. Snapshot: t1, t2.
		svc.saved = []spotify.SavedTrack{savedTrack("t1", "One"), savedTrack("t9", "Extra")}
		svc.playlists = []spotify.SimplePlaylist{
			{ID: "p1", Name: "Keeper", Owner: spotify.Owner{ID: "alice"}},
			{ID: "p9", Name: "Extra", Owner: spotify.Owner{ID: "alice"}},
		}
		svc.items["p1"] = []spotify.PlaylistItem{playlistItem("t3", "Three")}

		lib := &snapshot.Library{
			User:       snapshot.User{ID: "alice"},
			LikedSongs: []snapshot.TrackRef{ref("t1"), ref("t2")},
			OwnedPlaylists: []snapshot.Playlist{
				{ID: "p1", Name: "Keeper", Tracks: []snapshot.TrackRef{ref("t3"), ref("t4")}},
			},
		}

		engine := NewEngine(svc, nil)
		report, err := engine.Restore(ctx, nil, lib, RestoreOptions{Policy: PolicySoft})
		if err != nil {
			t.Fatalf("Restore returned error: %v", err)
		}

		if len(svc.savedAdds) != 1 || len(svc.savedAdds[0]) != 1 || svc.savedAdds[0][0] != "t2" {
			t.Errorf("expected t2 re-added to liked songs, got %v", svc.savedAdds)
		}
		if len(svc.savedRemoves) != 0 {
			t.Errorf("soft policy must not remove liked songs, got %v", svc.savedRemoves)
		}

		if adds := svc.itemAdds["p1"]; len(adds) != 1 || adds[0][0] != "spotify:track:t4" {
			t.Errorf("expected t4 re-added to p1, got %v", adds)
		}
		if len(svc.itemRemoves["p1"]) != 0 {
			t.Errorf("soft policy must not remove playlist tracks, got %v", svc.itemRemoves["p1"])
		}
		if len(svc.unfollowed) != 0 {
			t.Errorf("soft policy must not unfollow, got %v", svc.unfollowed)
		}

		if report.Liked.Mode != snapshot.ChangeModified {
			t.Errorf("expected liked songs modified, got %s", report.Liked.Mode)
		}
		if !report.Changed() {
			t.Error("expected report.Changed() to be true")
		}
	})

	t.Run("hard policy mirrors the snapshot", func(t *testing.T) {
		svc := newMockService()
		svc.user = &spotify.User{ID: "alice"}
		svc.saved = []spotify.SavedTrack{savedTrack("t1", "One"), savedTrack("t9", "Extra")}
		svc.playlists = []spotify.SimplePlaylist{
			{ID: "p1", Name: "Keeper", Owner: spotify.Owner{ID: "alice"}},
			{ID: "p9", Name: "Stray", Owner: spotify.Owner{ID: "alice"}},
			{ID: "f9", Name: "Stray Follow", Owner: spotify.Owner{ID: "bob"}},
		}
		svc.items["p1"] = []spotify.PlaylistItem{playlistItem("t3", "Three"), playlistItem("t8", "Extra")}

		lib := &snapshot.Library{
			User:       snapshot.User{ID: "alice"},
			LikedSongs: []snapshot.TrackRef{ref("t1")},
			OwnedPlaylists: []snapshot.Playlist{
				{ID: "p1", Name: "Keeper", Tracks: []snapshot.TrackRef{ref("t3")}},
			},
		}

		backedUp := false
		engine := NewEngine(svc, nil)
		report, err := engine.Restore(ctx, nil, lib, RestoreOptions{
			Policy:    PolicyHard,
			PreBackup: func(ctx context.Context) error { backedUp = true; return nil },
		})
		if err != nil {
			t.Fatalf("Restore returned error: %v", err)
		}
		if !backedUp {
			t.Fatal("hard restore did not run the pre-backup")
		}

		if len(svc.savedRemoves) != 1 || svc.savedRemoves[0][0] != "t9" {
			t.Errorf("expected t9 removed from liked songs, got %v", svc.savedRemoves)
		}
		if removes := svc.itemRemoves["p1"]; len(removes) != 1 || removes[0][0] != "spotify:track:t8" {
			t.Errorf("expected t8 removed from p1, got %v", removes)
		}

		if len(svc.unfollowed) != 2 {
			t.Fatalf("expected stray playlist and stray follow removed, got %v", svc.unfollowed)
		}
		if svc.unfollowed[0] != "p9" || svc.unfollowed[1] != "f9" {
			t.Errorf("unexpected unfollow order: %v", svc.unfollowed)
		}

		var deleted int
		for _, target := range append(report.Owned, report.Followed...) {
			if target.Mode == snapshot.ChangeDeleted {
				deleted++
			}
		}
		if deleted != 2 {
			t.Errorf("expected 2 deleted targets in report, got %d", deleted)
		}
	})

	t.Run("hard policy requires a pre-backup", func(t *testing.T) {
		svc := newMockService()
		svc.user = &spotify.User{ID: "alice"}

		engine := NewEngine(svc, nil)
		_, err := engine.Restore(ctx, nil, &snapshot.Library{User: snapshot.User{ID: "alice"}}, RestoreOptions{Policy: PolicyHard})
		if !errors.Is(err, shared.ErrBackupFailed) {
			t.Fatalf("expected ErrBackupFailed, got %v", err)
		}
	})

	t.Run("backup failure cancels before any mutation", func(t *testing.T) {
		svc := newMockService()
		svc.user = &spotify.User{ID: "alice"}
		svc.saved = []spotify.SavedTrack{savedTrack("t9", "Extra")}

		engine := NewEngine(svc, nil)
		_, err := engine.Restore(ctx, nil, &snapshot.Library{User: snapshot.User{ID: "alice"}}, RestoreOptions{
			Policy:    PolicyHard,
			PreBackup: func(ctx context.Context) error { return errors.New("disk full") },
		})
		if !errors.Is(err, shared.ErrBackupFailed) {
			t.Fatalf("expected ErrBackupFailed, got %v", err)
		}
		if len(svc.savedAdds) != 0 || len(svc.savedRemoves) != 0 || len(svc.unfollowed) != 0 {
			t.Error("mutations ran despite backup failure")
		}
	})

	t.Run("recreates deleted playlists under a new id", func(t *testing.T) {
		svc := newMockService()
		svc.user = &spotify.User{ID: "alice"}

		lib := &snapshot.Library{
			User: snapshot.User{ID: "alice"},
			OwnedPlaylists: []snapshot.Playlist{
				{ID: "gone", Name: "Lost Mix", Description: "old", Tracks: []snapshot.TrackRef{ref("t1"), ref("t2"), ref("t1")}},
			},
		}

		engine := NewEngine(svc, nil)
		report, err := engine.Restore(ctx, nil, lib, RestoreOptions{Policy: PolicySoft})
		if err != nil {
			t.Fatalf("Restore returned error: %v", err)
		}

		if len(svc.created) != 1 || svc.created[0] != "Lost Mix" {
			t.Fatalf("expected Lost Mix recreated, got %v", svc.created)
		}

		result := report.Owned[0]
		if result.Mode != snapshot.ChangeCreated {
			t.Errorf("expected created mode, got %s", result.Mode)
		}
		if result.NewID == "" || result.NewID == "gone" {
			t.Errorf("expected a fresh playlist id, got %q", result.NewID)
		}

		// The duplicate t1 collapses to one copy.
		adds := svc.itemAdds[result.NewID]
		if len(adds) != 1 || len(adds[0]) != 2 {
			t.Fatalf("expected 2 unique tracks added, got %v", adds)
		}
		if adds[0][0] != "spotify:track:t1" || adds[0][1] != "spotify:track:t2" {
			t.Errorf("tracks added out of order: %v", adds[0])
		}
	})

	t.Run("restores follow state only", func(t *testing.T) {
		svc := newMockService()
		svc.user = &spotify.User{ID: "alice"}
		svc.playlists = []spotify.SimplePlaylist{
			{ID: "f1", Name: "Kept Follow", Owner: spotify.Owner{ID: "bob"}},
		}

		lib := &snapshot.Library{
			User: snapshot.User{ID: "alice"},
			FollowedPlaylists: []snapshot.FollowedPlaylist{
				{Playlist: snapshot.Playlist{ID: "f1", Name: "Kept Follow", Tracks: []snapshot.TrackRef{ref("t1")}}, Owner: snapshot.User{ID: "bob"}},
				{Playlist: snapshot.Playlist{ID: "f2", Name: "Dropped Follow"}, Owner: snapshot.User{ID: "carol"}},
			},
		}

		engine := NewEngine(svc, nil)
		report, err := engine.Restore(ctx, nil, lib, RestoreOptions{Policy: PolicySoft})
		if err != nil {
			t.Fatalf("Restore returned error: %v", err)
		}

		if len(svc.followed) != 1 || svc.followed[0] != "f2" {
			t.Errorf("expected f2 re-followed, got %v", svc.followed)
		}
		if len(svc.itemAdds["f1"]) != 0 {
			t.Errorf("followed playlist tracks must not be touched, got %v", svc.itemAdds["f1"])
		}
		if report.Followed[1].Mode != snapshot.ChangeCreated {
			t.Errorf("expected re-follow reported as created, got %s", report.Followed[1].Mode)
		}
	})

	t.Run("chunks large mutations", func(t *testing.T) {
		svc := newMockService()
		svc.user = &spotify.User{ID: "alice"}

		lib := &snapshot.Library{User: snapshot.User{ID: "alice"}}
		for i := 0; i < 120; i++ {
			lib.LikedSongs = append(lib.LikedSongs, ref(fmt.Sprintf("t%03d", i)))
		}

		engine := NewEngine(svc, nil)
		if _, err := engine.Restore(ctx, nil, lib, RestoreOptions{Policy: PolicySoft}); err != nil {
			t.Fatalf("Restore returned error: %v", err)
		}

		if len(svc.savedAdds) != 3 {
			t.Fatalf("expected 3 batches, got %d", len(svc.savedAdds))
		}
		for i, want := range []int{50, 50, 20} {
			if len(svc.savedAdds[i]) != want {
				t.Errorf("batch %d: expected %d ids, got %d", i, want, len(svc.savedAdds[i]))
			}
		}
	})

	t.Run("a failed target does not stop the others", func(t *testing.T) {
		svc := newMockService()
		svc.user = &spotify.User{ID: "alice"}
		svc.playlists = []spotify.SimplePlaylist{
			{ID: "p1", Name: "Broken", Owner: spotify.Owner{ID: "alice"}},
			{ID: "p2", Name: "Fine", Owner: spotify.Owner{ID: "alice"}},
		}
		svc.itemsErr["p1"] = errors.New("boom")

		lib := &snapshot.Library{
			User: snapshot.User{ID: "alice"},
			OwnedPlaylists: []snapshot.Playlist{
				{ID: "p1", Name: "Broken", Tracks: []snapshot.TrackRef{ref("t1")}},
				{ID: "p2", Name: "Fine", Tracks: []snapshot.TrackRef{ref("t2")}},
			},
		}

		engine := NewEngine(svc, nil)
		report, err := engine.Restore(ctx, nil, lib, RestoreOptions{Policy: PolicySoft})
		if err != nil {
			t.Fatalf("Restore returned error: %v", err)
		}

		if failures := report.Failures(); len(failures) != 1 || failures[0].Name != "Broken" {
			t.Fatalf("expected one failed target named Broken, got %+v", failures)
		}
		if adds := svc.itemAdds["p2"]; len(adds) != 1 || adds[0][0] != "spotify:track:t2" {
			t.Errorf("healthy playlist was not reconciled: %v", adds)
		}
	})

	t.Run("unchanged library reports no changes", func(t *testing.T) {
		svc := newMockService()
		svc.user = &spotify.User{ID: "alice"}
		svc.saved = []spotify.SavedTrack{savedTrack("t1", "One")}

		lib := &snapshot.Library{
			User:       snapshot.User{ID: "alice"},
			LikedSongs: []snapshot.TrackRef{ref("t1")},
		}

		engine := NewEngine(svc, nil)
		report, err := engine.Restore(ctx, nil, lib, RestoreOptions{Policy: PolicySoft})
		if err != nil {
			t.Fatalf("Restore returned error: %v", err)
		}
		if report.Changed() {
			t.Error("expected no changes")
		}
	})
}

func TestChunk(t *testing.T) {
	if got := chunk(nil, 50); got != nil {
		t.Errorf("expected nil for empty input, got %v", got)
	}

	got := chunk([]string{"a", "b", "c"}, 2)
	if len(got) != 2 || len(got[0]) != 2 || len(got[1]) != 1 {
		t.Errorf("unexpected batches: %v", got)
	}
}
