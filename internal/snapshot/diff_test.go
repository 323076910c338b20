package snapshot

import (
	"testing"
)

func tr(id string) TrackRef {
	return TrackRef{ID: id, Name: "Track " + id, Type: TypeTrack}
}

func uris(tracks []TrackRef) []string {
	out := make([]string, len(tracks))
	for i, t := range tracks {
		out[i] = t.URI()
	}
	return out
}

func equalURIs(got []TrackRef, want ...string) bool {
	if len(got) != len(want) {
		return false
	}
	for i, uri := range uris(got) {
		if uri != want[i] {
			return false
		}
	}
	return true
}

func TestDiffTracks(t *testing.T) {
	t.Run("splits additions and deletions", func(t *testing.T) {
		before := []TrackRef{tr("t1"), tr("t2"), tr("t3")}
		after := []TrackRef{tr("t2"), tr("t3"), tr("t4")}

		delta := DiffTracks(before, after)
		if !equalURIs(delta.Additions, "track:t4") {
			t.Errorf("unexpected additions: %v", uris(delta.Additions))
		}
		if !equalURIs(delta.Deletions, "track:t1") {
			t.Errorf("unexpected deletions: %v", uris(delta.Deletions))
		}
	})

	t.Run("identity ignores metadata", func(t *testing.T) {
		before := []TrackRef{{ID: "t1", Name: "Old Title", Artists: []string{"A"}, AddedAt: "2020-01-01", Type: TypeTrack}}
		after := []TrackRef{{ID: "t1", Name: "New Title", Artists: []string{"B"}, AddedAt: "2024-01-01", Type: TypeTrack}}

		if delta := DiffTracks(before, after); !delta.Empty() {
			t.Errorf("metadata change produced a delta: %+v", delta)
		}
	})

	t.Run("identity is type qualified", func(t *testing.T) {
		before := []TrackRef{{ID: "x1", Type: TypeTrack}}
		after := []TrackRef{{ID: "x1", Type: TypeEpisode}}

		delta := DiffTracks(before, after)
		if !equalURIs(delta.Additions, "episode:x1") || !equalURIs(delta.Deletions, "track:x1") {
			t.Errorf("same raw id across namespaces must differ: %+v", delta)
		}
	})

	t.Run("preserves relative order", func(t *testing.T) {
		before := []TrackRef{tr("a"), tr("b"), tr("c"), tr("d")}
		after := []TrackRef{tr("z"), tr("b"), tr("y"), tr("d")}

		delta := DiffTracks(before, after)
		if !equalURIs(delta.Additions, "track:z", "track:y") {
			t.Errorf("additions out of after-order: %v", uris(delta.Additions))
		}
		if !equalURIs(delta.Deletions, "track:a", "track:c") {
			t.Errorf("deletions out of before-order: %v", uris(delta.Deletions))
		}
	})

	t.Run("duplicates collapse to the first occurrence", func(t *testing.T) {
		before := []TrackRef{tr("a")}
		after := []TrackRef{tr("b"), tr("a"), tr("b")}

		delta := DiffTracks(before, after)
		if !equalURIs(delta.Additions, "track:b") {
			t.Errorf("duplicate addition not collapsed: %v", uris(delta.Additions))
		}
	})

	t.Run("empty sides", func(t *testing.T) {
		if delta := DiffTracks(nil, nil); !delta.Empty() {
			t.Errorf("nil vs nil produced a delta: %+v", delta)
		}

		delta := DiffTracks(nil, []TrackRef{tr("a")})
		if !equalURIs(delta.Additions, "track:a") || len(delta.Deletions) != 0 {
			t.Errorf("unexpected delta against empty before: %+v", delta)
		}
	})
}

func TestDiffLibraries(t *testing.T) {
	reference := &Library{
		User:       User{ID: "alice"},
		LikedSongs: []TrackRef{tr("l1"), tr("l2")},
		OwnedPlaylists: []Playlist{
			{ID: "p1", Name: "Stable", Tracks: []TrackRef{tr("a")}},
			{ID: "p2", Name: "Gone", Tracks: []TrackRef{tr("b")}},
			{ID: "p3", Name: "Edited", Tracks: []TrackRef{tr("c")}},
		},
		FollowedPlaylists: []FollowedPlaylist{
			{Playlist: Playlist{ID: "f1", Name: "Kept"}, Owner: User{ID: "bob"}},
		},
	}
	changed := &Library{
		User:       User{ID: "alice"},
		LikedSongs: []TrackRef{tr("l2"), tr("l3")},
		OwnedPlaylists: []Playlist{
			{ID: "p1", Name: "Stable", Tracks: []TrackRef{tr("a")}},
			{ID: "p3", Name: "Edited Anew", Tracks: []TrackRef{tr("c"), tr("d")}},
			{ID: "p4", Name: "Fresh", Tracks: []TrackRef{tr("e")}},
		},
	}

	delta := DiffLibraries(reference, changed)

	if !equalURIs(delta.Liked.Additions, "track:l3") || !equalURIs(delta.Liked.Deletions, "track:l1") {
		t.Errorf("unexpected liked delta: %+v", delta.Liked)
	}

	if len(delta.Owned) != 4 {
		t.Fatalf("expected 4 owned deltas, got %d", len(delta.Owned))
	}

	byMode := map[ChangeMode]PlaylistDelta{}
	for _, d := range delta.Owned {
		byMode[d.Mode] = d
	}

	if d := byMode[ChangeUnchanged]; d.Name() != "Stable" {
		t.Errorf("expected Stable unchanged, got %q", d.Name())
	}
	if d := byMode[ChangeDeleted]; d.Reference == nil || d.Reference.ID != "p2" {
		t.Errorf("expected p2 deleted, got %+v", d)
	}
	if d := byMode[ChangeCreated]; d.Changed == nil || d.Changed.ID != "p4" {
		t.Errorf("expected p4 created, got %+v", d)
	}

	edited := byMode[ChangeModified]
	if edited.Reference == nil || edited.Reference.ID != "p3" {
		t.Fatalf("expected p3 modified, got %+v", edited)
	}
	if !edited.Renamed() {
		t.Error("expected rename detected on p3")
	}
	if !equalURIs(edited.Tracks.Additions, "track:d") {
		t.Errorf("unexpected p3 additions: %v", uris(edited.Tracks.Additions))
	}

	if len(delta.Followed) != 1 || delta.Followed[0].Mode != ChangeDeleted {
		t.Errorf("expected the follow reported deleted, got %+v", delta.Followed)
	}

	if delta.Empty() {
		t.Error("a changed library must not report empty")
	}
}

func TestLibraryDeltaEmpty(t *testing.T) {
	lib := &Library{
		User:           User{ID: "alice"},
		LikedSongs:     []TrackRef{tr("l1")},
		OwnedPlaylists: []Playlist{{ID: "p1", Name: "Same", Tracks: []TrackRef{tr("a")}}},
	}

	if delta := DiffLibraries(lib, lib); !delta.Empty() {
		t.Errorf("identical libraries produced a delta: %+v", delta)
	}
}
