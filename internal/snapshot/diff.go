package snapshot

// ChangeMode classifies how a playlist changed between the reference side
// and the changed side of a diff.
type ChangeMode int

const (
	// ChangeUnchanged means the playlist exists on both sides with
	// identical track sets.
	ChangeUnchanged ChangeMode = iota

	// ChangeCreated means the playlist exists on the changed side only.
	ChangeCreated

	// ChangeDeleted means the playlist exists on the reference side only.
	ChangeDeleted

	// ChangeModified means the playlist exists on both sides and the track
	// sets differ.
	ChangeModified
)

func (m ChangeMode) String() string {
	switch m {
	case ChangeCreated:
		return "created"
	case ChangeDeleted:
		return "deleted"
	case ChangeModified:
		return "modified"
	default:
		return "unchanged"
	}
}

// TrackDelta holds the ordered set difference between two track lists.
type TrackDelta struct {
	// Additions are present in the changed side only, in changed-side order.
	Additions []TrackRef
	// Deletions are present in the reference side only, in reference-side order.
	Deletions []TrackRef
}

// Empty reports whether the delta carries no changes.
func (d TrackDelta) Empty() bool {
	return len(d.Additions) == 0 && len(d.Deletions) == 0
}

// DiffTracks computes the delta between two ordered track lists, keyed by
// URI (type + id) only; descriptive metadata never affects membership.
// Additions preserve the relative order of `after`, deletions the relative
// order of `before`.
//
// Duplicate URIs within one list collapse to their first occurrence:
// membership is set-based, so a playlist holding the same track twice
// round-trips to a single copy.
func DiffTracks(before, after []TrackRef) TrackDelta {
	beforeSet := make(map[string]struct{}, len(before))
	for _, t := range before {
		beforeSet[t.URI()] = struct{}{}
	}
	afterSet := make(map[string]struct{}, len(after))
	for _, t := range after {
		afterSet[t.URI()] = struct{}{}
	}

	var delta TrackDelta

	seen := make(map[string]struct{})
	for _, t := range after {
		uri := t.URI()
		if _, dup := seen[uri]; dup {
			continue
		}
		seen[uri] = struct{}{}
		if _, ok := beforeSet[uri]; !ok {
			delta.Additions = append(delta.Additions, t)
		}
	}

	seen = make(map[string]struct{})
	for _, t := range before {
		uri := t.URI()
		if _, dup := seen[uri]; dup {
			continue
		}
		seen[uri] = struct{}{}
		if _, ok := afterSet[uri]; !ok {
			delta.Deletions = append(delta.Deletions, t)
		}
	}

	return delta
}

// PlaylistDelta is the change record for a single target playlist.
// Reference is nil for created playlists, Changed is nil for deleted ones.
type PlaylistDelta struct {
	Mode      ChangeMode
	Reference *Playlist
	Changed   *Playlist
	Tracks    TrackDelta
}

// Name returns the display name of the playlist, preferring the changed side.
func (d PlaylistDelta) Name() string {
	if d.Changed != nil {
		return d.Changed.Name
	}
	if d.Reference != nil {
		return d.Reference.Name
	}
	return ""
}

// Renamed reports whether the playlist name differs between the two sides.
func (d PlaylistDelta) Renamed() bool {
	return d.Reference != nil && d.Changed != nil && d.Reference.Name != d.Changed.Name
}

// LibraryDelta aggregates per-target deltas across the whole library.
type LibraryDelta struct {
	Liked    TrackDelta
	Owned    []PlaylistDelta
	Followed []PlaylistDelta
}

// Empty reports whether no target changed.
func (d LibraryDelta) Empty() bool {
	if !d.Liked.Empty() {
		return false
	}
	for _, p := range append(append([]PlaylistDelta{}, d.Owned...), d.Followed...) {
		if p.Mode != ChangeUnchanged {
			return false
		}
	}
	return true
}

// DiffLibraries computes the full delta from a reference library to a
// changed library. Playlist-level classification is by presence of the
// playlist ID on each side, independent of the track-level diff.
func DiffLibraries(reference, changed *Library) LibraryDelta {
	delta := LibraryDelta{
		Liked: DiffTracks(reference.LikedSongs, changed.LikedSongs),
	}

	delta.Owned = diffPlaylists(reference.OwnedPlaylists, changed.OwnedPlaylists)
	delta.Followed = diffPlaylists(followedToPlaylists(reference.FollowedPlaylists), followedToPlaylists(changed.FollowedPlaylists))

	return delta
}

func followedToPlaylists(followed []FollowedPlaylist) []Playlist {
	playlists := make([]Playlist, len(followed))
	for i, f := range followed {
		playlists[i] = f.Playlist
	}
	return playlists
}

// diffPlaylists matches playlists by ID, preserving reference order for
// surviving and deleted entries and changed order for created ones.
func diffPlaylists(reference, changed []Playlist) []PlaylistDelta {
	changedByID := make(map[string]*Playlist, len(changed))
	for i := range changed {
		changedByID[changed[i].ID] = &changed[i]
	}
	referenceIDs := make(map[string]struct{}, len(reference))
	for i := range reference {
		referenceIDs[reference[i].ID] = struct{}{}
	}

	var deltas []PlaylistDelta

	for i := range reference {
		ref := &reference[i]
		chg, ok := changedByID[ref.ID]
		if !ok {
			deltas = append(deltas, PlaylistDelta{
				Mode:      ChangeDeleted,
				Reference: ref,
				Tracks:    DiffTracks(ref.Tracks, nil),
			})
			continue
		}

		tracks := DiffTracks(ref.Tracks, chg.Tracks)
		mode := ChangeUnchanged
		if !tracks.Empty() {
			mode = ChangeModified
		}
		deltas = append(deltas, PlaylistDelta{
			Mode:      mode,
			Reference: ref,
			Changed:   chg,
			Tracks:    tracks,
		})
	}

	for i := range changed {
		chg := &changed[i]
		if _, ok := referenceIDs[chg.ID]; ok {
			continue
		}
		deltas = append(deltas, PlaylistDelta{
			Mode:    ChangeCreated,
			Changed: chg,
			Tracks:  DiffTracks(nil, chg.Tracks),
		})
	}

	return deltas
}
