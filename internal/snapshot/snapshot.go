// package snapshot defines the immutable point-in-time model of a Spotify
// library and the pure operations over it: reference parsing, ordered
// diffing, and the on-disk document store.
//
// Field names in the serialized JSON document are part of the snapshot
// format and must not change.
package snapshot

// ResourceType discriminates the resource namespaces an ID can live in.
// Tracks and episodes may share raw IDs, so identity is always the
// (type, id) pair, never the ID alone.
type ResourceType string

const (
	TypeTrack    ResourceType = "track"
	TypeEpisode  ResourceType = "episode"
	TypePlaylist ResourceType = "playlist"
	TypeAlbum    ResourceType = "album"
	TypeArtist   ResourceType = "artist"
	TypeUser     ResourceType = "user"
	TypeShow     ResourceType = "show"

	// TypeUnknown marks a bare ID whose namespace could not be determined
	// from the reference alone.
	TypeUnknown ResourceType = ""
)

// TrackRef is one entry of a track list: a playable item (track or episode)
// plus descriptive metadata. Identity for diffing is URI(); name, artists
// and addedAt never participate in equality.
type TrackRef struct {
	ID      string       `json:"id"`
	Name    string       `json:"name"`
	Artists []string     `json:"artists"`
	AddedAt string       `json:"addedAt,omitempty"`
	Type    ResourceType `json:"type"`
}

// URI returns the type-qualified identity key, e.g. "track:4uLU6hMC".
func (t TrackRef) URI() string {
	return string(t.Type) + ":" + t.ID
}

// SpotifyURI returns the full Spotify URI form used by mutation endpoints,
// e.g. "spotify:track:4uLU6hMC".
func (t TrackRef) SpotifyURI() string {
	return "spotify:" + t.URI()
}

// User is a snapshot of a user profile.
type User struct {
	ID           string `json:"id"`
	DisplayName  string `json:"displayName"`
	NumFollowers *int   `json:"numFollowers"`
}

// Playlist is a snapshot of one playlist and its ordered track list.
// An empty ID denotes the synthetic "Liked Songs" pseudo-playlist, which
// has no create/delete lifecycle.
type Playlist struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Photo       string     `json:"photo,omitempty"`
	Tracks      []TrackRef `json:"tracks"`
}

// FollowedPlaylist is a playlist owned by someone else that the user follows.
type FollowedPlaylist struct {
	Playlist
	Owner User `json:"owner"`
}

// Library is an immutable capture of the whole library. It is built once by
// the collector and never edited in place; restoring produces a new live
// state, not a new snapshot.
type Library struct {
	User              User               `json:"user"`
	LikedSongs        []TrackRef         `json:"likedSongs"`
	OwnedPlaylists    []Playlist         `json:"ownedPlaylists"`
	FollowedPlaylists []FollowedPlaylist `json:"followedPlaylists"`
}

// LikedPlaylist wraps the liked songs into the pseudo-playlist form used by
// diffing and reporting.
func (l *Library) LikedPlaylist() Playlist {
	return Playlist{Name: "Liked Songs", Tracks: l.LikedSongs}
}

// TrackURIs returns the identity keys of tracks in order, without duplicates.
func TrackURIs(tracks []TrackRef) []string {
	seen := make(map[string]struct{}, len(tracks))
	uris := make([]string, 0, len(tracks))
	for _, t := range tracks {
		uri := t.URI()
		if _, ok := seen[uri]; ok {
			continue
		}
		seen[uri] = struct{}{}
		uris = append(uris, uri)
	}
	return uris
}
