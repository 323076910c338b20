// Spotify Web API response types, based on
// https://developer.spotify.com/documentation/web-api/reference/
package spotify

// Followers carries a follower count.
type Followers struct {
	Total int `json:"total"`
}

// Image represents an image resource.
type Image struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

// User represents a Spotify user profile.
type User struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"display_name"`
	Followers   Followers `json:"followers"`
	Images      []Image   `json:"images"`
}

// Artist represents a Spotify artist.
type Artist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Track represents a playable item. Type is "track" or "episode"; episodes
// reuse the same shape with the show name in Artists.
type Track struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Type       string   `json:"type"`
	Artists    []Artist `json:"artists"`
	DurationMS int      `json:"duration_ms"`
	URI        string   `json:"uri"`
}

// SavedTrack represents a track saved in the user's library. Track can be
// null upstream for entries that no longer resolve.
type SavedTrack struct {
	AddedAt string `json:"added_at"`
	Track   *Track `json:"track"`
}

// SavedTracksPage is one page of the saved-tracks listing.
type SavedTracksPage struct {
	Items  []SavedTrack `json:"items"`
	Total  int          `json:"total"`
	Limit  int          `json:"limit"`
	Offset int          `json:"offset"`
	Next   *string      `json:"next"`
}

// Owner identifies the user owning a playlist.
type Owner struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

type trackTotal struct {
	Total int `json:"total"`
}

// SimplePlaylist is the summary playlist object returned by list endpoints;
// it carries a track count but no track items.
type SimplePlaylist struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Owner       Owner      `json:"owner"`
	Public      bool       `json:"public"`
	Tracks      trackTotal `json:"tracks"`
	Images      []Image    `json:"images"`
	URI         string     `json:"uri"`
}

// PlaylistsPage is one page of the user's playlist listing. Owned and
// followed playlists arrive interleaved; the API has no separate listing.
type PlaylistsPage struct {
	Items  []SimplePlaylist `json:"items"`
	Total  int              `json:"total"`
	Limit  int              `json:"limit"`
	Offset int              `json:"offset"`
	Next   *string          `json:"next"`
}

// PlaylistItem represents one entry of a playlist's track listing. Track is
// null upstream for unresolvable entries (removed or region-locked items).
type PlaylistItem struct {
	AddedAt string `json:"added_at"`
	Track   *Track `json:"track"`
}

// PlaylistItemsPage is one page of a playlist's full track listing.
type PlaylistItemsPage struct {
	Items  []PlaylistItem `json:"items"`
	Total  int            `json:"total"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
	Next   *string        `json:"next"`
}

// FullPlaylist represents a playlist fetched by ID.
type FullPlaylist struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Owner       Owner   `json:"owner"`
	Public      bool    `json:"public"`
	Images      []Image `json:"images"`
	URI         string  `json:"uri"`
}

// CoverURL returns the first cover image URL, or "" when none exists.
func (p SimplePlaylist) CoverURL() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0].URL
}
