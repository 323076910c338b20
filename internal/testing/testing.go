// package testing provides shared test doubles.
package testing

import (
	"context"
	"fmt"

	"github.com/spotsnap/spotsnap/internal/spotify"
)

// MockService is an in-memory stand-in for the live library. Listing state
// is configured up front; mutations are recorded for assertions. It serves
// the whole configured listing as a single page.
type MockService struct {
	User            *spotify.User
	Saved           []spotify.SavedTrack
	SimplePlaylists []spotify.SimplePlaylist
	Items           map[string][]spotify.PlaylistItem
	Images          map[string][]byte

	UserErr error

	SavedAdds    [][]string
	SavedRemoves [][]string
	ItemAdds     map[string][][]string
	ItemRemoves  map[string][][]string
	Created      []string
	Followed     []string
	Unfollowed   []string
}

// NewMockService creates a MockService with initialized maps.
func NewMockService() *MockService {
	return &MockService{
		Items:       make(map[string][]spotify.PlaylistItem),
		Images:      make(map[string][]byte),
		ItemAdds:    make(map[string][][]string),
		ItemRemoves: make(map[string][][]string),
	}
}

func (m *MockService) Name() string { return "mock" }

func (m *MockService) CurrentUser(ctx context.Context) (*spotify.User, error) {
	if m.UserErr != nil {
		return nil, m.UserErr
	}
	if m.User == nil {
		return nil, fmt.Errorf("no user configured")
	}
	return m.User, nil
}

func (m *MockService) SavedTracks(ctx context.Context, limit, offset int) (*spotify.SavedTracksPage, error) {
	if offset >= len(m.Saved) {
		return &spotify.SavedTracksPage{Total: len(m.Saved), Limit: limit, Offset: offset}, nil
	}
	return &spotify.SavedTracksPage{Items: m.Saved[offset:], Total: len(m.Saved), Limit: limit, Offset: offset}, nil
}

func (m *MockService) Playlists(ctx context.Context, limit, offset int) (*spotify.PlaylistsPage, error) {
	if offset >= len(m.SimplePlaylists) {
		return &spotify.PlaylistsPage{Total: len(m.SimplePlaylists), Limit: limit, Offset: offset}, nil
	}
	return &spotify.PlaylistsPage{Items: m.SimplePlaylists[offset:], Total: len(m.SimplePlaylists), Limit: limit, Offset: offset}, nil
}

func (m *MockService) PlaylistItems(ctx context.Context, playlistID string, limit, offset int) (*spotify.PlaylistItemsPage, error) {
	all := m.Items[playlistID]
	if offset >= len(all) {
		return &spotify.PlaylistItemsPage{Total: len(all), Limit: limit, Offset: offset}, nil
	}
	return &spotify.PlaylistItemsPage{Items: all[offset:], Total: len(all), Limit: limit, Offset: offset}, nil
}

func (m *MockService) SaveTracks(ctx context.Context, ids []string) error {
	m.SavedAdds = append(m.SavedAdds, ids)
	return nil
}

func (m *MockService) RemoveSavedTracks(ctx context.Context, ids []string) error {
	m.SavedRemoves = append(m.SavedRemoves, ids)
	return nil
}

func (m *MockService) AddPlaylistItems(ctx context.Context, playlistID string, uris []string) error {
	m.ItemAdds[playlistID] = append(m.ItemAdds[playlistID], uris)
	return nil
}

func (m *MockService) RemovePlaylistItems(ctx context.Context, playlistID string, uris []string) error {
	m.ItemRemoves[playlistID] = append(m.ItemRemoves[playlistID], uris)
	return nil
}

func (m *MockService) CreatePlaylist(ctx context.Context, userID, name, description string) (*spotify.FullPlaylist, error) {
	id := fmt.Sprintf("created-%d", len(m.Created))
	m.Created = append(m.Created, name)
	return &spotify.FullPlaylist{ID: id, Name: name, Description: description, Owner: spotify.Owner{ID: userID}}, nil
}

func (m *MockService) FollowPlaylist(ctx context.Context, playlistID string) error {
	m.Followed = append(m.Followed, playlistID)
	return nil
}

func (m *MockService) UnfollowPlaylist(ctx context.Context, playlistID string) error {
	m.Unfollowed = append(m.Unfollowed, playlistID)
	return nil
}

func (m *MockService) DownloadImage(ctx context.Context, imageURL string) ([]byte, error) {
	data, ok := m.Images[imageURL]
	if !ok {
		return nil, fmt.Errorf("no image at %s", imageURL)
	}
	return data, nil
}

// SavedTrack builds a saved-track listing entry.
func SavedTrack(id, name string) spotify.SavedTrack {
	return spotify.SavedTrack{
		AddedAt: "2024-01-01T00:00:00Z",
		Track:   &spotify.Track{ID: id, Name: name, Type: "track", URI: "spotify:track:" + id},
	}
}

// PlaylistItem builds a playlist listing entry.
func PlaylistItem(id, name string) spotify.PlaylistItem {
	return spotify.PlaylistItem{
		AddedAt: "2024-01-01T00:00:00Z",
		Track:   &spotify.Track{ID: id, Name: name, Type: "track", URI: "spotify:track:" + id},
	}
}
