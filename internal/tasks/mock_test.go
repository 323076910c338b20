package tasks

import (
	"context"
	"fmt"

	"github.com/spotsnap/spotsnap/internal/spotify"
)

// mockService is an in-memory Service double. Listing state is configured
// up front; mutation calls are recorded for assertions.
type mockService struct {
	user      *spotify.User
	saved     []spotify.SavedTrack
	playlists []spotify.SimplePlaylist
	items     map[string][]spotify.PlaylistItem
	images    map[string][]byte

	userErr     error
	savedErr    error
	playlistErr error
	itemsErr    map[string]error
	saveErr     error
	removeErr   error
	addErr      map[string]error
	createErr   error
	followErr   error
	unfollowErr error
	imageErr    error

	savedCalls    int
	playlistCalls int

	savedAdds    [][]string
	savedRemoves [][]string
	itemAdds     map[string][][]string
	itemRemoves  map[string][][]string
	created      []string
	followed     []string
	unfollowed   []string
}

func newMockService() *mockService {
	return &mockService{
		items:       make(map[string][]spotify.PlaylistItem),
		images:      make(map[string][]byte),
		itemsErr:    make(map[string]error),
		addErr:      make(map[string]error),
		itemAdds:    make(map[string][][]string),
		itemRemoves: make(map[string][][]string),
	}
}

func (m *mockService) Name() string { return "mock" }

func (m *mockService) CurrentUser(ctx context.Context) (*spotify.User, error) {
	if m.userErr != nil {
		return nil, m.userErr
	}
	return m.user, nil
}

func (m *mockService) SavedTracks(ctx context.Context, limit, offset int) (*spotify.SavedTracksPage, error) {
	m.savedCalls++
	if m.savedErr != nil {
		return nil, m.savedErr
	}
	items, next := pageSlice(len(m.saved), limit, offset)
	return &spotify.SavedTracksPage{
		Items:  m.saved[items[0]:items[1]],
		Total:  len(m.saved),
		Limit:  limit,
		Offset: offset,
		Next:   next,
	}, nil
}

func (m *mockService) Playlists(ctx context.Context, limit, offset int) (*spotify.PlaylistsPage, error) {
	m.playlistCalls++
	if m.playlistErr != nil {
		return nil, m.playlistErr
	}
	items, next := pageSlice(len(m.playlists), limit, offset)
	return &spotify.PlaylistsPage{
		Items:  m.playlists[items[0]:items[1]],
		Total:  len(m.playlists),
		Limit:  limit,
		Offset: offset,
		Next:   next,
	}, nil
}

func (m *mockService) PlaylistItems(ctx context.Context, playlistID string, limit, offset int) (*spotify.PlaylistItemsPage, error) {
	if err := m.itemsErr[playlistID]; err != nil {
		return nil, err
	}
	all := m.items[playlistID]
	items, next := pageSlice(len(all), limit, offset)
	return &spotify.PlaylistItemsPage{
		Items:  all[items[0]:items[1]],
		Total:  len(all),
		Limit:  limit,
		Offset: offset,
		Next:   next,
	}, nil
}

func (m *mockService) SaveTracks(ctx context.Context, ids []string) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.savedAdds = append(m.savedAdds, ids)
	return nil
}

func (m *mockService) RemoveSavedTracks(ctx context.Context, ids []string) error {
	if m.removeErr != nil {
		return m.removeErr
	}
	m.savedRemoves = append(m.savedRemoves, ids)
	return nil
}

func (m *mockService) AddPlaylistItems(ctx context.Context, playlistID string, uris []string) error {
	if err := m.addErr[playlistID]; err != nil {
		return err
	}
	m.itemAdds[playlistID] = append(m.itemAdds[playlistID], uris)
	return nil
}

func (m *mockService) RemovePlaylistItems(ctx context.Context, playlistID string, uris []string) error {
	m.itemRemoves[playlistID] = append(m.itemRemoves[playlistID], uris)
	return nil
}

func (m *mockService) CreatePlaylist(ctx context.Context, userID, name, description string) (*spotify.FullPlaylist, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	id := fmt.Sprintf("new-%d", len(m.created))
	m.created = append(m.created, name)
	return &spotify.FullPlaylist{ID: id, Name: name, Description: description, Owner: spotify.Owner{ID: userID}}, nil
}

func (m *mockService) FollowPlaylist(ctx context.Context, playlistID string) error {
	if m.followErr != nil {
		return m.followErr
	}
	m.followed = append(m.followed, playlistID)
	return nil
}

func (m *mockService) UnfollowPlaylist(ctx context.Context, playlistID string) error {
	if m.unfollowErr != nil {
		return m.unfollowErr
	}
	m.unfollowed = append(m.unfollowed, playlistID)
	return nil
}

func (m *mockService) DownloadImage(ctx context.Context, imageURL string) ([]byte, error) {
	if m.imageErr != nil {
		return nil, m.imageErr
	}
	data, ok := m.images[imageURL]
	if !ok {
		return nil, fmt.Errorf("no image at %s", imageURL)
	}
	return data, nil
}

// pageSlice computes the [start, end) window and Next marker for one page.
func pageSlice(total, limit, offset int) ([2]int, *string) {
	start := offset
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}

	var next *string
	if end < total {
		url := fmt.Sprintf("next?offset=%d", end)
		next = &url
	}
	return [2]int{start, end}, next
}

func track(id, name string, artists ...string) *spotify.Track {
	as := make([]spotify.Artist, len(artists))
	for i, a := range artists {
		as[i] = spotify.Artist{ID: a, Name: a}
	}
	return &spotify.Track{ID: id, Name: name, Type: "track", Artists: as, URI: "spotify:track:" + id}
}

func savedTrack(id, name string) spotify.SavedTrack {
	return spotify.SavedTrack{AddedAt: "2024-01-01T00:00:00Z", Track: track(id, name, "artist")}
}

func playlistItem(id, name string) spotify.PlaylistItem {
	return spotify.PlaylistItem{AddedAt: "2024-01-01T00:00:00Z", Track: track(id, name, "artist")}
}
