package snapshot

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/spotsnap/spotsnap/internal/archive"
	"github.com/spotsnap/spotsnap/internal/shared"
)

// On-disk layout of a snapshot directory.
const (
	SnapshotFile = "snapshot.json"
	MetadataFile = "metadata.toml"
	ImagesDir    = "images"
)

// Metadata is the timestamp marker written alongside the snapshot document.
type Metadata struct {
	CreatedAt         time.Time `toml:"created_at"`
	UserID            string    `toml:"user_id"`
	DisplayName       string    `toml:"display_name"`
	LikedSongs        int       `toml:"liked_songs"`
	OwnedPlaylists    int       `toml:"owned_playlists"`
	FollowedPlaylists int       `toml:"followed_playlists"`
	SkippedItems      int       `toml:"skipped_items"`
}

// NewMetadata derives the metadata marker from a captured library.
func NewMetadata(lib *Library, skipped int, now time.Time) Metadata {
	return Metadata{
		CreatedAt:         now.UTC(),
		UserID:            lib.User.ID,
		DisplayName:       lib.User.DisplayName,
		LikedSongs:        len(lib.LikedSongs),
		OwnedPlaylists:    len(lib.OwnedPlaylists),
		FollowedPlaylists: len(lib.FollowedPlaylists),
		SkippedItems:      skipped,
	}
}

// EnsureAbsent fails with [shared.ErrOutputExists] when path already exists.
// Called before collection starts so an output conflict is fatal before any
// remote call is made.
func EnsureAbsent(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%w: %s", shared.ErrOutputExists, path)
	}
	return nil
}

// Marshal renders the library as the canonical human-diffable JSON document.
func Marshal(lib *Library) ([]byte, error) {
	data, err := json.MarshalIndent(lib, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	return append(data, '\n'), nil
}

// Write persists the snapshot document and its metadata marker into dir,
// creating the directory if needed. Cover images, when downloaded, live
// under dir/images and are written by the collector, not here.
func Write(dir string, lib *Library, meta Metadata) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	data, err := Marshal(lib)
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, SnapshotFile), data, 0644); err != nil {
		return fmt.Errorf("failed to write snapshot document: %w", err)
	}

	metaFile, err := os.OpenFile(filepath.Join(dir, MetadataFile), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to write snapshot metadata: %w", err)
	}
	defer metaFile.Close()

	if err := toml.NewEncoder(metaFile).Encode(meta); err != nil {
		return fmt.Errorf("failed to encode snapshot metadata: %w", err)
	}

	return nil
}

// Load reads a persisted snapshot. The path may be a snapshot directory, a
// bare snapshot JSON file, or an archive produced with --compress. The
// metadata marker is optional; nil is returned when it is missing.
func Load(path string) (*Library, *Metadata, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %s", shared.ErrSnapshotNotFound, path)
	}

	switch {
	case info.IsDir():
		return loadDir(path)
	case archive.IsArchive(path):
		return loadArchive(path)
	default:
		lib, err := loadDocument(path)
		return lib, nil, err
	}
}

func loadDir(dir string) (*Library, *Metadata, error) {
	lib, err := loadDocument(filepath.Join(dir, SnapshotFile))
	if err != nil {
		return nil, nil, err
	}

	meta, err := loadMetadata(filepath.Join(dir, MetadataFile))
	if err != nil {
		// The document alone is a valid snapshot.
		return lib, nil, nil
	}
	return lib, meta, nil
}

func loadArchive(path string) (*Library, *Metadata, error) {
	staging, err := os.MkdirTemp("", "spotsnap-restore-*")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create staging directory: %w", err)
	}
	defer os.RemoveAll(staging)

	if err := archive.Unpack(path, staging); err != nil {
		return nil, nil, err
	}
	return loadDir(staging)
}

func loadDocument(path string) (*Library, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", shared.ErrSnapshotNotFound, path)
	}

	var lib Library
	if err := json.Unmarshal(data, &lib); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidSnapshot, err)
	}
	if lib.User.ID == "" {
		return nil, fmt.Errorf("%w: missing user profile", shared.ErrInvalidSnapshot)
	}

	return &lib, nil
}

func loadMetadata(path string) (*Metadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var meta Metadata
	if err := toml.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("%w: bad metadata: %v", shared.ErrInvalidSnapshot, err)
	}
	return &meta, nil
}
