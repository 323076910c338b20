package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/spotsnap/spotsnap/internal/shared"
)

// Run kinds.
const (
	RunBackup  = "backup"
	RunRestore = "restore"
)

// Run is one recorded backup or restore.
type Run struct {
	ID                string
	Kind              string
	Path              string
	Policy            string // restore runs only
	UserID            string
	LikedSongs        int
	OwnedPlaylists    int
	FollowedPlaylists int
	SkippedItems      int
	CreatedAt         time.Time
}

// RunRepository persists [Run] rows in SQLite.
type RunRepository struct {
	db *sql.DB
}

// NewRunRepository creates a new RunRepository with the given database connection
func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

// Init creates the runs table when it does not exist yet.
func (r *RunRepository) Init() error {
	query := `
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			kind TEXT NOT NULL,
			path TEXT NOT NULL,
			policy TEXT NOT NULL DEFAULT '',
			user_id TEXT NOT NULL DEFAULT '',
			liked_songs INTEGER NOT NULL DEFAULT 0,
			owned_playlists INTEGER NOT NULL DEFAULT 0,
			followed_playlists INTEGER NOT NULL DEFAULT 0,
			skipped_items INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL
		)
	`

	if _, err := r.db.Exec(query); err != nil {
		return fmt.Errorf("failed to create runs table: %w", err)
	}
	return nil
}

// Create inserts a new run with a generated ID.
func (r *RunRepository) Create(run *Run) error {
	if run.Kind != RunBackup && run.Kind != RunRestore {
		return fmt.Errorf("invalid run kind: %q", run.Kind)
	}

	run.ID = shared.GenerateID()
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO runs (
			id, kind, path, policy, user_id, liked_songs,
			owned_playlists, followed_playlists, skipped_items, created_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.Exec(query,
		run.ID,
		run.Kind,
		run.Path,
		run.Policy,
		run.UserID,
		run.LikedSongs,
		run.OwnedPlaylists,
		run.FollowedPlaylists,
		run.SkippedItems,
		run.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	return nil
}

// List retrieves runs newest first, at most limit rows. A non-positive
// limit returns everything.
func (r *RunRepository) List(limit int) ([]*Run, error) {
	query := `
		SELECT id, kind, path, policy, user_id, liked_songs,
			owned_playlists, followed_playlists, skipped_items, created_at
		FROM runs
		ORDER BY created_at DESC, id
	`

	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run := &Run{}
		err := rows.Scan(
			&run.ID,
			&run.Kind,
			&run.Path,
			&run.Policy,
			&run.UserID,
			&run.LikedSongs,
			&run.OwnedPlaylists,
			&run.FollowedPlaylists,
			&run.SkippedItems,
			&run.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}

	return runs, nil
}

// LastBackup returns the newest backup run, or nil when none exists.
func (r *RunRepository) LastBackup() (*Run, error) {
	query := `
		SELECT id, kind, path, policy, user_id, liked_songs,
			owned_playlists, followed_playlists, skipped_items, created_at
		FROM runs
		WHERE kind = ?
		ORDER BY created_at DESC, id
		LIMIT 1
	`

	run := &Run{}
	err := r.db.QueryRow(query, RunBackup).Scan(
		&run.ID,
		&run.Kind,
		&run.Path,
		&run.Policy,
		&run.UserID,
		&run.LikedSongs,
		&run.OwnedPlaylists,
		&run.FollowedPlaylists,
		&run.SkippedItems,
		&run.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query last backup: %w", err)
	}

	return run, nil
}
