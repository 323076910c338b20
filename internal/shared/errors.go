package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authentication errors
	ErrAuthFailed       = fmt.Errorf("authentication failed")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrTokenExpired     = fmt.Errorf("access token expired")

	// API errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrPlaylistNotFound   = fmt.Errorf("playlist not found")
	ErrTrackNotFound      = fmt.Errorf("track not found")

	// Snapshot errors
	ErrInvalidReference = fmt.Errorf("invalid resource reference")
	ErrOutputExists     = fmt.Errorf("output path already exists")
	ErrSnapshotNotFound = fmt.Errorf("snapshot not found")
	ErrInvalidSnapshot  = fmt.Errorf("invalid snapshot document")

	// Restore errors
	ErrBackupFailed = fmt.Errorf("pre-restore backup failed")
	ErrAborted      = fmt.Errorf("operation aborted")

	// Input validation errors
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)
