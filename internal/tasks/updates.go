package tasks

// Phase identifies the stage of a running backup or restore operation.
type Phase string

const (
	PhaseProfile       Phase = "profile"
	PhaseLikedSongs    Phase = "liked_songs"
	PhasePlaylists     Phase = "playlists"
	PhaseTracks        Phase = "tracks"
	PhaseImages        Phase = "images"
	PhasePreBackup     Phase = "pre_backup"
	PhaseRestoreLiked  Phase = "restore_liked"
	PhaseRestoreOwned  Phase = "restore_owned"
	PhaseRestoreFollow Phase = "restore_follows"
	PhaseDone          Phase = "done"
)

// ProgressUpdate is a point-in-time status message emitted during an
// operation. Current and Total are step counters within the phase; Total is
// zero when the extent is unknown up front.
type ProgressUpdate struct {
	Phase   Phase
	Current int
	Total   int
	Message string
}
