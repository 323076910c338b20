package formatter

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spotsnap/spotsnap/internal/snapshot"
	"github.com/spotsnap/spotsnap/internal/tasks"
)

func sampleReport() *tasks.RestoreReport {
	return &tasks.RestoreReport{
		Policy: tasks.PolicyHard,
		Liked: tasks.TargetResult{
			Mode:    snapshot.ChangeModified,
			Name:    "Liked Songs",
			Added:   []snapshot.TrackRef{{ID: "t1", Name: "First", Artists: []string{"Ana"}, Type: snapshot.TypeTrack}},
			Removed: []snapshot.TrackRef{{ID: "t2", Name: "Second", Artists: []string{"Bo", "Cy"}, Type: snapshot.TypeTrack}},
			Before:  10,
			After:   10,
		},
		Owned: []tasks.TargetResult{
			{Mode: snapshot.ChangeCreated, Name: "Lost Mix", NewID: "new-0", Added: []snapshot.TrackRef{{ID: "t3", Name: "Third", Type: snapshot.TypeTrack}}, After: 1},
			{Mode: snapshot.ChangeModified, Name: "Renamed", LiveName: "Old Name", Added: []snapshot.TrackRef{{ID: "t4", Name: "Fourth", Type: snapshot.TypeTrack}}, Before: 3, After: 4},
			{Mode: snapshot.ChangeDeleted, Name: "Stray"},
			{Mode: snapshot.ChangeUnchanged, Name: "Quiet"},
		},
		Followed: []tasks.TargetResult{
			{Mode: snapshot.ChangeCreated, Name: "Refollowed"},
		},
		Warnings: []string{"skipped 1 unresolvable item in live liked songs"},
	}
}

func TestRestoreReport(t *testing.T) {
	t.Run("plain output is grouped and marked", func(t *testing.T) {
		out := New(false, false).RestoreReport(sampleReport())

		for _, want := range []string{
			"Restore report (hard policy)",
			"~ Liked Songs",
			"+1 -1  10 -> 10 tracks",
			"+ Lost Mix (recreated as new-0)",
			"~ Renamed (previously \"Old Name\")",
			"- Stray (removed)",
			"+ Refollowed",
			"warning: skipped 1 unresolvable item",
		} {
			if !strings.Contains(out, want) {
				t.Errorf("report missing %q:\n%s", want, out)
			}
		}

		if strings.Contains(out, "Quiet") {
			t.Errorf("unchanged target should be hidden in summary mode:\n%s", out)
		}
	})

	t.Run("verbose lists tracks and unchanged targets", func(t *testing.T) {
		out := New(false, true).RestoreReport(sampleReport())

		for _, want := range []string{
			"+ First - Ana",
			"- Second - Bo, Cy",
			"= Quiet",
		} {
			if !strings.Contains(out, want) {
				t.Errorf("verbose report missing %q:\n%s", want, out)
			}
		}
	})

	t.Run("failed targets are called out", func(t *testing.T) {
		report := sampleReport()
		report.Owned[1].Err = os.ErrPermission

		out := New(false, false).RestoreReport(report)
		if !strings.Contains(out, "1 target failed:") {
			t.Errorf("missing failure section:\n%s", out)
		}
		if !strings.Contains(out, "! Renamed:") {
			t.Errorf("missing failed target line:\n%s", out)
		}
	})

	t.Run("no-op run says so", func(t *testing.T) {
		report := &tasks.RestoreReport{Policy: tasks.PolicySoft, Liked: tasks.TargetResult{Name: "Liked Songs"}}

		out := New(false, false).RestoreReport(report)
		if !strings.Contains(out, "nothing to do") {
			t.Errorf("missing no-op notice:\n%s", out)
		}
	})
}

func TestBackupSummary(t *testing.T) {
	meta := snapshot.Metadata{
		DisplayName:       "Alice",
		UserID:            "alice",
		LikedSongs:        1,
		OwnedPlaylists:    2,
		FollowedPlaylists: 0,
		SkippedItems:      3,
	}

	out := New(false, false).BackupSummary(meta, "/tmp/snap", []string{"cover art for \"Mix\": timeout"})

	for _, want := range []string{
		"Backed up library of Alice",
		"1 liked song",
		"2 owned playlists",
		"0 followed playlists",
		"3 skipped items",
		"Snapshot written to /tmp/snap",
		"warning: cover art",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestWriteRestoreLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "restore.log")
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	if err := WriteRestoreLog(path, "first entry", now); err != nil {
		t.Fatalf("WriteRestoreLog returned error: %v", err)
	}
	if err := WriteRestoreLog(path, "second entry\n", now.Add(time.Hour)); err != nil {
		t.Fatalf("WriteRestoreLog returned error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read log: %v", err)
	}

	got := string(data)
	want := "[2025-03-01T12:00:00Z]\nfirst entry\n[/]\n\n[2025-03-01T13:00:00Z]\nsecond entry\n[/]\n\n"
	if got != want {
		t.Errorf("unexpected log contents:\n%q\nwant:\n%q", got, want)
	}
}
