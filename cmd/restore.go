package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spotsnap/spotsnap/internal/formatter"
	"github.com/spotsnap/spotsnap/internal/repositories"
	"github.com/spotsnap/spotsnap/internal/shared"
	"github.com/spotsnap/spotsnap/internal/snapshot"
	"github.com/spotsnap/spotsnap/internal/tasks"
	"github.com/urfave/cli/v3"
)

func restoreCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "restore",
		Aliases: []string{"r"},
		Usage:   "Reconcile the live library against a snapshot",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "input",
				Aliases: []string{"i"},
				Usage:   "Snapshot to restore from: a directory, archive, or bare snapshot file",
			},
			&cli.BoolFlag{
				Name:  "hard",
				Usage: "Replace the library: remove tracks, playlists, and follows absent from the snapshot",
			},
			&cli.BoolFlag{
				Name:  "yes",
				Usage: "Skip the hard-restore confirmation prompt",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "List every track change instead of counts",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Print the restore report as JSON",
			},
		},
		Action: r.Restore,
	}
}

// Restore reconciles the live library against a persisted snapshot.
func (r *Runner) Restore(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("input")
	if path == "" {
		return fmt.Errorf("%w: --input is required", shared.ErrInvalidArgument)
	}

	lib, meta, err := snapshot.Load(path)
	if err != nil {
		return err
	}
	if meta != nil {
		r.logger.Info("loaded snapshot",
			"created", meta.CreatedAt.Format("2006-01-02 15:04"),
			"user", meta.UserID,
			"liked", meta.LikedSongs,
			"owned", meta.OwnedPlaylists,
			"followed", meta.FollowedPlaylists)
	}

	if err := r.ensureSession(ctx); err != nil {
		return err
	}

	policy := tasks.PolicySoft
	if cmd.Bool("hard") {
		policy = tasks.PolicyHard

		r.writePlain("A hard restore REPLACES the current library: tracks, playlists, and\nfollows not in the snapshot will be removed. A fresh backup is taken\nfirst either way.\n\n")
		if !cmd.Bool("yes") {
			confirmed, err := r.confirm("Replace the current library with this snapshot?")
			if err != nil {
				return err
			}
			if !confirmed {
				return fmt.Errorf("%w: hard restore not confirmed", shared.ErrAborted)
			}
		}
	}

	progress := make(chan tasks.ProgressUpdate, 32)
	done := r.watchProgress(progress)
	report, err := r.engine.Restore(ctx, progress, lib, tasks.RestoreOptions{
		Policy:    policy,
		PreBackup: r.preRestoreBackup,
	})
	close(progress)
	<-done
	if err != nil {
		return err
	}

	r.recordRun(&repositories.Run{
		Kind:              repositories.RunRestore,
		Path:              path,
		Policy:            policy.String(),
		UserID:            lib.User.ID,
		LikedSongs:        len(lib.LikedSongs),
		OwnedPlaylists:    len(lib.OwnedPlaylists),
		FollowedPlaylists: len(lib.FollowedPlaylists),
	})

	r.appendRestoreLog(report)

	if cmd.Bool("json") {
		if err := r.writeJSON(report, true); err != nil {
			return err
		}
	} else {
		r.writePlain("%s", formatter.New(true, cmd.Bool("verbose")).RestoreReport(report))
	}

	if failures := report.Failures(); len(failures) > 0 {
		return fmt.Errorf("%d %s could not be restored", len(failures), shared.Pluralize(len(failures), "target"))
	}
	return nil
}

// preRestoreBackup captures the live library into the backups directory
// before a hard restore mutates anything.
func (r *Runner) preRestoreBackup(ctx context.Context) error {
	dir, err := shared.BackupsDir()
	if err != nil {
		return err
	}

	dest := filepath.Join(dir, "pre-restore-"+r.now().UTC().Format("20060102-150405"))
	finalDest, _, meta, err := r.runBackup(ctx, dest, "", false)
	if err != nil {
		return err
	}

	r.recordRun(&repositories.Run{
		Kind:              repositories.RunBackup,
		Path:              finalDest,
		UserID:            meta.UserID,
		LikedSongs:        meta.LikedSongs,
		OwnedPlaylists:    meta.OwnedPlaylists,
		FollowedPlaylists: meta.FollowedPlaylists,
		SkippedItems:      meta.SkippedItems,
	})
	return nil
}

// appendRestoreLog writes the plain-text verbose report to the append-only
// restore log. Log trouble never fails the restore itself.
func (r *Runner) appendRestoreLog(report *tasks.RestoreReport) {
	path, err := shared.RestoreLogPath()
	if err != nil {
		r.logger.Warn("failed to resolve restore log path", "error", err)
		return
	}

	body := formatter.New(false, true).RestoreReport(report)
	if err := formatter.WriteRestoreLog(path, body, r.now()); err != nil {
		r.logger.Warn("failed to append restore log", "error", err)
	}
}
