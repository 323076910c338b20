package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spotsnap/spotsnap/internal/archive"
	"github.com/spotsnap/spotsnap/internal/formatter"
	"github.com/spotsnap/spotsnap/internal/repositories"
	"github.com/spotsnap/spotsnap/internal/snapshot"
	"github.com/spotsnap/spotsnap/internal/tasks"
	"github.com/urfave/cli/v3"
)

func backupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "backup",
		Aliases: []string{"b"},
		Usage:   "Capture the whole library into a snapshot on disk",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Snapshot destination (directory, or archive base name with --compress)",
			},
			&cli.StringFlag{
				Name:  "compress",
				Usage: "Pack the snapshot into a single archive: zip or tar",
			},
			&cli.BoolFlag{
				Name:  "no-images",
				Usage: "Skip downloading playlist cover art",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Print the snapshot metadata as JSON",
			},
		},
		Action: r.Backup,
	}
}

// Backup captures the live library and writes it to disk.
func (r *Runner) Backup(ctx context.Context, cmd *cli.Command) error {
	if err := r.ensureSession(ctx); err != nil {
		return err
	}

	dest := cmd.String("output")
	if dest == "" {
		dest = r.defaultBackupDest()
	}

	images := r.config.Backup.Images && !cmd.Bool("no-images")

	finalDest, result, meta, err := r.runBackup(ctx, dest, cmd.String("compress"), images)
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

	if cmd.Bool("json") {
		return r.writeJSON(meta, true)
	}
	return r.writePlain("%s", formatter.New(true, false).BackupSummary(meta, finalDest, result.Warnings))
}

// runBackup performs one collection run and persists it. Also serves as the
// mandatory pre-restore backup for hard restores. The destination conflict
// check runs before the first remote call, so an occupied path never costs
// a partial collection.
func (r *Runner) runBackup(ctx context.Context, dest, compress string, images bool) (string, *tasks.CollectResult, snapshot.Metadata, error) {
	var meta snapshot.Metadata

	var format archive.Format
	finalDest := dest
	if compress != "" {
		f, err := archive.ParseFormat(compress)
		if err != nil {
			return "", nil, meta, err
		}
		format = f
		finalDest = dest + f.Ext()
	}

	if err := snapshot.EnsureAbsent(finalDest); err != nil {
		return "", nil, meta, err
	}

	writeDir := dest
	if compress != "" {
		staging, err := os.MkdirTemp("", "spotsnap-backup-*")
		if err != nil {
			return "", nil, meta, fmt.Errorf("failed to create staging directory: %w", err)
		}
		defer os.RemoveAll(staging)
		writeDir = staging
	}

	opts := tasks.CollectOptions{}
	if images {
		opts.ImagesDir = filepath.Join(writeDir, snapshot.ImagesDir)
	}

	progress := make(chan tasks.ProgressUpdate, 32)
	done := r.watchProgress(progress)
	result, err := r.engine.Collect(ctx, progress, opts)
	close(progress)
	<-done
	if err != nil {
		return "", nil, meta, err
	}

	meta = snapshot.NewMetadata(result.Library, result.Skipped, r.now())
	if err := snapshot.Write(writeDir, result.Library, meta); err != nil {
		return "", nil, meta, err
	}

	if compress != "" {
		if err := archive.Pack(writeDir, finalDest, format); err != nil {
			return "", nil, meta, err
		}
	}

	r.logger.Info("snapshot written", "path", finalDest)
	return finalDest, result, meta, nil
}

// defaultBackupDest builds a timestamped destination under the configured
// output directory, falling back to the current directory.
func (r *Runner) defaultBackupDest() string {
	name := "spotsnap-" + r.now().UTC().Format("20060102-150405")
	if dir := r.config.Backup.OutputDir; dir != "" {
		return filepath.Join(dir, name)
	}
	return name
}
