package main

import (
	"context"

	"github.com/spotsnap/spotsnap/internal/repositories"
	"github.com/urfave/cli/v3"
)

func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Show past backup and restore runs",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Usage:   "Maximum number of runs to show",
				Value:   20,
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.History,
	}
}

// History lists recorded runs, newest first.
func (r *Runner) History(ctx context.Context, cmd *cli.Command) error {
	repo, closeDB, err := r.openHistory()
	if err != nil {
		return err
	}
	defer closeDB()

	runs, err := repo.List(int(cmd.Int("limit")))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(runs, true)
	}

	if len(runs) == 0 {
		return r.writePlain("No runs recorded yet. Start with `spotsnap backup`.\n")
	}

	for _, run := range runs {
		r.writePlain("%s  %-7s  %s\n", run.CreatedAt.Local().Format("2006-01-02 15:04"), run.Kind, run.Path)
		switch run.Kind {
		case repositories.RunBackup:
			r.writePlain("                   %d liked, %d owned, %d followed", run.LikedSongs, run.OwnedPlaylists, run.FollowedPlaylists)
			if run.SkippedItems > 0 {
				r.writePlain(", %d skipped", run.SkippedItems)
			}
			r.writePlain("\n")
		case repositories.RunRestore:
			r.writePlain("                   %s policy\n", run.Policy)
		}
	}

	return nil
}
