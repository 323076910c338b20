package main

import (
	"context"

	"github.com/spotsnap/spotsnap/internal/snapshot"
	"github.com/urfave/cli/v3"
)

func resolveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "resolve",
		Usage: "Normalize a Spotify URI, URL, or bare ID into its canonical form",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "reference"},
		},
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "offline",
				Usage: "Never call the API to determine a bare ID's type",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Print the parsed reference as JSON",
			},
		},
		Action: r.Resolve,
	}
}

// Resolve parses a user-supplied reference. Bare IDs carry no type, so
// unless --offline is set the API is probed to find which namespace the ID
// lives in.
func (r *Runner) Resolve(ctx context.Context, cmd *cli.Command) error {
	ref, err := snapshot.ParseRef(cmd.StringArg("reference"))
	if err != nil {
		return err
	}

	if ref.Type == snapshot.TypeUnknown && !cmd.Bool("offline") && r.prober != nil {
		if err := r.ensureSession(ctx); err != nil {
			return err
		}
		ref.Type = r.probeType(ctx, ref.ID)
	}

	if cmd.Bool("json") {
		return r.writeJSON(map[string]string{
			"type": string(ref.Type),
			"id":   ref.ID,
			"uri":  ref.String(),
		}, true)
	}

	if ref.Type == snapshot.TypeUnknown {
		return r.writePlain("%s (type unknown; pass a spotify: URI or URL to disambiguate)\n", ref.ID)
	}
	return r.writePlain("%s\n", ref.String())
}

// probeType asks the API which namespace answers for a bare ID. Tracks are
// probed before playlists since track references dominate snapshot use.
// Every probe failing leaves the type unknown.
func (r *Runner) probeType(ctx context.Context, id string) snapshot.ResourceType {
	if track, err := r.prober.TrackByID(ctx, id); err == nil && track.ID != "" {
		if track.Type != "" {
			return snapshot.ResourceType(track.Type)
		}
		return snapshot.TypeTrack
	}

	if playlist, err := r.prober.Playlist(ctx, id); err == nil && playlist.ID != "" {
		return snapshot.TypePlaylist
	}

	r.logger.Debug("no namespace answered for id", "id", id)
	return snapshot.TypeUnknown
}
