package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spotsnap/spotsnap/internal/shared"
	"github.com/urfave/cli/v3"
)

func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Create the config file and initialize the run-history database",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
			},
		},
		Action: r.Setup,
	}
}

// Setup prepares the local environment: config file from the embedded
// template, run-history database schema, and the backups directory.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")
	if configPath == "" {
		dir, err := shared.ConfigDir()
		if err != nil {
			return err
		}
		configPath = filepath.Join(dir, "config.toml")
	}

	switch err := shared.CreateConfigFile(configPath); {
	case err == nil:
		r.writePlain("Created %s; add your Spotify client_id and client_secret there.\n", configPath)
	case errors.Is(err, shared.ErrOutputExists):
		r.logger.Info("config file already exists", "path", configPath)
	default:
		return err
	}
	r.configPath = configPath

	if config, err := shared.LoadConfig(configPath); err == nil {
		r.config = config
	}

	_, closeDB, err := r.openHistory()
	if err != nil {
		return fmt.Errorf("failed to initialize run history: %w", err)
	}
	closeDB()

	if _, err := shared.BackupsDir(); err != nil {
		return err
	}

	return r.writePlain("Setup complete. Run `spotsnap login` once credentials are in place.\n")
}
