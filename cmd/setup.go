package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/soundwave/internal/shared"
	"github.com/urfave/cli/v3"
)

// Setup creates the config file when it is missing and, for the sqlite store, initializes the
// database and runs migrations.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	path := r.configPath
	if path == "" {
		path = "config.toml"
	}

	if _, err := os.Stat(path); err != nil {
		r.logger.Info("config file not found, creating from template", "path", path)
		if err := shared.CreateConfigFile(path); err != nil {
			return fmt.Errorf("failed to create config file: %w", err)
		}

		config, err := shared.LoadConfig(path)
		if err != nil {
			return fmt.Errorf("%w: %w", shared.ErrInvalidConfig, err)
		}
		if err := shared.ApplyEnv(config, ".env"); err != nil {
			return err
		}
		r.config = config
		r.writePlain("✓ Created %s\n", path)
	}

	config := r.settings()
	switch config.Store.Backend {
	case "", "sqlite":
		r.logger.Info("initializing database", "path", config.Database.Path)
		db, err := shared.OpenDatabase(config.Database)
		if err != nil {
			return fmt.Errorf("%w: %w", shared.ErrStorage, err)
		}
		defer db.Close()

		versions, err := shared.AppliedVersions(db)
		if err != nil {
			return fmt.Errorf("%w: %w", shared.ErrStorage, err)
		}
		r.writePlain("✓ Database ready at %s (%d migrations applied)\n", config.Database.Path, len(versions))
	default:
		r.writePlain("✓ Using the %s token store\n", config.Store.Backend)
	}

	r.writePlainln("Next steps:")
	r.writePlain("1. Create an app at https://developer.spotify.com/dashboard with redirect URI %s\n", config.Credentials.Spotify.RedirectURI)
	r.writePlain("2. Set credentials.spotify.client_id and client_secret in %s (or SPOTIFY_CLIENT_ID / SPOTIFY_CLIENT_SECRET)\n", path)
	r.writePlain("3. Run 'soundwave auth login'\n")
	return nil
}
