package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/curator/internal/shared"
	"github.com/urfave/cli/v3"
)

// Setup writes config.toml from the template when missing, then opens the credential store,
// which creates the sqlite schema or the bolt bucket.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	configPath := r.configPath
	if configPath == "" {
		configPath = defaultConfigPath
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			return fmt.Errorf("failed to create config file: %w", err)
		}

		config, err := shared.LoadConfig(configPath)
		if err != nil {
			return err
		}
		r.SetConfig(config, configPath)
		r.writePlain("✓ Created %s\n", configPath)
	} else {
		r.writePlain("Using existing %s\n", configPath)
	}

	r.logger.Info("initializing credential store", "driver", r.config.Database.Driver, "path", r.config.Database.Path)
	backend, closer, err := openBackend(r.config.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize credential store: %w", err)
	}
	defer closer.Close()

	if _, err := backend.Load(); err != nil {
		return fmt.Errorf("failed to read credential store: %w", err)
	}

	return r.writePlain("✓ Credential store ready (%s: %s)\n", r.config.Database.Driver, r.config.Database.Path)
}
