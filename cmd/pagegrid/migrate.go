package main

import (
	"errors"
	"fmt"

	"github.com/ryanbastic/go-pagegrid/internal/config"
	"github.com/ryanbastic/go-pagegrid/internal/storage"
	"github.com/spf13/cobra"
)

func newMigrateCmd(configPath *string) *cobra.Command {
	var statusOnly bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if cfg.DatabaseURL == "" {
				return errors.New("migrate: DATABASE_URL is not set")
			}

			if !statusOnly {
				applied, err := storage.RunMigrations(cfg.DatabaseURL)
				if err != nil {
					return err
				}
				if !applied {
					fmt.Fprintln(cmd.OutOrStdout(), "no pending migrations")
				}
			}

			version, dirty, err := storage.SchemaVersion(cfg.DatabaseURL)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema version %d", version)
			if dirty {
				fmt.Fprint(cmd.OutOrStdout(), " (dirty)")
			}
			fmt.Fprintln(cmd.OutOrStdout())
			return nil
		},
	}
	cmd.Flags().BoolVar(&statusOnly, "status", false, "only print the current schema version")
	return cmd
}
