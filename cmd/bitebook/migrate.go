package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/bitebook/backend/internal/infrastructure/store"
)

func newMigrateCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the place store schema",
	}
	cmd.AddCommand(newMigrateUpCommand(ctx))
	cmd.AddCommand(newMigrateStatusCommand(ctx))
	return cmd
}

func newMigrateUpCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			provider, closeDB, err := store.OpenMigrator(cmd.Context(), storeConfig(cfg.Store.Driver, cfg.Store.DSN))
			if err != nil {
				return err
			}
			defer func() { _ = closeDB() }()

			results, err := provider.Up(cmd.Context())
			if err != nil {
				return fmt.Errorf("migrate up: %w", err)
			}
			out := cmd.OutOrStdout()
			if len(results) == 0 {
				fmt.Fprintln(out, "Schema is up to date")
				return nil
			}
			for _, r := range results {
				fmt.Fprintf(out, "Applied %05d %s (%s)\n", r.Source.Version, r.Source.Path, r.Duration.Round(time.Millisecond))
			}
			return nil
		},
	}
}

func newMigrateStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show applied and pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			provider, closeDB, err := store.OpenMigrator(cmd.Context(), storeConfig(cfg.Store.Driver, cfg.Store.DSN))
			if err != nil {
				return err
			}
			defer func() { _ = closeDB() }()

			statuses, err := provider.Status(cmd.Context())
			if err != nil {
				return fmt.Errorf("migrate status: %w", err)
			}

			rows := make([][]string, 0, len(statuses))
			for _, s := range statuses {
				applied := "-"
				if !s.AppliedAt.IsZero() {
					applied = s.AppliedAt.UTC().Format("2006-01-02 15:04:05")
				}
				rows = append(rows, []string{strconv.FormatInt(s.Source.Version, 10), s.Source.Path, string(s.State), applied})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable(
				[]string{"Version", "File", "State", "Applied"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft},
				shouldColorize(out),
			))
			return nil
		},
	}
}

func storeConfig(driver, dsn string) store.Config {
	return store.Config{Driver: driver, DSN: dsn}
}
