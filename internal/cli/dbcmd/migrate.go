// Package dbcmd holds the schema and seed-data commands.
package dbcmd

import (
	"fmt"
	"log/slog"

	"github.com/cuihairu/faultline/internal/cli/common"
	"github.com/cuihairu/faultline/internal/repo/gorm/schema"
	"github.com/spf13/cobra"
)

// NewMigrate returns the `faultctl migrate` command.
func NewMigrate() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			v, err := common.FromCommand(cmd)
			if err != nil {
				return err
			}
			gdb, err := common.OpenDB(v)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			if sqlDB, err := gdb.DB(); err == nil {
				defer sqlDB.Close()
			}
			if err := schema.Migrate(gdb); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			slog.Info("schema up to date")
			fmt.Fprintln(cmd.OutOrStdout(), "migrated")
			return nil
		},
	}
}
