package dbcmd

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/cuihairu/faultline/internal/cli/common"
	"github.com/cuihairu/faultline/internal/repo/gorm/idempotency"
	"github.com/spf13/cobra"
)

// NewPurgeKeys returns the `faultctl purge-keys` command.
func NewPurgeKeys() *cobra.Command {
	return &cobra.Command{
		Use:   "purge-keys",
		Short: "Delete expired Idempotency-Key records",
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
			// ttl does not matter for purging; expiry is stored per row
			n, err := idempotency.NewStore(gdb, time.Hour).Purge(cmd.Context())
			if err != nil {
				return err
			}
			slog.Info("idempotency keys purged", "rows", n)
			fmt.Fprintf(cmd.OutOrStdout(), "purged %d expired keys\n", n)
			return nil
		},
	}
}
