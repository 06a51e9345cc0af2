// Package auditcmd inspects the security audit log.
package auditcmd

import (
	"fmt"
	"os"

	"github.com/cuihairu/faultline/internal/audit/chain"
	"github.com/cuihairu/faultline/internal/cli/common"
	"github.com/spf13/cobra"
)

// New returns the `faultctl audit` command group.
func New() *cobra.Command {
	cmd := &cobra.Command{Use: "audit", Short: "Security audit log tools"}
	cmd.AddCommand(newVerify())
	return cmd
}

func newVerify() *cobra.Command {
	return &cobra.Command{
		Use:   "verify [file]",
		Short: "Check the hash chain of an audit log (default: audit.file)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := common.FromCommand(cmd)
			if err != nil {
				return err
			}
			path := v.GetString("audit.file")
			if len(args) == 1 {
				path = args[0]
			}
			if path == "" {
				return fmt.Errorf("no audit log: pass a file or set audit.file")
			}
			f, err := os.Open(path)
			if err != nil {
				return err
			}
			defer f.Close()
			n, err := chain.Verify(f)
			if err != nil {
				return fmt.Errorf("%s: %d events intact, then %w", path, n, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d events, chain intact\n", path, n)
			return nil
		},
	}
}
