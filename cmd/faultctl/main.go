package main

import (
	"fmt"
	"os"

	"github.com/cuihairu/faultline/internal/cli/auditcmd"
	"github.com/cuihairu/faultline/internal/cli/common"
	"github.com/cuihairu/faultline/internal/cli/dbcmd"
	"github.com/cuihairu/faultline/internal/cli/pingcmd"
	"github.com/cuihairu/faultline/internal/cli/uploadcmd"
	"github.com/cuihairu/faultline/internal/cli/usercmd"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRoot().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRoot() *cobra.Command {
	root := &cobra.Command{
		Use:          "faultctl",
		Short:        "Faultline administration",
		SilenceUsage: true,
	}
	common.AddPersistentFlags(root)

	root.AddCommand(dbcmd.NewMigrate())
	root.AddCommand(dbcmd.NewSeed())
	root.AddCommand(dbcmd.NewPurgeKeys())
	root.AddCommand(auditcmd.New())
	root.AddCommand(pingcmd.New())
	root.AddCommand(usercmd.New())
	root.AddCommand(uploadcmd.NewPrune())

	// config check
	var strict bool
	check := &cobra.Command{
		Use:   "check-config",
		Short: "Validate and print the effective config",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			v, err := common.FromCommand(cmd)
			if err != nil {
				return err
			}
			if err := common.ValidateConfig(v, strict); err != nil {
				return fmt.Errorf("config invalid: %w", err)
			}
			sc := common.StorageConfig(v)
			fmt.Fprintf(cmd.OutOrStdout(), "storage: %s\nlog: %s/%s\nconfig OK\n",
				sc.Driver, v.GetString("log.level"), v.GetString("log.format"))
			return nil
		},
	}
	check.Flags().BoolVar(&strict, "strict", false, "require an explicit data source")
	root.AddCommand(check)

	// completion
	comp := &cobra.Command{
		Use:       "completion [bash|zsh|fish|powershell]",
		Short:     "Generate shell completion",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return root.GenBashCompletion(out)
			case "zsh":
				return root.GenZshCompletion(out)
			case "fish":
				return root.GenFishCompletion(out, true)
			case "powershell":
				return root.GenPowerShellCompletionWithDesc(out)
			default:
				return fmt.Errorf("unknown shell: %s", args[0])
			}
		},
	}
	root.AddCommand(comp)
	return root
}
