package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(updateCmd)
}

var updateCmd = &cobra.Command{
	Use:   "process-registry-updates",
	Short: "Reconcile the package database with the registry directory",
	Long: `Rebuild the redirect table, compare the declared packages with the package
index, add newly declared packages and remove undeclared ones. The index is
rewritten only when every addition and removal succeeded.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := newRegistry(cmd)
		if err != nil {
			return err
		}
		if err := reg.ProcessUpdates(cmd.Context(), dryRun); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Registry is up to date%s\n", dryRunSuffix())
		return nil
	},
}
