package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(removeCmd)
}

var removeCmd = &cobra.Command{
	Use:   "remove <repo>...",
	Short: "Remove packages from the package database",
	Long: `Delete the stored record of each repository and drop it from the package
index. Declarations in the registry directory are not touched; a repository
that is still declared will be added again by the next
process-registry-updates run.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		repos, err := parseRepos(args)
		if err != nil {
			return err
		}
		reg, err := newRegistry(cmd)
		if err != nil {
			return err
		}

		n, err := reg.RemoveMods(cmd.Context(), repos, dryRun)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %d package(s)%s\n", n, dryRunSuffix())
		return nil
	},
}
