package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(addCmd)
}

var addCmd = &cobra.Command{
	Use:   "add <repo>...",
	Short: "Add packages with all of their releases",
	Long: `Fetch every release of each repository, validate it, and store it in the
package database. Each repository is also declared in the registry directory
and added to the package index.

Repositories are given as URLs (https://github.com/org/name) or org/name.
Nothing is written unless every repository could be fetched.`,
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

		n, err := reg.AddPackages(cmd.Context(), repos, dryRun)
		if err != nil {
			return err
		}
		if n == 0 {
			return errors.New("no packages were added")
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Added %d package(s)%s\n", n, dryRunSuffix())
		return nil
	},
}
