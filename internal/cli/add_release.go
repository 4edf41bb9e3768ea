package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zero-infra/modregistry/internal/mod"
)

func init() {
	rootCmd.AddCommand(addReleaseCmd)
}

var addReleaseCmd = &cobra.Command{
	Use:   "add-release <repo> <tag>",
	Short: "Add a single release to an indexed package",
	Long: `Fetch, validate and store one release of a package that is already in the
package index. A tag that is already stored is left untouched.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, err := mod.ParseRepo(args[0])
		if err != nil {
			return err
		}
		tag := args[1]

		reg, err := newRegistry(cmd)
		if err != nil {
			return err
		}

		n, err := reg.AddRelease(cmd.Context(), repo, tag, dryRun)
		if err != nil {
			return err
		}
		if n == 0 {
			return errors.New("no release was added")
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Added %s %s%s\n", repo, tag, dryRunSuffix())
		return nil
	},
}
