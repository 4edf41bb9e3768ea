package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var validateStrict bool

func init() {
	validateCmd.Flags().BoolVar(&validateStrict, "strict", false, "Exit non-zero when any finding is reported")
	rootCmd.AddCommand(validateCmd)
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check stored mods for unsatisfied dependencies",
	Long: `Check that every indexed package has a stored record and that every
dependency of every release resolves, through the redirect table, to a
stored mod with a release inside the required version range.

Findings are reported but do not fail the command unless --strict is set.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := newRegistry(cmd)
		if err != nil {
			return err
		}
		rep, err := reg.ValidateDB(cmd.Context())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, repo := range rep.Missing {
			fmt.Fprintf(out, "missing record: %s\n", repo)
		}
		for _, u := range rep.Unsatisfied {
			fmt.Fprintln(out, u.String())
		}
		fmt.Fprintf(out, "Checked %d mod(s): %d missing, %d unsatisfied dependencies\n",
			rep.Checked, len(rep.Missing), len(rep.Unsatisfied))

		if validateStrict && !rep.Valid() {
			return errors.New("package database has unresolved findings")
		}
		return nil
	},
}
