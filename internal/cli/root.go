package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zero-infra/modregistry/internal/branding"
	"github.com/zero-infra/modregistry/internal/config"
)

var (
	buildVersion string
	buildCommit  string
	buildDate    string
)

var dryRun bool

var rootCmd = &cobra.Command{
	Use:   branding.CLIName(),
	Short: branding.Description(),
	Long: branding.DisplayName() + ` maintains a filesystem-backed registry of versioned mods.

Packages are declared as repository URLs in text files under the registry
directory. Each release is fetched from GitHub, validated and hashed, and
stored as one JSON record per repository in the package database.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		config.Load()
	},
}

// persistentFlags maps flag names to the config keys they override.
var persistentFlags = []struct {
	name, key, usage string
}{
	{"registry-path", config.KeyRegistryPath, "Directory holding package declarations"},
	{"package-db-path", config.KeyPackageDBPath, "Directory holding the package database"},
	{"github-token", config.KeyGitHubToken, "Token used for GitHub API requests"},
	{"log-level", config.KeyLogLevel, "Log level (debug, info, warn, error)"},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.BoolVar(&dryRun, "dry-run", false, "Report what would change without writing anything")
	for _, f := range persistentFlags {
		pf.String(f.name, "", f.usage)
	}
	bindFlags()
}

// bindFlags makes the persistent flags override their config keys.
func bindFlags() {
	pf := rootCmd.PersistentFlags()
	for _, f := range persistentFlags {
		_ = viper.BindPFlag(f.key, pf.Lookup(f.name))
	}
}

// Execute runs the root command with build info injected via ldflags.
func Execute(version, commit, date string) error {
	buildVersion = version
	buildCommit = commit
	buildDate = date
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	return err
}
