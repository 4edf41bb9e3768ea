package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zero-infra/modregistry/internal/branding"
	"github.com/zero-infra/modregistry/internal/config"
	"github.com/zero-infra/modregistry/internal/github"
	"github.com/zero-infra/modregistry/internal/logging"
	"github.com/zero-infra/modregistry/internal/mod"
	"github.com/zero-infra/modregistry/internal/registry"
)

// newRegistry opens the registry described by the resolved configuration,
// logging to the command's error stream.
func newRegistry(cmd *cobra.Command) (*registry.Registry, error) {
	s := config.Current()

	logger, err := logging.New(cmd.ErrOrStderr(), s.LogLevel, branding.CLIName())
	if err != nil {
		return nil, err
	}

	client := github.New(
		github.WithToken(s.GitHubToken),
		github.WithAPIBase(s.GitHubAPIURL),
		github.WithRawBase(s.GitHubRawURL),
		github.WithUserAgent(branding.UserAgent(buildVersion)),
		github.WithLogger(logger),
	)

	reg, err := registry.New(s.RegistryPath, s.PackageDBPath, client, registry.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("opening registry: %w", err)
	}
	return reg, nil
}

// parseRepos parses each argument as a repository URL or "org/name".
func parseRepos(args []string) ([]mod.Repo, error) {
	repos := make([]mod.Repo, 0, len(args))
	for _, arg := range args {
		repo, err := mod.ParseRepo(arg)
		if err != nil {
			return nil, err
		}
		repos = append(repos, repo)
	}
	return repos, nil
}

// dryRunSuffix marks summary lines printed during a dry run.
func dryRunSuffix() string {
	if dryRun {
		return " (dry run)"
	}
	return ""
}
