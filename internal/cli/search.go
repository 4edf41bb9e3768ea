package cli

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/zero-infra/modregistry/internal/mod"
)

var (
	searchTypeFilter string
	searchTagFilter  string
	searchJSON       bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search stored mods",
	Long: `Search the mods stored in the package database.

The query matches against mod names and repository URLs (case-insensitive
substring). Use --type to filter by mod type (Client, Server, Shared) and
--tag to filter by tags.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringVar(&searchTypeFilter, "type", "", "Filter by mod type (Client, Server, Shared)")
	searchCmd.Flags().StringVar(&searchTagFilter, "tag", "", "Filter by tags (comma-separated, matches any)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "Output in JSON format")
	rootCmd.AddCommand(searchCmd)
}

// searchEntry represents a stored mod for display.
type searchEntry struct {
	Name   string   `json:"name"`
	Repo   string   `json:"repo"`
	Type   string   `json:"type"`
	Latest string   `json:"latest"`
	Tags   []string `json:"tags,omitempty"`
	PURL   string   `json:"purl"`
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := ""
	if len(args) > 0 {
		query = args[0]
	}

	reg, err := newRegistry(cmd)
	if err != nil {
		return err
	}
	indexed, err := reg.List()
	if err != nil {
		return fmt.Errorf("listing packages: %w", err)
	}

	filterTags := splitTags(searchTagFilter)

	var entries []searchEntry
	for _, e := range indexed {
		if e.Mod == nil || !matchesSearch(e.Mod, query, searchTypeFilter, filterTags) {
			continue
		}
		latest := ""
		if len(e.Mod.Releases) > 0 {
			latest = e.Mod.Releases[0].Tag
		}
		entries = append(entries, searchEntry{
			Name:   e.Mod.LatestManifest.Name,
			Repo:   e.Repo.String(),
			Type:   string(e.Mod.LatestManifest.ModType),
			Latest: latest,
			Tags:   e.Mod.LatestManifest.Tags,
			PURL:   e.Repo.PURL(latest),
		})
	}

	if len(entries) == 0 {
		msg := "No mods found"
		if query != "" {
			msg += fmt.Sprintf(" matching %q", query)
		}
		if searchTypeFilter != "" {
			msg += fmt.Sprintf(" with --type=%s", searchTypeFilter)
		}
		if searchTagFilter != "" {
			msg += fmt.Sprintf(" with --tag=%s", searchTagFilter)
		}
		fmt.Fprintln(cmd.OutOrStdout(), msg)
		return nil
	}

	if searchJSON {
		return printSearchJSON(cmd, entries)
	}
	return printSearchTable(cmd, entries)
}

// splitTags parses a comma-separated tag filter, dropping empty items.
func splitTags(raw string) []string {
	var tags []string
	for _, t := range strings.Split(raw, ",") {
		tag := strings.TrimSpace(t)
		if tag != "" {
			tags = append(tags, strings.ToLower(tag))
		}
	}
	return tags
}

// matchesSearch returns true if the mod's latest manifest matches all
// provided filters. All filters are AND-combined.
func matchesSearch(m *mod.Mod, query, typeFilter string, filterTags []string) bool {
	manifest := m.LatestManifest

	// Filter by mod type (case-insensitive).
	if typeFilter != "" && !strings.EqualFold(string(manifest.ModType), typeFilter) {
		return false
	}

	// Filter by tags (match any).
	if len(filterTags) > 0 {
		if !matchesAnyTag(manifest.Tags, filterTags) {
			return false
		}
	}

	// Filter by query (substring match on name or repository URL).
	if query != "" {
		q := strings.ToLower(query)
		if !strings.Contains(strings.ToLower(manifest.Name), q) &&
			!strings.Contains(strings.ToLower(manifest.RepoURL), q) {
			return false
		}
	}

	return true
}

// matchesAnyTag returns true if any of the mod's tags match any of the filter tags.
// Comparison is case-insensitive.
func matchesAnyTag(modTags []string, filterTags []string) bool {
	for _, ft := range filterTags {
		for _, mt := range modTags {
			if strings.EqualFold(mt, ft) {
				return true
			}
		}
	}
	return false
}

func printSearchTable(cmd *cobra.Command, entries []searchEntry) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "NAME\tREPO\tTYPE\tLATEST\tTAGS")
	for _, e := range entries {
		latest := e.Latest
		if latest == "" {
			latest = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", e.Name, e.Repo, e.Type, latest, strings.Join(e.Tags, ","))
	}
	return w.Flush()
}

func printSearchJSON(cmd *cobra.Command, entries []searchEntry) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return err
}
