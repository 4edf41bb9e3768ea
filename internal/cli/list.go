package cli

import (
	"encoding/json"
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/zero-infra/modregistry/internal/registry"
)

var listJSON bool

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List indexed packages",
	Long:  `List every package in the package index with its latest stored release.`,
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output in JSON format")
	rootCmd.AddCommand(listCmd)
}

// listEntry represents an indexed package for display.
type listEntry struct {
	Repo     string `json:"repo"`
	Latest   string `json:"latest,omitempty"`
	Type     string `json:"type,omitempty"`
	Releases int    `json:"releases"`
	Missing  bool   `json:"missing,omitempty"`
}

func runList(cmd *cobra.Command, args []string) error {
	reg, err := newRegistry(cmd)
	if err != nil {
		return err
	}
	indexed, err := reg.List()
	if err != nil {
		return fmt.Errorf("listing packages: %w", err)
	}

	if len(indexed) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No packages indexed yet.")
		return nil
	}

	entries := make([]listEntry, 0, len(indexed))
	for _, e := range indexed {
		entries = append(entries, newListEntry(e))
	}

	if listJSON {
		return printListJSON(cmd, entries)
	}
	return printListTable(cmd, entries)
}

func newListEntry(e registry.Entry) listEntry {
	entry := listEntry{Repo: e.Repo.String()}
	if e.Mod == nil {
		entry.Missing = true
		return entry
	}
	entry.Releases = len(e.Mod.Releases)
	entry.Type = string(e.Mod.LatestManifest.ModType)
	if len(e.Mod.Releases) > 0 {
		entry.Latest = e.Mod.Releases[0].Tag
	}
	return entry
}

func printListTable(cmd *cobra.Command, entries []listEntry) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "REPO\tLATEST\tTYPE\tRELEASES")
	for _, e := range entries {
		if e.Missing {
			fmt.Fprintf(w, "%s\t-\t-\tmissing\n", e.Repo)
			continue
		}
		latest := e.Latest
		if latest == "" {
			latest = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.Repo, latest, e.Type, strconv.Itoa(e.Releases))
	}
	return w.Flush()
}

func printListJSON(cmd *cobra.Command, entries []listEntry) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return err
}
