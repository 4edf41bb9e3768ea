// Package index manages the persisted package index and the declaration
// sources it is reconciled against.
//
// The index is a text file of org/name entries, one per line. Declaration
// sources are text files anywhere beneath the registry directory (except its
// redirects/ subdirectory) listing repository URLs or org/name entries.
package index

import (
	"fmt"
	"slices"
	"strings"

	"github.com/zero-infra/modregistry/internal/fsutil"
	"github.com/zero-infra/modregistry/internal/mod"
)

// FileName is the name of the index file inside the package database.
const FileName = "mod_list_index.txt"

// Load reads the index at path. A missing file is an empty index.
func Load(path string) ([]string, error) {
	lines, err := fsutil.ReadLines(path)
	if err != nil {
		return nil, fmt.Errorf("loading index: %w", err)
	}
	var entries []string
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			entries = append(entries, line)
		}
	}
	return Normalize(entries), nil
}

// Save atomically replaces the index at path with entries.
func Save(path string, entries []string) error {
	if err := fsutil.WriteLines(path, Normalize(entries)); err != nil {
		return fmt.Errorf("saving index: %w", err)
	}
	return nil
}

// Normalize returns entries sorted with duplicates removed.
func Normalize(entries []string) []string {
	out := slices.Clone(entries)
	slices.Sort(out)
	return slices.Compact(out)
}

// Contains reports whether entry is present in entries.
func Contains(entries []string, entry string) bool {
	return slices.Contains(entries, entry)
}

// Diff returns the entries of next missing from prev (added) and the entries
// of prev missing from next (removed). Both results are sorted.
func Diff(prev, next []string) (added, removed []string) {
	prevSet := toSet(prev)
	nextSet := toSet(next)

	for entry := range nextSet {
		if _, ok := prevSet[entry]; !ok {
			added = append(added, entry)
		}
	}
	for entry := range prevSet {
		if _, ok := nextSet[entry]; !ok {
			removed = append(removed, entry)
		}
	}
	slices.Sort(added)
	slices.Sort(removed)
	return added, removed
}

// EntryFromLine normalizes a declaration line (repository URL or org/name)
// to its org/name index entry.
func EntryFromLine(line string) (string, error) {
	repo, err := mod.ParseRepo(line)
	if err != nil {
		return "", err
	}
	return repo.IndexEntry(), nil
}

// Repos converts index entries to repositories.
func Repos(entries []string) ([]mod.Repo, error) {
	repos := make([]mod.Repo, 0, len(entries))
	for _, entry := range entries {
		repo, err := mod.ParseRepo(entry)
		if err != nil {
			return nil, fmt.Errorf("index entry %q: %w", entry, err)
		}
		repos = append(repos, repo)
	}
	return repos, nil
}

func toSet(entries []string) map[string]struct{} {
	set := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		set[e] = struct{}{}
	}
	return set
}
