// Package store persists one mod record per repository as
// <root>/<org>/<name>.json. Records are always written whole.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/zero-infra/modregistry/internal/fsutil"
	"github.com/zero-infra/modregistry/internal/mod"
)

const recordExt = ".json"

// Store reads and writes mod records beneath a root directory.
type Store struct {
	root string
}

// New returns a Store rooted at dir. The directory is created lazily on the
// first Save.
func New(dir string) *Store {
	return &Store{root: dir}
}

// Path returns the record path for repo.
func (s *Store) Path(repo mod.Repo) string {
	return filepath.Join(s.root, repo.Org, repo.Name+recordExt)
}

// Exists reports whether a record for repo is on disk.
func (s *Store) Exists(repo mod.Repo) bool {
	_, err := os.Stat(s.Path(repo))
	return err == nil
}

// Load reads the record for repo. It returns false and no error when the
// repo has no record.
func (s *Store) Load(repo mod.Repo) (*mod.Mod, bool, error) {
	data, err := os.ReadFile(s.Path(repo))
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading mod %s: %w", repo, err)
	}

	var m mod.Mod
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, false, fmt.Errorf("parsing mod %s: %w", repo, err)
	}
	return &m, true, nil
}

// Save writes m, replacing any existing record. The record is keyed by the
// repo in m's latest manifest.
func (s *Store) Save(m *mod.Mod) (mod.Repo, error) {
	repo, err := m.Repo()
	if err != nil {
		return mod.Repo{}, fmt.Errorf("keying mod record: %w", err)
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return repo, fmt.Errorf("marshaling mod %s: %w", repo, err)
	}

	if err := fsutil.WriteFileAtomic(s.Path(repo), data); err != nil {
		return repo, fmt.Errorf("saving mod %s: %w", repo, err)
	}
	return repo, nil
}

// Delete removes the record for repo and, if the org directory is left
// empty, the directory too. It reports whether a record was removed.
func (s *Store) Delete(repo mod.Repo) (bool, error) {
	removed := false
	err := os.Remove(s.Path(repo))
	switch {
	case err == nil:
		removed = true
	case !os.IsNotExist(err):
		return false, fmt.Errorf("removing mod %s: %w", repo, err)
	}

	if _, err := fsutil.RemoveDirIfEmpty(filepath.Join(s.root, repo.Org)); err != nil {
		return removed, fmt.Errorf("pruning org %s: %w", repo.Org, err)
	}
	return removed, nil
}
