package registry

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/zero-infra/modregistry/internal/index"
	"github.com/zero-infra/modregistry/internal/logging"
	"github.com/zero-infra/modregistry/internal/mod"
	"github.com/zero-infra/modregistry/internal/redirect"
	"github.com/zero-infra/modregistry/internal/retriever"
	"github.com/zero-infra/modregistry/internal/store"
)

const (
	packagesDir      = "packages"
	redirectFileName = "redirects.txt"
)

// Registry is a filesystem-backed mod registry.
type Registry struct {
	registryPath string
	dbPath       string

	retriever retriever.Retriever
	store     *store.Store
	redirects *redirect.Table
	logger    *log.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger. The default discards output.
func WithLogger(l *log.Logger) Option {
	return func(r *Registry) {
		r.logger = l
	}
}

// New opens the registry rooted at registryPath (declarations) and dbPath
// (package database), loading the persisted redirect table.
func New(registryPath, dbPath string, ret retriever.Retriever, opts ...Option) (*Registry, error) {
	if ret == nil {
		return nil, errors.New("registry requires a retriever")
	}
	r := &Registry{
		registryPath: registryPath,
		dbPath:       dbPath,
		retriever:    ret,
		store:        store.New(filepath.Join(dbPath, packagesDir)),
		logger:       logging.Discard(),
	}
	for _, opt := range opts {
		opt(r)
	}

	table, err := redirect.LoadFile(r.RedirectsPath())
	if err != nil {
		return nil, err
	}
	r.redirects = table
	return r, nil
}

// IndexPath returns the location of the persisted index.
func (r *Registry) IndexPath() string {
	return filepath.Join(r.dbPath, index.FileName)
}

// RedirectsPath returns the location of the persisted redirect table.
func (r *Registry) RedirectsPath() string {
	return filepath.Join(r.dbPath, redirectFileName)
}

// Store returns the package store backing the registry.
func (r *Registry) Store() *store.Store {
	return r.store
}

// Redirects returns the active redirect table.
func (r *Registry) Redirects() *redirect.Table {
	return r.redirects
}

// LoadMod returns the stored record for repo.
func (r *Registry) LoadMod(repo mod.Repo) (*mod.Mod, bool, error) {
	return r.store.Load(repo)
}

// IsInIndex reports whether repo is listed in the persisted index.
func (r *Registry) IsInIndex(repo mod.Repo) (bool, error) {
	entries, err := index.Load(r.IndexPath())
	if err != nil {
		return false, err
	}
	return index.Contains(entries, repo.IndexEntry()), nil
}

// AddPackages fetches every release of each repo, validates the combined
// database and, unless dryRun is set, stores the records, declares each repo
// in the registry directory and adds it to the index. Nothing is written
// unless every repo was fetched. It returns the number of repos added (or
// that would be added).
func (r *Registry) AddPackages(ctx context.Context, repos []mod.Repo, dryRun bool) (int, error) {
	n, _, err := r.addPackages(ctx, repos, dryRun, true)
	return n, err
}

// addPackages also returns the fetched mods so later steps of the same run
// can validate against them.
func (r *Registry) addPackages(ctx context.Context, repos []mod.Repo, dryRun, updateIndex bool) (int, []*mod.Mod, error) {
	r.logger.Info("initializing repos", "count", len(repos))

	mods := make([]*mod.Mod, 0, len(repos))
	var errs []error
	for _, repo := range repos {
		m, found, err := r.retriever.FetchRepoMetadata(ctx, repo)
		switch {
		case err != nil:
			errs = append(errs, itemError(repo, err))
		case !found:
			errs = append(errs, itemError(repo, ErrNoReleases))
		default:
			mods = append(mods, m)
		}
	}
	if len(errs) > 0 {
		for _, err := range errs {
			r.logger.Error("failed to initialize repo", "err", err)
		}
		return 0, nil, &BatchError{Op: "add", Total: len(repos), Errs: errs}
	}

	r.reportFindings(r.validate(mods, nil))

	if dryRun {
		r.logger.Warn("dry run; not writing to package db or registry")
		return len(mods), mods, nil
	}

	added := make([]string, 0, len(mods))
	for _, m := range mods {
		repo, err := r.store.Save(m)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		path, written, err := index.Declare(r.registryPath, repo)
		if err != nil {
			errs = append(errs, itemError(repo, err))
			continue
		}
		if written {
			r.logger.Info("declared package", "repo", repo, "path", path)
		} else {
			r.logger.Info("package already declared", "repo", repo, "path", path)
		}
		added = append(added, repo.IndexEntry())
		r.logger.Info("repo initialized", "repo", repo, "releases", len(m.Releases))
	}

	if updateIndex && len(added) > 0 {
		if err := r.updateIndex(added, nil); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return len(added), mods, &BatchError{Op: "add", Total: len(repos), Errs: errs}
	}
	return len(added), mods, nil
}

// AddRelease adds the release tagged tag to an indexed repo. A tag already
// present is a no-op reporting zero effect and is never fetched. A repo that
// is indexed but has no record yet is initialized in full instead. It
// returns the number of releases (or repos, on initialization) added.
func (r *Registry) AddRelease(ctx context.Context, repo mod.Repo, tag string, dryRun bool) (int, error) {
	indexed, err := r.IsInIndex(repo)
	if err != nil {
		return 0, err
	}
	if !indexed {
		return 0, &PreconditionError{
			Repo:   repo,
			Reason: "is not in the package index; add it first",
		}
	}

	m, found, err := r.store.Load(repo)
	if err != nil {
		return 0, err
	}
	if !found {
		r.logger.Info("mod not initialized; fetching all releases", "repo", repo)
		return r.AddPackages(ctx, []mod.Repo{repo}, dryRun)
	}

	if m.HasTag(tag) {
		r.logger.Warn("release already exists", "repo", repo, "tag", tag)
		return 0, nil
	}

	r.logger.Info("adding release", "repo", repo, "tag", tag)
	rel, found, err := r.retriever.FetchReleaseMetadata(ctx, m, tag)
	if err != nil {
		return 0, fmt.Errorf("fetching %s %s: %w", repo, tag, err)
	}
	if !found {
		r.logger.Error("release not found", "repo", repo, "tag", tag)
		return 0, nil
	}

	updated := r.retriever.UpdateModWithRelease(m, *rel)
	r.reportFindings(r.validate([]*mod.Mod{updated}, nil))

	if dryRun {
		r.logger.Warn("dry run; not writing mod record", "repo", repo)
		return 1, nil
	}
	if _, err := r.store.Save(updated); err != nil {
		return 0, err
	}
	r.logger.Info("release added", "repo", repo, "tag", tag, "purl", repo.PURL(tag))
	return 1, nil
}

// RemoveMods deletes the record of each repo, validates the remaining
// database and drops the repos from the index. It returns the number of
// records removed (or that would be removed).
func (r *Registry) RemoveMods(ctx context.Context, repos []mod.Repo, dryRun bool) (int, error) {
	return r.removeMods(ctx, repos, dryRun, true, nil)
}

// removeMods validates the remaining database together with pending mods
// that are not yet in the index.
func (r *Registry) removeMods(ctx context.Context, repos []mod.Repo, dryRun, updateIndex bool, pending []*mod.Mod) (int, error) {
	r.logger.Info("removing mods", "count", len(repos))

	excluded := make(map[mod.Repo]bool, len(repos))
	for _, repo := range repos {
		excluded[repo] = true
	}
	r.reportFindings(r.validate(pending, excluded))

	if dryRun {
		r.logger.Warn("dry run; not removing mod records")
		count := 0
		for _, repo := range repos {
			if r.store.Exists(repo) {
				count++
			}
		}
		return count, nil
	}

	var errs []error
	removed := make([]string, 0, len(repos))
	count := 0
	for _, repo := range repos {
		if err := ctx.Err(); err != nil {
			errs = append(errs, itemError(repo, err))
			continue
		}
		ok, err := r.store.Delete(repo)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		removed = append(removed, repo.IndexEntry())
		if ok {
			count++
			r.logger.Info("removed mod", "repo", repo)
		} else {
			r.logger.Warn("mod record not found", "repo", repo, "path", r.store.Path(repo))
		}
		if updateIndex {
			r.warnIfDeclared(repo)
		}
	}

	if updateIndex && len(removed) > 0 {
		if err := r.updateIndex(nil, removed); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return count, &BatchError{Op: "remove", Total: len(repos), Errs: errs}
	}
	r.logger.Info("removed mods", "count", count)
	return count, nil
}

func (r *Registry) warnIfDeclared(repo mod.Repo) {
	path, found, err := index.FindDeclaration(r.registryPath, repo)
	if err != nil || !found {
		return
	}
	r.logger.Warn("package is still declared and will return on the next registry update",
		"repo", repo, "path", path)
}

func (r *Registry) updateIndex(add, remove []string) error {
	entries, err := index.Load(r.IndexPath())
	if err != nil {
		return err
	}
	drop := make(map[string]bool, len(remove))
	for _, e := range remove {
		drop[e] = true
	}
	next := make([]string, 0, len(entries)+len(add))
	for _, e := range entries {
		if !drop[e] {
			next = append(next, e)
		}
	}
	next = append(next, add...)
	return index.Save(r.IndexPath(), next)
}

// Entry pairs an indexed repo with its stored record. Mod is nil when the
// record is missing.
type Entry struct {
	Repo mod.Repo
	Mod  *mod.Mod
}

// List returns every indexed repo in index order with its record.
func (r *Registry) List() ([]Entry, error) {
	entries, err := index.Load(r.IndexPath())
	if err != nil {
		return nil, err
	}
	repos, err := index.Repos(entries)
	if err != nil {
		return nil, err
	}

	out := make([]Entry, 0, len(repos))
	for _, repo := range repos {
		m, _, err := r.store.Load(repo)
		if err != nil {
			return nil, err
		}
		out = append(out, Entry{Repo: repo, Mod: m})
	}
	return out, nil
}
