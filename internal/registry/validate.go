package registry

import (
	"context"

	"github.com/zero-infra/modregistry/internal/depcheck"
	"github.com/zero-infra/modregistry/internal/index"
	"github.com/zero-infra/modregistry/internal/mod"
)

// Report is the outcome of validating the package database.
type Report struct {
	Checked     int                     // mods examined
	Missing     []mod.Repo              // indexed repos without a record
	Unsatisfied []depcheck.Unsatisfied
}

// Valid reports whether the database has no findings.
func (rep *Report) Valid() bool {
	return len(rep.Missing) == 0 && len(rep.Unsatisfied) == 0
}

// ValidateDB checks every indexed mod without modifying anything. Findings
// are logged and returned; only failures to read the database are errors.
func (r *Registry) ValidateDB(ctx context.Context) (*Report, error) {
	rep, err := r.validate(nil, nil)
	r.reportFindings(rep, err)
	return rep, err
}

// validate checks the indexed mods together with additional ones. An
// additional mod replaces the stored record of the same repo; excluded
// repos are left out.
func (r *Registry) validate(additional []*mod.Mod, excluded map[mod.Repo]bool) (*Report, error) {
	r.logger.Info("validating package database")

	entries, err := index.Load(r.IndexPath())
	if err != nil {
		return nil, err
	}

	rep := &Report{}
	mods := make([]*mod.Mod, 0, len(entries)+len(additional))
	replaced := make(map[mod.Repo]bool, len(additional))
	for _, m := range additional {
		if repo, err := m.Repo(); err == nil {
			replaced[repo] = true
		}
		mods = append(mods, m)
	}

	for _, entry := range entries {
		repo, err := mod.ParseRepo(entry)
		if err != nil {
			r.logger.Warn("skipping malformed index entry", "entry", entry)
			continue
		}
		if excluded[repo] || replaced[repo] {
			continue
		}
		m, found, err := r.store.Load(repo)
		if err != nil {
			return nil, err
		}
		if !found {
			rep.Missing = append(rep.Missing, repo)
			continue
		}
		mods = append(mods, m)
	}

	rep.Checked = len(mods)
	rep.Unsatisfied, err = depcheck.Check(mods, r.redirects)
	if err != nil {
		return nil, err
	}
	return rep, nil
}

// reportFindings logs a validation outcome. Findings never fail the caller.
func (r *Registry) reportFindings(rep *Report, err error) {
	if err != nil {
		r.logger.Error("validation could not complete", "err", err)
		return
	}

	for _, repo := range rep.Missing {
		r.logger.Error("package not found during validation", "repo", repo)
	}
	if len(rep.Unsatisfied) > 0 {
		r.logger.Error("missing dependencies", "count", len(rep.Unsatisfied))
		for _, u := range rep.Unsatisfied {
			r.logger.Error(u.String(), "purl", releasePURL(u))
		}
	}

	if rep.Valid() {
		r.logger.Info("package database is valid", "mods", rep.Checked)
	} else {
		r.logger.Error("package database is invalid")
	}
}

func releasePURL(u depcheck.Unsatisfied) string {
	repo, err := mod.ParseRepo(u.Release.Manifest.RepoURL)
	if err != nil {
		return ""
	}
	return repo.PURL(u.Release.Tag)
}
