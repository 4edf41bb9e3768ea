// Package retrievertest provides an in-memory retriever.Retriever for tests.
package retrievertest

import (
	"context"

	"github.com/zero-infra/modregistry/internal/mod"
	"github.com/zero-infra/modregistry/internal/retriever"
)

// Fake serves canned mods and releases and records every call.
type Fake struct {
	Mods     map[mod.Repo]*mod.Mod
	Releases map[string]*mod.Release // keyed by "org/name@tag"
	Errors   map[mod.Repo]error      // forced failures per repo

	RepoCalls    []mod.Repo
	ReleaseCalls []string
}

var _ retriever.Retriever = (*Fake)(nil)

// New returns an empty Fake.
func New() *Fake {
	return &Fake{
		Mods:     make(map[mod.Repo]*mod.Mod),
		Releases: make(map[string]*mod.Release),
		Errors:   make(map[mod.Repo]error),
	}
}

// AddMod registers a mod under the repo parsed from its latest manifest.
func (f *Fake) AddMod(m *mod.Mod) {
	repo, err := m.Repo()
	if err != nil {
		panic(err)
	}
	f.Mods[repo] = m
}

// AddRelease registers a release returned for repo at r.Tag.
func (f *Fake) AddRelease(repo mod.Repo, r *mod.Release) {
	f.Releases[releaseKey(repo, r.Tag)] = r
}

// FetchRepoMetadata implements retriever.Retriever.
func (f *Fake) FetchRepoMetadata(ctx context.Context, repo mod.Repo) (*mod.Mod, bool, error) {
	f.RepoCalls = append(f.RepoCalls, repo)
	if err := f.Errors[repo]; err != nil {
		return nil, false, err
	}
	m, ok := f.Mods[repo]
	return m, ok, nil
}

// FetchReleaseMetadata implements retriever.Retriever.
func (f *Fake) FetchReleaseMetadata(ctx context.Context, m *mod.Mod, tag string) (*mod.Release, bool, error) {
	repo, err := m.Repo()
	if err != nil {
		return nil, false, err
	}
	key := releaseKey(repo, tag)
	f.ReleaseCalls = append(f.ReleaseCalls, key)
	if err := f.Errors[repo]; err != nil {
		return nil, false, err
	}
	r, ok := f.Releases[key]
	return r, ok, nil
}

// UpdateModWithRelease implements retriever.Retriever.
func (f *Fake) UpdateModWithRelease(m *mod.Mod, r mod.Release) *mod.Mod {
	return retriever.UpdateModWithRelease(m, r)
}

func releaseKey(repo mod.Repo, tag string) string {
	return repo.String() + "@" + tag
}
