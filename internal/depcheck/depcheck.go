// Package depcheck verifies that every dependency declared by any release in
// a set of mods is satisfied by some release in the same set. Findings are
// reported, never enforced.
package depcheck

import (
	"fmt"

	"github.com/zero-infra/modregistry/internal/mod"
	"github.com/zero-infra/modregistry/internal/redirect"
	"github.com/zero-infra/modregistry/internal/version"
)

// Unsatisfied is a dependency for which no release in the checked set
// qualifies.
type Unsatisfied struct {
	Mod        *mod.Mod
	Release    mod.Release
	Dependency mod.Dependency
}

func (u Unsatisfied) String() string {
	return fmt.Sprintf("%s %s requires missing dependency %s %s",
		u.Release.Manifest.Name, u.Release.Tag, u.Dependency.RepoURL, u.Dependency.Version)
}

// Check returns one finding per (release, dependency) pair left unsatisfied.
// A candidate satisfies a dependency when both repository URLs resolve to
// the same location through resolver and the candidate's tag lies in the
// dependency's version range. A redirect cycle aborts the check.
func Check(mods []*mod.Mod, resolver redirect.Resolver) ([]Unsatisfied, error) {
	c := &checker{mods: mods, resolver: resolver, resolved: make(map[string]string)}

	var findings []Unsatisfied
	for _, m := range mods {
		if m == nil {
			continue
		}
		for _, rel := range m.Releases {
			for _, dep := range rel.Manifest.Dependencies {
				_, found, err := c.find(dep)
				if err != nil {
					return nil, fmt.Errorf("checking %s %s: %w", rel.Manifest.Name, rel.Tag, err)
				}
				if !found {
					findings = append(findings, Unsatisfied{Mod: m, Release: rel, Dependency: dep})
				}
			}
		}
	}
	return findings, nil
}

type checker struct {
	mods     []*mod.Mod
	resolver redirect.Resolver
	resolved map[string]string
}

// find returns the first release, in mod then release order, satisfying dep.
func (c *checker) find(dep mod.Dependency) (mod.Release, bool, error) {
	target, err := c.resolve(dep.RepoURL)
	if err != nil {
		return mod.Release{}, false, err
	}

	for _, m := range c.mods {
		if m == nil {
			continue
		}
		for _, rel := range m.Releases {
			url, err := c.resolve(rel.Manifest.RepoURL)
			if err != nil {
				return mod.Release{}, false, err
			}
			if url != target {
				continue
			}
			// unparseable tags or ranges never match
			if ok, err := version.Satisfies(rel.Tag, dep.Version); err == nil && ok {
				return rel, true, nil
			}
		}
	}
	return mod.Release{}, false, nil
}

func (c *checker) resolve(url string) (string, error) {
	if r, ok := c.resolved[url]; ok {
		return r, nil
	}
	if c.resolver == nil {
		return url, nil
	}
	r, err := c.resolver.Resolve(url)
	if err != nil {
		return "", err
	}
	c.resolved[url] = r
	return r, nil
}
