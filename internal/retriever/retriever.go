// Package retriever defines the capability the registry uses to obtain mod
// and release metadata from wherever repositories are hosted.
package retriever

import (
	"context"

	"github.com/zero-infra/modregistry/internal/mod"
)

// Retriever fetches validated metadata for repositories and releases.
//
// The boolean results distinguish "not found" (false, nil error) from a
// failed lookup (non-nil error). A release that fails ingestion is returned
// as an *ingest.ValidationError.
type Retriever interface {
	// FetchRepoMetadata returns a Mod built from every valid release of repo.
	FetchRepoMetadata(ctx context.Context, repo mod.Repo) (*mod.Mod, bool, error)

	// FetchReleaseMetadata returns one release of an already known mod.
	FetchReleaseMetadata(ctx context.Context, m *mod.Mod, tag string) (*mod.Release, bool, error)

	// UpdateModWithRelease returns m with r added, releases re-sorted
	// newest-first and the latest manifest recomputed.
	UpdateModWithRelease(m *mod.Mod, r mod.Release) *mod.Mod
}

// UpdateModWithRelease is the standard implementation of
// Retriever.UpdateModWithRelease.
func UpdateModWithRelease(m *mod.Mod, r mod.Release) *mod.Mod {
	return m.WithRelease(r)
}
