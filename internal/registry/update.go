package registry

import (
	"context"
	"errors"
	"fmt"

	"github.com/zero-infra/modregistry/internal/index"
	"github.com/zero-infra/modregistry/internal/mod"
	"github.com/zero-infra/modregistry/internal/redirect"
)

// ProcessUpdates reconciles the package database with the registry
// directory. The redirect table is rebuilt from the redirect files, the
// declared packages are diffed against the persisted index, new packages
// are added and removed ones deleted. The index is written only when every
// step succeeded, so a failed run is retried in full by the next one.
func (r *Registry) ProcessUpdates(ctx context.Context, dryRun bool) error {
	if err := r.refreshRedirects(dryRun); err != nil {
		return err
	}

	next, err := index.Discover(r.registryPath)
	if err != nil {
		return err
	}
	prev, err := index.Load(r.IndexPath())
	if err != nil {
		return err
	}
	added, removed := index.Diff(prev, next)
	r.logger.Info("computed registry diff", "declared", len(next), "new", len(added), "removed", len(removed))

	var errs []error
	var fetched []*mod.Mod
	if len(added) > 0 {
		r.logger.Info("adding new packages", "count", len(added))
		repos, err := index.Repos(added)
		if err == nil {
			_, fetched, err = r.addPackages(ctx, repos, dryRun, false)
		}
		if err != nil {
			r.logger.Error("failed to initialize repos", "err", err)
			errs = append(errs, err)
		}
	}
	if len(removed) > 0 {
		r.logger.Info("removing packages", "count", len(removed))
		repos, err := index.Repos(removed)
		if err == nil {
			_, err = r.removeMods(ctx, repos, dryRun, false, fetched)
		}
		if err != nil {
			r.logger.Error("failed to remove repos", "err", err)
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		r.logger.Error("the package index has not been updated")
		return fmt.Errorf("processing registry updates: %w", errors.Join(errs...))
	}

	if dryRun {
		r.logger.Warn("dry run; not writing package index")
		return nil
	}
	if err := index.Save(r.IndexPath(), next); err != nil {
		return err
	}
	r.logger.Info("package index built", "entries", len(next))
	return nil
}

func (r *Registry) refreshRedirects(dryRun bool) error {
	lines, err := index.RedirectLines(r.registryPath)
	if err != nil {
		return err
	}
	table := redirect.Parse(lines)
	r.logger.Info("loaded redirects", "new", table.Len(), "existing", r.redirects.Len())

	if dryRun {
		return nil
	}
	if err := table.WriteFile(r.RedirectsPath()); err != nil {
		return err
	}
	r.redirects = table
	return nil
}
