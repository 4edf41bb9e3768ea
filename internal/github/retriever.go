package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/zero-infra/modregistry/internal/ingest"
	"github.com/zero-infra/modregistry/internal/mod"
	"github.com/zero-infra/modregistry/internal/retriever"
)

// ManifestFile is the manifest path inside a tagged repository tree.
const ManifestFile = "mod.json"

const (
	acceptJSON   = "application/vnd.github+json"
	acceptBinary = "application/octet-stream"
)

var (
	_ retriever.Retriever = (*Client)(nil)
	_ ingest.AssetFetcher = (*Client)(nil)
)

// Release is the subset of a GitHub release the registry reads.
type Release struct {
	TagName    string  `json:"tag_name"`
	Draft      bool    `json:"draft"`
	Prerelease bool    `json:"prerelease"`
	Assets     []Asset `json:"assets"`
}

// Asset is a file attached to a GitHub release.
type Asset struct {
	Name        string    `json:"name"`
	DownloadURL string    `json:"browser_download_url"`
	UpdatedAt   time.Time `json:"updated_at"`
	Size        int64     `json:"size"`
}

// ListReleases returns every release of repo, following pagination.
func (c *Client) ListReleases(ctx context.Context, repo mod.Repo) ([]Release, error) {
	var all []Release
	for page := 1; ; page++ {
		u := fmt.Sprintf("%s/repos/%s/%s/releases?per_page=%d&page=%d",
			c.apiBase, url.PathEscape(repo.Org), url.PathEscape(repo.Name), c.pageSize, page)
		body, err := c.get(ctx, u, acceptJSON)
		if err != nil {
			return nil, err
		}

		var releases []Release
		if err := json.Unmarshal(body, &releases); err != nil {
			return nil, fmt.Errorf("parsing releases of %s: %w", repo, err)
		}
		all = append(all, releases...)
		if len(releases) < c.pageSize {
			return all, nil
		}
	}
}

// ReleaseByTag returns the release of repo tagged tag.
func (c *Client) ReleaseByTag(ctx context.Context, repo mod.Repo, tag string) (*Release, error) {
	u := fmt.Sprintf("%s/repos/%s/%s/releases/tags/%s",
		c.apiBase, url.PathEscape(repo.Org), url.PathEscape(repo.Name), url.PathEscape(tag))
	body, err := c.get(ctx, u, acceptJSON)
	if err != nil {
		return nil, err
	}

	var rel Release
	if err := json.Unmarshal(body, &rel); err != nil {
		return nil, fmt.Errorf("parsing release %s of %s: %w", tag, repo, err)
	}
	return &rel, nil
}

// FetchManifest downloads mod.json at tag. A missing file yields nil data
// and no error.
func (c *Client) FetchManifest(ctx context.Context, repo mod.Repo, tag string) ([]byte, error) {
	u := fmt.Sprintf("%s/%s/%s/%s/%s",
		c.rawBase, url.PathEscape(repo.Org), url.PathEscape(repo.Name), url.PathEscape(tag), ManifestFile)
	data, err := c.get(ctx, u, "")
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return data, err
}

// FetchAsset implements ingest.AssetFetcher.
func (c *Client) FetchAsset(ctx context.Context, asset ingest.Asset) ([]byte, error) {
	return c.get(ctx, asset.DownloadURL, acceptBinary)
}

// FetchRepoMetadata implements retriever.Retriever. Draft releases are
// ignored. A release that fails validation or cannot be fetched is logged
// and skipped; only cancellation or an open circuit breaker aborts the
// repo. A repo that does not exist or has no valid release is reported as
// not found.
func (c *Client) FetchRepoMetadata(ctx context.Context, repo mod.Repo) (*mod.Mod, bool, error) {
	c.logger.Info("fetching releases", "repo", repo)
	releases, err := c.ListReleases(ctx, repo)
	if errors.Is(err, ErrNotFound) {
		c.logger.Warn("repository not found", "repo", repo)
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("listing releases of %s: %w", repo, err)
	}

	var valid []mod.Release
	for _, gh := range releases {
		if gh.Draft {
			continue
		}
		rel, err := c.ingest(ctx, repo, gh)
		var ve *ingest.ValidationError
		switch {
		case err == nil:
			valid = append(valid, *rel)
		case errors.As(err, &ve):
			c.logger.Warn("skipping invalid release", "repo", repo, "tag", gh.TagName, "err", err)
		case ctx.Err() != nil:
			return nil, false, fmt.Errorf("fetching %s %s: %w", repo, gh.TagName, ctx.Err())
		case errors.Is(err, ErrCircuitOpen):
			return nil, false, err
		default:
			c.logger.Error("skipping release that could not be fetched", "repo", repo, "tag", gh.TagName, "err", err)
		}
	}

	if len(valid) == 0 {
		c.logger.Warn("no valid releases", "repo", repo, "releases", len(releases))
		return nil, false, nil
	}
	c.logger.Info("fetched releases", "repo", repo, "valid", len(valid), "total", len(releases))
	return mod.NewMod(valid), true, nil
}

// FetchReleaseMetadata implements retriever.Retriever. A release failing
// validation is returned as an *ingest.ValidationError.
func (c *Client) FetchReleaseMetadata(ctx context.Context, m *mod.Mod, tag string) (*mod.Release, bool, error) {
	repo, err := m.Repo()
	if err != nil {
		return nil, false, err
	}

	gh, err := c.ReleaseByTag(ctx, repo, tag)
	if errors.Is(err, ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("fetching release %s of %s: %w", tag, repo, err)
	}

	rel, err := c.ingest(ctx, repo, *gh)
	if err != nil {
		return nil, false, err
	}
	return rel, true, nil
}

// UpdateModWithRelease implements retriever.Retriever.
func (c *Client) UpdateModWithRelease(m *mod.Mod, r mod.Release) *mod.Mod {
	return retriever.UpdateModWithRelease(m, r)
}

func (c *Client) ingest(ctx context.Context, repo mod.Repo, gh Release) (*mod.Release, error) {
	manifest, err := c.FetchManifest(ctx, repo, gh.TagName)
	if err != nil {
		return nil, fmt.Errorf("fetching %s for %s %s: %w", ManifestFile, repo, gh.TagName, err)
	}

	raw := ingest.RawRelease{Tag: gh.TagName, Manifest: manifest}
	for _, a := range gh.Assets {
		raw.Assets = append(raw.Assets, ingest.Asset{
			Name:        a.Name,
			DownloadURL: a.DownloadURL,
			UpdatedAt:   a.UpdatedAt,
			Size:        a.Size,
		})
	}
	return ingest.Ingest(ctx, repo, raw, c)
}
