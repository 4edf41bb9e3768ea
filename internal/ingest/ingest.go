// Package ingest turns raw release metadata into a validated, hashed
// mod.Release. Every rule is checked on every release and all violations are
// reported together in a single ValidationError.
package ingest

import (
	"context"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/zero-infra/modregistry/internal/manifest"
	"github.com/zero-infra/modregistry/internal/mod"
	"github.com/zero-infra/modregistry/internal/version"
)

// PakSuffix identifies the binary package asset of a release.
const PakSuffix = ".pak"

// Asset is one file attached to a release.
type Asset struct {
	Name        string
	DownloadURL string
	UpdatedAt   time.Time
	Size        int64
}

// RawRelease is release metadata as published upstream, before validation.
type RawRelease struct {
	Tag      string
	Assets   []Asset
	Manifest []byte // the release's mod.json document
}

// AssetFetcher downloads the content of a release asset.
type AssetFetcher interface {
	FetchAsset(ctx context.Context, asset Asset) ([]byte, error)
}

// AssetFetcherFunc adapts a function to AssetFetcher.
type AssetFetcherFunc func(ctx context.Context, asset Asset) ([]byte, error)

// FetchAsset calls f.
func (f AssetFetcherFunc) FetchAsset(ctx context.Context, asset Asset) ([]byte, error) {
	return f(ctx, asset)
}

// ValidationError lists every rule a release violated.
type ValidationError struct {
	Repo   mod.Repo
	Tag    string
	Issues []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("mod manifest %s %s failed validation:\n\t%s",
		e.Repo, e.Tag, strings.Join(e.Issues, "\n\t"))
}

// Ingest validates raw and, when it passes, downloads the release's pak
// asset and returns the hashed release. The manifest's repo_url is always
// replaced with the canonical URL of repo.
func Ingest(ctx context.Context, repo mod.Repo, raw RawRelease, fetcher AssetFetcher) (*mod.Release, error) {
	var issues []string

	pak, pakIssue := FindPak(raw.Tag, raw.Assets)
	if pakIssue != "" {
		issues = append(issues, pakIssue)
	}

	if issue := CheckTagName(raw.Tag); issue != "" {
		issues = append(issues, issue)
	}

	m, manifestIssues := checkManifest(raw.Manifest)
	issues = append(issues, manifestIssues...)

	if len(issues) > 0 {
		return nil, &ValidationError{Repo: repo, Tag: raw.Tag, Issues: issues}
	}

	data, err := fetcher.FetchAsset(ctx, pak)
	if err != nil {
		return nil, fmt.Errorf("downloading %s for %s %s: %w", pak.Name, repo, raw.Tag, err)
	}

	m.RepoURL = repo.URL()
	return &mod.Release{
		Tag:         raw.Tag,
		Hash:        Hash(data),
		PakFileName: pak.Name,
		ReleaseDate: mod.NewTimestamp(pak.UpdatedAt),
		Manifest:    *m,
	}, nil
}

// checkManifest runs the schema and the vocabulary rules against a raw
// manifest document. The decoded manifest is returned when it could be
// decoded, even if rules failed.
func checkManifest(data []byte) (*mod.Manifest, []string) {
	if len(data) == 0 {
		return nil, []string{"mod.json is missing or empty"}
	}

	result, err := manifest.Validate(data)
	if err != nil {
		return nil, []string{fmt.Sprintf("mod.json could not be read: %v", err)}
	}

	var issues []string
	for _, issue := range result.Issues {
		issues = append(issues, "mod.json "+issue.String())
	}

	m, err := manifest.Decode(data)
	if err != nil {
		if len(issues) == 0 {
			issues = append(issues, fmt.Sprintf("mod.json could not be decoded: %v", err))
		}
		return nil, issues
	}

	if issue := CheckTags(m.Tags); issue != "" {
		issues = append(issues, issue)
	}
	if issue := CheckModType(m.ModType); issue != "" {
		issues = append(issues, issue)
	}
	issues = append(issues, CheckDependencyVersions(m.Dependencies)...)

	return m, issues
}

// FindPak returns the single pak asset. The issue string is non-empty when
// there is no pak or more than one.
func FindPak(tag string, assets []Asset) (Asset, string) {
	var paks []Asset
	for _, a := range assets {
		if strings.HasSuffix(a.Name, PakSuffix) {
			paks = append(paks, a)
		}
	}

	switch len(paks) {
	case 0:
		return Asset{}, fmt.Sprintf("no pak file found for release %s", tag)
	case 1:
		return paks[0], ""
	default:
		return Asset{}, fmt.Sprintf("multiple pak files found for release %s", tag)
	}
}

// CheckTagName reports a tag that is not a semantic version.
func CheckTagName(tag string) string {
	if _, err := version.ParseTag(tag); err != nil {
		return err.Error()
	}
	return ""
}

// CheckTags reports tags outside mod.ValidTags, together with the vocabulary.
func CheckTags(tags []string) string {
	var invalid []string
	for _, tag := range tags {
		if !mod.IsValidTag(tag) {
			invalid = append(invalid, tag)
		}
	}
	if len(invalid) == 0 {
		return ""
	}
	return fmt.Sprintf("invalid tags: %s. Valid tags are: %s",
		strings.Join(invalid, ", "), strings.Join(mod.ValidTags, ", "))
}

// CheckModType reports a mod type outside mod.ValidModTypes.
func CheckModType(t mod.ModType) string {
	if t.IsValid() {
		return ""
	}
	valid := make([]string, len(mod.ValidModTypes))
	for i, v := range mod.ValidModTypes {
		valid[i] = string(v)
	}
	return fmt.Sprintf("invalid mod type: %q. Valid types are: %s", t, strings.Join(valid, ", "))
}

// CheckDependencyVersions reports every dependency whose version range does
// not parse.
func CheckDependencyVersions(deps []mod.Dependency) []string {
	var issues []string
	for _, dep := range deps {
		if err := version.ValidateRange(dep.Version); err != nil {
			name := dep.RepoURL
			if r, perr := mod.ParseRepo(dep.RepoURL); perr == nil {
				name = r.String()
			}
			issues = append(issues, fmt.Sprintf(
				"version range %q for dependency %q does not conform to the semver spec: %v",
				dep.Version, name, err))
		}
	}
	return issues
}

// Hash returns the lowercase hex SHA-512 digest of data.
func Hash(data []byte) string {
	sum := sha512.Sum512(data)
	return hex.EncodeToString(sum[:])
}
