package mod

import (
	"fmt"
	"strings"

	packageurl "github.com/package-url/packageurl-go"
)

// githubBase is the URL prefix used when rendering a repo as a URL.
const githubBase = "https://github.com"

// Repo identifies a source repository. It is the key for every storage path.
type Repo struct {
	Org  string
	Name string
}

// ParseRepo extracts a Repo from a repository URL or an "org/name" string.
// The last two "/"-separated segments are taken as org and name. A single
// trailing separator shifts the parse by one segment, so
// "https://github.com/org/name/" parses the same as ".../org/name".
func ParseRepo(raw string) (Repo, error) {
	parts := strings.Split(strings.TrimSpace(raw), "/")
	if len(parts) > 0 && parts[len(parts)-1] == "" {
		parts = parts[:len(parts)-1]
	}
	if len(parts) < 2 {
		return Repo{}, fmt.Errorf("cannot parse repository from %q: need org/name", raw)
	}

	r := Repo{Org: parts[len(parts)-2], Name: parts[len(parts)-1]}
	if r.Org == "" || r.Name == "" {
		return Repo{}, fmt.Errorf("cannot parse repository from %q: empty org or name", raw)
	}
	return r, nil
}

// String returns "org/name".
func (r Repo) String() string {
	return r.Org + "/" + r.Name
}

// IndexEntry returns the form used in the package index ("org/name").
func (r Repo) IndexEntry() string {
	return r.String()
}

// URL returns the canonical repository URL.
func (r Repo) URL() string {
	return githubBase + "/" + r.Org + "/" + r.Name
}

// PURL renders the repo as a package URL. An empty version yields an
// unversioned PURL.
func (r Repo) PURL(version string) string {
	p := packageurl.NewPackageURL("github", r.Org, r.Name, version, nil, "")
	return p.ToString()
}
