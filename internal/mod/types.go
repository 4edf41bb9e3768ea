package mod

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// ModType declares where a mod runs.
type ModType string

// Allowed mod types.
const (
	TypeClient ModType = "Client"
	TypeServer ModType = "Server"
	TypeShared ModType = "Shared"
)

// ValidModTypes contains every accepted mod_type value.
var ValidModTypes = []ModType{TypeClient, TypeServer, TypeShared}

// ValidTags is the fixed vocabulary a manifest may draw its tags from.
var ValidTags = []string{
	"Mutator",
	"Map",
	"Cosmetic",
	"Audio",
	"Model",
	"Weapon",
	"Doodad",
	"Explicit",
}

// IsValid reports whether t is one of ValidModTypes.
func (t ModType) IsValid() bool {
	return slices.Contains(ValidModTypes, t)
}

// IsValidTag reports whether tag belongs to ValidTags.
func IsValidTag(tag string) bool {
	return slices.Contains(ValidTags, tag)
}

// Dependency is a requirement on another mod at a version range.
type Dependency struct {
	RepoURL string `json:"repo_url"`
	Version string `json:"version"`
}

// Manifest is the metadata declared by one release (its mod.json).
type Manifest struct {
	Name         string       `json:"name"`
	RepoURL      string       `json:"repo_url"`
	ModType      ModType      `json:"mod_type"`
	Tags         []string     `json:"tags"`
	Dependencies []Dependency `json:"dependencies"`
}

// Release is one validated, hashed version of a mod. Releases are never
// modified after ingestion.
type Release struct {
	Tag         string    `json:"tag"`
	Hash        string    `json:"hash"`
	PakFileName string    `json:"pak_file_name"`
	ReleaseDate Timestamp `json:"release_date"`
	Manifest    Manifest  `json:"manifest"`
}

// Mod is the stored record for one repository. Releases are ordered
// newest-first and LatestManifest mirrors Releases[0].Manifest.
type Mod struct {
	LatestManifest Manifest  `json:"latest_manifest"`
	Releases       []Release `json:"releases"`
}

// NewMod builds a Mod from releases in any order. It returns nil when
// releases is empty.
func NewMod(releases []Release) *Mod {
	if len(releases) == 0 {
		return nil
	}
	sorted := slices.Clone(releases)
	SortNewestFirst(sorted)
	return &Mod{LatestManifest: sorted[0].Manifest, Releases: sorted}
}

// WithRelease returns a new Mod containing m's releases plus r, re-sorted
// with LatestManifest recomputed. m is not modified.
func (m *Mod) WithRelease(r Release) *Mod {
	releases := make([]Release, 0, len(m.Releases)+1)
	releases = append(releases, m.Releases...)
	releases = append(releases, r)
	return NewMod(releases)
}

// Repo returns the repository the mod is keyed by.
func (m *Mod) Repo() (Repo, error) {
	return ParseRepo(m.LatestManifest.RepoURL)
}

// HasTag reports whether a release with the given tag exists.
func (m *Mod) HasTag(tag string) bool {
	for _, r := range m.Releases {
		if r.Tag == tag {
			return true
		}
	}
	return false
}

// SortNewestFirst orders releases by release date, most recent first.
func SortNewestFirst(releases []Release) {
	slices.SortStableFunc(releases, func(a, b Release) int {
		return b.ReleaseDate.Compare(a.ReleaseDate.Time)
	})
}

const (
	naiveLayout      = "2006-01-02T15:04:05"
	naiveMicroLayout = "2006-01-02T15:04:05.000000"
)

// Timestamp is a zone-less instant. It holds UTC wall-clock time at
// microsecond precision and encodes without an offset, e.g.
// "2024-03-01T12:30:00".
type Timestamp struct {
	time.Time
}

// NewTimestamp converts t to UTC and drops precision below a microsecond.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t.UTC().Truncate(time.Microsecond)}
}

// String formats the timestamp in its stored form.
func (t Timestamp) String() string {
	if t.Nanosecond() == 0 {
		return t.Format(naiveLayout)
	}
	return t.Format(naiveMicroLayout)
}

// MarshalJSON implements json.Marshaler.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.String() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler. Values carrying an offset are
// converted to UTC.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if parsed, err := time.Parse(naiveLayout, s); err == nil {
		*t = NewTimestamp(parsed)
		return nil
	}
	parsed, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return fmt.Errorf("parsing timestamp %q: %w", s, err)
	}
	*t = NewTimestamp(parsed)
	return nil
}
