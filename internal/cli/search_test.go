package cli

import (
	"reflect"
	"testing"

	"github.com/zero-infra/modregistry/internal/mod"
)

func searchMod() *mod.Mod {
	return &mod.Mod{
		LatestManifest: mod.Manifest{
			Name:    "Desert Map Pack",
			RepoURL: "https://github.com/sandbox/desert-maps",
			ModType: mod.TypeServer,
			Tags:    []string{"Map", "Doodad"},
		},
	}
}

func TestMatchesSearchByQuery(t *testing.T) {
	m := searchMod()

	tests := []struct {
		name     string
		query    string
		expected bool
	}{
		{"empty query matches all", "", true},
		{"exact name match", "Desert Map Pack", true},
		{"partial name match", "desert", true},
		{"case insensitive name", "MAP PACK", true},
		{"repo url match", "sandbox/desert-maps", true},
		{"org match", "sandbox", true},
		{"no match", "nonexistent-thing", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := matchesSearch(m, tt.query, "", nil)
			if got != tt.expected {
				t.Errorf("matchesSearch(query=%q) = %v, want %v", tt.query, got, tt.expected)
			}
		})
	}
}

func TestMatchesSearchByType(t *testing.T) {
	m := searchMod()

	tests := []struct {
		name       string
		typeFilter string
		expected   bool
	}{
		{"no type filter", "", true},
		{"matching type", "Server", true},
		{"matching type lowercase", "server", true},
		{"non-matching type", "Client", false},
		{"non-matching shared", "Shared", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := matchesSearch(m, "", tt.typeFilter, nil)
			if got != tt.expected {
				t.Errorf("matchesSearch(type=%q) = %v, want %v", tt.typeFilter, got, tt.expected)
			}
		})
	}
}

func TestMatchesSearchByTag(t *testing.T) {
	m := searchMod()

	tests := []struct {
		name       string
		filterTags []string
		expected   bool
	}{
		{"no tag filter", nil, true},
		{"single matching tag", []string{"map"}, true},
		{"any of several", []string{"audio", "doodad"}, true},
		{"no matching tag", []string{"weapon"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := matchesSearch(m, "", "", tt.filterTags)
			if got != tt.expected {
				t.Errorf("matchesSearch(tags=%v) = %v, want %v", tt.filterTags, got, tt.expected)
			}
		})
	}
}

func TestMatchesSearchCombinedFilters(t *testing.T) {
	m := searchMod()

	if !matchesSearch(m, "desert", "Server", []string{"map"}) {
		t.Error("expected all filters to match")
	}
	if matchesSearch(m, "desert", "Client", []string{"map"}) {
		t.Error("type mismatch should exclude the mod")
	}
	if matchesSearch(m, "forest", "Server", []string{"map"}) {
		t.Error("query mismatch should exclude the mod")
	}
}

func TestSplitTags(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"Map", []string{"map"}},
		{" Map , Audio ,, ", []string{"map", "audio"}},
	}
	for _, tt := range tests {
		if got := splitTags(tt.in); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("splitTags(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
