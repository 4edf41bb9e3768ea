package store

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/zero-infra/modregistry/internal/mod"
)

func testMod(repoURL string) *mod.Mod {
	return mod.NewMod([]mod.Release{
		{
			Tag:         "v1.0.0",
			Hash:        "deadbeef",
			PakFileName: "test.pak",
			ReleaseDate: mod.NewTimestamp(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)),
			Manifest: mod.Manifest{
				Name:         "Test",
				RepoURL:      repoURL,
				ModType:      mod.TypeServer,
				Tags:         []string{"Audio"},
				Dependencies: []mod.Dependency{},
			},
		},
		{
			Tag:         "v1.1.0",
			Hash:        "cafef00d",
			PakFileName: "test.pak",
			ReleaseDate: mod.NewTimestamp(time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC)),
			Manifest: mod.Manifest{
				Name:    "Test",
				RepoURL: repoURL,
				ModType: mod.TypeServer,
				Tags:    []string{},
				Dependencies: []mod.Dependency{
					{RepoURL: "https://github.com/org/dep", Version: "^1.0.0"},
				},
			},
		},
	})
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := New(t.TempDir())
	m := testMod("https://github.com/testorg/testrepo")

	repo, err := s.Save(m)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if repo != (mod.Repo{Org: "testorg", Name: "testrepo"}) {
		t.Errorf("Save keyed by %v", repo)
	}

	loaded, found, err := s.Load(repo)
	if err != nil || !found {
		t.Fatalf("Load: found=%v err=%v", found, err)
	}
	if !reflect.DeepEqual(loaded, m) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", loaded, m)
	}
}

func TestSaveTrailingSlashKey(t *testing.T) {
	root := t.TempDir()
	s := New(root)

	if _, err := s.Save(testMod("https://github.com/testorg/testrepo/")); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "testorg", "testrepo.json")); err != nil {
		t.Errorf("expected record at testorg/testrepo.json: %v", err)
	}
}

func TestSaveOverwrites(t *testing.T) {
	s := New(t.TempDir())
	m := testMod("https://github.com/testorg/testrepo")
	repo, _ := s.Save(m)

	smaller := mod.NewMod(m.Releases[:1])
	if _, err := s.Save(smaller); err != nil {
		t.Fatal(err)
	}
	loaded, _, _ := s.Load(repo)
	if len(loaded.Releases) != 1 {
		t.Errorf("expected full overwrite, got %d releases", len(loaded.Releases))
	}
}

func TestSaveRejectsUnkeyableMod(t *testing.T) {
	s := New(t.TempDir())
	m := testMod("nonsense")
	if _, err := s.Save(m); err == nil {
		t.Error("expected error for repo_url without org/name")
	}
}

func TestLoadAbsent(t *testing.T) {
	s := New(t.TempDir())
	m, found, err := s.Load(mod.Repo{Org: "nobody", Name: "nothing"})
	if err != nil || found || m != nil {
		t.Errorf("Load absent: m=%v found=%v err=%v", m, found, err)
	}
}

func TestLoadCorrupt(t *testing.T) {
	root := t.TempDir()
	s := New(root)
	repo := mod.Repo{Org: "org", Name: "bad"}
	os.MkdirAll(filepath.Join(root, "org"), 0755)
	os.WriteFile(s.Path(repo), []byte("{not json"), 0644)

	if _, _, err := s.Load(repo); err == nil {
		t.Error("expected parse error")
	}
}

func TestDeleteRemovesEmptyOrg(t *testing.T) {
	root := t.TempDir()
	s := New(root)
	repo, _ := s.Save(testMod("https://github.com/solo/only"))

	removed, err := s.Delete(repo)
	if err != nil || !removed {
		t.Fatalf("Delete: removed=%v err=%v", removed, err)
	}
	if s.Exists(repo) {
		t.Error("record still exists")
	}
	if _, err := os.Stat(filepath.Join(root, "solo")); !os.IsNotExist(err) {
		t.Error("empty org directory should be removed")
	}
}

func TestDeleteKeepsNonEmptyOrg(t *testing.T) {
	root := t.TempDir()
	s := New(root)
	first, _ := s.Save(testMod("https://github.com/shared/first"))
	second, _ := s.Save(testMod("https://github.com/shared/second"))

	if _, err := s.Delete(first); err != nil {
		t.Fatal(err)
	}
	if !s.Exists(second) {
		t.Error("sibling record removed")
	}
	if _, err := os.Stat(filepath.Join(root, "shared")); err != nil {
		t.Error("org directory with remaining records should stay")
	}
}

func TestDeleteMissing(t *testing.T) {
	s := New(t.TempDir())
	removed, err := s.Delete(mod.Repo{Org: "ghost", Name: "repo"})
	if err != nil || removed {
		t.Errorf("Delete missing: removed=%v err=%v", removed, err)
	}
}
