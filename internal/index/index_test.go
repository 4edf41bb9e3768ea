package index

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/zero-infra/modregistry/internal/mod"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadMissing(t *testing.T) {
	entries, err := Load(filepath.Join(t.TempDir(), FileName))
	if err != nil || len(entries) != 0 {
		t.Errorf("Load missing = %v, %v", entries, err)
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db", FileName)
	if err := Save(path, []string{"b/two", "a/one", "b/two"}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	data, _ := os.ReadFile(path)
	if string(data) != "a/one\nb/two" {
		t.Errorf("file content = %q", data)
	}

	entries, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(entries, []string{"a/one", "b/two"}) {
		t.Errorf("Load = %v", entries)
	}
}

func TestDiff(t *testing.T) {
	tests := []struct {
		name        string
		prev, next  []string
		add, remove []string
	}{
		{"swap", []string{"o/a", "o/b"}, []string{"o/b", "o/c"}, []string{"o/c"}, []string{"o/a"}},
		{"same", []string{"o/a"}, []string{"o/a"}, nil, nil},
		{"from empty", nil, []string{"o/b", "o/a"}, []string{"o/a", "o/b"}, nil},
		{"to empty", []string{"o/a"}, nil, nil, []string{"o/a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			add, remove := Diff(tt.prev, tt.next)
			if !reflect.DeepEqual(add, tt.add) || !reflect.DeepEqual(remove, tt.remove) {
				t.Errorf("Diff = %v, %v; want %v, %v", add, remove, tt.add, tt.remove)
			}
		})
	}
}

func TestEntryFromLine(t *testing.T) {
	tests := map[string]string{
		"https://github.com/org/repo":  "org/repo",
		"https://github.com/org/repo/": "org/repo",
		"org/repo":                     "org/repo",
		"  org/repo  ":                 "org/repo",
	}
	for line, want := range tests {
		got, err := EntryFromLine(line)
		if err != nil || got != want {
			t.Errorf("EntryFromLine(%q) = %q, %v; want %q", line, got, err, want)
		}
	}
	if _, err := EntryFromLine("lonely"); err == nil {
		t.Error("expected error for single segment")
	}
}

func TestRepos(t *testing.T) {
	repos, err := Repos([]string{"a/one", "b/two"})
	if err != nil {
		t.Fatal(err)
	}
	want := []mod.Repo{{Org: "a", Name: "one"}, {Org: "b", Name: "two"}}
	if !reflect.DeepEqual(repos, want) {
		t.Errorf("Repos = %v", repos)
	}
	if _, err := Repos([]string{"bad"}); err == nil {
		t.Error("expected error for malformed entry")
	}
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "core.txt"), "# core mods\nhttps://github.com/org/a\n\n  org/b  \n")
	writeFile(t, filepath.Join(dir, "org", "c.txt"), "https://github.com/org/c/\n")
	writeFile(t, filepath.Join(dir, "dupes.txt"), "org/a\n")
	writeFile(t, filepath.Join(dir, RedirectsDir, "moves.txt"), "https://github.com/org/x -> https://github.com/org/y\n")
	writeFile(t, filepath.Join(dir, ".hidden.txt"), "org/hidden\n")

	entries, err := Discover(dir)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	want := []string{"org/a", "org/b", "org/c"}
	if !reflect.DeepEqual(entries, want) {
		t.Errorf("Discover = %v, want %v", entries, want)
	}
}

func TestDiscoverMissingDir(t *testing.T) {
	entries, err := Discover(filepath.Join(t.TempDir(), "nope"))
	if err != nil || len(entries) != 0 {
		t.Errorf("Discover missing = %v, %v", entries, err)
	}
}

func TestDiscoverMalformedLine(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "list.txt"), "org/a\nbroken\n")

	_, err := Discover(dir)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "list.txt:2") {
		t.Errorf("error should locate the line: %v", err)
	}
}

func TestRedirectLines(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, RedirectsDir, "a.txt"), "# moved\nhttps://github.com/o/a -> https://github.com/o/b\n")
	writeFile(t, filepath.Join(dir, RedirectsDir, "b.txt"), "https://github.com/o/b -> https://github.com/o/c")

	lines, err := RedirectLines(dir)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{
		"https://github.com/o/a -> https://github.com/o/b",
		"https://github.com/o/b -> https://github.com/o/c",
	}
	if !reflect.DeepEqual(lines, want) {
		t.Errorf("RedirectLines = %v", lines)
	}

	none, err := RedirectLines(t.TempDir())
	if err != nil || len(none) != 0 {
		t.Errorf("RedirectLines without dir = %v, %v", none, err)
	}
}

func TestDeclare(t *testing.T) {
	dir := t.TempDir()
	repo := mod.Repo{Org: "org", Name: "fresh"}

	path, written, err := Declare(dir, repo)
	if err != nil || !written {
		t.Fatalf("Declare: written=%v err=%v", written, err)
	}
	if path != DeclarationPath(dir, repo) {
		t.Errorf("path = %s", path)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "https://github.com/org/fresh\n" {
		t.Errorf("declaration content = %q", data)
	}

	_, written, err = Declare(dir, repo)
	if err != nil || written {
		t.Errorf("second Declare: written=%v err=%v", written, err)
	}
}

func TestDeclareAlreadyListed(t *testing.T) {
	dir := t.TempDir()
	list := filepath.Join(dir, "bundle.txt")
	writeFile(t, list, "org/other\norg/listed\n")

	path, written, err := Declare(dir, mod.Repo{Org: "org", Name: "listed"})
	if err != nil || written || path != list {
		t.Errorf("Declare = %s, %v, %v", path, written, err)
	}
	if _, err := os.Stat(filepath.Join(dir, "org", "listed.txt")); !os.IsNotExist(err) {
		t.Error("no new declaration should be written")
	}
}
