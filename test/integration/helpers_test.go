//go:build integration

package integration_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/zero-infra/modregistry/internal/github"
	"github.com/zero-infra/modregistry/internal/logging"
	"github.com/zero-infra/modregistry/internal/registry"
)

// testEnv holds paths to isolated test directories.
type testEnv struct {
	RegistryDir string // package declarations and redirects/
	DBDir       string // package database
	Upstream    *upstream
}

// setupTestEnv creates isolated temp directories and a fake GitHub.
func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	root := t.TempDir()
	return &testEnv{
		RegistryDir: filepath.Join(root, "registry"),
		DBDir:       filepath.Join(root, "package_db"),
		Upstream:    newUpstream(t),
	}
}

// open builds a registry backed by the fake GitHub.
func (e *testEnv) open(t *testing.T) *registry.Registry {
	t.Helper()
	logger, err := logging.New(os.Stderr, "error", "modreg")
	if err != nil {
		t.Fatal(err)
	}
	client := github.New(
		github.WithHTTPClient(e.Upstream.srv.Client()),
		github.WithAPIBase(e.Upstream.srv.URL+"/api"),
		github.WithRawBase(e.Upstream.srv.URL+"/raw"),
		github.WithBaseDelay(time.Millisecond),
		github.WithLogger(logger),
	)
	reg, err := registry.New(e.RegistryDir, e.DBDir, client, registry.WithLogger(logger))
	if err != nil {
		t.Fatalf("registry.New: %v", err)
	}
	return reg
}

// declare writes a declaration file relative to the registry directory.
func (e *testEnv) declare(t *testing.T, name string, urls ...string) {
	t.Helper()
	writeFile(t, filepath.Join(e.RegistryDir, name), strings.Join(urls, "\n")+"\n")
}

// upstream is an in-memory GitHub serving releases, manifests and assets.
type upstream struct {
	srv *httptest.Server

	mu        sync.Mutex
	releases  map[string][]github.Release // "org/name" -> releases
	manifests map[string]string           // "org/name/tag" -> mod.json
	assets    map[string]string           // asset name -> content
}

func newUpstream(t *testing.T) *upstream {
	t.Helper()
	u := &upstream{
		releases:  map[string][]github.Release{},
		manifests: map[string]string{},
		assets:    map[string]string{},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/repos/", u.serveReleases)
	mux.HandleFunc("/raw/", u.serveManifest)
	mux.HandleFunc("/download/", func(w http.ResponseWriter, r *http.Request) {
		u.mu.Lock()
		body, ok := u.assets[strings.TrimPrefix(r.URL.Path, "/download/")]
		u.mu.Unlock()
		if !ok {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, body)
	})

	u.srv = httptest.NewServer(mux)
	t.Cleanup(u.srv.Close)
	return u
}

// publish adds a release of repo ("org/name") with one pak asset.
func (u *upstream) publish(repo, tag string, day int, manifest string) {
	u.mu.Lock()
	defer u.mu.Unlock()

	name := strings.ReplaceAll(repo, "/", "-") + "-" + tag + ".pak"
	u.assets[name] = "pak " + repo + " " + tag
	u.manifests[repo+"/"+tag] = manifest
	u.releases[repo] = append(u.releases[repo], github.Release{
		TagName: tag,
		Assets: []github.Asset{{
			Name:        name,
			DownloadURL: u.srv.URL + "/download/" + name,
			UpdatedAt:   time.Date(2024, 4, day, 12, 0, 0, 0, time.UTC),
		}},
	})
}

// serveReleases handles /api/repos/<org>/<name>/releases[/tags/<tag>].
func (u *upstream) serveReleases(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/api/repos/"), "/")
	if len(parts) < 3 || parts[2] != "releases" {
		http.NotFound(w, r)
		return
	}
	repo := parts[0] + "/" + parts[1]

	u.mu.Lock()
	releases, ok := u.releases[repo]
	u.mu.Unlock()
	if !ok {
		http.NotFound(w, r)
		return
	}

	if len(parts) == 5 && parts[3] == "tags" {
		for _, rel := range releases {
			if rel.TagName == parts[4] {
				json.NewEncoder(w).Encode(rel)
				return
			}
		}
		http.NotFound(w, r)
		return
	}

	if r.URL.Query().Get("page") != "1" {
		fmt.Fprint(w, "[]")
		return
	}
	json.NewEncoder(w).Encode(releases)
}

// serveManifest handles /raw/<org>/<name>/<tag>/mod.json.
func (u *upstream) serveManifest(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/raw/"), "/"+github.ManifestFile)
	u.mu.Lock()
	body, ok := u.manifests[key]
	u.mu.Unlock()
	if !ok {
		http.NotFound(w, r)
		return
	}
	fmt.Fprint(w, body)
}

// manifest renders a mod.json with the given dependencies as url@range pairs.
func manifest(name string, deps ...string) string {
	var ds []string
	for _, d := range deps {
		url, rng, _ := strings.Cut(d, "@")
		ds = append(ds, fmt.Sprintf(`{"repo_url": %q, "version": %q}`, url, rng))
	}
	return fmt.Sprintf(`{"name": %q, "mod_type": "Shared", "tags": ["Mutator"], "dependencies": [%s]}`,
		name, strings.Join(ds, ", "))
}

// writeFile creates a file at the given path with the given content.
func writeFile(t *testing.T, path, content string) {
	t.Helper()
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("creating dir %s: %v", dir, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}

// assertFileExists fails the test if the file does not exist.
func assertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected file to exist: %s (error: %v)", path, err)
	}
}

// assertFileNotExists fails the test if the file exists.
func assertFileNotExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err == nil {
		t.Errorf("expected file NOT to exist: %s", path)
	}
}

// assertFileContains fails if the file doesn't exist or doesn't contain substr.
func assertFileContains(t *testing.T, path, substr string) {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Errorf("reading %s: %v", path, err)
		return
	}
	if !strings.Contains(string(data), substr) {
		t.Errorf("file %s does not contain %q.\nContents:\n%s", path, substr, string(data))
	}
}
