package index

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/zero-infra/modregistry/internal/fsutil"
	"github.com/zero-infra/modregistry/internal/mod"
)

// RedirectsDir is the registry subdirectory holding redirect declarations.
// It is never read as a package declaration source.
const RedirectsDir = "redirects"

const declExt = ".txt"

// SourceLine is one meaningful line of a declaration file.
type SourceLine struct {
	Path string
	Line int
	Text string
}

func (l SourceLine) String() string {
	return fmt.Sprintf("%s:%d", l.Path, l.Line)
}

// Discover scans every declaration file under registryDir and returns the
// declared packages as a normalized list of index entries. A line that
// cannot be read as a repository fails the scan.
func Discover(registryDir string) ([]string, error) {
	lines, err := readTree(registryDir, true)
	if err != nil {
		return nil, err
	}

	entries := make([]string, 0, len(lines))
	for _, l := range lines {
		entry, err := EntryFromLine(l.Text)
		if err != nil {
			return nil, fmt.Errorf("%s: invalid declaration %q: %w", l, l.Text, err)
		}
		entries = append(entries, entry)
	}
	return Normalize(entries), nil
}

// RedirectLines returns the meaningful lines of every file under the
// registry's redirects directory. A missing directory yields no lines.
func RedirectLines(registryDir string) ([]string, error) {
	lines, err := readTree(filepath.Join(registryDir, RedirectsDir), false)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l.Text
	}
	return out, nil
}

// FindDeclaration returns the declaration file that already lists repo, if
// any. Lines that do not parse are ignored here.
func FindDeclaration(registryDir string, repo mod.Repo) (string, bool, error) {
	lines, err := readTree(registryDir, true)
	if err != nil {
		return "", false, err
	}
	want := repo.IndexEntry()
	for _, l := range lines {
		if entry, err := EntryFromLine(l.Text); err == nil && entry == want {
			return l.Path, true, nil
		}
	}
	return "", false, nil
}

// DeclarationPath is where Declare writes a new declaration for repo.
func DeclarationPath(registryDir string, repo mod.Repo) string {
	return filepath.Join(registryDir, repo.Org, repo.Name+declExt)
}

// Declare writes <registryDir>/<org>/<name>.txt containing repo's URL unless
// some declaration file already lists repo. It returns the file that
// declares repo and whether a new file was written.
func Declare(registryDir string, repo mod.Repo) (string, bool, error) {
	existing, found, err := FindDeclaration(registryDir, repo)
	if err != nil {
		return "", false, err
	}
	if found {
		return existing, false, nil
	}

	path := DeclarationPath(registryDir, repo)
	if err := fsutil.WriteFileAtomic(path, []byte(repo.URL()+"\n")); err != nil {
		return "", false, fmt.Errorf("declaring %s: %w", repo, err)
	}
	return path, true, nil
}

// readTree collects the non-blank, non-comment lines of the regular files
// under dir in lexical order. Hidden files are skipped. When skipRedirects
// is set the top-level redirects directory is not entered.
func readTree(dir string, skipRedirects bool) ([]SourceLine, error) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil, nil
	}

	var result []SourceLine
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if skipRedirects && path == filepath.Join(dir, RedirectsDir) {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") || !d.Type().IsRegular() {
			return nil
		}

		lines, err := fsutil.ReadLines(path)
		if err != nil {
			return err
		}
		for i, line := range lines {
			line = strings.TrimSpace(line)
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			result = append(result, SourceLine{Path: path, Line: i + 1, Text: line})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", dir, err)
	}
	return result, nil
}
