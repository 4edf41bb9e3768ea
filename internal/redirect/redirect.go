// Package redirect resolves repository URLs through a table of recorded
// renames. A redirect file holds one "SOURCE -> DEST" pair per line, and
// destinations may themselves be redirected.
package redirect

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/zero-infra/modregistry/internal/fsutil"
)

// Separator splits the source and destination of a redirect line.
const Separator = "->"

// ErrCycle is returned when resolution revisits a URL.
var ErrCycle = errors.New("redirect cycle")

// Resolver maps a repository URL to its final location.
type Resolver interface {
	Resolve(url string) (string, error)
}

// Table is a parsed set of redirects. The zero value is an empty table.
type Table struct {
	redirects map[string]string
	order     []string // sources in first-seen order
}

// Parse builds a table from redirect lines. Blank lines, "#" comments and
// lines without the separator are skipped. A repeated source keeps its
// original position but takes the later destination.
func Parse(lines []string) *Table {
	t := &Table{redirects: make(map[string]string)}
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		src, dst, ok := strings.Cut(line, Separator)
		if !ok {
			continue
		}
		src, dst = strings.TrimSpace(src), strings.TrimSpace(dst)
		if src == "" || dst == "" {
			continue
		}
		if _, seen := t.redirects[src]; !seen {
			t.order = append(t.order, src)
		}
		t.redirects[src] = dst
	}
	return t
}

// LoadFile parses the redirect file at path. A missing file yields an empty
// table.
func LoadFile(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Parse(nil), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading redirects %s: %w", path, err)
	}
	return Parse(strings.Split(string(data), "\n")), nil
}

// Resolve follows url through the table until it reaches a URL with no
// redirect. Unmapped URLs are returned unchanged.
func (t *Table) Resolve(url string) (string, error) {
	visited := map[string]bool{url: true}
	chain := []string{url}
	current := url
	for {
		next, ok := t.redirects[current]
		if !ok {
			return current, nil
		}
		chain = append(chain, next)
		if visited[next] {
			return "", fmt.Errorf("%w: %s", ErrCycle, strings.Join(chain, " -> "))
		}
		visited[next] = true
		current = next
	}
}

// Len returns the number of redirects.
func (t *Table) Len() int {
	return len(t.redirects)
}

// Lines renders the table in its file form, in first-seen source order.
func (t *Table) Lines() []string {
	lines := make([]string, 0, len(t.order))
	for _, src := range t.order {
		lines = append(lines, src+" "+Separator+" "+t.redirects[src])
	}
	return lines
}

// WriteFile replaces the redirect file at path with the table's lines.
func (t *Table) WriteFile(path string) error {
	if err := fsutil.WriteLines(path, t.Lines()); err != nil {
		return fmt.Errorf("writing redirects: %w", err)
	}
	return nil
}
