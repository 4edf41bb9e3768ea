package registry

import (
	"errors"
	"fmt"
	"strings"

	"github.com/zero-infra/modregistry/internal/mod"
)

// ErrNoReleases is reported for a repository without a single valid release.
var ErrNoReleases = errors.New("no valid releases found")

// PreconditionError reports an operation attempted on a repository the
// registry does not know about.
type PreconditionError struct {
	Repo   mod.Repo
	Reason string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("package %s %s", e.Repo, e.Reason)
}

// BatchError collects the per-repository failures of a bulk operation.
type BatchError struct {
	Op    string
	Total int
	Errs  []error
}

func (e *BatchError) Error() string {
	msgs := make([]string, len(e.Errs))
	for i, err := range e.Errs {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("%s: %d of %d repositories failed:\n\t%s",
		e.Op, len(e.Errs), e.Total, strings.Join(msgs, "\n\t"))
}

// Unwrap exposes every item failure to errors.Is and errors.As.
func (e *BatchError) Unwrap() []error {
	return e.Errs
}

func itemError(repo mod.Repo, err error) error {
	return fmt.Errorf("%s: %w", repo, err)
}
