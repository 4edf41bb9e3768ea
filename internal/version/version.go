// Package version wraps semantic-version parsing and range checks for
// release tags and dependency ranges. Tags and ranges tolerate one leading
// "v".
package version

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// rangeOperators are the comparison operators a range clause may start
// with. Longer operators come first so ">=" is not read as ">".
var rangeOperators = []string{">=", "<=", "==", "!=", ">", "<"}

// StripV removes a single leading "v".
func StripV(s string) string {
	return strings.TrimPrefix(s, "v")
}

// ParseTag strips a leading "v" and parses the remainder as a strict
// semantic version.
func ParseTag(tag string) (*semver.Version, error) {
	v, err := semver.StrictNewVersion(StripV(tag))
	if err != nil {
		return nil, fmt.Errorf("version tag %q does not conform to the semver spec: %w", StripV(tag), err)
	}
	return v, nil
}

// ValidateRange checks that a dependency range is well formed. A caret
// prefix is read as a lower bound. Each comma-separated clause must be an
// optional comparison operator followed by a full x.y.z version.
func ValidateRange(expr string) error {
	r := StripV(strings.TrimSpace(expr))
	if strings.HasPrefix(r, "^") {
		r = ">=" + r[1:]
	}
	_, err := parseRange(r)
	return err
}

// Satisfies reports whether tag falls within the range expression. Both
// have a leading "v" stripped; comma-separated clauses must all hold.
func Satisfies(tag, expr string) (bool, error) {
	v, err := ParseTag(tag)
	if err != nil {
		return false, err
	}
	c, err := parseRange(StripV(strings.TrimSpace(expr)))
	if err != nil {
		return false, fmt.Errorf("parsing range %q: %w", expr, err)
	}
	return c.Check(v), nil
}

// parseRange normalizes every clause of expr and joins them into one
// conjunctive constraint.
func parseRange(expr string) (*semver.Constraints, error) {
	clauses := strings.Split(expr, ",")
	normalized := make([]string, 0, len(clauses))
	for _, clause := range clauses {
		n, err := normalizeClause(clause)
		if err != nil {
			return nil, err
		}
		normalized = append(normalized, n)
	}
	return semver.NewConstraint(strings.Join(normalized, ", "))
}

// normalizeClause rewrites one clause into constraint syntax. "==" becomes
// "="; a caret is kept. Disjunctions, tildes, wildcards, hyphen ranges and
// partial versions are rejected.
func normalizeClause(clause string) (string, error) {
	clause = strings.TrimSpace(clause)
	if clause == "" {
		return "", errors.New("empty range clause")
	}

	op := ""
	if strings.HasPrefix(clause, "^") {
		op = "^"
	} else {
		for _, o := range rangeOperators {
			if strings.HasPrefix(clause, o) {
				op = o
				break
			}
		}
	}

	operand := StripV(strings.TrimSpace(clause[len(op):]))
	if _, err := semver.StrictNewVersion(operand); err != nil {
		return "", fmt.Errorf("range clause %q: %w", clause, err)
	}
	if op == "==" {
		op = "="
	}
	return op + operand, nil
}
