// Package registry keeps the package index, the per-repository mod records
// and the redirect table consistent with each other. It adds and removes
// repositories, adds single releases, reconciles the index against the
// declaration files of a registry directory, and validates dependencies
// across the whole database.
//
// A registry works on two directories:
//
//	<registry>/             declaration files (org/name or URL per line)
//	<registry>/redirects/   redirect files ("SOURCE -> DEST" per line)
//	<db>/mod_list_index.txt the persisted index
//	<db>/redirects.txt      the persisted redirect table
//	<db>/packages/          one <org>/<name>.json record per repository
//
// Every mutating operation accepts a dry-run flag that suppresses all writes.
package registry
