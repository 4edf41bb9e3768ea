// Package mod defines the records kept by the registry: repositories,
// manifests, releases, and mods. Records are plain values that serialize to
// the JSON layout of the package database.
package mod
