// Package cli defines the Cobra command tree for the modreg CLI. Each file
// in this package registers one top-level command (add, remove, validate,
// etc.) with the root command. Command implementations delegate to
// internal/registry for business logic and only handle flag parsing, I/O
// formatting, and configuration.
package cli
