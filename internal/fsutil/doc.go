// Package fsutil provides the file operations shared by the registry's
// on-disk state: atomic whole-file replacement, line-oriented text files, and
// pruning of empty directories.
package fsutil
