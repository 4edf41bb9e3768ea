// Package config manages user-level settings stored at ~/.modreg/config.yaml.
// It resolves the registry and package database paths, the GitHub token and
// endpoints, and the log level from flags, environment and the config file.
package config
