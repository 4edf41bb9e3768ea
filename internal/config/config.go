package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/spf13/viper"

	"github.com/zero-infra/modregistry/internal/branding"
	"github.com/zero-infra/modregistry/internal/github"
	"github.com/zero-infra/modregistry/internal/logging"
)

const (
	fileName = "config"
	fileType = "yaml"
)

// Configuration keys.
const (
	KeyRegistryPath  = "registry_path"
	KeyPackageDBPath = "package_db_path"
	KeyGitHubToken   = "github_token"
	KeyLogLevel      = "log_level"
	KeyGitHubAPIURL  = "github_api_url"
	KeyGitHubRawURL  = "github_raw_url"
)

// Defaults for the path keys.
const (
	DefaultRegistryPath  = "./registry"
	DefaultPackageDBPath = "./package_db"
)

// Keys lists every recognised configuration key.
var Keys = []string{
	KeyRegistryPath,
	KeyPackageDBPath,
	KeyGitHubToken,
	KeyLogLevel,
	KeyGitHubAPIURL,
	KeyGitHubRawURL,
}

// Unprefixed environment variables honoured as fallbacks, for compatibility
// with existing CI setups.
var fallbackEnv = map[string]string{
	KeyRegistryPath:  "REGISTRY_PATH",
	KeyPackageDBPath: "PACKAGE_DB_PATH",
	KeyGitHubToken:   "GITHUB_TOKEN",
	KeyLogLevel:      "LOG_LEVEL",
}

// Settings are the resolved configuration values.
type Settings struct {
	RegistryPath  string
	PackageDBPath string
	GitHubToken   string
	LogLevel      string
	GitHubAPIURL  string
	GitHubRawURL  string
}

// Dir returns the path to the config directory (~/.modreg/).
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", branding.HomeDir())
	}
	return filepath.Join(home, branding.HomeDir())
}

// FilePath returns the full path to the config file (~/.modreg/config.yaml).
func FilePath() string {
	return filepath.Join(Dir(), fileName+"."+fileType)
}

// EnsureDir creates the config directory if it does not exist.
func EnsureDir() error {
	dir := Dir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}
	return nil
}

// Load initializes Viper to read from the config file and environment.
// Precedence is flags, then MODREG_* variables, then the unprefixed
// fallbacks, then the config file, then defaults.
func Load() {
	viper.SetConfigFile(FilePath())
	viper.SetConfigType(fileType)
	viper.SetEnvPrefix(branding.EnvPrefix())
	viper.AutomaticEnv()

	viper.SetDefault(KeyRegistryPath, DefaultRegistryPath)
	viper.SetDefault(KeyPackageDBPath, DefaultPackageDBPath)
	viper.SetDefault(KeyLogLevel, logging.DefaultLevel)
	viper.SetDefault(KeyGitHubAPIURL, github.DefaultAPIBase)
	viper.SetDefault(KeyGitHubRawURL, github.DefaultRawBase)

	for key, env := range fallbackEnv {
		_ = viper.BindEnv(key, branding.EnvVar(key), env)
	}

	// Ignore error if config file doesn't exist yet.
	_ = viper.ReadInConfig()
}

// Get returns a config value by key. Returns empty string if not set.
func Get(key string) string {
	return viper.GetString(key)
}

// IsKnown reports whether key is a recognised configuration key.
func IsKnown(key string) bool {
	return slices.Contains(Keys, key)
}

// Set writes a config key-value pair and saves the config file.
func Set(key, value string) error {
	if !IsKnown(key) {
		return fmt.Errorf("unknown config key %q", key)
	}
	if err := EnsureDir(); err != nil {
		return err
	}

	viper.Set(key, value)

	configFile := FilePath()

	// Create the file if it doesn't exist.
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		f, err := os.Create(configFile)
		if err != nil {
			return fmt.Errorf("creating config file %s: %w", configFile, err)
		}
		f.Close()
	}

	if err := viper.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// Current returns the resolved settings.
func Current() Settings {
	return Settings{
		RegistryPath:  Get(KeyRegistryPath),
		PackageDBPath: Get(KeyPackageDBPath),
		GitHubToken:   Get(KeyGitHubToken),
		LogLevel:      Get(KeyLogLevel),
		GitHubAPIURL:  Get(KeyGitHubAPIURL),
		GitHubRawURL:  Get(KeyGitHubRawURL),
	}
}
