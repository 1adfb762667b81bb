package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"
)

// Config represents the application configuration. A single Config is built
// at startup and passed explicitly into each builder; there are no
// process-wide path globals.
type Config struct {
	// CDNDir is the root of the game-asset image tree.
	CDNDir string `mapstructure:"cdn_dir"`

	// OutputDir is where generated index documents are written.
	OutputDir string `mapstructure:"output_dir"`

	// UploadsDir is the root of the user-content tree.
	UploadsDir string `mapstructure:"uploads_dir"`

	// Exclude lists directory names skipped during scans.
	Exclude []string `mapstructure:"exclude"`

	Logging  LoggingConfig `mapstructure:"logging"`
	Manifest struct {
		Enabled bool   `mapstructure:"enabled"`
		Path    string `mapstructure:"path"`
	} `mapstructure:"manifest"`
	Watch struct {
		DebounceMillis int `mapstructure:"debounce_millis"`
	} `mapstructure:"watch"`
}

// LoggingConfig configures application logging.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

// Load loads configuration from file and environment variables.
// Config file locations (in order of precedence):
//   - $XDG_CONFIG_HOME/imgindex/config.yaml
//   - $HOME/.config/imgindex/config.yaml
//
// Environment variables are prefixed with IMGINDEX_ (e.g., IMGINDEX_CDN_DIR).
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")

	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		v.AddConfigPath(filepath.Join(xdgConfigHome, "imgindex"))
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get user home directory: %w", err)
	}
	v.AddConfigPath(filepath.Join(homeDir, ".config", "imgindex"))

	v.SetEnvPrefix("IMGINDEX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	SetDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is acceptable; we use defaults
	}

	return FromViper(v)
}

// FromViper unmarshals an already-configured viper instance into a Config
// and expands ~ in its path fields. The CLI uses this so the viper that
// owns the --config file, environment, and bound flags is the single
// source of precedence.
func FromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	for _, p := range []*string{&cfg.CDNDir, &cfg.OutputDir, &cfg.UploadsDir, &cfg.Manifest.Path} {
		expanded, err := ExpandPath(*p)
		if err != nil {
			return nil, err
		}
		*p = expanded
	}

	return &cfg, nil
}

// SetDefaults registers the documented fallback values on a viper instance.
// The CLI shares this with Load so flag-bound vipers agree on defaults.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("cdn_dir", DefaultCDNDir)
	v.SetDefault("output_dir", DefaultOutputDir)
	v.SetDefault("uploads_dir", DefaultUploadsDir)
	v.SetDefault("exclude", DefaultExclusions)
	v.SetDefault("logging.level", DefaultLogLevel)
	v.SetDefault("manifest.enabled", true)
	// Default manifest path lives under the XDG state directory.
	v.SetDefault("manifest.path", filepath.Join(xdg.StateHome, "imgindex", "manifest"))
	v.SetDefault("watch.debounce_millis", DefaultWatchDebounce)
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	if path == "~" {
		return homeDir, nil
	}
	return filepath.Join(homeDir, path[1:]), nil
}
