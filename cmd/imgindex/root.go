package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"imgindex/pkg/imgindex/config"
	"imgindex/pkg/imgindex/logging"
	"imgindex/pkg/imgindex/manifest"
)

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "imgindex",
		Short: "Build and maintain CDN image index files",
		Long: `Imgindex walks CDN image trees, extracts file metadata, and emits the
JSON index documents consumed by the front-end search feature.

Examples:
  imgindex assets                      # Build the game-asset index
  imgindex assets --cdn-dir ./cdn      # Scan a specific tree
  imgindex uploads --watch             # Rebuild the user-content index on changes
  imgindex purge --cutoff 2025-01-31 -d  # Preview a purge
  imgindex history                     # List recent runs`,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return logging.Init(logging.Config{Level: viper.GetString("logging.level")})
		},
	}
)

func init() {
	cobra.OnInitialize(initConfig)

	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.config/imgindex/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("uploads-dir", "", "user-content directory holding images and sidecars")

	_ = viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("uploads_dir", rootCmd.PersistentFlags().Lookup("uploads-dir"))
}

// initConfig reads in config file and environment variables.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")

		if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
			viper.AddConfigPath(filepath.Join(xdgConfigHome, "imgindex"))
		}

		homeDir, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(homeDir, ".config", "imgindex"))
		}
	}

	viper.SetEnvPrefix("IMGINDEX")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	config.SetDefaults(viper.GetViper())

	// Read config file (ignore if not found)
	_ = viper.ReadInConfig()
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// loadConfig builds the effective configuration from the global viper,
// which already layers defaults, the config file (including --config),
// environment, and bound flags in that order of precedence.
func loadConfig() (*config.Config, error) {
	return config.FromViper(viper.GetViper())
}

// logRun appends a record to the operation manifest when enabled.
func logRun(cfg *config.Config, op manifest.OperationType, dryRun bool, summary manifest.Summary) {
	if !cfg.Manifest.Enabled {
		return
	}

	m, err := manifest.New(cfg.Manifest.Path)
	if err != nil {
		logging.Get("manifest").Warn("manifest disabled", "error", err)
		return
	}
	if _, err := m.Log(op, dryRun, summary); err != nil {
		logging.Get("manifest").Warn("could not record run", "error", err)
	}
}
