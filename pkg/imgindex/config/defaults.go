// Package config provides configuration management for the imgindex CDN tooling.
package config

// Default configuration values for imgindex.
const (
	// DefaultCDNDir is the default root of the game-asset image tree.
	DefaultCDNDir = "cdn"

	// DefaultOutputDir is the default directory for generated index files.
	DefaultOutputDir = "cdn"

	// DefaultUploadsDir is the default root of the user-content tree,
	// holding image files and their metadata sidecars.
	DefaultUploadsDir = "cdn/user-content"

	// DefaultIndexFilename is the name of the primary index document.
	DefaultIndexFilename = "image-index.json"

	// DefaultSearchIndexFilename is the name of the path-keyed companion
	// document produced by the asset builder.
	DefaultSearchIndexFilename = "image-search-index.json"

	// DefaultLogLevel is the default logging verbosity.
	DefaultLogLevel = "info"

	// DefaultWatchDebounce is the quiet period, in milliseconds, between a
	// filesystem event and the rebuild it triggers.
	DefaultWatchDebounce = 500
)

// DefaultExclusions contains directory names skipped during scanning.
var DefaultExclusions = []string{".git", "node_modules", ".tmp"}
