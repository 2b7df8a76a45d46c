package config

import (
	"github.com/spf13/viper"
)

var (
	defaultExcludedPaths     = []string{".git", ".env", "*.key", "*.pem"}
	defaultAllowedExtensions = []string{".go", ".py", ".js", ".ts", ".md", ".txt", ".json", ".yaml", ".yml", ".toml"}
)

// SetDefaults sets all default configuration values on v
func SetDefaults(v *viper.Viper) {
	// Sandbox
	v.SetDefault("roots", []string{})
	v.SetDefault("exclude", defaultExcludedPaths)
	v.SetDefault("scratch", false)

	// Read / write
	v.SetDefault("max-size", DefaultMaxFileSize)
	v.SetDefault("max-write-size", DefaultMaxWriteSize)
	v.SetDefault("allowed-extensions", defaultAllowedExtensions)
	v.SetDefault("backup", true)

	// Search
	v.SetDefault("search.max_depth", DefaultSearchMaxDepth)
	v.SetDefault("search.max_files", DefaultSearchMaxFiles)
	v.SetDefault("search.max_matches_per_file", DefaultSearchMaxMatchesPerFile)
	v.SetDefault("search.max_results", DefaultMaxSearchResults)
	v.SetDefault("search.exclude_dirs", []string{})
	v.SetDefault("search.timeout", DefaultSearchTimeout)
	v.SetDefault("search.regex_timeout", DefaultRegexTimeout)
	v.SetDefault("search.workers", 0)

	// Security
	v.SetDefault("security.rate_limit_per_minute", DefaultRateLimitPerMinute)
	v.SetDefault("security.audit_log_path", DefaultAuditLogPath)
	v.SetDefault("security.audit_db_path", DefaultAuditDBPath)

	// Logging
	v.SetDefault("logging.level", "warn")
	v.SetDefault("logging.development", false)
	v.SetDefault("logging.output_paths", []string{"stderr"})
}
