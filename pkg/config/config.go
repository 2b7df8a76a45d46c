package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/computerscienceiscool/llm-fstools/internal/logging"
	"github.com/computerscienceiscool/llm-fstools/pkg/search"
)

// Config represents the complete application configuration
type Config struct {
	Roots             []string
	ExcludedPaths     []string
	Scratch           bool
	MaxFileSize       int64
	MaxWriteSize      int64
	AllowedExtensions []string
	BackupBeforeWrite bool

	InputFile   string
	OutputFile  string
	Interactive bool
	Verbose     bool

	Search   SearchConfig
	Security SecurityConfig
	Logging  logging.Config
}

// SearchConfig holds the search.* keys
type SearchConfig struct {
	MaxDepth          int
	MaxFiles          int
	MaxMatchesPerFile int
	MaxResults        int
	ExcludeDirs       []string
	Timeout           time.Duration
	RegexTimeout      time.Duration
	Workers           int
}

// SecurityConfig holds the security.* keys
type SecurityConfig struct {
	RateLimitPerMinute int
	AuditLogPath       string
	AuditDBPath        string
}

// FromViper builds a Config from v. Defaults must already be set.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Roots:             v.GetStringSlice("roots"),
		ExcludedPaths:     v.GetStringSlice("exclude"),
		Scratch:           v.GetBool("scratch"),
		MaxFileSize:       v.GetInt64("max-size"),
		MaxWriteSize:      v.GetInt64("max-write-size"),
		AllowedExtensions: v.GetStringSlice("allowed-extensions"),
		BackupBeforeWrite: v.GetBool("backup"),
		InputFile:         v.GetString("input"),
		OutputFile:        v.GetString("output"),
		Interactive:       v.GetBool("interactive"),
		Verbose:           v.GetBool("verbose"),
		Search: SearchConfig{
			MaxDepth:          v.GetInt("search.max_depth"),
			MaxFiles:          v.GetInt("search.max_files"),
			MaxMatchesPerFile: v.GetInt("search.max_matches_per_file"),
			MaxResults:        v.GetInt("search.max_results"),
			ExcludeDirs:       v.GetStringSlice("search.exclude_dirs"),
			Timeout:           v.GetDuration("search.timeout"),
			RegexTimeout:      v.GetDuration("search.regex_timeout"),
			Workers:           v.GetInt("search.workers"),
		},
		Security: SecurityConfig{
			RateLimitPerMinute: v.GetInt("security.rate_limit_per_minute"),
			AuditLogPath:       v.GetString("security.audit_log_path"),
			AuditDBPath:        v.GetString("security.audit_db_path"),
		},
		Logging: logging.Config{
			Level:       v.GetString("logging.level"),
			Development: v.GetBool("logging.development"),
			OutputPaths: v.GetStringSlice("logging.output_paths"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects limits that would disable a tool outright
func (c *Config) Validate() error {
	switch {
	case c.MaxFileSize <= 0:
		return fmt.Errorf("max-size must be positive, got %d", c.MaxFileSize)
	case c.MaxWriteSize <= 0:
		return fmt.Errorf("max-write-size must be positive, got %d", c.MaxWriteSize)
	case c.Search.Timeout < 0 || c.Search.RegexTimeout < 0:
		return fmt.Errorf("search timeouts must not be negative")
	case c.Security.RateLimitPerMinute < 0:
		return fmt.Errorf("security.rate_limit_per_minute must not be negative")
	}
	return nil
}

// SearchOptions maps the search keys onto engine options. An empty
// exclude_dirs list keeps the engine's built-in excludes.
func (c *Config) SearchOptions() search.Options {
	opts := search.DefaultOptions()
	opts.MaxDepth = c.Search.MaxDepth
	opts.MaxFiles = c.Search.MaxFiles
	opts.MaxMatchesPerFile = c.Search.MaxMatchesPerFile
	opts.Timeout = c.Search.Timeout
	opts.RegexTimeout = c.Search.RegexTimeout
	opts.Workers = c.Search.Workers
	if len(c.Search.ExcludeDirs) > 0 {
		opts.ExcludeDirs = c.Search.ExcludeDirs
	}
	return opts
}
