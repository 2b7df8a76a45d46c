package config

import "time"

// Default values and limits for llm-fstools
const (
	// File size limits
	DefaultMaxFileSize   = 1 * 1024 * 1024  // 1MB - maximum file size for read operations
	DefaultMaxWriteSize  = 100 * 1024       // 100KB - maximum write content size
	MaxContentSearchSize = 10 * 1024 * 1024 // 10MB - larger files are matched by name only

	// Search limits
	DefaultSearchMaxDepth          = 10
	DefaultSearchMaxFiles          = 100
	DefaultSearchMaxMatchesPerFile = 10
	DefaultMaxSearchResults        = 20 // matches rendered per search command
	DefaultSearchTimeout           = 30 * time.Second
	DefaultRegexTimeout            = 1 * time.Second

	// Backup configuration
	BackupExtension = ".bak"

	// Audit configuration
	DefaultAuditLogPath = "audit.log"
	DefaultAuditDBPath  = "" // sqlite audit store disabled unless set

	// Rate limiting
	DefaultRateLimitPerMinute = 100

	// Config file lookup
	ConfigFileName = "llm-fstools.config"
	EnvPrefix      = "LLMFS"
)
