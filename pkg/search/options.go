package search

import (
	"sort"
	"strings"
	"time"
)

const (
	DefaultMaxDepth          = 10
	DefaultMaxFiles          = 100
	DefaultMaxMatchesPerFile = 10
	DefaultTimeout           = 30 * time.Second
	DefaultRegexTimeout      = time.Second

	// MaxContentSearchSize is the largest file whose content is searched.
	// Bigger files can still match by name.
	MaxContentSearchSize = 10 * 1024 * 1024
)

// Options controls a single search
type Options struct {
	CaseSensitive bool
	WholeWord     bool

	// MaxDepth bounds how many directory levels below the root are entered.
	// 0 searches the root level only; a negative value means DefaultMaxDepth.
	MaxDepth          int
	MaxFiles          int
	MaxMatchesPerFile int
	Recursive         bool

	// ExcludeDirs are directory basenames skipped wholesale. nil means
	// DefaultExcludeDirs.
	ExcludeDirs []string

	// Extensions, when set, restricts the search to these extensions.
	// ExcludeExtensions removes extensions. Both accept ".go" or "go".
	Extensions        []string
	ExcludeExtensions []string

	// PathGlob is a doublestar pattern a file's root-relative path must
	// match, e.g. "src/**/*.ts"
	PathGlob string

	Timeout      time.Duration
	RegexTimeout time.Duration

	// Workers above 1 selects parallel traversal
	Workers int
}

// DefaultOptions returns a recursive, case-insensitive search with the
// default limits
func DefaultOptions() Options {
	return Options{
		MaxDepth:          DefaultMaxDepth,
		MaxFiles:          DefaultMaxFiles,
		MaxMatchesPerFile: DefaultMaxMatchesPerFile,
		Recursive:         true,
		Timeout:           DefaultTimeout,
		RegexTimeout:      DefaultRegexTimeout,
	}
}

// normalized fills unset limits with defaults
func (o Options) normalized() Options {
	if o.MaxDepth < 0 {
		o.MaxDepth = DefaultMaxDepth
	}
	if o.MaxFiles <= 0 {
		o.MaxFiles = DefaultMaxFiles
	}
	if o.MaxMatchesPerFile <= 0 {
		o.MaxMatchesPerFile = DefaultMaxMatchesPerFile
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.RegexTimeout <= 0 {
		o.RegexTimeout = DefaultRegexTimeout
	}
	if o.ExcludeDirs == nil {
		o.ExcludeDirs = DefaultExcludeDirs()
	}
	return o
}

// ExcludeReason explains why a directory was skipped
type ExcludeReason string

const (
	ExcludeSecurity      ExcludeReason = "security"
	ExcludePerformance   ExcludeReason = "performance"
	ExcludeUserDefault   ExcludeReason = "user_default"
	ExcludeUserSpecified ExcludeReason = "user_specified"
)

var builtinExcludes = map[string]ExcludeReason{
	".git": ExcludeSecurity,
	".svn": ExcludeSecurity,
	".hg":  ExcludeSecurity,
	".bzr": ExcludeSecurity,

	"node_modules": ExcludePerformance,
	"dist":         ExcludePerformance,
	"build":        ExcludePerformance,
	"target":       ExcludePerformance,
	".cache":       ExcludePerformance,
	"__pycache__":  ExcludePerformance,
	".next":        ExcludePerformance,
	"coverage":     ExcludePerformance,

	".vscode": ExcludeUserDefault,
	".idea":   ExcludeUserDefault,
	"tmp":     ExcludeUserDefault,
	"logs":    ExcludeUserDefault,
	".venv":   ExcludeUserDefault,
	"venv":    ExcludeUserDefault,
}

var excludeNotes = map[ExcludeReason]string{
	ExcludeSecurity:    "version control metadata",
	ExcludePerformance: "dependency or build output",
	ExcludeUserDefault: "editor or environment directory",
}

// DefaultExcludeDirs returns the built-in exclusion list, sorted
func DefaultExcludeDirs() []string {
	dirs := make([]string, 0, len(builtinExcludes))
	for name := range builtinExcludes {
		dirs = append(dirs, name)
	}
	sort.Strings(dirs)
	return dirs
}

// ClassifyExclude returns the reason a directory name is excluded
func ClassifyExclude(name string) ExcludeReason {
	if reason, ok := builtinExcludes[name]; ok {
		return reason
	}
	return ExcludeUserSpecified
}

// normalizeExtensions lowercases and dot-prefixes every entry
func normalizeExtensions(exts []string) map[string]bool {
	if len(exts) == 0 {
		return nil
	}
	set := make(map[string]bool, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		set[ext] = true
	}
	return set
}
