// Package search finds files under a root by name and/or content.
//
// Traversal is depth-first over an explicit stack, visiting entries in the
// order the OS returns them, and stops early once MaxFiles matches have
// been collected. Patterns go through regexguard before any file is
// touched. Symlinks are never followed.
package search

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/dlclark/regexp2"
	"go.uber.org/zap"

	fserrors "github.com/computerscienceiscool/llm-fstools/internal/errors"
	"github.com/computerscienceiscool/llm-fstools/internal/logging"
	"github.com/computerscienceiscool/llm-fstools/internal/metrics"
	"github.com/computerscienceiscool/llm-fstools/pkg/regexguard"
)

// Status tells whether a search ran to completion
type Status string

const (
	StatusComplete Status = "complete"
	StatusTimedOut Status = "timed_out"
)

// LineMatch is one matching line of a file
type LineMatch struct {
	Content string
	LineNo  int
}

// Match is a file that satisfied the search. FilePath is relative to the
// search root with forward slashes.
type Match struct {
	FilePath           string
	FileSizeBytes      int64
	FilenameMatchCount int
	ContentMatchCount  int
	LastModified       time.Time
	Preview            string
	MatchedStrings     []string
	LineMatches        []LineMatch
}

// ExcludedDir records one excluded directory met during a search
type ExcludedDir struct {
	Path   string
	Reason ExcludeReason
	Note   string
}

// Result is the outcome of a search
type Result struct {
	Matches             []Match
	FilesScanned        int
	BinarySkipped       int
	DirectoriesSkipped  int
	EncounteredExcludes []ExcludedDir
	RegexTimeouts       int
	Status              Status
}

type mode int

const (
	modeFileName mode = iota
	modeContent
	modeBoth
)

// Engine runs searches
type Engine struct {
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// EngineOption configures an Engine
type EngineOption func(*Engine)

// WithLogger sets the engine logger
func WithLogger(logger *zap.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = logging.OrNop(logger)
	}
}

// WithMetrics reports scanned files and timeouts to m
func WithMetrics(m *metrics.Metrics) EngineOption {
	return func(e *Engine) {
		e.metrics = m
	}
}

// NewEngine creates a search engine
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SearchByFileName matches pattern against file basenames
func (e *Engine) SearchByFileName(ctx context.Context, root, pattern string, opts Options) (*Result, error) {
	return e.run(ctx, root, pattern, "", modeFileName, opts)
}

// SearchByContent matches pattern against file contents line by line
func (e *Engine) SearchByContent(ctx context.Context, root, pattern string, opts Options) (*Result, error) {
	return e.run(ctx, root, "", pattern, modeContent, opts)
}

// SearchBoth includes a file when either pattern matches. Either pattern
// may be empty, but not both.
func (e *Engine) SearchBoth(ctx context.Context, root, filePattern, contentPattern string, opts Options) (*Result, error) {
	switch {
	case filePattern == "" && contentPattern == "":
		return nil, regexguard.Validate("").Err("")
	case contentPattern == "":
		return e.run(ctx, root, filePattern, "", modeFileName, opts)
	case filePattern == "":
		return e.run(ctx, root, "", contentPattern, modeContent, opts)
	}
	return e.run(ctx, root, filePattern, contentPattern, modeBoth, opts)
}

func (e *Engine) run(ctx context.Context, root, filePattern, contentPattern string, m mode, opts Options) (*Result, error) {
	opts = opts.normalized()

	w := &walker{
		logger:   e.logger,
		root:     filepath.Clean(root),
		opts:     opts,
		mode:     m,
		exclude:  make(map[string]bool, len(opts.ExcludeDirs)),
		include:  normalizeExtensions(opts.Extensions),
		skipExts: normalizeExtensions(opts.ExcludeExtensions),
		col:      newCollector(opts.MaxFiles),
	}
	for _, dir := range opts.ExcludeDirs {
		w.exclude[dir] = true
	}

	var err error
	if m != modeContent {
		if w.fileRe, err = compile(filePattern, opts); err != nil {
			return nil, err
		}
	}
	if m != modeFileName {
		if w.contentRe, err = compile(contentPattern, opts); err != nil {
			return nil, err
		}
	}
	if opts.PathGlob != "" && !doublestar.ValidatePattern(opts.PathGlob) {
		return nil, fmt.Errorf("%w: bad path glob %q", fserrors.ErrPatternInvalid, opts.PathGlob)
	}

	info, err := os.Stat(w.root)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", fserrors.ErrFileNotFound, root)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("search root is not a directory: %s", root)
	}

	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	start := time.Now()
	done := make(chan bool, 1)
	go func() {
		if opts.Workers > 1 {
			done <- w.walkParallel(ctx)
		} else {
			done <- w.walk(ctx)
		}
	}()

	finished := false
	select {
	case finished = <-done:
	case <-ctx.Done():
		// the walker may have finished at the same instant
		select {
		case finished = <-done:
		default:
		}
	}

	res := w.col.snapshot()
	res.Status = StatusComplete
	if !finished {
		res.Status = StatusTimedOut
	}

	e.metrics.RecordSearch(res.FilesScanned, !finished)
	e.logger.Debug("search finished",
		zap.String("root", w.root),
		zap.String("status", string(res.Status)),
		zap.Int("matches", len(res.Matches)),
		zap.Int("files_scanned", res.FilesScanned),
		zap.Duration("elapsed", time.Since(start)),
	)

	// a cancelled caller gets its error; an expired search timeout is a status
	if errors.Is(ctx.Err(), context.Canceled) && !finished {
		return res, ctx.Err()
	}
	return res, nil
}

func compile(pattern string, opts Options) (*regexp2.Regexp, error) {
	re, err := regexguard.Compile(pattern, opts.CaseSensitive, opts.WholeWord)
	if err != nil {
		return nil, err
	}
	re.MatchTimeout = opts.RegexTimeout
	return re, nil
}

// collector accumulates results. The walker and the caller reading a
// snapshot on timeout share it, as do workers in parallel mode.
type collector struct {
	mu       sync.Mutex
	maxFiles int
	res      Result
	seen     map[string]bool
}

func newCollector(maxFiles int) *collector {
	return &collector{maxFiles: maxFiles, seen: make(map[string]bool)}
}

func (c *collector) full() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.res.Matches) >= c.maxFiles
}

// add appends m unless the cap was reached in the meantime
func (c *collector) add(m Match) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.res.Matches) >= c.maxFiles {
		return false
	}
	c.res.Matches = append(c.res.Matches, m)
	return true
}

func (c *collector) update(fn func(r *Result)) {
	c.mu.Lock()
	fn(&c.res)
	c.mu.Unlock()
}

func (c *collector) recordExclude(rel, name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.res.DirectoriesSkipped++
	if c.seen[rel] {
		return
	}
	c.seen[rel] = true
	reason := ClassifyExclude(name)
	c.res.EncounteredExcludes = append(c.res.EncounteredExcludes, ExcludedDir{
		Path:   rel,
		Reason: reason,
		Note:   excludeNotes[reason],
	})
}

func (c *collector) snapshot() *Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	res := c.res
	res.Matches = append([]Match(nil), c.res.Matches...)
	res.EncounteredExcludes = append([]ExcludedDir(nil), c.res.EncounteredExcludes...)
	return &res
}

type walker struct {
	logger    *zap.Logger
	root      string
	opts      Options
	mode      mode
	fileRe    *regexp2.Regexp
	contentRe *regexp2.Regexp
	exclude   map[string]bool
	include   map[string]bool
	skipExts  map[string]bool
	col       *collector
}

type frame struct {
	dir     string
	rel     string
	depth   int
	entries []os.DirEntry
	next    int
}

// walk visits the tree sequentially. It returns false when stopped by the
// context.
func (w *walker) walk(ctx context.Context) bool {
	entries, err := readDirUnsorted(w.root)
	if err != nil {
		w.logger.Debug("cannot read search root", zap.String("dir", w.root), zap.Error(err))
		return true
	}
	stack := []*frame{{dir: w.root, entries: entries}}

	for len(stack) > 0 {
		if ctx.Err() != nil {
			return false
		}
		if w.col.full() {
			return true
		}

		top := stack[len(stack)-1]
		if top.next >= len(top.entries) {
			stack = stack[:len(stack)-1]
			continue
		}
		entry := top.entries[top.next]
		top.next++

		name := entry.Name()
		full := filepath.Join(top.dir, name)
		rel := name
		if top.rel != "" {
			rel = top.rel + "/" + name
		}

		switch {
		case entry.Type()&os.ModeSymlink != 0:
			continue
		case entry.IsDir():
			if !w.descend(rel, name, top.depth+1) {
				continue
			}
			children, err := readDirUnsorted(full)
			if err != nil {
				w.logger.Debug("skipping unreadable directory", zap.String("dir", full), zap.Error(err))
				continue
			}
			stack = append(stack, &frame{dir: full, rel: rel, depth: top.depth + 1, entries: children})
		case entry.Type().IsRegular():
			w.visitFile(ctx, full, rel, entry)
		}
	}

	return true
}

// descend decides whether to enter the directory rel at depth and records
// why when it does not
func (w *walker) descend(rel, name string, depth int) bool {
	if w.exclude[name] {
		w.col.recordExclude(rel, name)
		return false
	}
	if !w.opts.Recursive || depth > w.opts.MaxDepth {
		w.col.update(func(r *Result) { r.DirectoriesSkipped++ })
		return false
	}
	return !w.col.full()
}

// readDirUnsorted lists a directory in the order the OS returns entries
func readDirUnsorted(dir string) ([]os.DirEntry, error) {
	f, err := os.Open(dir)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return f.ReadDir(-1)
}

func (w *walker) visitFile(ctx context.Context, full, rel string, entry os.DirEntry) {
	w.col.update(func(r *Result) { r.FilesScanned++ })

	name := entry.Name()
	ext := strings.ToLower(filepath.Ext(name))
	if w.include != nil && !w.include[ext] {
		return
	}
	if w.skipExts[ext] {
		return
	}
	if w.opts.PathGlob != "" {
		if ok, _ := doublestar.Match(w.opts.PathGlob, rel); !ok {
			return
		}
	}

	info, err := entry.Info()
	if err != nil {
		w.logger.Debug("skipping file", zap.String("path", full), zap.Error(err))
		return
	}

	binary := isBinaryPath(rel, ext)
	if binary {
		w.col.update(func(r *Result) { r.BinarySkipped++ })
	}

	nameMatches := 0
	if w.fileRe != nil {
		res := regexguard.ExecuteWithTimeout(w.fileRe, name, w.opts.RegexTimeout)
		switch {
		case res.TimedOut:
			w.col.update(func(r *Result) { r.RegexTimeouts++ })
		case res.Matched:
			nameMatches = 1
		}
	}

	var content contentScan
	if w.contentRe != nil && !binary && info.Size() <= MaxContentSearchSize {
		content = w.scanContent(ctx, full)
		if content.binary || content.timeouts > 0 {
			w.col.update(func(r *Result) {
				if content.binary {
					r.BinarySkipped++
				}
				r.RegexTimeouts += content.timeouts
			})
		}
	}

	var include bool
	switch w.mode {
	case modeFileName:
		include = nameMatches > 0
	case modeContent:
		include = content.count > 0
	case modeBoth:
		include = nameMatches > 0 || content.count > 0
	}
	if !include {
		return
	}

	w.col.add(Match{
		FilePath:           rel,
		FileSizeBytes:      info.Size(),
		FilenameMatchCount: nameMatches,
		ContentMatchCount:  content.count,
		LastModified:       info.ModTime(),
		Preview:            content.preview,
		MatchedStrings:     content.matched,
		LineMatches:        content.lines,
	})
}
