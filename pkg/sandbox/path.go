package sandbox

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"go.uber.org/zap"

	fserrors "github.com/computerscienceiscool/llm-fstools/internal/errors"
	"github.com/computerscienceiscool/llm-fstools/internal/logging"
)

// Operation is the kind of access being requested for a path
type Operation string

const (
	OpRead   Operation = "read"
	OpWrite  Operation = "write"
	OpCreate Operation = "create"
	OpDelete Operation = "delete"
)

// Denial reasons
const (
	ReasonMissingPath        = "missing_path"
	ReasonTraversal          = "traversal"
	ReasonOutsideRoots       = "outside_roots"
	ReasonParentOutsideRoots = "parent_outside_roots"
	ReasonNotFound           = "not_found"
	ReasonAlreadyExists      = "already_exists"
	ReasonExcluded           = "excluded_path"
)

// maxLinkHops bounds how many dangling symlinks are chased by hand
const maxLinkHops = 40

// ValidationResult is the outcome of Validate. ResolvedPath is the
// absolute, cleaned form of the input, also filled in on most denials.
type ValidationResult struct {
	Allowed      bool
	Reason       string
	ResolvedPath string
}

// Sandbox confines paths to a fixed set of allowed roots
type Sandbox struct {
	roots           []string
	realRoots       []string
	excluded        []string
	caseInsensitive bool
	logger          *zap.Logger
	onDeny          func(reason string)
}

// Option configures a Sandbox
type Option func(*Sandbox)

// WithExcludedPaths denies paths matching any of the doublestar patterns,
// given relative to the root. A pattern also matches every path below a
// matching directory, and patterns without a slash match basenames.
func WithExcludedPaths(patterns []string) Option {
	return func(s *Sandbox) {
		s.excluded = append([]string(nil), patterns...)
	}
}

// WithCaseInsensitive overrides the platform default for path comparison
func WithCaseInsensitive(insensitive bool) Option {
	return func(s *Sandbox) {
		s.caseInsensitive = insensitive
	}
}

// WithLogger sets the logger used for denials
func WithLogger(logger *zap.Logger) Option {
	return func(s *Sandbox) {
		s.logger = logging.OrNop(logger)
	}
}

// WithDenyHook registers a callback invoked with the reason of every denial
func WithDenyHook(hook func(reason string)) Option {
	return func(s *Sandbox) {
		s.onDeny = hook
	}
}

// New creates a sandbox over roots. With no roots the process working
// directory is the only root.
func New(roots []string, opts ...Option) (*Sandbox, error) {
	s := &Sandbox{
		caseInsensitive: runtime.GOOS == "darwin" || runtime.GOOS == "windows",
		logger:          zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if len(roots) == 0 {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to determine working directory: %w", err)
		}
		roots = []string{wd}
	}

	for _, root := range roots {
		abs, err := filepath.Abs(root)
		if err != nil {
			return nil, fmt.Errorf("invalid root %q: %w", root, err)
		}
		abs = filepath.Clean(abs)

		realPath, err := filepath.EvalSymlinks(abs)
		if err != nil {
			realPath = abs
		}

		s.roots = append(s.roots, abs)
		s.realRoots = append(s.realRoots, realPath)
	}

	return s, nil
}

// WithRoots returns a copy of the sandbox confined to different roots
func (s *Sandbox) WithRoots(roots []string) (*Sandbox, error) {
	return New(roots,
		WithExcludedPaths(s.excluded),
		WithCaseInsensitive(s.caseInsensitive),
		WithLogger(s.logger),
		WithDenyHook(s.onDeny),
	)
}

// Roots returns the allowed roots
func (s *Sandbox) Roots() []string {
	return append([]string(nil), s.roots...)
}

// Primary returns the root relative paths are resolved against
func (s *Sandbox) Primary() string {
	return s.roots[0]
}

// Resolve validates path and returns its resolved form, or a
// *errors.SecurityError describing the denial.
func (s *Sandbox) Resolve(path string, op Operation) (string, error) {
	res := s.Validate(path, op)
	if !res.Allowed {
		return "", &fserrors.SecurityError{Op: string(op), Path: path, Reason: res.Reason}
	}
	return res.ResolvedPath, nil
}

// Validate decides whether op may be performed on path. It never returns
// an error; denials are reported in the result.
func (s *Sandbox) Validate(path string, op Operation) ValidationResult {
	if strings.TrimSpace(path) == "" {
		return s.deny(path, op, ReasonMissingPath, "")
	}

	// textual pre-filter; containment below is the real check
	if strings.ContainsRune(path, 0) || hasDotDotSegment(path) {
		return s.deny(path, op, ReasonTraversal, "")
	}

	abs := path
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(s.roots[0], abs)
	}
	abs = filepath.Clean(abs)

	root, ok := s.within(abs, s.roots)
	if !ok {
		return s.deny(path, op, ReasonOutsideRoots, abs)
	}

	// CRITICAL: symlinks anywhere along the path must not lead outside
	realPath, ok := resolveExisting(abs, 0)
	if op == OpDelete && s.fold(abs) != s.fold(root) {
		// delete removes a final symlink itself, so its target is irrelevant
		realPath, ok = resolveExisting(filepath.Dir(abs), 0)
		realPath = filepath.Join(realPath, filepath.Base(abs))
	}
	if !ok {
		return s.deny(path, op, ReasonOutsideRoots, abs)
	}
	if _, inside := s.within(realPath, s.realRoots); !inside {
		return s.deny(path, op, ReasonOutsideRoots, abs)
	}

	if s.isExcluded(root, abs) {
		return s.deny(path, op, ReasonExcluded, abs)
	}

	switch op {
	case OpRead:
		if _, err := os.Stat(abs); err != nil {
			return s.deny(path, op, ReasonNotFound, abs)
		}
	case OpCreate:
		if _, err := os.Lstat(abs); err == nil {
			return s.deny(path, op, ReasonAlreadyExists, abs)
		}
	}

	if op == OpWrite || op == OpCreate || op == OpDelete {
		parent := filepath.Dir(abs)
		if _, inside := s.within(parent, s.roots); !inside {
			return s.deny(path, op, ReasonParentOutsideRoots, abs)
		}
		realParent, ok := resolveExisting(parent, 0)
		if !ok {
			return s.deny(path, op, ReasonParentOutsideRoots, abs)
		}
		if _, inside := s.within(realParent, s.realRoots); !inside {
			return s.deny(path, op, ReasonParentOutsideRoots, abs)
		}
	}

	return ValidationResult{Allowed: true, ResolvedPath: abs}
}

func (s *Sandbox) deny(path string, op Operation, reason, resolved string) ValidationResult {
	s.logger.Debug("path denied",
		zap.String("path", path),
		zap.String("op", string(op)),
		zap.String("reason", reason),
	)
	if s.onDeny != nil {
		s.onDeny(reason)
	}
	return ValidationResult{Reason: reason, ResolvedPath: resolved}
}

// within returns the first root that equals p or is a separator-bounded
// ancestor of it
func (s *Sandbox) within(p string, roots []string) (string, bool) {
	cmp := s.fold(p)
	for _, root := range roots {
		r := s.fold(root)
		if cmp == r {
			return root, true
		}
		prefix := r
		if !strings.HasSuffix(prefix, string(filepath.Separator)) {
			prefix += string(filepath.Separator)
		}
		if strings.HasPrefix(cmp, prefix) {
			return root, true
		}
	}
	return "", false
}

func (s *Sandbox) fold(p string) string {
	if s.caseInsensitive {
		return strings.ToLower(p)
	}
	return p
}

func (s *Sandbox) isExcluded(root, abs string) bool {
	if len(s.excluded) == 0 {
		return false
	}

	// within already proved abs has root as a prefix, modulo case
	if len(abs) <= len(root) {
		return false
	}
	rel := filepath.ToSlash(strings.TrimLeft(abs[len(root):], string(filepath.Separator)))

	for _, pattern := range s.excluded {
		pattern = strings.TrimSuffix(filepath.ToSlash(pattern), "/")
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
		if ok, _ := doublestar.Match(pattern+"/**", rel); ok {
			return true
		}
		if !strings.Contains(pattern, "/") {
			// the file or any ancestor directory with a matching name
			for _, part := range strings.Split(rel, "/") {
				if ok, _ := doublestar.Match(pattern, part); ok {
					return true
				}
			}
		}
	}
	return false
}

// hasDotDotSegment reports a literal ".." segment split on either separator
func hasDotDotSegment(path string) bool {
	for _, seg := range strings.FieldsFunc(path, func(r rune) bool { return r == '/' || r == '\\' }) {
		if seg == ".." {
			return true
		}
	}
	return false
}

// resolveExisting resolves symlinks in the deepest existing ancestor of p
// and re-appends the components that do not exist yet. Dangling links are
// followed by hand so a link to a missing target outside the roots is still
// caught. ok is false for link loops.
func resolveExisting(p string, hops int) (string, bool) {
	if hops > maxLinkHops {
		return "", false
	}

	var rest []string
	cur := p
	for {
		if realPath, err := filepath.EvalSymlinks(cur); err == nil {
			return joinRest(realPath, rest), true
		}

		if info, err := os.Lstat(cur); err == nil && info.Mode()&os.ModeSymlink != 0 {
			target, err := os.Readlink(cur)
			if err != nil {
				return "", false
			}
			if !filepath.IsAbs(target) {
				target = filepath.Join(filepath.Dir(cur), target)
			}
			resolved, ok := resolveExisting(filepath.Clean(target), hops+1)
			if !ok {
				return "", false
			}
			return joinRest(resolved, rest), true
		}

		parent := filepath.Dir(cur)
		if parent == cur {
			return joinRest(cur, rest), true
		}
		rest = append(rest, filepath.Base(cur))
		cur = parent
	}
}

func joinRest(base string, rest []string) string {
	parts := make([]string, 0, len(rest)+1)
	parts = append(parts, base)
	for i := len(rest) - 1; i >= 0; i-- {
		parts = append(parts, rest[i])
	}
	return filepath.Join(parts...)
}
