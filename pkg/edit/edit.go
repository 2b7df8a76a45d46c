// Package edit applies a single textual edit to file content: a literal
// replacement, a guarded regex replacement or a set of unified diff hunks.
package edit

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/dlclark/regexp2"

	fserrors "github.com/computerscienceiscool/llm-fstools/internal/errors"
	"github.com/computerscienceiscool/llm-fstools/pkg/diff"
	"github.com/computerscienceiscool/llm-fstools/pkg/regexguard"
)

// Operation is one of Literal, Regex or DiffPatch
type Operation interface {
	isOperation()
}

// Literal replaces OldText with NewText. OldText must occur exactly once
// unless ReplaceAll is set.
type Literal struct {
	OldText    string
	NewText    string
	ReplaceAll bool
}

// Regex replaces matches of Pattern. Flags is any combination of
// i (ignore case), g (all matches), m (multiline) and s (dot matches newline).
type Regex struct {
	Pattern     string
	Replacement string
	Flags       string
}

// DiffPatch applies parsed unified diff hunks
type DiffPatch struct {
	Hunks []diff.Hunk
}

func (Literal) isOperation()   {}
func (Regex) isOperation()     {}
func (DiffPatch) isOperation() {}

type request struct {
	OldText     *string `json:"old_text"`
	NewText     *string `json:"new_text"`
	ReplaceAll  bool    `json:"replace_all"`
	Pattern     *string `json:"pattern"`
	Replacement *string `json:"replacement"`
	Flags       string  `json:"flags"`
	Diff        *string `json:"diff"`
}

// Parse decodes an edit request body. Exactly one of the literal
// (old_text/new_text), regex (pattern/replacement) or diff shapes must be
// present.
func Parse(body string) (Operation, error) {
	var req request
	if err := json.Unmarshal([]byte(strings.TrimSpace(body)), &req); err != nil {
		return nil, fmt.Errorf("%w: %v", fserrors.ErrInvalidEdit, err)
	}

	shapes := 0
	if req.OldText != nil || req.NewText != nil {
		shapes++
	}
	if req.Pattern != nil || req.Replacement != nil {
		shapes++
	}
	if req.Diff != nil {
		shapes++
	}
	if shapes != 1 {
		return nil, fmt.Errorf("%w: expected exactly one of old_text/new_text, pattern/replacement or diff", fserrors.ErrInvalidEdit)
	}

	switch {
	case req.Diff != nil:
		hunks, err := diff.Parse(*req.Diff)
		if err != nil {
			return nil, err
		}
		if len(hunks) == 0 {
			return nil, fmt.Errorf("%w: diff has no hunks", fserrors.ErrInvalidEdit)
		}
		return DiffPatch{Hunks: hunks}, nil

	case req.Pattern != nil:
		if req.Replacement == nil {
			return nil, fmt.Errorf("%w: replacement is required", fserrors.ErrInvalidEdit)
		}
		if bad := strings.Trim(req.Flags, "igms"); bad != "" {
			return nil, fmt.Errorf("%w: unknown regex flags %q", fserrors.ErrInvalidEdit, bad)
		}
		return Regex{Pattern: *req.Pattern, Replacement: *req.Replacement, Flags: req.Flags}, nil

	default:
		if req.OldText == nil || req.NewText == nil {
			return nil, fmt.Errorf("%w: old_text and new_text are both required", fserrors.ErrInvalidEdit)
		}
		if *req.OldText == "" {
			return nil, fmt.Errorf("%w: old_text is empty", fserrors.ErrInvalidEdit)
		}
		return Literal{OldText: *req.OldText, NewText: *req.NewText, ReplaceAll: req.ReplaceAll}, nil
	}
}

// Options tune Apply
type Options struct {
	// Filename labels the result diff
	Filename string
	// RegexTimeout bounds a regex replacement; zero means regexguard.DefaultTimeout
	RegexTimeout time.Duration
}

// Result of a successful edit
type Result struct {
	Content      string
	Diff         string
	Replacements int
	HunksApplied int
}

// Apply runs op against content. On error content is left untouched and
// no partial result is returned.
func Apply(content string, op Operation, opts Options) (*Result, error) {
	var (
		res *Result
		err error
	)

	switch o := op.(type) {
	case Literal:
		res, err = applyLiteral(content, o)
	case Regex:
		res, err = applyRegex(content, o, opts)
	case DiffPatch:
		applied := diff.ApplyHunks(content, o.Hunks)
		if !applied.Success {
			return nil, applied.Err
		}
		res = &Result{Content: applied.Content, HunksApplied: applied.HunksApplied}
	default:
		return nil, fmt.Errorf("%w: unsupported operation %T", fserrors.ErrInvalidEdit, op)
	}
	if err != nil {
		return nil, err
	}

	res.Diff = diff.Compute(content, res.Content, opts.Filename)
	return res, nil
}

func applyLiteral(content string, op Literal) (*Result, error) {
	oldText, newText := op.OldText, op.NewText
	if diff.DetectLineEnding(content) == diff.LineEndingCRLF {
		oldText = toCRLF(oldText)
		newText = toCRLF(newText)
	}

	n := strings.Count(content, oldText)
	switch {
	case n == 0:
		return nil, fmt.Errorf("%w: old_text not found", fserrors.ErrEditNoMatch)
	case n > 1 && !op.ReplaceAll:
		return nil, fmt.Errorf("%w: old_text occurs %d times; add context or set replace_all", fserrors.ErrEditAmbiguous, n)
	}

	if op.ReplaceAll {
		return &Result{Content: strings.ReplaceAll(content, oldText, newText), Replacements: n}, nil
	}
	return &Result{Content: strings.Replace(content, oldText, newText, 1), Replacements: 1}, nil
}

func toCRLF(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "\r\n", "\n"), "\n", "\r\n")
}

func applyRegex(content string, op Regex, opts Options) (*Result, error) {
	if v := regexguard.Validate(op.Pattern); !v.Valid {
		return nil, v.Err(op.Pattern)
	}

	var ro regexp2.RegexOptions
	if strings.ContainsRune(op.Flags, 'i') {
		ro |= regexp2.IgnoreCase
	}
	if strings.ContainsRune(op.Flags, 'm') {
		ro |= regexp2.Multiline
	}
	if strings.ContainsRune(op.Flags, 's') {
		ro |= regexp2.Singleline
	}
	re, err := regexp2.Compile(op.Pattern, ro)
	if err != nil {
		return nil, &fserrors.PatternError{Pattern: op.Pattern, Reason: regexguard.ReasonSyntax, Message: err.Error()}
	}

	timeout := opts.RegexTimeout
	if timeout <= 0 {
		timeout = regexguard.DefaultTimeout
	}
	re.MatchTimeout = timeout

	limit := 1
	if strings.ContainsRune(op.Flags, 'g') {
		limit = -1
	}

	n, err := countMatches(re, content, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", fserrors.ErrRegexTimeout, err)
	}
	if n == 0 {
		return nil, fmt.Errorf("%w: pattern %q matched nothing", fserrors.ErrEditNoMatch, op.Pattern)
	}

	out, err := regexguard.ReplaceWithTimeout(re, content, op.Replacement, limit, timeout)
	if err != nil {
		return nil, err
	}
	return &Result{Content: out, Replacements: n}, nil
}

// countMatches counts up to limit matches; a negative limit counts all
func countMatches(re *regexp2.Regexp, s string, limit int) (int, error) {
	n := 0
	m, err := re.FindStringMatch(s)
	for m != nil && err == nil {
		n++
		if limit > 0 && n >= limit {
			break
		}
		m, err = re.FindNextMatch(m)
	}
	return n, err
}
