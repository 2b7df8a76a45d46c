// Package regexguard validates user-supplied regular expressions and runs
// them with a bounded wait.
//
// Patterns are compiled with regexp2, a backtracking engine, so shape checks
// reject the classic catastrophic forms up front. The checks are a
// heuristic. The real backstop is the timeout: ExecuteWithTimeout stops
// waiting after the deadline, and every compiled pattern also carries a
// regexp2 MatchTimeout that makes the engine itself give up. A goroutine
// abandoned by ExecuteWithTimeout may keep running until that MatchTimeout
// fires.
package regexguard

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/dlclark/regexp2"

	fserrors "github.com/computerscienceiscool/llm-fstools/internal/errors"
)

const (
	MaxPatternLength = 1000
	MaxQuantifiers   = 5
	DefaultTimeout   = time.Second
)

// Rejection reasons
const (
	ReasonTooLong = "too_long"
	ReasonEmpty   = "empty"
	ReasonSyntax  = "syntax"
	ReasonReDoS   = "redos_risk"
)

var (
	// a group holding an unescaped + or * that is itself quantified: (a+)+
	nestedQuantifier = regexp.MustCompile(`\((?:[^()\\]|\\.)*[+*](?:[^()\\]|\\.)*\)[+*]`)
	// unescaped .* or .+
	unboundedWildcard = regexp.MustCompile(`(?:^|[^\\])\.[*+]`)
)

// ValidationResult describes whether a pattern is safe to run
type ValidationResult struct {
	Valid      bool
	Reason     string
	Message    string
	Suggestion string
}

// Err converts a failed validation into a *errors.PatternError
func (r ValidationResult) Err(pattern string) error {
	if r.Valid {
		return nil
	}
	return &fserrors.PatternError{
		Pattern:    pattern,
		Reason:     r.Reason,
		Message:    r.Message,
		Suggestion: r.Suggestion,
	}
}

// Validate checks length, emptiness, syntax and ReDoS shape, in that order
func Validate(pattern string) ValidationResult {
	if len(pattern) > MaxPatternLength {
		return ValidationResult{
			Reason:  ReasonTooLong,
			Message: fmt.Sprintf("pattern is %d characters, max %d", len(pattern), MaxPatternLength),
		}
	}

	if strings.TrimSpace(pattern) == "" {
		return ValidationResult{Reason: ReasonEmpty, Message: "pattern is empty"}
	}

	if _, err := regexp2.Compile(pattern, regexp2.None); err != nil {
		return ValidationResult{Reason: ReasonSyntax, Message: err.Error()}
	}

	if loc := nestedQuantifier.FindStringIndex(pattern); loc != nil {
		return ValidationResult{
			Reason:     ReasonReDoS,
			Message:    "nested quantifiers can cause catastrophic backtracking",
			Suggestion: safeSuggestion(pattern[:loc[1]-1] + pattern[loc[1]:]),
		}
	}

	if len(unboundedWildcard.FindAllStringIndex(pattern, -1)) > 1 {
		return ValidationResult{
			Reason:     ReasonReDoS,
			Message:    "multiple unbounded wildcards",
			Suggestion: safeSuggestion(trimWildcards(pattern)),
		}
	}

	if n := countQuantifiers(pattern); n > MaxQuantifiers {
		return ValidationResult{
			Reason:  ReasonReDoS,
			Message: fmt.Sprintf("pattern has %d quantifiers, max %d", n, MaxQuantifiers),
		}
	}

	return ValidationResult{Valid: true}
}

// safeSuggestion returns candidate only if it passes validation itself
func safeSuggestion(candidate string) string {
	if candidate == "" || !Validate(candidate).Valid {
		return ""
	}
	return candidate
}

// trimWildcards drops leading and trailing wildcards, which add nothing to
// an unanchored search, and bounds the ones left in the middle.
func trimWildcards(pattern string) string {
	p := pattern
	for _, w := range []string{".*", ".+"} {
		p = strings.TrimPrefix(p, w)
		if strings.HasSuffix(p, w) && !strings.HasSuffix(p, `\`+w) {
			p = strings.TrimSuffix(p, w)
		}
	}
	if len(unboundedWildcard.FindAllStringIndex(p, -1)) > 1 {
		p = strings.ReplaceAll(p, ".*", ".{0,100}")
	}
	return p
}

// countQuantifiers counts quantifier tokens outside character classes.
// Lazy and possessive modifiers following another quantifier are not
// counted on their own.
func countQuantifiers(pattern string) int {
	count := 0
	inClass := false
	afterQuantifier := false

	for i := 0; i < len(pattern); i++ {
		c := pattern[i]

		if c == '\\' {
			i++
			afterQuantifier = false
			continue
		}
		if inClass {
			if c == ']' {
				inClass = false
			}
			continue
		}

		switch c {
		case '[':
			inClass = true
			afterQuantifier = false
		case '*', '+':
			if !afterQuantifier {
				count++
			}
			afterQuantifier = true
		case '?':
			if i > 0 && pattern[i-1] == '(' {
				afterQuantifier = false
				continue
			}
			if !afterQuantifier {
				count++
			}
			afterQuantifier = true
		case '{':
			end := strings.IndexByte(pattern[i:], '}')
			if end > 1 && isRepetition(pattern[i+1:i+end]) {
				count++
				i += end
				afterQuantifier = true
				continue
			}
			afterQuantifier = false
		default:
			afterQuantifier = false
		}
	}

	return count
}

// isRepetition reports whether body is the inside of {n}, {n,} or {n,m}
func isRepetition(body string) bool {
	if body == "" {
		return false
	}
	for i, part := range strings.SplitN(body, ",", 2) {
		if part == "" && i == 1 {
			continue
		}
		if part == "" {
			return false
		}
		for _, r := range part {
			if r < '0' || r > '9' {
				return false
			}
		}
	}
	return true
}

// CreateSearchRegex compiles pattern for searching. wholeWord wraps it in
// word boundaries and the match timeout is set to DefaultTimeout.
func CreateSearchRegex(pattern string, caseSensitive, wholeWord bool) (*regexp2.Regexp, error) {
	expr := pattern
	if wholeWord {
		expr = `\b(?:` + pattern + `)\b`
	}

	opts := regexp2.None
	if !caseSensitive {
		opts |= regexp2.IgnoreCase
	}

	re, err := regexp2.Compile(expr, opts)
	if err != nil {
		return nil, &fserrors.PatternError{Pattern: pattern, Reason: ReasonSyntax, Message: err.Error()}
	}
	re.MatchTimeout = DefaultTimeout
	return re, nil
}

// Compile validates pattern and then compiles it for searching
func Compile(pattern string, caseSensitive, wholeWord bool) (*regexp2.Regexp, error) {
	if res := Validate(pattern); !res.Valid {
		return nil, res.Err(pattern)
	}
	return CreateSearchRegex(pattern, caseSensitive, wholeWord)
}

// ExecResult is the outcome of a bounded match
type ExecResult struct {
	Matched  bool
	TimedOut bool
}

// ExecuteWithTimeout reports whether re matches text, giving up after
// timeout. A regexp2 MatchTimeout error also counts as timed out.
func ExecuteWithTimeout(re *regexp2.Regexp, text string, timeout time.Duration) ExecResult {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	done := make(chan ExecResult, 1)
	go func() {
		ok, err := re.MatchString(text)
		if err != nil {
			done <- ExecResult{TimedOut: true}
			return
		}
		done <- ExecResult{Matched: ok}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case res := <-done:
		return res
	case <-timer.C:
		return ExecResult{TimedOut: true}
	}
}

// ReplaceWithTimeout runs re.Replace under the same bound as
// ExecuteWithTimeout. count of -1 replaces every match.
func ReplaceWithTimeout(re *regexp2.Regexp, input, replacement string, count int, timeout time.Duration) (string, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	type replaceResult struct {
		out string
		err error
	}
	done := make(chan replaceResult, 1)
	go func() {
		out, err := re.Replace(input, replacement, -1, count)
		done <- replaceResult{out: out, err: err}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case res := <-done:
		if res.err != nil {
			return input, fmt.Errorf("%w: %v", fserrors.ErrRegexTimeout, res.err)
		}
		return res.out, nil
	case <-timer.C:
		return input, fmt.Errorf("%w: replace exceeded %v", fserrors.ErrRegexTimeout, timeout)
	}
}
