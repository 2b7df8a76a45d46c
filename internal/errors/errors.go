package errors

import "fmt"

// Error kinds for the filesystem tools
var (
	ErrPathDenied      = fmt.Errorf("PATH_DENIED")
	ErrPatternInvalid  = fmt.Errorf("PATTERN_INVALID")
	ErrSearchTimeout   = fmt.Errorf("SEARCH_TIMEOUT")
	ErrRegexTimeout    = fmt.Errorf("REGEX_TIMEOUT")
	ErrDiffParse       = fmt.Errorf("DIFF_PARSE")
	ErrDiffApply       = fmt.Errorf("DIFF_APPLY")
	ErrIOTransient     = fmt.Errorf("IO_TRANSIENT")
	ErrFileNotFound    = fmt.Errorf("FILE_NOT_FOUND")
	ErrResourceLimit   = fmt.Errorf("RESOURCE_LIMIT")
	ErrExtensionDenied = fmt.Errorf("EXTENSION_DENIED")
	ErrBinaryContent   = fmt.Errorf("BINARY_CONTENT")
	ErrEditNoMatch     = fmt.Errorf("EDIT_NO_MATCH")
	ErrEditAmbiguous   = fmt.Errorf("EDIT_AMBIGUOUS")
	ErrInvalidEdit     = fmt.Errorf("INVALID_EDIT")
	ErrRateLimited     = fmt.Errorf("RATE_LIMITED")
	ErrUnknownCommand  = fmt.Errorf("UNKNOWN_COMMAND")
)

// SecurityError reports a path denied by the sandbox
type SecurityError struct {
	Op     string
	Path   string
	Reason string
}

func (e *SecurityError) Error() string {
	return fmt.Sprintf("%v: %s denied for path %q (%s)", ErrPathDenied, e.Op, e.Path, e.Reason)
}

func (e *SecurityError) Unwrap() error {
	return ErrPathDenied
}

// PatternError reports a regular expression rejected before use
type PatternError struct {
	Pattern    string
	Reason     string
	Message    string
	Suggestion string
}

func (e *PatternError) Error() string {
	msg := fmt.Sprintf("%v: %s: %s", ErrPatternInvalid, e.Reason, e.Message)
	if e.Suggestion != "" {
		msg += fmt.Sprintf(" (try %q)", e.Suggestion)
	}
	return msg
}

func (e *PatternError) Unwrap() error {
	return ErrPatternInvalid
}

// DiffError reports a failure to parse or apply a diff. Hunk is the
// zero-based index of the offending hunk and Line the one-based line of
// the diff text, when known.
type DiffError struct {
	Hunk   int
	Line   int
	Reason string
	Err    error
}

func (e *DiffError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%v: %s at hunk %d (diff line %d)", e.Err, e.Reason, e.Hunk+1, e.Line)
	}
	return fmt.Sprintf("%v: %s at hunk %d", e.Err, e.Reason, e.Hunk+1)
}

func (e *DiffError) Unwrap() error {
	return e.Err
}

// ResourceError wraps resource-related errors
type ResourceError struct {
	Resource string
	Limit    interface{}
	Actual   interface{}
	Err      error
}

func (e *ResourceError) Error() string {
	return fmt.Sprintf("resource %s exceeded limit %v (actual: %v): %v", e.Resource, e.Limit, e.Actual, e.Err)
}

func (e *ResourceError) Unwrap() error {
	return e.Err
}
