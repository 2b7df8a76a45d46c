package diff

import (
	"regexp"
	"strconv"
	"strings"

	fserrors "github.com/computerscienceiscool/llm-fstools/internal/errors"
)

// Failure reasons carried by *errors.DiffError
const (
	ReasonMalformedHeader = "malformed_hunk_header"
	ReasonMalformedLine   = "malformed_hunk_line"
	ReasonTruncated       = "truncated_hunk"
	ReasonApplyFailed     = "apply_failed"
)

var hunkHeader = regexp.MustCompile(`^@@ -(\d+)(?:,(\d+))? \+(\d+)(?:,(\d+))? @@`)

// ApplyResult is the outcome of applying a diff. On failure Content is the
// untouched original and HunksApplied counts the hunks that applied
// cleanly before the failing one.
type ApplyResult struct {
	Content      string
	Success      bool
	HunksApplied int
	Err          error
}

// Apply parses diffText and applies every hunk to original. Either all
// hunks apply or the original is returned unchanged.
func Apply(original, diffText string) ApplyResult {
	hunks, parseErr := Parse(diffText)

	res := ApplyHunks(original, hunks)
	if parseErr != nil && res.Err == nil {
		return ApplyResult{
			Content:      original,
			HunksApplied: res.HunksApplied,
			Err:          parseErr,
		}
	}
	return res
}

// ApplyHunks applies already parsed hunks in order
func ApplyHunks(original string, hunks []Hunk) ApplyResult {
	lines := strings.Split(original, "\n")
	offset := 0

	for i, h := range hunks {
		next, delta, ok := applyHunk(lines, h, offset)
		if !ok {
			return ApplyResult{
				Content:      original,
				HunksApplied: i,
				Err:          &fserrors.DiffError{Hunk: i, Reason: ReasonApplyFailed, Err: fserrors.ErrDiffApply},
			}
		}
		lines = next
		offset += delta
	}

	return ApplyResult{
		Content:      strings.Join(lines, "\n"),
		Success:      true,
		HunksApplied: len(hunks),
	}
}

// applyHunk splices one hunk into lines after checking that every context
// and removed line is where the header says it is. A zero-length old side
// inserts after line OldStart.
func applyHunk(lines []string, h Hunk, offset int) ([]string, int, bool) {
	pos := h.OldStart - 1 + offset
	if h.OldLength == 0 {
		pos = h.OldStart + offset
	}

	old := h.oldLines()
	if pos < 0 || pos+len(old) > len(lines) {
		return nil, 0, false
	}
	for k, want := range old {
		if lines[pos+k] != want {
			return nil, 0, false
		}
	}

	repl := h.newLines()
	out := make([]string, 0, len(lines)-len(old)+len(repl))
	out = append(out, lines[:pos]...)
	out = append(out, repl...)
	out = append(out, lines[pos+len(old):]...)

	return out, len(repl) - len(old), true
}

// Parse reads the hunks of a unified diff. Lines before the first hunk
// header (file headers, git metadata) are ignored. Hunk bodies are read by
// the counts in their header; an empty body line is an empty context line.
// Anything but another hunk header after a complete body is malformed.
// On error the hunks parsed so far are returned with it.
func Parse(diffText string) ([]Hunk, error) {
	lines := strings.Split(diffText, "\n")
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}

	var hunks []Hunk
	for i := 0; i < len(lines); i++ {
		line := lines[i]
		if !strings.HasPrefix(line, "@@") {
			continue
		}

		m := hunkHeader.FindStringSubmatch(line)
		if m == nil {
			return hunks, &fserrors.DiffError{Hunk: len(hunks), Line: i + 1, Reason: ReasonMalformedHeader, Err: fserrors.ErrDiffParse}
		}

		h := Hunk{
			OldStart:  atoi(m[1], 0),
			OldLength: atoi(m[2], 1),
			NewStart:  atoi(m[3], 0),
			NewLength: atoi(m[4], 1),
		}

		oldLeft, newLeft := h.OldLength, h.NewLength
		for oldLeft > 0 || newLeft > 0 {
			i++
			if i >= len(lines) {
				return hunks, &fserrors.DiffError{Hunk: len(hunks), Line: i, Reason: ReasonTruncated, Err: fserrors.ErrDiffParse}
			}

			body := lines[i]
			if body == "" {
				body = " "
			}

			tag := TagContext
			switch body[0] {
			case ' ':
				oldLeft--
				newLeft--
			case '-':
				tag = TagRemove
				oldLeft--
			case '+':
				tag = TagAdd
				newLeft--
			case '\\':
				// "\ No newline at end of file"
				continue
			default:
				return hunks, &fserrors.DiffError{Hunk: len(hunks), Line: i + 1, Reason: ReasonMalformedLine, Err: fserrors.ErrDiffParse}
			}

			if oldLeft < 0 || newLeft < 0 {
				return hunks, &fserrors.DiffError{Hunk: len(hunks), Line: i + 1, Reason: ReasonMalformedLine, Err: fserrors.ErrDiffParse}
			}

			h.Lines = append(h.Lines, Line{Tag: tag, Text: body[1:]})
		}

		// only another hunk may follow a complete body
		if k := nextSignificant(lines, i+1); k < len(lines) && !strings.HasPrefix(lines[k], "@@") {
			return hunks, &fserrors.DiffError{Hunk: len(hunks), Line: k + 1, Reason: ReasonMalformedLine, Err: fserrors.ErrDiffParse}
		}

		hunks = append(hunks, h)
	}

	return hunks, nil
}

// nextSignificant skips blank lines and "\ No newline" markers from k
func nextSignificant(lines []string, k int) int {
	for k < len(lines) && (lines[k] == "" || strings.HasPrefix(lines[k], "\\")) {
		k++
	}
	return k
}

func atoi(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
