package diff

import "strings"

// IndentStyle is the dominant indentation character
type IndentStyle string

const (
	IndentSpace IndentStyle = "space"
	IndentTab   IndentStyle = "tab"
)

// Indentation describes how a text is indented
type Indentation struct {
	Style IndentStyle
	Size  int
	Mixed bool
}

// LineEnding is the newline convention of a text
type LineEnding string

const (
	LineEndingLF    LineEnding = "lf"
	LineEndingCRLF  LineEnding = "crlf"
	LineEndingMixed LineEnding = "mixed"
)

// DetectIndentation tallies tab-led against space-led non-blank lines.
// Tabs win only with strictly more lines. For spaces, the width is 4 when
// at least 80% of even-width indents are multiples of 4, otherwise 2.
// Text with no indented lines reports 4 spaces.
func DetectIndentation(text string) Indentation {
	var tabs, spaces, even, byFour int

	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		switch line[0] {
		case '\t':
			tabs++
		case ' ':
			spaces++
			width := len(line) - len(strings.TrimLeft(line, " "))
			if width%2 == 0 {
				even++
				if width%4 == 0 {
					byFour++
				}
			}
		}
	}

	mixed := tabs > 0 && spaces > 0
	if tabs > spaces {
		return Indentation{Style: IndentTab, Size: 1, Mixed: mixed}
	}

	size := 4
	if even > 0 && byFour*5 < even*4 {
		size = 2
	}
	return Indentation{Style: IndentSpace, Size: size, Mixed: mixed}
}

// DetectLineEnding counts CRLF against bare LF newlines. Text without any
// newline is reported as lf.
func DetectLineEnding(text string) LineEnding {
	crlf := strings.Count(text, "\r\n")
	lf := strings.Count(text, "\n") - crlf

	switch {
	case crlf > 0 && lf > 0:
		return LineEndingMixed
	case crlf > 0:
		return LineEndingCRLF
	default:
		return LineEndingLF
	}
}

// NormalizeOptions selects the normalizations to perform
type NormalizeOptions struct {
	RemoveTrailingSpaces bool
	NormalizeLineEndings bool
}

// NormalizeResult holds normalized text and the number of lines that lost
// trailing whitespace
type NormalizeResult struct {
	Content         string
	TrailingRemoved int
}

// NormalizeWhitespace converts CRLF and lone CR to LF and/or strips
// trailing spaces and tabs from each line. A CR kept as part of a line
// ending is not treated as trailing whitespace.
func NormalizeWhitespace(text string, opts NormalizeOptions) NormalizeResult {
	if opts.NormalizeLineEndings {
		text = strings.ReplaceAll(text, "\r\n", "\n")
		text = strings.ReplaceAll(text, "\r", "\n")
	}

	if !opts.RemoveTrailingSpaces {
		return NormalizeResult{Content: text}
	}

	lines := strings.Split(text, "\n")
	removed := 0
	for i, line := range lines {
		body, cr := line, ""
		if strings.HasSuffix(body, "\r") {
			body, cr = body[:len(body)-1], "\r"
		}
		trimmed := strings.TrimRight(body, " \t")
		if trimmed != body {
			removed++
			lines[i] = trimmed + cr
		}
	}

	return NormalizeResult{Content: strings.Join(lines, "\n"), TrailingRemoved: removed}
}
