// Package diff computes line-based unified diffs and applies them.
//
// Text is always split on "\n" with strings.Split, so a trailing newline
// shows up as a final empty line. Compute and Apply share that view, which
// is what makes Compute's output round-trip through Apply exactly.
package diff

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

const (
	// ContextLines is the number of unchanged lines kept around a change
	ContextLines = 3

	// MaxLCSCells bounds the LCS table. Larger inputs are diffed with
	// the linear-space Myers algorithm instead.
	MaxLCSCells = 4_000_000
)

// Tag marks a diff line as unchanged, added or removed
type Tag int

const (
	TagContext Tag = iota
	TagAdd
	TagRemove
)

// String returns the tag name
func (t Tag) String() string {
	switch t {
	case TagAdd:
		return "add"
	case TagRemove:
		return "remove"
	default:
		return "context"
	}
}

func (t Tag) prefix() byte {
	switch t {
	case TagAdd:
		return '+'
	case TagRemove:
		return '-'
	default:
		return ' '
	}
}

// Line is one tagged line of a hunk
type Line struct {
	Tag  Tag
	Text string
}

// Hunk is a contiguous block of changes plus surrounding context.
// OldLength counts context and remove lines, NewLength context and add
// lines.
type Hunk struct {
	OldStart  int
	OldLength int
	NewStart  int
	NewLength int
	Lines     []Line
}

// Header renders the @@ line for the hunk
func (h Hunk) Header() string {
	return fmt.Sprintf("@@ -%d,%d +%d,%d @@", h.OldStart, h.OldLength, h.NewStart, h.NewLength)
}

func (h Hunk) oldLines() []string {
	out := make([]string, 0, h.OldLength)
	for _, l := range h.Lines {
		if l.Tag != TagAdd {
			out = append(out, l.Text)
		}
	}
	return out
}

func (h Hunk) newLines() []string {
	out := make([]string, 0, h.NewLength)
	for _, l := range h.Lines {
		if l.Tag != TagRemove {
			out = append(out, l.Text)
		}
	}
	return out
}

// Compute returns a unified diff turning original into modified. filename
// names both sides in the header; when empty, generic labels are used.
// Identical inputs produce "".
func Compute(original, modified, filename string) string {
	if original == modified {
		return ""
	}

	a := strings.Split(original, "\n")
	b := strings.Split(modified, "\n")

	hunks := Hunks(a, b)
	if len(hunks) == 0 {
		return ""
	}
	return Render(hunks, filename)
}

// Hunks diffs two line slices and groups the result into hunks
func Hunks(a, b []string) []Hunk {
	var ops []Line
	if (len(a)+1)*(len(b)+1) > MaxLCSCells {
		ops = myersLines(a, b)
	} else {
		ops = lcsLines(a, b)
	}
	return group(ops, ContextLines)
}

// Render writes hunks as unified diff text
func Render(hunks []Hunk, filename string) string {
	var sb strings.Builder

	if filename != "" {
		sb.WriteString(fmt.Sprintf("--- a/%s\n", filename))
		sb.WriteString(fmt.Sprintf("+++ b/%s\n", filename))
	} else {
		sb.WriteString("--- original\n")
		sb.WriteString("+++ modified\n")
	}

	for _, h := range hunks {
		sb.WriteString(h.Header())
		sb.WriteByte('\n')
		for _, l := range h.Lines {
			sb.WriteByte(l.Tag.prefix())
			sb.WriteString(l.Text)
			sb.WriteByte('\n')
		}
	}

	return sb.String()
}

// lcsLines backtracks a suffix LCS table from the front, so on ties a
// removal is emitted before the matching addition.
func lcsLines(a, b []string) []Line {
	n, m := len(a), len(b)
	width := m + 1

	// dp[i*width+j] = LCS length of a[i:] and b[j:]
	dp := make([]int32, (n+1)*width)
	for i := n - 1; i >= 0; i-- {
		for j := m - 1; j >= 0; j-- {
			if a[i] == b[j] {
				dp[i*width+j] = dp[(i+1)*width+j+1] + 1
			} else if down, right := dp[(i+1)*width+j], dp[i*width+j+1]; down >= right {
				dp[i*width+j] = down
			} else {
				dp[i*width+j] = right
			}
		}
	}

	ops := make([]Line, 0, n+m)
	i, j := 0, 0
	for i < n && j < m {
		switch {
		case a[i] == b[j]:
			ops = append(ops, Line{Tag: TagContext, Text: a[i]})
			i++
			j++
		case dp[(i+1)*width+j] >= dp[i*width+j+1]:
			ops = append(ops, Line{Tag: TagRemove, Text: a[i]})
			i++
		default:
			ops = append(ops, Line{Tag: TagAdd, Text: b[j]})
			j++
		}
	}
	for ; i < n; i++ {
		ops = append(ops, Line{Tag: TagRemove, Text: a[i]})
	}
	for ; j < m; j++ {
		ops = append(ops, Line{Tag: TagAdd, Text: b[j]})
	}

	return ops
}

// myersLines diffs large inputs with go-diff. Every distinct line is
// encoded as one rune so the rune-level diff is a line-level diff. Each
// change region is reordered so removals precede additions, matching
// lcsLines.
func myersLines(a, b []string) []Line {
	enc := lineEncoder{index: make(map[string]rune)}
	runesA := enc.encode(a)
	runesB := enc.encode(b)

	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMainRunes(runesA, runesB, false)

	ops := make([]Line, 0, len(a)+len(b))
	var removed, added []Line
	flush := func() {
		ops = append(ops, removed...)
		ops = append(ops, added...)
		removed, added = removed[:0], added[:0]
	}

	i, j := 0, 0
	for _, d := range diffs {
		count := len([]rune(d.Text))
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			flush()
			for k := 0; k < count; k++ {
				ops = append(ops, Line{Tag: TagContext, Text: a[i]})
				i++
				j++
			}
		case diffmatchpatch.DiffDelete:
			for k := 0; k < count; k++ {
				removed = append(removed, Line{Tag: TagRemove, Text: a[i]})
				i++
			}
		case diffmatchpatch.DiffInsert:
			for k := 0; k < count; k++ {
				added = append(added, Line{Tag: TagAdd, Text: b[j]})
				j++
			}
		}
	}
	flush()

	return ops
}

// lineEncoder hands out one valid rune per distinct line, skipping the
// UTF-16 surrogate range
type lineEncoder struct {
	index map[string]rune
	next  rune
}

func (e *lineEncoder) encode(lines []string) []rune {
	out := make([]rune, len(lines))
	for k, line := range lines {
		r, ok := e.index[line]
		if !ok {
			r = e.alloc()
			e.index[line] = r
		}
		out[k] = r
	}
	return out
}

func (e *lineEncoder) alloc() rune {
	e.next++
	if e.next >= 0xD800 && e.next <= 0xDFFF {
		e.next = 0xE000
	}
	return e.next
}

// group cuts a tagged line sequence into hunks. Changes separated by no
// more than 2*context unchanged lines share a hunk.
func group(ops []Line, context int) []Hunk {
	n := len(ops)
	oldPos := make([]int, n)
	newPos := make([]int, n)
	o, nw := 1, 1
	for k, op := range ops {
		oldPos[k], newPos[k] = o, nw
		switch op.Tag {
		case TagContext:
			o++
			nw++
		case TagRemove:
			o++
		case TagAdd:
			nw++
		}
	}

	var hunks []Hunk
	for k := 0; k < n; {
		if ops[k].Tag == TagContext {
			k++
			continue
		}

		last := k
		for j := k + 1; j < n && j-last <= 2*context+1; j++ {
			if ops[j].Tag != TagContext {
				last = j
			}
		}

		start := max(0, k-context)
		end := min(n, last+1+context)

		h := Hunk{
			OldStart: oldPos[start],
			NewStart: newPos[start],
			Lines:    append([]Line(nil), ops[start:end]...),
		}
		for _, l := range h.Lines {
			if l.Tag != TagAdd {
				h.OldLength++
			}
			if l.Tag != TagRemove {
				h.NewLength++
			}
		}
		hunks = append(hunks, h)

		k = end
	}

	return hunks
}
