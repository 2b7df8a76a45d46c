package diff

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/bluekeyes/go-gitdiff/gitdiff"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fserrors "github.com/computerscienceiscool/llm-fstools/internal/errors"
)

func TestCompute_SingleLineChange(t *testing.T) {
	original := "line1\nline2\nline3"
	modified := "line1\nlineX\nline3"

	d := Compute(original, modified, "")
	expected := "--- original\n+++ modified\n@@ -1,3 +1,3 @@\n line1\n-line2\n+lineX\n line3\n"
	assert.Equal(t, expected, d)

	res := Apply(original, d)
	require.True(t, res.Success, "apply failed: %v", res.Err)
	assert.Equal(t, modified, res.Content)
	assert.Equal(t, 1, res.HunksApplied)
}

func TestCompute_Identical(t *testing.T) {
	for _, text := range []string{"", "a", "a\nb\n", "\n\n\n"} {
		assert.Equal(t, "", Compute(text, text, "f.txt"))
	}
}

func TestCompute_FilenameHeader(t *testing.T) {
	d := Compute("a", "b", "src/main.go")
	assert.True(t, strings.HasPrefix(d, "--- a/src/main.go\n+++ b/src/main.go\n"))
}

func TestCompute_SeparateHunks(t *testing.T) {
	var a []string
	for i := 1; i <= 30; i++ {
		a = append(a, fmt.Sprintf("line%d", i))
	}
	b := append([]string(nil), a...)
	b[1] = "changed2"
	b[25] = "changed26"

	hunks := Hunks(a, b)
	require.Len(t, hunks, 2)

	assert.Equal(t, 1, hunks[0].OldStart)
	assert.Equal(t, 5, hunks[0].OldLength)
	assert.Equal(t, 23, hunks[1].OldStart)
	assert.Equal(t, 7, hunks[1].OldLength)

	res := Apply(strings.Join(a, "\n"), Render(hunks, ""))
	require.True(t, res.Success)
	assert.Equal(t, strings.Join(b, "\n"), res.Content)
}

func TestCompute_NearbyChangesMerge(t *testing.T) {
	a := strings.Split("1\n2\n3\n4\n5\n6\n7\n8\n9\n10\n11\n12", "\n")
	b := append([]string(nil), a...)
	b[1] = "x"
	b[8] = "y" // six unchanged lines between the edits

	hunks := Hunks(a, b)
	require.Len(t, hunks, 1)
	assert.Equal(t, 12, hunks[0].OldLength)
}

func TestHunkLengthsMatchTags(t *testing.T) {
	a := strings.Split("a\nb\nc\nd\ne\nf", "\n")
	b := strings.Split("a\nB\nc\ne\nf\ng\nh", "\n")

	for _, h := range Hunks(a, b) {
		var oldN, newN int
		for _, l := range h.Lines {
			if l.Tag != TagAdd {
				oldN++
			}
			if l.Tag != TagRemove {
				newN++
			}
		}
		assert.Equal(t, oldN, h.OldLength)
		assert.Equal(t, newN, h.NewLength)
	}
}

func TestCompute_RemovalsBeforeAdditions(t *testing.T) {
	hunks := Hunks([]string{"a", "old", "z"}, []string{"a", "new", "z"})
	require.Len(t, hunks, 1)
	assert.Equal(t, []Line{
		{Tag: TagContext, Text: "a"},
		{Tag: TagRemove, Text: "old"},
		{Tag: TagAdd, Text: "new"},
		{Tag: TagContext, Text: "z"},
	}, hunks[0].Lines)
}

func TestRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		a, b string
	}{
		{"empty to text", "", "hello\nworld"},
		{"text to empty", "hello\nworld", ""},
		{"append line", "a\nb", "a\nb\nc"},
		{"prepend line", "a\nb", "z\na\nb"},
		{"trailing newline added", "a\nb", "a\nb\n"},
		{"trailing newline removed", "a\nb\n", "a\nb"},
		{"all different", "a\nb\nc", "x\ny"},
		{"blank lines", "a\n\n\nb", "a\n\nb\n\n"},
		{"crlf content", "a\r\nb\r\n", "a\r\nc\r\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Compute(tt.a, tt.b, "file.txt")
			require.NotEmpty(t, d)
			res := Apply(tt.a, d)
			require.True(t, res.Success, "apply failed: %v\n%s", res.Err, d)
			assert.Equal(t, tt.b, res.Content)
		})
	}
}

func TestRoundTrip_Random(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	words := []string{"alpha", "beta", "gamma", "", "delta", "  indented", "}"}

	gen := func() string {
		n := rng.Intn(40)
		lines := make([]string, n)
		for i := range lines {
			lines[i] = words[rng.Intn(len(words))]
		}
		return strings.Join(lines, "\n")
	}

	for i := 0; i < 200; i++ {
		a, b := gen(), gen()
		d := Compute(a, b, "")
		if a == b {
			assert.Empty(t, d)
			continue
		}
		res := Apply(a, d)
		require.True(t, res.Success, "case %d: %v", i, res.Err)
		require.Equal(t, b, res.Content, "case %d", i)
	}
}

func TestMyersLines_RoundTrip(t *testing.T) {
	a := strings.Split("one\ntwo\nthree\nfour\nfive\nsix\nseven\neight", "\n")
	b := strings.Split("one\n2\nthree\nfour\nfive\nsix\nseven\neight\nnine", "\n")

	ops := myersLines(a, b)
	hunks := group(ops, ContextLines)
	require.NotEmpty(t, hunks)

	res := ApplyHunks(strings.Join(a, "\n"), hunks)
	require.True(t, res.Success)
	assert.Equal(t, strings.Join(b, "\n"), res.Content)

	// the same line order as the LCS path for a simple substitution
	assert.Equal(t, lcsLines(a, b), ops)
}

func TestCompute_ParsesAsUnifiedDiff(t *testing.T) {
	a := "package main\n\nfunc main() {\n\tprintln(\"hi\")\n}"
	b := "package main\n\nimport \"fmt\"\n\nfunc main() {\n\tfmt.Println(\"hi\")\n}"

	files, _, err := gitdiff.Parse(strings.NewReader(Compute(a, b, "main.go")))
	require.NoError(t, err)
	require.Len(t, files, 1)
	require.Len(t, files[0].TextFragments, 1)

	frag := files[0].TextFragments[0]
	assert.NoError(t, frag.Validate())
	assert.Equal(t, int64(1), frag.OldPosition)
	assert.Equal(t, int64(3), frag.LinesAdded)
	assert.Equal(t, int64(1), frag.LinesDeleted)
}

func TestApply_EmptyDiff(t *testing.T) {
	res := Apply("unchanged", "")
	assert.True(t, res.Success)
	assert.Equal(t, "unchanged", res.Content)
	assert.Equal(t, 0, res.HunksApplied)
}

func TestApply_MalformedHeader(t *testing.T) {
	original := "a\nb\nc"
	diffText := "--- a/f\n+++ b/f\n@@ -1,1 +1,1 @@\n-a\n+A\n@@ bogus @@\n-c\n+C\n"

	res := Apply(original, diffText)
	assert.False(t, res.Success)
	assert.Equal(t, original, res.Content)
	assert.Equal(t, 1, res.HunksApplied)

	var derr *fserrors.DiffError
	require.True(t, errors.As(res.Err, &derr))
	assert.Equal(t, ReasonMalformedHeader, derr.Reason)
	assert.Equal(t, 1, derr.Hunk)
	assert.Equal(t, 6, derr.Line)
	assert.True(t, errors.Is(res.Err, fserrors.ErrDiffParse))
}

func TestApply_ContextMismatchIsAtomic(t *testing.T) {
	original := "a\nb\nc\nd\ne\nf\ng\nh\ni\nj\nk\nl"
	diffText := "@@ -1,2 +1,2 @@\n-a\n+A\n b\n@@ -10,2 +10,2 @@\n-WRONG\n+J\n k\n"

	res := Apply(original, diffText)
	assert.False(t, res.Success)
	assert.Equal(t, original, res.Content)
	assert.Equal(t, 1, res.HunksApplied)
	assert.True(t, errors.Is(res.Err, fserrors.ErrDiffApply))
}

func TestApply_Truncated(t *testing.T) {
	res := Apply("a\nb", "@@ -1,2 +1,2 @@\n-a\n")
	assert.False(t, res.Success)
	assert.Equal(t, "a\nb", res.Content)

	var derr *fserrors.DiffError
	require.True(t, errors.As(res.Err, &derr))
	assert.Equal(t, ReasonTruncated, derr.Reason)
}

func TestApply_DefaultCountsAndNoNewlineMarker(t *testing.T) {
	res := Apply("a\nb", "@@ -2 +2 @@\n-b\n+c\n\\ No newline at end of file\n")
	require.True(t, res.Success, "%v", res.Err)
	assert.Equal(t, "a\nc", res.Content)
}

func TestApply_PureInsertion(t *testing.T) {
	res := Apply("a\nb", "@@ -1,0 +2,1 @@\n+inserted\n")
	require.True(t, res.Success, "%v", res.Err)
	assert.Equal(t, "a\ninserted\nb", res.Content)
}

func TestApply_OffsetsAccumulate(t *testing.T) {
	original := strings.Join([]string{"1", "2", "3", "4", "5", "6", "7", "8", "9", "10"}, "\n")
	diffText := "@@ -1,1 +1,3 @@\n-1\n+one\n+uno\n+eins\n@@ -9,1 +11,1 @@\n-9\n+nine\n"

	res := Apply(original, diffText)
	require.True(t, res.Success, "%v", res.Err)
	assert.Equal(t, "one\nuno\neins\n2\n3\n4\n5\n6\n7\n8\nnine\n10", res.Content)
	assert.Equal(t, 2, res.HunksApplied)
}

func TestParse_BadBodyLine(t *testing.T) {
	_, err := Parse("@@ -1,1 +1,1 @@\n*a\n")
	var derr *fserrors.DiffError
	require.True(t, errors.As(err, &derr))
	assert.Equal(t, ReasonMalformedLine, derr.Reason)
}

func numberedLines(n int) []string {
	lines := make([]string, n)
	for i := range lines {
		lines[i] = fmt.Sprintf("line %d", i+1)
	}
	return lines
}

func TestCompute_LargeInputRoundTrip(t *testing.T) {
	a := numberedLines(2100)
	b := append([]string(nil), a...)
	b[4] = "LINE 5"
	b[1499] = "LINE 1500"
	require.Greater(t, (len(a)+1)*(len(b)+1), MaxLCSCells)

	original := strings.Join(a, "\n") + "\n"
	modified := strings.Join(b, "\n") + "\n"

	d := Compute(original, modified, "big.txt")
	assert.Contains(t, d, "-line 1500\n+LINE 1500\n")
	assert.Contains(t, d, "-line 5\n+LINE 5\n")

	hunks, err := Parse(d)
	require.NoError(t, err)
	assert.Len(t, hunks, 2)

	res := Apply(original, d)
	require.True(t, res.Success, "%v", res.Err)
	assert.Equal(t, modified, res.Content)
}

func TestCompute_LargeRandomRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	words := []string{"alpha", "beta", "gamma", "", "delta", "}", "return nil"}

	gen := func(n int) string {
		lines := make([]string, n)
		for i := range lines {
			lines[i] = fmt.Sprintf("%s %d", words[rng.Intn(len(words))], rng.Intn(300))
		}
		return strings.Join(lines, "\n")
	}

	a, b := gen(2500), gen(2500)
	res := Apply(a, Compute(a, b, ""))
	require.True(t, res.Success, "%v", res.Err)
	assert.Equal(t, b, res.Content)
}

func TestLineEncoder_SkipsSurrogates(t *testing.T) {
	enc := lineEncoder{index: make(map[string]rune), next: 0xD7FE}

	runes := enc.encode([]string{"x", "y", "z", "x"})
	assert.Equal(t, []rune{0xD7FF, 0xE000, 0xE001, 0xD7FF}, runes)
}

func TestParse_BodyLongerThanHeader(t *testing.T) {
	res := Apply("a\nz", "@@ -1,1 +1,1 @@\n-a\n+b\n+c\n")
	assert.False(t, res.Success)
	assert.Equal(t, "a\nz", res.Content)

	var derr *fserrors.DiffError
	require.True(t, errors.As(res.Err, &derr))
	assert.Equal(t, ReasonMalformedLine, derr.Reason)
	assert.Equal(t, 0, derr.Hunk)
	assert.Equal(t, 4, derr.Line)
}

func TestParse_TrailingBlankAndMarkerAllowed(t *testing.T) {
	hunks, err := Parse("@@ -1 +1 @@\n-a\n+b\n\\ No newline at end of file\n\n@@ -3 +3 @@\n-c\n+d\n")
	require.NoError(t, err)
	assert.Len(t, hunks, 2)
}
