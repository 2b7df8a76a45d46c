package regexguard

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fserrors "github.com/computerscienceiscool/llm-fstools/internal/errors"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name       string
		pattern    string
		wantValid  bool
		wantReason string
	}{
		{name: "plain word", pattern: "hello", wantValid: true},
		{name: "single wildcard", pattern: "foo.*bar", wantValid: true},
		{name: "bounded repetition", pattern: `\d{2,4}-\d{2}`, wantValid: true},
		{name: "lazy quantifier", pattern: "a+?b", wantValid: true},
		{name: "escaped dot star", pattern: `a\.*b\.*c`, wantValid: true},
		{name: "too long", pattern: strings.Repeat("a", MaxPatternLength+1), wantReason: ReasonTooLong},
		{name: "empty", pattern: "", wantReason: ReasonEmpty},
		{name: "whitespace only", pattern: "   ", wantReason: ReasonEmpty},
		{name: "unbalanced paren", pattern: "foo(bar", wantReason: ReasonSyntax},
		{name: "doubled quantifier rejected by engine", pattern: "(ab)++", wantReason: ReasonSyntax},
		{name: "nested plus", pattern: "(a+)+", wantReason: ReasonReDoS},
		{name: "nested star", pattern: `(\w*)*x`, wantReason: ReasonReDoS},
		{name: "two wildcards", pattern: ".*foo.*", wantReason: ReasonReDoS},
		{name: "too many quantifiers", pattern: "a+b+c+d+e+f+", wantReason: ReasonReDoS},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Validate(tt.pattern)
			assert.Equal(t, tt.wantValid, res.Valid)
			assert.Equal(t, tt.wantReason, res.Reason)
			if !tt.wantValid {
				assert.NotEmpty(t, res.Message)
			}
		})
	}
}

func TestValidate_LengthBoundary(t *testing.T) {
	assert.True(t, Validate(strings.Repeat("a", MaxPatternLength)).Valid)
	assert.False(t, Validate(strings.Repeat("a", MaxPatternLength+1)).Valid)
}

func TestValidate_Suggestions(t *testing.T) {
	res := Validate("(a+)+")
	require.False(t, res.Valid)
	assert.Equal(t, "(a+)", res.Suggestion)
	assert.True(t, Validate(res.Suggestion).Valid)

	res = Validate(".*foo.*bar")
	require.False(t, res.Valid)
	assert.Equal(t, "foo.*bar", res.Suggestion)
	assert.True(t, Validate(res.Suggestion).Valid)

	res = Validate("a+b+c+d+e+f+")
	require.False(t, res.Valid)
	assert.Empty(t, res.Suggestion)
}

func TestValidationResult_Err(t *testing.T) {
	assert.NoError(t, Validate("ok").Err("ok"))

	err := Validate("(a+)+").Err("(a+)+")
	require.Error(t, err)
	assert.True(t, errors.Is(err, fserrors.ErrPatternInvalid))

	var perr *fserrors.PatternError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, ReasonReDoS, perr.Reason)
	assert.Equal(t, "(a+)+", perr.Pattern)
}

func TestCountQuantifiers(t *testing.T) {
	tests := []struct {
		pattern string
		want    int
	}{
		{"abc", 0},
		{"a*", 1},
		{"a+?", 1},
		{"a?", 1},
		{"(?:ab)+", 1},
		{"[*+?]", 0},
		{`\*\+`, 0},
		{"a{2}", 1},
		{"a{2,}b{1,3}", 2},
		{"a{x}", 0},
		{"a*b+c?d{2}", 4},
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			assert.Equal(t, tt.want, countQuantifiers(tt.pattern))
		})
	}
}

func TestCreateSearchRegex(t *testing.T) {
	re, err := CreateSearchRegex("foo", false, false)
	require.NoError(t, err)
	ok, err := re.MatchString("a FOObar")
	require.NoError(t, err)
	assert.True(t, ok)

	re, err = CreateSearchRegex("foo", true, false)
	require.NoError(t, err)
	ok, err = re.MatchString("a FOObar")
	require.NoError(t, err)
	assert.False(t, ok)

	re, err = CreateSearchRegex("foo|bar", false, true)
	require.NoError(t, err)
	ok, _ = re.MatchString("foobar")
	assert.False(t, ok, "whole word must not match inside a word")
	ok, _ = re.MatchString("x bar y")
	assert.True(t, ok)

	assert.Equal(t, DefaultTimeout, re.MatchTimeout)

	_, err = CreateSearchRegex("(", false, false)
	assert.True(t, errors.Is(err, fserrors.ErrPatternInvalid))
}

func TestCompile_RejectsUnsafe(t *testing.T) {
	_, err := Compile("(a+)+", false, false)
	assert.True(t, errors.Is(err, fserrors.ErrPatternInvalid))

	re, err := Compile("needle", false, false)
	require.NoError(t, err)
	assert.NotNil(t, re)
}

func TestExecuteWithTimeout(t *testing.T) {
	re, err := CreateSearchRegex("needle", true, false)
	require.NoError(t, err)

	res := ExecuteWithTimeout(re, "haystack with needle", time.Second)
	assert.True(t, res.Matched)
	assert.False(t, res.TimedOut)

	res = ExecuteWithTimeout(re, "haystack", time.Second)
	assert.False(t, res.Matched)
	assert.False(t, res.TimedOut)
}

func TestExecuteWithTimeout_Catastrophic(t *testing.T) {
	// built without validation on purpose
	re, err := CreateSearchRegex("^(a+)+$", true, false)
	require.NoError(t, err)
	re.MatchTimeout = 200 * time.Millisecond

	start := time.Now()
	res := ExecuteWithTimeout(re, strings.Repeat("a", 40)+"!", 50*time.Millisecond)
	assert.True(t, res.TimedOut)
	assert.False(t, res.Matched)
	assert.Less(t, time.Since(start), time.Second)
}

func TestReplaceWithTimeout(t *testing.T) {
	re, err := CreateSearchRegex(`(\w+)@example`, true, false)
	require.NoError(t, err)

	out, err := ReplaceWithTimeout(re, "mail bob@example and amy@example", "$1@test", -1, time.Second)
	require.NoError(t, err)
	assert.Equal(t, "mail bob@test and amy@test", out)

	out, err = ReplaceWithTimeout(re, "bob@example amy@example", "x", 1, time.Second)
	require.NoError(t, err)
	assert.Equal(t, "x amy@example", out)
}
