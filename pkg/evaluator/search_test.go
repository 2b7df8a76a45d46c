package evaluator

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecuteSearch(t *testing.T) {
	exec, root, audit := newTestExecutor(t, nil)
	writeFile(t, root, "notes.txt", "call hogeFunc here\n")
	writeFile(t, root, "src/lib.go", "func hogeFunc() {}\n// hogeFunc again\n")
	writeFile(t, root, ".git/HEAD", "hogeFunc\n")

	res := exec.ExecuteSearch("hoge")

	require.True(t, res.Success, "%v", res.Error)
	assert.Contains(t, res.Result, "=== SEARCH: hoge ===")
	assert.Contains(t, res.Result, "Matched: hogeFunc")
	assert.Contains(t, res.Result, ".git (security)")
	assert.NotContains(t, res.Result, ".git/HEAD")

	// src/ ranks above the root-level file
	assert.Less(t, strings.Index(res.Result, "src/lib.go"), strings.Index(res.Result, "notes.txt"))
	assert.Contains(t, audit.last().errMsg, "results:2")
}

func TestExecuteSearch_UnsafePattern(t *testing.T) {
	exec, _, _ := newTestExecutor(t, nil)

	res := exec.ExecuteSearch("(a+)+")

	assert.False(t, res.Success)
	assert.True(t, strings.HasPrefix(res.Error.Error(), "PATTERN_INVALID"), res.Error.Error())
}

func TestExecuteSearch_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	exec, root, _ := newTestExecutor(t, nil, WithContext(ctx))
	writeFile(t, root, "a.txt", "x\n")

	res := exec.ExecuteSearch("x")

	assert.False(t, res.Success)
	assert.True(t, strings.HasPrefix(res.Error.Error(), "SEARCH_FAILED"), res.Error.Error())
}

func TestExecuteFind(t *testing.T) {
	exec, root, _ := newTestExecutor(t, nil)
	writeFile(t, root, "cmd/main.go", "package main\n")
	writeFile(t, root, "cmd/main_test.go", "package main\n")
	writeFile(t, root, "README.md", "readme\n")

	res := exec.ExecuteFind(`_test\.go$`)

	require.True(t, res.Success, "%v", res.Error)
	assert.Contains(t, res.Result, "cmd/main_test.go")
	assert.NotContains(t, res.Result, "README.md")
}
