package evaluator

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/computerscienceiscool/llm-fstools/internal/metrics"
	"github.com/computerscienceiscool/llm-fstools/pkg/config"
	"github.com/computerscienceiscool/llm-fstools/pkg/scanner"
)

func TestExecute_Dispatch(t *testing.T) {
	exec, root, audit := newTestExecutor(t, nil)
	writeFile(t, root, "a.txt", "hello\n")

	cmds := []scanner.Command{
		{Type: scanner.CmdOpen, Argument: "a.txt"},
		{Type: scanner.CmdMkdir, Argument: "out"},
		{Type: scanner.CmdWrite, Argument: "out/b.txt", Content: "bee"},
		{Type: scanner.CmdFind, Argument: `b\.txt`},
		{Type: scanner.CmdSearch, Argument: "hello"},
		{Type: scanner.CmdEdit, Argument: "out/b.txt", Content: `{"old_text": "bee", "new_text": "wasp"}`},
		{Type: scanner.CmdDelete, Argument: "a.txt"},
	}

	for _, cmd := range cmds {
		res := exec.Execute(cmd)
		require.True(t, res.Success, "%s %s: %v", cmd.Type, cmd.Argument, res.Error)
		assert.Equal(t, cmd, res.Command)
	}

	assert.Len(t, audit.getEntries(), len(cmds))
	assert.Equal(t, "wasp", readFile(t, root, "out/b.txt"))
}

func TestExecute_UnknownCommand(t *testing.T) {
	exec, _, audit := newTestExecutor(t, nil)

	res := exec.Execute(scanner.Command{Type: "exec", Argument: "rm -rf /"})

	assert.False(t, res.Success)
	assert.Contains(t, res.Error.Error(), "UNKNOWN_COMMAND")
	assert.Equal(t, auditEntry{cmdType: "exec", arg: "rm -rf /", success: false, errMsg: "UNKNOWN_COMMAND: exec"}, audit.last())
}

func TestExecute_RateLimited(t *testing.T) {
	exec, root, audit := newTestExecutor(t, func(cfg *config.Config) {
		cfg.Security.RateLimitPerMinute = 2
	})
	writeFile(t, root, "a.txt", "x")

	open := scanner.Command{Type: scanner.CmdOpen, Argument: "a.txt"}
	assert.True(t, exec.Execute(open).Success)
	assert.True(t, exec.Execute(open).Success)

	res := exec.Execute(open)
	assert.False(t, res.Success)
	assert.Contains(t, res.Error.Error(), "RATE_LIMITED")
	assert.False(t, audit.last().success)
}

func TestExecute_RateLimitDisabled(t *testing.T) {
	exec, root, _ := newTestExecutor(t, func(cfg *config.Config) {
		cfg.Security.RateLimitPerMinute = 0
	})
	writeFile(t, root, "a.txt", "x")

	for i := 0; i < 20; i++ {
		require.True(t, exec.Execute(scanner.Command{Type: scanner.CmdOpen, Argument: "a.txt"}).Success)
	}
}

func TestExecute_RecordsMetrics(t *testing.T) {
	m := metrics.New()
	exec, root, _ := newTestExecutor(t, nil, WithMetrics(m))
	writeFile(t, root, "a.txt", "needle\n")

	exec.Execute(scanner.Command{Type: scanner.CmdOpen, Argument: "a.txt"})
	exec.Execute(scanner.Command{Type: scanner.CmdOpen, Argument: "missing.txt"})
	exec.Execute(scanner.Command{Type: scanner.CmdSearch, Argument: "needle"})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.CommandsTotal.WithLabelValues("open", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CommandsTotal.WithLabelValues("open", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SearchesTotal))
}

func TestExecute_ErrorsAreSanitized(t *testing.T) {
	exec, root, audit := newTestExecutor(t, nil)

	res := exec.Execute(scanner.Command{Type: scanner.CmdOpen, Argument: "/etc/passwd"})

	require.False(t, res.Success)
	assert.NotContains(t, res.Error.Error(), "/etc/passwd")
	assert.NotContains(t, res.Error.Error(), root)
	assert.Contains(t, res.Error.Error(), "PATH_DENIED")
	assert.Contains(t, audit.last().errMsg, "/etc/passwd")
}
