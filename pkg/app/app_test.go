package app

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/computerscienceiscool/llm-fstools/pkg/config"
	"github.com/computerscienceiscool/llm-fstools/pkg/scanner"
)

func testConfig(t *testing.T, roots ...string) *config.Config {
	t.Helper()
	v := viper.New()
	config.SetDefaults(v)
	cfg, err := config.FromViper(v)
	require.NoError(t, err)

	dir := t.TempDir()
	cfg.Roots = roots
	cfg.Security.AuditLogPath = filepath.Join(dir, "audit.log")
	cfg.Security.AuditDBPath = filepath.Join(dir, "audit.db")
	return cfg
}

func TestBootstrap(t *testing.T) {
	root := t.TempDir()
	cfg := testConfig(t, root)

	a, err := Bootstrap(cfg)
	require.NoError(t, err)
	defer a.Close()

	assert.NotNil(t, a.GetSession())
	assert.NotNil(t, a.GetExecutor())
	assert.Same(t, cfg, a.GetConfig())
	assert.Equal(t, []string{root}, a.sandbox.Roots())
}

func TestBootstrap_MissingRoot(t *testing.T) {
	cfg := testConfig(t, filepath.Join(t.TempDir(), "missing"))

	_, err := Bootstrap(cfg)
	assert.Error(t, err)
}

func TestBootstrap_BadLogLevel(t *testing.T) {
	cfg := testConfig(t, t.TempDir())
	cfg.Logging.Level = "chatty"

	_, err := Bootstrap(cfg)
	assert.Error(t, err)
}

func TestBootstrap_Scratch(t *testing.T) {
	cfg := testConfig(t)
	cfg.Scratch = true

	a, err := Bootstrap(cfg)
	require.NoError(t, err)

	dir := a.scratch.Dir
	assert.Equal(t, []string{dir}, cfg.Roots)
	_, err = os.Stat(filepath.Join(dir, "README.md"))
	assert.NoError(t, err)

	require.NoError(t, a.Close())
	_, err = os.Stat(dir)
	assert.True(t, os.IsNotExist(err))
}

func TestScanInput(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("alpha\nbeta\n"), 0644))

	cfg := testConfig(t, root)
	a, err := Bootstrap(cfg)
	require.NoError(t, err)
	defer a.Close()

	input := strings.Join([]string{
		"Let me look first.",
		"<open a.txt>",
		`<edit a.txt>{"old_text": "beta", "new_text": "gamma"}</edit>`,
		"<write new.md>",
		"# hi",
		"</write>",
		"<search gamma>",
		"<open /etc/passwd>",
		"<mkdir out>",
		"<delete new.md>",
	}, "\n") + "\n"

	var out bytes.Buffer
	a.scanInput(strings.NewReader(input), &out, false)
	got := out.String()

	assert.Contains(t, got, "=== COMMAND: <open a.txt> ===\n=== FILE: a.txt ===\nalpha\nbeta\n=== END FILE ===")
	assert.Contains(t, got, "=== EDIT SUCCESSFUL: a.txt ===\nReplacements: 1\n")
	assert.Contains(t, got, "-beta\n+gamma\n")
	assert.Contains(t, got, "=== WRITE SUCCESSFUL: new.md ===\nAction: CREATED\n")
	assert.Contains(t, got, "=== SEARCH: gamma ===")
	assert.Contains(t, got, "=== ERROR: PATH_DENIED ===")
	assert.NotContains(t, got, "/etc/passwd\n=== END")
	assert.Contains(t, got, "=== MKDIR SUCCESSFUL: out ===")
	assert.Contains(t, got, "=== DELETE SUCCESSFUL: new.md ===")
	assert.Equal(t, 7, strings.Count(got, "=== LLM TOOL COMPLETE ==="))
	assert.Contains(t, got, "Commands executed: 6\n")
	assert.Equal(t, 6, a.GetSession().CommandsRun())

	content, err := os.ReadFile(filepath.Join(root, "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "alpha\ngamma\n", string(content))
}

func TestScanInput_AuditsToStore(t *testing.T) {
	root := t.TempDir()
	cfg := testConfig(t, root)
	a, err := Bootstrap(cfg)
	require.NoError(t, err)

	a.scanInput(strings.NewReader("<mkdir x>\n<open missing.txt>\n"), &bytes.Buffer{}, false)
	require.NoError(t, a.Close())

	logData, err := os.ReadFile(cfg.Security.AuditLogPath)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(string(logData), "\n"))
	assert.Contains(t, string(logData), `"command":"mkdir"`)
}

func TestWriteResult_Error(t *testing.T) {
	var out bytes.Buffer
	writeResult(&out, scanner.ExecutionResult{
		Command: scanner.Command{Type: "open", Argument: "x"},
		Error:   errors.New("FILE_NOT_FOUND: x"),
	})

	assert.Equal(t, "=== LLM TOOL START ===\n"+
		"=== COMMAND: <open x> ===\n"+
		"=== ERROR: FILE_NOT_FOUND ===\n"+
		"Message: FILE_NOT_FOUND: x\n"+
		"Command: <open x>\n"+
		"=== END ERROR ===\n"+
		"=== END COMMAND ===\n", out.String())
}

func TestPrintVerboseInfo(t *testing.T) {
	root := t.TempDir()
	a, err := Bootstrap(testConfig(t, root))
	require.NoError(t, err)
	defer a.Close()

	var out bytes.Buffer
	a.printVerboseInfo(&out)

	assert.Contains(t, out.String(), "Session: "+a.GetSession().ID)
	assert.Contains(t, out.String(), root)
}

