package evaluator

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"

	"github.com/computerscienceiscool/llm-fstools/pkg/config"
	"github.com/computerscienceiscool/llm-fstools/pkg/sandbox"
)

// testAuditLog captures audit log calls for verification
type testAuditLog struct {
	mu      sync.Mutex
	entries []auditEntry
}

type auditEntry struct {
	cmdType string
	arg     string
	success bool
	errMsg  string
}

func (t *testAuditLog) log(cmdType, arg string, success bool, errMsg string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = append(t.entries, auditEntry{cmdType, arg, success, errMsg})
}

func (t *testAuditLog) getEntries() []auditEntry {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]auditEntry{}, t.entries...)
}

func (t *testAuditLog) last() auditEntry {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.entries) == 0 {
		return auditEntry{}
	}
	return t.entries[len(t.entries)-1]
}

// newTestConfig returns the default configuration rooted at root
func newTestConfig(t *testing.T, root string) *config.Config {
	t.Helper()
	v := viper.New()
	config.SetDefaults(v)
	cfg, err := config.FromViper(v)
	require.NoError(t, err)
	cfg.Roots = []string{root}
	return cfg
}

// newTestExecutor builds an executor over a fresh temp root. mutate, when
// non-nil, adjusts the config before the executor is built.
func newTestExecutor(t *testing.T, mutate func(*config.Config), opts ...Option) (*Executor, string, *testAuditLog) {
	t.Helper()
	root := t.TempDir()
	cfg := newTestConfig(t, root)
	if mutate != nil {
		mutate(cfg)
	}

	sb, err := sandbox.New(cfg.Roots, sandbox.WithExcludedPaths(cfg.ExcludedPaths))
	require.NoError(t, err)

	audit := &testAuditLog{}
	return NewExecutor(cfg, sb, audit.log, opts...), root, audit
}

func writeFile(t *testing.T, root, rel, content string) string {
	t.Helper()
	full := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0644))
	return full
}

func readFile(t *testing.T, root, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	require.NoError(t, err)
	return string(data)
}
