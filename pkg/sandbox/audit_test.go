package sandbox

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readAuditLines(t *testing.T, path string) []map[string]interface{} {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var entries []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(line), &entry), "line %q", line)
		entries = append(entries, entry)
	}
	return entries
}

func TestNewAuditLogger(t *testing.T) {
	t.Run("creates log file if not exists", func(t *testing.T) {
		logPath := filepath.Join(t.TempDir(), "audit.log")

		logger, err := NewAuditLogger(logPath)
		if err != nil {
			t.Fatalf("NewAuditLogger() error = %v", err)
		}
		defer logger.Close()

		if _, err := os.Stat(logPath); os.IsNotExist(err) {
			t.Error("Log file was not created")
		}
	})

	t.Run("fails for unwritable location", func(t *testing.T) {
		_, err := NewAuditLogger(filepath.Join(t.TempDir(), "missing", "audit.log"))
		assert.Error(t, err)
	})
}

func TestAuditLogger_Log(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "audit.log")
	require.NoError(t, os.WriteFile(logPath, []byte(`{"event":"previous"}`+"\n"), 0644))

	logger, err := NewAuditLogger(logPath)
	require.NoError(t, err)

	logger.Log("sess-1", "open", "src/a.ts", true, "")
	logger.Log("sess-1", "write", "../x", false, "PATH_DENIED")
	require.NoError(t, logger.Close())

	entries := readAuditLines(t, logPath)
	require.Len(t, entries, 3, "existing content is kept")

	assert.Equal(t, "open", entries[1]["command"])
	assert.Equal(t, "success", entries[1]["status"])
	assert.Equal(t, "sess-1", entries[1]["session"])
	assert.NotContains(t, entries[1], "error")
	assert.NotEmpty(t, entries[1]["ts"])

	assert.Equal(t, "failed", entries[2]["status"])
	assert.Equal(t, "PATH_DENIED", entries[2]["error"])
}

func TestAuditLogger_NilSafe(t *testing.T) {
	var logger *AuditLogger
	logger.Log("s", "open", "x", true, "")
	assert.NoError(t, logger.Close())
}
