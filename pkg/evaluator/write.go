package evaluator

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"go/format"
	"os"
	"path/filepath"
	"strings"
	"time"

	fserrors "github.com/computerscienceiscool/llm-fstools/internal/errors"
	"github.com/computerscienceiscool/llm-fstools/pkg/config"
	"github.com/computerscienceiscool/llm-fstools/pkg/sandbox"
	"github.com/computerscienceiscool/llm-fstools/pkg/scanner"
)

// CreateBackup copies an existing file next to itself with a timestamped
// .bak suffix
func CreateBackup(filePath string) (string, error) {
	backupPath := fmt.Sprintf("%s%s.%d", filePath, config.BackupExtension, time.Now().UnixNano())

	originalContent, err := os.ReadFile(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to read original file: %w", err)
	}

	if err := os.WriteFile(backupPath, originalContent, 0644); err != nil {
		return "", fmt.Errorf("failed to create backup: %w", err)
	}

	return backupPath, nil
}

// FormatContent formats content based on file type. Content that does not
// parse is returned unchanged.
func FormatContent(filePath, content string) string {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".go":
		formatted, err := format.Source([]byte(content))
		if err != nil {
			return content
		}
		return string(formatted)
	case ".json":
		var jsonData interface{}
		if err := json.Unmarshal([]byte(content), &jsonData); err != nil {
			return content
		}
		formatted, err := json.MarshalIndent(jsonData, "", "  ")
		if err != nil {
			return content
		}
		return string(formatted) + "\n"
	default:
		return content
	}
}

// CalculateContentHash calculates SHA256 hash of content
func CalculateContentHash(content string) string {
	hash := sha256.Sum256([]byte(content))
	return fmt.Sprintf("%x", hash)
}

// ExecuteWrite handles the "write" command
func (e *Executor) ExecuteWrite(filePath, content string) scanner.ExecutionResult {
	startTime := time.Now()
	result := scanner.ExecutionResult{
		Command: scanner.Command{Type: scanner.CmdWrite, Argument: filePath, Content: content},
	}

	safePath, err := e.sandbox.Resolve(filePath, sandbox.OpWrite)
	if err != nil {
		e.fail(&result, startTime, err)
		return result
	}

	if err := sandbox.ValidateWriteExtension(filePath, e.config.AllowedExtensions); err != nil {
		e.fail(&result, startTime, err)
		return result
	}

	if int64(len(content)) > e.config.MaxWriteSize {
		e.fail(&result, startTime, fmt.Errorf("%w: content too large (%d bytes, max %d)",
			fserrors.ErrResourceLimit, len(content), e.config.MaxWriteSize))
		return result
	}

	var backupPath string
	mode := os.FileMode(0644)
	if info, err := os.Stat(safePath); err == nil {
		if info.IsDir() {
			e.fail(&result, startTime, fmt.Errorf("NOT_A_FILE: %s is a directory", filePath))
			return result
		}
		result.Action = "UPDATED"
		mode = info.Mode().Perm()

		if e.config.BackupBeforeWrite {
			backupPath, err = CreateBackup(safePath)
			if err != nil {
				e.fail(&result, startTime, fmt.Errorf("BACKUP_FAILED: %w", err))
				return result
			}
			result.BackupFile = filepath.Base(backupPath)
		}
	} else {
		result.Action = "CREATED"
	}

	formattedContent := FormatContent(filePath, content)

	if err := os.MkdirAll(filepath.Dir(safePath), 0755); err != nil {
		e.fail(&result, startTime, fmt.Errorf("WRITE_ERROR: %w", err))
		return result
	}
	if err := WriteFileAtomic(safePath, []byte(formattedContent), mode); err != nil {
		e.fail(&result, startTime, fmt.Errorf("WRITE_ERROR: %w", err))
		return result
	}

	result.BytesWritten = int64(len(formattedContent))

	auditMsg := fmt.Sprintf("hash:%s,bytes:%d,action:%s",
		CalculateContentHash(formattedContent), result.BytesWritten, strings.ToLower(result.Action))
	if backupPath != "" {
		auditMsg += fmt.Sprintf(",backup:%s", filepath.Base(backupPath))
	}
	e.succeed(&result, startTime, auditMsg)
	return result
}

// WriteFileAtomic writes to a temp file in the same directory and renames
// it over path
func WriteFileAtomic(path string, data []byte, mode os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, mode); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
