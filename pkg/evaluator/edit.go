package evaluator

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	fserrors "github.com/computerscienceiscool/llm-fstools/internal/errors"
	"github.com/computerscienceiscool/llm-fstools/pkg/edit"
	"github.com/computerscienceiscool/llm-fstools/pkg/sandbox"
	"github.com/computerscienceiscool/llm-fstools/pkg/scanner"
)

// ExecuteEdit handles the "edit" command. body is the JSON edit request.
func (e *Executor) ExecuteEdit(filePath, body string) scanner.ExecutionResult {
	startTime := time.Now()
	result := scanner.ExecutionResult{
		Command: scanner.Command{Type: scanner.CmdEdit, Argument: filePath, Content: body},
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

	op, err := edit.Parse(body)
	if err != nil {
		e.fail(&result, startTime, err)
		return result
	}

	info, err := os.Stat(safePath)
	if err != nil {
		e.fail(&result, startTime, fmt.Errorf("%w: %s", fserrors.ErrFileNotFound, filePath))
		return result
	}
	if info.Size() > e.config.MaxFileSize {
		e.fail(&result, startTime, fmt.Errorf("%w: file too large (%d bytes, max %d)",
			fserrors.ErrResourceLimit, info.Size(), e.config.MaxFileSize))
		return result
	}

	original, err := os.ReadFile(safePath)
	if err != nil {
		e.fail(&result, startTime, fmt.Errorf("READ_ERROR: %w", err))
		return result
	}

	edited, err := edit.Apply(string(original), op, edit.Options{
		Filename:     filepath.ToSlash(filePath),
		RegexTimeout: e.config.Search.RegexTimeout,
	})
	if err != nil {
		e.fail(&result, startTime, err)
		return result
	}

	if int64(len(edited.Content)) > e.config.MaxWriteSize {
		e.fail(&result, startTime, fmt.Errorf("%w: edited content too large (%d bytes, max %d)",
			fserrors.ErrResourceLimit, len(edited.Content), e.config.MaxWriteSize))
		return result
	}

	if e.config.BackupBeforeWrite {
		backupPath, err := CreateBackup(safePath)
		if err != nil {
			e.fail(&result, startTime, fmt.Errorf("BACKUP_FAILED: %w", err))
			return result
		}
		result.BackupFile = filepath.Base(backupPath)
	}

	if err := WriteFileAtomic(safePath, []byte(edited.Content), info.Mode().Perm()); err != nil {
		e.fail(&result, startTime, fmt.Errorf("WRITE_ERROR: %w", err))
		return result
	}

	result.Action = "EDITED"
	result.Diff = edited.Diff
	result.Result = edited.Diff
	result.Replacements = edited.Replacements
	result.BytesWritten = int64(len(edited.Content))

	e.succeed(&result, startTime, fmt.Sprintf("hash:%s,bytes:%d,replacements:%d,hunks:%d",
		CalculateContentHash(edited.Content), result.BytesWritten, edited.Replacements, edited.HunksApplied))
	return result
}
