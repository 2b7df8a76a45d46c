package evaluator

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	fserrors "github.com/computerscienceiscool/llm-fstools/internal/errors"
	"github.com/computerscienceiscool/llm-fstools/pkg/sandbox"
	"github.com/computerscienceiscool/llm-fstools/pkg/scanner"
)

// ExecuteDelete handles the "delete" command. Files, symlinks and empty
// directories can be removed; roots themselves cannot.
func (e *Executor) ExecuteDelete(target string) scanner.ExecutionResult {
	startTime := time.Now()
	result := scanner.ExecutionResult{
		Command: scanner.Command{Type: scanner.CmdDelete, Argument: target},
	}

	safePath, err := e.sandbox.Resolve(target, sandbox.OpDelete)
	if err != nil {
		e.fail(&result, startTime, err)
		return result
	}

	for _, root := range e.sandbox.Roots() {
		if filepath.Clean(root) == safePath {
			e.fail(&result, startTime, &fserrors.SecurityError{Op: string(sandbox.OpDelete), Path: target, Reason: "root"})
			return result
		}
	}

	info, err := os.Lstat(safePath)
	if err != nil {
		e.fail(&result, startTime, fmt.Errorf("%w: %s", fserrors.ErrFileNotFound, target))
		return result
	}

	if err := os.Remove(safePath); err != nil {
		e.fail(&result, startTime, fmt.Errorf("DELETE_ERROR: %w", err))
		return result
	}

	result.Action = "DELETED"
	result.Result = fmt.Sprintf("deleted %s", target)
	kind := "file"
	switch {
	case info.Mode()&os.ModeSymlink != 0:
		kind = "link"
	case info.IsDir():
		kind = "dir"
	}
	e.succeed(&result, startTime, fmt.Sprintf("kind:%s,bytes:%d", kind, info.Size()))
	return result
}

// ExecuteMkdir handles the "mkdir" command, creating missing parents
func (e *Executor) ExecuteMkdir(dir string) scanner.ExecutionResult {
	startTime := time.Now()
	result := scanner.ExecutionResult{
		Command: scanner.Command{Type: scanner.CmdMkdir, Argument: dir},
	}

	safePath, err := e.sandbox.Resolve(dir, sandbox.OpCreate)
	if err != nil {
		e.fail(&result, startTime, err)
		return result
	}

	if err := os.MkdirAll(safePath, 0755); err != nil {
		e.fail(&result, startTime, fmt.Errorf("MKDIR_ERROR: %w", err))
		return result
	}

	result.Action = "CREATED"
	result.Result = fmt.Sprintf("created %s", dir)
	e.succeed(&result, startTime, "")
	return result
}
