package evaluator

import (
	"fmt"
	"os"
	"time"

	"github.com/gabriel-vasile/mimetype"

	fserrors "github.com/computerscienceiscool/llm-fstools/internal/errors"
	"github.com/computerscienceiscool/llm-fstools/pkg/sandbox"
	"github.com/computerscienceiscool/llm-fstools/pkg/scanner"
)

// ExecuteOpen handles the "open" command
func (e *Executor) ExecuteOpen(filePath string) scanner.ExecutionResult {
	startTime := time.Now()
	result := scanner.ExecutionResult{
		Command: scanner.Command{Type: scanner.CmdOpen, Argument: filePath},
	}

	safePath, err := e.sandbox.Resolve(filePath, sandbox.OpRead)
	if err != nil {
		e.fail(&result, startTime, err)
		return result
	}

	fileInfo, err := os.Stat(safePath)
	if err != nil {
		if os.IsNotExist(err) {
			err = fmt.Errorf("%w: %s", fserrors.ErrFileNotFound, filePath)
		} else {
			err = fmt.Errorf("PERMISSION_DENIED: %w", err)
		}
		e.fail(&result, startTime, err)
		return result
	}
	if fileInfo.IsDir() {
		e.fail(&result, startTime, fmt.Errorf("NOT_A_FILE: %s is a directory", filePath))
		return result
	}

	if fileInfo.Size() > e.config.MaxFileSize {
		e.fail(&result, startTime, fmt.Errorf("%w: file too large (%d bytes, max %d)",
			fserrors.ErrResourceLimit, fileInfo.Size(), e.config.MaxFileSize))
		return result
	}

	content, err := os.ReadFile(safePath)
	if err != nil {
		e.fail(&result, startTime, fmt.Errorf("READ_ERROR: %w", err))
		return result
	}

	if mt := mimetype.Detect(content); len(content) > 0 && !isText(mt) {
		e.fail(&result, startTime, fmt.Errorf("%w: %s is %s", fserrors.ErrBinaryContent, filePath, mt.String()))
		return result
	}

	result.Result = string(content)
	e.succeed(&result, startTime, fmt.Sprintf("bytes:%d", len(content)))
	return result
}

// isText reports whether mt or any of its parents is text/plain
func isText(mt *mimetype.MIME) bool {
	for m := mt; m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return true
		}
	}
	return false
}
