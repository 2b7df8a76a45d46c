package app

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/computerscienceiscool/llm-fstools/internal/metrics"
	"github.com/computerscienceiscool/llm-fstools/pkg/config"
	"github.com/computerscienceiscool/llm-fstools/pkg/dynrepo"
	"github.com/computerscienceiscool/llm-fstools/pkg/evaluator"
	"github.com/computerscienceiscool/llm-fstools/pkg/sandbox"
	"github.com/computerscienceiscool/llm-fstools/pkg/scanner"
	"github.com/computerscienceiscool/llm-fstools/pkg/session"
)

// App represents the main application
type App struct {
	config   *config.Config
	logger   *zap.Logger
	metrics  *metrics.Metrics
	sandbox  *sandbox.Sandbox
	session  *session.Session
	executor *evaluator.Executor
	scratch  *dynrepo.Repo
}

// Run executes the application based on configuration
func (a *App) Run() error {
	if a.config.Verbose {
		a.printVerboseInfo(os.Stderr)
	}

	input := io.Reader(os.Stdin)
	if a.config.InputFile != "" {
		file, err := os.Open(a.config.InputFile)
		if err != nil {
			return fmt.Errorf("cannot read input file: %w", err)
		}
		defer file.Close()
		input = file
	}

	output := io.Writer(os.Stdout)
	if a.config.OutputFile != "" {
		file, err := os.Create(a.config.OutputFile)
		if err != nil {
			return fmt.Errorf("cannot write output file: %w", err)
		}
		defer file.Close()
		output = file
	}

	a.scanInput(input, output, a.config.Interactive)
	return nil
}

// scanInput executes each command as soon as the scanner completes it
func (a *App) scanInput(input io.Reader, output io.Writer, showPrompts bool) {
	sc := scanner.NewScanner(bufio.NewReader(input))

	if showPrompts {
		fmt.Fprintln(os.Stderr, "llm-fstools - Interactive Mode")
		fmt.Fprintln(os.Stderr, "Waiting for input (send EOF with Ctrl+D to finish)...")
		fmt.Fprintln(os.Stderr, "Supports commands: <open path>, <write path>content</write>, <edit path>json</edit>, <search regex>, <find regex>, <delete path>, <mkdir path>")
	}

	for {
		cmd := sc.Scan()
		if cmd == nil {
			break
		}

		result := a.executor.Execute(*cmd)
		if result.Success {
			a.session.IncrementCommandsRun()
		}
		writeResult(output, result)

		fmt.Fprint(output, "=== LLM TOOL COMPLETE ===\n")
		fmt.Fprintf(output, "Commands executed: %d\n", a.session.CommandsRun())
		fmt.Fprintf(output, "Time elapsed: %.2fs\n", time.Since(a.session.StartTime).Seconds())
		fmt.Fprint(output, "=== END ===\n")

		if showPrompts {
			fmt.Fprintln(os.Stderr, "\nWaiting for more input...")
		}
	}
}

// writeResult prints one framed command result
func writeResult(output io.Writer, result scanner.ExecutionResult) {
	cmd := result.Command

	fmt.Fprint(output, "=== LLM TOOL START ===\n")
	fmt.Fprintf(output, "=== COMMAND: <%s %s> ===\n", cmd.Type, cmd.Argument)

	if !result.Success {
		errType, _, _ := strings.Cut(result.Error.Error(), ":")
		fmt.Fprintf(output, "=== ERROR: %s ===\n", errType)
		fmt.Fprintf(output, "Message: %s\n", result.Error.Error())
		fmt.Fprintf(output, "Command: <%s %s>\n", cmd.Type, cmd.Argument)
		fmt.Fprint(output, "=== END ERROR ===\n")
		fmt.Fprint(output, "=== END COMMAND ===\n")
		return
	}

	switch cmd.Type {
	case scanner.CmdOpen:
		fmt.Fprintf(output, "=== FILE: %s ===\n", cmd.Argument)
		writeBlock(output, result.Result)
		fmt.Fprint(output, "=== END FILE ===\n")

	case scanner.CmdWrite:
		fmt.Fprintf(output, "=== WRITE SUCCESSFUL: %s ===\n", cmd.Argument)
		fmt.Fprintf(output, "Action: %s\n", result.Action)
		fmt.Fprintf(output, "Bytes written: %d\n", result.BytesWritten)
		if result.BackupFile != "" {
			fmt.Fprintf(output, "Backup: %s\n", result.BackupFile)
		}
		fmt.Fprint(output, "=== END WRITE ===\n")

	case scanner.CmdEdit:
		fmt.Fprintf(output, "=== EDIT SUCCESSFUL: %s ===\n", cmd.Argument)
		fmt.Fprintf(output, "Replacements: %d\n", result.Replacements)
		if result.BackupFile != "" {
			fmt.Fprintf(output, "Backup: %s\n", result.BackupFile)
		}
		fmt.Fprint(output, "=== DIFF ===\n")
		writeBlock(output, result.Diff)
		fmt.Fprint(output, "=== END EDIT ===\n")

	case scanner.CmdSearch, scanner.CmdFind:
		fmt.Fprint(output, result.Result)

	case scanner.CmdDelete, scanner.CmdMkdir:
		name := strings.ToUpper(cmd.Type)
		fmt.Fprintf(output, "=== %s SUCCESSFUL: %s ===\n", name, cmd.Argument)
		fmt.Fprintf(output, "=== END %s ===\n", name)
	}

	fmt.Fprint(output, "=== END COMMAND ===\n")
}

func writeBlock(output io.Writer, text string) {
	fmt.Fprint(output, text)
	if text != "" && !strings.HasSuffix(text, "\n") {
		fmt.Fprint(output, "\n")
	}
}

// printVerboseInfo prints verbose configuration information
func (a *App) printVerboseInfo(w io.Writer) {
	fmt.Fprintf(w, "Session: %s\n", a.session.ID)
	fmt.Fprintf(w, "Roots: %v\n", a.sandbox.Roots())
	if a.scratch != nil {
		fmt.Fprintf(w, "Scratch repository: %s\n", a.scratch.Dir)
	}
	fmt.Fprintf(w, "Max file size: %d bytes\n", a.config.MaxFileSize)
	fmt.Fprintf(w, "Max write file size: %d bytes\n", a.config.MaxWriteSize)
	fmt.Fprintf(w, "Allowed extensions: %v\n", a.config.AllowedExtensions)
	fmt.Fprintf(w, "Excluded paths: %v\n", a.config.ExcludedPaths)
	fmt.Fprintf(w, "Backup enabled: %v\n", a.config.BackupBeforeWrite)
	fmt.Fprintf(w, "Search: max files %d, max depth %d, timeout %v\n",
		a.config.Search.MaxFiles, a.config.Search.MaxDepth, a.config.Search.Timeout)
}

// Close commits scratch changes, flushes metrics and closes the audit sinks
func (a *App) Close() error {
	if a.config.Verbose && a.metrics != nil {
		if summary, err := a.metrics.Summary(); err == nil && summary != "" {
			fmt.Fprint(os.Stderr, "=== METRICS ===\n"+summary)
		}
	}

	var firstErr error
	if a.scratch != nil {
		msg := "llm-fstools session"
		if a.session != nil {
			msg += " " + a.session.ID
		}
		if _, _, err := a.scratch.CommitAll(msg); err != nil {
			a.logger.Warn("failed to commit scratch changes", zap.Error(err))
		}
		if err := a.scratch.Cleanup(); err != nil {
			firstErr = err
		}
	}
	if a.session != nil {
		if err := a.session.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	_ = a.logger.Sync()
	return firstErr
}

// GetSession returns the app's session
func (a *App) GetSession() *session.Session {
	return a.session
}

// GetExecutor returns the app's executor
func (a *App) GetExecutor() *evaluator.Executor {
	return a.executor
}

// GetConfig returns the app's configuration
func (a *App) GetConfig() *config.Config {
	return a.config
}
