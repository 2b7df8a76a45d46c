package evaluator

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	fserrors "github.com/computerscienceiscool/llm-fstools/internal/errors"
	"github.com/computerscienceiscool/llm-fstools/internal/logging"
	"github.com/computerscienceiscool/llm-fstools/internal/metrics"
	"github.com/computerscienceiscool/llm-fstools/pkg/config"
	"github.com/computerscienceiscool/llm-fstools/pkg/sandbox"
	"github.com/computerscienceiscool/llm-fstools/pkg/scanner"
	"github.com/computerscienceiscool/llm-fstools/pkg/search"
)

// AuditFunc receives one entry per executed command. errMsg carries the
// unsanitized error, or a summary on success.
type AuditFunc func(cmd, arg string, success bool, errMsg string)

// Executor handles command execution
//
// Security Model:
// - Every path argument is resolved through the sandbox before any I/O
// - Symlinks may not lead outside the roots; excluded paths are never touched
// - Errors shown to the LLM are sanitized; full errors go to the audit trail
// - Commands are rate limited per executor (one executor per session)
type Executor struct {
	config   *config.Config
	sandbox  *sandbox.Sandbox
	engine   *search.Engine
	auditLog AuditFunc
	limiter  *rate.Limiter
	metrics  *metrics.Metrics
	logger   *zap.Logger
	ctx      context.Context
}

// Option configures an Executor
type Option func(*Executor)

// WithLogger sets the executor logger
func WithLogger(logger *zap.Logger) Option {
	return func(e *Executor) {
		e.logger = logger
	}
}

// WithMetrics records command counts and durations
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Executor) {
		e.metrics = m
	}
}

// WithContext bounds every search by ctx
func WithContext(ctx context.Context) Option {
	return func(e *Executor) {
		e.ctx = ctx
	}
}

// NewExecutor creates a new executor instance. A zero
// security.rate_limit_per_minute disables rate limiting.
func NewExecutor(cfg *config.Config, sb *sandbox.Sandbox, auditLog AuditFunc, opts ...Option) *Executor {
	e := &Executor{
		config:   cfg,
		sandbox:  sb,
		auditLog: auditLog,
		ctx:      context.Background(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = logging.OrNop(e.logger)
	e.engine = search.NewEngine(search.WithLogger(e.logger), search.WithMetrics(e.metrics))

	if n := cfg.Security.RateLimitPerMinute; n > 0 {
		e.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(n)), n)
	}
	return e
}

// Execute dispatches command execution based on type
func (e *Executor) Execute(cmd scanner.Command) scanner.ExecutionResult {
	startTime := time.Now()
	var result scanner.ExecutionResult

	if e.limiter != nil && !e.limiter.Allow() {
		result = scanner.ExecutionResult{Command: cmd}
		e.fail(&result, startTime, fmt.Errorf("%w: more than %d commands per minute", fserrors.ErrRateLimited, e.config.Security.RateLimitPerMinute))
	} else {
		switch cmd.Type {
		case scanner.CmdOpen:
			result = e.ExecuteOpen(cmd.Argument)
		case scanner.CmdWrite:
			result = e.ExecuteWrite(cmd.Argument, cmd.Content)
		case scanner.CmdEdit:
			result = e.ExecuteEdit(cmd.Argument, cmd.Content)
		case scanner.CmdSearch:
			result = e.ExecuteSearch(cmd.Argument)
		case scanner.CmdFind:
			result = e.ExecuteFind(cmd.Argument)
		case scanner.CmdDelete:
			result = e.ExecuteDelete(cmd.Argument)
		case scanner.CmdMkdir:
			result = e.ExecuteMkdir(cmd.Argument)
		default:
			result = scanner.ExecutionResult{Command: cmd}
			e.fail(&result, startTime, fmt.Errorf("%w: %s", fserrors.ErrUnknownCommand, cmd.Type))
		}
	}
	result.Command = cmd

	e.metrics.RecordCommand(cmd.Type, result.Success, result.ExecutionTime)
	e.logger.Info("command executed",
		zap.String("command", cmd.Type),
		zap.String("argument", cmd.Argument),
		zap.Bool("success", result.Success),
		zap.Duration("duration", result.ExecutionTime),
	)

	return result
}

// GetConfig returns the executor's configuration
func (e *Executor) GetConfig() *config.Config {
	return e.config
}

// Sandbox returns the executor's sandbox
func (e *Executor) Sandbox() *sandbox.Sandbox {
	return e.sandbox
}

// fail marks result as failed, sanitizing err for the LLM and auditing the
// full message
func (e *Executor) fail(result *scanner.ExecutionResult, startTime time.Time, err error) {
	result.Success = false
	result.Error = SanitizeError(err, e.sandbox.Roots()...)
	result.ExecutionTime = time.Since(startTime)
	e.audit(result.Command.Type, result.Command.Argument, false, err.Error())
}

// succeed marks result as successful and audits msg
func (e *Executor) succeed(result *scanner.ExecutionResult, startTime time.Time, msg string) {
	result.Success = true
	result.ExecutionTime = time.Since(startTime)
	e.audit(result.Command.Type, result.Command.Argument, true, msg)
}

func (e *Executor) audit(cmd, arg string, success bool, msg string) {
	if e.auditLog != nil {
		e.auditLog(cmd, arg, success, msg)
	}
}
