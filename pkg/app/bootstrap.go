package app

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/computerscienceiscool/llm-fstools/internal/logging"
	"github.com/computerscienceiscool/llm-fstools/internal/metrics"
	"github.com/computerscienceiscool/llm-fstools/pkg/config"
	"github.com/computerscienceiscool/llm-fstools/pkg/dynrepo"
	"github.com/computerscienceiscool/llm-fstools/pkg/evaluator"
	"github.com/computerscienceiscool/llm-fstools/pkg/sandbox"
	"github.com/computerscienceiscool/llm-fstools/pkg/session"
)

// Bootstrap initializes and returns a configured App
func Bootstrap(cfg *config.Config) (*App, error) {
	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("invalid logging config: %w", err)
	}

	a := &App{
		config:  cfg,
		logger:  logger,
		metrics: metrics.New(),
	}

	if cfg.Scratch {
		repo, err := dynrepo.Create()
		if err != nil {
			return nil, fmt.Errorf("failed to create scratch repo: %w", err)
		}
		a.scratch = repo
		cfg.Roots = []string{repo.Dir}
		logger.Info("using scratch repository", zap.String("dir", repo.Dir))
	}

	// Resolve roots to absolute paths and verify they exist
	for i, root := range cfg.Roots {
		absRoot, err := filepath.Abs(root)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("cannot resolve root %s: %w", root, err)
		}
		info, err := os.Stat(absRoot)
		if err != nil || !info.IsDir() {
			a.Close()
			return nil, fmt.Errorf("root is not a directory: %s", absRoot)
		}
		cfg.Roots[i] = absRoot
	}

	a.sandbox, err = sandbox.New(cfg.Roots,
		sandbox.WithExcludedPaths(cfg.ExcludedPaths),
		sandbox.WithLogger(logger),
		sandbox.WithDenyHook(a.metrics.RecordDenial),
	)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to create sandbox: %w", err)
	}

	var auditLog *sandbox.AuditLogger
	if cfg.Security.AuditLogPath != "" {
		auditLog, err = sandbox.NewAuditLogger(cfg.Security.AuditLogPath)
		if err != nil {
			// audit file is best effort; the sqlite store and zap logs remain
			logger.Warn("could not open audit log", zap.Error(err))
		}
	}

	var auditStore *sandbox.AuditStore
	if cfg.Security.AuditDBPath != "" {
		auditStore, err = sandbox.NewAuditStore(cfg.Security.AuditDBPath)
		if err != nil {
			auditLog.Close()
			a.Close()
			return nil, fmt.Errorf("failed to open audit database: %w", err)
		}
	}

	a.session = session.NewSession(auditLog, auditStore, logger)
	a.executor = evaluator.NewExecutor(cfg, a.sandbox, a.session.LogAudit,
		evaluator.WithLogger(logger),
		evaluator.WithMetrics(a.metrics),
	)

	return a, nil
}
