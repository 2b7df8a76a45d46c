package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/computerscienceiscool/llm-fstools/internal/logging"
	"github.com/computerscienceiscool/llm-fstools/pkg/sandbox"
)

// Session manages a tool execution session
type Session struct {
	ID        string
	StartTime time.Time

	mu          sync.Mutex
	commandsRun int

	auditLog   *sandbox.AuditLogger
	auditStore *sandbox.AuditStore
	logger     *zap.Logger
}

// NewSession creates a new execution session. Either audit sink may be nil.
func NewSession(auditLog *sandbox.AuditLogger, auditStore *sandbox.AuditStore, logger *zap.Logger) *Session {
	return &Session{
		ID:         uuid.NewString(),
		StartTime:  time.Now(),
		auditLog:   auditLog,
		auditStore: auditStore,
		logger:     logging.OrNop(logger),
	}
}

// LogAudit writes an audit entry to the log file and, when configured, the
// audit database
func (s *Session) LogAudit(command, argument string, success bool, errorMsg string) {
	s.auditLog.Log(s.ID, command, argument, success, errorMsg)

	if s.auditStore != nil {
		if err := s.auditStore.Record(s.ID, command, argument, success, errorMsg); err != nil {
			s.logger.Warn("failed to record audit entry", zap.String("command", command), zap.Error(err))
		}
	}
}

// IncrementCommandsRun counts one successfully executed command
func (s *Session) IncrementCommandsRun() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commandsRun++
}

// CommandsRun returns the number of successfully executed commands
func (s *Session) CommandsRun() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commandsRun
}

// Close flushes and closes both audit sinks
func (s *Session) Close() error {
	logErr := s.auditLog.Close()
	storeErr := s.auditStore.Close()
	if logErr != nil {
		return logErr
	}
	return storeErr
}
