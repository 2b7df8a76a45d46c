package sandbox

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// AuditLogger appends one JSON line per tool command to a file
type AuditLogger struct {
	logger *zap.Logger
	file   *os.File
}

// NewAuditLogger opens (or creates) the audit log at logPath for appending
func NewAuditLogger(logPath string) (*AuditLogger, error) {
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("could not open audit log: %w", err)
	}

	encCfg := zapcore.EncoderConfig{
		TimeKey:        "ts",
		MessageKey:     "event",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeTime:     zapcore.RFC3339TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
	}
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(file), zapcore.InfoLevel)

	return &AuditLogger{
		logger: zap.New(core),
		file:   file,
	}, nil
}

// Log writes an audit log entry
func (a *AuditLogger) Log(sessionID, command, argument string, success bool, errorMsg string) {
	if a == nil || a.logger == nil {
		return
	}

	status := "success"
	if !success {
		status = "failed"
	}

	fields := []zap.Field{
		zap.String("session", sessionID),
		zap.String("command", command),
		zap.String("argument", argument),
		zap.String("status", status),
	}
	if errorMsg != "" {
		fields = append(fields, zap.String("error", errorMsg))
	}

	a.logger.Info("command", fields...)
}

// Close flushes and closes the audit log file
func (a *AuditLogger) Close() error {
	if a == nil || a.file == nil {
		return nil
	}
	_ = a.logger.Sync()
	return a.file.Close()
}
