package sandbox

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// AuditEntry is one persisted audit row
type AuditEntry struct {
	ID        int64
	Timestamp time.Time
	SessionID string
	Command   string
	Argument  string
	Success   bool
	Message   string
}

// AuditStore persists audit entries in SQLite so they can be queried
// after the session ends
type AuditStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewAuditStore opens the database at dbPath and creates the schema
func NewAuditStore(dbPath string) (*AuditStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// sqlite allows a single writer
	db.SetMaxOpenConns(1)

	schema := `
	CREATE TABLE IF NOT EXISTS audit (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		ts DATETIME NOT NULL,
		session TEXT NOT NULL,
		command TEXT NOT NULL,
		argument TEXT NOT NULL,
		success BOOLEAN NOT NULL,
		message TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_audit_session ON audit(session);
	CREATE INDEX IF NOT EXISTS idx_audit_ts ON audit(ts);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize audit schema: %w", err)
	}

	return &AuditStore{db: db, now: time.Now}, nil
}

// Record inserts one audit row
func (s *AuditStore) Record(sessionID, command, argument string, success bool, message string) error {
	query := `
		INSERT INTO audit (ts, session, command, argument, success, message)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.Exec(query, s.now().UTC(), sessionID, command, argument, success, message)
	return err
}

// Recent returns up to limit rows, newest first. An empty sessionID
// matches every session.
func (s *AuditStore) Recent(sessionID string, limit int) ([]AuditEntry, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, ts, session, command, argument, success, message
		FROM audit
		WHERE (? = '' OR session = ?)
		ORDER BY id DESC
		LIMIT ?
	`
	rows, err := s.db.Query(query, sessionID, sessionID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []AuditEntry
	for rows.Next() {
		var e AuditEntry
		var msg sql.NullString
		if err := rows.Scan(&e.ID, &e.Timestamp, &e.SessionID, &e.Command, &e.Argument, &e.Success, &msg); err != nil {
			return nil, err
		}
		e.Message = msg.String
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// Close closes the database
func (s *AuditStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
