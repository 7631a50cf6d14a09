package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/samber/lo"

	"github.com/panatch1992-cell/mindfitness-chat/internal/domain"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// migrate runs database migrations.
func (s *SQLiteStore) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS chat_sessions (
			session_id TEXT PRIMARY KEY,
			user1_id TEXT NOT NULL,
			user1_avatar TEXT,
			user1_name TEXT,
			user2_id TEXT NOT NULL,
			user2_avatar TEXT,
			user2_name TEXT,
			is_ai INTEGER NOT NULL DEFAULT 0,
			status TEXT NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			ended_at DATETIME,
			ended_by TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_users ON chat_sessions(user1_id, user2_id, status)`,
		`CREATE TABLE IF NOT EXISTS chat_messages (
			message_id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			sender_id TEXT NOT NULL,
			sender_avatar TEXT,
			sender_name TEXT,
			content TEXT NOT NULL,
			is_ai INTEGER NOT NULL DEFAULT 0,
			is_system INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (session_id) REFERENCES chat_sessions(session_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_session ON chat_messages(session_id, created_at)`,
		`CREATE TABLE IF NOT EXISTS chat_reports (
			report_id TEXT PRIMARY KEY,
			session_id TEXT,
			reporter_id TEXT,
			reason TEXT NOT NULL,
			severity TEXT NOT NULL DEFAULT 'routine',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\n%s", err, m)
		}
	}

	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateSession creates a new session.
func (s *SQLiteStore) CreateSession(ctx context.Context, session *domain.Session) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO chat_sessions (session_id, user1_id, user1_avatar, user1_name,
			user2_id, user2_avatar, user2_name, is_ai, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		session.ID,
		session.ParticipantA.ID, session.ParticipantA.Avatar, session.ParticipantA.Name,
		session.ParticipantB.ID, session.ParticipantB.Avatar, session.ParticipantB.Name,
		session.IsAISession, session.Status, session.CreatedAt)
	return err
}

// GetSession retrieves a session by ID.
func (s *SQLiteStore) GetSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT session_id, user1_id, user1_avatar, user1_name,
			user2_id, user2_avatar, user2_name, is_ai, status, created_at, ended_at, ended_by
		 FROM chat_sessions WHERE session_id = ?`, sessionID)
	return scanSession(row)
}

// GetActiveSessionFor retrieves the active session containing the given
// participant, if any.
func (s *SQLiteStore) GetActiveSessionFor(ctx context.Context, participantID string) (*domain.Session, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT session_id, user1_id, user1_avatar, user1_name,
			user2_id, user2_avatar, user2_name, is_ai, status, created_at, ended_at, ended_by
		 FROM chat_sessions
		 WHERE (user1_id = ? OR user2_id = ?) AND status = 'active'
		 ORDER BY created_at DESC LIMIT 1`, participantID, participantID)
	return scanSession(row)
}

// EndSession marks a session ended and records who ended it and when.
func (s *SQLiteStore) EndSession(ctx context.Context, sessionID, endedBy string, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE chat_sessions SET status = ?, ended_by = ?, ended_at = ? WHERE session_id = ?`,
		domain.SessionStatusEnded, endedBy, at, sessionID)
	return err
}

// CreateMessage creates a new message.
func (s *SQLiteStore) CreateMessage(ctx context.Context, message *domain.Message) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO chat_messages (message_id, session_id, sender_id, sender_avatar,
			sender_name, content, is_ai, is_system, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		message.ID, message.SessionID, message.SenderID, message.SenderAvatar,
		message.SenderName, message.Content, message.IsAI, message.IsSystem, message.CreatedAt)
	return err
}

// GetMessages retrieves up to `limit` of the newest messages for a
// session, returned in creation order.
func (s *SQLiteStore) GetMessages(ctx context.Context, sessionID string, limit int) ([]domain.Message, error) {
	query := `SELECT message_id, session_id, sender_id, sender_avatar, sender_name,
			content, is_ai, is_system, created_at
		 FROM chat_messages WHERE session_id = ? ORDER BY created_at DESC`
	args := []interface{}{sessionID}

	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []domain.Message
	for rows.Next() {
		var msg domain.Message
		var avatar, name sql.NullString
		if err := rows.Scan(&msg.ID, &msg.SessionID, &msg.SenderID, &avatar, &name,
			&msg.Content, &msg.IsAI, &msg.IsSystem, &msg.CreatedAt); err != nil {
			return nil, err
		}
		msg.SenderAvatar = avatar.String
		msg.SenderName = name.String
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	lo.Reverse(messages)
	return messages, nil
}

// TrimMessages deletes everything but the newest `keep` messages of a session.
func (s *SQLiteStore) TrimMessages(ctx context.Context, sessionID string, keep int) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM chat_messages WHERE session_id = ? AND message_id NOT IN (
			SELECT message_id FROM chat_messages WHERE session_id = ?
			ORDER BY created_at DESC LIMIT ?
		)`, sessionID, sessionID, keep)
	return err
}

// CreateReport stores a moderation report.
func (s *SQLiteStore) CreateReport(ctx context.Context, report *domain.Report) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO chat_reports (report_id, session_id, reporter_id, reason, severity, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		report.ID, report.SessionID, report.ReporterID, report.Reason, report.Severity, report.CreatedAt)
	return err
}

func scanSession(row *sql.Row) (*domain.Session, error) {
	var session domain.Session
	var endedAt sql.NullTime
	var endedBy sql.NullString
	err := row.Scan(&session.ID,
		&session.ParticipantA.ID, &session.ParticipantA.Avatar, &session.ParticipantA.Name,
		&session.ParticipantB.ID, &session.ParticipantB.Avatar, &session.ParticipantB.Name,
		&session.IsAISession, &session.Status, &session.CreatedAt, &endedAt, &endedBy)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if endedAt.Valid {
		session.EndedAt = &endedAt.Time
	}
	if endedBy.Valid {
		session.EndedBy = endedBy.String
	}
	// The AI partner always occupies the second slot.
	if session.IsAISession {
		session.ParticipantB.IsAI = true
	}
	return &session, nil
}
