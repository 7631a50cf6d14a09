// Package store defines the storage interface and implementations.
package store

import (
	"context"
	"time"

	"github.com/panatch1992-cell/mindfitness-chat/internal/domain"
)

// Store defines the interface for data persistence.
// Lookup methods return (nil, nil) when the record does not exist.
type Store interface {
	// Session operations
	CreateSession(ctx context.Context, session *domain.Session) error
	GetSession(ctx context.Context, sessionID string) (*domain.Session, error)
	GetActiveSessionFor(ctx context.Context, participantID string) (*domain.Session, error)
	EndSession(ctx context.Context, sessionID, endedBy string, at time.Time) error

	// Message operations
	CreateMessage(ctx context.Context, message *domain.Message) error
	GetMessages(ctx context.Context, sessionID string, limit int) ([]domain.Message, error)
	TrimMessages(ctx context.Context, sessionID string, keep int) error

	// Report operations
	CreateReport(ctx context.Context, report *domain.Report) error

	// Lifecycle
	Close() error
}
