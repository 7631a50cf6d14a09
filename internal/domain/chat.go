// Package domain defines the core domain models for the chat service.
package domain

import (
	"time"
)

// SessionStatus represents the status of a chat session.
type SessionStatus string

const (
	SessionStatusActive SessionStatus = "active"
	SessionStatusEnded  SessionStatus = "ended"
)

// SystemSenderID is the sender id used for system messages.
const SystemSenderID = "system"

// Participant is the anonymous profile shown to the chat partner.
type Participant struct {
	ID     string `json:"id"`
	Avatar string `json:"avatar"`
	Name   string `json:"name"`
	IsAI   bool   `json:"isAI,omitempty"`
}

// QueueEntry is a participant waiting in the matching queue.
type QueueEntry struct {
	Participant
	QueuedAt time.Time `json:"queuedAt"`
}

// Session is a two-party conversation, human-human or human-AI.
// The participant pair is immutable once created; only status and
// end metadata change afterwards.
type Session struct {
	ID           string        `json:"chatId"`
	ParticipantA Participant   `json:"participantA"`
	ParticipantB Participant   `json:"participantB"`
	IsAISession  bool          `json:"isAISession"`
	Status       SessionStatus `json:"status"`
	CreatedAt    time.Time     `json:"createdAt"`
	EndedAt      *time.Time    `json:"endedAt,omitempty"`
	EndedBy      string        `json:"endedBy,omitempty"`
}

// HasParticipant reports whether the given id occupies one of the two slots.
func (s *Session) HasParticipant(id string) bool {
	return s.ParticipantA.ID == id || s.ParticipantB.ID == id
}

// PartnerOf returns the other participant's profile.
func (s *Session) PartnerOf(id string) Participant {
	if s.ParticipantA.ID == id {
		return s.ParticipantB
	}
	return s.ParticipantA
}

// Message is a single entry in a session's append-only log.
type Message struct {
	ID           string    `json:"id"`
	SessionID    string    `json:"sessionId"`
	SenderID     string    `json:"senderId"`
	SenderAvatar string    `json:"senderAvatar,omitempty"`
	SenderName   string    `json:"senderName,omitempty"`
	Content      string    `json:"content"`
	IsAI         bool      `json:"isAI,omitempty"`
	IsSystem     bool      `json:"isSystem,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Report is a moderation report filed against a session.
type Report struct {
	ID         string    `json:"id"`
	SessionID  string    `json:"sessionId"`
	ReporterID string    `json:"reporterId"`
	Reason     string    `json:"reason"`
	Severity   string    `json:"severity"`
	CreatedAt  time.Time `json:"createdAt"`
}
