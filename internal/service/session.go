package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/panatch1992-cell/mindfitness-chat/internal/domain"
)

// maxMessageLen is the content cap applied after trimming.
const maxMessageLen = 1000

// SendMessage validates and appends a user message. On AI sessions the
// partner reply is generated and appended before returning; the caller
// only gets the stored user message back and picks up the AI reply on
// the next poll.
func (s *Service) SendMessage(ctx context.Context, userID, chatID, content string) (*domain.Message, error) {
	content = strings.TrimSpace(content)
	if runes := []rune(content); len(runes) > maxMessageLen {
		content = string(runes[:maxMessageLen])
	}

	lock := s.locks.acquire(chatID)
	lock.Lock()
	defer lock.Unlock()

	session, err := s.store.GetSession(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	if session.Status != domain.SessionStatusActive {
		return nil, ErrSessionEnded
	}
	if !session.HasParticipant(userID) {
		return nil, ErrNotParticipant
	}
	if content == "" {
		return nil, ErrEmptyMessage
	}

	sender := session.ParticipantA
	if session.ParticipantB.ID == userID {
		sender = session.ParticipantB
	}

	msg := &domain.Message{
		ID:           newID("msg"),
		SessionID:    chatID,
		SenderID:     userID,
		SenderAvatar: sender.Avatar,
		SenderName:   sender.Name,
		Content:      content,
		CreatedAt:    s.now(),
	}
	if err := s.store.CreateMessage(ctx, msg); err != nil {
		return nil, fmt.Errorf("store message: %w", err)
	}

	if session.IsAISession {
		reply := s.responder.Reply(ctx, chatID, content)
		aiProfile := s.responder.Profile()
		aiMsg := &domain.Message{
			ID:           newID("msg"),
			SessionID:    chatID,
			SenderID:     aiProfile.ID,
			SenderAvatar: aiProfile.Avatar,
			SenderName:   aiProfile.Name,
			Content:      reply,
			IsAI:         true,
			CreatedAt:    s.now(),
		}
		if err := s.store.CreateMessage(ctx, aiMsg); err != nil {
			return nil, fmt.Errorf("store AI reply: %w", err)
		}
	}

	if err := s.store.TrimMessages(ctx, chatID, s.config.MessageRetention); err != nil {
		s.log.Warn("message trim failed", "chatId", chatID, "err", err)
	}

	return msg, nil
}

// GetMessages returns the bounded message log together with the session.
// Ended sessions stay readable so a final poll can observe the end event.
func (s *Service) GetMessages(ctx context.Context, userID, chatID string) ([]domain.Message, *domain.Session, error) {
	session, err := s.store.GetSession(ctx, chatID)
	if err != nil {
		return nil, nil, fmt.Errorf("get session: %w", err)
	}
	if session == nil {
		return nil, nil, ErrSessionNotFound
	}
	if !session.HasParticipant(userID) {
		return nil, nil, ErrNotParticipant
	}

	messages, err := s.store.GetMessages(ctx, chatID, s.config.MessageHistoryLimit)
	if err != nil {
		return nil, nil, fmt.Errorf("get messages: %w", err)
	}
	return messages, session, nil
}

// EndSession ends a session. Idempotent: ending an unknown or already
// ended session reports alreadyEnded without error.
func (s *Service) EndSession(ctx context.Context, userID, chatID string) (alreadyEnded bool, err error) {
	lock := s.locks.acquire(chatID)
	lock.Lock()
	defer lock.Unlock()

	session, err := s.store.GetSession(ctx, chatID)
	if err != nil {
		return false, fmt.Errorf("get session: %w", err)
	}
	if session == nil || session.Status == domain.SessionStatusEnded {
		s.locks.release(chatID)
		return true, nil
	}

	if err := s.store.EndSession(ctx, chatID, userID, s.now()); err != nil {
		return false, fmt.Errorf("end session: %w", err)
	}

	s.appendSystemMessage(ctx, chatID, msgConversationEnded)
	s.responder.Forget(chatID)
	s.locks.release(chatID)

	s.log.Info("session ended", "chatId", chatID, "endedBy", userID)
	return false, nil
}

// Heartbeat is a best-effort liveness signal. With a resolvable chatID
// it reports the session status; otherwise it refreshes the queue
// timestamp. Never errors.
func (s *Service) Heartbeat(ctx context.Context, userID, chatID string) domain.SessionStatus {
	if chatID != "" {
		session, err := s.store.GetSession(ctx, chatID)
		if err != nil {
			s.log.Warn("heartbeat session lookup failed", "chatId", chatID, "err", err)
		}
		if session != nil {
			return session.Status
		}
	}

	if err := s.queue.Refresh(ctx, userID, s.now()); err != nil {
		s.log.Warn("heartbeat queue refresh failed", "userId", userID, "err", err)
	}
	return ""
}

// Report records a moderation report. Best effort: persistence or triage
// failure never surfaces to the caller.
func (s *Service) Report(ctx context.Context, userID, chatID, reason string) string {
	if reason == "" {
		reason = "inappropriate behavior"
	}

	severity := "routine"
	if s.triage != nil {
		if sev, err := s.triage.Evaluate(ctx, map[string]interface{}{
			"reason":      reason,
			"session_id":  chatID,
			"reporter_id": userID,
		}); err == nil {
			severity = sev
		} else {
			s.log.Warn("report triage failed", "chatId", chatID, "err", err)
		}
	}

	report := &domain.Report{
		ID:         newID("report"),
		SessionID:  chatID,
		ReporterID: userID,
		Reason:     reason,
		Severity:   severity,
		CreatedAt:  s.now(),
	}
	if err := s.store.CreateReport(ctx, report); err != nil {
		s.log.Error("failed to store report", "chatId", chatID, "err", err)
		return "Report submitted."
	}

	if severity == "urgent" {
		s.log.Warn("urgent report filed", "chatId", chatID, "reporter", userID, "reason", reason)
	} else {
		s.log.Info("report filed", "chatId", chatID, "severity", severity)
	}
	return "Report submitted. Thank you for helping keep our community safe."
}
