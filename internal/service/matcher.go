package service

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/google/uuid"

	"github.com/panatch1992-cell/mindfitness-chat/internal/domain"
)

// Mascot avatar images shown to anonymous participants.
var avatars = []string{
	"../images/mind-mascot/avatar-1.svg",
	"../images/mind-mascot/avatar-2.svg",
	"../images/mind-mascot/avatar-3.svg",
	"../images/mind-mascot/avatar-4.svg",
	"../images/mind-mascot/avatar-5.svg",
	"../images/mind-mascot/avatar-6.svg",
}

var displayNames = []string{
	"เพื่อนร่วมทาง",
	"คนแปลกหน้า",
	"ผู้ฟังที่ดี",
	"เพื่อนใหม่",
	"ใครบางคน",
	"ผู้เดินทาง",
}

// System messages (Thai).
const (
	msgConversationStarted = "เริ่มการสนทนาแล้ว พูดคุยอย่างสุภาพนะคะ"
	msgAIIntro             = "คุณกำลังคุยกับน้องมายด์ AI ผู้ฟังที่พร้อมรับฟังคุณค่ะ"
	msgConversationEnded   = "การสนทนาสิ้นสุดแล้ว ขอบคุณที่ใช้บริการค่ะ"
)

func newID(prefix string) string {
	return prefix + "_" + uuid.New().String()[:8]
}

func randomProfile(id string) domain.Participant {
	return domain.Participant{
		ID:     id,
		Avatar: avatars[rand.IntN(len(avatars))],
		Name:   displayNames[rand.IntN(len(displayNames))],
	}
}

// JoinQueue enqueues a participant (generating an id when absent),
// evicts stale entries and immediately attempts a match.
func (s *Service) JoinQueue(ctx context.Context, userID string) (*domain.JoinQueueResult, error) {
	if userID == "" {
		userID = newID("user")
	}

	entry := domain.QueueEntry{
		Participant: randomProfile(userID),
		QueuedAt:    s.now(),
	}
	if err := s.queue.Enqueue(ctx, entry); err != nil {
		return nil, fmt.Errorf("enqueue: %w", err)
	}
	if err := s.queue.EvictStale(ctx, s.config.QueueStaleAfter); err != nil {
		s.log.Warn("stale eviction failed", "err", err)
	}

	session, err := s.tryMatch(ctx)
	if err != nil {
		return nil, err
	}
	if session != nil && session.HasParticipant(userID) {
		partner := session.PartnerOf(userID)
		return &domain.JoinQueueResult{
			Success:     true,
			UserID:      userID,
			Matched:     true,
			IsAIPartner: false,
			ChatID:      session.ID,
			Partner:     &partner,
		}, nil
	}

	position, err := s.queue.PositionOf(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("queue position: %w", err)
	}
	size, err := s.queue.Len(ctx)
	if err != nil {
		return nil, fmt.Errorf("queue size: %w", err)
	}

	return &domain.JoinQueueResult{
		Success:       true,
		UserID:        userID,
		Matched:       false,
		QueuePosition: position,
		QueueSize:     size,
		CanRequestAI:  true,
	}, nil
}

// tryMatch pops the two oldest waiting participants and creates a
// human-human session for them. If session persistence fails after the
// pop, both entries are restored to the head of the queue so neither
// participant is silently lost.
func (s *Service) tryMatch(ctx context.Context) (*domain.Session, error) {
	first, second, err := s.queue.TryMatch(ctx)
	if err != nil {
		return nil, fmt.Errorf("try match: %w", err)
	}
	if first == nil {
		return nil, nil
	}

	session := &domain.Session{
		ID:           newID("room"),
		ParticipantA: first.Participant,
		ParticipantB: second.Participant,
		IsAISession:  false,
		Status:       domain.SessionStatusActive,
		CreatedAt:    s.now(),
	}

	if err := s.store.CreateSession(ctx, session); err != nil {
		if rerr := s.queue.RestoreFront(ctx, *first, *second); rerr != nil {
			s.log.Error("failed to restore queue entries after create failure",
				"first", first.ID, "second", second.ID, "err", rerr)
		}
		return nil, fmt.Errorf("create session: %w", err)
	}

	s.appendSystemMessage(ctx, session.ID, msgConversationStarted)

	s.log.Info("matched participants",
		"chatId", session.ID, "first", first.ID, "second", second.ID)
	return session, nil
}

// LeaveQueue removes a participant from the queue. Fire-and-forget.
func (s *Service) LeaveQueue(ctx context.Context, userID string) error {
	return s.queue.Remove(ctx, userID)
}

// RequestAI creates an AI-backed session for the participant, removing
// them from the queue first.
func (s *Service) RequestAI(ctx context.Context, userID string) (*domain.JoinQueueResult, error) {
	if err := s.queue.Remove(ctx, userID); err != nil {
		s.log.Warn("queue removal before AI session failed", "userId", userID, "err", err)
	}

	aiProfile := s.responder.Profile()
	session := &domain.Session{
		ID:           newID("room"),
		ParticipantA: randomProfile(userID),
		ParticipantB: aiProfile,
		IsAISession:  true,
		Status:       domain.SessionStatusActive,
		CreatedAt:    s.now(),
	}

	if err := s.store.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("create AI session: %w", err)
	}

	s.appendSystemMessage(ctx, session.ID, msgAIIntro)

	greetingMsg := &domain.Message{
		ID:           newID("msg"),
		SessionID:    session.ID,
		SenderID:     aiProfile.ID,
		SenderAvatar: aiProfile.Avatar,
		SenderName:   aiProfile.Name,
		Content:      s.responder.Greeting(),
		IsAI:         true,
		CreatedAt:    s.now(),
	}
	if err := s.store.CreateMessage(ctx, greetingMsg); err != nil {
		s.log.Error("failed to store AI greeting", "chatId", session.ID, "err", err)
	}

	s.responder.StartContext(session.ID)

	return &domain.JoinQueueResult{
		Success:     true,
		UserID:      userID,
		Matched:     true,
		IsAIPartner: true,
		ChatID:      session.ID,
		Partner:     &aiProfile,
	}, nil
}

// CheckMatch reports queue progress for a waiting participant,
// opportunistically retrying a match, or resolves the active session
// containing the participant.
func (s *Service) CheckMatch(ctx context.Context, userID string) (*domain.CheckMatchResult, error) {
	entry, err := s.queue.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("queue lookup: %w", err)
	}

	if entry != nil {
		waitTime := s.now().Sub(entry.QueuedAt)

		session, err := s.tryMatch(ctx)
		if err != nil {
			// Match failure while polling is not fatal; the participant
			// keeps waiting and the popped pair has been restored.
			s.log.Error("opportunistic match failed", "userId", userID, "err", err)
		}
		if session != nil && session.HasParticipant(userID) {
			partner := session.PartnerOf(userID)
			return &domain.CheckMatchResult{
				Success:     true,
				Matched:     true,
				IsAIPartner: false,
				ChatID:      session.ID,
				Partner:     &partner,
			}, nil
		}

		position, err := s.queue.PositionOf(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("queue position: %w", err)
		}
		return &domain.CheckMatchResult{
			Success:       true,
			Matched:       false,
			QueuePosition: position,
			WaitTime:      waitTime.Milliseconds(),
			SuggestAI:     waitTime > s.config.SuggestAIAfter,
		}, nil
	}

	session, err := s.store.GetActiveSessionFor(ctx, userID)
	if err != nil {
		s.log.Error("active session lookup failed", "userId", userID, "err", err)
		session = nil
	}
	if session != nil {
		partner := session.PartnerOf(userID)
		return &domain.CheckMatchResult{
			Success:       true,
			Matched:       true,
			IsAIPartner:   session.IsAISession,
			ChatID:        session.ID,
			Partner:       &partner,
			SessionStatus: session.Status,
		}, nil
	}

	return &domain.CheckMatchResult{
		Success:    true,
		Matched:    false,
		NotInQueue: true,
	}, nil
}

// appendSystemMessage stores a system message, logging on failure.
func (s *Service) appendSystemMessage(ctx context.Context, sessionID, content string) {
	msg := &domain.Message{
		ID:        newID("msg"),
		SessionID: sessionID,
		SenderID:  domain.SystemSenderID,
		Content:   content,
		IsSystem:  true,
		CreatedAt: s.now(),
	}
	if err := s.store.CreateMessage(ctx, msg); err != nil {
		s.log.Error("failed to store system message", "chatId", sessionID, "err", err)
	}
}
