package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panatch1992-cell/mindfitness-chat/internal/domain"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	s, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create sqlite store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testSession(id string) *domain.Session {
	return &domain.Session{
		ID:           id,
		ParticipantA: domain.Participant{ID: "user_a", Avatar: "a.svg", Name: "เพื่อนใหม่"},
		ParticipantB: domain.Participant{ID: "user_b", Avatar: "b.svg", Name: "ใครบางคน"},
		Status:       domain.SessionStatusActive,
		CreatedAt:    time.Now(),
	}
}

func TestSessionLifecycle(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.CreateSession(ctx, testSession("room_1")))

	got, err := s.GetSession(ctx, "room_1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "room_1", got.ID)
	assert.Equal(t, "user_a", got.ParticipantA.ID)
	assert.Equal(t, "เพื่อนใหม่", got.ParticipantA.Name)
	assert.Equal(t, "user_b", got.ParticipantB.ID)
	assert.Equal(t, domain.SessionStatusActive, got.Status)
	assert.False(t, got.IsAISession)
	assert.Nil(t, got.EndedAt)

	missing, err := s.GetSession(ctx, "room_nope")
	assert.NoError(t, err)
	assert.Nil(t, missing)

	endedAt := time.Now()
	require.NoError(t, s.EndSession(ctx, "room_1", "user_a", endedAt))

	got, err = s.GetSession(ctx, "room_1")
	require.NoError(t, err)
	assert.Equal(t, domain.SessionStatusEnded, got.Status)
	assert.Equal(t, "user_a", got.EndedBy)
	require.NotNil(t, got.EndedAt)
}

func TestGetActiveSessionFor(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.CreateSession(ctx, testSession("room_1")))

	for _, id := range []string{"user_a", "user_b"} {
		got, err := s.GetActiveSessionFor(ctx, id)
		require.NoError(t, err)
		require.NotNil(t, got, "expected active session for %s", id)
		assert.Equal(t, "room_1", got.ID)
	}

	got, err := s.GetActiveSessionFor(ctx, "user_c")
	assert.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, s.EndSession(ctx, "room_1", "user_a", time.Now()))
	got, err = s.GetActiveSessionFor(ctx, "user_a")
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestAISessionMarksPartner(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	session := testSession("room_ai")
	session.ParticipantB = domain.Participant{ID: "ai_mind", Name: "น้องมายด์ AI", IsAI: true}
	session.IsAISession = true
	require.NoError(t, s.CreateSession(ctx, session))

	got, err := s.GetSession(ctx, "room_ai")
	require.NoError(t, err)
	assert.True(t, got.IsAISession)
	assert.True(t, got.ParticipantB.IsAI)
}

func TestMessagesOrderAndLimit(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.CreateSession(ctx, testSession("room_1")))

	base := time.Now()
	for i := 0; i < 5; i++ {
		require.NoError(t, s.CreateMessage(ctx, &domain.Message{
			ID:        fmt.Sprintf("msg_%d", i),
			SessionID: "room_1",
			SenderID:  "user_a",
			Content:   fmt.Sprintf("message %d", i),
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}))
	}

	all, err := s.GetMessages(ctx, "room_1", 0)
	require.NoError(t, err)
	require.Len(t, all, 5)
	for i, m := range all {
		assert.Equal(t, fmt.Sprintf("message %d", i), m.Content)
	}

	// A limit keeps the newest messages, still in creation order.
	recent, err := s.GetMessages(ctx, "room_1", 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "message 3", recent[0].Content)
	assert.Equal(t, "message 4", recent[1].Content)
}

func TestTrimMessagesKeepsNewest(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.CreateSession(ctx, testSession("room_1")))

	base := time.Now()
	for i := 0; i < 6; i++ {
		require.NoError(t, s.CreateMessage(ctx, &domain.Message{
			ID:        fmt.Sprintf("msg_%d", i),
			SessionID: "room_1",
			SenderID:  "user_a",
			Content:   fmt.Sprintf("message %d", i),
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}))
	}

	require.NoError(t, s.TrimMessages(ctx, "room_1", 3))

	remaining, err := s.GetMessages(ctx, "room_1", 0)
	require.NoError(t, err)
	require.Len(t, remaining, 3)
	assert.Equal(t, "message 3", remaining[0].Content)
	assert.Equal(t, "message 5", remaining[2].Content)
}

func TestCreateReport(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	err := s.CreateReport(ctx, &domain.Report{
		ID:         "report_1",
		SessionID:  "room_1",
		ReporterID: "user_a",
		Reason:     "inappropriate behavior",
		Severity:   "routine",
		CreatedAt:  time.Now(),
	})
	assert.NoError(t, err)
}
