package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panatch1992-cell/mindfitness-chat/internal/ai"
	"github.com/panatch1992-cell/mindfitness-chat/internal/config"
	"github.com/panatch1992-cell/mindfitness-chat/internal/domain"
	"github.com/panatch1992-cell/mindfitness-chat/internal/queue"
	"github.com/panatch1992-cell/mindfitness-chat/internal/store"
	"github.com/panatch1992-cell/mindfitness-chat/tests/helpers"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() *config.Config {
	return &config.Config{
		QueueStaleAfter:     time.Minute,
		SuggestAIAfter:      15 * time.Second,
		MessageHistoryLimit: 100,
		MessageRetention:    200,
	}
}

func newTestService(t *testing.T) *Service {
	t.Helper()

	st := helpers.NewTestSQLiteStore(t)
	q, err := queue.New(queue.DriverMemory)
	if err != nil {
		t.Fatalf("failed to create queue: %v", err)
	}
	t.Cleanup(func() { _ = q.Close() })

	responder := ai.NewResponder(nil, time.Minute, discardLogger())
	svc := New(st, q, responder, nil, testConfig())
	svc.log = discardLogger()
	return svc
}

func TestJoinQueueFirstParticipantWaits(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	res, err := svc.JoinQueue(ctx, "user_a")
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.False(t, res.Matched)
	assert.Equal(t, "user_a", res.UserID)
	assert.Equal(t, 1, res.QueuePosition)
	assert.Equal(t, 1, res.QueueSize)
	assert.True(t, res.CanRequestAI)
	assert.Empty(t, res.ChatID)
}

func TestJoinQueueGeneratesUserID(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	res, err := svc.JoinQueue(ctx, "")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(res.UserID, "user_"))
}

func TestJoinQueueMatchesPair(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	_, err := svc.JoinQueue(ctx, "user_a")
	require.NoError(t, err)

	res, err := svc.JoinQueue(ctx, "user_b")
	require.NoError(t, err)

	assert.True(t, res.Matched)
	assert.False(t, res.IsAIPartner)
	assert.True(t, strings.HasPrefix(res.ChatID, "room_"))
	require.NotNil(t, res.Partner)
	assert.Equal(t, "user_a", res.Partner.ID)
	assert.NotEmpty(t, res.Partner.Avatar)
	assert.NotEmpty(t, res.Partner.Name)

	// The first participant resolves the same session on the next poll.
	check, err := svc.CheckMatch(ctx, "user_a")
	require.NoError(t, err)
	assert.True(t, check.Matched)
	assert.Equal(t, res.ChatID, check.ChatID)
	require.NotNil(t, check.Partner)
	assert.Equal(t, "user_b", check.Partner.ID)

	// Both left the queue.
	n, err := svc.queue.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	// The session opens with a system message.
	messages, err := svc.store.GetMessages(ctx, res.ChatID, 0)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.True(t, messages[0].IsSystem)
	assert.Equal(t, domain.SystemSenderID, messages[0].SenderID)
	assert.Equal(t, msgConversationStarted, messages[0].Content)
}

type sessionCreateFailStore struct {
	store.Store
}

func (f *sessionCreateFailStore) CreateSession(ctx context.Context, session *domain.Session) error {
	return errors.New("disk full")
}

func TestJoinQueueRestoresPairWhenPersistenceFails(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	svc.store = &sessionCreateFailStore{Store: svc.store}

	_, err := svc.JoinQueue(ctx, "user_a")
	require.NoError(t, err)

	_, err = svc.JoinQueue(ctx, "user_b")
	require.Error(t, err)

	// Neither participant was lost, in original order.
	posA, err := svc.queue.PositionOf(ctx, "user_a")
	require.NoError(t, err)
	posB, err := svc.queue.PositionOf(ctx, "user_b")
	require.NoError(t, err)
	assert.Equal(t, 1, posA)
	assert.Equal(t, 2, posB)
}

func TestRequestAI(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	_, err := svc.JoinQueue(ctx, "user_a")
	require.NoError(t, err)

	res, err := svc.RequestAI(ctx, "user_a")
	require.NoError(t, err)

	assert.True(t, res.Matched)
	assert.True(t, res.IsAIPartner)
	require.NotNil(t, res.Partner)
	assert.Equal(t, "ai_mind", res.Partner.ID)
	assert.True(t, res.Partner.IsAI)

	// Left the matching queue.
	entry, err := svc.queue.Get(ctx, "user_a")
	require.NoError(t, err)
	assert.Nil(t, entry)

	session, err := svc.store.GetSession(ctx, res.ChatID)
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.True(t, session.IsAISession)

	// Intro system message followed by the AI greeting.
	messages, err := svc.store.GetMessages(ctx, res.ChatID, 0)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.True(t, messages[0].IsSystem)
	assert.True(t, messages[1].IsAI)
	assert.Equal(t, "ai_mind", messages[1].SenderID)
	assert.NotEmpty(t, messages[1].Content)
}

func TestCheckMatchSuggestsAIAfterWait(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	current := time.Now()
	svc.now = func() time.Time { return current }

	_, err := svc.JoinQueue(ctx, "user_a")
	require.NoError(t, err)

	// Shortly after joining there is no AI suggestion yet.
	res, err := svc.CheckMatch(ctx, "user_a")
	require.NoError(t, err)
	assert.False(t, res.Matched)
	assert.False(t, res.SuggestAI)
	assert.Equal(t, 1, res.QueuePosition)

	current = current.Add(16 * time.Second)

	res, err = svc.CheckMatch(ctx, "user_a")
	require.NoError(t, err)
	assert.False(t, res.Matched)
	assert.True(t, res.SuggestAI)
	assert.GreaterOrEqual(t, res.WaitTime, int64(15000))
}

func TestCheckMatchUnknownParticipant(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	res, err := svc.CheckMatch(ctx, "user_ghost")
	require.NoError(t, err)
	assert.False(t, res.Matched)
	assert.True(t, res.NotInQueue)
}

func TestLeaveQueue(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	_, err := svc.JoinQueue(ctx, "user_a")
	require.NoError(t, err)

	require.NoError(t, svc.LeaveQueue(ctx, "user_a"))

	res, err := svc.CheckMatch(ctx, "user_a")
	require.NoError(t, err)
	assert.True(t, res.NotInQueue)
}

func TestJoinQueueEvictsStaleEntries(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	// user_a stopped polling two minutes ago, so the next join evicts
	// them instead of matching, and user_b waits alone.
	stale := domain.QueueEntry{
		Participant: domain.Participant{ID: "user_a", Avatar: "a.svg", Name: "ใครบางคน"},
		QueuedAt:    time.Now().Add(-2 * time.Minute),
	}
	require.NoError(t, svc.queue.Enqueue(ctx, stale))

	res, err := svc.JoinQueue(ctx, "user_b")
	require.NoError(t, err)
	assert.False(t, res.Matched)
	assert.Equal(t, 1, res.QueuePosition)
	assert.Equal(t, 1, res.QueueSize)

	check, err := svc.CheckMatch(ctx, "user_a")
	require.NoError(t, err)
	assert.True(t, check.NotInQueue)
}
