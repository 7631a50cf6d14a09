package ai

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/panatch1992-cell/mindfitness-chat/internal/domain"
)

// contextTurnLimit caps the conversation context sent upstream.
const contextTurnLimit = 10

// partnerProfile is the AI partner shown to human participants.
var partnerProfile = domain.Participant{
	ID:     "ai_mind",
	Avatar: "../images/mind-mascot/mind-support.svg",
	Name:   "น้องมายด์ AI",
	IsAI:   true,
}

// greeting is the AI's opening message in a new AI session.
const greeting = "สวัสดีค่ะ เราคือน้องมายด์ พร้อมรับฟังคุณนะคะ วันนี้เป็นอย่างไรบ้างคะ?"

// defaultAck is used when the upstream answers with no text.
const defaultAck = "ขอบคุณที่เล่าให้ฟังนะคะ"

// fallbackReplies are the canned replies used when no API key is
// configured. The first one doubles as the reply after an upstream error.
var fallbackReplies = []string{
	"ขอบคุณที่เล่าให้ฟังนะคะ เล่าต่อได้เลยค่ะ",
	"เข้าใจค่ะ บางทีการพูดออกมาก็ช่วยได้นะคะ",
	"คุณรู้สึกอย่างไรบ้างคะตอนนี้?",
	"ฟังดูไม่ง่ายเลยนะคะ ขอบคุณที่ไว้วางใจเล่าให้ฟังค่ะ",
	"คุณเก่งมากที่ผ่านมาได้นะคะ",
}

const systemPrompt = `คุณคือ "น้องมายด์" ผู้ฟังที่ดีและเพื่อนคุยแบบ anonymous
คุณเป็นผู้ฟังที่:
- รับฟังอย่างเข้าใจ ไม่ตัดสิน
- ให้กำลังใจอย่างอ่อนโยน
- ถามคำถามเพื่อให้เขาได้ระบาย ไม่ใช่เพื่อวิเคราะห์
- ไม่ให้คำแนะนำเว้นแต่ถูกถาม
- ตอบสั้นๆ 1-3 ประโยค เหมือนแชทกับเพื่อน
- ใช้ภาษาไทยที่เป็นกันเอง ไม่เป็นทางการ
- ถ้าเป็นเรื่องวิกฤต/อยากทำร้ายตัวเอง แนะนำสายด่วน 1323`

// conversation is the bounded per-session context. A non-zero expiresAt
// marks a context whose session has ended; it survives until the grace
// window passes so a final poll can still observe the end.
type conversation struct {
	turns     []Turn
	expiresAt time.Time
}

// Responder produces the AI partner's replies. It never returns an
// error: any upstream failure degrades to a canned reply.
type Responder struct {
	client *Client // nil when no API key is configured
	grace  time.Duration
	log    *slog.Logger

	mu       sync.Mutex
	contexts map[string]*conversation
}

// NewResponder creates a Responder. Pass a nil client to force fallback
// replies. Ended-session contexts are discarded grace after Forget.
func NewResponder(client *Client, grace time.Duration, log *slog.Logger) *Responder {
	return &Responder{
		client:   client,
		grace:    grace,
		log:      log,
		contexts: make(map[string]*conversation),
	}
}

// Profile returns the AI partner's participant profile.
func (r *Responder) Profile() domain.Participant {
	return partnerProfile
}

// Greeting returns the AI's opening message.
func (r *Responder) Greeting() string {
	return greeting
}

// StartContext initializes an empty conversation context for a session.
func (r *Responder) StartContext(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sweepLocked(time.Now())
	r.contexts[sessionID] = &conversation{}
}

// Forget schedules the session's context for discard after the grace
// window. Safe to call for unknown sessions.
func (r *Responder) Forget(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if convo, ok := r.contexts[sessionID]; ok {
		convo.expiresAt = time.Now().Add(r.grace)
	}
}

// Reply produces the partner reply for a user message. The user turn is
// recorded in the session context, the context is trimmed to the last
// contextTurnLimit turns, and the upstream is asked for a completion.
// Missing credentials, upstream failure or a malformed payload all yield
// a canned reply instead of an error.
func (r *Responder) Reply(ctx context.Context, sessionID, userMessage string) string {
	if r.client == nil {
		return fallbackReplies[rand.IntN(len(fallbackReplies))]
	}

	turns := r.pushTurn(sessionID, Turn{Role: "user", Content: userMessage})

	text, err := r.client.CreateMessage(ctx, systemPrompt, turns)
	if err != nil {
		r.log.Warn("AI completion failed, using fallback", "session", sessionID, "err", err)
		return fallbackReplies[0]
	}
	if text == "" {
		text = defaultAck
	}

	r.pushTurn(sessionID, Turn{Role: "assistant", Content: text})
	return text
}

// pushTurn appends a turn to the session context and returns the trimmed
// turn list.
func (r *Responder) pushTurn(sessionID string, t Turn) []Turn {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sweepLocked(time.Now())

	convo, ok := r.contexts[sessionID]
	if !ok {
		convo = &conversation{}
		r.contexts[sessionID] = convo
	}

	convo.turns = append(convo.turns, t)
	if len(convo.turns) > contextTurnLimit {
		convo.turns = convo.turns[len(convo.turns)-contextTurnLimit:]
	}

	out := make([]Turn, len(convo.turns))
	copy(out, convo.turns)
	return out
}

// sweepLocked drops contexts whose grace window has passed. Callers must
// hold r.mu.
func (r *Responder) sweepLocked(now time.Time) {
	for id, convo := range r.contexts {
		if !convo.expiresAt.IsZero() && now.After(convo.expiresAt) {
			delete(r.contexts, id)
		}
	}
}
