package domain

// Chat actions accepted by the private-chat endpoint.
const (
	ActionJoinQueue   = "join_queue"
	ActionLeaveQueue  = "leave_queue"
	ActionCheckMatch  = "check_match"
	ActionRequestAI   = "request_ai"
	ActionSendMessage = "send_message"
	ActionGetMessages = "get_messages"
	ActionEndChat     = "end_chat"
	ActionReport      = "report"
	ActionHeartbeat   = "heartbeat"
)

// ChatRequest is the body of every private-chat call.
type ChatRequest struct {
	Action  string `json:"action" validate:"required"`
	UserID  string `json:"userId"`
	ChatID  string `json:"chatId"`
	Message string `json:"message" validate:"max=4000"`
	Reason  string `json:"reason" validate:"max=500"`
}

// MessageView is the wire representation of a message.
type MessageView struct {
	ID           string `json:"id,omitempty"`
	Type         string `json:"type,omitempty"`
	SenderID     string `json:"senderId"`
	SenderAvatar string `json:"senderAvatar,omitempty"`
	SenderName   string `json:"senderName,omitempty"`
	Content      string `json:"content"`
	Timestamp    int64  `json:"timestamp"`
}

// ViewOf converts a stored message to its wire shape.
func ViewOf(m Message) MessageView {
	v := MessageView{
		ID:           m.ID,
		SenderID:     m.SenderID,
		SenderAvatar: m.SenderAvatar,
		SenderName:   m.SenderName,
		Content:      m.Content,
		Timestamp:    m.CreatedAt.UnixMilli(),
	}
	if m.IsSystem {
		v.Type = "system"
	}
	return v
}

// JoinQueueResult is the response for join_queue and request_ai.
type JoinQueueResult struct {
	Success       bool         `json:"success"`
	UserID        string       `json:"userId"`
	Matched       bool         `json:"matched"`
	QueuePosition int          `json:"queuePosition,omitempty"`
	QueueSize     int          `json:"queueSize,omitempty"`
	CanRequestAI  bool         `json:"canRequestAI,omitempty"`
	IsAIPartner   bool         `json:"isAIPartner"`
	ChatID        string       `json:"chatId,omitempty"`
	Partner       *Participant `json:"partner,omitempty"`
}

// CheckMatchResult is the response for check_match.
type CheckMatchResult struct {
	Success       bool          `json:"success"`
	Matched       bool          `json:"matched"`
	IsAIPartner   bool          `json:"isAIPartner,omitempty"`
	ChatID        string        `json:"chatId,omitempty"`
	Partner       *Participant  `json:"partner,omitempty"`
	SessionStatus SessionStatus `json:"sessionStatus,omitempty"`
	QueuePosition int           `json:"queuePosition,omitempty"`
	WaitTime      int64         `json:"waitTime,omitempty"`
	SuggestAI     bool          `json:"suggestAI,omitempty"`
	NotInQueue    bool          `json:"notInQueue,omitempty"`
}

// SendMessageResult is the response for send_message.
type SendMessageResult struct {
	Success bool        `json:"success"`
	Message MessageView `json:"message"`
}

// GetMessagesResult is the response for get_messages.
type GetMessagesResult struct {
	Success       bool          `json:"success"`
	Messages      []MessageView `json:"messages"`
	SessionStatus SessionStatus `json:"sessionStatus"`
	IsAIPartner   bool          `json:"isAIPartner"`
	Partner       *Participant  `json:"partner,omitempty"`
}

// HeartbeatResult is the response for heartbeat.
type HeartbeatResult struct {
	Success       bool          `json:"success"`
	SessionStatus SessionStatus `json:"sessionStatus,omitempty"`
}

// SimpleResult is the response for leave_queue, end_chat and report.
type SimpleResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}
