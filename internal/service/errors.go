package service

import "errors"

// Sentinel errors mapped to HTTP status codes at the transport layer.
var (
	ErrSessionNotFound = errors.New("chat session not found")
	ErrSessionEnded    = errors.New("chat session ended")
	ErrNotParticipant  = errors.New("not a participant")
	ErrEmptyMessage    = errors.New("empty message")
)
