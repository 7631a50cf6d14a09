// Package service implements the matching and session lifecycle logic.
package service

import (
	"log/slog"
	"sync"
	"time"

	"github.com/panatch1992-cell/mindfitness-chat/internal/ai"
	"github.com/panatch1992-cell/mindfitness-chat/internal/config"
	"github.com/panatch1992-cell/mindfitness-chat/internal/logger"
	"github.com/panatch1992-cell/mindfitness-chat/internal/policy"
	"github.com/panatch1992-cell/mindfitness-chat/internal/queue"
	"github.com/panatch1992-cell/mindfitness-chat/internal/store"
)

// Service orchestrates the queue, session store, AI responder and
// report triage policy.
type Service struct {
	store     store.Store
	queue     queue.Queue
	responder *ai.Responder
	triage    *policy.Engine
	config    *config.Config
	log       *slog.Logger
	locks     *sessionLocks

	now func() time.Time
}

// New creates a new service.
func New(st store.Store, q queue.Queue, responder *ai.Responder, triage *policy.Engine, cfg *config.Config) *Service {
	return &Service{
		store:     st,
		queue:     q,
		responder: responder,
		triage:    triage,
		config:    cfg,
		log:       logger.L,
		locks:     newSessionLocks(),
		now:       time.Now,
	}
}

// sessionLocks serializes status transitions and message appends per
// session id, so a send/end race cannot append after "ended".
type sessionLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newSessionLocks() *sessionLocks {
	return &sessionLocks{locks: make(map[string]*sync.Mutex)}
}

func (l *sessionLocks) acquire(id string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()

	m, ok := l.locks[id]
	if !ok {
		m = &sync.Mutex{}
		l.locks[id] = m
	}
	return m
}

// release drops the lock entry once the session is ended, so the map
// does not grow for the process lifetime. Ended sessions reject appends
// by status, so losing serialization for them is harmless.
func (l *sessionLocks) release(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.locks, id)
}
