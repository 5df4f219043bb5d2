package datasync

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Sessions holds one Coordinator per user and fans connectivity changes out to all of them
type Sessions struct {
	source  Source
	applier UpdateApplier
	logger  *zap.Logger
	opts    []Option

	mu     sync.Mutex
	byUser map[string]*Coordinator
	online bool
}

// NewSessions creates an empty session registry. opts are applied to every coordinator.
func NewSessions(source Source, applier UpdateApplier, logger *zap.Logger, opts ...Option) *Sessions {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sessions{
		source:  source,
		applier: applier,
		logger:  logger,
		opts:    opts,
		byUser:  make(map[string]*Coordinator),
		online:  true,
	}
}

// Get returns the user's coordinator, creating it in the current connectivity state
func (s *Sessions) Get(userID string) *Coordinator {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.byUser[userID]; ok {
		return c
	}
	opts := append(append([]Option(nil), s.opts...), WithInitialState(s.online))
	c := NewCoordinator(s.source, s.applier, s.logger.With(zap.String("user_id", userID)), opts...)
	s.byUser[userID] = c
	return c
}

// Release closes and forgets the user's coordinator
func (s *Sessions) Release(userID string) {
	s.mu.Lock()
	c, ok := s.byUser[userID]
	delete(s.byUser, userID)
	s.mu.Unlock()
	if ok {
		c.Close()
	}
}

// SetOnline forwards a connectivity change to every coordinator
func (s *Sessions) SetOnline(ctx context.Context, online bool) {
	s.mu.Lock()
	s.online = online
	coordinators := make([]*Coordinator, 0, len(s.byUser))
	for _, c := range s.byUser {
		coordinators = append(coordinators, c)
	}
	s.mu.Unlock()

	for _, c := range coordinators {
		c.HandleConnectionStateChange(ctx, online)
	}
}

// Len returns the number of live sessions
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byUser)
}

// CloseAll closes every coordinator
func (s *Sessions) CloseAll() {
	s.mu.Lock()
	all := s.byUser
	s.byUser = make(map[string]*Coordinator)
	s.mu.Unlock()
	for _, c := range all {
		c.Close()
	}
}
