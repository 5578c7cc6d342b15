package session

import (
	"context"
	"sync"
	"time"
)

// Store is the narrow contract the interpreters depend on. Implementations
// are best-effort: callers must treat any error as "no history available",
// never as a hard failure of the request. There is deliberately no locking
// across calls; concurrent requests for the same user may race and the last
// write wins.
type Store interface {
	// GetTurns returns the stored history in arrival order, oldest first.
	// Unknown users get an empty slice.
	GetTurns(ctx context.Context, userID string) ([]Turn, error)
	// AppendTurn appends one turn and evicts the oldest turns beyond the
	// configured bound.
	AppendTurn(ctx context.Context, userID string, t Turn) error
	// GetTriageContext returns the last saved triage result, or nil.
	GetTriageContext(ctx context.Context, userID string) (map[string]any, error)
	// SaveTriageContext overwrites the previous triage result.
	SaveTriageContext(ctx context.Context, userID string, data map[string]any) error
	// UpdateSession merges fields into the per-user session record.
	UpdateSession(ctx context.Context, userID string, fields map[string]any) error
}

// MemoryStore keeps sessions in a process-local map. It is the default
// backend and the one the tests use; state disappears on restart.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*memorySession
	maxTurns int
}

type memorySession struct {
	turns  []Turn
	triage map[string]any
	fields map[string]any
}

func NewMemoryStore(maxTurns int) *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*memorySession),
		maxTurns: maxTurns,
	}
}

func (s *MemoryStore) session(userID string) *memorySession {
	sess, ok := s.sessions[userID]
	if !ok {
		sess = &memorySession{}
		s.sessions[userID] = sess
	}
	return sess
}

func (s *MemoryStore) GetTurns(_ context.Context, userID string) ([]Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[userID]
	if !ok {
		return nil, nil
	}
	out := make([]Turn, len(sess.turns))
	copy(out, sess.turns)
	return out, nil
}

func (s *MemoryStore) AppendTurn(_ context.Context, userID string, t Turn) error {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.session(userID)
	sess.turns = append(sess.turns, t)
	if s.maxTurns > 0 && len(sess.turns) > s.maxTurns {
		sess.turns = sess.turns[len(sess.turns)-s.maxTurns:]
	}
	return nil
}

func (s *MemoryStore) GetTriageContext(_ context.Context, userID string) (map[string]any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[userID]
	if !ok || sess.triage == nil {
		return nil, nil
	}
	return sess.triage, nil
}

func (s *MemoryStore) SaveTriageContext(_ context.Context, userID string, data map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session(userID).triage = data
	return nil
}

func (s *MemoryStore) UpdateSession(_ context.Context, userID string, fields map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.session(userID)
	if sess.fields == nil {
		sess.fields = make(map[string]any, len(fields))
	}
	for k, v := range fields {
		sess.fields[k] = v
	}
	return nil
}
