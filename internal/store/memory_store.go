package store

import (
	"context"
	"sync"
	"time"

	"github.com/nitin16112004/live-shopping-application/internal/domain"
)

// memoryStore implements LiveStateStore in process memory. Used for
// single-instance deployments and tests; it mirrors the Redis store's
// behaviour including the chat log cap and TTL.
type memoryStore struct {
	mu         sync.Mutex
	viewers    map[string]map[string]struct{}
	chat       map[string][]domain.ChatMessage
	queues     map[string][]domain.QueueEntry
	chatTTL    time.Duration
	chatMaxLen int
}

// NewMemoryStore creates an in-memory live-state store.
func NewMemoryStore() LiveStateStore {
	return &memoryStore{
		viewers:    make(map[string]map[string]struct{}),
		chat:       make(map[string][]domain.ChatMessage),
		queues:     make(map[string][]domain.QueueEntry),
		chatTTL:    24 * time.Hour,
		chatMaxLen: 500,
	}
}

func (s *memoryStore) AddViewer(_ context.Context, roomID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.viewers[roomID]
	if !ok {
		set = make(map[string]struct{})
		s.viewers[roomID] = set
	}
	set[userID] = struct{}{}
	return nil
}

func (s *memoryStore) RemoveViewer(_ context.Context, roomID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if set, ok := s.viewers[roomID]; ok {
		delete(set, userID)
		if len(set) == 0 {
			delete(s.viewers, roomID)
		}
	}
	return nil
}

func (s *memoryStore) ViewerCount(_ context.Context, roomID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.viewers[roomID]), nil
}

func (s *memoryStore) ClearViewers(_ context.Context, roomID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.viewers, roomID)
	return nil
}

func (s *memoryStore) AppendChat(_ context.Context, roomID string, msg domain.ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	log := append(s.pruneChatLocked(roomID), msg)
	if len(log) > s.chatMaxLen {
		log = log[len(log)-s.chatMaxLen:]
	}
	s.chat[roomID] = log
	return nil
}

func (s *memoryStore) ChatHistory(_ context.Context, roomID string, limit int) ([]domain.ChatMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	log := s.pruneChatLocked(roomID)
	s.chat[roomID] = log
	if limit > 0 && len(log) > limit {
		log = log[len(log)-limit:]
	}

	out := make([]domain.ChatMessage, len(log))
	copy(out, log)
	return out, nil
}

// pruneChatLocked drops entries older than the chat TTL. Caller holds s.mu.
func (s *memoryStore) pruneChatLocked(roomID string) []domain.ChatMessage {
	log := s.chat[roomID]
	cutoff := time.Now().Add(-s.chatTTL)
	for len(log) > 0 && log[0].Timestamp.Before(cutoff) {
		log = log[1:]
	}
	return log
}

func (s *memoryStore) AppendQueue(_ context.Context, roomID string, entry domain.QueueEntry) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queues[roomID] = append(s.queues[roomID], entry)
	return len(s.queues[roomID]), nil
}

func (s *memoryStore) QueueEntries(_ context.Context, roomID string) ([]domain.QueueEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.QueueEntry, len(s.queues[roomID]))
	copy(out, s.queues[roomID])
	return out, nil
}

func (s *memoryStore) Close() error {
	return nil
}
