package domain

import (
	"sync"
	"time"
)

// Identity is the verified participant identity bound to a connection for
// its lifetime.
type Identity struct {
	UserID   string
	Username string
	Avatar   string
}

// Session tracks the state of one WebSocket connection: its identity and the
// set of rooms it has joined. A connection can be joined to several rooms at
// once; the disconnect reconciler walks the full set on teardown.
type Session struct {
	ID           string
	Identity     Identity
	CreatedAt    time.Time
	LastActiveAt time.Time

	joinedRooms map[string]struct{}
	mu          sync.RWMutex
}

// NewSession creates a session bound to the given verified identity.
func NewSession(id string, identity Identity) *Session {
	now := time.Now()
	return &Session{
		ID:           id,
		Identity:     identity,
		CreatedAt:    now,
		LastActiveAt: now,
		joinedRooms:  make(map[string]struct{}),
	}
}

// JoinRoom records membership in a room.
func (s *Session) JoinRoom(roomID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.joinedRooms[roomID] = struct{}{}
	s.LastActiveAt = time.Now()
}

// LeaveRoom clears membership in a room.
func (s *Session) LeaveRoom(roomID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.joinedRooms, roomID)
	s.LastActiveAt = time.Now()
}

// InRoom reports whether the session has joined the given room.
func (s *Session) InRoom(roomID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.joinedRooms[roomID]
	return ok
}

// Rooms returns a snapshot of the joined room IDs.
func (s *Session) Rooms() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rooms := make([]string, 0, len(s.joinedRooms))
	for id := range s.joinedRooms {
		rooms = append(rooms, id)
	}
	return rooms
}

// UpdateActivity updates the last active timestamp.
func (s *Session) UpdateActivity() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.LastActiveAt = time.Now()
}
