// Package registry owns the authoritative live state of every room this
// instance coordinates: the viewer-identity set, the subscriber connection
// set, the chat log and the waiting queue. Each room carries one mutex that
// serializes every mutating operation against it, so the capacity
// check-then-add sequence is atomic and broadcast order is well defined.
// Different rooms never share a lock.
package registry

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/nitin16112004/live-shopping-application/internal/domain"
	"github.com/nitin16112004/live-shopping-application/internal/repository"
)

// Registry maps room IDs to their live state and caches room descriptors
// read from the persisted store.
type Registry struct {
	repo     repository.RoomRepository
	cacheTTL time.Duration

	mu    sync.RWMutex
	rooms map[string]*RoomState

	fetch singleflight.Group
}

// New creates a registry backed by the given descriptor repository.
func New(repo repository.RoomRepository, cacheTTL time.Duration) *Registry {
	if cacheTTL <= 0 {
		cacheTTL = time.Minute
	}
	return &Registry{
		repo:     repo,
		cacheTTL: cacheTTL,
		rooms:    make(map[string]*RoomState),
	}
}

// Room returns the live state for a room, creating it on first use.
func (r *Registry) Room(roomID string) *RoomState {
	r.mu.RLock()
	st, ok := r.rooms[roomID]
	r.mu.RUnlock()
	if ok {
		return st
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if st, ok = r.rooms[roomID]; ok {
		return st
	}
	st = newRoomState()
	r.rooms[roomID] = st
	return st
}

// Peek returns the live state for a room, or nil if none exists yet.
func (r *Registry) Peek(roomID string) *RoomState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.rooms[roomID]
}

// Remove drops a room's live state entirely.
func (r *Registry) Remove(roomID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rooms, roomID)
}

// Descriptor resolves the room descriptor, serving from cache within the
// TTL. Concurrent cache misses for the same room are collapsed into a single
// repository read.
func (r *Registry) Descriptor(ctx context.Context, roomID string) (*domain.Room, error) {
	st := r.Room(roomID)

	if room := st.cachedDescriptor(r.cacheTTL); room != nil {
		return room, nil
	}

	v, err, _ := r.fetch.Do(roomID, func() (interface{}, error) {
		room, err := r.repo.GetByID(ctx, roomID)
		if err != nil {
			return nil, err
		}
		st.setDescriptor(room)
		return room, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.Room), nil
}

// Invalidate discards the cached descriptor for a room so the next lookup
// hits the repository again.
func (r *Registry) Invalidate(roomID string) {
	if st := r.Peek(roomID); st != nil {
		st.setDescriptor(nil)
	}
}
