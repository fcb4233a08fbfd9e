package registry

import (
	"sync"
	"time"

	"github.com/nitin16112004/live-shopping-application/internal/domain"
)

const (
	chatMaxLen = 500
	chatTTL    = 24 * time.Hour
)

// RoomState holds everything this instance knows about one room. Callers
// hold the state lock across a whole operation (mutation plus event
// enqueue); the Locked methods must only be called while holding it.
type RoomState struct {
	mu sync.Mutex

	viewers     map[string]struct{}
	subscribers map[string]struct{}
	chat        []domain.ChatMessage
	queue       []domain.QueueEntry

	// descriptor cache, guarded separately so descriptor reads never
	// contend with room mutations
	dmu        sync.Mutex
	descriptor *domain.Room
	fetchedAt  time.Time
}

func newRoomState() *RoomState {
	return &RoomState{
		viewers:     make(map[string]struct{}),
		subscribers: make(map[string]struct{}),
	}
}

// Lock acquires the room's serialization lock.
func (st *RoomState) Lock() { st.mu.Lock() }

// Unlock releases the room's serialization lock.
func (st *RoomState) Unlock() { st.mu.Unlock() }

// AddViewerLocked adds an identity to the viewer set. Returns false if the
// identity was already present (re-join is idempotent).
func (st *RoomState) AddViewerLocked(userID string) bool {
	if _, ok := st.viewers[userID]; ok {
		return false
	}
	st.viewers[userID] = struct{}{}
	return true
}

// RemoveViewerLocked removes an identity from the viewer set. Returns false
// if the identity was absent.
func (st *RoomState) RemoveViewerLocked(userID string) bool {
	if _, ok := st.viewers[userID]; !ok {
		return false
	}
	delete(st.viewers, userID)
	return true
}

// HasViewerLocked reports whether an identity is in the viewer set.
func (st *RoomState) HasViewerLocked(userID string) bool {
	_, ok := st.viewers[userID]
	return ok
}

// ViewerCountLocked returns the cardinality of the viewer set.
func (st *RoomState) ViewerCountLocked() int {
	return len(st.viewers)
}

// ClearViewersLocked empties the viewer set (room ended).
func (st *RoomState) ClearViewersLocked() {
	st.viewers = make(map[string]struct{})
}

// SubscribeLocked records a connection as subscribed to the room.
func (st *RoomState) SubscribeLocked(clientID string) {
	st.subscribers[clientID] = struct{}{}
}

// UnsubscribeLocked removes a connection's subscription.
func (st *RoomState) UnsubscribeLocked(clientID string) {
	delete(st.subscribers, clientID)
}

// IsSubscribedLocked reports whether a connection is subscribed.
func (st *RoomState) IsSubscribedLocked(clientID string) bool {
	_, ok := st.subscribers[clientID]
	return ok
}

// SubscribersLocked returns a snapshot of the subscribed connection IDs.
func (st *RoomState) SubscribersLocked() []string {
	ids := make([]string, 0, len(st.subscribers))
	for id := range st.subscribers {
		ids = append(ids, id)
	}
	return ids
}

// AppendChatLocked appends to the chat log, pruning expired entries and
// capping the length.
func (st *RoomState) AppendChatLocked(msg domain.ChatMessage) {
	log := st.pruneChatLocked()
	log = append(log, msg)
	if len(log) > chatMaxLen {
		log = log[len(log)-chatMaxLen:]
	}
	st.chat = log
}

// ChatLocked returns up to limit most recent messages, oldest first.
func (st *RoomState) ChatLocked(limit int) []domain.ChatMessage {
	log := st.pruneChatLocked()
	st.chat = log
	if limit > 0 && len(log) > limit {
		log = log[len(log)-limit:]
	}
	out := make([]domain.ChatMessage, len(log))
	copy(out, log)
	return out
}

func (st *RoomState) pruneChatLocked() []domain.ChatMessage {
	log := st.chat
	cutoff := time.Now().Add(-chatTTL)
	for len(log) > 0 && log[0].Timestamp.Before(cutoff) {
		log = log[1:]
	}
	return log
}

// AppendQueueLocked appends a waiting-queue entry and returns its 1-based
// position.
func (st *RoomState) AppendQueueLocked(entry domain.QueueEntry) int {
	st.queue = append(st.queue, entry)
	return len(st.queue)
}

// QueueLenLocked returns the current queue length.
func (st *RoomState) QueueLenLocked() int {
	return len(st.queue)
}

// QueueLocked returns the queue contents in join order.
func (st *RoomState) QueueLocked() []domain.QueueEntry {
	out := make([]domain.QueueEntry, len(st.queue))
	copy(out, st.queue)
	return out
}

func (st *RoomState) cachedDescriptor(ttl time.Duration) *domain.Room {
	st.dmu.Lock()
	defer st.dmu.Unlock()
	if st.descriptor != nil && time.Since(st.fetchedAt) < ttl {
		return st.descriptor
	}
	return nil
}

func (st *RoomState) setDescriptor(room *domain.Room) {
	st.dmu.Lock()
	defer st.dmu.Unlock()
	st.descriptor = room
	if room != nil {
		st.fetchedAt = time.Now()
	}
}
