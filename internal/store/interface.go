package store

import (
	"context"

	"github.com/nitin16112004/live-shopping-application/internal/domain"
)

// LiveStateStore is the shared room-state store. The registry owns the
// authoritative in-memory state; this store mirrors it so that multiple
// coordinator instances (and the history endpoints) agree on presence, chat
// and queue state. All mirror writes are best-effort with bounded timeouts.
type LiveStateStore interface {
	// AddViewer adds a participant identity to a room's viewer set.
	AddViewer(ctx context.Context, roomID, userID string) error

	// RemoveViewer removes a participant identity from a room's viewer set.
	RemoveViewer(ctx context.Context, roomID, userID string) error

	// ViewerCount returns the cardinality of a room's viewer set.
	ViewerCount(ctx context.Context, roomID string) (int, error)

	// ClearViewers drops a room's entire viewer set (room ended).
	ClearViewers(ctx context.Context, roomID string) error

	// AppendChat appends a message to the room's bounded, expiring chat log.
	AppendChat(ctx context.Context, roomID string, msg domain.ChatMessage) error

	// ChatHistory returns up to limit most recent chat messages, oldest first.
	ChatHistory(ctx context.Context, roomID string, limit int) ([]domain.ChatMessage, error)

	// AppendQueue appends an entry to the room's waiting queue and returns
	// the resulting queue length (the entry's 1-based position).
	AppendQueue(ctx context.Context, roomID string, entry domain.QueueEntry) (int, error)

	// QueueEntries returns the queue contents in join order.
	QueueEntries(ctx context.Context, roomID string) ([]domain.QueueEntry, error)

	// Close closes the store connection.
	Close() error
}
