package service

import (
	"context"
	"encoding/json"

	"github.com/nitin16112004/live-shopping-application/internal/domain"
	"github.com/nitin16112004/live-shopping-application/internal/hub"
)

// RoomService coordinates all real-time room operations.
type RoomService interface {
	// HandleJoinRoom handles a viewer joining a room.
	HandleJoinRoom(ctx context.Context, c *hub.Client, roomID string) error

	// HandleLeaveRoom handles a viewer leaving a room. Idempotent.
	HandleLeaveRoom(ctx context.Context, c *hub.Client, roomID string) error

	// HandleChatMessage stamps, appends and broadcasts a chat message.
	HandleChatMessage(ctx context.Context, c *hub.Client, roomID, text string) error

	// HandleOffer relays an opaque WebRTC offer to the rest of the room.
	HandleOffer(ctx context.Context, c *hub.Client, roomID string, offer json.RawMessage) error

	// HandleAnswer relays an opaque WebRTC answer carrying its target hint.
	HandleAnswer(ctx context.Context, c *hub.Client, roomID, targetUserID string, answer json.RawMessage) error

	// HandleICECandidate relays an opaque ICE candidate carrying its target hint.
	HandleICECandidate(ctx context.Context, c *hub.Client, roomID, targetUserID string, candidate json.RawMessage) error

	// HandleSpotlight broadcasts a product highlight if the sender is the
	// room's seller; otherwise the call is dropped.
	HandleSpotlight(ctx context.Context, c *hub.Client, roomID, productID string) error

	// HandleJoinQueue appends the sender to the room's waiting queue.
	HandleJoinQueue(ctx context.Context, c *hub.Client, roomID string) error

	// HandleDisconnect removes the connection's presence from every room it
	// had joined. Each room's cleanup is independent and best-effort.
	HandleDisconnect(ctx context.Context, c *hub.Client) error

	// ChatHistory returns recent chat messages for a room.
	ChatHistory(ctx context.Context, roomID string, limit int) ([]domain.ChatMessage, error)

	// ViewerCount returns the current viewer count for a room.
	ViewerCount(ctx context.Context, roomID string) (int, error)

	// QueueEntries returns a room's waiting queue in join order.
	QueueEntries(ctx context.Context, roomID string) ([]domain.QueueEntry, error)

	// Start starts background goroutines (lifecycle and count-sync subscribers).
	Start(ctx context.Context) error

	// Stop stops background goroutines.
	Stop() error
}
