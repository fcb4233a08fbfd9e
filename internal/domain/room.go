package domain

import "time"

// RoomStatus represents the lifecycle state of a shopping room.
type RoomStatus string

const (
	RoomStatusScheduled RoomStatus = "scheduled"
	RoomStatusLive      RoomStatus = "live"
	RoomStatusEnded     RoomStatus = "ended"
)

// Room is the descriptor of a live shopping room. The static fields are
// owned by the seller-facing CRUD surface; this service only reads them and
// maintains CurrentViewers.
type Room struct {
	ID             string     `json:"id"`
	SellerID       string     `json:"seller_id"`
	SellerUsername string     `json:"seller_username"`
	Title          string     `json:"title"`
	Description    string     `json:"description,omitempty"`
	Status         RoomStatus `json:"status"`
	MaxViewers     int        `json:"max_viewers"`
	CurrentViewers int        `json:"current_viewers"`
	Products       []string   `json:"products,omitempty"`
	ScheduledTime  time.Time  `json:"scheduled_time"`
	StartedAt      *time.Time `json:"started_at,omitempty"`
	EndedAt        *time.Time `json:"ended_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// IsLive reports whether the room currently accepts viewers.
func (r *Room) IsLive() bool {
	return r.Status == RoomStatusLive
}

// ChatSender identifies the author of a chat message.
type ChatSender struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Avatar   string `json:"avatar,omitempty"`
}

// ChatMessage is one entry of a room's append-only chat log. Never mutated
// after append.
type ChatMessage struct {
	Sender    ChatSender `json:"sender"`
	Message   string     `json:"message"`
	Timestamp time.Time  `json:"timestamp"`
}

// QueueEntry is one entry of a room's append-only waiting queue.
type QueueEntry struct {
	UserID   string    `json:"userId"`
	Username string    `json:"username"`
	JoinedAt time.Time `json:"joinedAt"`
}
