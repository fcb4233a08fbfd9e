package pubsub

// Event types carried on the coordination bus.
const (
	// Room lifecycle, published by the seller-facing room surface.
	EventRoomStarted = "room_started"
	EventRoomEnded   = "room_ended"

	// Viewer-count sync between coordinator instances.
	EventViewerCount = "viewer_count"
)

// RoomLifecycleChannel is where room status transitions are announced.
func RoomLifecycleChannel() string {
	return "rooms:lifecycle"
}

// PresenceUpdatesChannel is where instances announce viewer-count changes
// so every instance can rebroadcast to its own local subscribers.
func PresenceUpdatesChannel() string {
	return "rooms:presence_updates"
}

// RoomLifecyclePayload announces a room status transition.
type RoomLifecyclePayload struct {
	RoomID   string `json:"room_id"`
	SellerID string `json:"seller_id,omitempty"`
	Status   string `json:"status"`
}

// ViewerCountPayload announces a viewer-count change. OriginInstanceID lets
// the publishing instance skip its own echo.
type ViewerCountPayload struct {
	RoomID           string `json:"room_id"`
	Count            int    `json:"count"`
	OriginInstanceID string `json:"origin_instance_id,omitempty"`
}
