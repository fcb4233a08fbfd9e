package domain

import (
	"encoding/json"
	"time"
)

// WebSocket event types from client.
const (
	MsgTypeJoinRoom     = "join-room"
	MsgTypeLeaveRoom    = "leave-room"
	MsgTypeChatMessage  = "chat-message"
	MsgTypeOffer        = "webrtc-offer"
	MsgTypeAnswer       = "webrtc-answer"
	MsgTypeICECandidate = "webrtc-ice-candidate"
	MsgTypeSpotlight    = "spotlight-product"
	MsgTypeJoinQueue    = "join-queue"
)

// WebSocket event types to client.
const (
	MsgTypeJoinedRoom       = "joined-room"
	MsgTypeViewerCount      = "viewer-count"
	MsgTypeProductSpotlight = "product-spotlight"
	MsgTypeQueueJoined      = "queue-joined"
	MsgTypeQueueUpdated     = "queue-updated"
	MsgTypeError            = "error"
)

// BaseMessage is the envelope shared by all WebSocket messages; Type selects
// the concrete event.
type BaseMessage struct {
	Type string `json:"type"`
}

// Client -> Server messages

// JoinRoomMessage asks to join a room as a viewer.
type JoinRoomMessage struct {
	Type   string `json:"type"`
	RoomID string `json:"roomId"`
}

// LeaveRoomMessage asks to leave a room.
type LeaveRoomMessage struct {
	Type   string `json:"type"`
	RoomID string `json:"roomId"`
}

// ChatSendMessage carries a chat line for a room.
type ChatSendMessage struct {
	Type    string `json:"type"`
	RoomID  string `json:"roomId"`
	Message string `json:"message"`
}

// OfferMessage carries an opaque WebRTC offer for the room.
type OfferMessage struct {
	Type   string          `json:"type"`
	RoomID string          `json:"roomId"`
	Offer  json.RawMessage `json:"offer"`
}

// AnswerMessage carries an opaque WebRTC answer addressed to a peer.
type AnswerMessage struct {
	Type         string          `json:"type"`
	RoomID       string          `json:"roomId"`
	Answer       json.RawMessage `json:"answer"`
	TargetUserID string          `json:"targetUserId"`
}

// ICECandidateMessage carries an opaque ICE candidate addressed to a peer.
type ICECandidateMessage struct {
	Type         string          `json:"type"`
	RoomID       string          `json:"roomId"`
	Candidate    json.RawMessage `json:"candidate"`
	TargetUserID string          `json:"targetUserId"`
}

// SpotlightMessage asks to highlight a product (seller only).
type SpotlightMessage struct {
	Type      string `json:"type"`
	RoomID    string `json:"roomId"`
	ProductID string `json:"productId"`
}

// JoinQueueMessage appends the sender to a room's waiting queue.
type JoinQueueMessage struct {
	Type   string `json:"type"`
	RoomID string `json:"roomId"`
}

// Server -> Client messages

// JoinedRoomMessage confirms a successful join to the requester.
type JoinedRoomMessage struct {
	Type        string `json:"type"`
	RoomID      string `json:"roomId"`
	ViewerCount int    `json:"viewerCount"`
}

// ViewerCountMessage announces a viewer-count change to the room.
type ViewerCountMessage struct {
	Type        string `json:"type"`
	RoomID      string `json:"roomId"`
	ViewerCount int    `json:"viewerCount"`
}

// ChatBroadcastMessage delivers a chat line to the room.
type ChatBroadcastMessage struct {
	Type      string     `json:"type"`
	RoomID    string     `json:"roomId"`
	Sender    ChatSender `json:"sender"`
	Message   string     `json:"message"`
	Timestamp time.Time  `json:"timestamp"`
}

// OfferBroadcastMessage relays an offer to the rest of the room.
type OfferBroadcastMessage struct {
	Type           string          `json:"type"`
	RoomID         string          `json:"roomId"`
	SenderID       string          `json:"senderId"`
	SenderUsername string          `json:"senderUsername"`
	Offer          json.RawMessage `json:"offer"`
}

// AnswerBroadcastMessage relays an answer; receivers filter by target.
type AnswerBroadcastMessage struct {
	Type         string          `json:"type"`
	RoomID       string          `json:"roomId"`
	SenderID     string          `json:"senderId"`
	TargetUserID string          `json:"targetUserId"`
	Answer       json.RawMessage `json:"answer"`
}

// ICEBroadcastMessage relays an ICE candidate with its target hint.
type ICEBroadcastMessage struct {
	Type         string          `json:"type"`
	RoomID       string          `json:"roomId"`
	SenderID     string          `json:"senderId"`
	TargetUserID string          `json:"targetUserId"`
	Candidate    json.RawMessage `json:"candidate"`
}

// ProductSpotlightMessage announces a seller product highlight to the room.
type ProductSpotlightMessage struct {
	Type      string `json:"type"`
	RoomID    string `json:"roomId"`
	ProductID string `json:"productId"`
}

// QueueJoinedMessage reports the sender's 1-based queue position.
type QueueJoinedMessage struct {
	Type     string `json:"type"`
	Position int    `json:"position"`
}

// QueueUpdatedMessage announces the new queue length to the room.
type QueueUpdatedMessage struct {
	Type        string `json:"type"`
	RoomID      string `json:"roomId"`
	QueueLength int    `json:"queueLength"`
}

// ErrorMessage is sent to the originating connection only.
type ErrorMessage struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes surfaced to clients.
const (
	ErrCodeRoomNotFound  = "ROOM_NOT_FOUND"
	ErrCodeRoomNotLive   = "ROOM_NOT_LIVE"
	ErrCodeRoomFull      = "ROOM_FULL"
	ErrCodeBadRequest    = "BAD_REQUEST"
	ErrCodeInternalError = "INTERNAL_ERROR"
)

// NewErrorMessage creates a new error message.
func NewErrorMessage(code, message string) *ErrorMessage {
	return &ErrorMessage{
		Type:    MsgTypeError,
		Code:    code,
		Message: message,
	}
}
