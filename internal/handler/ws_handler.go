package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/nitin16112004/live-shopping-application/internal/config"
	"github.com/nitin16112004/live-shopping-application/internal/domain"
	"github.com/nitin16112004/live-shopping-application/internal/hub"
	"github.com/nitin16112004/live-shopping-application/internal/identity"
	"github.com/nitin16112004/live-shopping-application/internal/service"
	pkglog "github.com/nitin16112004/live-shopping-application/pkg/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WSHandler authenticates WebSocket handshakes and dispatches incoming
// events to the room service.
type WSHandler struct {
	hub      *hub.Hub
	service  service.RoomService
	verifier identity.Verifier
	wsConfig config.WebSocketConfig
}

// NewWSHandler creates a new WebSocket handler.
func NewWSHandler(h *hub.Hub, svc service.RoomService, verifier identity.Verifier, wsConfig config.WebSocketConfig) *WSHandler {
	return &WSHandler{
		hub:      h,
		service:  svc,
		verifier: verifier,
		wsConfig: wsConfig,
	}
}

// HandleWebSocket verifies the credential, upgrades the connection and starts
// the client's pumps. Verification happens before the upgrade: a rejected
// credential never touches room state.
func (h *WSHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	token := credentialFrom(r)
	if token == "" {
		http.Error(w, "missing credential", http.StatusUnauthorized)
		return
	}

	id, err := h.verifier.Verify(token)
	if err != nil {
		pkglog.Ctx(r.Context()).Warn().Err(err).Msg("websocket handshake rejected")
		http.Error(w, "invalid credential", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		pkglog.Ctx(r.Context()).Error().Err(err).Msg("websocket upgrade failed")
		return
	}

	clientID := uuid.New().String()
	session := domain.NewSession(clientID, id)
	client := hub.NewClient(clientID, h.hub, conn, session, h.wsConfig)
	client.SetDisconnectHandler(func(c *hub.Client) {
		h.service.HandleDisconnect(h.clientCtx(c), c)
	})

	h.hub.Register(client)

	pkglog.L().Info().
		Str(pkglog.FieldClientID, clientID).
		Str(pkglog.FieldUserID, id.UserID).
		Str(pkglog.FieldUsername, id.Username).
		Msg("websocket connected")

	go client.WritePump()
	go client.ReadPump(h.handleMessage)
}

func credentialFrom(r *http.Request) string {
	if token := r.URL.Query().Get("token"); token != "" {
		return token
	}
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}

func (h *WSHandler) clientCtx(c *hub.Client) context.Context {
	logger := pkglog.L().With().
		Str(pkglog.FieldClientID, c.ID).
		Str(pkglog.FieldUserID, c.Session.Identity.UserID).
		Logger()
	return pkglog.WithLogger(context.Background(), logger)
}

// handleMessage dispatches one inbound frame by its type field. Malformed
// frames get a BAD_REQUEST error back and are otherwise ignored.
func (h *WSHandler) handleMessage(c *hub.Client, data []byte) {
	ctx := h.clientCtx(c)

	var base domain.BaseMessage
	if err := json.Unmarshal(data, &base); err != nil {
		c.SendMessage(domain.NewErrorMessage(domain.ErrCodeBadRequest, "malformed message"))
		return
	}

	switch base.Type {
	case domain.MsgTypeJoinRoom:
		var msg domain.JoinRoomMessage
		if !h.decode(c, data, &msg) || !h.requireRoom(c, msg.RoomID) {
			return
		}
		h.service.HandleJoinRoom(ctx, c, msg.RoomID)

	case domain.MsgTypeLeaveRoom:
		var msg domain.LeaveRoomMessage
		if !h.decode(c, data, &msg) || !h.requireRoom(c, msg.RoomID) {
			return
		}
		h.service.HandleLeaveRoom(ctx, c, msg.RoomID)

	case domain.MsgTypeChatMessage:
		var msg domain.ChatSendMessage
		if !h.decode(c, data, &msg) || !h.requireRoom(c, msg.RoomID) {
			return
		}
		h.service.HandleChatMessage(ctx, c, msg.RoomID, msg.Message)

	case domain.MsgTypeOffer:
		var msg domain.OfferMessage
		if !h.decode(c, data, &msg) || !h.requireRoom(c, msg.RoomID) {
			return
		}
		h.service.HandleOffer(ctx, c, msg.RoomID, msg.Offer)

	case domain.MsgTypeAnswer:
		var msg domain.AnswerMessage
		if !h.decode(c, data, &msg) || !h.requireRoom(c, msg.RoomID) {
			return
		}
		h.service.HandleAnswer(ctx, c, msg.RoomID, msg.TargetUserID, msg.Answer)

	case domain.MsgTypeICECandidate:
		var msg domain.ICECandidateMessage
		if !h.decode(c, data, &msg) || !h.requireRoom(c, msg.RoomID) {
			return
		}
		h.service.HandleICECandidate(ctx, c, msg.RoomID, msg.TargetUserID, msg.Candidate)

	case domain.MsgTypeSpotlight:
		var msg domain.SpotlightMessage
		if !h.decode(c, data, &msg) || !h.requireRoom(c, msg.RoomID) {
			return
		}
		if msg.ProductID == "" {
			c.SendMessage(domain.NewErrorMessage(domain.ErrCodeBadRequest, "missing productId"))
			return
		}
		h.service.HandleSpotlight(ctx, c, msg.RoomID, msg.ProductID)

	case domain.MsgTypeJoinQueue:
		var msg domain.JoinQueueMessage
		if !h.decode(c, data, &msg) || !h.requireRoom(c, msg.RoomID) {
			return
		}
		h.service.HandleJoinQueue(ctx, c, msg.RoomID)

	default:
		c.SendMessage(domain.NewErrorMessage(domain.ErrCodeBadRequest, "unknown message type"))
	}
}

func (h *WSHandler) decode(c *hub.Client, data []byte, v interface{}) bool {
	if err := json.Unmarshal(data, v); err != nil {
		c.SendMessage(domain.NewErrorMessage(domain.ErrCodeBadRequest, "malformed message"))
		return false
	}
	return true
}

func (h *WSHandler) requireRoom(c *hub.Client, roomID string) bool {
	if roomID == "" {
		c.SendMessage(domain.NewErrorMessage(domain.ErrCodeBadRequest, "missing roomId"))
		return false
	}
	return true
}
