package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nitin16112004/live-shopping-application/internal/config"
	"github.com/nitin16112004/live-shopping-application/internal/domain"
	"github.com/nitin16112004/live-shopping-application/internal/hub"
	"github.com/nitin16112004/live-shopping-application/internal/identity"
	"github.com/nitin16112004/live-shopping-application/internal/registry"
	"github.com/nitin16112004/live-shopping-application/internal/repository"
	"github.com/nitin16112004/live-shopping-application/internal/service"
	"github.com/nitin16112004/live-shopping-application/internal/store"
)

const testSecret = "handler-test-secret"

type stubRoomRepo struct {
	mu    sync.Mutex
	rooms map[string]*domain.Room
}

func (r *stubRoomRepo) GetByID(ctx context.Context, id string) (*domain.Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[id]
	if !ok {
		return nil, repository.ErrRoomNotFound
	}
	copied := *room
	return &copied, nil
}

func (r *stubRoomRepo) UpdateViewerCount(ctx context.Context, id string, count int) error {
	return nil
}

func testWSConfig() config.WebSocketConfig {
	return config.WebSocketConfig{
		PingInterval:   30 * time.Second,
		PongWait:       60 * time.Second,
		WriteWait:      10 * time.Second,
		MaxMessageSize: 65536,
	}
}

type env struct {
	server  *httptest.Server
	store   store.LiveStateStore
	service service.RoomService
}

func newEnv(t *testing.T, rooms ...*domain.Room) *env {
	t.Helper()

	repo := &stubRoomRepo{rooms: make(map[string]*domain.Room)}
	for _, room := range rooms {
		repo.rooms[room.ID] = room
	}

	h := hub.NewHub()
	st := store.NewMemoryStore()
	reg := registry.New(repo, time.Minute)
	svc := service.NewRoomService(reg, h, st, repo, nil, nil, service.Options{
		StoreTimeout:     time.Second,
		ChatHistoryLimit: 50,
	})

	verifier, err := identity.NewJWTVerifier(testSecret)
	require.NoError(t, err)

	router := mux.NewRouter()
	router.HandleFunc("/ws", NewWSHandler(h, svc, verifier, testWSConfig()).HandleWebSocket)
	NewHTTPHandler(svc).RegisterRoutes(router)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &env{server: server, store: st, service: svc}
}

func signToken(t *testing.T, userID, username string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, identity.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		UserID:   userID,
		Username: username,
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func dial(t *testing.T, e *env, token string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(e.server.URL, "http") + "/ws?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) map[string]interface{} {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &m))
	return m
}

func TestHandleWebSocketMissingCredential(t *testing.T) {
	e := newEnv(t)

	resp, err := http.Get(e.server.URL + "/ws")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHandleWebSocketInvalidCredential(t *testing.T) {
	e := newEnv(t)

	resp, err := http.Get(e.server.URL + "/ws?token=garbage")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestWebSocketJoinAndChat(t *testing.T) {
	e := newEnv(t, &domain.Room{
		ID:         "room-1",
		SellerID:   "seller-1",
		Status:     domain.RoomStatusLive,
		MaxViewers: 10,
	})

	conn := dial(t, e, signToken(t, "user-1", "alice"))

	require.NoError(t, conn.WriteJSON(map[string]string{
		"type":   domain.MsgTypeJoinRoom,
		"roomId": "room-1",
	}))

	joined := readMessage(t, conn)
	assert.Equal(t, domain.MsgTypeJoinedRoom, joined["type"])
	assert.Equal(t, "room-1", joined["roomId"])
	assert.Equal(t, float64(1), joined["viewerCount"])

	count := readMessage(t, conn)
	assert.Equal(t, domain.MsgTypeViewerCount, count["type"])

	require.NoError(t, conn.WriteJSON(map[string]string{
		"type":    domain.MsgTypeChatMessage,
		"roomId":  "room-1",
		"message": "hello",
	}))

	chat := readMessage(t, conn)
	assert.Equal(t, domain.MsgTypeChatMessage, chat["type"])
	assert.Equal(t, "hello", chat["message"])
}

func TestWebSocketMalformedMessage(t *testing.T) {
	e := newEnv(t)
	conn := dial(t, e, signToken(t, "user-1", "alice"))

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))

	reply := readMessage(t, conn)
	assert.Equal(t, domain.MsgTypeError, reply["type"])
	assert.Equal(t, domain.ErrCodeBadRequest, reply["code"])
}

func TestWebSocketUnknownType(t *testing.T) {
	e := newEnv(t)
	conn := dial(t, e, signToken(t, "user-1", "alice"))

	require.NoError(t, conn.WriteJSON(map[string]string{"type": "no-such-event"}))

	reply := readMessage(t, conn)
	assert.Equal(t, domain.ErrCodeBadRequest, reply["code"])
}

func TestWebSocketMissingRoomID(t *testing.T) {
	e := newEnv(t)
	conn := dial(t, e, signToken(t, "user-1", "alice"))

	require.NoError(t, conn.WriteJSON(map[string]string{"type": domain.MsgTypeJoinRoom}))

	reply := readMessage(t, conn)
	assert.Equal(t, domain.ErrCodeBadRequest, reply["code"])
}

func TestWebSocketDisconnectReconciles(t *testing.T) {
	e := newEnv(t, &domain.Room{
		ID:         "room-1",
		SellerID:   "seller-1",
		Status:     domain.RoomStatusLive,
		MaxViewers: 10,
	})

	conn := dial(t, e, signToken(t, "user-1", "alice"))
	require.NoError(t, conn.WriteJSON(map[string]string{
		"type":   domain.MsgTypeJoinRoom,
		"roomId": "room-1",
	}))
	readMessage(t, conn)
	readMessage(t, conn)

	conn.Close()

	require.Eventually(t, func() bool {
		count, err := e.service.ViewerCount(context.Background(), "room-1")
		return err == nil && count == 0
	}, 2*time.Second, 20*time.Millisecond)
}

func TestGetChatHistory(t *testing.T) {
	e := newEnv(t)
	require.NoError(t, e.store.AppendChat(context.Background(), "room-1", domain.ChatMessage{
		Sender:    domain.ChatSender{ID: "user-1", Username: "alice"},
		Message:   "hello",
		Timestamp: time.Now(),
	}))

	resp, err := http.Get(e.server.URL + "/api/v1/rooms/room-1/chat")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		RoomID   string               `json:"roomId"`
		Messages []domain.ChatMessage `json:"messages"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "room-1", body.RoomID)
	require.Len(t, body.Messages, 1)
	assert.Equal(t, "hello", body.Messages[0].Message)
}

func TestGetChatHistoryInvalidLimit(t *testing.T) {
	e := newEnv(t)

	resp, err := http.Get(e.server.URL + "/api/v1/rooms/room-1/chat?limit=abc")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetPresence(t *testing.T) {
	e := newEnv(t)

	resp, err := http.Get(e.server.URL + "/api/v1/rooms/room-1/presence")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, float64(0), body["viewerCount"])
}

func TestGetQueue(t *testing.T) {
	e := newEnv(t)
	_, err := e.store.AppendQueue(context.Background(), "room-1", domain.QueueEntry{
		UserID:   "user-1",
		Username: "alice",
		JoinedAt: time.Now(),
	})
	require.NoError(t, err)

	resp, err := http.Get(e.server.URL + "/api/v1/rooms/room-1/queue")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		QueueLength int                 `json:"queueLength"`
		Queue       []domain.QueueEntry `json:"queue"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, 1, body.QueueLength)
	require.Len(t, body.Queue, 1)
	assert.Equal(t, "alice", body.Queue[0].Username)
}

func TestHealth(t *testing.T) {
	e := newEnv(t)

	resp, err := http.Get(e.server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
