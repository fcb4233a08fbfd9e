package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/nitin16112004/live-shopping-application/internal/domain"
	"github.com/nitin16112004/live-shopping-application/internal/service"
	pkglog "github.com/nitin16112004/live-shopping-application/pkg/log"
)

// HTTPHandler exposes read-only room state over REST.
type HTTPHandler struct {
	service service.RoomService
}

// NewHTTPHandler creates a new HTTP handler.
func NewHTTPHandler(svc service.RoomService) *HTTPHandler {
	return &HTTPHandler{service: svc}
}

// RegisterRoutes registers the REST routes on the router.
func (h *HTTPHandler) RegisterRoutes(r *mux.Router) {
	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/rooms/{room_id}/chat", h.GetChatHistory).Methods(http.MethodGet)
	api.HandleFunc("/rooms/{room_id}/presence", h.GetPresence).Methods(http.MethodGet)
	api.HandleFunc("/rooms/{room_id}/queue", h.GetQueue).Methods(http.MethodGet)

	r.HandleFunc("/health", h.Health).Methods(http.MethodGet)
}

// GetChatHistory returns the most recent chat messages for a room, oldest
// first.
func (h *HTTPHandler) GetChatHistory(w http.ResponseWriter, r *http.Request) {
	roomID := mux.Vars(r)["room_id"]

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	messages, err := h.service.ChatHistory(r.Context(), roomID, limit)
	if err != nil {
		pkglog.Ctx(r.Context()).Error().Err(err).Str(pkglog.FieldRoomID, roomID).Msg("chat history read failed")
		writeError(w, http.StatusInternalServerError, "failed to read chat history")
		return
	}
	if messages == nil {
		messages = []domain.ChatMessage{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"roomId":   roomID,
		"messages": messages,
	})
}

// GetPresence returns the current viewer count for a room.
func (h *HTTPHandler) GetPresence(w http.ResponseWriter, r *http.Request) {
	roomID := mux.Vars(r)["room_id"]

	count, err := h.service.ViewerCount(r.Context(), roomID)
	if err != nil {
		pkglog.Ctx(r.Context()).Error().Err(err).Str(pkglog.FieldRoomID, roomID).Msg("presence read failed")
		writeError(w, http.StatusInternalServerError, "failed to read presence")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"roomId":      roomID,
		"viewerCount": count,
	})
}

// GetQueue returns the waiting queue for a room in join order.
func (h *HTTPHandler) GetQueue(w http.ResponseWriter, r *http.Request) {
	roomID := mux.Vars(r)["room_id"]

	entries, err := h.service.QueueEntries(r.Context(), roomID)
	if err != nil {
		pkglog.Ctx(r.Context()).Error().Err(err).Str(pkglog.FieldRoomID, roomID).Msg("queue read failed")
		writeError(w, http.StatusInternalServerError, "failed to read queue")
		return
	}
	if entries == nil {
		entries = []domain.QueueEntry{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"roomId":      roomID,
		"queueLength": len(entries),
		"queue":       entries,
	})
}

// Health reports service liveness.
func (h *HTTPHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
