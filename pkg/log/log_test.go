package log

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGlobalLoggerChains(t *testing.T) {
	// L and Ctx must support direct event chaining without an
	// intermediate assignment
	L().Debug().Str(FieldClientID, "conn-1").Msg("chained on global")
	Ctx(context.Background()).Debug().Msg("chained on context fallback")
}

func TestCtxReturnsStoredLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	ctx := WithLogger(context.Background(), logger.With().Str(FieldRoomID, "room-1").Logger())
	Ctx(ctx).Info().Msg("hello")

	assert.Contains(t, buf.String(), `"room_id":"room-1"`)
	assert.Contains(t, buf.String(), "hello")
}

func TestCtxFallsBackToGlobal(t *testing.T) {
	assert.NotNil(t, Ctx(context.Background()))
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, parseLevel("debug"))
	assert.Equal(t, zerolog.WarnLevel, parseLevel("warning"))
	assert.Equal(t, zerolog.InfoLevel, parseLevel("nonsense"))
}

func TestHTTPMiddleware(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	handler := HTTPMiddleware(&logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// the request context carries the per-request logger
		Ctx(r.Context()).Info().Msg("inside handler")
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/rooms/room-1/presence", nil))

	require.Equal(t, http.StatusTeapot, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
	assert.Contains(t, buf.String(), "inside handler")
	assert.Contains(t, buf.String(), `"status":418`)
	assert.Contains(t, buf.String(), `"path":"/api/v1/rooms/room-1/presence"`)
}
