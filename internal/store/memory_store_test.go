package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nitin16112004/live-shopping-application/internal/domain"
)

func chatMsg(userID, text string) domain.ChatMessage {
	return domain.ChatMessage{
		Sender:    domain.ChatSender{ID: userID, Username: userID},
		Message:   text,
		Timestamp: time.Now(),
	}
}

func TestMemoryStoreViewers(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.AddViewer(ctx, "room-1", "user-1"))
	require.NoError(t, s.AddViewer(ctx, "room-1", "user-2"))
	// set semantics: re-adding is a no-op
	require.NoError(t, s.AddViewer(ctx, "room-1", "user-1"))

	count, err := s.ViewerCount(ctx, "room-1")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	require.NoError(t, s.RemoveViewer(ctx, "room-1", "user-1"))
	require.NoError(t, s.RemoveViewer(ctx, "room-1", "absent"))

	count, err = s.ViewerCount(ctx, "room-1")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	require.NoError(t, s.ClearViewers(ctx, "room-1"))
	count, err = s.ViewerCount(ctx, "room-1")
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestMemoryStoreViewersIsolatedPerRoom(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.AddViewer(ctx, "room-1", "user-1"))
	require.NoError(t, s.AddViewer(ctx, "room-2", "user-1"))

	count, err := s.ViewerCount(ctx, "room-1")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	require.NoError(t, s.RemoveViewer(ctx, "room-1", "user-1"))
	count, err = s.ViewerCount(ctx, "room-2")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestMemoryStoreChatHistory(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, s.AppendChat(ctx, "room-1", chatMsg("user-1", fmt.Sprintf("msg-%d", i))))
	}

	history, err := s.ChatHistory(ctx, "room-1", 3)
	require.NoError(t, err)
	require.Len(t, history, 3)
	// most recent messages, oldest first
	assert.Equal(t, "msg-2", history[0].Message)
	assert.Equal(t, "msg-4", history[2].Message)

	all, err := s.ChatHistory(ctx, "room-1", 100)
	require.NoError(t, err)
	assert.Len(t, all, 5)
}

func TestMemoryStoreChatHistoryEmptyRoom(t *testing.T) {
	s := NewMemoryStore()

	history, err := s.ChatHistory(context.Background(), "missing", 10)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestMemoryStoreQueue(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	for i, name := range []string{"alice", "bob", "carol"} {
		pos, err := s.AppendQueue(ctx, "room-1", domain.QueueEntry{
			UserID:   fmt.Sprintf("user-%d", i),
			Username: name,
			JoinedAt: time.Now(),
		})
		require.NoError(t, err)
		assert.Equal(t, i+1, pos)
	}

	entries, err := s.QueueEntries(ctx, "room-1")
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "alice", entries[0].Username)
	assert.Equal(t, "bob", entries[1].Username)
	assert.Equal(t, "carol", entries[2].Username)
}
