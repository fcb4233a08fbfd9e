package registry

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nitin16112004/live-shopping-application/internal/domain"
	"github.com/nitin16112004/live-shopping-application/internal/repository"
)

type countingRepo struct {
	calls int64
	rooms map[string]*domain.Room
}

func (r *countingRepo) GetByID(ctx context.Context, id string) (*domain.Room, error) {
	atomic.AddInt64(&r.calls, 1)
	room, ok := r.rooms[id]
	if !ok {
		return nil, repository.ErrRoomNotFound
	}
	copied := *room
	return &copied, nil
}

func (r *countingRepo) UpdateViewerCount(ctx context.Context, id string, count int) error {
	return nil
}

func TestRoomGetOrCreate(t *testing.T) {
	reg := New(&countingRepo{}, time.Minute)

	st := reg.Room("room-1")
	require.NotNil(t, st)
	assert.Same(t, st, reg.Room("room-1"))
	assert.NotSame(t, st, reg.Room("room-2"))

	assert.Nil(t, reg.Peek("room-3"))
	assert.Same(t, st, reg.Peek("room-1"))

	reg.Remove("room-1")
	assert.Nil(t, reg.Peek("room-1"))
}

func TestDescriptorCached(t *testing.T) {
	repo := &countingRepo{rooms: map[string]*domain.Room{
		"room-1": {ID: "room-1", Status: domain.RoomStatusLive, MaxViewers: 5},
	}}
	reg := New(repo, time.Minute)

	room, err := reg.Descriptor(context.Background(), "room-1")
	require.NoError(t, err)
	assert.Equal(t, "room-1", room.ID)

	_, err = reg.Descriptor(context.Background(), "room-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), atomic.LoadInt64(&repo.calls))
}

func TestDescriptorConcurrentFetchCollapsed(t *testing.T) {
	repo := &countingRepo{rooms: map[string]*domain.Room{
		"room-1": {ID: "room-1", Status: domain.RoomStatusLive},
	}}
	reg := New(repo, time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := reg.Descriptor(context.Background(), "room-1")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, atomic.LoadInt64(&repo.calls), int64(2))
}

func TestDescriptorNotFound(t *testing.T) {
	reg := New(&countingRepo{rooms: map[string]*domain.Room{}}, time.Minute)

	_, err := reg.Descriptor(context.Background(), "missing")
	assert.ErrorIs(t, err, repository.ErrRoomNotFound)
}

func TestInvalidateForcesRefetch(t *testing.T) {
	repo := &countingRepo{rooms: map[string]*domain.Room{
		"room-1": {ID: "room-1", Status: domain.RoomStatusLive},
	}}
	reg := New(repo, time.Minute)

	_, err := reg.Descriptor(context.Background(), "room-1")
	require.NoError(t, err)

	repo.rooms["room-1"].Status = domain.RoomStatusEnded
	reg.Invalidate("room-1")

	room, err := reg.Descriptor(context.Background(), "room-1")
	require.NoError(t, err)
	assert.Equal(t, domain.RoomStatusEnded, room.Status)
	assert.Equal(t, int64(2), atomic.LoadInt64(&repo.calls))
}

func TestRoomStateViewers(t *testing.T) {
	st := newRoomState()
	st.Lock()
	defer st.Unlock()

	assert.True(t, st.AddViewerLocked("user-1"))
	assert.False(t, st.AddViewerLocked("user-1"))
	assert.True(t, st.AddViewerLocked("user-2"))
	assert.Equal(t, 2, st.ViewerCountLocked())
	assert.True(t, st.HasViewerLocked("user-1"))

	assert.True(t, st.RemoveViewerLocked("user-1"))
	assert.False(t, st.RemoveViewerLocked("user-1"))
	assert.Equal(t, 1, st.ViewerCountLocked())

	st.ClearViewersLocked()
	assert.Equal(t, 0, st.ViewerCountLocked())
}

func TestRoomStateSubscribers(t *testing.T) {
	st := newRoomState()
	st.Lock()
	defer st.Unlock()

	st.SubscribeLocked("conn-1")
	st.SubscribeLocked("conn-2")
	assert.True(t, st.IsSubscribedLocked("conn-1"))
	assert.ElementsMatch(t, []string{"conn-1", "conn-2"}, st.SubscribersLocked())

	st.UnsubscribeLocked("conn-1")
	assert.False(t, st.IsSubscribedLocked("conn-1"))
}

func TestRoomStateQueue(t *testing.T) {
	st := newRoomState()
	st.Lock()
	defer st.Unlock()

	assert.Equal(t, 1, st.AppendQueueLocked(domain.QueueEntry{UserID: "user-1"}))
	assert.Equal(t, 2, st.AppendQueueLocked(domain.QueueEntry{UserID: "user-2"}))
	assert.Equal(t, 2, st.QueueLenLocked())

	queue := st.QueueLocked()
	require.Len(t, queue, 2)
	assert.Equal(t, "user-1", queue[0].UserID)
}

func TestRoomStateChatBounds(t *testing.T) {
	st := newRoomState()
	st.Lock()
	defer st.Unlock()

	now := time.Now()
	// an expired message followed by fresh ones
	st.AppendChatLocked(domain.ChatMessage{Message: "stale", Timestamp: now.Add(-25 * time.Hour)})
	st.AppendChatLocked(domain.ChatMessage{Message: "one", Timestamp: now})
	st.AppendChatLocked(domain.ChatMessage{Message: "two", Timestamp: now})

	msgs := st.ChatLocked(10)
	require.Len(t, msgs, 2)
	assert.Equal(t, "one", msgs[0].Message)

	limited := st.ChatLocked(1)
	require.Len(t, limited, 1)
	assert.Equal(t, "two", limited[0].Message)
}
