package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nitin16112004/live-shopping-application/internal/domain"
	"github.com/nitin16112004/live-shopping-application/internal/hub"
	"github.com/nitin16112004/live-shopping-application/internal/registry"
	"github.com/nitin16112004/live-shopping-application/internal/store"
	"github.com/nitin16112004/live-shopping-application/pkg/pubsub"
)

// fakeBus is an in-process stand-in for the Redis event bus.
type fakeBus struct {
	mu    sync.Mutex
	chans map[string]chan *pubsub.Event
}

func newFakeBus() *fakeBus {
	return &fakeBus{chans: make(map[string]chan *pubsub.Event)}
}

func (b *fakeBus) Publish(ctx context.Context, channel string, event *pubsub.Event) error {
	b.mu.Lock()
	ch, ok := b.chans[channel]
	b.mu.Unlock()
	if ok {
		ch <- event
	}
	return nil
}

func (b *fakeBus) Subscribe(ctx context.Context, channel string) (<-chan *pubsub.Event, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan *pubsub.Event, 16)
	b.chans[channel] = ch
	return ch, nil
}

func (b *fakeBus) Unsubscribe(ctx context.Context, channel string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.chans, channel)
	return nil
}

func (b *fakeBus) Close() error { return nil }

func newBusFixture(t *testing.T, rooms ...*domain.Room) (*fixture, *fakeBus) {
	t.Helper()
	repo := newStubRoomRepo(rooms...)
	h := hub.NewHub()
	st := store.NewMemoryStore()
	reg := registry.New(repo, time.Minute)
	bus := newFakeBus()
	svc := NewRoomService(reg, h, st, repo, nil, bus, Options{
		StoreTimeout:     time.Second,
		ChatHistoryLimit: 50,
	})

	require.NoError(t, svc.Start(context.Background()))
	t.Cleanup(func() { svc.Stop() })

	return &fixture{repo: repo, hub: h, store: st, service: svc}, bus
}

func TestRoomEndedClearsState(t *testing.T) {
	f, bus := newBusFixture(t, liveRoom("room-1", "seller-1", 10))
	c := f.connect(t, "user-1", "alice")

	require.NoError(t, f.service.HandleJoinRoom(context.Background(), c, "room-1"))
	recvAll(t, c)

	ev, err := pubsub.NewEvent(pubsub.EventRoomEnded, "room-1", pubsub.RoomLifecyclePayload{
		RoomID: "room-1",
		Status: string(domain.RoomStatusEnded),
	})
	require.NoError(t, err)
	require.NoError(t, bus.Publish(context.Background(), pubsub.RoomLifecycleChannel(), ev))

	require.Eventually(t, func() bool {
		count, err := f.service.ViewerCount(context.Background(), "room-1")
		return err == nil && count == 0
	}, time.Second, 10*time.Millisecond)

	// connected subscribers are told the room emptied
	require.Eventually(t, func() bool {
		for _, m := range recvAll(t, c) {
			if m["type"] == domain.MsgTypeViewerCount && m["viewerCount"] == float64(0) {
				return true
			}
		}
		return false
	}, time.Second, 10*time.Millisecond)

	stored, err := f.store.ViewerCount(context.Background(), "room-1")
	require.NoError(t, err)
	assert.Equal(t, 0, stored)
}

func TestRemoteViewerCountRebroadcast(t *testing.T) {
	f, bus := newBusFixture(t, liveRoom("room-1", "seller-1", 10))
	c := f.connect(t, "user-1", "alice")

	require.NoError(t, f.service.HandleJoinRoom(context.Background(), c, "room-1"))
	recvAll(t, c)

	ev, err := pubsub.NewEvent(pubsub.EventViewerCount, "room-1", pubsub.ViewerCountPayload{
		RoomID:           "room-1",
		Count:            7,
		OriginInstanceID: "another-instance",
	})
	require.NoError(t, err)
	require.NoError(t, bus.Publish(context.Background(), pubsub.PresenceUpdatesChannel(), ev))

	require.Eventually(t, func() bool {
		for _, m := range recvAll(t, c) {
			if m["type"] == domain.MsgTypeViewerCount && m["viewerCount"] == float64(7) {
				return true
			}
		}
		return false
	}, time.Second, 10*time.Millisecond)
}

func TestOwnViewerCountEchoSkipped(t *testing.T) {
	f, _ := newBusFixture(t, liveRoom("room-1", "seller-1", 10))
	c := f.connect(t, "user-1", "alice")

	// the join publishes a count-sync event to the bus; the instance must
	// not rebroadcast its own echo back to subscribers
	require.NoError(t, f.service.HandleJoinRoom(context.Background(), c, "room-1"))

	msgs := recvAll(t, c)
	require.Equal(t, []string{domain.MsgTypeJoinedRoom, domain.MsgTypeViewerCount}, msgTypes(msgs))

	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, recvAll(t, c))
}
