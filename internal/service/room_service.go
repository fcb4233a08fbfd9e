// Package service implements room coordination on top of the registry. Every
// mutating operation runs under its room's lock: the mutation and the
// broadcast enqueue happen inside the critical section, so all subscribers
// observe events in the order the operations were accepted.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/nitin16112004/live-shopping-application/internal/audit"
	"github.com/nitin16112004/live-shopping-application/internal/domain"
	"github.com/nitin16112004/live-shopping-application/internal/hub"
	"github.com/nitin16112004/live-shopping-application/internal/kafka"
	"github.com/nitin16112004/live-shopping-application/internal/registry"
	"github.com/nitin16112004/live-shopping-application/internal/repository"
	"github.com/nitin16112004/live-shopping-application/internal/store"
	pkglog "github.com/nitin16112004/live-shopping-application/pkg/log"
	"github.com/nitin16112004/live-shopping-application/pkg/pubsub"
)

// Options carries the tunables the service needs from config.
type Options struct {
	// StoreTimeout bounds every shared-store mirror call.
	StoreTimeout time.Duration
	// ChatHistoryLimit is the default page size for chat history reads.
	ChatHistoryLimit int
}

type roomService struct {
	registry *registry.Registry
	hub      *hub.Hub
	store    store.LiveStateStore
	repo     repository.RoomRepository
	producer kafka.ChatProducer
	bus      pubsub.PubSub

	instanceID       string
	storeTimeout     time.Duration
	chatHistoryLimit int

	cancel context.CancelFunc
}

// NewRoomService creates the coordination service. producer and bus may be
// nil; the corresponding integrations are then skipped.
func NewRoomService(reg *registry.Registry, h *hub.Hub, st store.LiveStateStore, repo repository.RoomRepository, producer kafka.ChatProducer, bus pubsub.PubSub, opts Options) RoomService {
	if opts.StoreTimeout <= 0 {
		opts.StoreTimeout = 2 * time.Second
	}
	if opts.ChatHistoryLimit <= 0 {
		opts.ChatHistoryLimit = 50
	}
	return &roomService{
		registry:         reg,
		hub:              h,
		store:            st,
		repo:             repo,
		producer:         producer,
		bus:              bus,
		instanceID:       uuid.New().String(),
		storeTimeout:     opts.StoreTimeout,
		chatHistoryLimit: opts.ChatHistoryLimit,
	}
}

func (s *roomService) HandleJoinRoom(ctx context.Context, c *hub.Client, roomID string) error {
	l := pkglog.Ctx(ctx)

	room, err := s.registry.Descriptor(ctx, roomID)
	if err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			c.SendMessage(domain.NewErrorMessage(domain.ErrCodeRoomNotFound, "room not found"))
			return nil
		}
		l.Error().Err(err).Str(pkglog.FieldRoomID, roomID).Msg("failed to resolve room")
		c.SendMessage(domain.NewErrorMessage(domain.ErrCodeInternalError, "failed to resolve room"))
		return nil
	}
	if !room.IsLive() {
		c.SendMessage(domain.NewErrorMessage(domain.ErrCodeRoomNotLive, "room is not live"))
		return nil
	}

	userID := c.Session.Identity.UserID
	st := s.registry.Room(roomID)

	st.Lock()
	if !st.HasViewerLocked(userID) && st.ViewerCountLocked() >= room.MaxViewers {
		st.Unlock()
		c.SendMessage(domain.NewErrorMessage(domain.ErrCodeRoomFull, "room is at capacity"))
		return nil
	}
	st.AddViewerLocked(userID)
	st.SubscribeLocked(c.ID)
	count := st.ViewerCountLocked()

	s.mirrorViewerAdd(ctx, roomID, userID, count)

	c.SendMessage(&domain.JoinedRoomMessage{
		Type:        domain.MsgTypeJoinedRoom,
		RoomID:      roomID,
		ViewerCount: count,
	})
	s.publishLocked(st, &domain.ViewerCountMessage{
		Type:        domain.MsgTypeViewerCount,
		RoomID:      roomID,
		ViewerCount: count,
	}, "")
	st.Unlock()

	c.Session.JoinRoom(roomID)
	s.publishCountSync(ctx, roomID, count)

	l.Info().
		Str(pkglog.FieldRoomID, roomID).
		Str(pkglog.FieldUserID, userID).
		Int("viewer_count", count).
		Msg("viewer joined room")
	return nil
}

func (s *roomService) HandleLeaveRoom(ctx context.Context, c *hub.Client, roomID string) error {
	s.leaveRoom(ctx, c, roomID)
	return nil
}

// leaveRoom is shared between an explicit leave-room and disconnect
// reconciliation. It never fails: the viewer removal is idempotent and the
// updated count is always broadcast.
func (s *roomService) leaveRoom(ctx context.Context, c *hub.Client, roomID string) {
	userID := c.Session.Identity.UserID
	st := s.registry.Room(roomID)

	st.Lock()
	removed := st.RemoveViewerLocked(userID)
	st.UnsubscribeLocked(c.ID)
	count := st.ViewerCountLocked()

	if removed {
		s.mirrorViewerRemove(ctx, roomID, userID, count)
	}

	s.publishLocked(st, &domain.ViewerCountMessage{
		Type:        domain.MsgTypeViewerCount,
		RoomID:      roomID,
		ViewerCount: count,
	}, "")
	st.Unlock()

	c.Session.LeaveRoom(roomID)
	s.publishCountSync(ctx, roomID, count)

	pkglog.Ctx(ctx).Info().
		Str(pkglog.FieldRoomID, roomID).
		Str(pkglog.FieldUserID, userID).
		Int("viewer_count", count).
		Msg("viewer left room")
}

func (s *roomService) HandleChatMessage(ctx context.Context, c *hub.Client, roomID, text string) error {
	if text == "" {
		c.SendMessage(domain.NewErrorMessage(domain.ErrCodeBadRequest, "empty chat message"))
		return nil
	}

	msg := domain.ChatMessage{
		Sender: domain.ChatSender{
			ID:       c.Session.Identity.UserID,
			Username: c.Session.Identity.Username,
			Avatar:   c.Session.Identity.Avatar,
		},
		Message:   text,
		Timestamp: time.Now(),
	}

	st := s.registry.Room(roomID)
	st.Lock()
	st.AppendChatLocked(msg)

	mctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	if err := s.store.AppendChat(mctx, roomID, msg); err != nil {
		pkglog.Ctx(ctx).Warn().Err(err).Str(pkglog.FieldRoomID, roomID).Msg("chat mirror failed")
	}
	cancel()

	s.publishLocked(st, &domain.ChatBroadcastMessage{
		Type:      domain.MsgTypeChatMessage,
		RoomID:    roomID,
		Sender:    msg.Sender,
		Message:   msg.Message,
		Timestamp: msg.Timestamp,
	}, "")
	st.Unlock()

	if s.producer != nil {
		if err := s.producer.ProduceChatMessage(ctx, roomID, msg); err != nil {
			pkglog.Ctx(ctx).Warn().Err(err).Str(pkglog.FieldRoomID, roomID).Msg("chat persistence produce failed")
		}
	}
	return nil
}

func (s *roomService) HandleOffer(ctx context.Context, c *hub.Client, roomID string, offer json.RawMessage) error {
	st := s.registry.Room(roomID)
	st.Lock()
	defer st.Unlock()

	// Signaling from connections outside the room is dropped without a
	// reply.
	if !st.IsSubscribedLocked(c.ID) {
		return nil
	}

	s.publishLocked(st, &domain.OfferBroadcastMessage{
		Type:           domain.MsgTypeOffer,
		RoomID:         roomID,
		SenderID:       c.Session.Identity.UserID,
		SenderUsername: c.Session.Identity.Username,
		Offer:          offer,
	}, c.ID)
	return nil
}

func (s *roomService) HandleAnswer(ctx context.Context, c *hub.Client, roomID, targetUserID string, answer json.RawMessage) error {
	st := s.registry.Room(roomID)
	st.Lock()
	defer st.Unlock()

	if !st.IsSubscribedLocked(c.ID) {
		return nil
	}

	// answers go to the whole room, sender included; receivers filter by
	// the target hint
	s.publishLocked(st, &domain.AnswerBroadcastMessage{
		Type:         domain.MsgTypeAnswer,
		RoomID:       roomID,
		SenderID:     c.Session.Identity.UserID,
		TargetUserID: targetUserID,
		Answer:       answer,
	}, "")
	return nil
}

func (s *roomService) HandleICECandidate(ctx context.Context, c *hub.Client, roomID, targetUserID string, candidate json.RawMessage) error {
	st := s.registry.Room(roomID)
	st.Lock()
	defer st.Unlock()

	if !st.IsSubscribedLocked(c.ID) {
		return nil
	}

	s.publishLocked(st, &domain.ICEBroadcastMessage{
		Type:         domain.MsgTypeICECandidate,
		RoomID:       roomID,
		SenderID:     c.Session.Identity.UserID,
		TargetUserID: targetUserID,
		Candidate:    candidate,
	}, "")
	return nil
}

func (s *roomService) HandleSpotlight(ctx context.Context, c *hub.Client, roomID, productID string) error {
	userID := c.Session.Identity.UserID

	room, err := s.registry.Descriptor(ctx, roomID)
	if err != nil {
		pkglog.Ctx(ctx).Warn().Err(err).Str(pkglog.FieldRoomID, roomID).Msg("spotlight dropped, room unresolved")
		return nil
	}
	if room.SellerID != userID {
		audit.Warn(ctx, audit.ActionSpotlightDenied, userID, roomID, "spotlight from non-seller dropped")
		return nil
	}

	st := s.registry.Room(roomID)
	st.Lock()
	s.publishLocked(st, &domain.ProductSpotlightMessage{
		Type:      domain.MsgTypeProductSpotlight,
		RoomID:    roomID,
		ProductID: productID,
	}, "")
	st.Unlock()

	audit.Log(ctx, audit.ActionSpotlight, userID, roomID, "product spotlighted")
	return nil
}

func (s *roomService) HandleJoinQueue(ctx context.Context, c *hub.Client, roomID string) error {
	entry := domain.QueueEntry{
		UserID:   c.Session.Identity.UserID,
		Username: c.Session.Identity.Username,
		JoinedAt: time.Now(),
	}

	st := s.registry.Room(roomID)
	st.Lock()
	position := st.AppendQueueLocked(entry)
	length := st.QueueLenLocked()

	mctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	if _, err := s.store.AppendQueue(mctx, roomID, entry); err != nil {
		pkglog.Ctx(ctx).Warn().Err(err).Str(pkglog.FieldRoomID, roomID).Msg("queue mirror failed")
	}
	cancel()

	c.SendMessage(&domain.QueueJoinedMessage{
		Type:     domain.MsgTypeQueueJoined,
		Position: position,
	})
	s.publishLocked(st, &domain.QueueUpdatedMessage{
		Type:        domain.MsgTypeQueueUpdated,
		RoomID:      roomID,
		QueueLength: length,
	}, "")
	st.Unlock()

	audit.Log(ctx, audit.ActionJoinQueue, entry.UserID, roomID, "joined waiting queue")
	return nil
}

func (s *roomService) HandleDisconnect(ctx context.Context, c *hub.Client) error {
	rooms := c.Session.Rooms()
	for _, roomID := range rooms {
		s.leaveRoom(ctx, c, roomID)
	}

	if len(rooms) > 0 {
		pkglog.Ctx(ctx).Info().
			Str(pkglog.FieldClientID, c.ID).
			Int("rooms", len(rooms)).
			Msg("disconnect reconciled")
	}
	return nil
}

func (s *roomService) ChatHistory(ctx context.Context, roomID string, limit int) ([]domain.ChatMessage, error) {
	if limit <= 0 {
		limit = s.chatHistoryLimit
	}
	return s.store.ChatHistory(ctx, roomID, limit)
}

func (s *roomService) ViewerCount(ctx context.Context, roomID string) (int, error) {
	st := s.registry.Peek(roomID)
	if st == nil {
		return 0, nil
	}
	st.Lock()
	defer st.Unlock()
	return st.ViewerCountLocked(), nil
}

func (s *roomService) QueueEntries(ctx context.Context, roomID string) ([]domain.QueueEntry, error) {
	return s.store.QueueEntries(ctx, roomID)
}

// Start subscribes to the coordination bus for room lifecycle transitions and
// cross-instance viewer-count updates.
func (s *roomService) Start(ctx context.Context) error {
	if s.bus == nil {
		return nil
	}

	ctx, s.cancel = context.WithCancel(ctx)

	lifecycle, err := s.bus.Subscribe(ctx, pubsub.RoomLifecycleChannel())
	if err != nil {
		return err
	}
	presence, err := s.bus.Subscribe(ctx, pubsub.PresenceUpdatesChannel())
	if err != nil {
		return err
	}

	go s.consumeLifecycle(ctx, lifecycle)
	go s.consumePresence(ctx, presence)
	return nil
}

func (s *roomService) Stop() error {
	if s.cancel != nil {
		s.cancel()
	}
	return nil
}

func (s *roomService) consumeLifecycle(ctx context.Context, events <-chan *pubsub.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			switch ev.Type {
			case pubsub.EventRoomEnded:
				s.handleRoomEnded(ctx, ev.RoomID)
			case pubsub.EventRoomStarted:
				s.registry.Invalidate(ev.RoomID)
			}
		}
	}
}

// handleRoomEnded tears the room down locally: the viewer set is cleared, a
// zero count is broadcast to everyone still connected, and the cached
// descriptor is discarded so the next join sees the ended status.
func (s *roomService) handleRoomEnded(ctx context.Context, roomID string) {
	s.registry.Invalidate(roomID)

	st := s.registry.Peek(roomID)
	if st == nil {
		return
	}

	st.Lock()
	st.ClearViewersLocked()

	mctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	if err := s.store.ClearViewers(mctx, roomID); err != nil {
		pkglog.Ctx(ctx).Warn().Err(err).Str(pkglog.FieldRoomID, roomID).Msg("viewer clear mirror failed")
	}
	cancel()

	s.publishLocked(st, &domain.ViewerCountMessage{
		Type:        domain.MsgTypeViewerCount,
		RoomID:      roomID,
		ViewerCount: 0,
	}, "")
	st.Unlock()

	s.updateRepoCount(ctx, roomID, 0)

	pkglog.Ctx(ctx).Info().Str(pkglog.FieldRoomID, roomID).Msg("room ended, local state cleared")
}

func (s *roomService) consumePresence(ctx context.Context, events <-chan *pubsub.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if ev.Type != pubsub.EventViewerCount {
				continue
			}

			var payload pubsub.ViewerCountPayload
			if err := ev.UnmarshalPayload(&payload); err != nil {
				pkglog.Ctx(ctx).Warn().Err(err).Msg("bad viewer-count payload")
				continue
			}
			if payload.OriginInstanceID == s.instanceID {
				continue
			}

			st := s.registry.Peek(payload.RoomID)
			if st == nil {
				continue
			}
			st.Lock()
			s.publishLocked(st, &domain.ViewerCountMessage{
				Type:        domain.MsgTypeViewerCount,
				RoomID:      payload.RoomID,
				ViewerCount: payload.Count,
			}, "")
			st.Unlock()
		}
	}
}

// publishLocked marshals once and enqueues to every subscriber of the room.
// A subscriber whose buffer is full has stalled and is forcibly disconnected;
// one that is already gone is lazily unsubscribed. Must be called with the
// room lock held.
func (s *roomService) publishLocked(st *registry.RoomState, message interface{}, excludeClientID string) {
	data, err := json.Marshal(message)
	if err != nil {
		pkglog.L().Error().Err(err).Msg("broadcast marshal failed")
		return
	}

	for _, id := range st.SubscribersLocked() {
		if id == excludeClientID {
			continue
		}
		if s.hub.TrySend(id, data) {
			continue
		}
		st.UnsubscribeLocked(id)
		if client := s.hub.Get(id); client != nil {
			go s.hub.Drop(client)
		}
	}
}

func (s *roomService) mirrorViewerAdd(ctx context.Context, roomID, userID string, count int) {
	mctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	if err := s.store.AddViewer(mctx, roomID, userID); err != nil {
		pkglog.Ctx(ctx).Warn().Err(err).Str(pkglog.FieldRoomID, roomID).Msg("viewer add mirror failed")
	}
	s.updateRepoCount(ctx, roomID, count)
}

func (s *roomService) mirrorViewerRemove(ctx context.Context, roomID, userID string, count int) {
	mctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	if err := s.store.RemoveViewer(mctx, roomID, userID); err != nil {
		pkglog.Ctx(ctx).Warn().Err(err).Str(pkglog.FieldRoomID, roomID).Msg("viewer remove mirror failed")
	}
	s.updateRepoCount(ctx, roomID, count)
}

func (s *roomService) updateRepoCount(ctx context.Context, roomID string, count int) {
	if s.repo == nil {
		return
	}
	mctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	if err := s.repo.UpdateViewerCount(mctx, roomID, count); err != nil {
		pkglog.Ctx(ctx).Warn().Err(err).Str(pkglog.FieldRoomID, roomID).Msg("viewer count persist failed")
	}
}

func (s *roomService) publishCountSync(ctx context.Context, roomID string, count int) {
	if s.bus == nil {
		return
	}
	ev, err := pubsub.NewEvent(pubsub.EventViewerCount, roomID, pubsub.ViewerCountPayload{
		RoomID:           roomID,
		Count:            count,
		OriginInstanceID: s.instanceID,
	})
	if err != nil {
		return
	}
	mctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	if err := s.bus.Publish(mctx, pubsub.PresenceUpdatesChannel(), ev); err != nil {
		pkglog.Ctx(ctx).Warn().Err(err).Str(pkglog.FieldRoomID, roomID).Msg("count sync publish failed")
	}
}
