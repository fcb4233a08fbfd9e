package repository

import (
	"context"
	"errors"

	"github.com/nitin16112004/live-shopping-application/internal/domain"
)

// ErrRoomNotFound is returned when no room exists with the given ID.
var ErrRoomNotFound = errors.New("room not found")

// RoomRepository reads room descriptors from the persisted store and mirrors
// the live viewer count back. The descriptor rows are owned by the
// seller-facing room surface; this service never creates or deletes them.
type RoomRepository interface {
	// GetByID retrieves a room descriptor by ID.
	GetByID(ctx context.Context, id string) (*domain.Room, error)

	// UpdateViewerCount mirrors the current viewer count. Best-effort: the
	// caller logs failures and never surfaces them.
	UpdateViewerCount(ctx context.Context, id string, count int) error
}
