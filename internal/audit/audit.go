package audit

import (
	"context"

	"github.com/nitin16112004/live-shopping-application/pkg/log"
)

// Audit actions emitted by the coordination service.
const (
	ActionSpotlight       = "room.spotlight"
	ActionSpotlightDenied = "room.spotlight_denied"
	ActionJoinQueue       = "room.join_queue"
)

const (
	FieldAction = "action"
	FieldDetail = "detail"
)

// Log emits a structured audit log entry via the context logger.
func Log(ctx context.Context, action, userID, roomID, msg string) {
	l := log.Ctx(ctx)
	l.Info().
		Str(log.FieldLogType, log.LogTypeAudit).
		Str(FieldAction, action).
		Str(log.FieldUserID, userID).
		Str(log.FieldRoomID, roomID).
		Msg(msg)
}

// Warn emits an audit entry for a rejected action.
func Warn(ctx context.Context, action, userID, roomID, msg string) {
	l := log.Ctx(ctx)
	l.Warn().
		Str(log.FieldLogType, log.LogTypeAudit).
		Str(FieldAction, action).
		Str(log.FieldUserID, userID).
		Str(log.FieldRoomID, roomID).
		Msg(msg)
}
