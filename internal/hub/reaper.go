package hub

import (
	"time"

	"github.com/Shubhaannsaae/healthconnect-ai-sub001/internal/event"
	"github.com/Shubhaannsaae/healthconnect-ai-sub001/internal/notify"

	"go.uber.org/zap"
)

// Reaper removes connections whose transport has become unreachable.
// Reaping is idempotent and safe to race against in-flight deliveries to
// the same connection: the losing delivery fails and re-triggers a no-op.
type Reaper struct {
	registry *Registry
	router   *Router
	events   notify.Dispatcher
	logger   *zap.Logger
}

// NewReaper creates a reaper over the registry.
// Note: call SetRouter() before reaping to complete the initialization.
func NewReaper(registry *Registry, events notify.Dispatcher, logger *zap.Logger) *Reaper {
	return &Reaper{
		registry: registry,
		events:   events,
		logger:   logger,
	}
}

// SetRouter sets the router used for vacated-room notifications. Must be
// called after the router is created.
func (rp *Reaper) SetRouter(router *Router) {
	rp.router = router
}

// Reap removes the connection from the registry. If the removed record held
// a room membership, the remaining members receive a leave notification
// exactly once. A double reap is a no-op; Reap never errors outward.
func (rp *Reaper) Reap(connID string) {
	removed, ok := rp.registry.Remove(connID)
	if !ok {
		return
	}

	rp.logger.Info("connection reaped",
		zap.String("connection_id", connID),
		zap.String("user_id", removed.UserID),
		zap.String("room_id", removed.RoomID),
	)

	if removed.RoomID != "" && rp.router != nil {
		frame := event.Marshal(event.RoomMembershipNotice{
			Type:      event.TypeUserLeftRoom,
			RoomID:    removed.RoomID,
			UserID:    removed.UserID,
			UserType:  removed.Role,
			Timestamp: time.Now().Unix(),
		})

		// The reaped connection is already gone from the registry, so the
		// room lookup cannot re-target it.
		if _, err := rp.router.Route(Delivery{
			Mode:   ModeRoom,
			RoomID: removed.RoomID,
			Frame:  frame,
		}); err != nil {
			rp.logger.Warn("room leave notification failed",
				zap.String("room_id", removed.RoomID),
				zap.Error(err),
			)
		}
	}

	if rp.events != nil {
		rp.events.Emit("connection_closed", map[string]interface{}{
			"connection_id": connID,
			"user_id":       removed.UserID,
			"room_id":       removed.RoomID,
		})
	}
}
