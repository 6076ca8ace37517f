package hub

import (
	"errors"

	"github.com/Shubhaannsaae/healthconnect-ai-sub001/internal/model"

	"go.uber.org/zap"
)

// AddressMode selects how a delivery resolves its target set
type AddressMode int

const (
	ModeDirect AddressMode = iota + 1 // every connection of one or more users
	ModeRoom                          // members of a room, sender excluded
	ModeRole                          // identified connections by role, sender excluded
	ModeAll                           // everyone, sender excluded
)

var ErrMalformedAddress = errors.New("malformed address: missing or unknown target selector")

// Delivery is one addressed payload. Exactly one addressing mode applies;
// the selector fields beyond that mode are ignored.
type Delivery struct {
	Mode          AddressMode
	SenderConnID  string
	TargetUserID  string
	TargetUserIDs []string
	RoomID        string
	Roles         []model.Role
	Frame         []byte
}

// DeliveryReport records, per target connection, success or failure
type DeliveryReport struct {
	Delivered []string
	Failed    []string
}

func (r DeliveryReport) DeliveredCount() int { return len(r.Delivered) }
func (r DeliveryReport) FailedCount() int    { return len(r.Failed) }
func (r DeliveryReport) TargetCount() int    { return len(r.Delivered) + len(r.Failed) }

// Router resolves addressed payloads into registry target sets and attempts
// delivery. It borrows read access to the registry; its only mutation path
// is handing failed targets to the reaper. It never retries: retry is the
// transport's concern, the router only guarantees failed entries are pruned.
type Router struct {
	registry *Registry
	reaper   *Reaper
	logger   *zap.Logger
}

// NewRouter creates a router over the registry.
// Note: call SetReaper() before routing to complete the initialization.
func NewRouter(registry *Registry, logger *zap.Logger) *Router {
	return &Router{
		registry: registry,
		logger:   logger,
	}
}

// SetReaper sets the reaper invoked on delivery failures. Must be called
// after the reaper is created.
func (r *Router) SetReaper(reaper *Reaper) {
	r.reaper = reaper
}

// Route resolves the delivery's target set and attempts delivery to each
// target independently. One target's failure never blocks the others; each
// failure triggers reaping for that target before the report returns.
func (r *Router) Route(d Delivery) (DeliveryReport, error) {
	targets, err := r.resolve(d)
	if err != nil {
		return DeliveryReport{}, err
	}

	report := DeliveryReport{
		Delivered: make([]string, 0, len(targets)),
	}

	// Targets were collected under the registry lock; delivery happens
	// after release so a slow sink cannot stall unrelated mutation.
	for _, target := range targets {
		if target.Sink != nil && target.Sink.TrySend(d.Frame, sendTimeout) {
			report.Delivered = append(report.Delivered, target.Conn.ID)
			continue
		}

		report.Failed = append(report.Failed, target.Conn.ID)
		r.logger.Warn("delivery failed, reaping target",
			zap.String("connection_id", target.Conn.ID),
			zap.String("user_id", target.Conn.UserID),
		)
		if r.reaper != nil {
			r.reaper.Reap(target.Conn.ID)
		}
	}

	return report, nil
}

func (r *Router) resolve(d Delivery) ([]Target, error) {
	switch d.Mode {
	case ModeDirect:
		userIDs := d.TargetUserIDs
		if d.TargetUserID != "" {
			userIDs = append([]string{d.TargetUserID}, userIDs...)
		}
		if len(userIDs) == 0 {
			return nil, ErrMalformedAddress
		}
		targets := make([]Target, 0)
		for _, userID := range userIDs {
			targets = append(targets, r.registry.ByUser(userID)...)
		}
		return targets, nil

	case ModeRoom:
		if d.RoomID == "" {
			return nil, ErrMalformedAddress
		}
		return r.registry.ByRoom(d.RoomID, d.SenderConnID), nil

	case ModeRole:
		if len(d.Roles) == 0 {
			return nil, ErrMalformedAddress
		}
		return r.registry.ByRole(d.SenderConnID, d.Roles...), nil

	case ModeAll:
		return r.registry.All(d.SenderConnID), nil

	default:
		return nil, ErrMalformedAddress
	}
}
