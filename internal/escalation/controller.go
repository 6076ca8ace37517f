package escalation

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/Shubhaannsaae/healthconnect-ai-sub001/internal/event"
	"github.com/Shubhaannsaae/healthconnect-ai-sub001/internal/model"
	"github.com/Shubhaannsaae/healthconnect-ai-sub001/internal/notify"
	"github.com/Shubhaannsaae/healthconnect-ai-sub001/internal/repo"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrAlertNotFound        = errors.New("alert not found")
	ErrAlertAlreadyResolved = errors.New("alert already resolved")
)

// DefaultMaxTier caps escalation when no configured value applies
const DefaultMaxTier = 5

const auditTimeout = 5 * time.Second

// Tier response windows. An active alert unacknowledged past its window is
// promoted to the next tier on the following sweep.
const (
	tier1SLA   = 60 * time.Second
	tier2SLA   = 180 * time.Second
	defaultSLA = 600 * time.Second
)

// Broadcaster fans an alert frame out to responder connections
type Broadcaster interface {
	BroadcastAlert(frame []byte, tier int) (delivered int, failed int)
}

// Controller owns the alert store and the acknowledge-or-escalate lifecycle.
// All state transitions happen under its lock; broadcast and notification
// side effects run after release and never roll a transition back.
type Controller struct {
	mu     sync.Mutex
	alerts map[string]*model.EmergencyAlert

	broadcaster Broadcaster
	notifier    notify.Dispatcher
	audit       repo.AuditStore
	logger      *zap.Logger
	maxTier     int
}

// NewController creates the escalation controller. maxTier values below 1
// fall back to DefaultMaxTier.
// Note: call SetBroadcaster() before creating alerts to complete the
// initialization.
func NewController(notifier notify.Dispatcher, audit repo.AuditStore, maxTier int, logger *zap.Logger) *Controller {
	if maxTier < 1 {
		maxTier = DefaultMaxTier
	}
	return &Controller{
		alerts:   make(map[string]*model.EmergencyAlert),
		notifier: notifier,
		audit:    audit,
		logger:   logger,
		maxTier:  maxTier,
	}
}

// SetBroadcaster sets the alert fan-out target. Must be called after the hub
// is created.
func (ct *Controller) SetBroadcaster(b Broadcaster) {
	ct.broadcaster = b
}

// Create registers a new alert at tier 1 in the raised state, broadcasts it
// to responder connections, and publishes it to the out-of-band alert topic.
// Returns a copy of the stored alert and the broadcast delivery count.
func (ct *Controller) Create(patientID string, urgency model.UrgencyLevel, data json.RawMessage) (model.EmergencyAlert, int) {
	now := time.Now()
	alert := &model.EmergencyAlert{
		ID:              uuid.New().String(),
		PatientID:       patientID,
		Urgency:         urgency,
		Tier:            1,
		State:           model.AlertRaised,
		CreatedAt:       now,
		LastEscalatedAt: now,
		Data:            data,
	}

	ct.mu.Lock()
	ct.alerts[alert.ID] = alert
	snapshot := *alert
	ct.mu.Unlock()

	ct.logger.Info("alert raised",
		zap.String("alert_id", snapshot.ID),
		zap.String("patient_id", snapshot.PatientID),
		zap.String("urgency", string(snapshot.Urgency)),
	)

	delivered := ct.fanOut(snapshot, notify.TopicAlerts)
	ct.appendAudit(snapshot, model.AlertEventCreated, "")

	return snapshot, delivered
}

// Acknowledge marks an active alert acknowledged, stopping escalation. A
// second acknowledgement is a no-op; acknowledging a resolved alert fails.
func (ct *Controller) Acknowledge(alertID, byUserID string) error {
	ct.mu.Lock()
	alert, ok := ct.alerts[alertID]
	if !ok {
		ct.mu.Unlock()
		return ErrAlertNotFound
	}
	if alert.State == model.AlertResolved {
		ct.mu.Unlock()
		return ErrAlertAlreadyResolved
	}
	if alert.State == model.AlertAcknowledged {
		ct.mu.Unlock()
		return nil
	}

	now := time.Now()
	alert.State = model.AlertAcknowledged
	alert.AcknowledgedBy = byUserID
	alert.AcknowledgedAt = &now
	snapshot := *alert
	ct.mu.Unlock()

	ct.logger.Info("alert acknowledged",
		zap.String("alert_id", alertID),
		zap.String("acknowledged_by", byUserID),
		zap.Int("tier", snapshot.Tier),
	)

	ct.appendAudit(snapshot, model.AlertEventAcknowledged, byUserID)
	return nil
}

// Resolve closes an alert's lifecycle. Resolved is terminal: resolving twice
// fails with ErrAlertAlreadyResolved.
func (ct *Controller) Resolve(alertID string) error {
	ct.mu.Lock()
	alert, ok := ct.alerts[alertID]
	if !ok {
		ct.mu.Unlock()
		return ErrAlertNotFound
	}
	if alert.State == model.AlertResolved {
		ct.mu.Unlock()
		return ErrAlertAlreadyResolved
	}

	now := time.Now()
	alert.State = model.AlertResolved
	alert.ResolvedAt = &now
	snapshot := *alert
	ct.mu.Unlock()

	ct.logger.Info("alert resolved", zap.String("alert_id", alertID))

	ct.appendAudit(snapshot, model.AlertEventResolved, "")
	return nil
}

// Sweep promotes every active alert whose response window has lapsed by one
// tier. Promotion is decided and applied under the lock, so concurrent sweeps
// cannot double-promote; side effects run after release. Returns the promoted
// alerts.
func (ct *Controller) Sweep(now time.Time) []model.EmergencyAlert {
	ct.mu.Lock()
	promoted := make([]model.EmergencyAlert, 0)
	for _, alert := range ct.alerts {
		if !alert.Active() || alert.Tier >= ct.maxTier {
			continue
		}
		if now.Sub(alert.LastEscalatedAt) <= tierSLA(alert.Tier) {
			continue
		}

		alert.Tier++
		alert.State = model.AlertEscalated
		alert.LastEscalatedAt = now
		promoted = append(promoted, *alert)
	}
	ct.mu.Unlock()

	for _, snapshot := range promoted {
		ct.logger.Warn("alert escalated",
			zap.String("alert_id", snapshot.ID),
			zap.String("patient_id", snapshot.PatientID),
			zap.Int("tier", snapshot.Tier),
		)

		ct.fanOut(snapshot, notify.TopicEscalations)
		ct.appendAudit(snapshot, model.AlertEventEscalated, "")
	}

	return promoted
}

// Run drives periodic sweeps until the context is cancelled
func (ct *Controller) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			ct.Sweep(now)
		}
	}
}

// Get returns a copy of one alert
func (ct *Controller) Get(alertID string) (model.EmergencyAlert, error) {
	ct.mu.Lock()
	defer ct.mu.Unlock()

	alert, ok := ct.alerts[alertID]
	if !ok {
		return model.EmergencyAlert{}, ErrAlertNotFound
	}
	return *alert, nil
}

// Snapshot returns a copy of every alert, resolved ones included
func (ct *Controller) Snapshot() []model.EmergencyAlert {
	ct.mu.Lock()
	defer ct.mu.Unlock()

	alerts := make([]model.EmergencyAlert, 0, len(ct.alerts))
	for _, alert := range ct.alerts {
		alerts = append(alerts, *alert)
	}
	return alerts
}

// fanOut broadcasts the alert frame to responder connections and publishes
// it out-of-band. Both are best effort; neither can undo the state change
// that preceded them.
func (ct *Controller) fanOut(snapshot model.EmergencyAlert, topic string) int {
	frame := event.Marshal(event.EmergencyAlertNotice{
		Type:         event.TypeEmergencyAlert,
		AlertID:      snapshot.ID,
		PatientID:    snapshot.PatientID,
		UrgencyLevel: snapshot.Urgency,
		Tier:         snapshot.Tier,
		AlertData:    snapshot.Data,
		Timestamp:    time.Now().Unix(),
	})

	delivered := 0
	if ct.broadcaster != nil {
		var failed int
		delivered, failed = ct.broadcaster.BroadcastAlert(frame, snapshot.Tier)
		if failed > 0 {
			ct.logger.Warn("alert broadcast partially failed",
				zap.String("alert_id", snapshot.ID),
				zap.Int("delivered", delivered),
				zap.Int("failed", failed),
			)
		}
	}

	if ct.notifier != nil {
		if err := ct.notifier.Publish(context.Background(), topic, snapshot); err != nil {
			ct.logger.Warn("alert notification publish failed",
				zap.String("alert_id", snapshot.ID),
				zap.String("topic", topic),
				zap.Error(err),
			)
		}
	}

	return delivered
}

func (ct *Controller) appendAudit(snapshot model.EmergencyAlert, eventKind, actor string) {
	if ct.audit == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), auditTimeout)
	defer cancel()

	if err := ct.audit.AppendAlertEvent(ctx, &model.AlertAuditRecord{
		AlertID:   snapshot.ID,
		PatientID: snapshot.PatientID,
		Event:     eventKind,
		Tier:      snapshot.Tier,
		State:     snapshot.State,
		Actor:     actor,
	}); err != nil {
		ct.logger.Warn("alert audit append failed",
			zap.String("alert_id", snapshot.ID),
			zap.String("event", eventKind),
			zap.Error(err),
		)
	}
}

func tierSLA(tier int) time.Duration {
	switch tier {
	case 1:
		return tier1SLA
	case 2:
		return tier2SLA
	default:
		return defaultSLA
	}
}
