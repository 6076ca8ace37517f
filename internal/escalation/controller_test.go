package escalation

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/Shubhaannsaae/healthconnect-ai-sub001/internal/event"
	"github.com/Shubhaannsaae/healthconnect-ai-sub001/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeBroadcaster struct {
	mu     sync.Mutex
	frames [][]byte
	tiers  []int
}

func (b *fakeBroadcaster) BroadcastAlert(frame []byte, tier int) (int, int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.frames = append(b.frames, frame)
	b.tiers = append(b.tiers, tier)
	return 3, 0
}

type fakeNotifier struct {
	mu     sync.Mutex
	topics []string
}

func (n *fakeNotifier) Publish(ctx context.Context, topic string, payload interface{}) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.topics = append(n.topics, topic)
	return nil
}

func (n *fakeNotifier) Emit(eventType string, detail interface{}) {}

type fakeAudit struct {
	mu     sync.Mutex
	events []string
}

func (a *fakeAudit) AppendAssessment(ctx context.Context, rec *model.AssessmentRecord) error {
	return nil
}

func (a *fakeAudit) AppendAlertEvent(ctx context.Context, rec *model.AlertAuditRecord) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, rec.Event)
	return nil
}

func newTestController(t *testing.T) (*Controller, *fakeBroadcaster, *fakeNotifier, *fakeAudit) {
	t.Helper()
	broadcaster := &fakeBroadcaster{}
	notifier := &fakeNotifier{}
	audit := &fakeAudit{}
	ct := NewController(notifier, audit, 0, zap.NewNop())
	ct.SetBroadcaster(broadcaster)
	return ct, broadcaster, notifier, audit
}

func TestCreateStartsAtTierOneRaised(t *testing.T) {
	ct, broadcaster, notifier, audit := newTestController(t)

	alert, delivered := ct.Create("patient-1", model.UrgencyCritical, json.RawMessage(`{"note":"chest pain"}`))

	assert.NotEmpty(t, alert.ID)
	assert.Equal(t, 1, alert.Tier)
	assert.Equal(t, model.AlertRaised, alert.State)
	assert.Equal(t, alert.CreatedAt, alert.LastEscalatedAt)
	assert.Equal(t, 3, delivered)

	require.Len(t, broadcaster.frames, 1)
	var notice event.EmergencyAlertNotice
	require.NoError(t, json.Unmarshal(broadcaster.frames[0], &notice))
	assert.Equal(t, event.TypeEmergencyAlert, notice.Type)
	assert.Equal(t, alert.ID, notice.AlertID)
	assert.Equal(t, 1, notice.Tier)

	assert.Equal(t, []string{"alerts"}, notifier.topics)
	assert.Equal(t, []string{model.AlertEventCreated}, audit.events)
}

func TestAcknowledgeStopsEscalation(t *testing.T) {
	ct, _, _, _ := newTestController(t)

	alert, _ := ct.Create("patient-1", model.UrgencyHigh, nil)

	require.NoError(t, ct.Acknowledge(alert.ID, "provider-9"))

	got, err := ct.Get(alert.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AlertAcknowledged, got.State)
	assert.Equal(t, "provider-9", got.AcknowledgedBy)
	require.NotNil(t, got.AcknowledgedAt)

	// An acknowledged alert never promotes
	promoted := ct.Sweep(time.Now().Add(time.Hour))
	assert.Empty(t, promoted)
}

func TestAcknowledgeErrors(t *testing.T) {
	ct, _, _, _ := newTestController(t)

	assert.ErrorIs(t, ct.Acknowledge("ghost", "provider-9"), ErrAlertNotFound)

	alert, _ := ct.Create("patient-1", model.UrgencyHigh, nil)
	require.NoError(t, ct.Acknowledge(alert.ID, "provider-9"))

	// Second acknowledgement is a no-op, the first actor wins
	require.NoError(t, ct.Acknowledge(alert.ID, "provider-2"))
	got, err := ct.Get(alert.ID)
	require.NoError(t, err)
	assert.Equal(t, "provider-9", got.AcknowledgedBy)

	require.NoError(t, ct.Resolve(alert.ID))
	assert.ErrorIs(t, ct.Acknowledge(alert.ID, "provider-9"), ErrAlertAlreadyResolved)
}

func TestResolveIsTerminal(t *testing.T) {
	ct, _, _, audit := newTestController(t)

	alert, _ := ct.Create("patient-1", model.UrgencyCritical, nil)

	require.NoError(t, ct.Resolve(alert.ID))
	assert.ErrorIs(t, ct.Resolve(alert.ID), ErrAlertAlreadyResolved)
	assert.ErrorIs(t, ct.Resolve("ghost"), ErrAlertNotFound)

	got, err := ct.Get(alert.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AlertResolved, got.State)
	require.NotNil(t, got.ResolvedAt)

	assert.Equal(t, []string{model.AlertEventCreated, model.AlertEventResolved}, audit.events)
}

func TestSweepPromotesAfterWindowLapses(t *testing.T) {
	ct, broadcaster, notifier, _ := newTestController(t)

	alert, _ := ct.Create("patient-1", model.UrgencyCritical, nil)

	// 65s past creation: the tier 1 window (60s) has lapsed
	promoted := ct.Sweep(alert.CreatedAt.Add(65 * time.Second))
	require.Len(t, promoted, 1)
	assert.Equal(t, 2, promoted[0].Tier)
	assert.Equal(t, model.AlertEscalated, promoted[0].State)

	// 5s later: the tier 2 window (180s) has not lapsed, no double promote
	promoted = ct.Sweep(alert.CreatedAt.Add(70 * time.Second))
	assert.Empty(t, promoted)

	got, err := ct.Get(alert.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Tier)

	// Create broadcast plus one escalation broadcast
	require.Len(t, broadcaster.frames, 2)
	assert.Equal(t, []int{1, 2}, broadcaster.tiers)
	assert.Equal(t, []string{"alerts", "escalations"}, notifier.topics)
}

func TestSweepStopsAtMaxTier(t *testing.T) {
	notifier := &fakeNotifier{}
	ct := NewController(notifier, nil, 3, zap.NewNop())

	alert, _ := ct.Create("patient-1", model.UrgencyCritical, nil)

	now := alert.CreatedAt
	for i := 0; i < 10; i++ {
		now = now.Add(time.Hour)
		ct.Sweep(now)
	}

	got, err := ct.Get(alert.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Tier)
}

func TestSnapshotIncludesResolvedAlerts(t *testing.T) {
	ct, _, _, _ := newTestController(t)

	a1, _ := ct.Create("patient-1", model.UrgencyCritical, nil)
	ct.Create("patient-2", model.UrgencyHigh, nil)
	require.NoError(t, ct.Resolve(a1.ID))

	assert.Len(t, ct.Snapshot(), 2)
}
