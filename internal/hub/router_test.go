package hub

import (
	"encoding/json"
	"testing"

	"github.com/Shubhaannsaae/healthconnect-ai-sub001/internal/event"
	"github.com/Shubhaannsaae/healthconnect-ai-sub001/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestRouter(t *testing.T) (*Registry, *Router) {
	t.Helper()
	registry := NewRegistry(zap.NewNop())
	router := NewRouter(registry, zap.NewNop())
	reaper := NewReaper(registry, nil, zap.NewNop())
	router.SetReaper(reaper)
	reaper.SetRouter(router)
	return registry, router
}

func TestRouteDirectHitsEveryConnectionOfUser(t *testing.T) {
	registry, router := newTestRouter(t)

	s1 := register(t, registry, "c1", "alice", model.RolePatient)
	s2 := register(t, registry, "c2", "alice", model.RolePatient)
	other := register(t, registry, "c3", "bob", model.RoleProvider)

	report, err := router.Route(Delivery{
		Mode:         ModeDirect,
		TargetUserID: "alice",
		Frame:        []byte(`{"type":"test"}`),
	})
	require.NoError(t, err)

	assert.Equal(t, 2, report.DeliveredCount())
	assert.Equal(t, 0, report.FailedCount())
	assert.Len(t, s1.frames, 1)
	assert.Len(t, s2.frames, 1)
	assert.Empty(t, other.frames)
}

func TestRouteDirectToAbsentUserReportsZeroTargets(t *testing.T) {
	registry, router := newTestRouter(t)
	register(t, registry, "c1", "alice", model.RolePatient)

	report, err := router.Route(Delivery{
		Mode:         ModeDirect,
		TargetUserID: "ghost",
		Frame:        []byte(`{}`),
	})
	require.NoError(t, err)
	assert.Equal(t, 0, report.TargetCount())
}

func TestRouteRoomExcludesSender(t *testing.T) {
	registry, router := newTestRouter(t)

	sender := register(t, registry, "c1", "alice", model.RolePatient)
	member := register(t, registry, "c2", "bob", model.RoleProvider)
	require.NoError(t, registry.JoinRoom("c1", "room-1"))
	require.NoError(t, registry.JoinRoom("c2", "room-1"))

	report, err := router.Route(Delivery{
		Mode:         ModeRoom,
		SenderConnID: "c1",
		RoomID:       "room-1",
		Frame:        []byte(`{}`),
	})
	require.NoError(t, err)

	assert.Equal(t, 1, report.DeliveredCount())
	assert.Empty(t, sender.frames, "sender must never receive its own room payload")
	assert.Len(t, member.frames, 1)
}

func TestRouteRoleCoversMultipleRoles(t *testing.T) {
	registry, router := newTestRouter(t)

	patient := register(t, registry, "c1", "alice", model.RolePatient)
	provider := register(t, registry, "c2", "bob", model.RoleProvider)
	admin := register(t, registry, "c3", "carol", model.RoleAdmin)

	report, err := router.Route(Delivery{
		Mode:  ModeRole,
		Roles: []model.Role{model.RoleProvider, model.RoleAdmin},
		Frame: []byte(`{}`),
	})
	require.NoError(t, err)

	assert.Equal(t, 2, report.DeliveredCount())
	assert.Empty(t, patient.frames)
	assert.Len(t, provider.frames, 1)
	assert.Len(t, admin.frames, 1)
}

func TestRouteAllExcludesSenderOnly(t *testing.T) {
	registry, router := newTestRouter(t)

	sender := register(t, registry, "c1", "alice", model.RolePatient)
	register(t, registry, "c2", "bob", model.RoleProvider)

	// Unidentified connections still receive broadcasts to everyone
	unidentified := &fakeSink{}
	require.NoError(t, registry.Register(model.Connection{ID: "c3"}, unidentified))

	report, err := router.Route(Delivery{
		Mode:         ModeAll,
		SenderConnID: "c1",
		Frame:        []byte(`{}`),
	})
	require.NoError(t, err)

	assert.Equal(t, 2, report.DeliveredCount())
	assert.Empty(t, sender.frames)
	assert.Len(t, unidentified.frames, 1)
}

func TestRouteRejectsMalformedAddress(t *testing.T) {
	_, router := newTestRouter(t)

	cases := []Delivery{
		{Mode: ModeDirect},
		{Mode: ModeRoom},
		{Mode: ModeRole},
		{Mode: 0},
	}
	for _, d := range cases {
		_, err := router.Route(d)
		assert.ErrorIs(t, err, ErrMalformedAddress)
	}
}

func TestDeliveryFailureReapsTargetAndNotifiesRoomOnce(t *testing.T) {
	registry, router := newTestRouter(t)

	healthy := register(t, registry, "c1", "alice", model.RoleProvider)
	require.NoError(t, registry.JoinRoom("c1", "room-1"))

	broken := &fakeSink{fail: true}
	require.NoError(t, registry.Register(model.Connection{ID: "c2", UserID: "bob", Role: model.RolePatient}, broken))
	require.NoError(t, registry.JoinRoom("c2", "room-1"))

	report, err := router.Route(Delivery{
		Mode:   ModeRoom,
		RoomID: "room-1",
		Frame:  []byte(`{"type":"payload"}`),
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"c1"}, report.Delivered)
	assert.Equal(t, []string{"c2"}, report.Failed)

	// The failed target is gone from the registry
	_, ok := registry.Get("c2")
	assert.False(t, ok)

	// The healthy member got the payload plus exactly one leave notice.
	// Target iteration order is unspecified, so find the notice by type.
	require.Len(t, healthy.frames, 2)
	notices := 0
	for _, frame := range healthy.frames {
		var notice event.RoomMembershipNotice
		require.NoError(t, json.Unmarshal(frame, &notice))
		if notice.Type == event.TypeUserLeftRoom {
			notices++
			assert.Equal(t, "room-1", notice.RoomID)
			assert.Equal(t, "bob", notice.UserID)
		}
	}
	assert.Equal(t, 1, notices)
}

func TestReapIsIdempotent(t *testing.T) {
	registry, router := newTestRouter(t)

	healthy := register(t, registry, "c1", "alice", model.RoleProvider)
	require.NoError(t, registry.JoinRoom("c1", "room-1"))

	register(t, registry, "c2", "bob", model.RolePatient)
	require.NoError(t, registry.JoinRoom("c2", "room-1"))

	reaper := NewReaper(registry, nil, zap.NewNop())
	reaper.SetRouter(router)

	reaper.Reap("c2")
	reaper.Reap("c2")

	// A single leave notice despite the double reap
	require.Len(t, healthy.frames, 1)
	var notice event.RoomMembershipNotice
	require.NoError(t, json.Unmarshal(healthy.frames[0], &notice))
	assert.Equal(t, event.TypeUserLeftRoom, notice.Type)
}
