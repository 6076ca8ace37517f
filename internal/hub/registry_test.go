package hub

import (
	"testing"
	"time"

	"github.com/Shubhaannsaae/healthconnect-ai-sub001/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeSink records delivered frames and can be told to fail
type fakeSink struct {
	frames [][]byte
	fail   bool
}

func (s *fakeSink) TrySend(frame []byte, timeout time.Duration) bool {
	if s.fail {
		return false
	}
	s.frames = append(s.frames, frame)
	return true
}

func register(t *testing.T, r *Registry, connID, userID string, role model.Role) *fakeSink {
	t.Helper()
	sink := &fakeSink{}
	err := r.Register(model.Connection{ID: connID, UserID: userID, Role: role}, sink)
	require.NoError(t, err)
	return sink
}

func TestRegisterRejectsDuplicateID(t *testing.T) {
	r := NewRegistry(zap.NewNop())

	register(t, r, "c1", "alice", model.RolePatient)

	err := r.Register(model.Connection{ID: "c1", UserID: "bob"}, &fakeSink{})
	assert.ErrorIs(t, err, ErrDuplicateConnection)
	assert.Equal(t, 1, r.Len())
}

func TestRemoveClearsAllIndexes(t *testing.T) {
	r := NewRegistry(zap.NewNop())

	register(t, r, "c1", "alice", model.RolePatient)
	require.NoError(t, r.JoinRoom("c1", "room-1"))

	removed, ok := r.Remove("c1")
	require.True(t, ok)
	assert.Equal(t, "alice", removed.UserID)
	assert.Equal(t, "room-1", removed.RoomID)

	assert.Empty(t, r.ByUser("alice"))
	assert.Empty(t, r.ByRoom("room-1", ""))
	assert.Empty(t, r.ByRole("", model.RolePatient))
	assert.Equal(t, 0, r.Len())

	_, ok = r.Remove("c1")
	assert.False(t, ok, "second remove is a no-op")
}

func TestIdentifyMovesIndexes(t *testing.T) {
	r := NewRegistry(zap.NewNop())

	sink := &fakeSink{}
	require.NoError(t, r.Register(model.Connection{ID: "c1"}, sink))

	assert.Empty(t, r.ByUser("alice"))

	require.NoError(t, r.Identify("c1", "alice", model.RoleProvider))
	assert.Len(t, r.ByUser("alice"), 1)
	assert.Len(t, r.ByRole("", model.RoleProvider), 1)

	// Re-identify to a different user and role
	require.NoError(t, r.Identify("c1", "bob", model.RoleAdmin))
	assert.Empty(t, r.ByUser("alice"))
	assert.Empty(t, r.ByRole("", model.RoleProvider))
	assert.Len(t, r.ByUser("bob"), 1)
	assert.Len(t, r.ByRole("", model.RoleAdmin), 1)
}

func TestIdentifyRejectsUnknownRole(t *testing.T) {
	r := NewRegistry(zap.NewNop())
	register(t, r, "c1", "", "")

	err := r.Identify("c1", "alice", "superuser")
	assert.ErrorIs(t, err, ErrInvalidRole)
}

func TestJoinRoomRequiresIdentity(t *testing.T) {
	r := NewRegistry(zap.NewNop())
	require.NoError(t, r.Register(model.Connection{ID: "c1"}, &fakeSink{}))

	err := r.JoinRoom("c1", "room-1")
	assert.ErrorIs(t, err, ErrUnidentifiedConnection)

	assert.ErrorIs(t, r.JoinRoom("ghost", "room-1"), ErrUnknownConnection)
}

func TestJoinRoomMovesBetweenRooms(t *testing.T) {
	r := NewRegistry(zap.NewNop())
	register(t, r, "c1", "alice", model.RolePatient)

	require.NoError(t, r.JoinRoom("c1", "room-1"))
	require.NoError(t, r.JoinRoom("c1", "room-2"))

	assert.Empty(t, r.ByRoom("room-1", ""))
	assert.Len(t, r.ByRoom("room-2", ""), 1)

	conn, ok := r.Get("c1")
	require.True(t, ok)
	assert.Equal(t, "room-2", conn.RoomID)
}

func TestLeaveRoomIsIdempotent(t *testing.T) {
	r := NewRegistry(zap.NewNop())
	register(t, r, "c1", "alice", model.RolePatient)
	require.NoError(t, r.JoinRoom("c1", "room-1"))

	assert.Equal(t, "room-1", r.LeaveRoom("c1"))
	assert.Equal(t, "", r.LeaveRoom("c1"))
	assert.Equal(t, "", r.LeaveRoom("ghost"))
}

func TestByRoomExcludesSender(t *testing.T) {
	r := NewRegistry(zap.NewNop())
	register(t, r, "c1", "alice", model.RolePatient)
	register(t, r, "c2", "bob", model.RoleProvider)
	require.NoError(t, r.JoinRoom("c1", "room-1"))
	require.NoError(t, r.JoinRoom("c2", "room-1"))

	members := r.ByRoom("room-1", "c1")
	require.Len(t, members, 1)
	assert.Equal(t, "c2", members[0].Conn.ID)
}

func TestByUserReturnsEveryConnectionOfUser(t *testing.T) {
	r := NewRegistry(zap.NewNop())
	register(t, r, "c1", "alice", model.RolePatient)
	register(t, r, "c2", "alice", model.RolePatient)
	register(t, r, "c3", "bob", model.RoleProvider)

	assert.Len(t, r.ByUser("alice"), 2)
	assert.Len(t, r.ByUser("bob"), 1)
	assert.Empty(t, r.ByUser("carol"))
}

func TestTouchAdvancesLastActivity(t *testing.T) {
	r := NewRegistry(zap.NewNop())

	past := time.Now().Add(-time.Minute)
	require.NoError(t, r.Register(model.Connection{
		ID:           "c1",
		UserID:       "alice",
		Role:         model.RolePatient,
		ConnectedAt:  past,
		LastActivity: past,
	}, &fakeSink{}))

	require.NoError(t, r.Touch("c1"))

	conn, ok := r.Get("c1")
	require.True(t, ok)
	assert.True(t, conn.LastActivity.After(past))

	assert.ErrorIs(t, r.Touch("ghost"), ErrUnknownConnection)
}
