package hub

import (
	"errors"
	"sync"
	"time"

	"github.com/Shubhaannsaae/healthconnect-ai-sub001/internal/model"

	"go.uber.org/zap"
)

var (
	ErrDuplicateConnection    = errors.New("duplicate connection id")
	ErrUnknownConnection      = errors.New("unknown connection id")
	ErrUnidentifiedConnection = errors.New("connection has no owning user")
	ErrInvalidRole            = errors.New("invalid role")
)

// DeliverySink is the transport half of a registry entry. TrySend must not
// block past the timeout and reports failure instead of erroring; a false
// return feeds the reaper.
type DeliverySink interface {
	TrySend(frame []byte, timeout time.Duration) bool
}

// Target pairs a point-in-time connection snapshot with its sink. The
// snapshot may be stale by the time delivery is attempted; a vanished
// target surfaces as a delivery failure, not a registry error.
type Target struct {
	Conn model.Connection
	Sink DeliverySink
}

type registryEntry struct {
	conn model.Connection
	sink DeliverySink
}

// Registry is the process-wide table of live connections. It is the single
// mutable shared resource of the core: all mutation goes through its
// methods, and secondary indexes (by user, by room, by role) are maintained
// incrementally so lookups never scan the full table.
//
// Rooms are a projection over Connection.RoomID, not a stored collection.
type Registry struct {
	mu     sync.RWMutex
	conns  map[string]*registryEntry
	byUser map[string]map[string]struct{}
	byRoom map[string]map[string]struct{}
	byRole map[model.Role]map[string]struct{}
	logger *zap.Logger
}

// NewRegistry creates an empty connection registry
func NewRegistry(logger *zap.Logger) *Registry {
	return &Registry{
		conns:  make(map[string]*registryEntry),
		byUser: make(map[string]map[string]struct{}),
		byRoom: make(map[string]map[string]struct{}),
		byRole: make(map[model.Role]map[string]struct{}),
		logger: logger,
	}
}

// Register adds a new connection. The id must be unique across the registry.
func (r *Registry) Register(conn model.Connection, sink DeliverySink) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.conns[conn.ID]; exists {
		return ErrDuplicateConnection
	}

	if conn.ConnectedAt.IsZero() {
		conn.ConnectedAt = time.Now()
	}
	if conn.LastActivity.Before(conn.ConnectedAt) {
		conn.LastActivity = conn.ConnectedAt
	}

	r.conns[conn.ID] = &registryEntry{conn: conn, sink: sink}

	if conn.UserID != "" {
		addIndex(r.byUser, conn.UserID, conn.ID)
	}
	if conn.Role != "" {
		addRoleIndex(r.byRole, conn.Role, conn.ID)
	}

	r.logger.Debug("connection registered",
		zap.String("connection_id", conn.ID),
		zap.String("user_id", conn.UserID),
	)
	return nil
}

// Identify binds a connection to its owning user and role. Re-identifying
// moves the entry between the user and role indexes.
func (r *Registry) Identify(connID, userID string, role model.Role) error {
	if !model.ValidRole(role) {
		return ErrInvalidRole
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.conns[connID]
	if !ok {
		return ErrUnknownConnection
	}

	if entry.conn.UserID != "" {
		removeIndex(r.byUser, entry.conn.UserID, connID)
	}
	if entry.conn.Role != "" {
		removeRoleIndex(r.byRole, entry.conn.Role, connID)
	}

	entry.conn.UserID = userID
	entry.conn.Role = role
	addIndex(r.byUser, userID, connID)
	addRoleIndex(r.byRole, role, connID)

	r.logger.Debug("connection identified",
		zap.String("connection_id", connID),
		zap.String("user_id", userID),
		zap.String("role", string(role)),
	)
	return nil
}

// JoinRoom places the connection in a room, leaving any previous room.
// Joining the room the connection is already in is a no-op. Unidentified
// connections may not join rooms.
func (r *Registry) JoinRoom(connID, roomID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.conns[connID]
	if !ok {
		return ErrUnknownConnection
	}
	if entry.conn.UserID == "" {
		return ErrUnidentifiedConnection
	}
	if entry.conn.RoomID == roomID {
		return nil
	}

	if entry.conn.RoomID != "" {
		removeIndex(r.byRoom, entry.conn.RoomID, connID)
	}
	entry.conn.RoomID = roomID
	addIndex(r.byRoom, roomID, connID)
	return nil
}

// LeaveRoom clears the connection's room membership and returns the vacated
// room id. Idempotent: leaving with no membership (or an unknown id) is a
// no-op returning "".
func (r *Registry) LeaveRoom(connID string) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.conns[connID]
	if !ok || entry.conn.RoomID == "" {
		return ""
	}

	roomID := entry.conn.RoomID
	removeIndex(r.byRoom, roomID, connID)
	entry.conn.RoomID = ""
	return roomID
}

// Touch updates the connection's last-activity time
func (r *Registry) Touch(connID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.conns[connID]
	if !ok {
		return ErrUnknownConnection
	}
	entry.conn.LastActivity = time.Now()
	return nil
}

// Get returns a snapshot of one connection
func (r *Registry) Get(connID string) (model.Connection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.conns[connID]
	if !ok {
		return model.Connection{}, false
	}
	return entry.conn, true
}

// Remove deletes the connection and all its index entries, returning the
// removed snapshot so the reaper can notify any vacated room. Removing an
// absent id returns false.
func (r *Registry) Remove(connID string) (model.Connection, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.conns[connID]
	if !ok {
		return model.Connection{}, false
	}

	if entry.conn.UserID != "" {
		removeIndex(r.byUser, entry.conn.UserID, connID)
	}
	if entry.conn.RoomID != "" {
		removeIndex(r.byRoom, entry.conn.RoomID, connID)
	}
	if entry.conn.Role != "" {
		removeRoleIndex(r.byRole, entry.conn.Role, connID)
	}
	delete(r.conns, connID)

	r.logger.Debug("connection removed",
		zap.String("connection_id", connID),
		zap.String("user_id", entry.conn.UserID),
	)
	return entry.conn, true
}

// -----------------------------------------------------------------
// Lookups - point-in-time snapshots
// -----------------------------------------------------------------

// ByUser returns every live connection owned by the user
func (r *Registry) ByUser(userID string) []Target {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.collect(r.byUser[userID], "")
}

// ByRoom returns the room's members, optionally excluding one connection
func (r *Registry) ByRoom(roomID string, excluding string) []Target {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.collect(r.byRoom[roomID], excluding)
}

// ByRole returns every identified connection holding one of the roles
func (r *Registry) ByRole(excluding string, roles ...model.Role) []Target {
	r.mu.RLock()
	defer r.mu.RUnlock()

	targets := make([]Target, 0)
	for _, role := range roles {
		targets = append(targets, r.collect(r.byRole[role], excluding)...)
	}
	return targets
}

// All returns every live connection, identified or not
func (r *Registry) All(excluding string) []Target {
	r.mu.RLock()
	defer r.mu.RUnlock()

	targets := make([]Target, 0, len(r.conns))
	for id, entry := range r.conns {
		if id == excluding {
			continue
		}
		targets = append(targets, Target{Conn: entry.conn, Sink: entry.sink})
	}
	return targets
}

// Snapshot returns a copy of every connection record
func (r *Registry) Snapshot() []model.Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conns := make([]model.Connection, 0, len(r.conns))
	for _, entry := range r.conns {
		conns = append(conns, entry.conn)
	}
	return conns
}

// Len returns the number of live connections
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// collect resolves an index set into targets. Callers must hold r.mu.
func (r *Registry) collect(ids map[string]struct{}, excluding string) []Target {
	targets := make([]Target, 0, len(ids))
	for id := range ids {
		if id == excluding {
			continue
		}
		if entry, ok := r.conns[id]; ok {
			targets = append(targets, Target{Conn: entry.conn, Sink: entry.sink})
		}
	}
	return targets
}

// -----------------------------------------------------------------
// Index maintenance
// -----------------------------------------------------------------

func addIndex(index map[string]map[string]struct{}, key, connID string) {
	set, ok := index[key]
	if !ok {
		set = make(map[string]struct{})
		index[key] = set
	}
	set[connID] = struct{}{}
}

func removeIndex(index map[string]map[string]struct{}, key, connID string) {
	if set, ok := index[key]; ok {
		delete(set, connID)
		if len(set) == 0 {
			delete(index, key)
		}
	}
}

func addRoleIndex(index map[model.Role]map[string]struct{}, role model.Role, connID string) {
	set, ok := index[role]
	if !ok {
		set = make(map[string]struct{})
		index[role] = set
	}
	set[connID] = struct{}{}
}

func removeRoleIndex(index map[model.Role]map[string]struct{}, role model.Role, connID string) {
	if set, ok := index[role]; ok {
		delete(set, connID)
		if len(set) == 0 {
			delete(index, role)
		}
	}
}
