package model

import (
	"time"
)

// Role classifies the logical owner of a connection
type Role string

const (
	RolePatient  Role = "patient"
	RoleProvider Role = "provider"
	RoleAdmin    Role = "admin"
)

// ValidRole reports whether a role value belongs to the closed role set
func ValidRole(r Role) bool {
	switch r {
	case RolePatient, RoleProvider, RoleAdmin:
		return true
	default:
		return false
	}
}

// Connection is a point-in-time snapshot of one live registry entry.
// UserID and Role stay empty until the connection is identified; RoomID
// stays empty until the connection joins a room.
type Connection struct {
	ID           string    `json:"connectionId"`
	UserID       string    `json:"userId,omitempty"`
	Role         Role      `json:"role,omitempty"`
	RoomID       string    `json:"roomId,omitempty"`
	ConnectedAt  time.Time `json:"connectedAt"`
	LastActivity time.Time `json:"lastActivity"`
}

// Identified reports whether the connection has an owning user
func (c Connection) Identified() bool {
	return c.UserID != ""
}
