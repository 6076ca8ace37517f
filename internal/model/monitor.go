package model

// -----------------------------------------------------------------
// Monitor API Response Models
// -----------------------------------------------------------------

// MonitorResponse is the main response for the monitor API
type MonitorResponse struct {
	Status      string          `json:"status"` // "healthy", "idle"
	Connections ConnectionStats `json:"connections"`
	Rooms       RoomStats       `json:"rooms"`
	Alerts      AlertStats      `json:"alerts"`
	Clients     []ClientInfo    `json:"clients"`
}

// ConnectionStats holds connection-related statistics
type ConnectionStats struct {
	TotalConnected  int `json:"totalConnected"`  // All live connections
	TotalIdentified int `json:"totalIdentified"` // Connections with an owning user
	TotalPatients   int `json:"totalPatients"`
	TotalProviders  int `json:"totalProviders"`
	TotalAdmins     int `json:"totalAdmins"`
}

// RoomStats holds room membership statistics
type RoomStats struct {
	TotalRooms  int        `json:"totalRooms"`
	RoomDetails []RoomInfo `json:"roomDetails"`
}

// RoomInfo contains information about a single room
type RoomInfo struct {
	RoomID        string   `json:"roomId"`
	TotalMembers  int      `json:"totalMembers"`
	MemberUserIDs []string `json:"memberUserIds"`
}

// AlertStats holds emergency alert statistics
type AlertStats struct {
	TotalActive       int              `json:"totalActive"` // raised + escalated
	TotalRaised       int              `json:"totalRaised"`
	TotalEscalated    int              `json:"totalEscalated"`
	TotalAcknowledged int              `json:"totalAcknowledged"`
	TotalResolved     int              `json:"totalResolved"`
	ActiveDetails     []EmergencyAlert `json:"activeDetails"`
}

// ClientInfo contains information about a connected client
type ClientInfo struct {
	ConnectionID string `json:"connectionId"`
	UserID       string `json:"userId,omitempty"`
	Role         Role   `json:"role,omitempty"`
	RoomID       string `json:"roomId,omitempty"`
}
