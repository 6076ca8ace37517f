package hub

import (
	"sort"

	"github.com/Shubhaannsaae/healthconnect-ai-sub001/internal/escalation"
	"github.com/Shubhaannsaae/healthconnect-ai-sub001/internal/model"
)

// MonitorService assembles operational statistics from the registry and the
// alert store. Everything it reads is a point-in-time snapshot.
type MonitorService struct {
	hub         *Hub
	escalations *escalation.Controller
}

// NewMonitorService creates the monitor over a running hub
func NewMonitorService(h *Hub, escalations *escalation.Controller) *MonitorService {
	return &MonitorService{
		hub:         h,
		escalations: escalations,
	}
}

// Stats builds the full monitor response
func (m *MonitorService) Stats() model.MonitorResponse {
	conns := m.hub.registry.Snapshot()

	stats := model.ConnectionStats{TotalConnected: len(conns)}
	rooms := make(map[string][]string)
	clients := make([]model.ClientInfo, 0, len(conns))

	for _, conn := range conns {
		if conn.Identified() {
			stats.TotalIdentified++
		}
		switch conn.Role {
		case model.RolePatient:
			stats.TotalPatients++
		case model.RoleProvider:
			stats.TotalProviders++
		case model.RoleAdmin:
			stats.TotalAdmins++
		}

		if conn.RoomID != "" {
			rooms[conn.RoomID] = append(rooms[conn.RoomID], conn.UserID)
		}

		clients = append(clients, model.ClientInfo{
			ConnectionID: conn.ID,
			UserID:       conn.UserID,
			Role:         conn.Role,
			RoomID:       conn.RoomID,
		})
	}

	roomDetails := make([]model.RoomInfo, 0, len(rooms))
	for roomID, members := range rooms {
		sort.Strings(members)
		roomDetails = append(roomDetails, model.RoomInfo{
			RoomID:        roomID,
			TotalMembers:  len(members),
			MemberUserIDs: members,
		})
	}
	sort.Slice(roomDetails, func(i, j int) bool {
		return roomDetails[i].RoomID < roomDetails[j].RoomID
	})

	status := "idle"
	if len(conns) > 0 {
		status = "healthy"
	}

	return model.MonitorResponse{
		Status:      status,
		Connections: stats,
		Rooms: model.RoomStats{
			TotalRooms:  len(roomDetails),
			RoomDetails: roomDetails,
		},
		Alerts:  m.alertStats(),
		Clients: clients,
	}
}

func (m *MonitorService) alertStats() model.AlertStats {
	stats := model.AlertStats{ActiveDetails: make([]model.EmergencyAlert, 0)}
	if m.escalations == nil {
		return stats
	}

	for _, alert := range m.escalations.Snapshot() {
		switch alert.State {
		case model.AlertRaised:
			stats.TotalRaised++
		case model.AlertEscalated:
			stats.TotalEscalated++
		case model.AlertAcknowledged:
			stats.TotalAcknowledged++
		case model.AlertResolved:
			stats.TotalResolved++
		}
		if alert.Active() {
			stats.ActiveDetails = append(stats.ActiveDetails, alert)
		}
	}
	stats.TotalActive = stats.TotalRaised + stats.TotalEscalated

	sort.Slice(stats.ActiveDetails, func(i, j int) bool {
		return stats.ActiveDetails[i].CreatedAt.Before(stats.ActiveDetails[j].CreatedAt)
	})
	return stats
}
