package event

import "encoding/json"

// Inbound route keys - Client to Server
const (
	RouteSendMessage    = "sendMessage"
	RouteJoinRoom       = "joinRoom"
	RouteLeaveRoom      = "leaveRoom"
	RouteBroadcast      = "broadcast"
	RouteHealthData     = "healthData"
	RouteEmergencyAlert = "emergencyAlert"
)

// Outbound message types - Server to Client
const (
	TypeDirectMessage  = "direct_message"
	TypeMessageSent    = "message_sent"
	TypeRoomJoined     = "room_joined"
	TypeRoomLeft       = "room_left"
	TypeUserJoinedRoom = "user_joined_room"
	TypeUserLeftRoom   = "user_left_room"
	TypeBroadcast      = "broadcast"
	TypeBroadcastSent  = "broadcast_sent"
	TypeVitalsUpdate   = "vitals_update"
	TypeVitalsReceived = "vitals_received"
	TypeEmergencyAlert = "emergency_alert"
	TypeAlertRaised    = "alert_raised"
	TypeError          = "error"
)

// Broadcast scopes accepted by the broadcast route
const (
	BroadcastRoom     = "room"
	BroadcastAll      = "all"
	BroadcastUserType = "user_type"
)

// Envelope is the transport-agnostic inbound frame. The route key selects
// the handler; the payload shape is determined by the route.
type Envelope struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}
