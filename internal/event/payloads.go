package event

import (
	"encoding/json"

	"github.com/Shubhaannsaae/healthconnect-ai-sub001/internal/model"
)

// -----------------------------------------------------------------
// Inbound Payloads - Client to Server
// -----------------------------------------------------------------

// SendMessagePayload addresses a payload to every live connection of one user
type SendMessagePayload struct {
	TargetUserID string `json:"target_user_id"`
	Message      string `json:"message"`
	Type         string `json:"type"`
}

// JoinRoomPayload moves the sender's connection into a room
type JoinRoomPayload struct {
	RoomID   string `json:"room_id"`
	RoomType string `json:"room_type"`
}

// BroadcastPayload fans a payload out by room, role, or to everyone
type BroadcastPayload struct {
	Message        string     `json:"message"`
	BroadcastType  string     `json:"broadcast_type"` // "room" | "all" | "user_type"
	RoomID         string     `json:"room_id,omitempty"`
	TargetUserType model.Role `json:"target_user_type,omitempty"`
}

// HealthDataPayload carries one clinical observation set for a patient
type HealthDataPayload struct {
	PatientID  string     `json:"patient_id"`
	DataType   string     `json:"data_type"`
	HealthData HealthData `json:"health_data"`
}

// HealthData is the clinical body of a healthData frame
type HealthData struct {
	VitalSigns     model.VitalSigns `json:"vital_signs"`
	Symptoms       []string         `json:"symptoms,omitempty"`
	MedicalHistory []string         `json:"medical_history,omitempty"`
	Medications    []string         `json:"medications,omitempty"`
}

// EmergencyAlertPayload raises an alert for a patient explicitly
type EmergencyAlertPayload struct {
	PatientID    string             `json:"patient_id"`
	UrgencyLevel model.UrgencyLevel `json:"urgency_level"`
	AlertData    json.RawMessage    `json:"alert_data,omitempty"`
}

// -----------------------------------------------------------------
// Outbound Payloads - Server to Client
// -----------------------------------------------------------------

// ErrorNotice is sent to the offending sender; the connection stays open
type ErrorNotice struct {
	Type      string `json:"type"` // TypeError
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
}

// DirectMessage delivers a sendMessage payload to a target connection
type DirectMessage struct {
	Type        string `json:"type"` // TypeDirectMessage
	FromUserID  string `json:"from_user_id,omitempty"`
	Message     string `json:"message"`
	MessageType string `json:"message_type,omitempty"`
	Timestamp   int64  `json:"timestamp"`
}

// MessageSentAck confirms a direct delivery back to the sender
type MessageSentAck struct {
	Type                   string `json:"type"` // TypeMessageSent
	TargetUserID           string `json:"target_user_id"`
	DeliveredToConnections int    `json:"delivered_to_connections"`
	Timestamp              int64  `json:"timestamp"`
}

// RoomMembershipNotice announces a join or leave to the remaining members
type RoomMembershipNotice struct {
	Type      string     `json:"type"` // TypeUserJoinedRoom | TypeUserLeftRoom
	RoomID    string     `json:"room_id"`
	UserID    string     `json:"user_id"`
	UserType  model.Role `json:"user_type"`
	Timestamp int64      `json:"timestamp"`
}

// RoomJoinedAck confirms a join to the joiner with the current member count
type RoomJoinedAck struct {
	Type        string `json:"type"` // TypeRoomJoined | TypeRoomLeft
	RoomID      string `json:"room_id"`
	MemberCount int    `json:"member_count"`
	Timestamp   int64  `json:"timestamp"`
}

// BroadcastMessage delivers a broadcast payload to a target connection
type BroadcastMessage struct {
	Type          string     `json:"type"` // TypeBroadcast
	FromUserID    string     `json:"from_user_id,omitempty"`
	Message       string     `json:"message"`
	BroadcastType string     `json:"broadcast_type"`
	RoomID        string     `json:"room_id,omitempty"`
	FromUserType  model.Role `json:"from_user_type,omitempty"`
	Timestamp     int64      `json:"timestamp"`
}

// BroadcastSentAck confirms a broadcast back to the sender
type BroadcastSentAck struct {
	Type                   string `json:"type"` // TypeBroadcastSent
	DeliveredToConnections int    `json:"delivered_to_connections"`
	Timestamp              int64  `json:"timestamp"`
}

// VitalsUpdate delivers scored health data to a monitoring provider
type VitalsUpdate struct {
	Type       string               `json:"type"` // TypeVitalsUpdate
	PatientID  string               `json:"patient_id"`
	DataType   string               `json:"data_type"`
	HealthData HealthData           `json:"health_data"`
	Risk       model.RiskAssessment `json:"risk"`
	Timestamp  int64                `json:"timestamp"`
}

// VitalsReceivedAck confirms health data intake back to the sender
type VitalsReceivedAck struct {
	Type                 string             `json:"type"` // TypeVitalsReceived
	PatientID            string             `json:"patient_id"`
	UrgencyLevel         model.UrgencyLevel `json:"urgency_level"`
	DeliveredToProviders int                `json:"delivered_to_providers"`
	Timestamp            int64              `json:"timestamp"`
}

// EmergencyAlertNotice fans an alert out to responder connections
type EmergencyAlertNotice struct {
	Type         string             `json:"type"` // TypeEmergencyAlert
	AlertID      string             `json:"alert_id"`
	PatientID    string             `json:"patient_id"`
	UrgencyLevel model.UrgencyLevel `json:"urgency_level"`
	Tier         int                `json:"tier"`
	AlertData    json.RawMessage    `json:"alert_data,omitempty"`
	Timestamp    int64              `json:"timestamp"`
}

// AlertRaisedAck confirms alert creation back to the sender
type AlertRaisedAck struct {
	Type                   string `json:"type"` // TypeAlertRaised
	AlertID                string `json:"alert_id"`
	Tier                   int    `json:"tier"`
	DeliveredToConnections int    `json:"delivered_to_connections"`
	Timestamp              int64  `json:"timestamp"`
}

// Marshal serializes an outbound payload to a wire frame. Outbound payloads
// are plain structs; a marshal failure here is a programming error, so the
// frame degrades to an empty object rather than panicking the pump.
func Marshal(v interface{}) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		return []byte("{}")
	}
	return data
}
