package model

import (
	"encoding/json"
	"time"
)

// AlertState is the lifecycle state of an emergency alert
type AlertState string

const (
	AlertRaised       AlertState = "raised"
	AlertAcknowledged AlertState = "acknowledged"
	AlertEscalated    AlertState = "escalated"
	AlertResolved     AlertState = "resolved"
)

// EmergencyAlert tracks one acknowledge-or-escalate lifecycle. Alerts are
// never deleted, only marked resolved; the tier only ever increases.
type EmergencyAlert struct {
	ID              string          `json:"alertId"`
	PatientID       string          `json:"patientId"`
	Urgency         UrgencyLevel    `json:"urgencyLevel"`
	Tier            int             `json:"tier"`
	State           AlertState      `json:"state"`
	CreatedAt       time.Time       `json:"createdAt"`
	LastEscalatedAt time.Time       `json:"lastEscalatedAt"`
	AcknowledgedBy  string          `json:"acknowledgedBy,omitempty"`
	AcknowledgedAt  *time.Time      `json:"acknowledgedAt,omitempty"`
	ResolvedAt      *time.Time      `json:"resolvedAt,omitempty"`
	Data            json.RawMessage `json:"alertData,omitempty"`
}

// Active reports whether the alert still demands a response
func (a *EmergencyAlert) Active() bool {
	return a.State == AlertRaised || a.State == AlertEscalated
}
