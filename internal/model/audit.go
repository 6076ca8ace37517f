package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AssessmentRecord is the append-only audit document for one risk assessment.
// Written once, never read back synchronously by this core.
type AssessmentRecord struct {
	ID         primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	PatientID  string             `json:"patientId" bson:"patient_id"`
	DataType   string             `json:"dataType" bson:"data_type"`
	Vitals     VitalSigns         `json:"vitals" bson:"vitals"`
	Symptoms   []string           `json:"symptoms" bson:"symptoms"`
	Assessment RiskAssessment     `json:"assessment" bson:"assessment"`
	CreatedAt  time.Time          `json:"createdAt" bson:"created_at"`
}

// Alert audit event kinds
const (
	AlertEventCreated      = "created"
	AlertEventAcknowledged = "acknowledged"
	AlertEventEscalated    = "escalated"
	AlertEventResolved     = "resolved"
)

// AlertAuditRecord is the append-only audit document for one alert
// lifecycle transition
type AlertAuditRecord struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	AlertID   string             `json:"alertId" bson:"alert_id"`
	PatientID string             `json:"patientId" bson:"patient_id"`
	Event     string             `json:"event" bson:"event"`
	Tier      int                `json:"tier" bson:"tier"`
	State     AlertState         `json:"state" bson:"state"`
	Actor     string             `json:"actor,omitempty" bson:"actor,omitempty"`
	CreatedAt time.Time          `json:"createdAt" bson:"created_at"`
}
