package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Shubhaannsaae/healthconnect-ai-sub001/internal/clinical"
	"github.com/Shubhaannsaae/healthconnect-ai-sub001/internal/db"

	"go.uber.org/zap"
)

const defaultLookupTimeout = 5 * time.Second

// Assignment links a patient to a monitoring provider
type Assignment struct {
	PatientID  string    `json:"patientId" bson:"patient_id"`
	ProviderID string    `json:"providerId" bson:"provider_id"`
	Active     bool      `json:"active" bson:"active"`
	AssignedAt time.Time `json:"assignedAt" bson:"assigned_at"`
}

type assignmentRepository struct {
	mongoRepo *db.Repository[Assignment]
	logger    *zap.Logger
}

// NewAssignmentRepository creates a Mongo-backed patient-provider
// assignment lookup
func NewAssignmentRepository(repo *db.Repository[Assignment], logger *zap.Logger) clinical.AssignmentLookup {
	return &assignmentRepository{
		mongoRepo: repo,
		logger:    logger,
	}
}

// ProvidersForPatient returns the user ids of every provider actively
// assigned to the patient. An unassigned patient yields an empty slice,
// not an error.
func (r *assignmentRepository) ProvidersForPatient(ctx context.Context, patientID string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultLookupTimeout)
	defer cancel()

	filter := db.NewFilter().Eq("patient_id", patientID).Eq("active", true).Build()

	assignments, err := r.mongoRepo.FindAll(ctx, filter)
	if err != nil {
		r.logger.Error("assignment lookup failed",
			zap.Error(err),
			zap.String("patient_id", patientID),
		)
		return nil, fmt.Errorf("lookup providers for patient: %w", err)
	}

	providers := make([]string, 0, len(assignments))
	for _, a := range assignments {
		providers = append(providers, a.ProviderID)
	}

	r.logger.Debug("assignment lookup",
		zap.String("patient_id", patientID),
		zap.Int("providers", len(providers)),
	)
	return providers, nil
}
