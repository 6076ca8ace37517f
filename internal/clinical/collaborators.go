package clinical

import (
	"context"

	"github.com/Shubhaannsaae/healthconnect-ai-sub001/internal/model"
)

// AnalysisRequest is the input contract for the external clinical analysis
// service. Entity extraction and narrative generation live behind it.
type AnalysisRequest struct {
	PatientID   string           `json:"patient_id"`
	Symptoms    []string         `json:"symptoms"`
	VitalSigns  model.VitalSigns `json:"vital_signs"`
	History     []string         `json:"medical_history"`
	Medications []string         `json:"medications"`
}

// StructuredAssessment is the parsed output of the analysis service
type StructuredAssessment struct {
	Summary         string   `json:"summary"`
	Findings        []string `json:"findings"`
	Recommendations []string `json:"recommendations"`
	Confidence      float64  `json:"confidence"`
}

// Analyzer is the external clinical analysis collaborator. Calls may fail
// and may be slow; callers must never invoke it on the routing path.
type Analyzer interface {
	Analyze(ctx context.Context, req AnalysisRequest) (*StructuredAssessment, error)
}

// AssignmentLookup resolves the providers registered to monitor a patient
type AssignmentLookup interface {
	ProvidersForPatient(ctx context.Context, patientID string) ([]string, error)
}
