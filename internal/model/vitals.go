package model

// UrgencyLevel represents the clinical urgency derived from the composite
// emergency risk score
type UrgencyLevel string

const (
	UrgencyLow      UrgencyLevel = "LOW"
	UrgencyMedium   UrgencyLevel = "MEDIUM"
	UrgencyHigh     UrgencyLevel = "HIGH"
	UrgencyCritical UrgencyLevel = "CRITICAL"
)

// rank orders urgency levels for threshold comparisons
func (u UrgencyLevel) rank() int {
	switch u {
	case UrgencyCritical:
		return 3
	case UrgencyHigh:
		return 2
	case UrgencyMedium:
		return 1
	default:
		return 0
	}
}

// AtLeast reports whether the level meets or exceeds the given threshold
func (u UrgencyLevel) AtLeast(threshold UrgencyLevel) bool {
	return u.rank() >= threshold.rank()
}

// VitalSigns carries one set of measurements. Pointers distinguish a missing
// metric from a zero reading.
type VitalSigns struct {
	HeartRate   *float64 `json:"heart_rate,omitempty"`
	SystolicBP  *float64 `json:"systolic_bp,omitempty"`
	DiastolicBP *float64 `json:"diastolic_bp,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
}

// RiskAssessment is the immutable output of the risk scorer. All sub-scores
// are clamped to [0,1]; EmergencyRisk drives the urgency level.
type RiskAssessment struct {
	VitalSignsRisk float64      `json:"vital_signs_risk"`
	SymptomRisk    float64      `json:"symptom_risk"`
	HistoryRisk    float64      `json:"history_risk"`
	EmergencyRisk  float64      `json:"emergency_risk"`
	OverallRisk    float64      `json:"overall_risk"`
	Urgency        UrgencyLevel `json:"urgency_level"`
}
