package triage

import (
	"testing"

	"github.com/Shubhaannsaae/healthconnect-ai-sub001/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func floatPtr(v float64) *float64 { return &v }

func TestScore_NormalVitalsAreLowRisk(t *testing.T) {
	assessment := Score(model.VitalSigns{
		HeartRate:   floatPtr(72),
		SystolicBP:  floatPtr(118),
		DiastolicBP: floatPtr(76),
		Temperature: floatPtr(36.8),
	}, nil, nil)

	assert.Equal(t, 0.0, assessment.VitalSignsRisk)
	assert.Equal(t, 0.0, assessment.EmergencyRisk)
	assert.Equal(t, model.UrgencyLow, assessment.Urgency)
}

func TestScore_ExtremeHeartRateStacksBothTiers(t *testing.T) {
	// Outside [50,120] must collect both the moderate and the severe penalty
	for _, hr := range []float64{40, 49, 121, 180} {
		assessment := Score(model.VitalSigns{HeartRate: floatPtr(hr)}, nil, nil)
		assert.GreaterOrEqual(t, assessment.VitalSignsRisk, 0.7, "heart rate %v", hr)
	}

	// Moderate-only band collects just the base penalty
	assessment := Score(model.VitalSigns{HeartRate: floatPtr(110)}, nil, nil)
	assert.InDelta(t, 0.3, assessment.VitalSignsRisk, 1e-9)
}

func TestScore_BloodPressureAndTemperatureTiers(t *testing.T) {
	bp := Score(model.VitalSigns{SystolicBP: floatPtr(190), DiastolicBP: floatPtr(95)}, nil, nil)
	assert.InDelta(t, 0.7, bp.VitalSignsRisk, 1e-9)

	temp := Score(model.VitalSigns{Temperature: floatPtr(38.5)}, nil, nil)
	assert.InDelta(t, 0.2, temp.VitalSignsRisk, 1e-9)

	hypothermia := Score(model.VitalSigns{Temperature: floatPtr(34.0)}, nil, nil)
	assert.InDelta(t, 0.5, hypothermia.VitalSignsRisk, 1e-9)
}

func TestScore_SymptomAndHistoryMatching(t *testing.T) {
	assessment := Score(model.VitalSigns{},
		[]string{"crushing CHEST PAIN since morning", "mild nausea"},
		[]string{"Type 2 Diabetes", "treated hypertension"},
	)

	assert.InDelta(t, 0.3, assessment.SymptomRisk, 1e-9)
	assert.InDelta(t, 0.4, assessment.HistoryRisk, 1e-9)
	// emergency = vital + symptom + 0.5*history
	assert.InDelta(t, 0.5, assessment.EmergencyRisk, 1e-9)
	assert.Equal(t, model.UrgencyMedium, assessment.Urgency)
}

func TestScore_CompositeIsClampedAndMonotone(t *testing.T) {
	base := Score(model.VitalSigns{HeartRate: floatPtr(130)}, nil, nil)
	withSymptom := Score(model.VitalSigns{HeartRate: floatPtr(130)}, []string{"confusion"}, nil)
	withHistory := Score(model.VitalSigns{HeartRate: floatPtr(130)}, []string{"confusion"}, []string{"stroke"})

	assert.GreaterOrEqual(t, withSymptom.EmergencyRisk, base.EmergencyRisk)
	assert.GreaterOrEqual(t, withHistory.EmergencyRisk, withSymptom.EmergencyRisk)
	assert.LessOrEqual(t, withHistory.EmergencyRisk, 1.0)
	assert.GreaterOrEqual(t, base.EmergencyRisk, 0.0)
}

func TestScore_EmergencyScenarioIsCritical(t *testing.T) {
	// HR 130 + temp 39.6 + "chest pain" must cross the critical threshold
	assessment := Score(model.VitalSigns{
		HeartRate:   floatPtr(130),
		Temperature: floatPtr(39.6),
	}, []string{"chest pain"}, nil)

	require.Equal(t, model.UrgencyCritical, assessment.Urgency)
	assert.Equal(t, 1.0, assessment.VitalSignsRisk) // 0.7 + 0.5 clamped
	assert.Equal(t, 1.0, assessment.EmergencyRisk)
}

func TestUrgencyFor_Thresholds(t *testing.T) {
	assert.Equal(t, model.UrgencyCritical, UrgencyFor(0.8))
	assert.Equal(t, model.UrgencyHigh, UrgencyFor(0.6))
	assert.Equal(t, model.UrgencyMedium, UrgencyFor(0.4))
	assert.Equal(t, model.UrgencyLow, UrgencyFor(0.39))
}
