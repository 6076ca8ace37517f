package triage

import (
	"strings"

	"github.com/Shubhaannsaae/healthconnect-ai-sub001/internal/model"
)

// Penalty constants. Reproduced exactly for behavioral compatibility with the
// deployed scoring tables; not clinically validated.
const (
	heartRateModeratePenalty = 0.3 // outside [60,100] bpm
	heartRateSeverePenalty   = 0.4 // outside [50,120] bpm, on top of moderate

	bloodPressureModeratePenalty = 0.3 // systolic > 140 or diastolic > 90
	bloodPressureSeverePenalty   = 0.4 // systolic > 180 or diastolic > 110

	temperatureModeratePenalty = 0.2 // outside [36.0,38.0] C
	temperatureSeverePenalty   = 0.3 // outside [35.0,39.5] C

	symptomMatchPenalty = 0.3
	historyMatchPenalty = 0.2

	historyWeight = 0.5
)

// Urgency thresholds on the composite emergency risk
const (
	criticalThreshold = 0.8
	highThreshold     = 0.6
	mediumThreshold   = 0.4
)

// highAcuitySymptoms are matched as substrings against free-text entries
var highAcuitySymptoms = []string{
	"chest pain",
	"difficulty breathing",
	"severe headache",
	"confusion",
}

// chronicConditions are matched against medical-history entries
var chronicConditions = []string{
	"diabetes",
	"hypertension",
	"heart disease",
	"stroke",
}

// Score maps one observation set into a risk assessment. Pure and
// deterministic; safe to call concurrently.
func Score(vitals model.VitalSigns, symptoms []string, history []string) model.RiskAssessment {
	vitalRisk := clamp(vitalSignsRisk(vitals))
	symptomRisk := clamp(termRisk(symptoms, highAcuitySymptoms, symptomMatchPenalty))
	historyRisk := clamp(termRisk(history, chronicConditions, historyMatchPenalty))

	emergencyRisk := clamp(vitalRisk + symptomRisk + historyWeight*historyRisk)
	overallRisk := clamp((vitalRisk + symptomRisk + historyRisk) / 3)

	return model.RiskAssessment{
		VitalSignsRisk: vitalRisk,
		SymptomRisk:    symptomRisk,
		HistoryRisk:    historyRisk,
		EmergencyRisk:  emergencyRisk,
		OverallRisk:    overallRisk,
		Urgency:        UrgencyFor(emergencyRisk),
	}
}

// UrgencyFor maps a composite emergency risk to an urgency level
func UrgencyFor(emergencyRisk float64) model.UrgencyLevel {
	switch {
	case emergencyRisk >= criticalThreshold:
		return model.UrgencyCritical
	case emergencyRisk >= highThreshold:
		return model.UrgencyHigh
	case emergencyRisk >= mediumThreshold:
		return model.UrgencyMedium
	default:
		return model.UrgencyLow
	}
}

// vitalSignsRisk accumulates additive penalties per out-of-band measurement.
// Each metric carries two tiers: a moderate deviation adds the base penalty,
// an extreme deviation adds the severe penalty on top of it.
func vitalSignsRisk(v model.VitalSigns) float64 {
	risk := 0.0

	if v.HeartRate != nil {
		hr := *v.HeartRate
		if hr < 60 || hr > 100 {
			risk += heartRateModeratePenalty
		}
		if hr < 50 || hr > 120 {
			risk += heartRateSeverePenalty
		}
	}

	if v.SystolicBP != nil || v.DiastolicBP != nil {
		sys, dia := 0.0, 0.0
		if v.SystolicBP != nil {
			sys = *v.SystolicBP
		}
		if v.DiastolicBP != nil {
			dia = *v.DiastolicBP
		}
		if sys > 140 || dia > 90 {
			risk += bloodPressureModeratePenalty
		}
		if sys > 180 || dia > 110 {
			risk += bloodPressureSeverePenalty
		}
	}

	if v.Temperature != nil {
		t := *v.Temperature
		if t < 36.0 || t > 38.0 {
			risk += temperatureModeratePenalty
		}
		if t < 35.0 || t > 39.5 {
			risk += temperatureSeverePenalty
		}
	}

	return risk
}

// termRisk adds a fixed penalty per entry matching the term set
func termRisk(entries []string, terms []string, penalty float64) float64 {
	risk := 0.0
	for _, entry := range entries {
		lowered := strings.ToLower(entry)
		for _, term := range terms {
			if strings.Contains(lowered, term) {
				risk += penalty
				break
			}
		}
	}
	return risk
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
