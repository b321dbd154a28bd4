package risk

import (
	"readmission-service/models"
)

// Tier advisories. Wording is fixed and surfaced verbatim to clinicians.
const (
	AdviceLow    = "Continue routine follow-up and outpatient care."
	AdviceMedium = "Consider enhanced discharge planning and close follow-up."
	AdviceHigh   = "Recommend intensive transitional care and early follow-up within 7 days."
)

// Classifier buckets a readmission probability into a risk tier.
//
// Policy: risk_index truncates p*100 toward zero, and tier boundaries are
// strict upper bounds — index < medium is LOW, index < high is MEDIUM, the
// rest HIGH. So p=0.30 lands exactly on the medium cutpoint and is MEDIUM.
type Classifier struct {
	thresholds TierThresholds
}

func NewClassifier(thresholds TierThresholds) *Classifier {
	return &Classifier{thresholds: thresholds}
}

// Classify is pure: no side effects, total over [0,1]. Out-of-range
// probabilities are clamped so a misbehaving model can never produce an
// index outside [0,100].
func (cl *Classifier) Classify(p float64) (index int, tier, recommendation string) {
	if p < 0 {
		p = 0
	}
	if p > 1 {
		p = 1
	}
	index = int(p * 100)

	switch {
	case index < cl.thresholds.Medium:
		return index, models.TierLow, AdviceLow
	case index < cl.thresholds.High:
		return index, models.TierMedium, AdviceMedium
	default:
		return index, models.TierHigh, AdviceHigh
	}
}
