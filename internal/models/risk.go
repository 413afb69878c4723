package models

// RiskLabel is a derived, never persisted, risk classification
type RiskLabel string

const (
	RiskOnTrack            RiskLabel = "On Track"
	RiskInterventionNeeded RiskLabel = "Intervention Needed"
	RiskMedium             RiskLabel = "Medium Risk"
	RiskHigh               RiskLabel = "High Risk"
)

// Severity orders labels from On Track (0) to High Risk (3)
func (l RiskLabel) Severity() int {
	switch l {
	case RiskHigh:
		return 3
	case RiskMedium:
		return 2
	case RiskInterventionNeeded:
		return 1
	}
	return 0
}
