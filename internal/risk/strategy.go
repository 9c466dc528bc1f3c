package risk

// Tier is a discrete intervention level.
type Tier string

const (
	TierLow      Tier = "LOW"
	TierModerate Tier = "MODERATE"
	TierCritical Tier = "CRITICAL"
)

// Tier thresholds; both comparisons are strictly greater-than.
const (
	CriticalThreshold = 0.70
	ModerateThreshold = 0.40
)

// Guidance text per tier.
const (
	GuidanceCritical = "Immediate counseling, financial aid assessment, parental notification"
	GuidanceModerate = "Academic counseling, tutoring, attendance monitoring"
	GuidanceLow      = "Regular check-ins, progress monitoring"
)

// Tiers lists every tier from lowest to highest.
var Tiers = []Tier{TierLow, TierModerate, TierCritical}

// Rank orders tiers; unknown tiers rank below LOW.
func (t Tier) Rank() int {
	switch t {
	case TierLow:
		return 1
	case TierModerate:
		return 2
	case TierCritical:
		return 3
	default:
		return 0
	}
}

// Valid reports whether t is one of the known tiers.
func (t Tier) Valid() bool { return t.Rank() > 0 }

// Strategy pairs a tier with its guidance.
type Strategy struct {
	Tier     Tier   `json:"tier"`
	Guidance string `json:"guidance"`
}

func (s Strategy) String() string {
	return string(s.Tier) + ": " + s.Guidance
}

// SelectStrategy maps a risk score to an intervention strategy.
func SelectStrategy(risk float64) Strategy {
	switch {
	case risk > CriticalThreshold:
		return Strategy{Tier: TierCritical, Guidance: GuidanceCritical}
	case risk > ModerateThreshold:
		return Strategy{Tier: TierModerate, Guidance: GuidanceModerate}
	default:
		return Strategy{Tier: TierLow, Guidance: GuidanceLow}
	}
}

// TierFor is shorthand for SelectStrategy(risk).Tier.
func TierFor(risk float64) Tier {
	return SelectStrategy(risk).Tier
}
