// Package risk scores a student's likelihood of dropping out and maps the
// score to an intervention strategy.
//
// The package is pure: encoding, scoring and strategy selection keep no state
// between calls and are safe for concurrent use.
package risk

import "context"

// Assessment is the full result of one assessment.
type Assessment struct {
	Features FeatureVector `json:"-"`
	Score    Score         `json:"score"`
	Strategy Strategy      `json:"strategy"`
}

// Assessor composes Encode, Scorer.Score and SelectStrategy.
type Assessor struct {
	scorer *Scorer
}

// NewAssessor creates an Assessor backed by scorer.
func NewAssessor(scorer *Scorer) *Assessor {
	return &Assessor{scorer: scorer}
}

// Assess runs the full pipeline. Only encoding errors are returned; a failing
// capability degrades to NeutralScore instead.
func (a *Assessor) Assess(ctx context.Context, attrs StudentAttributes, capability Capability) (Assessment, error) {
	features, err := Encode(attrs)
	if err != nil {
		return Assessment{}, err
	}

	score := a.scorer.Score(ctx, features, capability)

	return Assessment{
		Features: features,
		Score:    score,
		Strategy: SelectStrategy(score.Value),
	}, nil
}
