package risk

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"sync"

	"github.com/rs/zerolog"
)

// NeutralScore is returned when a capability fails or misbehaves.
const NeutralScore = 0.50

// Demo-mode scores are sampled uniformly from this range.
const (
	demoLow  = 0.1
	demoHigh = 0.9
)

// ErrProbabilityUnsupported is returned by a ProbabilisticScorer that has no
// probability output. If the capability is also a ValueScorer, Predict is used.
var ErrProbabilityUnsupported = errors.New("capability does not support probability output")

// errNoVariant marks a capability that implements neither scoring variant.
var errNoVariant = errors.New("capability implements neither PredictProba nor Predict")

// Capability is a trained scoring component. A usable capability also
// implements ProbabilisticScorer, ValueScorer, or both.
type Capability interface {
	ModelVersion() string
}

// ProbabilisticScorer returns class probabilities; index 1 is the dropout class.
type ProbabilisticScorer interface {
	Capability
	PredictProba(ctx context.Context, features []float64) ([]float64, error)
}

// ValueScorer returns a single continuous score that may fall outside [0,1].
type ValueScorer interface {
	Capability
	Predict(ctx context.Context, features []float64) (float64, error)
}

// Provenance records where a score came from.
type Provenance string

const (
	ProvenanceModel    Provenance = "model"
	ProvenanceDemo     Provenance = "demo"
	ProvenanceDegraded Provenance = "degraded"
)

// Score is the outcome of scoring one feature vector.
type Score struct {
	Value        float64    `json:"value"`
	Provenance   Provenance `json:"provenance"`
	ModelVersion string     `json:"model_version,omitempty"`
	Reason       string     `json:"reason,omitempty"`
}

// RandomSource supplies uniform values in [0,1). Implementations must be safe
// for concurrent use.
type RandomSource interface {
	Float64() float64
}

// lockedSource guards a seeded generator with a mutex.
type lockedSource struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomSource returns a concurrency-safe source seeded with seed.
func NewRandomSource(seed uint64) RandomSource {
	return &lockedSource{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (s *lockedSource) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64()
}

type globalSource struct{}

func (globalSource) Float64() float64 { return rand.Float64() }

// Observer receives one notification per scored vector.
type Observer interface {
	ObserveScore(provenance Provenance, modelVersion string)
}

// NopObserver discards notifications.
type NopObserver struct{}

func (NopObserver) ObserveScore(Provenance, string) {}

// Scorer turns feature vectors into risk scores. It holds no per-call state.
type Scorer struct {
	rnd      RandomSource
	observer Observer
	log      zerolog.Logger
}

// ScorerOption customizes a Scorer.
type ScorerOption func(*Scorer)

// WithRandomSource sets the demo-mode random source.
func WithRandomSource(src RandomSource) ScorerOption {
	return func(s *Scorer) {
		if src != nil {
			s.rnd = src
		}
	}
}

// WithObserver sets the observability collaborator.
func WithObserver(o Observer) ScorerOption {
	return func(s *Scorer) {
		if o != nil {
			s.observer = o
		}
	}
}

// NewScorer creates a Scorer. Without options it uses the process-wide random
// generator and discards observations.
func NewScorer(log zerolog.Logger, opts ...ScorerOption) *Scorer {
	s := &Scorer{
		rnd:      globalSource{},
		observer: NopObserver{},
		log:      log.With().Str("component", "risk_scorer").Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Score computes a risk score in [0,1], rounded to two decimals.
//
// A nil capability yields a random demo score. Capability errors and
// malformed output degrade to NeutralScore; they are never returned.
func (s *Scorer) Score(ctx context.Context, features FeatureVector, capability Capability) Score {
	if capability == nil {
		value := round2(demoLow + (demoHigh-demoLow)*s.rnd.Float64())
		s.log.Debug().Float64("risk_score", value).Msg("No scoring capability loaded, demo score issued")
		s.observer.ObserveScore(ProvenanceDemo, "")
		return Score{Value: value, Provenance: ProvenanceDemo}
	}

	version := capability.ModelVersion()
	value, err := s.invoke(ctx, features.Values(), capability)
	if err != nil {
		s.log.Warn().
			Err(err).
			Str("model_version", version).
			Float64("risk_score", NeutralScore).
			Msg("Scoring degraded to neutral score")
		s.observer.ObserveScore(ProvenanceDegraded, version)
		return Score{
			Value:        NeutralScore,
			Provenance:   ProvenanceDegraded,
			ModelVersion: version,
			Reason:       err.Error(),
		}
	}

	s.observer.ObserveScore(ProvenanceModel, version)
	return Score{Value: round2(value), Provenance: ProvenanceModel, ModelVersion: version}
}

// invoke probes the probability variant first and falls back to the value variant.
func (s *Scorer) invoke(ctx context.Context, x []float64, capability Capability) (float64, error) {
	if ps, ok := capability.(ProbabilisticScorer); ok {
		proba, err := guarded(func() ([]float64, error) { return ps.PredictProba(ctx, x) })
		switch {
		case err == nil:
			return positiveClass(proba)
		case !errors.Is(err, ErrProbabilityUnsupported):
			return 0, fmt.Errorf("predict_proba: %w", err)
		}
		// Fall through to the value variant.
	}

	vs, ok := capability.(ValueScorer)
	if !ok {
		return 0, errNoVariant
	}

	raw, err := guarded(func() (float64, error) { return vs.Predict(ctx, x) })
	if err != nil {
		return 0, fmt.Errorf("predict: %w", err)
	}
	if math.IsNaN(raw) || math.IsInf(raw, 0) {
		return 0, fmt.Errorf("malformed prediction: %v", raw)
	}
	return clamp01(raw), nil
}

// guarded runs a capability call and turns a panic inside it into an error.
func guarded[T any](call func() (T, error)) (out T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("capability panicked: %v", r)
		}
	}()
	return call()
}

func positiveClass(proba []float64) (float64, error) {
	if len(proba) < 2 {
		return 0, fmt.Errorf("malformed probabilities: want at least 2 classes, got %d", len(proba))
	}
	p := proba[1]
	if math.IsNaN(p) || p < 0 || p > 1 {
		return 0, fmt.Errorf("malformed probability: %v", p)
	}
	return p, nil
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
