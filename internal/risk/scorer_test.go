package risk

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ─── Test capabilities ────────────────────────────────────────────────

type probaCap struct {
	out []float64
	err error
	got []float64
}

func (c *probaCap) ModelVersion() string { return "proba-v1" }
func (c *probaCap) PredictProba(_ context.Context, x []float64) ([]float64, error) {
	c.got = x
	return c.out, c.err
}

type valueCap struct {
	out float64
	err error
}

func (c *valueCap) ModelVersion() string { return "value-v1" }
func (c *valueCap) Predict(context.Context, []float64) (float64, error) {
	return c.out, c.err
}

// hybridCap discovers at call time that it has no probability head.
type hybridCap struct {
	valueCap
	probaErr error
}

func (c *hybridCap) PredictProba(context.Context, []float64) ([]float64, error) {
	return nil, c.probaErr
}

type bareCap struct{}

func (bareCap) ModelVersion() string { return "bare" }

type fixedSource float64

func (f fixedSource) Float64() float64 { return float64(f) }

type recordingObserver struct {
	mu   sync.Mutex
	seen []Provenance
}

func (o *recordingObserver) ObserveScore(p Provenance, _ string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.seen = append(o.seen, p)
}

func newTestScorer(opts ...ScorerOption) *Scorer {
	return NewScorer(zerolog.Nop(), opts...)
}

func referenceFeatures(t *testing.T) FeatureVector {
	t.Helper()
	fv, err := Encode(demoStudent())
	require.NoError(t, err)
	return fv
}

// ─── Demo mode ─────────────────────────────────────────────────────────

func TestScore_DemoModeBounded(t *testing.T) {
	obs := &recordingObserver{}
	s := newTestScorer(WithRandomSource(NewRandomSource(42)), WithObserver(obs))
	fv := referenceFeatures(t)

	for i := 0; i < 2000; i++ {
		got := s.Score(context.Background(), fv, nil)
		require.Equal(t, ProvenanceDemo, got.Provenance)
		require.GreaterOrEqual(t, got.Value, 0.1)
		require.LessOrEqual(t, got.Value, 0.9)
		require.Equal(t, got.Value, math.Round(got.Value*100)/100)
	}
	assert.Len(t, obs.seen, 2000)
}

func TestScore_DemoModeEdgesOfSource(t *testing.T) {
	fv := referenceFeatures(t)

	low := newTestScorer(WithRandomSource(fixedSource(0))).Score(context.Background(), fv, nil)
	assert.Equal(t, 0.1, low.Value)

	high := newTestScorer(WithRandomSource(fixedSource(0.999999))).Score(context.Background(), fv, nil)
	assert.Equal(t, 0.9, high.Value)
}

func TestScore_DemoModeSeededIsReproducible(t *testing.T) {
	fv := referenceFeatures(t)
	a := newTestScorer(WithRandomSource(NewRandomSource(7)))
	b := newTestScorer(WithRandomSource(NewRandomSource(7)))

	for i := 0; i < 20; i++ {
		assert.Equal(t, a.Score(context.Background(), fv, nil), b.Score(context.Background(), fv, nil))
	}
}

func TestScore_DemoModeConcurrentSafe(t *testing.T) {
	s := newTestScorer(WithRandomSource(NewRandomSource(1)))
	fv := referenceFeatures(t)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				v := s.Score(context.Background(), fv, nil).Value
				if v < 0.1 || v > 0.9 {
					t.Errorf("demo score out of range: %v", v)
				}
			}
		}()
	}
	wg.Wait()
}

// ─── Capability-backed ─────────────────────────────────────────────────

func TestScore_ProbabilisticUsesPositiveClass(t *testing.T) {
	c := &probaCap{out: []float64{0.274, 0.726}}
	got := newTestScorer().Score(context.Background(), referenceFeatures(t), c)

	assert.Equal(t, Score{Value: 0.73, Provenance: ProvenanceModel, ModelVersion: "proba-v1"}, got)
	assert.Equal(t, referenceFeatures(t).Values(), c.got, "capability receives the 12 positional features")
}

func TestScore_ValueIsClampedThenRounded(t *testing.T) {
	cases := map[float64]float64{
		1.7:    1.0,
		-0.3:   0.0,
		0.456:  0.46,
		0.4449: 0.44,
		1.0:    1.0,
	}
	for raw, want := range cases {
		got := newTestScorer().Score(context.Background(), referenceFeatures(t), &valueCap{out: raw})
		assert.Equal(t, ProvenanceModel, got.Provenance)
		assert.Equal(t, want, got.Value, "raw %v", raw)
	}
}

func TestScore_FallsBackToValueWhenProbaUnsupported(t *testing.T) {
	c := &hybridCap{valueCap: valueCap{out: 0.81}, probaErr: ErrProbabilityUnsupported}
	got := newTestScorer().Score(context.Background(), referenceFeatures(t), c)

	assert.Equal(t, ProvenanceModel, got.Provenance)
	assert.Equal(t, 0.81, got.Value)
}

func TestScore_DegradesToNeutral(t *testing.T) {
	cases := map[string]Capability{
		"proba error":           &probaCap{err: errors.New("model exploded")},
		"proba one class":       &probaCap{out: []float64{0.4}},
		"proba empty":           &probaCap{out: nil},
		"proba out of range":    &probaCap{out: []float64{-0.2, 1.2}},
		"proba NaN":             &probaCap{out: []float64{0.5, math.NaN()}},
		"value error":           &valueCap{err: errors.New("timeout")},
		"value NaN":             &valueCap{out: math.NaN()},
		"value Inf":             &valueCap{out: math.Inf(1)},
		"unsupported, no value": &hybridCap{probaErr: errors.New("connection refused")},
		"neither variant":       bareCap{},
	}

	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			obs := &recordingObserver{}
			got := newTestScorer(WithObserver(obs)).Score(context.Background(), referenceFeatures(t), c)

			assert.Equal(t, 0.50, got.Value)
			assert.Equal(t, ProvenanceDegraded, got.Provenance)
			assert.NotEmpty(t, got.Reason)
			assert.Equal(t, []Provenance{ProvenanceDegraded}, obs.seen)
		})
	}
}

func TestScore_DegradedYieldsModerate(t *testing.T) {
	got := newTestScorer().Score(context.Background(), referenceFeatures(t), &valueCap{err: errors.New("boom")})
	assert.Equal(t, TierModerate, TierFor(got.Value))
}

type panickyCap struct{}

func (panickyCap) ModelVersion() string { return "panic" }
func (panickyCap) PredictProba(context.Context, []float64) ([]float64, error) {
	var classes []float64
	return []float64{classes[3]}, nil
}
func (panickyCap) Predict(context.Context, []float64) (float64, error) {
	panic("unreachable")
}

func TestScore_CapabilityPanicDegrades(t *testing.T) {
	obs := &recordingObserver{}
	var got Score
	assert.NotPanics(t, func() {
		got = newTestScorer(WithObserver(obs)).Score(context.Background(), referenceFeatures(t), panickyCap{})
	})

	assert.Equal(t, NeutralScore, got.Value)
	assert.Equal(t, ProvenanceDegraded, got.Provenance)
	assert.Contains(t, got.Reason, "index out of range")
	assert.Equal(t, []Provenance{ProvenanceDegraded}, obs.seen)
}
