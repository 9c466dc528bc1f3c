package scoring

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/kasu/retention-backend/internal/risk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDocument(kind string) Document {
	coef := make([]float64, risk.FeatureCount)
	coef[8] = 1 // Course_Failures
	return Document{
		Kind:         kind,
		Version:      kind + "-test",
		FeatureNames: risk.FeatureNames[:],
		Coefficients: coef,
		Intercept:    -1,
	}
}

func writeModel(t *testing.T, doc any) string {
	t.Helper()
	raw, err := json.Marshal(doc)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "model.json")
	require.NoError(t, os.WriteFile(path, raw, 0o600))
	return path
}

func featuresWithFailures(n float64) []float64 {
	x := make([]float64, risk.FeatureCount)
	x[8] = n
	return x
}

func TestParseDocument_Logistic(t *testing.T) {
	doc, err := LoadFile(writeModel(t, testDocument(KindLogistic)))
	require.NoError(t, err)

	capability, err := doc.Capability()
	require.NoError(t, err)
	assert.Equal(t, "logistic-test", capability.ModelVersion())

	ps, ok := capability.(risk.ProbabilisticScorer)
	require.True(t, ok)

	proba, err := ps.PredictProba(context.Background(), featuresWithFailures(1))
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0.5, 0.5}, proba, 1e-9)

	proba, err = ps.PredictProba(context.Background(), featuresWithFailures(3))
	require.NoError(t, err)
	assert.InDelta(t, 0.8808, proba[1], 1e-4)
	assert.InDelta(t, 1.0, proba[0]+proba[1], 1e-12)
}

func TestParseDocument_Linear(t *testing.T) {
	doc, err := LoadFile(writeModel(t, testDocument(KindLinear)))
	require.NoError(t, err)

	capability, err := doc.Capability()
	require.NoError(t, err)

	_, isProba := capability.(risk.ProbabilisticScorer)
	assert.False(t, isProba)

	vs, ok := capability.(risk.ValueScorer)
	require.True(t, ok)

	v, err := vs.Predict(context.Background(), featuresWithFailures(4))
	require.NoError(t, err)
	assert.Equal(t, 3.0, v, "linear output is not clamped here")
}

func TestParseDocument_Rejects(t *testing.T) {
	wrongKind := testDocument("forest")
	shortCoef := testDocument(KindLogistic)
	shortCoef.Coefficients = shortCoef.Coefficients[:5]
	swapped := testDocument(KindLogistic)
	swapped.FeatureNames = append([]string{}, risk.FeatureNames[:]...)
	swapped.FeatureNames[0], swapped.FeatureNames[1] = swapped.FeatureNames[1], swapped.FeatureNames[0]

	cases := map[string]struct {
		raw  []byte
		want error
	}{
		"not json":        {[]byte("{nope"), ErrInvalidModel},
		"unknown kind":    {mustJSON(t, wrongKind), ErrInvalidModel},
		"short weights":   {mustJSON(t, shortCoef), ErrInvalidModel},
		"missing version": {[]byte(`{"kind":"linear","feature_names":[],"coefficients":[],"intercept":0}`), ErrInvalidModel},
		"feature order":   {mustJSON(t, swapped), ErrFeatureMismatch},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseDocument(tc.raw)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestModel_WrongFeatureCount(t *testing.T) {
	doc := testDocument(KindLinear)
	capability, err := doc.Capability()
	require.NoError(t, err)

	_, err = capability.(risk.ValueScorer).Predict(context.Background(), []float64{1, 2})
	assert.Error(t, err)
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return raw
}
