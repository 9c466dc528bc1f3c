package scoring

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kasu/retention-backend/internal/risk"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func inferenceServer(t *testing.T, withProba bool) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/predict_proba", func(w http.ResponseWriter, r *http.Request) {
		if !withProba {
			w.WriteHeader(http.StatusNotImplemented)
			return
		}
		var req remoteRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Len(t, req.Features, risk.FeatureCount)
		_ = json.NewEncoder(w).Encode(map[string]any{"probabilities": []float64{0.35, 0.65}})
	})
	mux.HandleFunc("/predict", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"prediction": 1.4})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestRemoteScorer_Probabilities(t *testing.T) {
	srv := inferenceServer(t, true)
	r := NewRemoteScorer(srv.URL+"/", time.Second)

	proba, err := r.PredictProba(context.Background(), make([]float64, risk.FeatureCount))
	require.NoError(t, err)
	assert.Equal(t, []float64{0.35, 0.65}, proba)
	assert.Equal(t, "remote:"+srv.URL, r.ModelVersion())
}

func TestRemoteScorer_NoProbabilityEndpoint(t *testing.T) {
	srv := inferenceServer(t, false)
	r := NewRemoteScorer(srv.URL, time.Second)

	_, err := r.PredictProba(context.Background(), make([]float64, risk.FeatureCount))
	assert.ErrorIs(t, err, risk.ErrProbabilityUnsupported)

	// Through the risk scorer the fallback applies and the value is clamped.
	fv, err := risk.Encode(risk.StudentAttributes{
		GPA: ptr(3.0), Attendance: ptr(90.0), Failures: ptr(0),
	})
	require.NoError(t, err)

	got := risk.NewScorer(zerolog.Nop()).Score(context.Background(), fv, r)
	assert.Equal(t, risk.ProvenanceModel, got.Provenance)
	assert.Equal(t, 1.0, got.Value)
}

func TestRemoteScorer_ServerErrorDegrades(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model crashed", http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	fv, err := risk.Encode(risk.StudentAttributes{
		GPA: ptr(3.0), Attendance: ptr(90.0), Failures: ptr(0),
	})
	require.NoError(t, err)

	got := risk.NewScorer(zerolog.Nop()).Score(context.Background(), fv, NewRemoteScorer(srv.URL, time.Second))
	assert.Equal(t, risk.ProvenanceDegraded, got.Provenance)
	assert.Equal(t, risk.NeutralScore, got.Value)
	assert.Contains(t, got.Reason, "500")
}

func TestRemoteScorer_WrongShapeDegrades(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/predict_proba", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotImplemented)
	})
	mux.HandleFunc("/predict", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"score":0.93}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	r := NewRemoteScorer(srv.URL, time.Second)
	_, err := r.Predict(context.Background(), make([]float64, risk.FeatureCount))
	assert.ErrorIs(t, err, errMissingPrediction)

	fv, err := risk.Encode(risk.StudentAttributes{
		GPA: ptr(3.0), Attendance: ptr(90.0), Failures: ptr(0),
	})
	require.NoError(t, err)

	got := risk.NewScorer(zerolog.Nop()).Score(context.Background(), fv, r)
	assert.Equal(t, risk.ProvenanceDegraded, got.Provenance)
	assert.Equal(t, risk.NeutralScore, got.Value)
	assert.Equal(t, risk.TierModerate, risk.TierFor(got.Value))
}

func TestRemoteScorer_MissingProbabilities(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"probabilities":null}`))
	}))
	t.Cleanup(srv.Close)

	_, err := NewRemoteScorer(srv.URL, time.Second).PredictProba(context.Background(), nil)
	assert.ErrorIs(t, err, errMissingProbabilities)
}

func TestRemoteScorer_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	t.Cleanup(srv.Close)

	_, err := NewRemoteScorer(srv.URL, 20*time.Millisecond).Predict(context.Background(), nil)
	assert.Error(t, err)
}

func ptr[T any](v T) *T { return &v }
