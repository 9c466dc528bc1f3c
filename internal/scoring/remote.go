package scoring

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/kasu/retention-backend/internal/risk"
)

// RemoteScorer calls an HTTP inference service. It implements both scoring
// variants; services without a probability endpoint answer 404 or 501 and the
// risk scorer falls back to /predict.
type RemoteScorer struct {
	baseURL string
	version string
	client  *http.Client
}

type remoteRequest struct {
	Features []float64 `json:"features"`
}

type remoteProbaResponse struct {
	Probabilities []float64 `json:"probabilities"`
}

type remoteValueResponse struct {
	Prediction *float64 `json:"prediction"`
}

var (
	errMissingProbabilities = errors.New("inference response has no probabilities")
	errMissingPrediction    = errors.New("inference response has no prediction")
)

// NewRemoteScorer creates a scorer for baseURL.
func NewRemoteScorer(baseURL string, timeout time.Duration) *RemoteScorer {
	baseURL = strings.TrimRight(baseURL, "/")
	return &RemoteScorer{
		baseURL: baseURL,
		version: "remote:" + baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

func (r *RemoteScorer) ModelVersion() string { return r.version }

func (r *RemoteScorer) PredictProba(ctx context.Context, x []float64) ([]float64, error) {
	var out remoteProbaResponse
	status, err := r.post(ctx, "/predict_proba", x, &out)
	if status == http.StatusNotFound || status == http.StatusNotImplemented {
		return nil, risk.ErrProbabilityUnsupported
	}
	if err != nil {
		return nil, err
	}
	if out.Probabilities == nil {
		return nil, errMissingProbabilities
	}
	return out.Probabilities, nil
}

func (r *RemoteScorer) Predict(ctx context.Context, x []float64) (float64, error) {
	var out remoteValueResponse
	if _, err := r.post(ctx, "/predict", x, &out); err != nil {
		return 0, err
	}
	if out.Prediction == nil {
		return 0, errMissingPrediction
	}
	return *out.Prediction, nil
}

func (r *RemoteScorer) post(ctx context.Context, path string, x []float64, dst any) (int, error) {
	body, err := json.Marshal(remoteRequest{Features: x})
	if err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("inference request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return resp.StatusCode, fmt.Errorf("inference %s returned %d: %s", path, resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return resp.StatusCode, fmt.Errorf("decode inference response: %w", err)
	}
	return resp.StatusCode, nil
}
