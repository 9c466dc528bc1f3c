// Package scoring loads dropout risk models and exposes them as risk
// capabilities.
package scoring

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/kasu/retention-backend/internal/risk"
	"github.com/xeipuuv/gojsonschema"
)

// Model kinds.
const (
	KindLogistic = "logistic"
	KindLinear   = "linear"
)

var (
	ErrInvalidModel    = errors.New("INVALID_MODEL")
	ErrFeatureMismatch = errors.New("FEATURE_MISMATCH")
)

//go:embed model_schema.json
var modelSchemaJSON []byte

// Document is the on-disk model format.
type Document struct {
	Kind         string    `json:"kind"`
	Version      string    `json:"version"`
	FeatureNames []string  `json:"feature_names"`
	Coefficients []float64 `json:"coefficients"`
	Intercept    float64   `json:"intercept"`
	Description  string    `json:"description,omitempty"`
}

// ParseDocument validates raw against the model schema and checks that its
// features line up with the encoder's order.
func ParseDocument(raw []byte) (*Document, error) {
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidModel, err)
	}

	var schemaMap map[string]any
	if err := json.Unmarshal(modelSchemaJSON, &schemaMap); err != nil {
		return nil, fmt.Errorf("model schema: %w", err)
	}

	result, err := gojsonschema.Validate(gojsonschema.NewGoLoader(schemaMap), gojsonschema.NewGoLoader(generic))
	if err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}
	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return nil, fmt.Errorf("%w: %s", ErrInvalidModel, strings.Join(errs, "; "))
	}

	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidModel, err)
	}

	for i, name := range risk.FeatureNames {
		if doc.FeatureNames[i] != name {
			return nil, fmt.Errorf("%w: position %d is %q, want %q", ErrFeatureMismatch, i+1, doc.FeatureNames[i], name)
		}
	}

	return &doc, nil
}

// LoadFile reads and parses a model document.
func LoadFile(path string) (*Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseDocument(raw)
}

// Capability builds the scoring capability described by the document.
func (d *Document) Capability() (risk.Capability, error) {
	w := linearWeights{version: d.Version, intercept: d.Intercept}
	copy(w.coef[:], d.Coefficients)

	switch d.Kind {
	case KindLogistic:
		return &LogisticModel{w}, nil
	case KindLinear:
		return &LinearModel{w}, nil
	default:
		return nil, fmt.Errorf("%w: unknown kind %q", ErrInvalidModel, d.Kind)
	}
}

type linearWeights struct {
	version   string
	coef      [risk.FeatureCount]float64
	intercept float64
}

func (w linearWeights) ModelVersion() string { return w.version }

func (w linearWeights) dot(x []float64) (float64, error) {
	if len(x) != risk.FeatureCount {
		return 0, fmt.Errorf("expected %d features, got %d", risk.FeatureCount, len(x))
	}
	z := w.intercept
	for i, v := range x {
		z += w.coef[i] * v
	}
	return z, nil
}

// LogisticModel returns [P(stay), P(dropout)].
type LogisticModel struct {
	linearWeights
}

func (m *LogisticModel) PredictProba(_ context.Context, x []float64) ([]float64, error) {
	z, err := m.dot(x)
	if err != nil {
		return nil, err
	}
	p := 1 / (1 + math.Exp(-z))
	return []float64{1 - p, p}, nil
}

// LinearModel returns the raw linear score; the risk scorer clamps it.
type LinearModel struct {
	linearWeights
}

func (m *LinearModel) Predict(_ context.Context, x []float64) (float64, error) {
	return m.dot(x)
}
