package scoring

import (
	"errors"
	"io/fs"
	"sync"
	"time"

	"github.com/kasu/retention-backend/internal/risk"
	"github.com/rs/zerolog"
)

// Provider modes.
const (
	ModeDemo   = "demo"
	ModeFile   = "file"
	ModeRemote = "remote"
)

// Status describes the active capability.
type Status struct {
	Mode         string     `json:"mode"`
	ModelVersion string     `json:"model_version,omitempty"`
	Source       string     `json:"source,omitempty"`
	LoadedAt     *time.Time `json:"loaded_at,omitempty"`
}

// ProviderConfig selects where the capability comes from. A remote URL takes
// precedence over a model file.
type ProviderConfig struct {
	ModelPath     string
	RemoteURL     string
	RemoteTimeout time.Duration
}

// Provider holds the capability used for new assessments and swaps it
// atomically on reload.
type Provider struct {
	cfg ProviderConfig
	log zerolog.Logger

	mu         sync.RWMutex
	capability risk.Capability
	status     Status
}

// NewProvider creates a provider in demo mode. Call Load to activate a model.
func NewProvider(cfg ProviderConfig, log zerolog.Logger) *Provider {
	return &Provider{
		cfg:    cfg,
		log:    log.With().Str("component", "model_provider").Logger(),
		status: Status{Mode: ModeDemo},
	}
}

// Load activates the configured capability. A missing model file is not an
// error: the provider stays in demo mode. On error the previous capability is
// kept.
func (p *Provider) Load() (Status, error) {
	now := time.Now()

	if p.cfg.RemoteURL != "" {
		remote := NewRemoteScorer(p.cfg.RemoteURL, p.cfg.RemoteTimeout)
		return p.swap(remote, Status{
			Mode:         ModeRemote,
			ModelVersion: remote.ModelVersion(),
			Source:       p.cfg.RemoteURL,
			LoadedAt:     &now,
		}), nil
	}

	if p.cfg.ModelPath == "" {
		p.log.Info().Msg("No model configured, running in demo mode")
		return p.swap(nil, Status{Mode: ModeDemo}), nil
	}

	doc, err := LoadFile(p.cfg.ModelPath)
	if errors.Is(err, fs.ErrNotExist) {
		p.log.Info().Str("path", p.cfg.ModelPath).Msg("Model file not found, running in demo mode")
		return p.swap(nil, Status{Mode: ModeDemo, Source: p.cfg.ModelPath}), nil
	}
	if err != nil {
		p.log.Error().Err(err).Str("path", p.cfg.ModelPath).Msg("Failed to load model")
		return p.Status(), err
	}

	capability, err := doc.Capability()
	if err != nil {
		return p.Status(), err
	}

	p.log.Info().
		Str("path", p.cfg.ModelPath).
		Str("kind", doc.Kind).
		Str("model_version", doc.Version).
		Msg("Model loaded")

	return p.swap(capability, Status{
		Mode:         ModeFile,
		ModelVersion: doc.Version,
		Source:       p.cfg.ModelPath,
		LoadedAt:     &now,
	}), nil
}

// Reload is Load under another name for the admin endpoint.
func (p *Provider) Reload() (Status, error) {
	return p.Load()
}

// Current returns the active capability, or nil in demo mode.
func (p *Provider) Current() risk.Capability {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.capability
}

// Status reports the active mode and version.
func (p *Provider) Status() Status {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.status
}

func (p *Provider) swap(capability risk.Capability, status Status) Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.capability = capability
	p.status = status
	return status
}
