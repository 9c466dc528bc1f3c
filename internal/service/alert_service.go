package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/kasu/retention-backend/internal/config"
	"github.com/kasu/retention-backend/internal/model"
	ws "github.com/kasu/retention-backend/internal/websocket"
	"github.com/redis/go-redis/v9"
)

// AlertService fans assessment events out over Redis Pub/Sub so every server
// instance can push them to its WebSocket clients.
type AlertService struct {
	rdb *redis.Client
}

// NewAlertService creates a new AlertService.
func NewAlertService(rdb *redis.Client) *AlertService {
	return &AlertService{rdb: rdb}
}

// NewAssessmentAlert builds the event for a stored prediction.
func NewAssessmentAlert(s *model.Student, p *model.Prediction) ws.AssessmentAlert {
	return ws.AssessmentAlert{
		Event:          ws.EventAssessment,
		StudentID:      s.ID,
		StudentCode:    s.StudentID,
		StudentName:    s.Name,
		Course:         s.Course,
		RiskScore:      p.RiskScore,
		Tier:           p.Tier,
		Guidance:       p.Strategy().Guidance,
		Provenance:     p.Provenance,
		PredictionDate: p.PredictionDate,
	}
}

// Publish sends an alert to all subscribers.
func (s *AlertService) Publish(ctx context.Context, alert ws.AssessmentAlert) error {
	raw, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("encode alert: %w", err)
	}
	return s.rdb.Publish(ctx, config.CacheKey.AlertsChannel(), raw).Err()
}

// Subscribe opens a subscription to the alerts channel. The caller closes it.
func (s *AlertService) Subscribe(ctx context.Context) *redis.PubSub {
	return s.rdb.Subscribe(ctx, config.CacheKey.AlertsChannel())
}
