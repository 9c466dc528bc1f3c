package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/kasu/retention-backend/internal/middleware"
	"github.com/kasu/retention-backend/internal/response"
	"github.com/kasu/retention-backend/internal/risk"
	ws "github.com/kasu/retention-backend/internal/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const pingInterval = (ws.PongWait * 9) / 10

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins.
// An empty slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

type alertSubscriber interface {
	Subscribe(ctx context.Context) *redis.PubSub
}

// WSHandler streams live assessment alerts to staff.
type WSHandler struct {
	alerts   alertSubscriber
	log      zerolog.Logger
	upgrader websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(alerts alertSubscriber, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		alerts:   alerts,
		log:      log.With().Str("component", "ws_handler").Logger(),
		upgrader: buildUpgrader(allowedOrigins),
	}
}

// tierFilter is the connection's minimum tier, changed by set_filter.
type tierFilter struct {
	mu  sync.RWMutex
	min risk.Tier
}

func (f *tierFilter) get() risk.Tier {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.min
}

func (f *tierFilter) set(t risk.Tier) {
	f.mu.Lock()
	f.min = t
	f.mu.Unlock()
}

// parseTier accepts "" (no filter) or a known tier in any case.
func parseTier(raw string) (risk.Tier, bool) {
	t := risk.Tier(strings.ToUpper(strings.TrimSpace(raw)))
	if t == "" || t.Valid() {
		return t, true
	}
	return "", false
}

// AlertStream godoc
// WS /ws/v1/alerts?token=...&min_tier=CRITICAL
// Forwards every stored assessment whose tier is at least min_tier.
func (h *WSHandler) AlertStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	minTier, ok := parseTier(c.Query("min_tier"))
	if !ok {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, map[string]string{
			"min_tier": "min_tier must be one of LOW, MODERATE, CRITICAL",
		})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	wsLog := h.log.With().Int("user_id", claims.UserID).Str("role", string(claims.Role)).Logger()
	wsLog.Info().Str("min_tier", string(minTier)).Msg("Staff connected to alert stream")

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	pubsub := h.alerts.Subscribe(ctx)
	defer pubsub.Close()
	if _, err := pubsub.Receive(ctx); err != nil {
		wsLog.Error().Err(err).Msg("Alert subscription failed")
		_ = ws.WriteError(conn, "alerts unavailable")
		return
	}

	filter := &tierFilter{min: minTier}
	var writeMu sync.Mutex
	write := func(fn func() error) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		return fn()
	}

	// The first frame confirms the subscription and the active filter.
	if err := ws.WriteTyped(conn, ws.FilterResponse{Event: ws.EventFilter, MinTier: minTier}); err != nil {
		return
	}

	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(ws.PongWait))
	})

	go h.readLoop(conn, wsLog, filter, write, cancel)

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	ch := pubsub.Channel()

	for {
		select {
		case <-ctx.Done():
			wsLog.Debug().Msg("Alert stream closed")
			return

		case msg, ok := <-ch:
			if !ok {
				return
			}
			var head struct {
				Tier risk.Tier `json:"tier"`
			}
			if err := json.Unmarshal([]byte(msg.Payload), &head); err != nil {
				wsLog.Warn().Err(err).Msg("Dropping malformed alert")
				continue
			}
			if !ws.Passes(head.Tier, filter.get()) {
				continue
			}
			if err := write(func() error { return ws.WriteRaw(conn, []byte(msg.Payload)) }); err != nil {
				wsLog.Debug().Err(err).Msg("Write failed")
				return
			}

		case <-ticker.C:
			err := write(func() error {
				return conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(time.Second))
			})
			if err != nil {
				return
			}
		}
	}
}

// readLoop handles client actions until the connection fails, then cancels
// the stream.
func (h *WSHandler) readLoop(conn *websocket.Conn, wsLog zerolog.Logger, filter *tierFilter, write func(func() error) error, cancel context.CancelFunc) {
	defer cancel()

	for {
		var msg ws.RequestEnvelope
		if err := ws.ReadJSON(conn, &msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			}
			return
		}

		switch msg.Action {
		case ws.ActionPing:
			_ = write(func() error { return ws.WriteTyped(conn, ws.PongResponse{Event: ws.EventPong}) })

		case ws.ActionSetFilter:
			tier, ok := parseTier(string(msg.MinTier))
			if !ok {
				_ = write(func() error { return ws.WriteError(conn, "unknown tier: "+string(msg.MinTier)) })
				continue
			}
			filter.set(tier)
			_ = write(func() error {
				return ws.WriteTyped(conn, ws.FilterResponse{Event: ws.EventFilter, MinTier: tier})
			})

		default:
			wsLog.Warn().Str("action", string(msg.Action)).Msg("Unknown action")
			_ = write(func() error { return ws.WriteError(conn, "unknown action: "+string(msg.Action)) })
		}
	}
}
