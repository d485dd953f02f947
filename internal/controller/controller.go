package controller

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"slices"

	"github.com/gorilla/websocket"
	"github.com/sharetube/watchsync/internal/repository/connection"
	"github.com/sharetube/watchsync/internal/service/relay"
	"github.com/sharetube/watchsync/internal/wsconn"
	"github.com/sharetube/watchsync/pkg/validator"
	"github.com/sharetube/watchsync/pkg/wsrouter"
)

type iRelayService interface {
	Connect(context.Context, connection.Conn) error
	Disconnect(context.Context, string) error
	JoinRoom(context.Context, *relay.JoinRoomParams) (relay.JoinRoomResponse, error)
	UpdateVideoState(context.Context, *relay.UpdateVideoStateParams) (relay.UpdateVideoStateResponse, error)
	GetStats(context.Context) (relay.Stats, error)
}

type iMetrics interface {
	ObserveMessage(messageType string, err error)
	Handler() http.Handler
}

type Config struct {
	CorsOrigins []string
	Conn        wsconn.Config
}

type controller struct {
	relayService iRelayService
	metrics      iMetrics
	upgrader     websocket.Upgrader
	wsmux        *wsrouter.WSRouter[*wsconn.Conn]
	validate     *validator.Validator
	corsOrigins  []string
	connConfig   wsconn.Config
	logger       *slog.Logger
}

func NewController(relayService iRelayService, metrics iMetrics, cfg *Config, logger *slog.Logger) *controller {
	c := &controller{
		relayService: relayService,
		metrics:      metrics,
		validate:     validator.NewValidator(),
		corsOrigins:  cfg.CorsOrigins,
		connConfig:   cfg.Conn,
		logger:       logger,
	}
	c.upgrader = websocket.Upgrader{
		CheckOrigin: c.checkOrigin,
	}
	c.wsmux = c.getWSRouter()

	return c
}

// checkOrigin accepts clients without an Origin header, same host requests and
// the configured CORS origins.
func (c *controller) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	if slices.Contains(c.corsOrigins, "*") || slices.Contains(c.corsOrigins, origin) {
		return true
	}

	u, err := url.Parse(origin)
	if err != nil {
		return false
	}

	return u.Host == r.Host
}
