package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sharetube/watchsync/internal/controller"
	connInmemory "github.com/sharetube/watchsync/internal/repository/connection/inmemory"
	"github.com/sharetube/watchsync/internal/repository/room"
	roomInmemory "github.com/sharetube/watchsync/internal/repository/room/inmemory"
	roomRedis "github.com/sharetube/watchsync/internal/repository/room/redis"
	"github.com/sharetube/watchsync/internal/service/relay"
	"github.com/sharetube/watchsync/internal/wsconn"
	"github.com/sharetube/watchsync/pkg/ctxlogger"
	"github.com/sharetube/watchsync/pkg/metrics"
	"github.com/sharetube/watchsync/pkg/redisclient"
)

const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

type AppConfig struct {
	Host          string        `json:"host"`
	Port          int           `json:"port"`
	LogLevel      string        `json:"log_level"`
	CorsOrigins   []string      `json:"cors_origins"`
	Store         string        `json:"store"`
	RoomTTL       time.Duration `json:"room_ttl"`
	RedisPort     int           `json:"redis_port"`
	RedisHost     string        `json:"redis_host"`
	RedisPassword string        `json:"-"`
}

func (cfg *AppConfig) Validate() error {
	if cfg.Port < 1 || cfg.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", cfg.Port)
	}
	if _, err := parseLogLevel(cfg.LogLevel); err != nil {
		return err
	}
	if cfg.Store != StoreMemory && cfg.Store != StoreRedis {
		return fmt.Errorf("unknown store %q, expected %s or %s", cfg.Store, StoreMemory, StoreRedis)
	}
	if cfg.RoomTTL < 0 {
		return fmt.Errorf("room ttl must not be negative")
	}
	if cfg.Store == StoreRedis && (cfg.RedisPort < 1 || cfg.RedisPort > 65535) {
		return fmt.Errorf("redis port must be between 1 and 65535, got %d", cfg.RedisPort)
	}
	return nil
}

func parseLogLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return level, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return level, nil
}

func newLogger(level slog.Level) *slog.Logger {
	h := ctxlogger.ContextHandler{
		Handler: slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level:     level,
			AddSource: true,
		}),
	}

	return slog.New(&h)
}

type roomRepo interface {
	SetState(context.Context, *room.SetStateParams) error
	GetState(context.Context, string) (room.State, error)
	Count(context.Context) (int, error)
}

// newRoomRepo returns the configured registry and a func releasing its resources.
func newRoomRepo(ctx context.Context, cfg *AppConfig, logger *slog.Logger) (roomRepo, func(), error) {
	if cfg.Store != StoreRedis {
		return roomInmemory.NewRepo(logger), func() {}, nil
	}

	rc, err := redisclient.NewRedisClient(ctx, &redisclient.Config{
		Port:     cfg.RedisPort,
		Host:     cfg.RedisHost,
		Password: cfg.RedisPassword,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create redis client: %w", err)
	}

	return roomRedis.NewRepo(rc, cfg.RoomTTL, logger), func() { rc.Close() }, nil
}

func registerGauges(ctx context.Context, m *metrics.Metrics, relayService interface {
	GetStats(context.Context) (relay.Stats, error)
}, logger *slog.Logger) {
	stat := func(pick func(relay.Stats) int) func() float64 {
		return func() float64 {
			stats, err := relayService.GetStats(ctx)
			if err != nil {
				logger.WarnContext(ctx, "failed to read stats", "error", err)
				return 0
			}
			return float64(pick(stats))
		}
	}

	m.RegisterGauge("connections", "Open websocket connections.", stat(func(s relay.Stats) int { return s.Connections }))
	m.RegisterGauge("rooms", "Rooms with at least one member.", stat(func(s relay.Stats) int { return s.Rooms }))
	m.RegisterGauge("room_states", "Rooms with a stored playback state.", stat(func(s relay.Stats) int { return s.States }))
}

func Run(ctx context.Context, cfg *AppConfig) error {
	logLevel, err := parseLogLevel(cfg.LogLevel)
	if err != nil {
		return err
	}

	logger := newLogger(logLevel)

	roomRepo, closeRepo, err := newRoomRepo(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeRepo()

	connectionRepo := connInmemory.NewRepo(logger)
	relayService := relay.NewService(roomRepo, connectionRepo, &relay.Config{
		RoomTTL: cfg.RoomTTL,
	}, logger)

	m := metrics.New()
	registerGauges(ctx, m, relayService, logger)

	controller := controller.NewController(relayService, m, &controller.Config{
		CorsOrigins: cfg.CorsOrigins,
		Conn:        wsconn.DefaultConfig(),
	}, logger)
	server := &http.Server{Addr: fmt.Sprintf("%s:%d", cfg.Host, cfg.Port), Handler: controller.GetMux()}

	// graceful shutdown
	serverCtx, serverStopCtx := context.WithCancel(ctx)
	defer serverStopCtx()

	go relayService.RunEviction(serverCtx)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer signal.Stop(sig)
	go func() {
		select {
		case <-sig:
		case <-serverCtx.Done():
		}

		shutdownCtx, c := context.WithTimeout(context.Background(), 30*time.Second)
		defer c()

		go func() {
			<-shutdownCtx.Done()
			if shutdownCtx.Err() == context.DeadlineExceeded {
				log.Fatal("graceful shutdown timed out.. forcing exit.")
			}
		}()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Fatal(err)
		}
		// hijacked websocket connections are not tracked by the server
		relayService.Shutdown(shutdownCtx)
		serverStopCtx()
	}()

	logger.InfoContext(serverCtx, "starting server", "address", server.Addr, "store", cfg.Store)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	<-serverCtx.Done()

	return nil
}
