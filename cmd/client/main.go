package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/sharetube/watchsync/internal/agent"
	"github.com/sharetube/watchsync/internal/domain"
	"github.com/sharetube/watchsync/internal/protocol"
	"github.com/sharetube/watchsync/internal/simplayer"
	"github.com/sharetube/watchsync/internal/wsclient"
	"github.com/sharetube/watchsync/pkg/ctxlogger"
)

type configVar[T any] struct {
	envKey       string
	flagKey      string
	defaultValue T
}

var (
	server = configVar[string]{
		envKey:       "CLIENT_SERVER",
		flagKey:      "server",
		defaultValue: "ws://localhost:3000/api/v1/ws",
	}
	room = configVar[string]{
		envKey:       "CLIENT_ROOM",
		flagKey:      "room",
		defaultValue: "",
	}
	page = configVar[string]{
		envKey:       "CLIENT_PAGE_URL",
		flagKey:      "page",
		defaultValue: "http://localhost:5173/",
	}
	logLevel = configVar[string]{
		envKey:       "CLIENT_LOG_LEVEL",
		flagKey:      "log-level",
		defaultValue: "WARN",
	}
)

type config struct {
	Server   string `json:"server"`
	Room     string `json:"room"`
	Page     string `json:"page"`
	LogLevel string `json:"log_level"`
}

func loadConfig() *config {
	pflag.String(server.flagKey, server.defaultValue, "Relay websocket URL")
	pflag.String(room.flagKey, room.defaultValue, "Room to join, overrides the page URL")
	pflag.String(page.flagKey, page.defaultValue, "Page URL, its room query parameter selects the room")
	pflag.String(logLevel.flagKey, logLevel.defaultValue, "Logging level")
	pflag.Parse()

	viper.BindPFlags(pflag.CommandLine)

	viper.BindEnv(server.flagKey, server.envKey)
	viper.BindEnv(room.flagKey, room.envKey)
	viper.BindEnv(page.flagKey, page.envKey)
	viper.BindEnv(logLevel.flagKey, logLevel.envKey)

	viper.SetDefault(server.flagKey, server.defaultValue)
	viper.SetDefault(room.flagKey, room.defaultValue)
	viper.SetDefault(page.flagKey, page.defaultValue)
	viper.SetDefault(logLevel.flagKey, logLevel.defaultValue)

	return &config{
		Server:   viper.GetString(server.flagKey),
		Room:     viper.GetString(room.flagKey),
		Page:     viper.GetString(page.flagKey),
		LogLevel: viper.GetString(logLevel.flagKey),
	}
}

func newLogger(level string) (*slog.Logger, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	// stdout is the interactive console
	h := ctxlogger.ContextHandler{
		Handler: slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
			Level:     l,
			AddSource: true,
		}),
	}
	return slog.New(&h), nil
}

func run(ctx context.Context, cfg *config) error {
	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}

	roomId := cfg.Room
	if roomId == "" {
		roomId, _, err = agent.ResolveRoomID(cfg.Page)
		if err != nil {
			return err
		}
	}

	client := wsclient.New(wsclient.DefaultConfig(cfg.Server), logger)
	syncAgent := agent.New(roomEmitter{client: client}, logger)

	client.On(protocol.EventVideoState, func(ctx context.Context, payload json.RawMessage) {
		var state domain.PlaybackState
		if err := json.Unmarshal(payload, &state); err != nil {
			logger.WarnContext(ctx, "invalid video state", "error", err)
			return
		}
		syncAgent.HandleVideoState(ctx, state)
	})
	client.On(protocol.EventError, func(ctx context.Context, payload json.RawMessage) {
		logger.WarnContext(ctx, "relay rejected a message", "payload", string(payload))
	})

	client.OnConnect(func(ctx context.Context) {
		logger.InfoContext(ctx, "joined room", "room_id", syncAgent.RoomID())
	})

	if err := syncAgent.Join(ctx, roomId); err != nil {
		return err
	}

	player := simplayer.New()
	player.OnStateChange(func(s domain.PlayerState) {
		if err := syncAgent.HandlePlayerStateChange(ctx, s); err != nil {
			logger.WarnContext(ctx, "failed to report player change", "error", err)
		}
	})
	syncAgent.AttachPlayer(ctx, player)

	link, err := agent.ShareLink(cfg.Page, roomId)
	if err != nil {
		return err
	}
	fmt.Printf("room %s, share %s\n", roomId, link)
	fmt.Println(usage)

	go func() {
		if err := client.Run(ctx); err != nil && ctx.Err() == nil {
			logger.ErrorContext(ctx, "client stopped", "error", err)
		}
	}()

	return newConsole(os.Stdin, os.Stdout, syncAgent, player, link).run(ctx)
}

func main() {
	// .env is optional
	_ = godotenv.Load()

	cfg := loadConfig()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil && ctx.Err() == nil {
		log.Fatal(err)
	}
}
