package app

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/watchparty/server/internal/controller"
	"github.com/watchparty/server/internal/repository/connection/inmemory"
	"github.com/watchparty/server/internal/repository/room/redis"
	"github.com/watchparty/server/internal/repository/wssender"
	"github.com/watchparty/server/internal/service/room"
	"github.com/watchparty/server/pkg/ctxlogger"
	"github.com/watchparty/server/pkg/redisclient"
)

const roomExpiration = 24 * 14 * time.Hour

type AppConfig struct {
	Secret                string  `json:"-"`
	Host                  string  `json:"host"`
	Port                  int     `json:"port"`
	LogLevel              string  `json:"log_level"`
	LogPath               string  `json:"log_path"`
	MembersLimit          int     `json:"members_limit"`
	ContentLimit          int     `json:"content_limit"`
	MessagesLimit         int     `json:"messages_limit"`
	HeartbeatInterval     int     `json:"heartbeat_interval"`
	DriftThresholdSeconds float64 `json:"drift_threshold_seconds"`
	MessageRateLimit      int     `json:"message_rate_limit"`
	StartPolicy           string  `json:"start_policy"`
	RedisPort             int     `json:"redis_port"`
	RedisHost             string  `json:"redis_host"`
	RedisPassword         string  `json:"-"`
}

func (cfg *AppConfig) Validate() error {
	if cfg.Secret == "" {
		return fmt.Errorf("secret must be set")
	}
	if cfg.MembersLimit < 1 {
		return fmt.Errorf("members limit must be greater than 0")
	}
	if cfg.ContentLimit < 1 {
		return fmt.Errorf("content limit must be greater than 0")
	}
	if cfg.MessagesLimit < 1 {
		return fmt.Errorf("messages limit must be greater than 0")
	}
	if cfg.HeartbeatInterval < 1 {
		return fmt.Errorf("heartbeat interval must be greater than 0")
	}
	if cfg.DriftThresholdSeconds <= 0 {
		return fmt.Errorf("drift threshold must be greater than 0")
	}
	policy := room.StartPolicy(cfg.StartPolicy)
	if policy != room.StartPolicyManual && policy != room.StartPolicyScheduled {
		return fmt.Errorf("start policy must be %q or %q", room.StartPolicyManual, room.StartPolicyScheduled)
	}
	return nil
}

func Run(ctx context.Context, cfg *AppConfig) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logLevel := slog.LevelInfo
	if err := logLevel.UnmarshalText([]byte(strings.ToUpper(cfg.LogLevel))); err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}

	var logOutput io.Writer = os.Stdout
	if cfg.LogPath != "" {
		logFile, err := os.OpenFile(cfg.LogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		defer logFile.Close()
		logOutput = logFile
	}

	h := ctxlogger.ContextHandler{
		Handler: slog.NewJSONHandler(logOutput, &slog.HandlerOptions{
			Level:     logLevel,
			AddSource: true,
		}),
	}
	logger := slog.New(&h)

	rc, err := redisclient.NewRedisClient(&redisclient.Config{
		Port:     cfg.RedisPort,
		Host:     cfg.RedisHost,
		Password: cfg.RedisPassword,
	})
	if err != nil {
		return fmt.Errorf("failed to create redis client: %w", err)
	}
	defer rc.Close()

	roomRepo := redis.NewRepo(rc, roomExpiration)
	connectionRepo := inmemory.NewRepo()
	sender := wssender.NewSender()
	roomService := room.NewService(roomRepo, connectionRepo, sender, clockwork.NewRealClock(), logger, &room.Config{
		Secret:                cfg.Secret,
		MembersLimit:          cfg.MembersLimit,
		ContentLimit:          cfg.ContentLimit,
		MessagesLimit:         cfg.MessagesLimit,
		HeartbeatInterval:     time.Duration(cfg.HeartbeatInterval) * time.Second,
		DriftThresholdSeconds: cfg.DriftThresholdSeconds,
		MessageRateLimit:      time.Duration(cfg.MessageRateLimit) * time.Second,
		StartPolicy:           room.StartPolicy(cfg.StartPolicy),
	})
	defer roomService.Close()

	ctrl := controller.NewController(roomService, sender, logger)
	server := &http.Server{Addr: fmt.Sprintf("%s:%d", cfg.Host, cfg.Port), Handler: ctrl.Mux()}

	// graceful shutdown
	serverCtx, serverStopCtx := context.WithCancel(ctx)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		<-sig

		shutdownCtx, c := context.WithTimeout(serverCtx, 30*time.Second)
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
		serverStopCtx()
	}()

	logger.InfoContext(serverCtx, "starting server", "address", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	<-serverCtx.Done()

	return nil
}
