package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/WoushouW/woushBOT/internal/api"
	"github.com/WoushouW/woushBOT/internal/auth"
	"github.com/WoushouW/woushBOT/internal/botapi"
	"github.com/WoushouW/woushBOT/internal/config"
	"github.com/WoushouW/woushBOT/internal/database"
	"github.com/WoushouW/woushBOT/internal/gateway"
	"github.com/WoushouW/woushBOT/internal/logging"
	redisclient "github.com/WoushouW/woushBOT/internal/redis"
	"github.com/WoushouW/woushBOT/internal/render"
	"github.com/WoushouW/woushBOT/internal/service"
	"github.com/WoushouW/woushBOT/internal/state"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	logger, logCloser, err := logging.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		slog.Error("logging setup failed", "error", err)
		os.Exit(1)
	}
	defer logCloser.Close()
	slog.SetDefault(logger)

	// --- Infrastructure ---

	rdb, err := redisclient.NewClient(cfg.RedisURL)
	if err != nil {
		fatal("redis", err)
	}
	defer rdb.Close()

	var auditRepo database.AuditRepository
	if cfg.DatabaseURL != "" {
		pool, err := database.NewPostgresPool(ctx, cfg.DatabaseURL)
		if err != nil {
			fatal("postgres", err)
		}
		defer pool.Close()
		auditRepo = database.NewAuditRepository(pool)
		slog.Info("audit log stored in postgres")
	} else {
		auditRepo = database.NewMemoryAuditRepository(cfg.AuditMemorySize)
		slog.Info("DATABASE_URL not set, audit log kept in memory", "entries", cfg.AuditMemorySize)
	}

	bot := botapi.New(cfg.BotAPIURL, cfg.RequestTimeout, botapi.WithRetry(cfg.BotRetries, cfg.BotRetryDelay))
	tokens := auth.NewTokenService(cfg.SessionSecret)

	renderer, err := render.New()
	if err != nil {
		fatal("templates", err)
	}

	// --- Services ---

	audit := service.NewAuditService(auditRepo)
	sessions := service.NewSessionService(bot, rdb, cfg.SessionTTL, cfg.RefreshInterval)
	refresher := state.NewRefresher(bot, rdb, cfg.RefreshInterval, cfg.SessionTTL)
	guilds := service.NewGuildService(bot, audit)
	channels := service.NewChannelService(bot, audit)
	moderation := service.NewModerationService(bot, audit)
	reactions := service.NewReactionRoleService(bot, audit)
	rooms := service.NewTempRoomService(bot, audit)
	feeds := service.NewFeedService(bot, audit)

	// --- Live updates ---

	hub := gateway.NewManager()
	poller := gateway.NewPoller(hub, sessions, refresher, feeds, renderer, audit, gateway.PollerConfig{
		Tick:          cfg.PollTick,
		RetentionDays: cfg.AuditRetentionDays,
	})

	// --- Handlers ---

	guard := auth.NewGuard(tokens, rdb, cfg.CookieSecure)
	views := api.NewViews(sessions, refresher, guilds, guard, renderer)

	deps := &api.Dependencies{
		Views:       views,
		Auth:        api.NewAuthHandler(views, sessions, guard),
		Guilds:      api.NewGuildHandler(views, guilds, feeds, refresher),
		Members:     api.NewMemberHandler(views, guilds, moderation),
		Roles:       api.NewRoleHandler(views, guilds),
		Channels:    api.NewChannelHandler(views, channels),
		Messages:    api.NewMessageHandler(views, channels),
		Moderation:  api.NewModerationHandler(views, moderation, guilds, channels),
		Reactions:   api.NewReactionHandler(views, reactions, guilds, channels),
		TempRooms:   api.NewTempRoomHandler(views, rooms, channels),
		Feeds:       api.NewFeedHandler(views, feeds, channels, audit),
		Gateway:     hub,
		Guard:       guard,
		Redis:       rdb,
		LoginLimit:  cfg.LoginRateLimit,
		ActionLimit: cfg.ActionRateLimit,
	}

	// --- Echo ---

	e := echo.New()
	e.HidePort = true
	e.HideBanner = true
	e.Renderer = renderer
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{"method", v.Method, "uri", v.URI, "status", v.Status, "latency", v.Latency}
			if v.Error != nil {
				slog.Warn("request", append(attrs, "error", v.Error)...)
				return nil
			}
			slog.Debug("request", attrs...)
			return nil
		},
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		XFrameOptions:      "DENY",
		ContentTypeNosniff: "nosniff",
		ReferrerPolicy:     "same-origin",
	}))

	api.SetupRouter(e, deps)

	if err := poller.Start(); err != nil {
		fatal("poller", err)
	}

	// --- Start ---

	sigCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("moderation panel starting", "addr", cfg.ServerAddr, "bot", cfg.BotAPIURL)
		if err := e.Start(cfg.ServerAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal("server", err)
		}
	}()

	<-sigCtx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	poller.Stop(shutdownCtx)
	hub.CloseAll()
	if err := e.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
}

func fatal(what string, err error) {
	slog.Error(what+" setup failed", "error", err)
	os.Exit(1)
}
