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

	"voca-platform/internal/agents"
	"voca-platform/internal/auth"
	"voca-platform/internal/calls"
	"voca-platform/internal/config"
	"voca-platform/internal/dialer"
	"voca-platform/internal/httpapi"
	"voca-platform/internal/leads"
	"voca-platform/internal/telephony"
	"voca-platform/internal/ultravox"
	"voca-platform/pkg/logger"
	"voca-platform/pkg/utils"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	authManager, err := auth.NewManager(cfg.Auth)
	if err != nil {
		log.Error("auth init failed", "err", err)
		os.Exit(1)
	}

	db, err := utils.OpenPostgres(rootCtx, "pgx", cfg.PostgresDSN(), utils.PostgresPoolConfig{})
	if err != nil {
		log.Error("postgres init failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	rdb, err := utils.OpenRedis(rootCtx, utils.RedisConfig{Addr: cfg.RedisAddr()})
	if err != nil {
		log.Error("redis init failed", "err", err)
		os.Exit(1)
	}
	defer rdb.Close()

	// Provider clients
	uv := ultravox.NewClient(cfg.Ultravox.APIKey, "")
	twilio := telephony.NewClient(cfg.Twilio.AccountSID, cfg.Twilio.AuthToken, "")

	// Stores and orchestration
	leadStore := leads.NewPGStore(db)
	agentStore := agents.NewPGStore(db)
	callStore := calls.NewPGStore(db)
	leadLocks := dialer.NewRedisLeadLocker(rdb, 0, log)

	svc := dialer.NewService(uv, callStore, leadStore, agentStore, leadLocks, dialer.Config{
		FromNumber:         cfg.Twilio.PhoneNumber,
		CallbackBaseURL:    cfg.Dialer.CallbackBaseURL,
		DefaultCountryCode: cfg.Dialer.DefaultCountryCode,
	}, log)

	h := httpapi.Handlers{
		Auth:          authManager,
		Dialer:        svc,
		Terminator:    telephony.NewTerminator(twilio, log),
		Provider:      uv,
		Calls:         callStore,
		Leads:         leadStore,
		WebhookSecret: cfg.Ultravox.WebhookSecret,
	}

	// Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))

	registerRoutes(r, h, auth.RequireAccessToken(authManager))

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}

	_ = logger.ShutdownFlush(shutdownCtx, 2*time.Second)
}
