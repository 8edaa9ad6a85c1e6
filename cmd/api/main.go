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

	"atgateway/internal/audit"
	"atgateway/internal/auth"
	"atgateway/internal/carrier"
	"atgateway/internal/config"
	"atgateway/internal/httpapi"
	"atgateway/internal/reply"
	"atgateway/pkg/logger"

	"github.com/gin-gonic/gin"
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

	log, err := logger.New(logger.Options{AppEnv: cfg.App.Env, SentryDSN: cfg.Sentry.DSN})
	if err != nil {
		slog.Error("logger init failed", "err", err)
		os.Exit(1)
	}
	slog.SetDefault(log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	if err := httpapi.RegisterValidators(); err != nil {
		log.Error("validator init failed", "err", err)
		os.Exit(1)
	}

	at := carrier.New(carrier.Options{
		Username:     cfg.Carrier.Username,
		APIKey:       cfg.Carrier.APIKey,
		Timeout:      cfg.Carrier.Timeout,
		VoiceRESTURL: cfg.Carrier.VoiceRESTURL,
	})
	wa := carrier.NewWhatsApp(carrier.WhatsAppOptions{
		APIURL:   cfg.WhatsApp.APIURL,
		Username: cfg.Carrier.Username,
		APIKey:   cfg.Carrier.APIKey,
		Sender:   cfg.WhatsApp.Sender,
	})

	replies, err := reply.New(rootCtx, reply.Options{
		Provider: cfg.AI.Provider,
		APIKey:   cfg.AI.APIKey,
		Model:    cfg.AI.Model,
	})
	if err != nil {
		log.Warn("reply generator unavailable, inbound sms will be acknowledged only", "err", err)
		replies = reply.Disabled{}
	}

	authManager, err := auth.NewManager(cfg.Auth)
	if err != nil {
		if !errors.Is(err, auth.ErrAuthDisabled) {
			log.Error("auth init failed", "err", err)
			os.Exit(1)
		}
		if cfg.IsProduction() {
			log.Warn("API_JWT_SECRET not set; outbound endpoints are unauthenticated")
		}
		authManager = nil
	}

	// Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))

	registerRoutes(r, deps{
		cfg:      cfg,
		carrier:  at,
		whatsapp: wa,
		replies:  replies,
		auth:     authManager,
		audit:    audit.NewService(audit.NewLogRepo(log)),
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      45 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening",
			"addr", srv.Addr,
			"env", cfg.App.Env,
			"username", cfg.Carrier.Username,
			"api_key", cfg.MaskedAPIKey(),
			"ai_provider", cfg.AI.Provider,
			"whatsapp", wa.Configured(),
			"ussd_airtime", cfg.USSDAirtimeEnabled(),
			"auth", authManager != nil,
		)
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
