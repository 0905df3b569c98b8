package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/diagnosis/numerology-appointments/internal/http/router"
	"github.com/diagnosis/numerology-appointments/internal/meeting"
	"github.com/diagnosis/numerology-appointments/internal/metrics"
	"github.com/diagnosis/numerology-appointments/internal/notify"
	"github.com/diagnosis/numerology-appointments/internal/platform/mailer"
	"github.com/diagnosis/numerology-appointments/pkg/config"
	"github.com/diagnosis/numerology-appointments/pkg/database"
	"github.com/diagnosis/numerology-appointments/pkg/events"
	"github.com/diagnosis/numerology-appointments/pkg/logger"
	mw "github.com/diagnosis/numerology-appointments/pkg/middleware"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	transport, err := mailer.New(cfg.Email)
	if err != nil {
		logger.Error("Failed to configure mail transport", "error", err)
		os.Exit(1)
	}

	meetings, err := meeting.NewStaticProvider(cfg.Gateway.MeetingURL)
	if err != nil {
		logger.Error("Invalid MEETING_URL", "error", err)
		os.Exit(1)
	}

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.NATS.URL != "" {
		bus, err := events.NewNATSEventBus(cfg.NATS.URL)
		if err != nil {
			logger.Warn("NATS unavailable, booking events disabled", "error", err)
		} else {
			publisher = bus
		}
	}
	defer publisher.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	gateway := notify.NewGateway(notify.Config{
		From:             cfg.Email.From,
		AdminEmail:       cfg.Gateway.AdminEmail,
		ConsultantName:   cfg.Gateway.ConsultantName,
		ConsultantPhones: cfg.Gateway.ConsultantPhones,
		SendTimeout:      cfg.Gateway.MailSendTimeout,
	}, transport, meetings, publisher, metrics.NewBookingMetrics(reg))

	deps := router.Deps{
		Notifier:       gateway,
		AllowedOrigins: cfg.Gateway.AllowedOrigins,
		JWTSecret:      cfg.Auth.JWTSecret,
		Gatherer:       reg,
	}

	if cfg.Redis.URL != "" {
		rdb, err := database.ConnectRedis(ctx, cfg.Redis.URL)
		if err != nil {
			logger.Warn("Redis unavailable, idempotency and rate limiting disabled", "error", err)
		} else {
			defer rdb.Close()
			deps.Idempotency = mw.NewRedisIdempotencyStore(rdb)
			if cfg.RateLimit.Requests > 0 {
				deps.RateLimiter = mw.NewRateLimiter(rdb, cfg.RateLimit.Requests, cfg.RateLimit.Window)
			}
		}
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router.New(deps),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down appointment server...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
	}()

	logger.Info("Starting appointment server",
		"port", cfg.Server.Port,
		"email_provider", cfg.Email.Provider,
		"allowed_origins", cfg.Gateway.AllowedOrigins,
	)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}
}
