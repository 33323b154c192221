package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dukepan/multi-rooms-chat-back/internal/admin"
	"github.com/dukepan/multi-rooms-chat-back/internal/audit"
	"github.com/dukepan/multi-rooms-chat-back/internal/auth"
	"github.com/dukepan/multi-rooms-chat-back/internal/cache"
	"github.com/dukepan/multi-rooms-chat-back/internal/config"
	"github.com/dukepan/multi-rooms-chat-back/internal/dispatch"
	"github.com/dukepan/multi-rooms-chat-back/internal/domain"
	"github.com/dukepan/multi-rooms-chat-back/internal/logging"
	"github.com/dukepan/multi-rooms-chat-back/internal/mailbox"
	"github.com/dukepan/multi-rooms-chat-back/internal/metrics"
	"github.com/dukepan/multi-rooms-chat-back/internal/middleware"
	"github.com/dukepan/multi-rooms-chat-back/internal/observability"
	"github.com/dukepan/multi-rooms-chat-back/internal/registry"
	"github.com/dukepan/multi-rooms-chat-back/internal/server"
	"github.com/dukepan/multi-rooms-chat-back/internal/wire"
)

func main() {
	ctx := context.Background()

	cfg := config.Load()
	logger := logging.NewLogger(cfg.LogLevel)

	otelCleanup, err := observability.InitOpenTelemetry("reactive-rooms", "1.0.0")
	if err != nil {
		logger.Error("failed to initialize opentelemetry", "err", err)
		os.Exit(1)
	}
	defer func() {
		if err := otelCleanup(context.Background()); err != nil {
			logger.Error("error shutting down opentelemetry", "err", err)
		}
	}()

	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(prometheus.NewGoCollector(), prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
	promMetrics := metrics.New(promRegistry)

	redisClient, err := cache.New(ctx, cfg.RedisURL)
	if err != nil {
		logger.Error("failed to initialize redis cache", "err", err)
		os.Exit(1)
	}

	var auditWriter *audit.Writer
	if cfg.DatabaseURL != "" {
		auditWriter, err = audit.New(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			logger.Error("failed to initialize audit writer", "err", err)
			os.Exit(1)
		}
		auditWriter.Start(ctx)
	}

	var verifier auth.Verifier
	if cfg.IdentityServerURL != "" {
		verifier, err = auth.NewJWKSVerifier(ctx, cfg.IdentityServerURL, cfg.IdentityAudience)
		if err != nil {
			logger.Error("failed to initialize jwks verifier", "err", err)
			os.Exit(1)
		}
	} else {
		verifier, err = auth.NewJWTVerifier(cfg.JWTRSAPublicKey)
		if err != nil {
			logger.Error("failed to initialize jwt verifier", "err", err)
			os.Exit(1)
		}
	}

	reg := registry.New()
	fabric := mailbox.New(promMetrics.OnMailboxDrop)

	var auditSink admin.AuditSink
	if auditWriter != nil {
		auditSink = auditWriter
	}

	adminHandlers := &admin.Handlers{
		Registry: reg,
		Fabric:   fabric,
		Logger:   logger,
		Audit:    auditSink,
	}

	dispatcher := &dispatch.Dispatcher{
		Registry: reg,
		Fabric:   fabric,
		Logger:   logger,
		OnHostEnd: func(roomID domain.RoomId, reason string) {
			promMetrics.TeardownsByReason.WithLabelValues("host", reason).Inc()
			if auditWriter != nil && reason != string(wire.ReasonRoomClosed) {
				auditWriter.RecordHostDisconnected(roomID, reason)
			}
		},
		OnUserEnd: func(roomID domain.RoomId, userID domain.UserId, reason string) {
			promMetrics.TeardownsByReason.WithLabelValues("user", reason).Inc()
		},
	}

	rateLimiter := middleware.NewRateLimiter(redisClient, cfg.RedisRateLimitMax, logger)

	router := server.NewRouter(adminHandlers, dispatcher, verifier, rateLimiter, promRegistry)

	httpServer := &http.Server{
		Addr:         cfg.Host + ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("starting server", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	gracefulShutdown(context.Background(), logger, httpServer, reg, fabric, auditWriter, otelCleanup)

	logger.Info("application stopped")
}

func gracefulShutdown(
	ctx context.Context,
	logger *slog.Logger,
	httpServer *http.Server,
	reg *registry.Registry,
	fabric *mailbox.Fabric,
	auditWriter *audit.Writer,
	otelCleanup func(context.Context) error,
) {
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	} else {
		logger.Info("http server stopped")
	}

	for _, roomID := range reg.AllRoomIDs() {
		users := reg.ClearRoomUsers(roomID)
		fabric.DisconnectRoomUsers(roomID, users, wire.ReasonRoomClosed)
		if room, ok := reg.GetRoom(roomID); ok {
			fabric.DisconnectHost(roomID, room.HostID, wire.ReasonRoomClosed)
		}
		reg.RemoveRoom(roomID)
	}
	logger.Info("rooms torn down")

	if auditWriter != nil {
		auditWriter.Stop()
		logger.Info("audit writer stopped")
	}

	if otelCleanup != nil {
		if err := otelCleanup(shutdownCtx); err != nil {
			logger.Error("opentelemetry shutdown error", "err", err)
		} else {
			logger.Info("opentelemetry shut down")
		}
	}

	logger.Info("graceful shutdown complete")
}
