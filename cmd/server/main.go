package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/Shavel-Viktoryia/collab-editor/internal/broadcast"
	"github.com/Shavel-Viktoryia/collab-editor/internal/config"
	"github.com/Shavel-Viktoryia/collab-editor/internal/dispatch"
	"github.com/Shavel-Viktoryia/collab-editor/internal/logger"
	"github.com/Shavel-Viktoryia/collab-editor/internal/session"
	"github.com/Shavel-Viktoryia/collab-editor/internal/transport"
)

func main() {
	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogFile)
	defer logger.Close()

	logger.Info("starting collab-editor server")
	logger.Info("port: %s", cfg.Port)

	sessions := session.New()
	hub := broadcast.New(cfg.BroadcastBufferSize)

	var caster broadcast.Broadcaster = hub
	if cfg.RedisAddr != "" {
		logger.Info("redis broadcaster: %s", cfg.RedisAddr)
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		caster = broadcast.NewRedis(hub, rdb, uuid.NewString())
	} else {
		logger.Info("redis broadcaster: disabled (single-process)")
	}

	dispatcher := dispatch.New(sessions, caster)
	srv := transport.New(sessions, dispatcher, hub)

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Port),
		Handler: srv,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("shutting down...")
		cancel()
		dispatcher.Close()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed: %v", err)
		}
	}()

	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server error: %v", err)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("server stopped")
}
