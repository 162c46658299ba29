/*
Package main is the entry point for the room chat server.

It loads configuration, initializes the global logger, wires the presence registry,
content policy and session coordinator into the HTTP router, and shuts everything down
gracefully on SIGINT or SIGTERM.
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/time/rate"

	"roomchat/internal/app/chat"
	"roomchat/internal/app/policy"
	"roomchat/internal/app/presence"
	"roomchat/internal/configs"
	"roomchat/internal/handler"
	"roomchat/internal/pkg/limiter"
	"roomchat/internal/pkg/logx"
)

func main() {
	cfg, err := configs.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logx.InitGlobalLogger(cfg.IsDevelopment())
	logx.Logger().Info().
		Str("environment", cfg.Environment).
		Int("port", cfg.Port).
		Strs("allowed_origins", cfg.AllowedOrigins).
		Int("extra_blocked_words", len(cfg.BlockedWords)).
		Msg("Configuration loaded successfully")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	coordinator := chat.NewCoordinator(presence.NewRegistry(), policy.NewFilter(cfg.BlockedWords...))

	deps := &handler.AppDeps{
		Coordinator:    coordinator,
		Config:         cfg,
		ConnectLimiter: limiter.NewIPRateLimiter(ctx, rate.Limit(cfg.ConnectRate), cfg.ConnectBurst),
	}

	serverAddr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:              serverAddr,
		Handler:           handler.Router(deps),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logx.Info(fmt.Sprintf("Chat server starting on http://localhost%s", serverAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logx.Fatal(err, "Server failed to start")
		}
	}()

	<-ctx.Done()
	logx.Info("Received shutdown signal. Starting graceful shutdown...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	// Stop accepting HTTP first; upgraded connections are not tracked by the server.
	if err := server.Shutdown(shutdownCtx); err != nil {
		logx.Error(err, "HTTP server forced to shutdown")
	}

	if err := coordinator.Shutdown(shutdownCtx); err != nil {
		logx.Error(err, "Some connections did not close in time")
	}

	logx.Info("Server gracefully stopped.")
}
