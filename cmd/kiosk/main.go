package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/promo-claim/internal/app"
	"github.com/promo-claim/internal/application/photo"
	"github.com/promo-claim/internal/application/registration"
	"github.com/promo-claim/internal/application/result"
	"github.com/promo-claim/internal/config"
	jwtinfra "github.com/promo-claim/internal/infrastructure/jwt"
	transporthttp "github.com/promo-claim/internal/transport/http"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg := config.Load()
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: app.ParseLevel(cfg.LogLevel)})))

	rootCtx, cancelRoot := context.WithCancel(context.Background())
	defer cancelRoot()

	recovery, err := app.NewRecoveryStore(rootCtx, cfg)
	if err != nil {
		log.Fatalf("recovery store: %v", err)
	}

	previews := photo.NewMemoryPreviews()
	flowDeps, err := app.FlowDeps(rootCtx, cfg, previews, recovery)
	if err != nil {
		log.Fatalf("flow dependencies: %v", err)
	}

	if cfg.HandoffSecret == "" {
		slog.Warn("HANDOFF_SECRET not set, result links will not survive a restart")
	}
	handoff, err := jwtinfra.NewProvider(cfg.HandoffSecret, cfg.HandoffTTL)
	if err != nil {
		log.Fatalf("handoff provider: %v", err)
	}

	deps := &transporthttp.Deps{
		Forms:    registration.NewRegistry(rootCtx, flowDeps, cfg.FormTTL),
		Previews: previews,
		Results:  result.NewService(recovery),
		Handoff:  handoff,
	}

	router := transporthttp.NewRouter(rootCtx, cfg, deps)

	// WriteTimeout covers a full submit: upload plus the bounded claim call.
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 2*time.Minute + cfg.ClaimTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Kiosk starting on :%s (env=%s, campaign=%s)", cfg.AppPort, cfg.AppEnv, cfg.CampaignID)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("forced shutdown: %v", err)
	}
	cancelRoot()
	log.Println("Server stopped")
}
