package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jeffreasy/agenda-dashboard/internal/api"
	"github.com/jeffreasy/agenda-dashboard/internal/cache"
	"github.com/jeffreasy/agenda-dashboard/internal/config"
	httpserver "github.com/jeffreasy/agenda-dashboard/internal/http"
	"github.com/jeffreasy/agenda-dashboard/internal/metrics"
	"github.com/jeffreasy/agenda-dashboard/internal/resource"
	"github.com/jeffreasy/agenda-dashboard/internal/session"
	"github.com/jeffreasy/agenda-dashboard/internal/token"
)

func main() {
	log.Println("Starting Agenda Dashboard...")
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tokens, err := token.Open(cfg.StateDir)
	if err != nil {
		log.Fatalf("failed to open token store: %v", err)
	}
	snapshot := session.Open(cfg.StateDir)

	client := api.New(cfg.APIBaseURL,
		api.WithTokenSource(tokens),
		api.WithAuthFailureHook(func() {
			if err := tokens.Clear(); err != nil {
				log.Printf("[WARN] failed to clear rejected token: %v", err)
			}
		}),
		api.WithObserver(metrics.ObserveUpstream),
	)
	hooks := resource.New(client, cache.New())

	r := httpserver.NewRouter(cfg, hooks, tokens, snapshot)

	srv := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("dashboard listening on %s (backend %s)", cfg.ListenAddr, cfg.APIBaseURL)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}
}
