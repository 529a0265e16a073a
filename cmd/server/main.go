package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kiwari-pos/bar/internal/catalog"
	"github.com/kiwari-pos/bar/internal/config"
	"github.com/kiwari-pos/bar/internal/enum"
	"github.com/kiwari-pos/bar/internal/ledger"
	"github.com/kiwari-pos/bar/internal/router"
	"github.com/kiwari-pos/bar/internal/service"
	"github.com/kiwari-pos/bar/internal/ws"
)

func main() {
	cfg := config.Load()
	loc := cfg.Location()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Menu
	cat := catalog.Default()
	if cfg.MenuPath != "" {
		var err error
		cat, err = catalog.Load(cfg.MenuPath)
		if err != nil {
			log.Fatalf("Unable to load menu: %v", err)
		}
		log.Printf("Loaded menu from %s (%d entries)", cfg.MenuPath, len(cat.Entries()))
	}

	// Ledger
	if cfg.LedgerBackend == enum.LedgerBackendPostgres {
		if err := ledger.Migrate(cfg.MigrationsPath, cfg.DatabaseURL); err != nil {
			log.Fatalf("Unable to migrate database: %v", err)
		}
	}
	store, closeStore, err := ledger.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("Unable to open %s ledger: %v", cfg.LedgerBackend, err)
	}
	defer closeStore()
	log.Printf("Using %s ledger", cfg.LedgerBackend)

	// Live dashboard feed
	hub := ws.NewHub()
	go hub.Run(ctx)

	registry := service.NewRegistry(cat, store, service.WithClock(func() time.Time {
		return time.Now().In(loc)
	}))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           router.New(cfg, registry, hub),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Starting server on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("ERROR: server: %v", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("ERROR: forced shutdown: %v", err)
	}
	log.Println("Server stopped")
}
