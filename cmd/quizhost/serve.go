package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"quizhost/internal/database"
	"quizhost/internal/gateway"
	"quizhost/internal/persistence"
	"quizhost/internal/quizstore"
)

// Serve wires the database pool, runs migrations, and starts the
// gateway's HTTP server, blocking until the context is cancelled
// (SIGINT/SIGTERM) and the HTTP shutdown finishes or the shutdown
// window runs out, whichever comes first.
func Serve(ctx context.Context, cfg *Config) error {
	if err := database.RunMigrations(ctx, cfg.databaseURL); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	db, err := database.New(ctx, cfg.databaseURL)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer db.Close()

	adapter := persistence.NewPgAdapter(db.Pool())
	quizzes := quizstore.New(db.Pool())
	pins := gateway.NewPinIndex()
	dispatch := gateway.NewGameDispatch(adapter, pins)

	sweepStop := make(chan struct{})
	go pins.Sweep(sweepStop)
	defer close(sweepStop)

	if err := rehydrateActiveGames(ctx, adapter, dispatch); err != nil {
		log.Printf("warning: failed to rehydrate active games: %v", err)
	}

	gwServer := gateway.NewServer(db, adapter, quizzes, dispatch, pins, []string{cfg.corsOrigin})

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.bind, cfg.port),
		Handler:      gwServer.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Printf("quizhost listening on %s", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErr <- err
		}
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	log.Println("shutdown signal received, draining games")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.shutdownWindow)
	defer cancel()

	dispatch.StopAll()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("http server forced to shutdown: %v", err)
	}
	log.Println("graceful shutdown complete")
	return nil
}

// rehydrateActiveGames restarts a Coordinator for every game that
// wasn't finished when the process last stopped, so reconnecting
// clients find their game already running instead of paying the
// first-connect load cost mid-reconnect storm.
func rehydrateActiveGames(ctx context.Context, adapter *persistence.PgAdapter, dispatch *gateway.GameDispatch) error {
	ids, err := adapter.LoadAllActive(ctx)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if _, err := dispatch.GetOrCreate(id); err != nil {
			log.Printf("warning: failed to rehydrate game %s: %v", id, err)
		}
	}
	return nil
}
