package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rumor-ml/commons.systems/fintrack/internal/config"
	"github.com/rumor-ml/commons.systems/fintrack/internal/server"
)

func main() {
	cfg := config.Load()

	ctx := context.Background()

	// Log if using Firebase Auth Emulator
	if authEmulator := os.Getenv("FIREBASE_AUTH_EMULATOR_HOST"); authEmulator != "" {
		log.Printf("INFO: Using Firebase Auth Emulator at %s", authEmulator)
	}

	srv, err := server.New(ctx, server.Config{
		DBPath:          cfg.DBPath,
		ProjectID:       cfg.FirebaseProjectID,
		CredentialsFile: cfg.CredentialsFile,
	})
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}
	defer srv.Close()

	httpSrv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: srv.Handler(),
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		httpSrv.Shutdown(ctx)
	}()

	log.Printf("Server starting on port %s (db: %s)", cfg.Port, cfg.DBPath)
	if err := httpSrv.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
}
