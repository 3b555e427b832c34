package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Joseph14078/JoAuth/config"
	"github.com/Joseph14078/JoAuth/internal/app"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configPath := config.CONFIG_PATH
	if p := os.Getenv("JOAUTH_CONFIG_PATH"); p != "" {
		configPath = p
	}

	app, err := app.NewApp(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runErr := make(chan error, 1)
	go func() { runErr <- app.Run() }()

	select {
	case err := <-runErr:
		if err != nil {
			app.Logger.Error("Server stopped", "error", err)
		}
	case <-ctx.Done():
		app.Logger.Info("Received shutdown signal")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := app.Shutdown(shutdownCtx); err != nil {
		fmt.Fprintf(os.Stderr, "shutdown: %v\n", err)
		os.Exit(1)
	}
}
