// Package main provides the main entry point for the Alchemorsel Kitchen API server
package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/alchemorsel/kitchen/internal/infrastructure/container"
	"go.uber.org/fx"
)

const stopTimeout = 30 * time.Second

func main() {
	app := fx.New(
		fx.NopLogger, // the application logs through zap
		container.Module,
		fx.StopTimeout(stopTimeout),
	)

	startCtx, cancel := context.WithTimeout(context.Background(), fx.DefaultTimeout)
	err := app.Start(startCtx)
	cancel()
	if err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	// Blocks until SIGINT/SIGTERM or a component requests shutdown
	signal := <-app.Wait()

	stopCtx, stopCancel := context.WithTimeout(context.Background(), stopTimeout)
	err = app.Stop(stopCtx)
	stopCancel()
	if err != nil {
		log.Printf("Failed to stop application gracefully: %v", err)
		os.Exit(1)
	}

	os.Exit(signal.ExitCode)
}
