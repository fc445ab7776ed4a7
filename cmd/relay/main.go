package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"tempah/config"
	"tempah/di"
	"tempah/shared/logger"
)

// Standalone outbox relay worker. Run several of these for throughput; the
// lease protocol keeps each partition on a single worker at a time.
func main() {
	cfg := config.Get()

	logger.InitLogger()

	logger.SetLogLevel(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-done
		cancel()
	}()

	relay := di.InitializeRelay()
	relay.Run(ctx)
}
