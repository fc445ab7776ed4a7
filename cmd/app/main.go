package main

import (
	"context"

	"tempah/config"
	"tempah/di"
	"tempah/shared/logger"
)

func main() {
	cfg := config.Get()

	logger.InitLogger()

	logger.SetLogLevel(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	relay := di.InitializeRelay()
	go relay.Run(ctx)

	http := di.InitializeService()
	http.Serve()
}
