package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/onexay/travis-notify/internal/config"
	"github.com/onexay/travis-notify/internal/httpserver"
	"github.com/onexay/travis-notify/internal/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := logging.New("travis-notify")
	srv, err := httpserver.NewServer(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("failed to initialize server: %v", err)
	}

	if err := srv.Run(ctx); err != nil {
		log.Fatalf("server terminated: %v", err)
	}
}
