package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/vncsmyrnk/blindpoll/internal/adapters/prompt"
	"github.com/vncsmyrnk/blindpoll/internal/app"
	"github.com/vncsmyrnk/blindpoll/internal/config"
	"github.com/vncsmyrnk/blindpoll/pkg/logger"
)

func main() {
	cfg, err := config.New()
	if err != nil {
		log.Fatal(err)
	}

	l, err := logger.New("server", cfg.LogLevel)
	if err != nil {
		log.Fatal(err)
	}
	defer l.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	alerts := prompt.NewQueue(true)
	a, err := app.New(ctx, cfg, alerts, l)
	if err != nil {
		l.Fatal("failed to build voter session", zap.Error(err))
	}
	defer a.Close()

	if err := a.Voter.Start(ctx); err != nil {
		l.Error("failed to load open questions", zap.Error(err))
	}

	if err := a.Serve(ctx, cfg.ListenAddr, alerts); err != nil {
		l.Fatal("voter API stopped", zap.Error(err))
	}
}
