package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	handler "github.com/vncsmyrnk/blindpoll/internal/adapters/handler/http"
)

const shutdownTimeout = 30 * time.Second

// Handler builds the local voter API. Alerts raised by the services are
// held in alerts until a client reads the session.
func (a *App) Handler(alerts handler.AlertQueue) http.Handler {
	return handler.NewHandler(
		handler.NewBallotHandler(a.Voter),
		handler.NewReportHandler(a.Reports),
		handler.NewSessionHandler(a.Voter, alerts),
		promhttp.HandlerFor(a.Registry, promhttp.HandlerOpts{}),
	)
}

// Serve runs the local voter API on addr until ctx is done, then shuts down
// gracefully.
func (a *App) Serve(ctx context.Context, addr string, alerts handler.AlertQueue) error {
	server := &http.Server{Addr: addr, Handler: a.Handler(alerts)}

	errs := make(chan error, 1)
	go func() {
		a.l.Info("voter API listening", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- err
		}
		close(errs)
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}
	a.l.Info("gracefully shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errs
}
