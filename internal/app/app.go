package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/vncsmyrnk/blindpoll/internal/adapters/authority/rest"
	"github.com/vncsmyrnk/blindpoll/internal/adapters/repository/badger"
	"github.com/vncsmyrnk/blindpoll/internal/adapters/repository/memory"
	"github.com/vncsmyrnk/blindpoll/internal/adapters/repository/postgres"
	"github.com/vncsmyrnk/blindpoll/internal/config"
	"github.com/vncsmyrnk/blindpoll/internal/core/ports"
	"github.com/vncsmyrnk/blindpoll/internal/core/services"
)

// App holds the wired services of one voter session.
type App struct {
	Config   *config.Config
	Registry *prometheus.Registry
	Session  *services.Session
	Voter    ports.VoterService
	Reports  ports.ReportService

	l      *zap.Logger
	closer func() error
}

func New(ctx context.Context, cfg *config.Config, prompter ports.Prompter, l *zap.Logger) (*App, error) {
	identity, err := voterIdentity(cfg)
	if err != nil {
		return nil, err
	}

	store, closer, err := openStore(ctx, cfg, l)
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	metrics := services.NewMetrics(registry)

	authority := rest.New(cfg.AuthorityURL, cfg.AuthorityToken, cfg.AuthorityTimeout, l)
	session := services.NewSession(identity, metrics, l)
	voter := services.NewVoterService(services.VoterConfig{
		Authority:        authority,
		Store:            store,
		Prompter:         prompter,
		Session:          session,
		Metrics:          metrics,
		RankedSubmission: services.RankedSubmission(cfg.RankedSubmission),
	}, l)

	l.Info("voter session ready",
		zap.String("session_id", session.ID.String()),
		zap.String("identity", identity),
		zap.String("store", cfg.StoreDriver))

	return &App{
		Config:   cfg,
		Registry: registry,
		Session:  session,
		Voter:    voter,
		Reports:  services.NewReportService(authority, l),
		l:        l,
		closer:   closer,
	}, nil
}

func (a *App) Close() error {
	if a.closer == nil {
		return nil
	}
	return a.closer()
}

// voterIdentity names the storage namespace: VOTER_IDENTITY when set,
// otherwise the subject of the bearer token.
func voterIdentity(cfg *config.Config) (string, error) {
	if cfg.VoterIdentity != "" {
		return cfg.VoterIdentity, nil
	}
	if cfg.AuthorityToken == "" {
		return "", errors.New("either VOTER_IDENTITY or AUTHORITY_TOKEN must be set")
	}
	identity, err := rest.IdentityFromToken(cfg.AuthorityToken)
	if err != nil {
		return "", fmt.Errorf("failed to read voter identity: %w", err)
	}
	return identity, nil
}

func openStore(ctx context.Context, cfg *config.Config, l *zap.Logger) (ports.NamespaceStore, func() error, error) {
	switch cfg.StoreDriver {
	case "memory":
		return memory.NewNamespaceStore(), nil, nil
	case "badger":
		store, err := badger.New(cfg.BadgerDir, l)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	case "postgres":
		p := cfg.Postgres
		db, err := postgres.Open(ctx, postgres.ConnString(p.Host, p.Port, p.User, p.Password, p.DB))
		if err != nil {
			return nil, nil, err
		}
		return postgres.NewNamespaceStore(db), db.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}
