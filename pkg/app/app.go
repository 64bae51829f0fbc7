package app

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/amirasaad/ledger/pkg/config"
	"github.com/amirasaad/ledger/pkg/eventbus"
	"github.com/amirasaad/ledger/pkg/repository"
	"github.com/amirasaad/ledger/pkg/service/ledger"
)

// Deps contains the infrastructure the application is assembled from.
type Deps struct {
	Uow      repository.UnitOfWork
	EventBus eventbus.Bus
	Logger   *slog.Logger
	// Closers are released by App.Close in reverse order.
	Closers []io.Closer
}

type App struct {
	Deps          *Deps
	Config        *config.App
	LedgerService *ledger.Service
}

func New(deps *Deps, cfg *config.App) (*App, error) {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	opts, err := ledgerOptions(cfg)
	if err != nil {
		return nil, err
	}
	app := &App{
		Deps:   deps,
		Config: cfg,
	}
	var publisher eventbus.Publisher
	if deps.EventBus != nil {
		publisher = deps.EventBus
		SetupBus(Dependencies{Bus: deps.EventBus, Logger: deps.Logger})
	}
	app.LedgerService = ledger.New(deps.Uow, publisher, deps.Logger, opts...)
	return app, nil
}

// RetryAttempts is how many times callers re-run an operation that lost a race.
func (a *App) RetryAttempts() int {
	if a.Config == nil || a.Config.Ledger == nil || a.Config.Ledger.RetryAttempts < 1 {
		return 1
	}
	return a.Config.Ledger.RetryAttempts
}

// Close releases infrastructure handles such as bus connections.
func (a *App) Close() error {
	var first error
	for i := len(a.Deps.Closers) - 1; i >= 0; i-- {
		if err := a.Deps.Closers[i].Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func ledgerOptions(cfg *config.App) ([]ledger.Option, error) {
	if cfg == nil || cfg.Ledger == nil {
		return nil, nil
	}
	loc, err := cfg.Ledger.Location()
	if err != nil {
		return nil, fmt.Errorf("ledger timezone: %w", err)
	}
	return []ledger.Option{
		ledger.WithLocation(loc),
		ledger.WithLimits(cfg.Ledger.DailyWithdrawLimit, cfg.Ledger.DailyTransferLimit),
	}, nil
}
