package app

import (
	"context"
	"fmt"
	"time"

	"github.com/ArenaX-Network/arena_layer/internal/app/domain/competition"
	"github.com/ArenaX-Network/arena_layer/internal/app/services/auth"
	"github.com/ArenaX-Network/arena_layer/internal/app/services/competitions"
	"github.com/ArenaX-Network/arena_layer/internal/app/services/perpsmon"
	"github.com/ArenaX-Network/arena_layer/internal/app/services/pricing"
	"github.com/ArenaX-Network/arena_layer/internal/app/services/trading"
	"github.com/ArenaX-Network/arena_layer/internal/app/storage"
	"github.com/ArenaX-Network/arena_layer/internal/app/storage/memory"
	"github.com/ArenaX-Network/arena_layer/internal/app/system"
	"github.com/ArenaX-Network/arena_layer/internal/cache"
	"github.com/ArenaX-Network/arena_layer/pkg/logger"
)

// Stores encapsulates persistence dependencies. Nil stores default to the
// in-memory implementation.
type Stores struct {
	Users        storage.UserStore
	Sessions     storage.SessionStore
	Agents       storage.AgentStore
	Competitions storage.CompetitionStore
	Trades       storage.TradeStore
	Balances     storage.BalanceStore
	Perps        storage.PerpsStore
}

// Options carries the non-store dependencies of the application.
type Options struct {
	Cache         cache.Cache
	PriceSource   pricing.Source
	PerpsProvider perpsmon.Provider
	Archiver      competitions.Archiver
	JWTSecret     string
	SessionTTL    time.Duration
	DefaultRules  competition.Rules
	PerpsSchedule string
}

// Application ties domain services together and manages their lifecycle.
type Application struct {
	manager *system.Manager
	log     *logger.Logger

	Auth         *auth.Service
	Competitions *competitions.Service
	Trading      *trading.Service
	Pricing      *pricing.Service
	Perps        *perpsmon.Service
}

// New builds a fully initialised application with the provided stores.
func New(stores Stores, opts Options, log *logger.Logger) (*Application, error) {
	if log == nil {
		log = logger.NewDefault("app")
	}
	if opts.JWTSecret == "" {
		return nil, fmt.Errorf("a JWT secret is required")
	}

	mem := memory.New()
	if stores.Users == nil {
		stores.Users = mem
	}
	if stores.Sessions == nil {
		stores.Sessions = mem
	}
	if stores.Agents == nil {
		stores.Agents = mem
	}
	if stores.Competitions == nil {
		stores.Competitions = mem
	}
	if stores.Trades == nil {
		stores.Trades = mem
	}
	if stores.Balances == nil {
		stores.Balances = mem
	}
	if stores.Perps == nil {
		stores.Perps = mem
	}

	if opts.Cache == nil {
		opts.Cache = cache.NewMemory()
	}
	if opts.PriceSource == nil {
		log.Warn("no price source configured; using the sandbox price table")
		opts.PriceSource = pricing.StaticSource(pricing.SandboxPrices())
	}

	manager := system.NewManager()

	pricingService := pricing.New(opts.PriceSource, opts.Cache, log)
	authService := auth.New(stores.Users, stores.Sessions, stores.Agents, opts.JWTSecret, opts.SessionTTL, log)
	competitionsService := competitions.New(stores.Competitions, stores.Agents, stores.Balances, pricingService, opts.Cache, opts.DefaultRules, log)
	if opts.Archiver != nil {
		competitionsService.SetArchiver(opts.Archiver)
	}
	tradingService := trading.New(stores.Competitions, stores.Trades, stores.Balances, pricingService, log)

	var perpsService *perpsmon.Service
	if opts.PerpsProvider != nil {
		perpsService = perpsmon.New(stores.Perps, stores.Competitions, stores.Agents, opts.PerpsProvider, log)
		monitor := perpsmon.NewMonitor(perpsService, stores.Competitions, opts.PerpsSchedule, log)
		if err := manager.Register(monitor); err != nil {
			return nil, fmt.Errorf("register perps monitor: %w", err)
		}
	} else {
		log.Warn("no perps provider configured; position monitoring disabled")
	}

	for _, name := range []string{"auth", "competitions", "trading", "pricing"} {
		if err := manager.Register(system.NoopService{ServiceName: name}); err != nil {
			return nil, fmt.Errorf("register %s service: %w", name, err)
		}
	}

	return &Application{
		manager:      manager,
		log:          log,
		Auth:         authService,
		Competitions: competitionsService,
		Trading:      tradingService,
		Pricing:      pricingService,
		Perps:        perpsService,
	}, nil
}

// Attach registers an additional lifecycle-managed service. Call before Start.
func (a *Application) Attach(service system.Service) error {
	return a.manager.Register(service)
}

// Start begins all registered services.
func (a *Application) Start(ctx context.Context) error {
	return a.manager.Start(ctx)
}

// Stop stops all services.
func (a *Application) Stop(ctx context.Context) error {
	return a.manager.Stop(ctx)
}
