// Command gateway runs the trading-competition HTTP API.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/ArenaX-Network/arena_layer/infrastructure/chain"
	"github.com/ArenaX-Network/arena_layer/internal/app"
	"github.com/ArenaX-Network/arena_layer/internal/app/httpapi"
	"github.com/ArenaX-Network/arena_layer/internal/app/services/competitions"
	"github.com/ArenaX-Network/arena_layer/internal/app/services/perpsmon"
	"github.com/ArenaX-Network/arena_layer/internal/app/storage/postgres"
	"github.com/ArenaX-Network/arena_layer/internal/cache"
	"github.com/ArenaX-Network/arena_layer/internal/config"
	"github.com/ArenaX-Network/arena_layer/internal/database"
	"github.com/ArenaX-Network/arena_layer/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.NewDefault("gateway").WithError(err).Fatal("load configuration")
	}
	log := logger.New("gateway", logger.Options{Level: cfg.Log.Level, JSON: cfg.Log.JSON})

	if err := run(cfg, log); err != nil {
		log.WithError(err).Fatal("gateway exited")
	}
}

func run(cfg *config.Config, log *logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stores := app.Stores{}
	if cfg.Database.URL != "" {
		if err := database.Migrate(cfg.Database.URL); err != nil {
			return err
		}
		store, err := postgres.Open(cfg.Database.URL)
		if err != nil {
			return err
		}
		stores = app.Stores{
			Users:        store,
			Sessions:     store,
			Agents:       store,
			Competitions: store,
			Trades:       store,
			Balances:     store,
			Perps:        store,
		}
		log.Info("using postgres storage")
	} else {
		log.Warn("DATABASE_URL not set; using in-memory storage")
	}

	var c cache.Cache
	if cfg.Redis.Addr != "" {
		redis, err := cache.NewRedis(ctx, cfg.Redis.Addr, cfg.Redis.Password, "arena")
		if err != nil {
			return err
		}
		defer redis.Close()
		c = redis
		log.Info("using redis cache")
	}

	var provider perpsmon.Provider
	if cfg.Perps.ProviderURL != "" {
		provider = &perpsmon.HTTPProvider{BaseURL: cfg.Perps.ProviderURL, APIKey: cfg.Perps.ProviderKey}
	}

	archiver, err := buildArchiver(ctx, cfg, log)
	if err != nil {
		return err
	}

	constraints := config.LoadConstraintsConfigOrDefault(cfg.ConstraintsPath)

	application, err := app.New(stores, app.Options{
		Cache:         c,
		PerpsProvider: provider,
		Archiver:      archiver,
		JWTSecret:     cfg.Auth.JWTSecret,
		SessionTTL:    cfg.Auth.SessionTTL,
		DefaultRules:  constraints.Defaults,
		PerpsSchedule: cfg.Perps.SyncSchedule,
	}, log)
	if err != nil {
		return err
	}
	if err := application.Start(ctx); err != nil {
		return err
	}

	handler := httpapi.NewHandler(application, httpapi.Options{
		CORSOrigins:     cfg.HTTP.AllowedOrigins,
		RateLimitPerSec: cfg.RateLimitPerSec,
		RateLimitBurst:  cfg.RateLimitBurst,
	}, log)

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", cfg.HTTP.Addr).Info("http server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	return shutdown(cfg, log, server, application)
}

// buildArchiver wires on-chain leaderboard archival when the chain section
// is fully configured. Returns a nil archiver otherwise.
func buildArchiver(ctx context.Context, cfg *config.Config, log *logger.Logger) (competitions.Archiver, error) {
	if cfg.Chain.RPCURL == "" || cfg.Chain.BucketContractHash == "" || cfg.Chain.SignerKeyHex == "" {
		if cfg.Chain.RPCURL != "" {
			log.Warn("chain RPC configured without a bucket contract and signer key; leaderboard archival disabled")
		}
		return nil, nil
	}

	client, err := chain.NewClient(chain.Config{RPCURL: cfg.Chain.RPCURL, NetworkID: cfg.Chain.NetworkID})
	if err != nil {
		return nil, err
	}
	height, err := client.GetBlockCount(ctx)
	if err != nil {
		return nil, fmt.Errorf("probe chain rpc %s: %w", cfg.Chain.RPCURL, err)
	}
	account, err := chain.AccountFromPrivateKey(cfg.Chain.SignerKeyHex)
	if err != nil {
		return nil, fmt.Errorf("chain signer key: %w", err)
	}
	owner, err := chain.AddressToScriptHash(account.Address)
	if err != nil {
		return nil, err
	}

	buckets := chain.NewBucketManager(client, cfg.Chain.BucketContractHash, account)
	archiver, err := chain.NewLeaderboardArchiver(buckets, owner, "")
	if err != nil {
		return nil, err
	}
	log.WithFields(map[string]any{"height": height, "signer": account.Address}).Info("archiving leaderboards on-chain")
	return archiver, nil
}

func shutdown(cfg *config.Config, log *logger.Logger, server *http.Server, application *app.Application) error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("http shutdown")
	}
	return application.Stop(shutdownCtx)
}
