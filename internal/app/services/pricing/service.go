// Package pricing resolves token prices for portfolio valuation and quoting.
package pricing

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ArenaX-Network/arena_layer/internal/cache"
	"github.com/ArenaX-Network/arena_layer/pkg/logger"
)

// Source supplies raw prices. The application wires either a provider-backed
// source or a fixed table for sandbox competitions.
type Source interface {
	Price(ctx context.Context, token, chain string) (float64, error)
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func(ctx context.Context, token, chain string) (float64, error)

func (f SourceFunc) Price(ctx context.Context, token, chain string) (float64, error) {
	return f(ctx, token, chain)
}

// StaticSource serves prices from a fixed token table, keyed TOKEN/chain.
func StaticSource(prices map[string]float64) Source {
	return SourceFunc(func(_ context.Context, token, chain string) (float64, error) {
		if p, ok := prices[strings.ToUpper(token)+"/"+strings.ToLower(chain)]; ok {
			return p, nil
		}
		if p, ok := prices[strings.ToUpper(token)]; ok {
			return p, nil
		}
		return 0, fmt.Errorf("no price for %s on %s", token, chain)
	})
}

// SandboxPrices returns the fixed price table used when no external price
// source is configured. Values are in USDT terms.
func SandboxPrices() map[string]float64 {
	return map[string]float64{
		"USDT": 1,
		"NEO":  12.5,
		"GAS":  4.2,
		"BTC":  65000,
		"ETH":  3200,
	}
}

// Service caches source prices with a short TTL.
type Service struct {
	source Source
	cache  cache.Cache
	ttl    time.Duration
	log    *logger.Logger
}

// New constructs a pricing service. A nil cache disables caching.
func New(source Source, c cache.Cache, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("pricing")
	}
	return &Service{
		source: source,
		cache:  c,
		ttl:    30 * time.Second,
		log:    log,
	}
}

// Price returns the current price for a token on a chain.
func (s *Service) Price(ctx context.Context, token, chain string) (float64, error) {
	token = strings.ToUpper(strings.TrimSpace(token))
	chain = strings.ToLower(strings.TrimSpace(chain))
	if token == "" {
		return 0, fmt.Errorf("token is required")
	}

	key := "price:" + token + ":" + chain
	if s.cache != nil {
		if raw, err := s.cache.Get(ctx, key); err == nil {
			if p, err := strconv.ParseFloat(string(raw), 64); err == nil {
				return p, nil
			}
		}
	}

	price, err := s.source.Price(ctx, token, chain)
	if err != nil {
		return 0, fmt.Errorf("fetch price %s/%s: %w", token, chain, err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, []byte(strconv.FormatFloat(price, 'f', -1, 64)), s.ttl); err != nil {
			s.log.WithError(err).WithField("token", token).Warn("cache price")
		}
	}
	return price, nil
}

// Quote converts an amount of one token into another at current prices.
func (s *Service) Quote(ctx context.Context, fromToken, fromChain, toToken, toChain string, amount float64) (float64, float64, error) {
	if amount <= 0 {
		return 0, 0, fmt.Errorf("amount must be positive")
	}
	fromPrice, err := s.Price(ctx, fromToken, fromChain)
	if err != nil {
		return 0, 0, err
	}
	toPrice, err := s.Price(ctx, toToken, toChain)
	if err != nil {
		return 0, 0, err
	}
	if toPrice <= 0 {
		return 0, 0, fmt.Errorf("price for %s is not positive", toToken)
	}
	rate := fromPrice / toPrice
	return amount * rate, rate, nil
}
