// Package config loads process configuration from the environment and the
// competition constraints file.
package config

import (
	"fmt"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
)

// Config is the gateway process configuration, decoded from the environment.
type Config struct {
	HTTP struct {
		Addr            string        `env:"HTTP_ADDR,default=:8080"`
		ReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT,default=15s"`
		WriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT,default=30s"`
		ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT,default=10s"`
		AllowedOrigins  []string      `env:"HTTP_ALLOWED_ORIGINS,default=http://localhost:3000"`
	}

	Database struct {
		URL string `env:"DATABASE_URL"`
	}

	Redis struct {
		Addr     string `env:"REDIS_ADDR"`
		Password string `env:"REDIS_PASSWORD"`
	}

	Chain struct {
		RPCURL             string `env:"CHAIN_RPC_URL"`
		NetworkID          uint32 `env:"CHAIN_NETWORK_ID,default=894710606"`
		BucketContractHash string `env:"CONTRACT_BUCKET_HASH"`
		CreditContractHash string `env:"CONTRACT_CREDIT_HASH"`
		SignerKeyHex       string `env:"CHAIN_SIGNER_KEY"`
	}

	Auth struct {
		JWTSecret  string        `env:"JWT_SECRET"`
		SessionTTL time.Duration `env:"SESSION_TTL,default=24h"`
	}

	Perps struct {
		ProviderURL  string `env:"PERPS_PROVIDER_URL"`
		ProviderKey  string `env:"PERPS_PROVIDER_KEY"`
		SyncSchedule string `env:"PERPS_SYNC_SCHEDULE,default=@every 1m"`
	}

	Log struct {
		Level string `env:"LOG_LEVEL,default=info"`
		JSON  bool   `env:"LOG_JSON,default=false"`
	}

	ConstraintsPath string  `env:"CONSTRAINTS_CONFIG"`
	RateLimitPerSec float64 `env:"RATE_LIMIT_PER_SEC,default=10"`
	RateLimitBurst  int     `env:"RATE_LIMIT_BURST,default=20"`
}

// Load reads .env (if present) and decodes the environment into a Config.
func Load() (*Config, error) {
	// Missing .env is fine; the environment may be fully set by the host.
	_ = godotenv.Load()

	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode environment: %w", err)
	}
	if cfg.Auth.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	return &cfg, nil
}
