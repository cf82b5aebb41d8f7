package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// envConfig mirrors Config for environment parsing. Variable names follow
// the original deployment.
type envConfig struct {
	EndpointAddr       string        `env:"ADDRESS"`
	DatabaseDSN        string        `env:"DATABASE_DSN"`
	SecretKey          string        `env:"JWT_SECRET"`
	AccessTTL          time.Duration `env:"JWT_ACCESS_TTL"`
	RefreshTTL         time.Duration `env:"JWT_REFRESH_TTL"`
	BcryptCost         int           `env:"BCRYPT_COST"`
	TokenSweepInterval time.Duration `env:"TOKEN_SWEEP_INTERVAL"`
}

// parseEnv overlays values from the environment onto cfg. Unset variables
// leave the current values in place; malformed ones panic, since a broken
// environment is a startup error.
func parseEnv(cfg *Config) {
	c := envConfig{}
	if err := env.Parse(&c); err != nil {
		panic(err)
	}

	if c.EndpointAddr != "" {
		cfg.EndpointAddr = c.EndpointAddr
	}
	if c.DatabaseDSN != "" {
		cfg.DatabaseDSN = c.DatabaseDSN
	}
	if c.SecretKey != "" {
		cfg.SecretKey = c.SecretKey
	}
	if c.AccessTTL != 0 {
		cfg.AccessTokenValidityDuration = c.AccessTTL
	}
	if c.RefreshTTL != 0 {
		cfg.RefreshTokenValidityDuration = c.RefreshTTL
	}
	if c.BcryptCost != 0 {
		cfg.BcryptCost = c.BcryptCost
	}
	if c.TokenSweepInterval != 0 {
		cfg.TokenSweepInterval = c.TokenSweepInterval
	}
}
