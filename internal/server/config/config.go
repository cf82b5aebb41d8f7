// Package config handles configuration for the server component, including
// defaults, JSON overlay, environment variables, and command-line flags.
package config

import (
	"time"

	"github.com/credkeeper/credkeeper/internal/server/password"
)

// Config holds runtime settings for the credkeeper server.
//
// Fields:
//   - EndpointAddr: bind address for the public HTTP endpoint.
//   - DatabaseDSN: PostgreSQL DSN (pgx); empty selects the in-memory backend.
//   - SecretKey: HMAC secret for signing tokens (HS256). Loaded once at
//     startup and immutable thereafter. Do not use test defaults in prod.
//   - AccessTokenValidityDuration / RefreshTokenValidityDuration: token
//     lifetimes; access must be much shorter than refresh.
//   - BcryptCost: password hashing work factor.
//   - TokenSweepInterval: how often expired refresh-token state is swept.
type Config struct {
	EndpointAddr                 string
	DatabaseDSN                  string
	SecretKey                    string
	AccessTokenValidityDuration  time.Duration
	RefreshTokenValidityDuration time.Duration
	BcryptCost                   int
	TokenSweepInterval           time.Duration
}

// LoadDefaults populates Config with development defaults.
// NOTE: These values are insecure for production and should be overridden.
func (c *Config) LoadDefaults() {
	c.EndpointAddr = ":8080"
	c.DatabaseDSN = ""
	c.SecretKey = "secretKey"
	c.AccessTokenValidityDuration = 30 * time.Minute
	c.RefreshTokenValidityDuration = 30 * 24 * time.Hour
	c.BcryptCost = password.DefaultCost
	c.TokenSweepInterval = time.Minute
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file, the environment, and finally command-line
// flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseEnv(cfg)
	parseFlags(cfg)
	return cfg
}
