// Package setup loads the application configuration: setup.yaml for tunable
// constants, environment variables (optionally via .env) for secrets and
// deployment settings. Pricing constants are handed to the pricing functions
// explicitly; nothing reads them as ambient globals.
package setup

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// PricingConfig holds the constants of both pricing models. Loaded once and
// passed into the quote/pricing functions by value.
type PricingConfig struct {
	// Blend variant: p = baselineWeight*prior + momentumWeight*logistic(skew*
	// sensitivity) + boostWeight*boost, YES price clamped to [floor, ceiling].
	BaselineWeight float64 `yaml:"baselineWeight"`
	MomentumWeight float64 `yaml:"momentumWeight"`
	BoostWeight    float64 `yaml:"boostWeight"`
	Sensitivity    float64 `yaml:"sensitivity"`
	FloorCents     float64 `yaml:"floorCents"`
	CeilingCents   float64 `yaml:"ceilingCents"`
	// Vig feeds the liquidity-sensitive LMSR rule b = vig/(n*ln n) * sum|q|.
	Vig float64 `yaml:"vig"`
}

// TradingConfig holds trade admission constants.
type TradingConfig struct {
	// MinimumTradeSize applies to the request's sizing field: stake in
	// currency units for blend markets, |quantity| in shares for cost-function
	// markets.
	MinimumTradeSize  float64 `yaml:"minimumTradeSize"`
	LimitFloorCents   float64 `yaml:"limitFloorCents"`
	LimitCeilingCents float64 `yaml:"limitCeilingCents"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port           string   `yaml:"port"`
	AllowedOrigins []string `yaml:"allowedOrigins"`
	// RequestsPerSecond/Burst feed the per-client rate limiter.
	RequestsPerSecond float64 `yaml:"requestsPerSecond"`
	Burst             int     `yaml:"burst"`
}

// DatabaseConfig selects the gorm driver. Driver "sqlite" uses DSN as a file
// path (":memory:" for tests); "postgres" uses DSN as a connection string.
type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Pricing  PricingConfig  `yaml:"pricing"`
	Trading  TradingConfig  `yaml:"trading"`

	// JWTSecret comes from the environment, never from yaml.
	JWTSecret string `yaml:"-"`
}

// Load reads the yaml file at path, overlays environment variables and
// validates the result. A missing .env file is not an error.
func Load(path string) (*Config, error) {
	godotenv.Load()

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := Defaults()
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if v := os.Getenv("PORT"); v != "" {
		cfg.Server.Port = v
	}
	if v := os.Getenv("DATABASE_DRIVER"); v != "" {
		cfg.Database.Driver = v
	}
	if v := os.Getenv("DATABASE_DSN"); v != "" {
		cfg.Database.DSN = v
	}
	cfg.JWTSecret = os.Getenv("JWT_SECRET")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Defaults returns a config with every tunable set to its shipped value.
// Tests build on this instead of reading setup.yaml.
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Port:              "8080",
			AllowedOrigins:    []string{"*"},
			RequestsPerSecond: 10,
			Burst:             20,
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
			DSN:    "tempora.db",
		},
		Pricing: PricingConfig{
			BaselineWeight: 0.55,
			MomentumWeight: 0.40,
			BoostWeight:    0.05,
			Sensitivity:    0.045,
			FloorCents:     5.0,
			CeilingCents:   95.0,
			Vig:            0.05,
		},
		Trading: TradingConfig{
			MinimumTradeSize:  0.5,
			LimitFloorCents:   1.0,
			LimitCeilingCents: 99.0,
		},
	}
}

// Validate fails fast on values the pricing math cannot run with.
func (c *Config) Validate() error {
	p := c.Pricing
	if p.FloorCents < 0 || p.CeilingCents > 100 || p.FloorCents >= p.CeilingCents {
		return fmt.Errorf("pricing floor/ceiling out of order: floor=%.2f ceiling=%.2f", p.FloorCents, p.CeilingCents)
	}
	if p.Vig <= 0 {
		return fmt.Errorf("pricing vig must be positive, got %.4f", p.Vig)
	}
	if w := p.BaselineWeight + p.MomentumWeight + p.BoostWeight; w <= 0 {
		return fmt.Errorf("blend weights must sum to a positive value, got %.4f", w)
	}
	if c.Trading.MinimumTradeSize <= 0 {
		return fmt.Errorf("minimum trade size must be positive, got %.4f", c.Trading.MinimumTradeSize)
	}
	if c.Trading.LimitFloorCents < 1 || c.Trading.LimitCeilingCents > 99 {
		return fmt.Errorf("limit bounds must lie within [1, 99] cents")
	}
	if c.Database.Driver != "sqlite" && c.Database.Driver != "postgres" {
		return fmt.Errorf("unknown database driver %q", c.Database.Driver)
	}
	return nil
}
