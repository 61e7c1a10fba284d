package config

import (
	"log"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	// Environment
	Environment string `env:"APP_ENV" envDefault:"development"`

	// Database (empty disables the match archive)
	DatabaseURL    string `env:"DATABASE_URL"`
	DBMaxOpenConns int    `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	DBMaxIdleConns int    `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
	MigrateOnStart bool   `env:"MIGRATE_ON_START" envDefault:"false"`
	MigrationsPath string `env:"MIGRATIONS_PATH" envDefault:"file://migrations"`

	// Redis (empty disables snapshots and cross-instance fan-out)
	RedisURL             string `env:"REDIS_URL"`
	RedisStateTTLMinutes int    `env:"REDIS_STATE_TTL_MINUTES" envDefault:"60"`

	// Server
	Port        string `env:"APP_PORT" envDefault:"8080"`
	FrontendURL string `env:"FRONTEND_URL" envDefault:"http://localhost:5173"`

	// Match settings
	MatchExpiryMinutes  int    `env:"MATCH_EXPIRY_MINUTES" envDefault:"30"`
	ExpiryCheckSeconds  int    `env:"EXPIRY_CHECK_SECONDS" envDefault:"60"`
	FrameSampleEvery    int    `env:"FRAME_SAMPLE_EVERY" envDefault:"4"`
	FoulPolicy          string `env:"FOUL_POLICY" envDefault:"turn"`
	EightBallRule       string `env:"EIGHT_BALL_RULE" envDefault:"reference"`
	DisconnectGraceSecs int    `env:"DISCONNECT_GRACE_SECONDS" envDefault:"120"`

	// Security
	JWTSecret           string `env:"JWT_SECRET" envDefault:"change-me-in-production"`
	SeatTokenTTLMinutes int    `env:"SEAT_TOKEN_TTL_MINUTES" envDefault:"240"`
}

// Load reads .env (if present) and the process environment.
func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		log.Printf("[CONFIG] Failed to parse environment, using defaults: %v", err)
		return Default()
	}
	return cfg
}

// Default returns the configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, env.Options{Environment: map[string]string{}}); err != nil {
		log.Printf("[CONFIG] Failed to apply defaults: %v", err)
	}
	return cfg
}
