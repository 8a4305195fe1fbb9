package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joeshaw/envdecode"
)

// Config example server configuration. Values come from defaults, then the
// TOML file, then the environment.
type Config struct {
	Addr      string        `toml:"addr" env:"NOTES_ADDR"`
	Path      string        `toml:"path" env:"NOTES_PATH"`
	LogLevel  string        `toml:"log_level" env:"NOTES_LOG_LEVEL"`
	Pretty    bool          `toml:"pretty" env:"NOTES_PRETTY"`
	KeepAlive time.Duration `toml:"-" env:"NOTES_KEEP_ALIVE"`
	JWTSecret string        `toml:"jwt_secret" env:"NOTES_JWT_SECRET"`
	RedisAddr string        `toml:"redis_addr" env:"NOTES_REDIS_ADDR"`

	// keep_alive is a duration string in the file
	KeepAliveRaw string `toml:"keep_alive"`
}

// DefaultConfig returns the defaults
func DefaultConfig() Config {
	return Config{
		Addr:      ":3000",
		Path:      "/graphql",
		LogLevel:  "info",
		KeepAlive: 10 * time.Second,
	}
}

// LoadConfig loads the config file at path, if any, and applies env overrides
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		meta, err := toml.DecodeFile(path, &cfg)
		if err != nil {
			return Config{}, fmt.Errorf("load config: %w", err)
		}

		if meta.IsDefined("keep_alive") {
			d, err := time.ParseDuration(cfg.KeepAliveRaw)
			if err != nil {
				return Config{}, fmt.Errorf("parse keep_alive: %w", err)
			}
			cfg.KeepAlive = d
		}
	}

	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return Config{}, fmt.Errorf("decode env: %w", err)
	}

	return cfg, nil
}
