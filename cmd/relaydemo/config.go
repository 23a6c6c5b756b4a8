package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	kitlog "github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
)

// Config of the demo server. Values come from the TOML file first, then
// from the environment.
type Config struct {
	Addr            string        `toml:"addr" env:"RELAY_ADDR"`
	LogLevel        string        `toml:"log_level" env:"RELAY_LOG_LEVEL"`
	LogFormat       string        `toml:"log_format" env:"RELAY_LOG_FORMAT"`
	Token           string        `toml:"token" env:"RELAY_TOKEN"`
	Greeting        string        `toml:"greeting" env:"RELAY_GREETING"`
	ShutdownTimeout time.Duration `toml:"shutdown_timeout" env:"RELAY_SHUTDOWN_TIMEOUT"`
}

func defaultConfig() Config {
	return Config{
		Addr:            ":8080",
		LogLevel:        "info",
		LogFormat:       "logfmt",
		Greeting:        "Hello",
		ShutdownTimeout: 30 * time.Second,
	}
}

// LoadConfig reads the config file at path, if it exists, and applies
// environment overrides on top.
func LoadConfig(path string) (Config, error) {
	cfg := defaultConfig()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return cfg, fmt.Errorf("decode config file %s: %w", path, err)
		}
	}
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, cfg.validate()
}

func (cfg Config) validate() error {
	if cfg.Addr == "" {
		return errors.New("addr is required")
	}
	if _, ok := levelOptions[cfg.LogLevel]; !ok {
		return fmt.Errorf("unknown log level %q", cfg.LogLevel)
	}
	if cfg.LogFormat != "logfmt" && cfg.LogFormat != "json" {
		return fmt.Errorf("unknown log format %q", cfg.LogFormat)
	}
	if cfg.ShutdownTimeout <= 0 {
		return errors.New("shutdown_timeout must be positive")
	}
	return nil
}

var levelOptions = map[string]level.Option{
	"debug": level.AllowDebug(),
	"info":  level.AllowInfo(),
	"warn":  level.AllowWarn(),
	"error": level.AllowError(),
	"none":  level.AllowNone(),
}

func newLogger(cfg Config, w io.Writer) kitlog.Logger {
	var logger kitlog.Logger
	if cfg.LogFormat == "json" {
		logger = kitlog.NewJSONLogger(kitlog.NewSyncWriter(w))
	} else {
		logger = kitlog.NewLogfmtLogger(kitlog.NewSyncWriter(w))
	}
	logger = level.NewFilter(logger, levelOptions[cfg.LogLevel])
	return kitlog.With(logger, "ts", kitlog.DefaultTimestampUTC)
}
