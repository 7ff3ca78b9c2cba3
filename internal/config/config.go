// Package config reads the engine settings from the environment.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/nikolayk812/storefront/internal/client"
	"go.uber.org/zap/zapcore"
	"golang.org/x/text/currency"
)

const (
	EnvBaseURL                = "STOREFRONT_BASE_URL"
	EnvToken                  = "STOREFRONT_TOKEN"
	EnvOwnerID                = "STOREFRONT_OWNER_ID"
	EnvRequestTimeout         = "STOREFRONT_REQUEST_TIMEOUT"
	EnvCurrency               = "STOREFRONT_CURRENCY"
	EnvSubmitPath             = "STOREFRONT_SUBMIT_PATH"
	EnvServerErrorMeansAbsent = "STOREFRONT_SERVER_ERROR_MEANS_ABSENT"
	EnvDatabaseURL            = "STOREFRONT_DATABASE_URL"
	EnvLogLevel               = "LOG_LEVEL"
)

type Config struct {
	BaseURL        string
	Token          string
	OwnerID        string
	RequestTimeout time.Duration
	Currency       currency.Unit
	SubmitPath     string
	// ServerErrorMeansAbsent makes the resolver create a cart when GET /cart answers 5xx.
	ServerErrorMeansAbsent bool
	// DatabaseURL enables the order history cache. Empty disables it.
	DatabaseURL string
	LogLevel    zapcore.Level
}

// Load reads the environment, applies defaults and validates the result.
func Load() (Config, error) {
	cfg := Config{
		BaseURL:                strings.TrimRight(strings.TrimSpace(os.Getenv(EnvBaseURL)), "/"),
		Token:                  strings.TrimSpace(os.Getenv(EnvToken)),
		OwnerID:                strings.TrimSpace(os.Getenv(EnvOwnerID)),
		RequestTimeout:         client.DefaultTimeout,
		Currency:               currency.RUB,
		SubmitPath:             client.DefaultSubmitPath,
		ServerErrorMeansAbsent: true,
		DatabaseURL:            strings.TrimSpace(os.Getenv(EnvDatabaseURL)),
		LogLevel:               zapcore.InfoLevel,
	}

	if v := os.Getenv(EnvRequestTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("%s[%s] is not a duration: %w", EnvRequestTimeout, v, err)
		}
		cfg.RequestTimeout = d
	}

	if v := os.Getenv(EnvCurrency); v != "" {
		cur, err := currency.ParseISO(v)
		if err != nil {
			return Config{}, fmt.Errorf("%s[%s] is not valid: %w", EnvCurrency, v, err)
		}
		cfg.Currency = cur
	}

	if v := os.Getenv(EnvSubmitPath); v != "" {
		cfg.SubmitPath = v
	}

	if v := os.Getenv(EnvServerErrorMeansAbsent); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("%s[%s] is not a bool: %w", EnvServerErrorMeansAbsent, v, err)
		}
		cfg.ServerErrorMeansAbsent = b
	}

	if v := os.Getenv(EnvLogLevel); v != "" {
		level, err := zapcore.ParseLevel(v)
		if err != nil {
			return Config{}, fmt.Errorf("%s[%s] is not valid: %w", EnvLogLevel, v, err)
		}
		cfg.LogLevel = level
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("%s is empty", EnvBaseURL)
	}

	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("%s[%s] is not valid: %w", EnvBaseURL, c.BaseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s[%s] must be http or https", EnvBaseURL, c.BaseURL)
	}

	if c.RequestTimeout <= 0 {
		return fmt.Errorf("%s must be positive", EnvRequestTimeout)
	}

	if c.SubmitPath != "/order" && c.SubmitPath != "/orders" {
		return fmt.Errorf("%s[%s] must be /order or /orders", EnvSubmitPath, c.SubmitPath)
	}

	return nil
}

func (c Config) Client() client.Config {
	return client.Config{
		BaseURL:    c.BaseURL,
		Timeout:    c.RequestTimeout,
		Currency:   c.Currency,
		SubmitPath: c.SubmitPath,
	}
}
