package config

import (
	"fmt"

	"github.com/caarlos0/env/v10"
)

// Provider endpoints that do not vary by environment.
const (
	AuthURL      = "https://appcenter.intuit.com/connect/oauth2"
	TokenURL     = "https://oauth.platform.intuit.com/oauth2/v1/tokens/bearer"
	GraphQLURL   = "https://qb.api.intuit.com/graphql"
	DeepLinkBase = "https://app.qbo.intuit.com/app/invoice"
)

// Scopes requested during authorization. The custom-field-definitions scope
// is required for the GraphQL appFoundations API.
var Scopes = []string{
	"com.intuit.quickbooks.accounting",
	"app-foundations.custom-field-definitions",
}

const devSessionSecret = "dev-only-session-secret-do-not-deploy"

// Config holds all application configuration, sourced from the environment.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	Server struct {
		Port    string `env:"SERVER_PORT" envDefault:"5001"`
		Timeout int    `env:"SERVER_TIMEOUT" envDefault:"15"`
	}

	QuickBooks struct {
		ClientID     string `env:"QB_CLIENT_ID"`
		ClientSecret string `env:"QB_CLIENT_SECRET"`
		RedirectURI  string `env:"QB_REDIRECT_URI"`
		Environment  string `env:"QB_ENVIRONMENT" envDefault:"production"`
		MinorVersion string `env:"QB_MINOR_VERSION" envDefault:"70"`
	}

	Session struct {
		Secret string `env:"SESSION_SECRET"`
	}

	Redis struct {
		Addresses []string `env:"REDIS_ADDRESSES" envSeparator:","`
		Password  string   `env:"REDIS_PASSWORD"`
		DB        int      `env:"REDIS_DB" envDefault:"0"`
		KeyPrefix string   `env:"REDIS_KEY_PREFIX" envDefault:"qbfields"`
	}
}

// Load reads configuration from environment variables and validates it.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}

	switch cfg.QuickBooks.Environment {
	case "sandbox", "production":
	default:
		return Config{}, fmt.Errorf("invalid QB_ENVIRONMENT %q: must be sandbox or production", cfg.QuickBooks.Environment)
	}

	if cfg.Environment != "development" {
		if cfg.QuickBooks.ClientID == "" || cfg.QuickBooks.ClientSecret == "" || cfg.QuickBooks.RedirectURI == "" {
			return Config{}, fmt.Errorf("QB_CLIENT_ID, QB_CLIENT_SECRET and QB_REDIRECT_URI must be set in %q mode", cfg.Environment)
		}
		if cfg.Session.Secret == "" {
			return Config{}, fmt.Errorf("SESSION_SECRET must be set in %q mode", cfg.Environment)
		}
	}
	if cfg.Session.Secret == "" {
		cfg.Session.Secret = devSessionSecret
	}

	return cfg, nil
}

// APIBaseURL returns the REST company endpoint base for the configured
// QuickBooks environment.
func (c Config) APIBaseURL() string {
	host := "quickbooks.api.intuit.com"
	if c.QuickBooks.Environment == "sandbox" {
		host = "sandbox-quickbooks.api.intuit.com"
	}
	return fmt.Sprintf("https://%s/v3/company", host)
}

// RedisEnabled reports whether a server-side Redis session store is configured.
func (c Config) RedisEnabled() bool {
	return len(c.Redis.Addresses) > 0
}
