package app

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"

	"krogercart/internal/kroger"
	"krogercart/internal/tokenstore"
)

// LogFormat represents the logging output format.
type LogFormat string

const (
	LogFormatText LogFormat = "text"
	LogFormatJSON LogFormat = "json"
)

// OutputFormat represents the result output format.
type OutputFormat string

const (
	OutputFormatText OutputFormat = "text"
	OutputFormatJSON OutputFormat = "json"
)

// Default configuration values
const (
	DefaultConfigLogLevel    = "info"
	DefaultConfigLogFormat   = LogFormatText
	DefaultConfigEnvironment = kroger.EnvironmentProd
	DefaultConfigRedirectURL = "http://localhost:3000"
	DefaultConfigStorage     = tokenstore.PreferenceAuto
	DefaultConfigZip         = "84045"
	DefaultConfigChain       = "Smiths"
	DefaultConfigModality    = kroger.ModalityDelivery
)

// KrogerConfig holds provider credentials and endpoints selection.
type KrogerConfig struct {
	// Environment selects PROD or CERT API deployments.
	Environment kroger.Environment `json:"environment" validate:"oneof=PROD CERT"`

	// ClientID is the registered OAuth client identifier. Its absence is
	// not a config-load error; the token manager fails fast when a flow
	// actually needs it.
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret,omitempty"`

	// RedirectURL must match the redirect URI registered for the client.
	RedirectURL string `json:"redirect_url" validate:"url"`
}

// AuthConfig describes how token records are stored.
type AuthConfig struct {
	Storage tokenstore.Preference `json:"storage" validate:"required,oneof=auto file keyring"`

	// File is the token file path used by file storage and as the
	// keyring fallback.
	File string `json:"file,omitempty"`

	// ListenAddr is the loopback address for the authorization callback
	// listener; it must agree with the redirect URL.
	ListenAddr string `json:"listen_addr,omitempty"`
}

// NewTokenStore resolves the configured storage preference to a backend.
func (a *AuthConfig) NewTokenStore() (tokenstore.Store, error) {
	return tokenstore.Detect(a.Storage, a.File)
}

// CartConfig holds store selection and fulfillment settings.
type CartConfig struct {
	Zip      string          `json:"zip" validate:"required"`
	Chain    string          `json:"chain" validate:"required"`
	Modality kroger.Modality `json:"modality" validate:"oneof=DELIVERY PICKUP"`

	// LocationID skips the zip-based store lookup when set.
	LocationID string `json:"location_id,omitempty"`
}

// Config holds the application's configuration.
type Config struct {
	LogLevel  string       `json:"log_level" validate:"oneof=debug info warn error"`
	LogFormat LogFormat    `json:"log_format" validate:"oneof=text json"`
	Kroger    KrogerConfig `json:"kroger"`
	Auth      AuthConfig   `json:"auth"`
	Cart      CartConfig   `json:"cart"`
}

// Default creates a new Config with default values applied.
func Default() (*Config, error) {
	cfg := &Config{}
	if err := cfg.ApplyDefaults(); err != nil {
		return nil, fmt.Errorf("failed to apply defaults: %w", err)
	}
	return cfg, nil
}

// ApplyDefaults fills unset config fields with sensible defaults.
func (c *Config) ApplyDefaults() error {
	if c.LogLevel == "" {
		c.LogLevel = DefaultConfigLogLevel
	}
	if c.LogFormat == "" {
		c.LogFormat = DefaultConfigLogFormat
	}
	if c.Kroger.Environment == "" {
		c.Kroger.Environment = DefaultConfigEnvironment
	}
	if c.Kroger.RedirectURL == "" {
		c.Kroger.RedirectURL = DefaultConfigRedirectURL
	}
	if c.Auth.Storage == "" {
		c.Auth.Storage = DefaultConfigStorage
	}
	if c.Auth.File == "" {
		configDir, err := os.UserConfigDir()
		if err != nil {
			return fmt.Errorf("auth.file required (auto-detect failed: %w)", err)
		}
		c.Auth.File = filepath.Join(configDir, "kroger-cart", "tokens.json")
	}
	if c.Cart.Zip == "" {
		c.Cart.Zip = DefaultConfigZip
	}
	if c.Cart.Chain == "" {
		c.Cart.Chain = DefaultConfigChain
	}
	if c.Cart.Modality == "" {
		c.Cart.Modality = DefaultConfigModality
	}

	return nil
}

// Validate validates the configuration using struct tags.
func (c *Config) Validate() error {
	return validator.New().Struct(c)
}

// SlogLevel maps the configured level name to a slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
