package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	envPrefix             = "TUNEDESK"
	defaultHTTPAddress    = "0.0.0.0:8080"
	defaultDatabasePath   = "tunedesk.db"
	defaultLogLevel       = "info"
	defaultLogFormat      = "json"
	defaultCookieName     = "app_session"
	defaultIssuer         = "tunedesk-auth"
	defaultTokenTTL       = 60
	defaultSourceDriver   = SourceDriverSQLite
	defaultSourceTimeout  = 15
	defaultPageSize       = 10
	defaultSessionLimit   = 256
	defaultAllowedOrigins = "http://localhost:3000"
	maxPageSize           = 500
)

const (
	// SourceDriverSQLite serves the catalogue from the local database.
	SourceDriverSQLite = "sqlite"
	// SourceDriverHTTP proxies the catalogue from an upstream REST backend.
	SourceDriverHTTP = "http"
)

// AppConfig captures runtime configuration for the API server and CLI.
type AppConfig struct {
	HTTPAddress    string
	AllowedOrigins []string
	DatabasePath   string
	LogLevel       string
	LogFormat      string

	SourceDriver  string
	SourceBaseURL string
	SourceToken   string
	SourceTimeout time.Duration

	PageSize     int
	SessionLimit int
	KeepLastGood bool

	SigningSecret string
	Issuer        string
	CookieName    string
	TokenTTL      time.Duration
}

// NewViper returns a viper instance with defaults and env bindings configured.
func NewViper() *viper.Viper {
	configViper := viper.New()
	ApplyDefaults(configViper)
	return configViper
}

// ApplyDefaults configures defaults and env bindings on the provided viper instance.
func ApplyDefaults(configViper *viper.Viper) {
	configViper.SetEnvPrefix(envPrefix)
	configViper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	configViper.AutomaticEnv()

	configViper.SetDefault("http.address", defaultHTTPAddress)
	configViper.SetDefault("http.allowed_origins", defaultAllowedOrigins)
	configViper.SetDefault("database.path", defaultDatabasePath)
	configViper.SetDefault("log.level", defaultLogLevel)
	configViper.SetDefault("log.format", defaultLogFormat)
	configViper.SetDefault("source.driver", defaultSourceDriver)
	configViper.SetDefault("source.timeout_seconds", defaultSourceTimeout)
	configViper.SetDefault("view.page_size", defaultPageSize)
	configViper.SetDefault("view.session_limit", defaultSessionLimit)
	configViper.SetDefault("view.keep_last_good", false)
	configViper.SetDefault("auth.issuer", defaultIssuer)
	configViper.SetDefault("auth.cookie_name", defaultCookieName)
	configViper.SetDefault("auth.token_ttl_minutes", defaultTokenTTL)
}

// Load parses runtime configuration from viper.
func Load(configViper *viper.Viper) (AppConfig, error) {
	cfg := AppConfig{
		HTTPAddress:    configViper.GetString("http.address"),
		AllowedOrigins: splitList(configViper.GetString("http.allowed_origins")),
		DatabasePath:   configViper.GetString("database.path"),
		LogLevel:       configViper.GetString("log.level"),
		LogFormat:      configViper.GetString("log.format"),
		SourceDriver:   strings.ToLower(strings.TrimSpace(configViper.GetString("source.driver"))),
		SourceBaseURL:  strings.TrimSpace(configViper.GetString("source.base_url")),
		SourceToken:    configViper.GetString("source.token"),
		SourceTimeout:  time.Duration(configViper.GetInt("source.timeout_seconds")) * time.Second,
		PageSize:       configViper.GetInt("view.page_size"),
		SessionLimit:   configViper.GetInt("view.session_limit"),
		KeepLastGood:   configViper.GetBool("view.keep_last_good"),
		SigningSecret:  configViper.GetString("auth.signing_secret"),
		Issuer:         configViper.GetString("auth.issuer"),
		CookieName:     configViper.GetString("auth.cookie_name"),
		TokenTTL:       time.Duration(configViper.GetInt("auth.token_ttl_minutes")) * time.Minute,
	}

	if err := cfg.validate(); err != nil {
		return AppConfig{}, err
	}

	return cfg, nil
}

func (c AppConfig) validate() error {
	if strings.TrimSpace(c.SigningSecret) == "" {
		return fmt.Errorf("auth.signing_secret is required")
	}
	if strings.TrimSpace(c.Issuer) == "" {
		return fmt.Errorf("auth.issuer is required")
	}
	if strings.TrimSpace(c.CookieName) == "" {
		return fmt.Errorf("auth.cookie_name is required")
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("auth.token_ttl_minutes must be positive")
	}
	if strings.TrimSpace(c.DatabasePath) == "" {
		return fmt.Errorf("database.path is required")
	}
	switch c.SourceDriver {
	case SourceDriverSQLite:
	case SourceDriverHTTP:
		if c.SourceBaseURL == "" {
			return fmt.Errorf("source.base_url is required for the http driver")
		}
		if c.SourceTimeout <= 0 {
			return fmt.Errorf("source.timeout_seconds must be positive")
		}
	default:
		return fmt.Errorf("source.driver must be %q or %q, got %q", SourceDriverSQLite, SourceDriverHTTP, c.SourceDriver)
	}
	if c.PageSize < 1 || c.PageSize > maxPageSize {
		return fmt.Errorf("view.page_size must be between 1 and %d", maxPageSize)
	}
	if c.SessionLimit < 1 {
		return fmt.Errorf("view.session_limit must be positive")
	}
	return nil
}

func splitList(raw string) []string {
	var values []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			values = append(values, trimmed)
		}
	}
	return values
}
