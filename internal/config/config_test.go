package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadAppliesDefaults(t *testing.T) {
	configViper := NewViper()
	configViper.Set("auth.signing_secret", "secret")

	cfg, err := Load(configViper)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.HTTPAddress != defaultHTTPAddress || cfg.DatabasePath != defaultDatabasePath {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.SourceDriver != SourceDriverSQLite || cfg.PageSize != 10 || cfg.SessionLimit != 256 {
		t.Fatalf("unexpected view defaults %+v", cfg)
	}
	if cfg.TokenTTL != time.Hour || cfg.CookieName != defaultCookieName || cfg.Issuer != defaultIssuer {
		t.Fatalf("unexpected auth defaults %+v", cfg)
	}
	if len(cfg.AllowedOrigins) != 1 || cfg.AllowedOrigins[0] != defaultAllowedOrigins {
		t.Fatalf("unexpected origins %v", cfg.AllowedOrigins)
	}
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("TUNEDESK_AUTH_SIGNING_SECRET", "from-env")
	t.Setenv("TUNEDESK_SOURCE_DRIVER", "HTTP")
	t.Setenv("TUNEDESK_SOURCE_BASE_URL", "https://api.example.com")
	t.Setenv("TUNEDESK_VIEW_PAGE_SIZE", "25")
	t.Setenv("TUNEDESK_HTTP_ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com")

	cfg, err := Load(NewViper())
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.SigningSecret != "from-env" || cfg.SourceDriver != SourceDriverHTTP || cfg.PageSize != 25 {
		t.Fatalf("environment not applied: %+v", cfg)
	}
	if cfg.SourceTimeout != 15*time.Second {
		t.Fatalf("unexpected timeout %s", cfg.SourceTimeout)
	}
	if len(cfg.AllowedOrigins) != 2 {
		t.Fatalf("expected two origins, got %v", cfg.AllowedOrigins)
	}
}

func TestLoadValidates(t *testing.T) {
	testCases := []struct {
		name     string
		settings map[string]any
		wantErr  string
	}{
		{name: "missing secret", settings: map[string]any{}, wantErr: "auth.signing_secret"},
		{name: "unknown driver", settings: map[string]any{"source.driver": "ftp"}, wantErr: "source.driver"},
		{name: "http without url", settings: map[string]any{"source.driver": "http"}, wantErr: "source.base_url"},
		{name: "page size", settings: map[string]any{"view.page_size": 0}, wantErr: "view.page_size"},
		{name: "session limit", settings: map[string]any{"view.session_limit": 0}, wantErr: "view.session_limit"},
		{name: "token ttl", settings: map[string]any{"auth.token_ttl_minutes": 0}, wantErr: "auth.token_ttl_minutes"},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			configViper := NewViper()
			if testCase.name != "missing secret" {
				configViper.Set("auth.signing_secret", "secret")
			}
			for key, value := range testCase.settings {
				configViper.Set(key, value)
			}
			_, err := Load(configViper)
			if err == nil || !strings.Contains(err.Error(), testCase.wantErr) {
				t.Fatalf("expected error mentioning %q, got %v", testCase.wantErr, err)
			}
		})
	}
}
