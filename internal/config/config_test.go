package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/router-for-me/oauth2nmail/internal/auth"
	"golang.org/x/oauth2"
)

func mapLookup(env map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func baseEnv() map[string]string {
	return map[string]string{
		EnvType:         "gmail-oauth2",
		EnvClientID:     "9",
		EnvClientSecret: "j",
		EnvTokenStore:   "/tmp/oauth2.tokens",
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(mapLookup(baseEnv()))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.CallbackPort != 6880 || cfg.CallbackPath != "/oauth2nmail.py" || cfg.CallbackHost != "localhost" {
		t.Fatalf("unexpected listener defaults: %+v", cfg)
	}
	if cfg.PollInterval != time.Second || cfg.PollAttempts != 60 {
		t.Fatalf("unexpected poll defaults: %v x %d", cfg.PollInterval, cfg.PollAttempts)
	}
	if cfg.ClientID != "9" || cfg.ClientSecret != "j" || cfg.TokenStore != "/tmp/oauth2.tokens" {
		t.Fatalf("required values not loaded: %+v", cfg)
	}
}

func TestLoadMissingRequired(t *testing.T) {
	t.Parallel()

	for _, key := range []string{EnvType, EnvClientID, EnvClientSecret, EnvTokenStore} {
		key := key
		t.Run(key, func(t *testing.T) {
			t.Parallel()
			env := baseEnv()
			delete(env, key)
			_, err := Load(mapLookup(env))
			if code := auth.ExitCode(err); code != auth.ExitUsage {
				t.Fatalf("ExitCode() = %d, want %d", code, auth.ExitUsage)
			}
			if !strings.Contains(err.Error(), key) {
				t.Fatalf("error %q should name %s", err, key)
			}
		})
	}
}

func TestLoadEmptyValueCountsAsMissing(t *testing.T) {
	env := baseEnv()
	env[EnvClientSecret] = ""
	if _, err := Load(mapLookup(env)); err == nil || !strings.Contains(err.Error(), EnvClientSecret) {
		t.Fatalf("expected missing %s, got %v", EnvClientSecret, err)
	}
}

func TestLoadUnsupportedProvider(t *testing.T) {
	env := baseEnv()
	env[EnvType] = "unsupported-provider"
	delete(env, EnvClientID)

	_, err := Load(mapLookup(env))
	if code := auth.ExitCode(err); code != auth.ExitUsage {
		t.Fatalf("ExitCode() = %d, want %d", code, auth.ExitUsage)
	}
	if !strings.Contains(err.Error(), "not supported") {
		t.Fatalf("provider should be rejected before later variables, got %v", err)
	}
}

func TestLoadConfigFileAndEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "oauth2nmail.yaml")
	content := "callback-port: 7000\ncallback-path: /cb\npoll-interval: 250ms\npoll-attempts: 8\nproxy-url: http://file-proxy:8080\nauth-base-url: http://127.0.0.1:1\ntoken-auth-style: header\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	env := baseEnv()
	env[EnvConfigFile] = path
	env[EnvProxyURL] = "socks5://env-proxy:1080"
	env[EnvNoBrowser] = "true"

	cfg, err := Load(mapLookup(env))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.CallbackPort != 7000 || cfg.CallbackPath != "/cb" {
		t.Fatalf("file listener settings not applied: %+v", cfg)
	}
	if cfg.PollInterval != 250*time.Millisecond || cfg.PollAttempts != 8 {
		t.Fatalf("file poll settings not applied: %v x %d", cfg.PollInterval, cfg.PollAttempts)
	}
	if cfg.ProxyURL != "socks5://env-proxy:1080" {
		t.Fatalf("env should override file proxy, got %q", cfg.ProxyURL)
	}
	if !cfg.NoBrowser {
		t.Fatal("NoBrowser not applied")
	}
	p, err := cfg.Provider()
	if err != nil {
		t.Fatalf("Provider() error = %v", err)
	}
	if p.Endpoint.TokenURL != "http://127.0.0.1:1/o/oauth2/token" {
		t.Fatalf("TokenURL = %q", p.Endpoint.TokenURL)
	}
	if p.Endpoint.AuthStyle != oauth2.AuthStyleInHeader {
		t.Fatalf("AuthStyle = %v, want header", p.Endpoint.AuthStyle)
	}
}

func TestProviderDefaultAuthStyle(t *testing.T) {
	cfg, err := Load(mapLookup(baseEnv()))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	p, err := cfg.Provider()
	if err != nil {
		t.Fatalf("Provider() error = %v", err)
	}
	if p.Endpoint.AuthStyle != oauth2.AuthStyleInParams {
		t.Fatalf("AuthStyle = %v, want params", p.Endpoint.AuthStyle)
	}
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "oauth2.env")
	if err := os.WriteFile(path, []byte("OAUTH2_CLIENT_ID=from-file\nOAUTH2_CLIENT_SECRET=file-secret\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	env := baseEnv()
	env[EnvEnvFile] = path
	delete(env, EnvClientSecret)

	cfg, err := Load(mapLookup(env))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.ClientID != "9" {
		t.Fatalf("process environment should win, got %q", cfg.ClientID)
	}
	if cfg.ClientSecret != "file-secret" {
		t.Fatalf("env file value not used, got %q", cfg.ClientSecret)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"port zero", func(c *Config) { c.CallbackPort = 0 }},
		{"port too large", func(c *Config) { c.CallbackPort = 70000 }},
		{"relative path", func(c *Config) { c.CallbackPath = "cb" }},
		{"public host", func(c *Config) { c.CallbackHost = "example.com" }},
		{"zero interval", func(c *Config) { c.PollInterval = 0 }},
		{"zero attempts", func(c *Config) { c.PollAttempts = 0 }},
		{"unknown auth style", func(c *Config) { c.TokenAuthStyle = "jwt" }},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}

	cfg := Default()
	cfg.CallbackHost = "127.0.0.1"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("loopback IP rejected: %v", err)
	}
}
