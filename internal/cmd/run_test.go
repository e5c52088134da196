package cmd

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/router-for-me/oauth2nmail/internal/config"
	"github.com/router-for-me/oauth2nmail/internal/flow"
)

func TestParseMode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		args    []string
		want    Mode
		wantErr bool
	}{
		{[]string{"--generate"}, ModeGenerate, false},
		{[]string{"-g"}, ModeGenerate, false},
		{[]string{"--refresh"}, ModeRefresh, false},
		{[]string{"-r"}, ModeRefresh, false},
		{[]string{"--help"}, ModeHelp, false},
		{[]string{"-h"}, ModeHelp, false},
		{[]string{"--version"}, ModeVersion, false},
		{[]string{"-v"}, ModeVersion, false},
		{nil, ModeNone, true},
		{[]string{"-g", "-r"}, ModeNone, true},
		{[]string{"--bogus"}, ModeNone, true},
		{[]string{"generate"}, ModeNone, true},
		{[]string{"--generate=false"}, ModeNone, true},
		{[]string{"-generate"}, ModeNone, true},
		{[]string{"--g"}, ModeNone, true},
		{[]string{"-g=true"}, ModeNone, true},
		{[]string{"--refresh=1"}, ModeNone, true},
		{[]string{"-help"}, ModeNone, true},
		{[]string{"--v"}, ModeNone, true},
		{[]string{""}, ModeNone, true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(strings.Join(tt.args, " "), func(t *testing.T) {
			t.Parallel()
			got, err := ParseMode(tt.args)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseMode() error = %v, wantErr %t", err, tt.wantErr)
			}
			if got != tt.want {
				t.Fatalf("ParseMode() = %v, want %v", got, tt.want)
			}
		})
	}
}

func envLookup(env map[string]string) config.LookupFunc {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func newRunner(env map[string]string) (*Runner, *bytes.Buffer, *bytes.Buffer) {
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	return &Runner{Stdout: stdout, Stderr: stderr, Lookup: envLookup(env)}, stdout, stderr
}

func TestRunHelpAndVersion(t *testing.T) {
	r, stdout, _ := newRunner(nil)
	if code := r.Run(context.Background(), []string{"-h"}); code != 0 {
		t.Fatalf("help exit = %d", code)
	}
	if !strings.Contains(stdout.String(), "Usage: oauth2nmail --generate") {
		t.Fatalf("usage not printed: %q", stdout.String())
	}

	r, stdout, _ = newRunner(nil)
	if code := r.Run(context.Background(), []string{"--version"}); code != 0 {
		t.Fatalf("version exit = %d", code)
	}
	if !strings.HasPrefix(stdout.String(), "oauth2nmail ") {
		t.Fatalf("version not printed: %q", stdout.String())
	}
}

func TestRunSyntaxError(t *testing.T) {
	r, stdout, _ := newRunner(nil)
	if code := r.Run(context.Background(), []string{"--generate", "--refresh"}); code != 1 {
		t.Fatalf("exit = %d, want 1", code)
	}
	if !strings.Contains(stdout.String(), "Return values:") {
		t.Fatal("usage should be printed on stdout")
	}
}

func TestRunMissingEnvironmentSkipsFlow(t *testing.T) {
	env := map[string]string{
		config.EnvType:         "gmail-oauth2",
		config.EnvClientID:     "9",
		config.EnvClientSecret: "j",
	}
	r, _, stderr := newRunner(env)
	built := false
	r.Build = func(cfg *config.Config) (*flow.Orchestrator, error) {
		built = true
		return flow.FromConfig(cfg)
	}

	if code := r.Run(context.Background(), []string{"-g"}); code != 1 {
		t.Fatalf("exit = %d, want 1", code)
	}
	if built {
		t.Fatal("flow must not be built when configuration is incomplete")
	}
	if got := strings.TrimSpace(stderr.String()); got != "env OAUTH2_TOKEN_STORE not set" {
		t.Fatalf("stderr = %q", got)
	}
}

func TestRunUnsupportedProvider(t *testing.T) {
	r, _, stderr := newRunner(map[string]string{config.EnvType: "unsupported-provider"})
	if code := r.Run(context.Background(), []string{"-r"}); code != 1 {
		t.Fatalf("exit = %d, want 1", code)
	}
	if !strings.Contains(stderr.String(), "not supported") {
		t.Fatalf("stderr = %q", stderr.String())
	}
}

func refreshEnv(t *testing.T, providerURL, store string) map[string]string {
	t.Helper()
	cfgPath := filepath.Join(t.TempDir(), "oauth2nmail.yaml")
	if err := os.WriteFile(cfgPath, []byte("auth-base-url: "+providerURL+"\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return map[string]string{
		config.EnvType:         "gmail-oauth2",
		config.EnvClientID:     "9",
		config.EnvClientSecret: "j",
		config.EnvTokenStore:   store,
		config.EnvConfigFile:   cfgPath,
	}
}

func TestRunRefreshEndToEnd(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/o/oauth2/token" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"access_token":"A2","expires_in":3599}`))
	}))
	defer srv.Close()

	store := filepath.Join(t.TempDir(), "oauth2.tokens")
	if err := os.WriteFile(store, []byte("refresh_token=R\naccess_token=A\n"), 0o600); err != nil {
		t.Fatalf("seed store: %v", err)
	}

	r, _, stderr := newRunner(refreshEnv(t, srv.URL, store))
	if code := r.Run(context.Background(), []string{"--refresh"}); code != 0 {
		t.Fatalf("exit = %d, stderr %q", code, stderr.String())
	}
	data, err := os.ReadFile(store)
	if err != nil {
		t.Fatalf("read store: %v", err)
	}
	if string(data) != "refresh_token=R\naccess_token=A2\nexpires_in=3599\n" {
		t.Fatalf("store = %q", data)
	}
}

func TestRunRefreshNonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
	}))
	defer srv.Close()

	store := filepath.Join(t.TempDir(), "oauth2.tokens")
	if err := os.WriteFile(store, []byte("refresh_token=R\n"), 0o600); err != nil {
		t.Fatalf("seed store: %v", err)
	}

	r, _, stderr := newRunner(refreshEnv(t, srv.URL, store))
	if code := r.Run(context.Background(), []string{"-r"}); code != 5 {
		t.Fatalf("exit = %d, want 5", code)
	}
	if lines := strings.Count(stderr.String(), "\n"); lines != 1 {
		t.Fatalf("expected a single stderr line, got %q", stderr.String())
	}
}
