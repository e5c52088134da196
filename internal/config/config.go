// Package config builds the per-invocation settings of the helper. The four
// required values come from the environment; listener, polling, endpoint and
// logging settings have defaults that an optional YAML file can override.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/router-for-me/oauth2nmail/internal/auth"
	"golang.org/x/oauth2"
	"gopkg.in/yaml.v3"
)

// Environment variable names.
const (
	EnvType         = "OAUTH2_TYPE"
	EnvClientID     = "OAUTH2_CLIENT_ID"
	EnvClientSecret = "OAUTH2_CLIENT_SECRET"
	EnvTokenStore   = "OAUTH2_TOKEN_STORE"
	EnvConfigFile   = "OAUTH2_CONFIG"
	EnvEnvFile      = "OAUTH2_ENV_FILE"
	EnvProxyURL     = "OAUTH2_PROXY_URL"
	EnvNoBrowser    = "OAUTH2_NO_BROWSER"
	EnvLogLevel     = "OAUTH2_LOG_LEVEL"
	EnvLogFile      = "OAUTH2_LOG_FILE"
)

// Defaults for the optional settings.
const (
	DefaultCallbackHost = "localhost"
	DefaultCallbackPort = 6880
	DefaultCallbackPath = "/oauth2nmail.py"
	DefaultPollInterval = time.Second
	DefaultPollAttempts = 60
	DefaultLogLevel     = "warn"
)

// Config holds everything one generate or refresh run needs.
type Config struct {
	// ProviderID is the OAUTH2_TYPE value.
	ProviderID string `yaml:"-"`
	// ClientID is the OAuth client identifier issued by the provider.
	ClientID string `yaml:"-"`
	// ClientSecret is the OAuth client secret issued by the provider.
	ClientSecret string `yaml:"-"`
	// TokenStore is the path of the key=value token file.
	TokenStore string `yaml:"-"`

	// CallbackHost is the loopback host name used in the redirect URI.
	CallbackHost string `yaml:"callback-host"`
	// CallbackPort is the port the redirect listener binds.
	CallbackPort int `yaml:"callback-port"`
	// CallbackPath is the path the provider redirects to.
	CallbackPath string `yaml:"callback-path"`

	// PollInterval is the wait between checks for a captured redirect.
	PollInterval time.Duration `yaml:"poll-interval"`
	// PollAttempts is how many intervals pass before giving up.
	PollAttempts int `yaml:"poll-attempts"`

	// AuthBaseURL overrides the provider's authorization/token base URL.
	AuthBaseURL string `yaml:"auth-base-url"`
	// UserinfoURL overrides the provider's identity endpoint.
	UserinfoURL string `yaml:"userinfo-url"`
	// TokenAuthStyle selects how client credentials reach the token
	// endpoint: "params" (form fields) or "header" (HTTP Basic).
	TokenAuthStyle string `yaml:"token-auth-style"`

	// ProxyURL routes outbound requests through a socks5/http/https proxy.
	ProxyURL string `yaml:"proxy-url"`
	// NoBrowser skips the browser launch and prints the URL instead.
	NoBrowser bool `yaml:"no-browser"`

	// LogLevel is a logrus level name.
	LogLevel string `yaml:"log-level"`
	// LogFile sends logs to a rotating file instead of stderr.
	LogFile string `yaml:"log-file"`
}

// LookupFunc resolves an environment variable.
type LookupFunc func(key string) (string, bool)

// Default returns a Config with every optional setting at its default.
func Default() *Config {
	return &Config{
		CallbackHost: DefaultCallbackHost,
		CallbackPort: DefaultCallbackPort,
		CallbackPath: DefaultCallbackPath,
		PollInterval: DefaultPollInterval,
		PollAttempts: DefaultPollAttempts,
		LogLevel:     DefaultLogLevel,
	}
}

// LoadFromEnv is Load backed by the process environment.
func LoadFromEnv() (*Config, error) {
	return Load(os.LookupEnv)
}

// Load builds and validates a Config. Required variables are checked in a
// fixed order and the first one missing is reported as a usage error.
func Load(lookup LookupFunc) (*Config, error) {
	lookup, err := withEnvFile(lookup)
	if err != nil {
		return nil, err
	}

	cfg := Default()

	required := []struct {
		key string
		dst *string
	}{
		{EnvType, &cfg.ProviderID},
		{EnvClientID, &cfg.ClientID},
		{EnvClientSecret, &cfg.ClientSecret},
		{EnvTokenStore, &cfg.TokenStore},
	}
	for _, r := range required {
		value, ok := lookupNonEmpty(lookup, r.key)
		if !ok {
			return nil, auth.Usagef("env %s not set", r.key)
		}
		*r.dst = value
		if r.key == EnvType {
			if _, err = auth.LookupProvider(value); err != nil {
				return nil, err
			}
		}
	}

	if path, ok := lookupNonEmpty(lookup, EnvConfigFile); ok {
		if err = cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}

	if value, ok := lookupNonEmpty(lookup, EnvProxyURL); ok {
		cfg.ProxyURL = value
	}
	if value, ok := lookupNonEmpty(lookup, EnvNoBrowser); ok {
		noBrowser, errParse := strconv.ParseBool(value)
		if errParse != nil {
			return nil, auth.Usagef("env %s must be a boolean, got %q", EnvNoBrowser, value)
		}
		cfg.NoBrowser = noBrowser
	}
	if value, ok := lookupNonEmpty(lookup, EnvLogLevel); ok {
		cfg.LogLevel = value
	}
	if value, ok := lookupNonEmpty(lookup, EnvLogFile); ok {
		cfg.LogFile = value
	}

	if err = cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// mergeFile overlays the optional settings found in a YAML file.
func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return auth.NewError(auth.KindUsage, fmt.Sprintf("config file %s could not be read", path), err)
	}
	if err = yaml.Unmarshal(data, c); err != nil {
		return auth.NewError(auth.KindUsage, fmt.Sprintf("config file %s is invalid", path), err)
	}
	return nil
}

// Validate checks the optional settings.
func (c *Config) Validate() error {
	if c.CallbackPort < 1 || c.CallbackPort > 65535 {
		return auth.Usagef("callback-port %d out of range", c.CallbackPort)
	}
	if !strings.HasPrefix(c.CallbackPath, "/") {
		return auth.Usagef("callback-path %q must start with /", c.CallbackPath)
	}
	if !isLoopbackHost(c.CallbackHost) {
		return auth.Usagef("callback-host %q is not a loopback address", c.CallbackHost)
	}
	if c.PollInterval <= 0 {
		return auth.Usagef("poll-interval must be positive")
	}
	if c.PollAttempts <= 0 {
		return auth.Usagef("poll-attempts must be positive")
	}
	if _, ok := tokenAuthStyles[c.TokenAuthStyle]; !ok {
		return auth.Usagef("token-auth-style %q must be params or header", c.TokenAuthStyle)
	}
	return nil
}

var tokenAuthStyles = map[string]oauth2.AuthStyle{
	"":       oauth2.AuthStyleAutoDetect,
	"params": oauth2.AuthStyleInParams,
	"header": oauth2.AuthStyleInHeader,
}

// Provider returns the selected provider with any endpoint overrides applied.
func (c *Config) Provider() (auth.Provider, error) {
	p, err := auth.LookupProvider(c.ProviderID)
	if err != nil {
		return auth.Provider{}, err
	}
	if c.AuthBaseURL != "" {
		p = p.WithBaseURL(c.AuthBaseURL)
	}
	if c.UserinfoURL != "" {
		p = p.WithUserinfoURL(c.UserinfoURL)
	}
	if style := tokenAuthStyles[c.TokenAuthStyle]; style != oauth2.AuthStyleAutoDetect {
		p = p.WithAuthStyle(style)
	}
	return p, nil
}

func isLoopbackHost(host string) bool {
	if strings.EqualFold(host, "localhost") {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

func lookupNonEmpty(lookup LookupFunc, key string) (string, bool) {
	value, ok := lookup(key)
	if !ok || strings.TrimSpace(value) == "" {
		return "", false
	}
	return value, true
}

// withEnvFile layers the dotenv file named by OAUTH2_ENV_FILE under lookup.
// Variables already present in the environment win.
func withEnvFile(lookup LookupFunc) (LookupFunc, error) {
	path, ok := lookupNonEmpty(lookup, EnvEnvFile)
	if !ok {
		return lookup, nil
	}
	values, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, auth.Usagef("env file %s does not exist", path)
		}
		return nil, auth.NewError(auth.KindUsage, fmt.Sprintf("env file %s is invalid", path), err)
	}
	return func(key string) (string, bool) {
		if value, found := lookupNonEmpty(lookup, key); found {
			return value, true
		}
		value, found := values[key]
		return value, found
	}, nil
}
