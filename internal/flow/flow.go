// Package flow sequences the two operations of the helper. Generate runs the
// interactive authorization code flow and stores the resulting tokens;
// Refresh trades the stored refresh token for a new access token.
package flow

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/router-for-me/oauth2nmail/internal/auth"
	"github.com/router-for-me/oauth2nmail/internal/browser"
	"github.com/router-for-me/oauth2nmail/internal/config"
	"github.com/router-for-me/oauth2nmail/internal/tokenstore"
	"github.com/router-for-me/oauth2nmail/internal/util"
	log "github.com/sirupsen/logrus"
)

// TokenClient performs the provider calls.
type TokenClient interface {
	ExchangeCode(ctx context.Context, code, redirectURI string) (*tokenstore.Record, error)
	ExchangeRefresh(ctx context.Context, refreshToken string) (*tokenstore.Record, error)
	FetchIdentity(ctx context.Context, accessToken string) (auth.Identity, error)
}

// RedirectListener receives the browser redirect carrying the code.
type RedirectListener interface {
	Start() error
	Stop(ctx context.Context) error
	RedirectURI() string
	WaitForRedirect(ctx context.Context, interval time.Duration, attempts int) (string, error)
}

// Options wires an Orchestrator.
type Options struct {
	Provider   auth.Provider
	ClientID   string
	TokenStore string

	Client      TokenClient
	NewListener func() RedirectListener

	// OpenBrowser launches the authorization URL.
	OpenBrowser func(url string) error
	// CopyToClipboard is used when no browser could be opened. Optional.
	CopyToClipboard func(url string) error
	// NoBrowser skips OpenBrowser entirely.
	NoBrowser bool
	// Notice receives manual-login instructions. Defaults to stderr.
	Notice io.Writer

	PollInterval time.Duration
	PollAttempts int
}

// Orchestrator runs generate and refresh against one provider and token file.
type Orchestrator struct {
	opts Options
}

// New creates an Orchestrator, filling unset optional fields with defaults.
func New(opts Options) *Orchestrator {
	if opts.Notice == nil {
		opts.Notice = os.Stderr
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = config.DefaultPollInterval
	}
	if opts.PollAttempts <= 0 {
		opts.PollAttempts = config.DefaultPollAttempts
	}
	return &Orchestrator{opts: opts}
}

// FromConfig builds an Orchestrator backed by the real listener, provider
// client and browser.
func FromConfig(cfg *config.Config) (*Orchestrator, error) {
	provider, err := cfg.Provider()
	if err != nil {
		return nil, err
	}
	httpClient, err := util.NewHTTPClient(cfg.ProxyURL)
	if err != nil {
		return nil, auth.NewError(auth.KindUsage, "invalid proxy configuration", err)
	}
	return New(Options{
		Provider:   provider,
		ClientID:   cfg.ClientID,
		TokenStore: cfg.TokenStore,
		Client:     auth.NewClient(httpClient, provider, cfg.ClientID, cfg.ClientSecret),
		NewListener: func() RedirectListener {
			return auth.NewOAuthServer(cfg.CallbackHost, cfg.CallbackPort, cfg.CallbackPath)
		},
		OpenBrowser:     browser.OpenURL,
		CopyToClipboard: browser.CopyURL,
		NoBrowser:       cfg.NoBrowser,
		PollInterval:    cfg.PollInterval,
		PollAttempts:    cfg.PollAttempts,
	}), nil
}

// readStore loads the token file, classifying failures as store errors.
func (o *Orchestrator) readStore() (*tokenstore.Record, error) {
	record, err := tokenstore.Read(o.opts.TokenStore)
	if err != nil {
		return nil, auth.NewError(auth.KindStore, "token store could not be read", err)
	}
	return record, nil
}

// writeStore persists record, classifying failures as store errors.
func (o *Orchestrator) writeStore(record *tokenstore.Record) error {
	if err := tokenstore.Write(o.opts.TokenStore, record); err != nil {
		return auth.NewError(auth.KindStore, "token store could not be written", err)
	}
	return nil
}

// launchBrowser opens authURL, falling back to printed instructions.
func (o *Orchestrator) launchBrowser(authURL string) {
	if !o.opts.NoBrowser && o.opts.OpenBrowser != nil {
		err := o.opts.OpenBrowser(authURL)
		if err == nil {
			log.Debug("browser opened for authentication")
			return
		}
		log.Warnf("could not open browser: %v", err)
	}

	_, _ = fmt.Fprintf(o.opts.Notice, "Open this URL in your browser to authenticate:\n\n%s\n\n", authURL)
	if o.opts.CopyToClipboard == nil {
		return
	}
	if err := o.opts.CopyToClipboard(authURL); err != nil {
		log.Debugf("clipboard copy skipped: %v", err)
		return
	}
	_, _ = fmt.Fprintln(o.opts.Notice, "The URL has also been copied to the clipboard.")
}
