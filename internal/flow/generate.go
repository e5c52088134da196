package flow

import (
	"context"

	"github.com/router-for-me/oauth2nmail/internal/auth"
	"github.com/router-for-me/oauth2nmail/internal/tokenstore"
	log "github.com/sirupsen/logrus"
)

// Generate runs the interactive flow: browser consent, redirect capture,
// code exchange, identity lookup. Tokens are written as soon as the exchange
// succeeds and stay on disk even if a later step fails.
func (o *Orchestrator) Generate(ctx context.Context) error {
	logger := log.WithField("mode", "generate").WithField("provider", o.opts.Provider.ID)

	listener := o.opts.NewListener()
	if err := listener.Start(); err != nil {
		return err
	}
	defer func() {
		if errStop := listener.Stop(context.Background()); errStop != nil {
			logger.Debugf("redirect listener shutdown: %v", errStop)
		}
	}()

	redirectURI := listener.RedirectURI()
	authURL := auth.BuildAuthURL(o.opts.Provider, o.opts.ClientID, redirectURI)
	o.launchBrowser(authURL)

	target, err := listener.WaitForRedirect(ctx, o.opts.PollInterval, o.opts.PollAttempts)
	if err != nil {
		return err
	}
	code, err := auth.ParseRedirect(target)
	if err != nil {
		return err
	}

	exchanged, err := o.opts.Client.ExchangeCode(ctx, code, redirectURI)
	if err != nil {
		return err
	}
	if err = o.writeStore(exchanged); err != nil {
		return err
	}
	tokens, err := o.readStore()
	if err != nil {
		return err
	}

	accessToken, ok := tokens.Get(tokenstore.KeyAccessToken)
	if !ok {
		return auth.NewError(auth.KindTokenUnavailable, "access_token not available", nil)
	}

	identity, err := o.opts.Client.FetchIdentity(ctx, accessToken)
	if err != nil {
		return err
	}
	tokens.Merge(identity.Fields())
	if err = o.writeStore(tokens); err != nil {
		return err
	}

	logger.Info("tokens generated")
	return nil
}
