package flow

import (
	"context"

	"github.com/router-for-me/oauth2nmail/internal/auth"
	"github.com/router-for-me/oauth2nmail/internal/tokenstore"
	log "github.com/sirupsen/logrus"
)

// Refresh exchanges the stored refresh token and merges the response over
// the stored record. The file is only rewritten after a successful exchange.
func (o *Orchestrator) Refresh(ctx context.Context) error {
	logger := log.WithField("mode", "refresh").WithField("provider", o.opts.Provider.ID)

	tokens, err := o.readStore()
	if err != nil {
		return err
	}
	refreshToken, ok := tokens.Get(tokenstore.KeyRefreshToken)
	if !ok {
		return auth.Usagef("refresh_token not set in %s", o.opts.TokenStore)
	}

	refreshed, err := o.opts.Client.ExchangeRefresh(ctx, refreshToken)
	if err != nil {
		return err
	}
	tokens.Merge(refreshed)
	if err = o.writeStore(tokens); err != nil {
		return err
	}

	logger.Info("access token refreshed")
	return nil
}
