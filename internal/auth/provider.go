// Package auth implements the OAuth2 authorization code flow against the
// supported identity providers. It builds the authorization URL, captures the
// browser redirect on a loopback listener, exchanges codes and refresh tokens
// at the provider's token endpoint and looks up the signed-in identity.
package auth

import (
	"sort"
	"strings"

	"golang.org/x/oauth2"
)

// Provider describes the endpoints and scopes of one identity provider.
type Provider struct {
	// ID is the value of OAUTH2_TYPE selecting this provider.
	ID string
	// BaseURL is the root the authorization and token paths hang off.
	BaseURL string
	// Endpoint holds the authorization and token URLs.
	Endpoint oauth2.Endpoint
	// UserinfoURL is the OpenID Connect identity endpoint.
	UserinfoURL string
	// Scopes are requested in the authorization URL, space separated.
	Scopes []string
}

const (
	authPath  = "/o/oauth2/auth"
	tokenPath = "/o/oauth2/token"
)

// GmailProviderID is the only supported OAUTH2_TYPE.
const GmailProviderID = "gmail-oauth2"

// Gmail is the Google provider used for IMAP/SMTP XOAUTH2.
var Gmail = newProvider(
	GmailProviderID,
	"https://accounts.google.com",
	"https://openidconnect.googleapis.com/v1/userinfo",
	[]string{"openid", "profile", "email", "https://mail.google.com/"},
)

var providers = map[string]Provider{
	Gmail.ID: Gmail,
}

func newProvider(id, baseURL, userinfoURL string, scopes []string) Provider {
	p := Provider{
		ID:          id,
		UserinfoURL: userinfoURL,
		Scopes:      scopes,
		Endpoint:    oauth2.Endpoint{AuthStyle: oauth2.AuthStyleInParams},
	}
	return p.WithBaseURL(baseURL)
}

// LookupProvider returns the provider registered under id.
func LookupProvider(id string) (Provider, error) {
	p, ok := providers[id]
	if !ok {
		return Provider{}, Usagef("OAUTH2_TYPE provider %s not supported (supported: %s)", id, strings.Join(ProviderIDs(), ", "))
	}
	return p, nil
}

// ProviderIDs lists the registered provider identifiers, sorted.
func ProviderIDs() []string {
	ids := make([]string, 0, len(providers))
	for id := range providers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// WithBaseURL returns a copy of p whose authorization and token endpoints
// are rooted at baseURL. The client authentication style is kept.
func (p Provider) WithBaseURL(baseURL string) Provider {
	base := strings.TrimRight(baseURL, "/")
	p.BaseURL = base
	p.Endpoint.AuthURL = base + authPath
	p.Endpoint.TokenURL = base + tokenPath
	return p
}

// WithAuthStyle returns a copy of p that authenticates the client at the
// token endpoint using style. oauth2.AuthStyleAutoDetect is treated as
// oauth2.AuthStyleInParams.
func (p Provider) WithAuthStyle(style oauth2.AuthStyle) Provider {
	p.Endpoint.AuthStyle = style
	return p
}

// WithUserinfoURL returns a copy of p using userinfoURL for identity lookups.
func (p Provider) WithUserinfoURL(userinfoURL string) Provider {
	p.UserinfoURL = userinfoURL
	return p
}

// Scope returns the space separated scope string.
func (p Provider) Scope() string {
	return strings.Join(p.Scopes, " ")
}
