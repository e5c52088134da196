package auth

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/router-for-me/oauth2nmail/internal/tokenstore"
	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
	"golang.org/x/oauth2"
)

// maxErrorBody bounds how much of a failed response is echoed back.
const maxErrorBody = 512

// Identity is the subset of the userinfo response that gets persisted.
// HasEmail and HasName record whether the response carried the key at all,
// so an empty value is still stored.
type Identity struct {
	Email    string
	Name     string
	HasEmail bool
	HasName  bool
}

// Client talks to a provider's token and userinfo endpoints.
// Every call is a single attempt; there is no retry.
type Client struct {
	httpClient   *http.Client
	provider     Provider
	clientID     string
	clientSecret string
}

// NewClient creates a Client. A nil httpClient selects http.DefaultClient.
func NewClient(httpClient *http.Client, provider Provider, clientID, clientSecret string) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		httpClient:   httpClient,
		provider:     provider,
		clientID:     clientID,
		clientSecret: clientSecret,
	}
}

// ExchangeCode trades an authorization code for tokens.
func (c *Client) ExchangeCode(ctx context.Context, code, redirectURI string) (*tokenstore.Record, error) {
	data := url.Values{
		"code":          {code},
		"redirect_uri":  {redirectURI},
		"grant_type":    {"authorization_code"},
	}
	return c.postToken(ctx, "token request", data)
}

// ExchangeRefresh trades a refresh token for a new access token.
// Providers usually omit refresh_token from the result.
func (c *Client) ExchangeRefresh(ctx context.Context, refreshToken string) (*tokenstore.Record, error) {
	data := url.Values{
		"refresh_token": {refreshToken},
		"grant_type":    {"refresh_token"},
	}
	return c.postToken(ctx, "token refresh", data)
}

// FetchIdentity looks up the email address and display name of the account
// the access token belongs to.
func (c *Client) FetchIdentity(ctx context.Context, accessToken string) (Identity, error) {
	endpoint, err := url.Parse(c.provider.UserinfoURL)
	if err != nil {
		return Identity{}, NewError(KindUsage, "invalid userinfo endpoint", err)
	}
	query := endpoint.Query()
	query.Set("access_token", accessToken)
	endpoint.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return Identity{}, NewError(KindNetwork, "email address request could not be created", err)
	}
	req.Header.Set("Accept", "application/json")

	body, err := c.do(req, "email address request")
	if err != nil {
		return Identity{}, err
	}
	if !isJSONObject(body) {
		return Identity{}, &Error{Kind: KindHTTPStatus, Message: "email address request returned a malformed response"}
	}

	parsed := gjson.ParseBytes(body)
	email, name := parsed.Get("email"), parsed.Get("name")
	identity := Identity{
		Email:    jsonText(email),
		Name:     jsonText(name),
		HasEmail: email.Exists(),
		HasName:  name.Exists(),
	}
	log.Debugf("userinfo resolved (email present: %t, name present: %t)", identity.HasEmail, identity.HasName)
	return identity, nil
}

// Fields returns the identity as record entries, skipping fields the provider
// did not return.
func (i Identity) Fields() *tokenstore.Record {
	out := tokenstore.NewRecord()
	if i.HasEmail {
		out.Set(tokenstore.KeyEmail, i.Email)
	}
	if i.HasName {
		out.Set(tokenstore.KeyName, i.Name)
	}
	return out
}

// postToken sends data to the token endpoint. Client credentials go into the
// form or, for oauth2.AuthStyleInHeader, into HTTP Basic authentication with
// both parts form-encoded first.
func (c *Client) postToken(ctx context.Context, operation string, data url.Values) (*tokenstore.Record, error) {
	inHeader := c.provider.Endpoint.AuthStyle == oauth2.AuthStyleInHeader
	if !inHeader {
		data.Set("client_id", c.clientID)
		data.Set("client_secret", c.clientSecret)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.provider.Endpoint.TokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, NewError(KindNetwork, operation+" could not be created", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	if inHeader {
		req.SetBasicAuth(url.QueryEscape(c.clientID), url.QueryEscape(c.clientSecret))
	}

	body, err := c.do(req, operation)
	if err != nil {
		return nil, err
	}
	record, err := parseFlatObject(body)
	if err != nil {
		return nil, &Error{Kind: KindHTTPStatus, Message: operation + " returned a malformed response", Cause: err}
	}
	log.WithField("keys", strings.Join(record.Keys(), ",")).Debugf("%s succeeded", operation)
	return record, nil
}

// do sends req and returns the body of a 2xx response.
func (c *Client) do(req *http.Request, operation string) ([]byte, error) {
	log.Debugf("%s: %s %s", operation, req.Method, redactedURL(req.URL))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := req.Context().Err(); ctxErr != nil {
			return nil, NewError(KindInterrupted, operation+" interrupted", ctxErr)
		}
		return nil, NewError(KindNetwork, operation+" http "+strings.ToLower(req.Method)+" failed", err)
	}
	defer func() {
		if errClose := resp.Body.Close(); errClose != nil {
			log.Debugf("failed to close response body: %v", errClose)
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, NewError(KindNetwork, operation+" response could not be read", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, NewHTTPStatusError(operation, resp.StatusCode, truncate(strings.TrimSpace(string(body)), maxErrorBody))
	}
	return body, nil
}

// parseFlatObject converts the top-level members of a JSON object into a
// record in document order. Non-string values keep their raw JSON text.
func parseFlatObject(body []byte) (*tokenstore.Record, error) {
	if !isJSONObject(body) {
		return nil, fmt.Errorf("expected a JSON object")
	}
	record := tokenstore.NewRecord()
	gjson.ParseBytes(body).ForEach(func(key, value gjson.Result) bool {
		record.Set(key.String(), jsonText(value))
		return true
	})
	return record, nil
}

// jsonText returns strings unquoted and any other value as raw JSON.
func jsonText(value gjson.Result) string {
	if value.Type == gjson.String {
		return value.Str
	}
	return value.Raw
}

func isJSONObject(body []byte) bool {
	return gjson.ValidBytes(body) && gjson.ParseBytes(body).IsObject()
}

func redactedURL(u *url.URL) string {
	clone := *u
	if clone.RawQuery != "" {
		clone.RawQuery = "<redacted>"
	}
	return clone.String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
