// Package keycloak is the identity-provider client: token grants, userinfo,
// signature verification against the realm's published keys, and the
// administrative user directory.
package keycloak

import (
	"context"
	"strings"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/pkg/errors"
	"golang.org/x/oauth2"

	"github.com/VenkaiahChowdarycns/mssql-gateway/session"
)

// defaultRefreshTTL is assumed when the token response omits
// refresh_expires_in. Keycloak normally includes it; the fallback only keeps
// a session from being born expired.
const defaultRefreshTTL = 30 * time.Minute

// Config locates the realm and the confidential client the gateway
// authenticates as.
type Config struct {
	BaseURL      string
	Realm        string
	ClientID     string
	ClientSecret string
	// Audience expected in access tokens; defaults to ClientID.
	Audience string
}

// Issuer is the realm's OIDC issuer URL.
func (c Config) Issuer() string {
	return strings.TrimRight(c.BaseURL, "/") + "/realms/" + c.Realm
}

// Client talks to one Keycloak realm. It wraps OIDC discovery, the password
// and refresh grants, the userinfo endpoint and JWKS-backed verification.
type Client struct {
	config   Config
	provider *oidc.Provider
	oauth    *oauth2.Config
	verifier *oidc.IDTokenVerifier
	nowFunc  func() time.Time
}

// ClientOption modifies a Client at construction time.
type ClientOption func(*Client)

// WithNowFunc sets the time source (primarily for testing).
func WithNowFunc(now func() time.Time) ClientOption {
	return func(c *Client) {
		c.nowFunc = now
	}
}

// NewClient runs OIDC discovery against the realm and prepares the grant and
// verification machinery. The provider's JWKS is fetched and cached by the
// verifier as needed.
func NewClient(ctx context.Context, config Config, options ...ClientOption) (*Client, error) {
	provider, err := oidc.NewProvider(ctx, config.Issuer())
	if err != nil {
		return nil, errors.Wrap(err, "[NewClient] oidc discovery")
	}

	audience := config.Audience
	if audience == "" {
		audience = config.ClientID
	}

	c := &Client{
		config:   config,
		provider: provider,
		oauth: &oauth2.Config{
			ClientID:     config.ClientID,
			ClientSecret: config.ClientSecret,
			Endpoint:     provider.Endpoint(),
			Scopes:       []string{oidc.ScopeOpenID},
		},
		verifier: provider.Verifier(&oidc.Config{ClientID: audience}),
		nowFunc:  time.Now,
	}
	for _, opt := range options {
		opt(c)
	}
	return c, nil
}

// PasswordGrant exchanges a username and password for a token pair.
func (c *Client) PasswordGrant(ctx context.Context, username, password string) (*session.Tokens, error) {
	tok, err := c.oauth.PasswordCredentialsToken(ctx, username, password)
	if err != nil {
		return nil, errors.Wrap(err, "[Client.PasswordGrant] token endpoint")
	}
	return c.tokens(tok), nil
}

// RefreshGrant exchanges a refresh token for a new token pair. Keycloak
// rotates the refresh token, so both tokens and both expiries are replaced.
func (c *Client) RefreshGrant(ctx context.Context, refreshToken string) (*session.Tokens, error) {
	tok, err := c.oauth.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		return nil, errors.Wrap(err, "[Client.RefreshGrant] token endpoint")
	}
	return c.tokens(tok), nil
}

// UserInfo fetches the claim set for an access token from the userinfo
// endpoint.
func (c *Client) UserInfo(ctx context.Context, accessToken string) (map[string]any, error) {
	info, err := c.provider.UserInfo(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: accessToken,
		TokenType:   "Bearer",
	}))
	if err != nil {
		return nil, errors.Wrap(err, "[Client.UserInfo] userinfo endpoint")
	}
	var claims map[string]any
	if err := info.Claims(&claims); err != nil {
		return nil, errors.Wrap(err, "[Client.UserInfo] decode claims")
	}
	return claims, nil
}

// Verify checks the raw token's signature against the realm's current signing
// keys and validates the audience claim.
func (c *Client) Verify(ctx context.Context, rawToken string) error {
	if _, err := c.verifier.Verify(ctx, rawToken); err != nil {
		return errors.Wrap(err, "[Client.Verify]")
	}
	return nil
}

func (c *Client) tokens(tok *oauth2.Token) *session.Tokens {
	refreshExpiry := c.nowFunc().Add(defaultRefreshTTL)
	if v, ok := tok.Extra("refresh_expires_in").(float64); ok && v > 0 {
		refreshExpiry = c.nowFunc().Add(time.Duration(v) * time.Second)
	}
	return &session.Tokens{
		AccessToken:   tok.AccessToken,
		RefreshToken:  tok.RefreshToken,
		AccessExpiry:  tok.Expiry,
		RefreshExpiry: refreshExpiry,
	}
}
