package session

import (
	"context"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/VenkaiahChowdarycns/mssql-gateway/credentials"
	"github.com/VenkaiahChowdarycns/mssql-gateway/mssql"
	"github.com/VenkaiahChowdarycns/mssql-gateway/registry"
)

// TokenExchanger exchanges credentials for tokens at the identity provider's
// token endpoint. Satisfied by keycloak.Client.
type TokenExchanger interface {
	PasswordGrant(ctx context.Context, username, password string) (*Tokens, error)
	RefreshGrant(ctx context.Context, refreshToken string) (*Tokens, error)
}

// Verifier checks an access token's signature against the provider's
// published signing keys and validates the audience claim.
type Verifier interface {
	Verify(ctx context.Context, rawToken string) error
}

// RegistryBuilder discovers the database registry for a credential set.
// Satisfied by registry.Discoverer.
type RegistryBuilder interface {
	Discover(ctx context.Context, creds *credentials.Set) (*registry.Registry, error)
}

// Manager is the auth/session state machine. It holds at most one identity
// with its registry; one mutex guards every read-modify-write of the token
// and expiry fields for the full duration of EnsureFresh and the login and
// logout transitions.
type Manager struct {
	exchanger TokenExchanger
	verifier  Verifier
	source    credentials.Source
	builder   RegistryBuilder
	nowFunc   func() time.Time

	mu       sync.Mutex
	identity *Identity
	creds    *credentials.Set
	registry *registry.Registry
}

// ManagerOption modifies a Manager at construction time.
type ManagerOption func(*Manager)

// WithNowFunc sets the time source (primarily for testing).
func WithNowFunc(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.nowFunc = now
	}
}

// NewManager wires the session manager's collaborators.
func NewManager(exchanger TokenExchanger, verifier Verifier, source credentials.Source, builder RegistryBuilder, options ...ManagerOption) (*Manager, error) {
	if exchanger == nil {
		return nil, errors.New("[NewManager] token exchanger is required")
	}
	if verifier == nil {
		return nil, errors.New("[NewManager] verifier is required")
	}
	if source == nil {
		return nil, errors.New("[NewManager] credential source is required")
	}
	if builder == nil {
		return nil, errors.New("[NewManager] registry builder is required")
	}

	m := &Manager{
		exchanger: exchanger,
		verifier:  verifier,
		source:    source,
		builder:   builder,
		nowFunc:   time.Now,
	}
	for _, opt := range options {
		opt(m)
	}
	return m, nil
}

// Login exchanges the username and password for a token pair, resolves the
// caller's database credentials and discovers their registry. Any failure
// leaves the manager logged out and surfaces the provider's error.
func (m *Manager) Login(ctx context.Context, username, password string) error {
	tokens, err := m.exchanger.PasswordGrant(ctx, username, password)
	if err != nil {
		return errors.Wrap(err, "[Manager.Login] password grant")
	}

	principal := credentials.Principal{
		Username:    username,
		AccessToken: tokens.AccessToken,
		Claims:      unverifiedClaims(tokens.AccessToken),
	}
	creds, err := m.source.Resolve(ctx, principal)
	if err != nil {
		return errors.Wrap(err, "[Manager.Login] resolve credentials")
	}

	reg, err := m.builder.Discover(ctx, creds)
	if err != nil {
		return errors.Wrap(err, "[Manager.Login] discover registry")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.identity = &Identity{Username: username, Tokens: *tokens}
	m.creds = creds
	m.registry = reg

	log.Info().Str("user", username).Int("databases", reg.Len()).Msg("login succeeded")
	return nil
}

// EnsureFresh enforces token freshness. A session whose refresh token has
// expired is unusable until re-login, but the registry is retained so cached
// discovery data survives until an explicit logout. An expired access token
// with a live refresh token is exchanged transparently, replacing both tokens
// and both expiries in place.
func (m *Manager) EnsureFresh(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.identity == nil {
		return ErrNotLoggedIn
	}

	now := m.nowFunc()
	if !now.Before(m.identity.Tokens.RefreshExpiry) {
		return ErrSessionExpired
	}
	if now.Before(m.identity.Tokens.AccessExpiry) {
		return nil
	}

	tokens, err := m.exchanger.RefreshGrant(ctx, m.identity.Tokens.RefreshToken)
	if err != nil {
		return errors.Wrap(err, "[Manager.EnsureFresh] refresh grant")
	}
	m.identity.Tokens = *tokens
	log.Debug().Str("user", m.identity.Username).Time("access_expiry", tokens.AccessExpiry).Msg("access token refreshed")
	return nil
}

// VerifyCall cryptographically verifies the held access token against the
// provider's current signing keys and checks the audience claim. It never
// changes session state.
func (m *Manager) VerifyCall(ctx context.Context) error {
	m.mu.Lock()
	if m.identity == nil {
		m.mu.Unlock()
		return ErrNotLoggedIn
	}
	raw := m.identity.Tokens.AccessToken
	m.mu.Unlock()

	if err := m.verifier.Verify(ctx, raw); err != nil {
		return errors.Wrapf(ErrInvalidToken, "[Manager.VerifyCall] %v", err)
	}
	return nil
}

// Logout clears the identity and registry from any state.
func (m *Manager) Logout() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.identity != nil {
		log.Info().Str("user", m.identity.Username).Msg("logged out")
	}
	m.identity = nil
	m.creds = nil
	m.registry = nil
}

// Resolve is the connection router: freshness first (a stale token should
// attempt refresh before being rejected), then signature verification, then
// the registry lookup. An empty name resolves the default database.
func (m *Manager) Resolve(ctx context.Context, name string) (mssql.Descriptor, error) {
	if err := m.EnsureFresh(ctx); err != nil {
		return mssql.Descriptor{}, err
	}
	if err := m.VerifyCall(ctx); err != nil {
		return mssql.Descriptor{}, err
	}

	m.mu.Lock()
	reg := m.registry
	m.mu.Unlock()
	if reg == nil {
		return mssql.Descriptor{}, ErrNotLoggedIn
	}
	return reg.Resolve(name)
}

// Username reports the active identity's name, or false when logged out.
func (m *Manager) Username() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.identity == nil {
		return "", false
	}
	return m.identity.Username, true
}

// Credentials returns the active session's credential set, for operations
// that scan across databases rather than resolving one.
func (m *Manager) Credentials() (*credentials.Set, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.creds == nil {
		return nil, ErrNotLoggedIn
	}
	return m.creds, nil
}

// DatabaseNames lists the logical names in the active registry.
func (m *Manager) DatabaseNames() ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.registry == nil {
		return nil, ErrNotLoggedIn
	}
	return m.registry.Keys(), nil
}

// unverifiedClaims extracts the claim set without signature verification, for
// credential-source matching only. Verification happens separately per call.
func unverifiedClaims(rawToken string) map[string]any {
	token, _, err := jwt.NewParser().ParseUnverified(rawToken, jwt.MapClaims{})
	if err != nil {
		return nil
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil
	}
	return map[string]any(claims)
}
