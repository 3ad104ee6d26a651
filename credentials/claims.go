package credentials

import (
	"context"

	"github.com/pkg/errors"
)

// UserInfoFetcher retrieves the claim set for a bearer token from the
// identity provider's userinfo endpoint.
type UserInfoFetcher interface {
	UserInfo(ctx context.Context, accessToken string) (map[string]any, error)
}

// ClaimsSource reads database credentials directly from a verified identity's
// claim set. Keycloak exposes user attributes either as top-level claims via
// protocol mappers or under a nested "attributes" map, and values are often
// single-element lists; both shapes are handled.
type ClaimsSource struct {
	users    UserInfoFetcher
	defaults Set
}

// NewClaimsSource builds a claims-backed source. defaults supply the server
// coordinates (server, port, driver) when the claim set omits them.
func NewClaimsSource(users UserInfoFetcher, defaults Set) *ClaimsSource {
	return &ClaimsSource{users: users, defaults: defaults}
}

func (s *ClaimsSource) Resolve(ctx context.Context, principal Principal) (*Set, error) {
	claims := principal.Claims
	if claims == nil {
		var err error
		claims, err = s.users.UserInfo(ctx, principal.AccessToken)
		if err != nil {
			return nil, errors.Wrap(err, "[ClaimsSource.Resolve] userinfo")
		}
	}

	set := &Set{
		User:     claimValue(claims, "db_user"),
		Password: claimValue(claims, "db_password"),
		Server:   claimValue(claims, "db_server"),
		Port:     claimValue(claims, "db_port"),
		Driver:   claimValue(claims, "db_driver"),
	}
	if set.User == "" || set.Password == "" {
		return nil, errors.Wrapf(ErrMissingCredentials, "[ClaimsSource.Resolve] user %q", principal.Username)
	}
	for _, key := range databaseHintKeys {
		if v := claimValue(claims, key); v != "" {
			set.PreferredDatabase = v
			break
		}
	}
	set.fill(s.defaults)
	return set, nil
}

// databaseHintKeys is the ordered alternate-key list for the optional
// preferred-database hint.
var databaseHintKeys = []string{"db_database", "database", "db_name", "preferred_db"}

// claimValue reads a claim as a string, accepting a plain value or the first
// element of a list, and falling back to the nested "attributes" sub-map.
func claimValue(claims map[string]any, key string) string {
	if v := flatten(claims[key]); v != "" {
		return v
	}
	attrs, ok := claims["attributes"].(map[string]any)
	if !ok {
		return ""
	}
	return flatten(attrs[key])
}

func flatten(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case []any:
		if len(val) > 0 {
			if s, ok := val[0].(string); ok {
				return s
			}
		}
	case []string:
		if len(val) > 0 {
			return val[0]
		}
	}
	return ""
}
