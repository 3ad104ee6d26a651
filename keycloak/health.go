package keycloak

import (
	"context"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// CheckConnectivity verifies that the realm is reachable and properly
// configured by fetching its OIDC discovery document. Run at startup; the
// server refuses to come up against an unreachable provider.
func CheckConnectivity(ctx context.Context, config Config) error {
	log.Info().
		Str("url", config.BaseURL).
		Str("realm", config.Realm).
		Str("client_id", config.ClientID).
		Msg("checking identity provider connectivity")

	if config.ClientSecret == "" {
		return errors.New("[CheckConnectivity] client secret not configured")
	}
	if _, err := oidc.NewProvider(ctx, config.Issuer()); err != nil {
		return errors.Wrapf(err, "[CheckConnectivity] realm %q unreachable", config.Realm)
	}

	log.Info().Str("realm", config.Realm).Msg("identity provider reachable")
	return nil
}
