package main

import (
	"context"
	"fmt"
	"os"
	"runtime/debug"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/VenkaiahChowdarycns/mssql-gateway/access"
	"github.com/VenkaiahChowdarycns/mssql-gateway/credentials"
	"github.com/VenkaiahChowdarycns/mssql-gateway/gateway"
	"github.com/VenkaiahChowdarycns/mssql-gateway/internal/config"
	"github.com/VenkaiahChowdarycns/mssql-gateway/keycloak"
	"github.com/VenkaiahChowdarycns/mssql-gateway/mssql"
	"github.com/VenkaiahChowdarycns/mssql-gateway/registry"
	"github.com/VenkaiahChowdarycns/mssql-gateway/session"
)

const appName = "MSSQL Gateway"

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("gateway stopped")
	}
	log.Info().Msg("gateway stopped")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("recovered from panic")
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	_ = godotenv.Load()

	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}
	setupLogging(cfg.LogLevel)

	// The stdio transport owns stdout; the banner would corrupt the protocol
	// stream there.
	if cfg.Transport == "http" {
		displayAppName(appName)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := keycloak.CheckConnectivity(ctx, keycloakConfig(cfg)); err != nil {
		return errors.Wrap(err, "pre-flight check failed")
	}

	server, err := buildServer(ctx, cfg)
	if err != nil {
		return err
	}

	switch cfg.Transport {
	case "http":
		log.Info().Str("addr", cfg.ListenAddr).Msg("serving MCP over streamable HTTP")
		return server.ServeHTTP(cfg.ListenAddr)
	case "stdio":
		log.Info().Msg("serving MCP over stdio")
		return server.ServeStdio()
	default:
		return errors.Errorf("unknown transport %q", cfg.Transport)
	}
}

func buildServer(ctx context.Context, cfg *config.Config) (*gateway.Server, error) {
	kc, err := keycloak.NewClient(ctx, keycloakConfig(cfg))
	if err != nil {
		return nil, errors.Wrap(err, "identity provider client")
	}

	source, err := credentialSource(cfg, kc)
	if err != nil {
		return nil, err
	}

	discoverer := registry.NewDiscoverer(mssql.NewCatalog(), cfg.MSSQL.Encrypt)
	manager, err := session.NewManager(kc, kc, source, discoverer)
	if err != nil {
		return nil, errors.Wrap(err, "session manager")
	}

	var accessStore *access.Store
	if cfg.UserMappingFile != "" {
		accessStore, err = access.Load(cfg.UserMappingFile)
		if err != nil {
			return nil, errors.Wrap(err, "user access mappings")
		}
	}

	return gateway.New(manager, discoverer, mssql.NewExecutor(), accessStore)
}

func credentialSource(cfg *config.Config, kc *keycloak.Client) (credentials.Source, error) {
	switch cfg.CredentialSource {
	case config.SourceClaims:
		return credentials.NewClaimsSource(kc, cfg.Defaults()), nil
	case config.SourceAdmin:
		return credentials.NewAdminSource(keycloak.NewAdminClient(keycloak.AdminConfig{
			BaseURL:  cfg.Keycloak.URL,
			Realm:    cfg.Keycloak.Realm,
			Username: cfg.Keycloak.AdminUsername,
			Password: cfg.Keycloak.AdminPassword,
			ClientID: cfg.Keycloak.AdminClientID,
		})), nil
	case config.SourceStatic:
		return credentials.NewStaticSource(cfg.Static), nil
	default:
		return nil, errors.Errorf("unknown credential source %q", cfg.CredentialSource)
	}
}

func keycloakConfig(cfg *config.Config) keycloak.Config {
	return keycloak.Config{
		BaseURL:      cfg.Keycloak.URL,
		Realm:        cfg.Keycloak.Realm,
		ClientID:     cfg.Keycloak.ClientID,
		ClientSecret: cfg.Keycloak.ClientSecret,
		Audience:     cfg.Keycloak.Audience,
	}
}

func setupLogging(level string) {
	parsed, err := zerolog.ParseLevel(level)
	if err != nil {
		parsed = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(parsed)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
}

func displayAppName(name string) {
	myFigure := figure.NewFigure(name, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
