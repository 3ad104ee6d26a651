// Package config assembles the gateway's configuration from the environment
// into one explicit structure passed to each component at construction time.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"

	"github.com/VenkaiahChowdarycns/mssql-gateway/credentials"
)

// CredentialSourceKind selects which credential source strategy the gateway
// runs with. The strategies are interchangeable; exactly one is active.
type CredentialSourceKind string

const (
	SourceClaims CredentialSourceKind = "claims"
	SourceAdmin  CredentialSourceKind = "admin"
	SourceStatic CredentialSourceKind = "static"
)

// Keycloak locates the identity provider realm and clients.
type Keycloak struct {
	URL           string
	Realm         string
	ClientID      string
	ClientSecret  string
	Audience      string
	AdminUsername string
	AdminPassword string
	AdminClientID string
}

// MSSQL holds the shared server coordinate defaults.
type MSSQL struct {
	Server  string
	Port    string
	Driver  string
	Encrypt bool
}

// Config is the full gateway configuration. Loaded once in main and handed
// to components; nothing reads the environment after startup.
type Config struct {
	Transport        string // "stdio" or "http"
	ListenAddr       string
	LogLevel         string
	CredentialSource CredentialSourceKind
	UserMappingFile  string // optional access-level mapping, empty disables gating
	Keycloak         Keycloak
	MSSQL            MSSQL
	Static           credentials.StaticConfig
}

// FromEnv reads the environment into a Config, applying the same defaults
// the deployment has always shipped with.
func FromEnv() (*Config, error) {
	c := &Config{
		Transport:        getEnv("GATEWAY_TRANSPORT", "stdio"),
		ListenAddr:       getEnv("GATEWAY_LISTEN_ADDR", ":8000"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		CredentialSource: CredentialSourceKind(getEnv("CREDENTIAL_SOURCE", string(SourceClaims))),
		UserMappingFile:  getEnv("USER_MAPPING_FILE", ""),
		Keycloak: Keycloak{
			URL:           getEnv("KEYCLOAK_URL", "http://localhost:8080"),
			Realm:         getEnv("KEYCLOAK_REALM", "mssql-mcp"),
			ClientID:      getEnv("KEYCLOAK_CLIENT_ID", "mssql-mcp-server"),
			ClientSecret:  getEnv("KEYCLOAK_CLIENT_SECRET", ""),
			Audience:      getEnv("KEYCLOAK_AUDIENCE", ""),
			AdminUsername: getEnv("KEYCLOAK_ADMIN_USERNAME", ""),
			AdminPassword: getEnv("KEYCLOAK_ADMIN_PASSWORD", ""),
			AdminClientID: getEnv("KEYCLOAK_ADMIN_CLIENT_ID", "admin-cli"),
		},
		MSSQL: MSSQL{
			Server:  getEnv("MSSQL_SERVER", "localhost"),
			Port:    getEnv("MSSQL_PORT", "1433"),
			Driver:  getEnv("MSSQL_DRIVER", "sqlserver"),
			Encrypt: getBool("MSSQL_ENCRYPT", true),
		},
	}
	c.Static = loadStaticBlocks(c.MSSQL)

	switch c.CredentialSource {
	case SourceClaims, SourceAdmin, SourceStatic:
	default:
		return nil, errors.Errorf("[config.FromEnv] unknown CREDENTIAL_SOURCE %q", c.CredentialSource)
	}
	if c.CredentialSource == SourceAdmin && (c.Keycloak.AdminUsername == "" || c.Keycloak.AdminPassword == "") {
		return nil, errors.New("[config.FromEnv] admin credential source requires KEYCLOAK_ADMIN_USERNAME and KEYCLOAK_ADMIN_PASSWORD")
	}
	if c.CredentialSource == SourceStatic && len(c.Static.Blocks) == 0 {
		return nil, errors.New("[config.FromEnv] static credential source requires at least one MSSQL_DB<n>_* block")
	}
	return c, nil
}

// Defaults returns the shared server coordinates as a credential set, for
// sources that fill gaps from configuration.
func (c *Config) Defaults() credentials.Set {
	return credentials.Set{
		Server: c.MSSQL.Server,
		Port:   c.MSSQL.Port,
		Driver: c.MSSQL.Driver,
	}
}

// loadStaticBlocks reads MSSQL_DB1_* .. MSSQL_DB10_* from the environment.
// A block is only kept when name, user and password are all present.
func loadStaticBlocks(shared MSSQL) credentials.StaticConfig {
	cfg := credentials.StaticConfig{
		Server: shared.Server,
		Port:   shared.Port,
		Driver: shared.Driver,
	}
	for i := 1; i <= credentials.MaxStaticSets; i++ {
		key := fmt.Sprintf("DB%d", i)
		prefix := fmt.Sprintf("MSSQL_%s_", key)
		name := os.Getenv(prefix + "NAME")
		user := os.Getenv(prefix + "USER")
		password := os.Getenv(prefix + "PASSWORD")
		if name == "" || user == "" || password == "" {
			continue
		}
		cfg.Blocks = append(cfg.Blocks, credentials.StaticBlock{
			Key:      key,
			Database: name,
			User:     user,
			Password: password,
		})
	}
	return cfg
}

func getEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}

func getBool(envVar string, defaultValue bool) bool {
	value := strings.ToLower(os.Getenv(envVar))
	if value == "" {
		return defaultValue
	}
	switch value {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}
