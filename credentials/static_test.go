package credentials_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/VenkaiahChowdarycns/mssql-gateway/credentials"
)

func staticConfig() credentials.StaticConfig {
	return credentials.StaticConfig{
		Server: "db.example.com",
		Port:   "1433",
		Driver: "sqlserver",
		Blocks: []credentials.StaticBlock{
			{Key: "DB1", Database: "Sales", User: "sales_svc", Password: "p1"},
			{Key: "DB2", Database: "HR", User: "hr_svc", Password: "p2"},
		},
	}
}

func TestStaticSource_ExplicitKeyWins(t *testing.T) {
	source := credentials.NewStaticSource(staticConfig())

	set, err := source.Resolve(context.Background(), credentials.Principal{
		Username: "bob",
		Claims:   map[string]any{"db_key": "DB2", "db_user": "sales_svc"},
	})
	require.NoError(t, err)
	require.Equal(t, "HR", set.PreferredDatabase)
	require.Equal(t, "hr_svc", set.User)
}

func TestStaticSource_DBUserMatch(t *testing.T) {
	source := credentials.NewStaticSource(staticConfig())

	set, err := source.Resolve(context.Background(), credentials.Principal{
		Username: "bob",
		Claims:   map[string]any{"db_user": "hr_svc"},
	})
	require.NoError(t, err)
	require.Equal(t, "HR", set.PreferredDatabase)
}

func TestStaticSource_FallsBackToFirstBlock(t *testing.T) {
	source := credentials.NewStaticSource(staticConfig())

	set, err := source.Resolve(context.Background(), credentials.Principal{Username: "bob"})
	require.NoError(t, err)
	require.Equal(t, "Sales", set.PreferredDatabase)
	require.Equal(t, "sales_svc", set.User)
	// Shared coordinates come from the config defaults.
	require.Equal(t, "db.example.com", set.Server)
	require.Equal(t, "1433", set.Port)
}

func TestStaticSource_UnknownKeyFallsThrough(t *testing.T) {
	source := credentials.NewStaticSource(staticConfig())

	set, err := source.Resolve(context.Background(), credentials.Principal{
		Claims: map[string]any{"db_key": "DB9"},
	})
	require.NoError(t, err)
	require.Equal(t, "Sales", set.PreferredDatabase)
}

func TestStaticSource_NoBlocksConfigured(t *testing.T) {
	source := credentials.NewStaticSource(credentials.StaticConfig{})

	_, err := source.Resolve(context.Background(), credentials.Principal{Username: "bob"})
	require.ErrorIs(t, err, credentials.ErrNoConfiguredSets)
}

func TestStaticSource_Keys(t *testing.T) {
	source := credentials.NewStaticSource(staticConfig())
	require.Equal(t, []string{"DB1", "DB2"}, source.Keys())
}
