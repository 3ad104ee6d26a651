package credentials_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/VenkaiahChowdarycns/mssql-gateway/credentials"
)

type fakeUserInfo struct {
	claims map[string]any
	err    error
	calls  int
}

func (f *fakeUserInfo) UserInfo(ctx context.Context, accessToken string) (map[string]any, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.claims, nil
}

func defaults() credentials.Set {
	return credentials.Set{Server: "db.example.com", Port: "1433", Driver: "sqlserver"}
}

func TestClaimsSource_TopLevelClaims(t *testing.T) {
	source := credentials.NewClaimsSource(&fakeUserInfo{}, defaults())

	set, err := source.Resolve(context.Background(), credentials.Principal{
		Username: "alice",
		Claims: map[string]any{
			"db_user":     "alice_db",
			"db_password": "secret",
		},
	})
	require.NoError(t, err)
	require.Equal(t, "alice_db", set.User)
	require.Equal(t, "secret", set.Password)
	// Coordinates fall back to configured defaults.
	require.Equal(t, "db.example.com", set.Server)
	require.Equal(t, "1433", set.Port)
	require.Equal(t, "sqlserver", set.Driver)
}

func TestClaimsSource_FirstOfListValues(t *testing.T) {
	source := credentials.NewClaimsSource(&fakeUserInfo{}, defaults())

	set, err := source.Resolve(context.Background(), credentials.Principal{
		Claims: map[string]any{
			"db_user":     []any{"alice_db", "ignored"},
			"db_password": []any{"secret"},
		},
	})
	require.NoError(t, err)
	require.Equal(t, "alice_db", set.User)
	require.Equal(t, "secret", set.Password)
}

func TestClaimsSource_NestedAttributesFallback(t *testing.T) {
	source := credentials.NewClaimsSource(&fakeUserInfo{}, defaults())

	set, err := source.Resolve(context.Background(), credentials.Principal{
		Claims: map[string]any{
			"attributes": map[string]any{
				"db_user":     []any{"alice_db"},
				"db_password": []any{"secret"},
				"db_server":   []any{"other.example.com"},
			},
		},
	})
	require.NoError(t, err)
	require.Equal(t, "alice_db", set.User)
	require.Equal(t, "other.example.com", set.Server)
}

func TestClaimsSource_MissingCredentials(t *testing.T) {
	source := credentials.NewClaimsSource(&fakeUserInfo{}, defaults())

	for name, claims := range map[string]map[string]any{
		"no user":     {"db_password": "secret"},
		"no password": {"db_user": "alice_db"},
		"empty":       {},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := source.Resolve(context.Background(), credentials.Principal{Username: "alice", Claims: claims})
			require.ErrorIs(t, err, credentials.ErrMissingCredentials)
			require.Contains(t, err.Error(), "alice")
		})
	}
}

func TestClaimsSource_FetchesUserInfoWhenClaimsAbsent(t *testing.T) {
	users := &fakeUserInfo{claims: map[string]any{
		"db_user":     "alice_db",
		"db_password": "secret",
	}}
	source := credentials.NewClaimsSource(users, defaults())

	set, err := source.Resolve(context.Background(), credentials.Principal{AccessToken: "token"})
	require.NoError(t, err)
	require.Equal(t, "alice_db", set.User)
	require.Equal(t, 1, users.calls)
}

func TestClaimsSource_DatabaseHintKeyOrder(t *testing.T) {
	source := credentials.NewClaimsSource(&fakeUserInfo{}, defaults())

	set, err := source.Resolve(context.Background(), credentials.Principal{
		Claims: map[string]any{
			"db_user":     "alice_db",
			"db_password": "secret",
			"db_name":     "Fallback",
			"db_database": "Preferred", // first key in the alternate list wins
		},
	})
	require.NoError(t, err)
	require.Equal(t, "Preferred", set.PreferredDatabase)
}
