package credentials_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/VenkaiahChowdarycns/mssql-gateway/credentials"
)

type fakeDirectory struct {
	attrs map[string][]string
	err   error
}

func (f *fakeDirectory) UserAttributes(ctx context.Context, username string) (map[string][]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.attrs, nil
}

func fullProfile() map[string][]string {
	return map[string][]string{
		"db_user":     {"alice_db"},
		"db_password": {"secret"},
		"db_server":   {"db.example.com"},
		"db_port":     {"1433"},
		"db_driver":   {"sqlserver"},
	}
}

func TestAdminSource_ResolvesFullProfile(t *testing.T) {
	source := credentials.NewAdminSource(&fakeDirectory{attrs: fullProfile()})

	set, err := source.Resolve(context.Background(), credentials.Principal{Username: "alice"})
	require.NoError(t, err)
	require.Equal(t, &credentials.Set{
		User:     "alice_db",
		Password: "secret",
		Server:   "db.example.com",
		Port:     "1433",
		Driver:   "sqlserver",
	}, set)
}

func TestAdminSource_UserNotFound(t *testing.T) {
	source := credentials.NewAdminSource(&fakeDirectory{err: credentials.ErrUserNotFound})

	_, err := source.Resolve(context.Background(), credentials.Principal{Username: "ghost"})
	require.ErrorIs(t, err, credentials.ErrUserNotFound)
}

func TestAdminSource_MissingAttributeOrderIsDeterministic(t *testing.T) {
	// Both db_password and db_port are absent; the fixed check order must
	// always report db_password first.
	attrs := fullProfile()
	delete(attrs, "db_password")
	delete(attrs, "db_port")
	source := credentials.NewAdminSource(&fakeDirectory{attrs: attrs})

	_, err := source.Resolve(context.Background(), credentials.Principal{Username: "alice"})
	var missing *credentials.MissingAttributeError
	require.ErrorAs(t, err, &missing)
	require.Equal(t, "db_password", missing.Attribute)
	require.Equal(t, "alice", missing.Username)
}

func TestAdminSource_EveryRequiredAttributeChecked(t *testing.T) {
	for _, key := range []string{"db_user", "db_password", "db_server", "db_port", "db_driver"} {
		t.Run(key, func(t *testing.T) {
			attrs := fullProfile()
			delete(attrs, key)
			source := credentials.NewAdminSource(&fakeDirectory{attrs: attrs})

			_, err := source.Resolve(context.Background(), credentials.Principal{Username: "alice"})
			var missing *credentials.MissingAttributeError
			require.ErrorAs(t, err, &missing)
			require.Equal(t, key, missing.Attribute)
		})
	}
}

func TestAdminSource_DatabaseHintAlternateKeys(t *testing.T) {
	attrs := fullProfile()
	attrs["preferred_db"] = []string{"Fallback"}
	attrs["database"] = []string{"Preferred"} // earlier in the alternate-key list
	source := credentials.NewAdminSource(&fakeDirectory{attrs: attrs})

	set, err := source.Resolve(context.Background(), credentials.Principal{Username: "alice"})
	require.NoError(t, err)
	require.Equal(t, "Preferred", set.PreferredDatabase)
}
