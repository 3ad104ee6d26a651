package access_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/VenkaiahChowdarycns/mssql-gateway/access"
)

func testStore() *access.Store {
	return access.NewStore(
		access.Mapping{Username: "alice", DBUser: "alice_db", Level: access.LevelReadWrite},
		access.Mapping{Username: "bob", DBUser: "bob_db", Level: access.LevelReadOnly},
		access.Mapping{Username: "carol", DBUser: "carol_db", Level: access.LevelNone},
	)
}

func TestAuthorize(t *testing.T) {
	s := testStore()

	cases := []struct {
		user    string
		op      access.Operation
		allowed bool
	}{
		{"alice", access.OpRead, true},
		{"alice", access.OpWrite, true},
		{"alice", access.OpDelete, true},
		{"bob", access.OpRead, true},
		{"bob", access.OpWrite, false},
		{"bob", access.OpDelete, false},
		{"carol", access.OpRead, false},
		{"mallory", access.OpRead, false}, // unprovisioned users are denied
	}
	for _, tc := range cases {
		t.Run(tc.user+"/"+string(tc.op), func(t *testing.T) {
			require.Equal(t, tc.allowed, s.Authorize(tc.user, tc.op))
		})
	}
}

func TestLoad(t *testing.T) {
	t.Run("reads mapping file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "mapping.json")
		require.NoError(t, os.WriteFile(path, []byte(`{
			"users": [
				{"keycloak_username": "alice", "db_user": "alice_db", "db_access_level": "read_write"},
				{"keycloak_username": "bob", "db_user": "bob_db"}
			]
		}`), 0o600))

		s, err := access.Load(path)
		require.NoError(t, err)

		m, ok := s.Lookup("alice")
		require.True(t, ok)
		require.Equal(t, access.LevelReadWrite, m.Level)

		// Level defaults to read_only when the file omits it.
		m, ok = s.Lookup("bob")
		require.True(t, ok)
		require.Equal(t, access.LevelReadOnly, m.Level)
	})

	t.Run("missing file yields empty store", func(t *testing.T) {
		s, err := access.Load(filepath.Join(t.TempDir(), "absent.json"))
		require.NoError(t, err)
		require.False(t, s.Authorize("anyone", access.OpRead))
	})

	t.Run("malformed file is an error", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "broken.json")
		require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

		_, err := access.Load(path)
		require.Error(t, err)
	})
}
