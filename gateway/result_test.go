package gateway_test

import (
	"encoding/json"
	"testing"

	pkgerrors "github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/VenkaiahChowdarycns/mssql-gateway/credentials"
	"github.com/VenkaiahChowdarycns/mssql-gateway/gateway"
	"github.com/VenkaiahChowdarycns/mssql-gateway/registry"
	"github.com/VenkaiahChowdarycns/mssql-gateway/session"
)

func TestFail_Classification(t *testing.T) {
	cases := []struct {
		name string
		err  error
		kind gateway.ErrorKind
	}{
		{"session expired", session.ErrSessionExpired, gateway.KindSessionExpired},
		{"not logged in", session.ErrNotLoggedIn, gateway.KindAuth},
		{"invalid token", session.ErrInvalidToken, gateway.KindAuth},
		{"missing credentials", credentials.ErrMissingCredentials, gateway.KindCredentials},
		{"user not found", credentials.ErrUserNotFound, gateway.KindCredentials},
		{"missing attribute", &credentials.MissingAttributeError{Username: "alice", Attribute: "db_port"}, gateway.KindCredentials},
		{"no databases", registry.ErrNoDatabasesFound, gateway.KindNoDatabases},
		{"unknown database", &registry.UnknownDatabaseError{Requested: "X", Known: []string{"default"}}, gateway.KindUnknownDatabase},
		{"ambiguous table", &registry.AmbiguousTableError{Table: "Orders", Databases: []string{"Sales", "Archive"}}, gateway.KindAmbiguousTable},
		{"table not found", registry.ErrTableNotFound, gateway.KindTableNotFound},
		{"anything else", pkgerrors.New("connection reset"), gateway.KindBackend},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := gateway.Fail(tc.err, "", "")
			require.Equal(t, "error", r.Status)
			require.Equal(t, tc.kind, r.Kind)
			require.True(t, r.IsError())
		})
	}
}

func TestFail_WrappedErrorsStillClassify(t *testing.T) {
	err := pkgerrors.Wrap(session.ErrSessionExpired, "[Manager.EnsureFresh]")
	r := gateway.Fail(err, "", "")
	require.Equal(t, gateway.KindSessionExpired, r.Kind)
}

func TestFail_RedactsSecret(t *testing.T) {
	err := pkgerrors.New("login failed for connection server=x;password=hunter2;port=1433")
	r := gateway.Fail(err, "Sales", "hunter2")

	require.NotContains(t, r.Message, "hunter2")
	require.Contains(t, r.Message, "password=***")
	require.NotContains(t, r.JSON(), "hunter2")
}

func TestFail_CarriesDatabaseContext(t *testing.T) {
	r := gateway.Fail(registry.ErrTableNotFound, "Sales", "")
	require.Equal(t, "Sales", r.Database)
}

func TestOk_JSONShape(t *testing.T) {
	r := gateway.Ok(map[string]any{"rows": []any{}, "count": 0})
	require.False(t, r.IsError())

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(r.JSON()), &decoded))
	require.Equal(t, "success", decoded["status"])
	require.NotContains(t, decoded, "kind")
	require.NotContains(t, decoded, "message")
}

func TestReject(t *testing.T) {
	r := gateway.Reject(gateway.KindBadRequest, "argument 'data' must be a JSON object")
	require.True(t, r.IsError())
	require.Equal(t, gateway.KindBadRequest, r.Kind)
}
