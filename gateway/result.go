package gateway

import (
	"encoding/json"
	"strings"

	pkgerrors "github.com/pkg/errors"

	"github.com/VenkaiahChowdarycns/mssql-gateway/credentials"
	"github.com/VenkaiahChowdarycns/mssql-gateway/registry"
	"github.com/VenkaiahChowdarycns/mssql-gateway/session"
)

// ErrorKind classifies a failed tool call for the caller.
type ErrorKind string

const (
	KindAuth            ErrorKind = "auth_error"
	KindSessionExpired  ErrorKind = "session_expired"
	KindCredentials     ErrorKind = "credentials_not_found"
	KindNoDatabases     ErrorKind = "no_databases_found"
	KindUnknownDatabase ErrorKind = "unknown_database"
	KindAmbiguousTable  ErrorKind = "ambiguous_table"
	KindTableNotFound   ErrorKind = "table_not_found"
	KindForbidden       ErrorKind = "forbidden"
	KindBadRequest      ErrorKind = "bad_request"
	KindBackend         ErrorKind = "backend_error"
)

// Result is the single tagged success-or-error value every tool returns.
// No fault escapes a tool boundary in any other shape.
type Result struct {
	Status   string         `json:"status"`
	Kind     ErrorKind      `json:"kind,omitempty"`
	Message  string         `json:"message,omitempty"`
	Database string         `json:"database,omitempty"`
	Payload  map[string]any `json:"payload,omitempty"`
}

// Ok builds a success result.
func Ok(payload map[string]any) *Result {
	return &Result{Status: "success", Payload: payload}
}

// Fail builds an error result, classifying the error and redacting any
// secret before the message is formatted.
func Fail(err error, database, secret string) *Result {
	return &Result{
		Status:   "error",
		Kind:     classify(err),
		Message:  redact(err.Error(), secret),
		Database: database,
	}
}

// Reject builds an error result for a request that never reached the core.
func Reject(kind ErrorKind, message string) *Result {
	return &Result{Status: "error", Kind: kind, Message: message}
}

// JSON renders the result for the wire.
func (r *Result) JSON() string {
	data, err := json.Marshal(r)
	if err != nil {
		return `{"status":"error","kind":"backend_error","message":"failed to encode result"}`
	}
	return string(data)
}

// IsError reports whether the result carries a failure.
func (r *Result) IsError() bool {
	return r.Status != "success"
}

func classify(err error) ErrorKind {
	var (
		missingAttr *credentials.MissingAttributeError
		unknownDB   *registry.UnknownDatabaseError
		ambiguous   *registry.AmbiguousTableError
	)
	switch {
	case pkgerrors.Is(err, session.ErrSessionExpired):
		return KindSessionExpired
	case pkgerrors.Is(err, session.ErrNotLoggedIn), pkgerrors.Is(err, session.ErrInvalidToken):
		return KindAuth
	case pkgerrors.Is(err, credentials.ErrMissingCredentials),
		pkgerrors.Is(err, credentials.ErrUserNotFound),
		pkgerrors.Is(err, credentials.ErrNoConfiguredSets),
		pkgerrors.As(err, &missingAttr):
		return KindCredentials
	case pkgerrors.Is(err, registry.ErrNoDatabasesFound):
		return KindNoDatabases
	case pkgerrors.As(err, &unknownDB):
		return KindUnknownDatabase
	case pkgerrors.As(err, &ambiguous):
		return KindAmbiguousTable
	case pkgerrors.Is(err, registry.ErrTableNotFound):
		return KindTableNotFound
	default:
		return KindBackend
	}
}

// redact strips a secret from a message before it can reach the caller or a
// log line.
func redact(message, secret string) string {
	if secret == "" {
		return message
	}
	return strings.ReplaceAll(message, secret, "***")
}
