// Package session holds the single-slot authenticated session state and the
// manager that drives login, token freshness and per-call verification.
package session

import "time"

// Tokens is one issued access/refresh token pair with both absolute expiry
// instants. Replaced wholesale on refresh and re-login.
type Tokens struct {
	AccessToken   string
	RefreshToken  string
	AccessExpiry  time.Time
	RefreshExpiry time.Time
}

// Identity is a verified principal with its live token pair. Exactly one
// identity is active per process; concurrent sessions for different users are
// out of scope for this gateway.
type Identity struct {
	Username string
	Tokens   Tokens
}
