package session

import "errors"

var (
	ErrNotLoggedIn    = errors.New("no active session, login required")
	ErrSessionExpired = errors.New("refresh token expired, re-login required")
	ErrInvalidToken   = errors.New("access token failed verification")
)
