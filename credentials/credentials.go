// Package credentials resolves a verified principal into the database
// credential set used to open connections on their behalf. Three
// interchangeable sources implement the same contract: identity-provider
// claims, an admin-directory lookup, and a static multi-tenant configuration.
package credentials

import "context"

// Set is one user's database credentials and server coordinates. It is
// sourced from exactly one Source per login, held in memory for the lifetime
// of the session and never persisted.
type Set struct {
	User              string
	Password          string
	Server            string
	Port              string
	Driver            string
	PreferredDatabase string
}

// Principal identifies the caller a credential set is being resolved for.
// Claims hold the already-parsed token claim set when the caller has one;
// sources that do not need claims ignore them.
type Principal struct {
	Username    string
	AccessToken string
	Claims      map[string]any
}

// Source resolves a principal into a usable credential set.
type Source interface {
	Resolve(ctx context.Context, principal Principal) (*Set, error)
}

// fill copies defaults into any blank coordinate fields of the set. User and
// password are never defaulted.
func (s *Set) fill(defaults Set) {
	if s.Server == "" {
		s.Server = defaults.Server
	}
	if s.Port == "" {
		s.Port = defaults.Port
	}
	if s.Driver == "" {
		s.Driver = defaults.Driver
	}
}
