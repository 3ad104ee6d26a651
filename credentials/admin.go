package credentials

import (
	"context"

	"github.com/pkg/errors"
)

// AdminDirectory looks a user up in the identity provider's administrative
// API and returns their profile attributes. Implementations return
// ErrUserNotFound when no user matches the name.
type AdminDirectory interface {
	UserAttributes(ctx context.Context, username string) (map[string][]string, error)
}

// requiredAttributes is the fixed check order for AdminSource, so the first
// reported missing attribute is deterministic.
var requiredAttributes = []string{"db_user", "db_password", "db_server", "db_port", "db_driver"}

// AdminSource resolves credentials by looking the target user up through a
// service/admin principal and reading the full attribute set from their
// profile. Unlike ClaimsSource it requires every coordinate attribute to be
// present on the profile.
type AdminSource struct {
	directory AdminDirectory
}

func NewAdminSource(directory AdminDirectory) *AdminSource {
	return &AdminSource{directory: directory}
}

func (s *AdminSource) Resolve(ctx context.Context, principal Principal) (*Set, error) {
	attrs, err := s.directory.UserAttributes(ctx, principal.Username)
	if err != nil {
		return nil, errors.Wrap(err, "[AdminSource.Resolve] directory lookup")
	}

	values := make(map[string]string, len(requiredAttributes))
	for _, key := range requiredAttributes {
		v := firstAttr(attrs, key)
		if v == "" {
			return nil, &MissingAttributeError{Username: principal.Username, Attribute: key}
		}
		values[key] = v
	}

	set := &Set{
		User:     values["db_user"],
		Password: values["db_password"],
		Server:   values["db_server"],
		Port:     values["db_port"],
		Driver:   values["db_driver"],
	}
	for _, key := range databaseHintKeys {
		if v := firstAttr(attrs, key); v != "" {
			set.PreferredDatabase = v
			break
		}
	}
	return set, nil
}

func firstAttr(attrs map[string][]string, key string) string {
	if vals, ok := attrs[key]; ok && len(vals) > 0 {
		return vals[0]
	}
	return ""
}
