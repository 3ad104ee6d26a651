package credentials

import (
	"errors"
	"fmt"
)

var (
	ErrMissingCredentials = errors.New("database credentials not found in user profile")
	ErrUserNotFound       = errors.New("user not found in identity provider directory")
	ErrNoConfiguredSets   = errors.New("no credential sets configured")
)

// MissingAttributeError names the first required attribute absent from a
// user's directory profile. Required attributes are checked in a fixed order
// so the reported attribute is deterministic.
type MissingAttributeError struct {
	Username  string
	Attribute string
}

func (e *MissingAttributeError) Error() string {
	return fmt.Sprintf("user %q is missing required attribute %q", e.Username, e.Attribute)
}
