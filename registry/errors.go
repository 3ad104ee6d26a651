package registry

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNoDatabasesFound = errors.New("no accessible databases discovered")
	ErrTableNotFound    = errors.New("table not found in any accessible database")
)

// UnknownDatabaseError reports a lookup of a logical database name that is
// not in the registry, listing every valid key.
type UnknownDatabaseError struct {
	Requested string
	Known     []string
}

func (e *UnknownDatabaseError) Error() string {
	return fmt.Sprintf("unknown database %q, known databases: [%s]", e.Requested, strings.Join(e.Known, ", "))
}

// AmbiguousTableError reports a table name owned by more than one database.
type AmbiguousTableError struct {
	Table     string
	Databases []string
}

func (e *AmbiguousTableError) Error() string {
	return fmt.Sprintf("table %q exists in multiple databases: [%s]", e.Table, strings.Join(e.Databases, ", "))
}
