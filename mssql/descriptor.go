// Package mssql holds the SQL Server side of the gateway: connection
// descriptors, catalog metadata queries and the statement executor.
package mssql

import (
	"fmt"
	"strings"
)

// DefaultConnectTimeout is embedded in every connection string. It is the
// only timeout applied across the call chain; statement execution itself
// is bounded by the caller's context.
const DefaultConnectTimeout = 30

// Descriptor is the resolved, ready-to-use set of parameters for opening one
// physical connection. Descriptors are derived from the registry per call and
// never stored beyond the lifetime of that call.
type Descriptor struct {
	Server   string
	Port     string
	Driver   string
	Database string
	User     string
	Password string
	Encrypt  bool
}

// ConnectionString renders the descriptor in the ADO style accepted by the
// go-mssqldb driver. Contains the password verbatim: never log this form,
// use Redacted instead.
func (d Descriptor) ConnectionString() string {
	parts := []string{
		fmt.Sprintf("server=%s", d.Server),
		fmt.Sprintf("port=%s", d.Port),
		fmt.Sprintf("user id=%s", d.User),
		fmt.Sprintf("password=%s", d.Password),
	}
	if d.Database != "" {
		parts = append(parts, fmt.Sprintf("database=%s", d.Database))
	}
	parts = append(parts,
		fmt.Sprintf("encrypt=%t", d.Encrypt),
		"TrustServerCertificate=true",
		fmt.Sprintf("dial timeout=%d", DefaultConnectTimeout),
	)
	return strings.Join(parts, ";")
}

// Redacted returns the connection string with the password replaced. This is
// the only form that may reach a log line or an error message.
func (d Descriptor) Redacted() string {
	masked := d
	masked.Password = "***"
	return masked.ConnectionString()
}

// WithDatabase returns a copy of the descriptor pointing at another database
// on the same server with the same credentials.
func (d Descriptor) WithDatabase(database string) Descriptor {
	d.Database = database
	return d
}
