package mssql

import (
	"context"
	"database/sql"

	_ "github.com/microsoft/go-mssqldb"
	"github.com/pkg/errors"
)

const driverName = "sqlserver"

// Catalog answers server-level metadata questions: which databases are online
// and whether a table exists inside one of them. Each call opens a short-lived
// connection and releases it before returning.
type Catalog struct{}

// NewCatalog returns a catalog backed by the go-mssqldb driver.
func NewCatalog() *Catalog {
	return &Catalog{}
}

// OnlineDatabases lists the names of every online database on the server the
// descriptor points at, in whatever order the server returns them. The
// descriptor's Database field is ignored; the query runs against the
// administrative catalog.
func (c *Catalog) OnlineDatabases(ctx context.Context, d Descriptor) ([]string, error) {
	db, err := sql.Open(driverName, d.WithDatabase("").ConnectionString())
	if err != nil {
		return nil, errors.Wrap(err, "[Catalog.OnlineDatabases] open")
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, "SELECT name FROM sys.databases WHERE state = 0 ORDER BY database_id")
	if err != nil {
		return nil, errors.Wrap(err, "[Catalog.OnlineDatabases] query sys.databases")
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, errors.Wrap(err, "[Catalog.OnlineDatabases] scan")
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "[Catalog.OnlineDatabases] rows")
	}
	return names, nil
}

// HasTable reports whether the database the descriptor points at contains a
// table with the given name.
func (c *Catalog) HasTable(ctx context.Context, d Descriptor, table string) (bool, error) {
	db, err := sql.Open(driverName, d.ConnectionString())
	if err != nil {
		return false, errors.Wrap(err, "[Catalog.HasTable] open")
	}
	defer db.Close()

	var count int
	err = db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM INFORMATION_SCHEMA.TABLES WHERE TABLE_NAME = @p1", table,
	).Scan(&count)
	if err != nil {
		return false, errors.Wrap(err, "[Catalog.HasTable] query INFORMATION_SCHEMA.TABLES")
	}
	return count > 0, nil
}
