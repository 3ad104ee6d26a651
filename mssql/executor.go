package mssql

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
)

// QueryResult carries rows returned by a SELECT as column-name maps.
type QueryResult struct {
	Columns []string
	Rows    []map[string]any
}

// ColumnInfo is one row of a table schema description.
type ColumnInfo struct {
	Name     string `json:"column_name"`
	DataType string `json:"data_type"`
	Nullable string `json:"is_nullable"`
	Default  any    `json:"column_default"`
}

// Executor opens one connection per statement against the database a
// descriptor points at and guarantees release on every exit path.
type Executor struct{}

// NewExecutor returns a statement executor backed by the go-mssqldb driver.
func NewExecutor() *Executor {
	return &Executor{}
}

// Query runs a SELECT (or any row-returning statement) and normalizes the
// result set into maps keyed by column name.
func (e *Executor) Query(ctx context.Context, d Descriptor, query string, args []any) (*QueryResult, error) {
	db, err := sql.Open(driverName, d.ConnectionString())
	if err != nil {
		return nil, errors.Wrap(err, "[Executor.Query] open")
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "[Executor.Query] query")
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, errors.Wrap(err, "[Executor.Query] columns")
	}

	result := &QueryResult{Columns: cols, Rows: []map[string]any{}}
	values := make([]any, len(cols))
	scanTargets := make([]any, len(cols))
	for i := range values {
		scanTargets[i] = &values[i]
	}
	for rows.Next() {
		if err := rows.Scan(scanTargets...); err != nil {
			return nil, errors.Wrap(err, "[Executor.Query] scan")
		}
		row := make(map[string]any, len(cols))
		for i, col := range cols {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
			} else {
				row[col] = values[i]
			}
		}
		result.Rows = append(result.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "[Executor.Query] rows")
	}
	return result, nil
}

// Exec runs a statement that returns no rows and reports the affected count.
func (e *Executor) Exec(ctx context.Context, d Descriptor, stmt Statement) (int64, error) {
	db, err := sql.Open(driverName, d.ConnectionString())
	if err != nil {
		return 0, errors.Wrap(err, "[Executor.Exec] open")
	}
	defer db.Close()

	res, err := db.ExecContext(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		return 0, errors.Wrap(err, "[Executor.Exec] exec")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "[Executor.Exec] rows affected")
	}
	return affected, nil
}

// TableSchema describes a table's columns in ordinal position order.
func (e *Executor) TableSchema(ctx context.Context, d Descriptor, table string) ([]ColumnInfo, error) {
	db, err := sql.Open(driverName, d.ConnectionString())
	if err != nil {
		return nil, errors.Wrap(err, "[Executor.TableSchema] open")
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, `
		SELECT COLUMN_NAME, DATA_TYPE, IS_NULLABLE, COLUMN_DEFAULT
		FROM INFORMATION_SCHEMA.COLUMNS
		WHERE TABLE_NAME = @p1
		ORDER BY ORDINAL_POSITION`, table)
	if err != nil {
		return nil, errors.Wrap(err, "[Executor.TableSchema] query INFORMATION_SCHEMA.COLUMNS")
	}
	defer rows.Close()

	var schema []ColumnInfo
	for rows.Next() {
		var col ColumnInfo
		var def sql.NullString
		if err := rows.Scan(&col.Name, &col.DataType, &col.Nullable, &def); err != nil {
			return nil, errors.Wrap(err, "[Executor.TableSchema] scan")
		}
		if def.Valid {
			col.Default = def.String
		}
		schema = append(schema, col)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "[Executor.TableSchema] rows")
	}
	return schema, nil
}
