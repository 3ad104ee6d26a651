package mssql

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// Statement is a parameterized SQL string with its positional arguments.
// Column and table identifiers are bracket-quoted but otherwise trusted;
// only values travel as parameters.
type Statement struct {
	SQL  string
	Args []any
}

// sortedKeys gives statements a deterministic column order regardless of map
// iteration, so the same input always produces the same SQL text.
func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func quoteIdent(name string) string {
	return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
}

// BuildInsert produces an INSERT for one row described by a column map.
func BuildInsert(table string, data map[string]any) (Statement, error) {
	if len(data) == 0 {
		return Statement{}, errors.New("[BuildInsert] 'data' must be a non-empty object")
	}
	keys := sortedKeys(data)
	cols := make([]string, 0, len(keys))
	placeholders := make([]string, 0, len(keys))
	args := make([]any, 0, len(keys))
	for i, k := range keys {
		cols = append(cols, quoteIdent(k))
		placeholders = append(placeholders, fmt.Sprintf("@p%d", i+1))
		args = append(args, data[k])
	}
	sql := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quoteIdent(table), strings.Join(cols, ", "), strings.Join(placeholders, ", "))
	return Statement{SQL: sql, Args: args}, nil
}

// BuildUpdate produces an UPDATE from a column map and an equality condition map.
func BuildUpdate(table string, data, condition map[string]any) (Statement, error) {
	if len(data) == 0 {
		return Statement{}, errors.New("[BuildUpdate] 'data' must be a non-empty object")
	}
	if len(condition) == 0 {
		return Statement{}, errors.New("[BuildUpdate] 'condition' must be a non-empty object")
	}
	var args []any
	n := 0
	setParts := make([]string, 0, len(data))
	for _, k := range sortedKeys(data) {
		n++
		setParts = append(setParts, fmt.Sprintf("%s = @p%d", quoteIdent(k), n))
		args = append(args, data[k])
	}
	whereParts := make([]string, 0, len(condition))
	for _, k := range sortedKeys(condition) {
		n++
		whereParts = append(whereParts, fmt.Sprintf("%s = @p%d", quoteIdent(k), n))
		args = append(args, condition[k])
	}
	sql := fmt.Sprintf("UPDATE %s SET %s WHERE %s",
		quoteIdent(table), strings.Join(setParts, ", "), strings.Join(whereParts, " AND "))
	return Statement{SQL: sql, Args: args}, nil
}

// BuildDelete produces a DELETE from an equality condition map. An empty
// condition is rejected rather than deleting the whole table.
func BuildDelete(table string, condition map[string]any) (Statement, error) {
	if len(condition) == 0 {
		return Statement{}, errors.New("[BuildDelete] 'condition' must be a non-empty object")
	}
	var args []any
	whereParts := make([]string, 0, len(condition))
	for i, k := range sortedKeys(condition) {
		whereParts = append(whereParts, fmt.Sprintf("%s = @p%d", quoteIdent(k), i+1))
		args = append(args, condition[k])
	}
	sql := fmt.Sprintf("DELETE FROM %s WHERE %s", quoteIdent(table), strings.Join(whereParts, " AND "))
	return Statement{SQL: sql, Args: args}, nil
}
