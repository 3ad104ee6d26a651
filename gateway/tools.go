package gateway

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/rs/zerolog/log"

	"github.com/VenkaiahChowdarycns/mssql-gateway/access"
	"github.com/VenkaiahChowdarycns/mssql-gateway/mssql"
	"github.com/VenkaiahChowdarycns/mssql-gateway/session"
)

func (s *Server) handleLogin(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	username, err := req.RequireString("username")
	if err != nil {
		return s.result(Reject(KindBadRequest, err.Error())), nil
	}
	password, err := req.RequireString("password")
	if err != nil {
		return s.result(Reject(KindBadRequest, err.Error())), nil
	}

	if err := s.manager.Login(ctx, username, password); err != nil {
		log.Warn().Str("user", username).Msg("login failed")
		return s.result(Fail(err, "", password)), nil
	}

	names, err := s.manager.DatabaseNames()
	if err != nil {
		return s.result(Fail(err, "", s.secret())), nil
	}
	return s.result(Ok(map[string]any{"user": username, "databases": names})), nil
}

func (s *Server) handleLogout(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.manager.Logout()
	return s.result(Ok(map[string]any{"action": "logout"})), nil
}

func (s *Server) handleListDatabases(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := s.checkSession(ctx); err != nil {
		return s.result(Fail(err, "", s.secret())), nil
	}
	names, err := s.manager.DatabaseNames()
	if err != nil {
		return s.result(Fail(err, "", s.secret())), nil
	}
	return s.result(Ok(map[string]any{"databases": names})), nil
}

func (s *Server) handleLocateTable(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	table, err := req.RequireString("table")
	if err != nil {
		return s.result(Reject(KindBadRequest, err.Error())), nil
	}
	if err := s.checkSession(ctx); err != nil {
		return s.result(Fail(err, "", s.secret())), nil
	}

	creds, err := s.manager.Credentials()
	if err != nil {
		return s.result(Fail(err, "", "")), nil
	}
	owner, err := s.discoverer.LocateTableOwner(ctx, creds, table)
	if err != nil {
		return s.result(Fail(err, "", creds.Password)), nil
	}
	return s.result(Ok(map[string]any{"table": table, "database": owner})), nil
}

func (s *Server) handleQuery(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return s.result(Reject(KindBadRequest, err.Error())), nil
	}
	database := req.GetString("database", "")
	params, _ := req.GetArguments()["params"].([]any)

	desc, username, res := s.route(ctx, database, access.OpRead)
	if res != nil {
		return s.result(res), nil
	}

	callID := uuid.New().String()
	log.Info().Str("call_id", callID).Str("user", username).Str("database", desc.Database).Msg("query")

	result, err := s.executor.Query(ctx, desc, query, params)
	if err != nil {
		log.Err(err).Str("call_id", callID).Msg("query failed")
		return s.result(Fail(err, desc.Database, desc.Password)), nil
	}
	return s.result(Ok(map[string]any{
		"type":     "query",
		"database": desc.Database,
		"rows":     result.Rows,
		"count":    len(result.Rows),
	})), nil
}

func (s *Server) handleInsert(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	table, err := req.RequireString("table")
	if err != nil {
		return s.result(Reject(KindBadRequest, err.Error())), nil
	}
	data, res := objectArg(req, "data")
	if res != nil {
		return s.result(res), nil
	}
	database := req.GetString("database", "")

	desc, username, res := s.route(ctx, database, access.OpWrite)
	if res != nil {
		return s.result(res), nil
	}

	stmt, err := mssql.BuildInsert(table, data)
	if err != nil {
		return s.result(Reject(KindBadRequest, err.Error())), nil
	}

	log.Info().Str("user", username).Str("database", desc.Database).Str("table", table).Msg("insert")
	affected, err := s.executor.Exec(ctx, desc, stmt)
	if err != nil {
		return s.result(Fail(err, desc.Database, desc.Password)), nil
	}
	return s.result(Ok(map[string]any{
		"action":        "insert",
		"database":      desc.Database,
		"table":         table,
		"rows_affected": affected,
	})), nil
}

func (s *Server) handleUpdate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	table, err := req.RequireString("table")
	if err != nil {
		return s.result(Reject(KindBadRequest, err.Error())), nil
	}
	data, res := objectArg(req, "data")
	if res != nil {
		return s.result(res), nil
	}
	condition, res := objectArg(req, "condition")
	if res != nil {
		return s.result(res), nil
	}
	database := req.GetString("database", "")

	desc, username, res := s.route(ctx, database, access.OpWrite)
	if res != nil {
		return s.result(res), nil
	}

	stmt, err := mssql.BuildUpdate(table, data, condition)
	if err != nil {
		return s.result(Reject(KindBadRequest, err.Error())), nil
	}

	log.Info().Str("user", username).Str("database", desc.Database).Str("table", table).Msg("update")
	affected, err := s.executor.Exec(ctx, desc, stmt)
	if err != nil {
		return s.result(Fail(err, desc.Database, desc.Password)), nil
	}
	return s.result(Ok(map[string]any{
		"action":        "update",
		"database":      desc.Database,
		"table":         table,
		"rows_affected": affected,
	})), nil
}

func (s *Server) handleDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	table, err := req.RequireString("table")
	if err != nil {
		return s.result(Reject(KindBadRequest, err.Error())), nil
	}
	condition, res := objectArg(req, "condition")
	if res != nil {
		return s.result(res), nil
	}
	database := req.GetString("database", "")

	desc, username, res := s.route(ctx, database, access.OpDelete)
	if res != nil {
		return s.result(res), nil
	}

	stmt, err := mssql.BuildDelete(table, condition)
	if err != nil {
		return s.result(Reject(KindBadRequest, err.Error())), nil
	}

	log.Info().Str("user", username).Str("database", desc.Database).Str("table", table).Msg("delete")
	affected, err := s.executor.Exec(ctx, desc, stmt)
	if err != nil {
		return s.result(Fail(err, desc.Database, desc.Password)), nil
	}
	return s.result(Ok(map[string]any{
		"action":        "delete",
		"database":      desc.Database,
		"table":         table,
		"rows_affected": affected,
	})), nil
}

func (s *Server) handleSchema(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	table, err := req.RequireString("table")
	if err != nil {
		return s.result(Reject(KindBadRequest, err.Error())), nil
	}
	database := req.GetString("database", "")

	desc, username, res := s.route(ctx, database, access.OpRead)
	if res != nil {
		return s.result(res), nil
	}

	log.Info().Str("user", username).Str("database", desc.Database).Str("table", table).Msg("schema")
	schema, err := s.executor.TableSchema(ctx, desc, table)
	if err != nil {
		return s.result(Fail(err, desc.Database, desc.Password)), nil
	}
	return s.result(Ok(map[string]any{
		"database": desc.Database,
		"table":    table,
		"schema":   schema,
	})), nil
}

// route performs the per-call gate common to every database tool: freshness,
// verification, access level, and the registry lookup. A non-nil Result means
// the call was refused.
func (s *Server) route(ctx context.Context, database string, op access.Operation) (mssql.Descriptor, string, *Result) {
	username, loggedIn := s.manager.Username()
	if !loggedIn {
		return mssql.Descriptor{}, "", Fail(session.ErrNotLoggedIn, database, "")
	}
	if !s.authorize(username, op) {
		return mssql.Descriptor{}, "", Reject(KindForbidden, "user "+username+" is not authorized for "+string(op)+" operations")
	}
	desc, err := s.manager.Resolve(ctx, database)
	if err != nil {
		return mssql.Descriptor{}, "", Fail(err, database, s.secret())
	}
	return desc, username, nil
}

// checkSession enforces freshness then verification for tools that read
// session metadata without resolving a single database.
func (s *Server) checkSession(ctx context.Context) error {
	if err := s.manager.EnsureFresh(ctx); err != nil {
		return err
	}
	return s.manager.VerifyCall(ctx)
}

// objectArg reads a tool argument that must be a JSON object. A string value
// is decoded exactly once at this boundary; the core only ever sees the
// structured map.
func objectArg(req mcp.CallToolRequest, name string) (map[string]any, *Result) {
	raw, ok := req.GetArguments()[name]
	if !ok || raw == nil {
		return nil, Reject(KindBadRequest, "required argument '"+name+"' is missing")
	}
	switch v := raw.(type) {
	case map[string]any:
		return v, nil
	case string:
		var parsed map[string]any
		if err := json.Unmarshal([]byte(v), &parsed); err != nil {
			return nil, Reject(KindBadRequest, "argument '"+name+"' must be a JSON object")
		}
		return parsed, nil
	default:
		return nil, Reject(KindBadRequest, "argument '"+name+"' must be a JSON object")
	}
}
