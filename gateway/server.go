// Package gateway exposes the credential-brokered database operations as MCP
// tools. Every tool resolves its connection through the session manager and
// returns one tagged success-or-error result.
package gateway

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/pkg/errors"

	"github.com/VenkaiahChowdarycns/mssql-gateway/access"
	"github.com/VenkaiahChowdarycns/mssql-gateway/mssql"
	"github.com/VenkaiahChowdarycns/mssql-gateway/registry"
	"github.com/VenkaiahChowdarycns/mssql-gateway/session"
)

const (
	serverName    = "mssql-gateway"
	serverVersion = "1.0.0"
)

// Server wires the session manager, discovery and the statement executor to
// the MCP tool surface.
type Server struct {
	manager    *session.Manager
	discoverer *registry.Discoverer
	executor   *mssql.Executor
	access     *access.Store // nil disables access-level gating
	mcp        *server.MCPServer
}

// New builds the MCP server and registers the tool set. accessStore may be
// nil when no mapping file is provisioned.
func New(manager *session.Manager, discoverer *registry.Discoverer, executor *mssql.Executor, accessStore *access.Store) (*Server, error) {
	if manager == nil {
		return nil, errors.New("[gateway.New] session manager is required")
	}
	if discoverer == nil {
		return nil, errors.New("[gateway.New] discoverer is required")
	}
	if executor == nil {
		return nil, errors.New("[gateway.New] executor is required")
	}

	s := &Server{
		manager:    manager,
		discoverer: discoverer,
		executor:   executor,
		access:     accessStore,
		mcp:        server.NewMCPServer(serverName, serverVersion, server.WithToolCapabilities(false)),
	}
	s.registerTools()
	return s, nil
}

// ServeStdio blocks serving the MCP protocol over stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// ServeHTTP blocks serving the streamable HTTP transport on addr.
func (s *Server) ServeHTTP(addr string) error {
	return server.NewStreamableHTTPServer(s.mcp).Start(addr)
}

func (s *Server) registerTools() {
	s.mcp.AddTool(mcp.NewTool("login",
		mcp.WithDescription("Authenticate against the identity provider and open a database session."),
		mcp.WithString("username", mcp.Required(), mcp.Description("Identity provider username")),
		mcp.WithString("password", mcp.Required(), mcp.Description("Identity provider password")),
	), s.handleLogin)

	s.mcp.AddTool(mcp.NewTool("logout",
		mcp.WithDescription("End the active session and clear the database registry."),
	), s.handleLogout)

	s.mcp.AddTool(mcp.NewTool("list_databases",
		mcp.WithDescription("List the logical database names available to the active session."),
	), s.handleListDatabases)

	s.mcp.AddTool(mcp.NewTool("locate_table",
		mcp.WithDescription("Find which accessible database owns a table."),
		mcp.WithString("table", mcp.Required(), mcp.Description("Table name to locate")),
	), s.handleLocateTable)

	s.mcp.AddTool(mcp.NewTool("mssql_query",
		mcp.WithDescription("Execute a SELECT query using the session's database credentials."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Parameterized SELECT statement")),
		mcp.WithArray("params", mcp.Description("Positional parameters for the query")),
		mcp.WithString("database", mcp.Description("Logical database name, defaults to the session default")),
	), s.handleQuery)

	s.mcp.AddTool(mcp.NewTool("mssql_insert",
		mcp.WithDescription("Insert one row described by a column map."),
		mcp.WithString("table", mcp.Required(), mcp.Description("Target table")),
		mcp.WithObject("data", mcp.Required(), mcp.Description("Column name to value map")),
		mcp.WithString("database", mcp.Description("Logical database name, defaults to the session default")),
	), s.handleInsert)

	s.mcp.AddTool(mcp.NewTool("mssql_update",
		mcp.WithDescription("Update rows matching an equality condition map."),
		mcp.WithString("table", mcp.Required(), mcp.Description("Target table")),
		mcp.WithObject("data", mcp.Required(), mcp.Description("Column name to new value map")),
		mcp.WithObject("condition", mcp.Required(), mcp.Description("Column name to value equality condition")),
		mcp.WithString("database", mcp.Description("Logical database name, defaults to the session default")),
	), s.handleUpdate)

	s.mcp.AddTool(mcp.NewTool("mssql_delete",
		mcp.WithDescription("Delete rows matching an equality condition map."),
		mcp.WithString("table", mcp.Required(), mcp.Description("Target table")),
		mcp.WithObject("condition", mcp.Required(), mcp.Description("Column name to value equality condition")),
		mcp.WithString("database", mcp.Description("Logical database name, defaults to the session default")),
	), s.handleDelete)

	s.mcp.AddTool(mcp.NewTool("mssql_schema",
		mcp.WithDescription("Describe a table's columns in ordinal position order."),
		mcp.WithString("table", mcp.Required(), mcp.Description("Table to describe")),
		mcp.WithString("database", mcp.Description("Logical database name, defaults to the session default")),
	), s.handleSchema)
}

// authorize applies the optional provisioned access-level gate. With no
// store configured every operation is allowed through to the database's own
// permission checks.
func (s *Server) authorize(username string, op access.Operation) bool {
	if s.access == nil {
		return true
	}
	return s.access.Authorize(username, op)
}

// secret returns the active session's database password so failure messages
// can be scrubbed before formatting.
func (s *Server) secret() string {
	creds, err := s.manager.Credentials()
	if err != nil {
		return ""
	}
	return creds.Password
}

func (s *Server) result(r *Result) *mcp.CallToolResult {
	if r.IsError() {
		return mcp.NewToolResultError(r.JSON())
	}
	return mcp.NewToolResultText(r.JSON())
}
