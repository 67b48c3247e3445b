package tools

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// toolEntry pairs a tool definition with a handler factory.
type toolEntry struct {
	def     mcp.Tool
	handler func(*Handlers) server.ToolHandlerFunc
}

// toolRegistry is the closed dispatch table: every tool name binds a
// fixed schema to one handler, validated at the boundary.
var toolRegistry = map[string]toolEntry{
	"search": {
		def:     searchToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSearch },
	},
	"fetch": {
		def:     fetchToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleFetch },
	},
	"analyze_pools": {
		def:     analyzePoolsToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleAnalyzePools },
	},
	"pool_bridge": {
		def:     poolBridgeToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandlePoolBridge },
	},
	"location_neighbors": {
		def:     locationNeighborsToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleLocationNeighbors },
	},
	"set_persona": {
		def:     setPersonaToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSetPersona },
	},
	"clear_persona": {
		def:     clearPersonaToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleClearPersona },
	},
}

// AllToolNames lists every registered tool name.
func AllToolNames() []string {
	names := make([]string, 0, len(toolRegistry))
	for name := range toolRegistry {
		names = append(names, name)
	}
	return names
}

// NewMCPServer builds an MCP server with every tool registered.
func NewMCPServer(h *Handlers, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"playalore",
		version,
		server.WithToolCapabilities(true),
	)
	for _, entry := range toolRegistry {
		s.AddTool(entry.def, entry.handler(h))
	}
	return s
}

// ServeStdio runs the MCP server over stdio until the client hangs up.
func ServeStdio(h *Handlers, version string) error {
	return server.ServeStdio(NewMCPServer(h, version))
}
