package tools

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mark3labs/mcp-go/mcp"
)

// RegisterRoutes exposes the tool surface over HTTP for callers that do
// not speak MCP: POST /v1/tools/:name with a JSON argument object.
func (h *Handlers) RegisterRoutes(r *gin.Engine) {
	v1 := r.Group("/v1")
	v1.GET("/tools", h.listTools)
	v1.POST("/tools/:name", h.dispatchTool)
}

func (h *Handlers) listTools(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"tools": AllToolNames()})
}

func (h *Handlers) dispatchTool(c *gin.Context) {
	name := c.Param("name")
	entry, ok := toolRegistry[name]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "unknown tool: " + name})
		return
	}

	args := map[string]any{}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&args); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid JSON body"})
			return
		}
	}

	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args

	result, err := entry.handler(h)(c.Request.Context(), req)
	if err != nil {
		h.log.Error("tool dispatch failed", "tool", name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "internal error"})
		return
	}

	// Handlers return JSON-encoded text content; pass it through without
	// re-encoding.
	for _, content := range result.Content {
		if text, ok := content.(mcp.TextContent); ok {
			c.Data(http.StatusOK, "application/json", []byte(text.Text))
			return
		}
	}
	payload, _ := json.Marshal(gin.H{"ok": false, "error": "empty result"})
	c.Data(http.StatusInternalServerError, "application/json", payload)
}
