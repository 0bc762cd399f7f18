// Package mcp exposes deadline extraction and calendar building as MCP tools.
package mcp

import (
	"sort"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/joseph-ayodele/syllabus-calendar/constants"
)

const serverName = "syllabus-calendar"

type toolEntry struct {
	def     mcp.Tool
	handler func(*Handlers) server.ToolHandlerFunc
}

var eventsSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"id":     map[string]any{"type": "string"},
		"title":  map[string]any{"type": "string"},
		"date":   map[string]any{"type": "string", "description": "YYYY-MM-DD"},
		"time":   map[string]any{"type": []any{"string", "null"}, "description": "HH:mm, null for all-day"},
		"type":   map[string]any{"type": "string", "enum": eventTypeEnum()},
		"weight": map[string]any{"type": "string"},
		"notes":  map[string]any{"type": "string"},
		"course": map[string]any{"type": "string"},
	},
	"required": []any{"title", "date", "type"},
}

func eventTypeEnum() []any {
	types := constants.AllEventTypes()
	out := make([]any, len(types))
	for i, t := range types {
		out[i] = string(t)
	}
	return out
}

var toolRegistry = map[string]toolEntry{
	"extract_deadlines": {
		def: mcp.NewTool("extract_deadlines",
			mcp.WithDescription("Extract dated deadlines (exams, assignments, readings) from pasted syllabus text."),
			mcp.WithString("text", mcp.Required(), mcp.Description("Syllabus text")),
			mcp.WithString("course_name", mcp.Description("Overrides the course name found in the text")),
		),
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleExtract },
	},
	"build_calendar": {
		def: mcp.NewTool("build_calendar",
			mcp.WithDescription("Build an iCalendar (.ics) document from deadline events."),
			mcp.WithArray("events", mcp.Required(), mcp.Description("Deadline events"), mcp.Items(eventsSchema)),
		),
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleBuildCalendar },
	},
	"summarize_deadlines": {
		def: mcp.NewTool("summarize_deadlines",
			mcp.WithDescription("Render deadline events as a per-course plain-text or HTML summary."),
			mcp.WithArray("events", mcp.Required(), mcp.Description("Deadline events"), mcp.Items(eventsSchema)),
			mcp.WithString("format", mcp.Description("text (default) or html"), mcp.Enum("text", "html")),
		),
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSummarize },
	},
}

// ToolNames returns the registered tool names in sorted order.
func ToolNames() []string {
	names := make([]string, 0, len(toolRegistry))
	for name := range toolRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewServer builds an MCP server with every tool registered.
func NewServer(h *Handlers, version string) *server.MCPServer {
	s := server.NewMCPServer(serverName, version, server.WithToolCapabilities(true))
	for _, entry := range toolRegistry {
		s.AddTool(entry.def, entry.handler(h))
	}
	return s
}

// Run serves the tools over stdio until stdin closes.
func Run(h *Handlers, version string) error {
	return server.ServeStdio(NewServer(h, version))
}
