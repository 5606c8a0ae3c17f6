// Package mcp serves covgap reports to MCP clients over stdio.
package mcp

import (
	"context"
	"fmt"
	"sort"
	"sync"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/zjy-dev/covgap/internal/logger"
	"github.com/zjy-dev/covgap/internal/report"
)

// toolCount is the number of registered tools.
const toolCount = 2

// Server wraps the MCP SDK server with the covgap tools registered.
type Server struct {
	inner   *mcpsdk.Server
	version string
	root    string

	mu    sync.RWMutex
	tools []string
}

// NewServer creates a server whose tools resolve coverage paths against root.
func NewServer(version, root string) *Server {
	inner := mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    report.ToolName,
			Version: version,
		},
		&mcpsdk.ServerOptions{},
	)

	srv := &Server{
		inner:   inner,
		version: version,
		root:    root,
		tools:   make([]string, 0, toolCount),
	}
	srv.registerTools()
	return srv
}

// ListToolNames returns the sorted names of all registered tools.
func (s *Server) ListToolNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, len(s.tools))
	copy(names, s.tools)
	sort.Strings(names)
	return names
}

// Run serves on stdin/stdout until ctx is canceled or the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	return s.RunWithTransport(ctx, &mcpsdk.StdioTransport{})
}

// RunWithTransport serves on transport until ctx is canceled or the
// connection closes.
func (s *Server) RunWithTransport(ctx context.Context, transport mcpsdk.Transport) error {
	logger.Info("mcp server %s starting with %d tools", s.version, len(s.ListToolNames()))
	if err := s.inner.Run(ctx, transport); err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}
	return nil
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.inner, &mcpsdk.Tool{
		Name:        ToolNameReport,
		Description: reportToolDescription,
	}, s.handleReport)
	s.trackTool(ToolNameReport)

	mcpsdk.AddTool(s.inner, &mcpsdk.Tool{
		Name:        ToolNameDiff,
		Description: diffToolDescription,
	}, s.handleDiff)
	s.trackTool(ToolNameDiff)
}

func (s *Server) trackTool(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tools = append(s.tools, name)
}
