// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package mcpserver

import (
	"context"
	"log/slog"

	"github.com/mark3labs/mcp-go/server"

	"github.com/poiesic/sitesearch/index"
	"github.com/poiesic/sitesearch/search"
)

const (
	// ServerName is the MCP server name
	ServerName = "sitesearch"
	// ServerVersion is the current server version
	ServerVersion = "0.1.0"
)

// Server wraps the MCP server with the search service it exposes.
type Server struct {
	mcp     *server.MCPServer
	service *search.Service
	index   *index.Index
	logger  *slog.Logger
}

// NewServer creates a server and registers its tools.
func NewServer(service *search.Service, idx *index.Index, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		mcp:     server.NewMCPServer(ServerName, ServerVersion),
		service: service,
		index:   idx,
		logger:  logger,
	}
	s.registerTools()
	return s
}

// Serve runs the server on stdio and blocks until the client disconnects.
func (s *Server) Serve(ctx context.Context) error {
	s.logger.Info("serving MCP on stdio", "items", len(s.index.Items()), "sections", s.index.Len())
	return server.ServeStdio(s.mcp)
}

func (s *Server) registerTools() {
	s.mcp.AddTool(textSearchTool(), s.handleTextSearch)
	s.mcp.AddTool(vectorSearchTool(), s.handleVectorSearch)
	s.mcp.AddTool(hybridSearchTool(), s.handleHybridSearch)
	s.mcp.AddTool(indexStatusTool(), s.handleIndexStatus)
}
