// Package mcp exposes the news crawl as an MCP tool over JSON-RPC 2.0.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ZY-Ordinary/StockerAnalyzingAgent/internal/aggregator"
	"github.com/ZY-Ordinary/StockerAnalyzingAgent/internal/domain"
	"github.com/ZY-Ordinary/StockerAnalyzingAgent/internal/logger"
)

const (
	// ServerName is reported in the initialize handshake.
	ServerName = "sina-news-fetcher"
	// ProtocolVersion is the MCP revision this server speaks.
	ProtocolVersion = "2024-11-05"
)

// NewsFetcher runs the fetch_news tool.
type NewsFetcher interface {
	FetchNews(ctx context.Context, args aggregator.FetchNewsArgs) (domain.LabeledItems, error)
}

// Server handles MCP protocol requests
type Server struct {
	fetcher     NewsFetcher
	version     string
	toolTimeout time.Duration
	log         logger.Logger
}

// NewServer creates a new MCP server. A zero toolTimeout leaves tool calls
// bounded only by the caller's context.
func NewServer(fetcher NewsFetcher, version string, toolTimeout time.Duration, log logger.Logger) *Server {
	return &Server{
		fetcher:     fetcher,
		version:     version,
		toolTimeout: toolTimeout,
		log:         log,
	}
}

// HandleRequest processes an MCP request and returns a response.
// Returns nil for notifications (requests without ID).
func (s *Server) HandleRequest(ctx context.Context, req *Request) *Response {
	id := req.ID

	switch req.Method {
	case "initialize":
		return s.handleInitialize(id)
	case "tools/list":
		return s.successResult(id, map[string]any{"tools": getAllTools()})
	case "tools/call":
		return s.handleToolsCall(ctx, req, id)
	case "ping":
		return s.successResult(id, map[string]any{})
	}

	// Notifications (no ID) don't require responses
	if id == nil {
		return nil
	}
	return s.errorResponse(id, MethodNotFound, "Method not found: "+req.Method)
}

func (s *Server) handleInitialize(id any) *Response {
	return s.successResult(id, map[string]any{
		"protocolVersion": ProtocolVersion,
		"capabilities": map[string]any{
			"tools": map[string]any{},
		},
		"serverInfo": map[string]any{
			"name":    ServerName,
			"version": s.version,
		},
	})
}

func (s *Server) handleToolsCall(ctx context.Context, req *Request, id any) *Response {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(id, InvalidParams, "Invalid parameters")
	}

	switch params.Name {
	case aggregator.ToolName:
		return s.handleFetchNews(ctx, id, params.Arguments)
	default:
		return s.errorResponse(id, MethodNotFound, "Unknown tool: "+params.Name)
	}
}

func (s *Server) successResult(id, result any) *Response {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return s.errorResponse(id, InternalError, fmt.Sprintf("Failed to marshal result: %v", err))
	}
	return &Response{
		JSONRPC: "2.0",
		ID:      id,
		Result:  json.RawMessage(resultJSON),
	}
}

func (s *Server) errorResponse(id any, code int, message string) *Response {
	return &Response{
		JSONRPC: "2.0",
		ID:      id,
		Error: &ErrorObject{
			Code:    code,
			Message: message,
		},
	}
}
