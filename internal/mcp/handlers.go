package mcp

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/ZY-Ordinary/StockerAnalyzingAgent/internal/aggregator"
	"github.com/ZY-Ordinary/StockerAnalyzingAgent/internal/logger"
)

func (s *Server) handleFetchNews(ctx context.Context, id any, arguments json.RawMessage) *Response {
	raw := map[string]any{}
	if len(arguments) > 0 && string(arguments) != "null" {
		if err := json.Unmarshal(arguments, &raw); err != nil {
			return s.errorResponse(id, InvalidParams, "Invalid arguments: "+err.Error())
		}
	}

	args, err := aggregator.DecodeArgs(raw)
	if err != nil {
		return s.toolError(id, err.Error())
	}

	if s.toolTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.toolTimeout)
		defer cancel()
	}

	items, err := s.fetcher.FetchNews(ctx, args)
	switch {
	case errors.Is(err, aggregator.ErrInvalidArgument):
		return s.toolError(id, err.Error())
	case err != nil:
		s.log.Error("fetch_news failed", logger.Error(err))
		return s.errorResponse(id, InternalError, "fetch_news failed: "+err.Error())
	}

	text, err := json.Marshal(items)
	if err != nil {
		return s.errorResponse(id, InternalError, "Failed to encode items: "+err.Error())
	}

	s.log.Info("fetch_news served", logger.Int("items", len(items)))
	return s.successResult(id, ToolResult{
		Content: []ContentBlock{{Type: "text", Text: string(text)}},
	})
}

// toolError reports a failure the agent can act on, inside a normal result.
func (s *Server) toolError(id any, message string) *Response {
	return s.successResult(id, ToolResult{
		Content: []ContentBlock{{Type: "text", Text: message}},
		IsError: true,
	})
}
