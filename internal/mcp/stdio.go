package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/ZY-Ordinary/StockerAnalyzingAgent/internal/logger"
)

// Serve reads JSON-RPC requests from r and writes compact responses to w until
// r is exhausted or ctx is done. Only protocol JSON may be written to w.
func (s *Server) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	decoder := json.NewDecoder(r)
	encoder := json.NewEncoder(w)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		var request Request
		if err := decoder.Decode(&request); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			var syntaxErr *json.SyntaxError
			if errors.As(err, &syntaxErr) || errors.Is(err, io.ErrUnexpectedEOF) {
				// The stream cannot be resynchronized after malformed JSON.
				s.send(encoder, ErrorObject{Code: ParseError, Message: "Failed to parse request"})
				return fmt.Errorf("decode request: %w", err)
			}
			s.send(encoder, ErrorObject{Code: InvalidRequest, Message: "Invalid request: " + err.Error()})
			continue
		}

		response := s.HandleRequest(ctx, &request)
		if response == nil || request.ID == nil {
			continue
		}
		if err := encoder.Encode(response); err != nil {
			s.log.Error("Failed to encode response", logger.Error(err))
		}
	}
}

// send writes an error with id 0; JSON-RPC ids must be string or number.
func (s *Server) send(encoder *json.Encoder, e ErrorObject) {
	resp := Response{JSONRPC: "2.0", ID: 0, Error: &e}
	if err := encoder.Encode(resp); err != nil {
		s.log.Error("Failed to encode error response", logger.Error(err))
	}
}
