package jsonrpc

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/agentbridge/a2acore/pkg/errors"
)

/*
HandlerFunc processes one method's raw params and returns a result or an
*errors.RpcError. Returning (nil, nil) is a null-result success.

Streaming methods (message/stream, task/resubscribe) are NOT registered on
Server: they are served by pkg/engine's dedicated /stream handler, which
reads the same Request envelope but writes an SSE response instead of a
single JSON-RPC reply.
*/
type HandlerFunc func(ctx context.Context, params json.RawMessage) (any, *errors.RpcError)

// Server multiplexes JSON-RPC 2.0 method names to HandlerFuncs over a single
// HTTP POST endpoint, batch requests included.
type Server struct {
	mu       sync.RWMutex
	handlers map[string]HandlerFunc
}

func NewServer() *Server {
	return &Server{handlers: make(map[string]HandlerFunc)}
}

func (s *Server) Register(method string, h HandlerFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[method] = h
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "only POST supported", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.respond(w, NewErrorResponse(nil, errors.ErrParseError))
		return
	}

	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		s.respond(w, NewErrorResponse(nil, errors.ErrInvalidRequest))
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if body[0] == '[' {
		s.serveBatch(w, r.Context(), body)
		return
	}

	var req Request
	if err := json.Unmarshal(body, &req); err != nil {
		s.respond(w, NewErrorResponse(nil, errors.ErrParseError))
		return
	}

	resp := s.handle(r.Context(), &req)

	if req.IsNotification() {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	s.respond(w, resp)
}

func (s *Server) serveBatch(w http.ResponseWriter, ctx context.Context, body []byte) {
	var batch []Request

	if err := json.Unmarshal(body, &batch); err != nil {
		s.respond(w, NewErrorResponse(nil, errors.ErrParseError))
		return
	}

	responses := make([]Response, 0, len(batch))

	for i := range batch {
		resp := s.handle(ctx, &batch[i])
		if !batch[i].IsNotification() {
			responses = append(responses, resp)
		}
	}

	if len(responses) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if err := json.NewEncoder(w).Encode(responses); err != nil {
		log.Error("failed to encode batch response", "error", err)
	}
}

func (s *Server) handle(ctx context.Context, req *Request) Response {
	if req.JSONRPC != "2.0" {
		return NewErrorResponse(req.ID, errors.ErrInvalidRequest)
	}

	s.mu.RLock()
	h, ok := s.handlers[req.Method]
	s.mu.RUnlock()

	if !ok {
		return NewErrorResponse(req.ID, errors.ErrMethodNotFound)
	}

	result, rpcErr := h(ctx, req.Params)
	if rpcErr != nil {
		return NewErrorResponse(req.ID, rpcErr)
	}

	return NewResponse(req.ID, result)
}

func (s *Server) respond(w http.ResponseWriter, resp Response) {
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Error("failed to encode rpc response", "error", err)
	}
}
