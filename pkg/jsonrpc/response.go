package jsonrpc

import (
	"encoding/json"

	"github.com/agentbridge/a2acore/pkg/errors"
)

// Response is one JSON-RPC 2.0 reply envelope. Result and Error are mutually
// exclusive.
type Response struct {
	JSONRPC string           `json:"jsonrpc"`
	ID      json.RawMessage  `json:"id,omitempty"`
	Result  any              `json:"result,omitempty"`
	Error   *errors.RpcError `json:"error,omitempty"`
}

func NewResponse(id json.RawMessage, result any) Response {
	return Response{JSONRPC: "2.0", ID: id, Result: result}
}

func NewErrorResponse(id json.RawMessage, err *errors.RpcError) Response {
	if err == nil {
		err = errors.ErrInternal
	}

	return Response{JSONRPC: "2.0", ID: id, Error: err}
}
