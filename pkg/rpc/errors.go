// pkg/rpc/errors.go
package rpc

import (
	"encoding/json"
	"errors"
	"fmt"

	solanarpc "github.com/gagliardetto/solana-go/rpc"
)

// Custom JSON-RPC error codes returned by Solana nodes. Only the codes whose
// data payload the transport knows how to decode are listed; any other code
// is passed through with empty data.
const (
	CodePreflightFailure int64 = -32002
	CodeNodeUnhealthy    int64 = -32005
)

var (
	// ErrBatchUnsupported is returned by CallBatch: the sender issues one
	// request per call.
	ErrBatchUnsupported = errors.New("batch requests are not supported")

	// ErrNoHealthySender is returned by a Pool when every endpoint has been
	// marked inactive.
	ErrNoHealthySender = errors.New("no healthy RPC sender available")
)

// TransportError is an HTTP-layer failure: the request could not be built or
// delivered, or the server answered with a non-success status (after the
// rate-limit retry budget, for 429). No JSON-RPC envelope was decoded.
type TransportError struct {
	URL        string
	Method     string
	StatusCode int // 0 when the request never produced a response
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("RPC transport error [%s] at %s: HTTP %d", e.Method, e.URL, e.StatusCode)
	}
	return fmt.Sprintf("RPC transport error [%s] at %s: %v", e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// RequestError is a response the transport could not make sense of: either
// the body was not a JSON-RPC envelope, or the error field was not a
// {code, message} object. Raw carries the offending payload for diagnostics.
type RequestError struct {
	Method string
	Raw    json.RawMessage
	Err    error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("failed to decode RPC error response: %s [%v]", string(e.Raw), e.Err)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// ResponseError is a well-formed error reported by the server. Data holds
// the typed payload for recognized codes and is nil otherwise.
type ResponseError struct {
	Code    int64
	Message string
	Data    ErrorData
}

func (e *ResponseError) Error() string {
	msg := fmt.Sprintf("RPC response error %d: %s", e.Code, e.Message)
	if nd, ok := e.Data.(*NodeUnhealthyData); ok && nd.NumSlotsBehind != nil {
		msg += fmt.Sprintf("; %d slots behind", *nd.NumSlotsBehind)
	}
	return msg
}

// ErrorData marks the payload types that can accompany a ResponseError.
type ErrorData interface {
	rpcErrorData()
}

// PreflightFailureData is the simulation result a node attaches when
// transaction preflight fails during send.
type PreflightFailureData struct {
	solanarpc.SimulateTransactionResult
}

func (*PreflightFailureData) rpcErrorData() {}

// NodeUnhealthyData reports how far an unhealthy node lags behind the
// cluster, when the node knows.
type NodeUnhealthyData struct {
	NumSlotsBehind *uint64 `json:"numSlotsBehind"`
}

func (*NodeUnhealthyData) rpcErrorData() {}

// decodeErrorData decodes the optional data payload of a server error
// according to its code. A payload that does not match the expected shape is
// dropped rather than failing the whole decode.
func decodeErrorData(code int64, data json.RawMessage) ErrorData {
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	switch code {
	case CodePreflightFailure:
		var pf PreflightFailureData
		if err := json.Unmarshal(data, &pf); err != nil {
			return nil
		}
		return &pf
	case CodeNodeUnhealthy:
		var nu NodeUnhealthyData
		if err := json.Unmarshal(data, &nu); err != nil {
			return nil
		}
		return &nu
	default:
		return nil
	}
}
