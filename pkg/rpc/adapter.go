// pkg/rpc/adapter.go
package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"

	solanarpc "github.com/gagliardetto/solana-go/rpc"
	"github.com/gagliardetto/solana-go/rpc/jsonrpc"
)

// Both the single-endpoint sender and the pool can back a solana-go client
// through solanarpc.NewWithCustomRPCClient.
var (
	_ solanarpc.JSONRPCClient = (*HTTPSender)(nil)
	_ solanarpc.JSONRPCClient = (*Pool)(nil)
)

// CallForInto implements solanarpc.JSONRPCClient on top of Send: the raw
// result payload is decoded into out.
func (s *HTTPSender) CallForInto(ctx context.Context, out interface{}, method string, params []interface{}) error {
	return callForInto(ctx, s, out, method, params)
}

// CallWithCallback hands the raw HTTP exchange to the callback. The caller
// wants the genuine response, so the rate-limit retry loop does not apply;
// the call still counts toward the transport stats.
func (s *HTTPSender) CallWithCallback(ctx context.Context, method string, params []interface{}, callback func(*http.Request, *http.Response) error) error {
	u := s.stats.begin()
	defer u.commit()

	id := atomic.AddUint64(&s.requestID, 1)
	body, err := json.Marshal(rpcRequest{JSONRPC: "2.0", ID: id, Method: method, Params: normalizeParams(params)})
	if err != nil {
		return &TransportError{URL: s.url, Method: method, Err: fmt.Errorf("marshal request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return &TransportError{URL: s.url, Method: method, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		return &TransportError{URL: s.url, Method: method, Err: err}
	}
	defer resp.Body.Close()

	return callback(req, resp)
}

func (s *HTTPSender) CallBatch(ctx context.Context, requests jsonrpc.RPCRequests) (jsonrpc.RPCResponses, error) {
	return nil, ErrBatchUnsupported
}

func (p *Pool) CallForInto(ctx context.Context, out interface{}, method string, params []interface{}) error {
	return callForInto(ctx, p, out, method, params)
}

func (p *Pool) CallWithCallback(ctx context.Context, method string, params []interface{}, callback func(*http.Request, *http.Response) error) error {
	e := p.nextEntry()
	if e == nil {
		return ErrNoHealthySender
	}
	return e.sender.CallWithCallback(ctx, method, params, callback)
}

func (p *Pool) CallBatch(ctx context.Context, requests jsonrpc.RPCRequests) (jsonrpc.RPCResponses, error) {
	return nil, ErrBatchUnsupported
}

func callForInto(ctx context.Context, sender RPCSender, out interface{}, method string, params []interface{}) error {
	result, err := sender.Send(ctx, method, normalizeParams(params))
	if err != nil {
		return err
	}
	return json.Unmarshal(result, out)
}

// normalizeParams drops an empty parameter list so zero-argument methods
// serialize without a params field.
func normalizeParams(params []interface{}) interface{} {
	if len(params) == 0 {
		return nil
	}
	return params
}
