// pkg/rpc/sender.go
package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

const (
	// rateLimitRetries bounds how many times a single Send waits out an
	// HTTP 429 before the call fails with a transport error.
	rateLimitRetries = 5

	// defaultRateLimitWait applies when a 429 response carries no usable
	// Retry-After header.
	defaultRateLimitWait = 500 * time.Millisecond

	// maxRetryAfterSecs is the cap at and above which a Retry-After header
	// is ignored in favor of the default wait.
	maxRetryAfterSecs = 120

	defaultRequestTimeout = 30 * time.Second
)

// Doer is the HTTP invocation primitive supplied by the host. *http.Client
// satisfies it; tests substitute their own.
type Doer interface {
	Do(*http.Request) (*http.Response, error)
}

// RPCSender is the capability consumed by higher-level clients: one JSON-RPC
// call per Send, plus visibility into the cumulative transport counters.
// Implemented by HTTPSender and Pool.
type RPCSender interface {
	Send(ctx context.Context, method string, params interface{}) (json.RawMessage, error)
	TransportStats() TransportStats
}

// SenderOptions customizes an HTTPSender. Nil fields keep the defaults.
type SenderOptions struct {
	HTTPClient Doer
	Sleep      SleepFunc
	Logger     *zap.Logger
}

// HTTPSender issues JSON-RPC requests to a single endpoint over HTTP POST.
// It retries rate-limited attempts transparently, translates failures into
// the package error taxonomy, and keeps per-instance transport counters.
// Safe for concurrent use.
type HTTPSender struct {
	url    string
	http   Doer
	sleep  SleepFunc
	logger *zap.Logger

	requestID uint64
	stats     statsGuard
}

var _ RPCSender = (*HTTPSender)(nil)

func NewHTTPSender(url string) *HTTPSender {
	return NewHTTPSenderWithOpts(url, nil)
}

func NewHTTPSenderWithOpts(url string, opts *SenderOptions) *HTTPSender {
	s := &HTTPSender{
		url:    url,
		http:   &http.Client{Timeout: defaultRequestTimeout},
		sleep:  DefaultSleep,
		logger: zap.NewNop(),
	}
	if opts != nil {
		if opts.HTTPClient != nil {
			s.http = opts.HTTPClient
		}
		if opts.Sleep != nil {
			s.sleep = opts.Sleep
		}
		if opts.Logger != nil {
			s.logger = opts.Logger.Named("rpc-sender")
		}
	}
	return s
}

// URL returns the endpoint this sender posts to.
func (s *HTTPSender) URL() string {
	return s.url
}

// TransportStats returns a snapshot of the cumulative counters. Safe to call
// concurrently with in-flight sends.
func (s *HTTPSender) TransportStats() TransportStats {
	return s.stats.snapshot()
}

type rpcRequest struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      uint64      `json:"id"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params,omitempty"`
}

// rpcResponse keeps result and error raw so that a malformed error payload
// can be reported verbatim instead of failing the envelope decode.
type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  json.RawMessage `json:"error"`
}

type rpcErrorObject struct {
	Code    int64           `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// Send issues one JSON-RPC call and returns the raw result payload. Request
// ids are strictly increasing per sender. HTTP 429 responses are retried up
// to rateLimitRetries times, waiting defaultRateLimitWait between attempts
// unless the response names a Retry-After in [0,120) seconds. Any other
// non-2xx status fails immediately with a *TransportError; server-reported
// errors come back as *ResponseError, undecodable ones as *RequestError.
// The transport counters are updated exactly once per call, on every exit
// path.
func (s *HTTPSender) Send(ctx context.Context, method string, params interface{}) (json.RawMessage, error) {
	u := s.stats.begin()
	defer u.commit()

	id := atomic.AddUint64(&s.requestID, 1)
	body, err := json.Marshal(rpcRequest{JSONRPC: "2.0", ID: id, Method: method, Params: params})
	if err != nil {
		return nil, &TransportError{URL: s.url, Method: method, Err: fmt.Errorf("marshal request: %w", err)}
	}

	retries := rateLimitRetries
	for {
		status, header, respBody, err := s.post(ctx, body)
		if err != nil {
			return nil, &TransportError{URL: s.url, Method: method, Err: err}
		}

		if status == http.StatusTooManyRequests && retries > 0 {
			retries--
			wait := retryAfterWait(header)
			s.logger.Warn("Rate limited by RPC endpoint",
				zap.String("method", method),
				zap.Duration("wait", wait),
				zap.Int("retries_left", retries))
			if err := s.sleep(ctx, wait); err != nil {
				return nil, err
			}
			u.addRateLimitedTime(wait)
			continue
		}
		if status/100 != 2 {
			s.logger.Debug("RPC request failed",
				zap.String("method", method),
				zap.Int("status", status))
			return nil, &TransportError{URL: s.url, Method: method, StatusCode: status}
		}

		return decodeResponse(method, respBody)
	}
}

// post runs a single HTTP round trip against the endpoint.
func (s *HTTPSender) post(ctx context.Context, body []byte) (int, http.Header, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return 0, nil, nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		return 0, nil, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, nil, fmt.Errorf("read response body: %w", err)
	}
	return resp.StatusCode, resp.Header, respBody, nil
}

// decodeResponse splits a 2xx body into the success payload or one of the
// typed errors. The result bytes are returned as-is; callers decode them
// into method-specific shapes.
func decodeResponse(method string, body []byte) (json.RawMessage, error) {
	var envelope rpcResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, &RequestError{Method: method, Raw: body, Err: err}
	}

	if len(envelope.Error) > 0 && string(envelope.Error) != "null" {
		var errObj rpcErrorObject
		if err := json.Unmarshal(envelope.Error, &errObj); err != nil {
			return nil, &RequestError{Method: method, Raw: envelope.Error, Err: err}
		}
		return nil, &ResponseError{
			Code:    errObj.Code,
			Message: errObj.Message,
			Data:    decodeErrorData(errObj.Code, errObj.Data),
		}
	}

	if len(envelope.Result) == 0 {
		return json.RawMessage("null"), nil
	}
	return envelope.Result, nil
}

// retryAfterWait picks the wait before the next attempt to a rate-limited
// endpoint. The Retry-After header is honored only when it parses as an
// integer number of seconds in [0,120); anything else keeps the default.
func retryAfterWait(h http.Header) time.Duration {
	v := h.Get("Retry-After")
	if v == "" {
		return defaultRateLimitWait
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs < 0 || secs >= maxRetryAfterSecs {
		return defaultRateLimitWait
	}
	return time.Duration(secs) * time.Second
}
