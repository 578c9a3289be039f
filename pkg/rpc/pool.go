// pkg/rpc/pool.go
package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// poolEntry pairs one sender with its availability flag.
type poolEntry struct {
	sender *HTTPSender
	mu     sync.RWMutex
	active bool
}

func (e *poolEntry) isActive() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.active
}

func (e *poolEntry) setActive(state bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.active = state
}

// Pool fans Send calls out across several endpoints, round-robin over the
// ones currently marked healthy. An endpoint that fails at the HTTP layer is
// demoted until the next health check. Server-reported RPC errors are
// answers, not outages: they propagate to the caller and leave the endpoint
// in rotation.
type Pool struct {
	entries []*poolEntry
	next    uint64
	logger  *zap.Logger
}

var _ RPCSender = (*Pool)(nil)

// NewPool builds one HTTPSender per URL, all sharing the same options.
func NewPool(urls []string, opts *SenderOptions) (*Pool, error) {
	if len(urls) == 0 {
		return nil, errors.New("pool needs at least one endpoint URL")
	}
	logger := zap.NewNop()
	if opts != nil && opts.Logger != nil {
		logger = opts.Logger.Named("rpc-pool")
	}
	entries := make([]*poolEntry, len(urls))
	for i, url := range urls {
		entries[i] = &poolEntry{sender: NewHTTPSenderWithOpts(url, opts), active: true}
	}
	return &Pool{entries: entries, logger: logger}, nil
}

// nextEntry returns the next active entry in rotation, or nil when every
// endpoint is demoted.
func (p *Pool) nextEntry() *poolEntry {
	n := len(p.entries)
	start := int(atomic.AddUint64(&p.next, 1))
	for i := 0; i < n; i++ {
		e := p.entries[(start+i)%n]
		if e.isActive() {
			return e
		}
	}
	return nil
}

// Send forwards the call to the next healthy endpoint, moving on when the
// endpoint fails at the transport level.
func (p *Pool) Send(ctx context.Context, method string, params interface{}) (json.RawMessage, error) {
	var lastErr error
	for i := 0; i < len(p.entries); i++ {
		e := p.nextEntry()
		if e == nil {
			break
		}

		result, err := e.sender.Send(ctx, method, params)
		var te *TransportError
		if errors.As(err, &te) {
			p.logger.Warn("Demoting RPC endpoint after transport failure",
				zap.String("url", e.sender.URL()),
				zap.Error(err))
			e.setActive(false)
			lastErr = err
			continue
		}
		return result, err
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, ErrNoHealthySender
}

// TransportStats returns the sum of every endpoint's counters.
func (p *Pool) TransportStats() TransportStats {
	var total TransportStats
	for _, e := range p.entries {
		s := e.sender.TransportStats()
		total.RequestCount += s.RequestCount
		total.ElapsedTime += s.ElapsedTime
		total.RateLimitedTime += s.RateLimitedTime
	}
	return total
}

// HasHealthy reports whether at least one endpoint is in rotation.
func (p *Pool) HasHealthy() bool {
	for _, e := range p.entries {
		if e.isActive() {
			return true
		}
	}
	return false
}

// HealthCheck probes every endpoint concurrently and resets its
// availability from the outcome, so demoted endpoints rejoin the rotation as
// soon as they answer getHealth again. Returns ErrNoHealthySender when no
// endpoint passed.
func (p *Pool) HealthCheck(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, e := range p.entries {
		g.Go(func() error {
			healthy := probeHealth(gctx, e.sender)
			e.setActive(healthy)
			if !healthy {
				p.logger.Warn("RPC endpoint failed health check",
					zap.String("url", e.sender.URL()))
			}
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if !p.HasHealthy() {
		return ErrNoHealthySender
	}
	return nil
}

// probeHealth runs getHealth through the sender. A node that answers but
// reports itself unhealthy (behind the cluster) fails the probe too.
func probeHealth(ctx context.Context, s *HTTPSender) bool {
	result, err := s.Send(ctx, "getHealth", nil)
	if err != nil {
		return false
	}
	var status string
	if err := json.Unmarshal(result, &status); err != nil {
		return false
	}
	return status == "ok"
}
