// pkg/rpc/metrics.go
package rpc

import (
	"github.com/prometheus/client_golang/prometheus"
)

// StatsCollector exposes a sender's TransportStats to Prometheus. The
// counters are read as a snapshot at scrape time, so the collector adds no
// bookkeeping to the send path.
type StatsCollector struct {
	sender RPCSender

	requests    *prometheus.Desc
	elapsed     *prometheus.Desc
	rateLimited *prometheus.Desc
}

var _ prometheus.Collector = (*StatsCollector)(nil)

func NewStatsCollector(sender RPCSender) *StatsCollector {
	return &StatsCollector{
		sender: sender,
		requests: prometheus.NewDesc(
			"solana_rpc_requests_total",
			"Total number of JSON-RPC requests sent.",
			nil, nil,
		),
		elapsed: prometheus.NewDesc(
			"solana_rpc_elapsed_seconds_total",
			"Total wall-clock time spent inside RPC calls.",
			nil, nil,
		),
		rateLimited: prometheus.NewDesc(
			"solana_rpc_rate_limited_seconds_total",
			"Total time spent waiting out rate limits.",
			nil, nil,
		),
	}
}

func (c *StatsCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.requests
	ch <- c.elapsed
	ch <- c.rateLimited
}

func (c *StatsCollector) Collect(ch chan<- prometheus.Metric) {
	stats := c.sender.TransportStats()
	ch <- prometheus.MustNewConstMetric(c.requests, prometheus.CounterValue, float64(stats.RequestCount))
	ch <- prometheus.MustNewConstMetric(c.elapsed, prometheus.CounterValue, stats.ElapsedTime.Seconds())
	ch <- prometheus.MustNewConstMetric(c.rateLimited, prometheus.CounterValue, stats.RateLimitedTime.Seconds())
}
