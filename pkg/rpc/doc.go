// pkg/rpc/doc.go

// Package rpc implements the JSON-RPC transport used to talk to Solana
// nodes: a single-endpoint HTTPSender with transparent rate-limit retry, a
// typed error taxonomy for the three failure layers (HTTP transport,
// malformed responses, server-reported errors), and per-instance transport
// counters that are safe for concurrent use.
//
// HTTPSender and Pool both satisfy solana-go's rpc.JSONRPCClient, so either
// can back a regular solana-go client:
//
//	sender := rpc.NewHTTPSender(url)
//	client := solanarpc.NewWithCustomRPCClient(sender)
//
// Pool adds endpoint failover on top of the same contract: an endpoint that
// fails at the HTTP layer is demoted and the call moves to the next healthy
// one, while server-reported RPC errors are returned to the caller
// untouched.
package rpc
