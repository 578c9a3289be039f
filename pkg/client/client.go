// pkg/client/client.go
package client

import (
	"context"
	"time"

	"github.com/gagliardetto/solana-go"
	solanarpc "github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/solana-sender/pkg/rpc"
)

const (
	defaultSendRetries  = 1
	defaultPollInterval = 500 * time.Millisecond
)

// API is the slice of RPC operations the confirmation flow depends on.
// *solanarpc.Client provides the first three directly; rpcAPI adapts the
// blockhash validity check. Tests substitute a scripted implementation.
type API interface {
	SendTransactionWithOpts(ctx context.Context, tx *solana.Transaction, opts solanarpc.TransactionOpts) (solana.Signature, error)
	GetLatestBlockhash(ctx context.Context, commitment solanarpc.CommitmentType) (*solanarpc.GetLatestBlockhashResult, error)
	GetSignatureStatuses(ctx context.Context, searchTransactionHistory bool, signatures ...solana.Signature) (*solanarpc.GetSignatureStatusesResult, error)
	BlockhashValid(ctx context.Context, blockhash solana.Hash, commitment solanarpc.CommitmentType) (bool, error)
}

// rpcAPI completes the API surface over a stock solana-go client.
type rpcAPI struct {
	*solanarpc.Client
}

func (a rpcAPI) BlockhashValid(ctx context.Context, blockhash solana.Hash, commitment solanarpc.CommitmentType) (bool, error) {
	out, err := a.Client.IsBlockhashValid(ctx, blockhash, commitment)
	if err != nil {
		return false, err
	}
	return out.Value, nil
}

// Options tunes the confirmation flow. The zero value gets defaults.
type Options struct {
	// SendRetries is how many full submissions a single call may spend. A
	// resend happens only after the previous attempt's reference blockhash
	// went stale. Default 1: submit once, never resend.
	SendRetries int

	// PollInterval is the pause between signature status polls.
	// Default 500ms.
	PollInterval time.Duration

	// Commitment a signature status must satisfy before it decides the
	// outcome. Default finalized.
	Commitment solanarpc.CommitmentType

	// SkipPreflight disables simulation before submission.
	SkipPreflight bool

	// Sleep replaces the blocking wait between polls; tests inject a no-op.
	Sleep rpc.SleepFunc
}

func (o Options) withDefaults() Options {
	if o.SendRetries <= 0 {
		o.SendRetries = defaultSendRetries
	}
	if o.PollInterval <= 0 {
		o.PollInterval = defaultPollInterval
	}
	if o.Commitment == "" {
		o.Commitment = solanarpc.CommitmentFinalized
	}
	if o.Sleep == nil {
		o.Sleep = rpc.DefaultSleep
	}
	return o
}

// Client augments a solana-go RPC client with a blocking send-and-confirm
// entry point. Every other RPC operation passes through the embedded client
// untouched.
type Client struct {
	*solanarpc.Client

	api       API
	logger    *zap.Logger
	validator *Validator
	opts      Options
}

func New(rpcClient *solanarpc.Client, logger *zap.Logger, opts Options) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		Client:    rpcClient,
		api:       rpcAPI{Client: rpcClient},
		logger:    logger.Named("tx-client"),
		validator: NewValidator(logger),
		opts:      opts.withDefaults(),
	}
}

// newWithAPI wires a scripted API implementation; tests use it.
func newWithAPI(api API, logger *zap.Logger, opts Options) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		api:       api,
		logger:    logger.Named("tx-client"),
		validator: NewValidator(logger),
		opts:      opts.withDefaults(),
	}
}

// confirmPhase drives the send-and-confirm loop.
type confirmPhase int

const (
	phaseSend confirmPhase = iota
	phasePoll
)

// SendAndConfirmTransaction submits an already-signed transaction and blocks
// until one of three outcomes: the signature reaches the configured
// commitment (returns the signature), the cluster reports an execution
// failure (returns *TransactionError), or every send attempt's reference
// blockhash expires without a terminal status (returns ErrUnableToConfirm).
// RPC failures at any step abort the flow immediately.
func (c *Client) SendAndConfirmTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	if err := c.validator.ValidateTransaction(tx); err != nil {
		return solana.Signature{}, err
	}

	var (
		sig       solana.Signature
		reference solana.Hash
		sendsLeft = c.opts.SendRetries
	)

	phase := phaseSend
	for {
		switch phase {
		case phaseSend:
			if sendsLeft == 0 {
				c.logger.Warn("Send budget exhausted without a terminal status",
					zap.String("signature", sig.String()),
					zap.Int("sends", c.opts.SendRetries))
				return solana.Signature{}, ErrUnableToConfirm
			}
			sendsLeft--

			var err error
			sig, err = c.api.SendTransactionWithOpts(ctx, tx, solanarpc.TransactionOpts{
				SkipPreflight:       c.opts.SkipPreflight,
				PreflightCommitment: c.opts.Commitment,
			})
			if err != nil {
				return solana.Signature{}, err
			}
			c.logger.Debug("Transaction submitted", zap.String("signature", sig.String()))

			reference, err = c.referenceBlockhash(ctx, tx)
			if err != nil {
				return solana.Signature{}, err
			}
			phase = phasePoll

		case phasePoll:
			status, err := c.signatureStatus(ctx, sig)
			if err != nil {
				return solana.Signature{}, err
			}
			switch {
			case status == nil:
				valid, err := c.api.BlockhashValid(ctx, reference, solanarpc.CommitmentProcessed)
				if err != nil {
					return solana.Signature{}, err
				}
				if !valid {
					// Nothing anchored to this blockhash can land anymore,
					// so the attempt is dead. Spend another send if the
					// budget allows.
					c.logger.Debug("Reference blockhash expired",
						zap.String("signature", sig.String()))
					phase = phaseSend
					continue
				}
				if err := c.opts.Sleep(ctx, c.opts.PollInterval); err != nil {
					return solana.Signature{}, err
				}
			case status.execErr != nil:
				return sig, &TransactionError{Signature: sig, Err: status.execErr}
			default:
				c.logger.Info("Transaction confirmed",
					zap.String("signature", sig.String()),
					zap.Uint64("slot", status.slot))
				return sig, nil
			}
		}
	}
}

// referenceBlockhash picks the hash whose liveness gates the poll loop. A
// durable-nonce transaction's embedded value never expires, so the current
// cluster blockhash at processed commitment stands in for it.
func (c *Client) referenceBlockhash(ctx context.Context, tx *solana.Transaction) (solana.Hash, error) {
	if !UsesDurableNonce(tx) {
		return tx.Message.RecentBlockhash, nil
	}
	out, err := c.api.GetLatestBlockhash(ctx, solanarpc.CommitmentProcessed)
	if err != nil {
		return solana.Hash{}, err
	}
	return out.Value.Blockhash, nil
}

// observedStatus is a signature status that already satisfies the configured
// commitment. execErr carries the node-reported execution error, if any.
type observedStatus struct {
	execErr interface{}
	slot    uint64
}

// signatureStatus fetches the current status and filters it through the
// configured commitment. Finalized demands a rooted status, which the node
// signals by clearing the confirmations count; weaker commitments accept
// whatever the node reports. A status short of the commitment counts as
// absent so the caller keeps polling.
func (c *Client) signatureStatus(ctx context.Context, sig solana.Signature) (*observedStatus, error) {
	out, err := c.api.GetSignatureStatuses(ctx, false, sig)
	if err != nil {
		return nil, err
	}
	if out == nil || len(out.Value) == 0 || out.Value[0] == nil {
		return nil, nil
	}
	status := out.Value[0]
	if c.opts.Commitment == solanarpc.CommitmentFinalized && status.Confirmations != nil {
		return nil, nil
	}
	return &observedStatus{execErr: status.Err, slot: status.Slot}, nil
}
