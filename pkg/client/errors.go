// pkg/client/errors.go
package client

import (
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

var (
	// ErrUnableToConfirm is the give-up outcome: the send budget ran out
	// before any terminal status was observed.
	ErrUnableToConfirm = errors.New("unable to confirm transaction; this can happen in situations such as transaction expiration and insufficient fee-payer funds")

	// ErrNoSignature means the transaction carries no signatures at all.
	ErrNoSignature = errors.New("transaction has no signatures")

	// ErrUnsignedTransaction means a signature slot still holds the
	// all-zero placeholder.
	ErrUnsignedTransaction = errors.New("transaction is not fully signed")

	// ErrNoBlockhash means the recent blockhash field was never populated.
	ErrNoBlockhash = errors.New("transaction has no recent blockhash")

	// ErrNoInstructions means the message contains nothing to execute.
	ErrNoInstructions = errors.New("transaction has no instructions")
)

// TransactionError is the on-chain execution failure reported for a
// submitted transaction. Err holds the error value exactly as the node
// returned it in the signature status.
type TransactionError struct {
	Signature solana.Signature
	Err       interface{}
}

func (e *TransactionError) Error() string {
	return fmt.Sprintf("transaction %s failed: %v", e.Signature, e.Err)
}
