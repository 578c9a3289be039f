// pkg/client/validator.go
package client

import (
	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"
)

// Validator runs the structural checks a transaction must pass before it is
// worth a network round trip. It expects transactions that are already
// signed; signing is the caller's business.
type Validator struct {
	logger *zap.Logger
}

func NewValidator(logger *zap.Logger) *Validator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Validator{logger: logger.Named("tx-validator")}
}

func (v *Validator) ValidateTransaction(tx *solana.Transaction) error {
	if err := v.validateSignatures(tx); err != nil {
		return err
	}
	if err := v.validateBlockhash(tx); err != nil {
		return err
	}
	return v.validateInstructions(tx)
}

func (v *Validator) validateSignatures(tx *solana.Transaction) error {
	if len(tx.Signatures) == 0 {
		return ErrNoSignature
	}
	for i, sig := range tx.Signatures {
		if sig == (solana.Signature{}) {
			v.logger.Debug("Transaction carries a placeholder signature", zap.Int("index", i))
			return ErrUnsignedTransaction
		}
	}
	return nil
}

func (v *Validator) validateBlockhash(tx *solana.Transaction) error {
	// Durable-nonce transactions store the nonce value in this field, so it
	// must be populated either way.
	if tx.Message.RecentBlockhash == (solana.Hash{}) {
		return ErrNoBlockhash
	}
	return nil
}

func (v *Validator) validateInstructions(tx *solana.Transaction) error {
	if len(tx.Message.Instructions) == 0 {
		return ErrNoInstructions
	}
	return nil
}
