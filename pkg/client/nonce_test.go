// pkg/client/nonce_test.go
package client

import (
	"encoding/binary"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
)

func ixData(discriminant uint32) solana.Base58 {
	data := make([]byte, 4)
	binary.LittleEndian.PutUint32(data, discriminant)
	return solana.Base58(data)
}

// nonceTx builds a minimal durable-nonce transaction: AdvanceNonceAccount
// first, nonce account at a writable index.
func nonceTx() *solana.Transaction {
	return &solana.Transaction{
		Signatures: []solana.Signature{{9}},
		Message: solana.Message{
			Header: solana.MessageHeader{
				NumRequiredSignatures:       1,
				NumReadonlySignedAccounts:   0,
				NumReadonlyUnsignedAccounts: 2,
			},
			AccountKeys: []solana.PublicKey{
				{1},                    // nonce authority, writable signer
				{2},                    // nonce account, writable
				{3},                    // recent blockhashes sysvar, readonly
				solana.SystemProgramID, // readonly
			},
			RecentBlockhash: solana.Hash{7},
			Instructions: []solana.CompiledInstruction{{
				ProgramIDIndex: 3,
				Accounts:       []uint16{1, 2, 0},
				Data:           ixData(advanceNonceInstruction),
			}},
		},
	}
}

func TestUsesDurableNonce(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(tx *solana.Transaction)
		want   bool
	}{
		{
			name: "advance nonce first",
			want: true,
		},
		{
			name:   "different program",
			mutate: func(tx *solana.Transaction) { tx.Message.Instructions[0].ProgramIDIndex = 0 },
		},
		{
			name:   "different discriminant",
			mutate: func(tx *solana.Transaction) { tx.Message.Instructions[0].Data = ixData(5) },
		},
		{
			name:   "truncated data",
			mutate: func(tx *solana.Transaction) { tx.Message.Instructions[0].Data = solana.Base58{4} },
		},
		{
			name:   "readonly nonce account",
			mutate: func(tx *solana.Transaction) { tx.Message.Instructions[0].Accounts = []uint16{2, 1, 0} },
		},
		{
			name:   "no instruction accounts",
			mutate: func(tx *solana.Transaction) { tx.Message.Instructions[0].Accounts = nil },
		},
		{
			name:   "account index out of range",
			mutate: func(tx *solana.Transaction) { tx.Message.Instructions[0].Accounts = []uint16{9} },
		},
		{
			name:   "program index out of range",
			mutate: func(tx *solana.Transaction) { tx.Message.Instructions[0].ProgramIDIndex = 9 },
		},
		{
			name:   "no instructions",
			mutate: func(tx *solana.Transaction) { tx.Message.Instructions = nil },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := nonceTx()
			if tt.mutate != nil {
				tt.mutate(tx)
			}
			assert.Equal(t, tt.want, UsesDurableNonce(tx))
		})
	}
}

func TestUsesDurableNonceNilTransaction(t *testing.T) {
	assert.False(t, UsesDurableNonce(nil))
}
