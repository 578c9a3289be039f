// pkg/client/nonce.go
package client

import (
	"encoding/binary"

	"github.com/gagliardetto/solana-go"
)

// advanceNonceInstruction is the system program's AdvanceNonceAccount
// discriminant: enum index 4, bincode-encoded as a little-endian uint32 at
// the front of the instruction data.
const advanceNonceInstruction uint32 = 4

// UsesDurableNonce reports whether the transaction anchors its liveness to a
// durable nonce instead of a recent blockhash. The runtime's convention is
// positional: the first compiled instruction must be a system-program
// AdvanceNonceAccount whose nonce account is writable.
func UsesDurableNonce(tx *solana.Transaction) bool {
	if tx == nil || len(tx.Message.Instructions) == 0 {
		return false
	}
	msg := &tx.Message
	ix := msg.Instructions[0]

	if int(ix.ProgramIDIndex) >= len(msg.AccountKeys) {
		return false
	}
	if !msg.AccountKeys[ix.ProgramIDIndex].Equals(solana.SystemProgramID) {
		return false
	}

	data := []byte(ix.Data)
	if len(data) < 4 || binary.LittleEndian.Uint32(data[:4]) != advanceNonceInstruction {
		return false
	}

	if len(ix.Accounts) == 0 {
		return false
	}
	nonceIdx := int(ix.Accounts[0])
	if nonceIdx >= len(msg.AccountKeys) {
		return false
	}
	return writableIndex(msg, nonceIdx)
}

// writableIndex applies the fixed account layout of a legacy message:
// writable signers, then readonly signers, then writable non-signers, then
// readonly non-signers.
func writableIndex(msg *solana.Message, idx int) bool {
	h := msg.Header
	signed := int(h.NumRequiredSignatures)
	if idx < signed {
		return idx < signed-int(h.NumReadonlySignedAccounts)
	}
	return idx < len(msg.AccountKeys)-int(h.NumReadonlyUnsignedAccounts)
}
