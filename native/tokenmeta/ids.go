// Package tokenmeta builds instructions for the external token metadata
// program that owns transfer and delegation semantics for custodied assets.
// Only the client side of that program lives here: account ordering and the
// wire encoding of its instruction arguments.
package tokenmeta

import "github.com/gagliardetto/solana-go"

var (
	// ProgramID is the token metadata program.
	ProgramID = solana.TokenMetadataProgramID
	// AuthRulesProgramID is the authorization rules program consulted by
	// programmable assets on transfer.
	AuthRulesProgramID = solana.MustPublicKeyFromBase58("auth9SigNpDKz4sJJ1DfCTuZrZNSAgh9sFD3rboVmgg")
)

// InstructionTag is the leading byte of every token metadata instruction.
type InstructionTag uint8

const (
	TagDelegate InstructionTag = 44
	TagTransfer InstructionTag = 49
)

func (t InstructionTag) String() string {
	switch t {
	case TagDelegate:
		return "delegate"
	case TagTransfer:
		return "transfer"
	default:
		return "unknown"
	}
}

const (
	transferArgsV1         uint8 = 0
	delegateArgsTransferV1 uint8 = 2
)
