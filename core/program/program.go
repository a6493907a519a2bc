// Package program defines the contract between on-ledger programs and the
// runtime that executes them.
package program

import (
	"github.com/gagliardetto/solana-go"

	"rooster/core/types"
)

// Invoker issues cross-program calls on behalf of the running program.
// signerSeeds lists one seed set per program-derived address that should be
// treated as a signer of ix; each set must derive an address under the calling
// program.
type Invoker interface {
	InvokeSigned(ix solana.Instruction, accounts []*types.AccountInfo, signerSeeds [][][]byte) error
}

// Allocator creates target, or tops up and allocates it when it already holds
// lamports, so that it is rent exempt, holds size bytes and is owned by
// programID. payer funds the account. signerSeeds must derive target under
// programID.
type Allocator interface {
	CreateOrAllocate(programID solana.PublicKey, target, systemProgram, payer *types.AccountInfo, size int, signerSeeds [][]byte) error
}

// Env is the set of runtime services available to a program while it
// processes one instruction.
type Env interface {
	Invoker
	Allocator
}

// Program processes a single instruction addressed to programID.
type Program interface {
	Process(env Env, programID solana.PublicKey, accounts []*types.AccountInfo, data []byte) error
}

// ProcessFunc adapts a function to the Program interface.
type ProcessFunc func(env Env, programID solana.PublicKey, accounts []*types.AccountInfo, data []byte) error

// Process implements Program.
func (f ProcessFunc) Process(env Env, programID solana.PublicKey, accounts []*types.AccountInfo, data []byte) error {
	return f(env, programID, accounts, data)
}
