package runtime

import (
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"rooster/core/program"
	"rooster/core/types"
)

// MaxInvokeDepth bounds nested cross-program calls, counting the top-level
// instruction.
const MaxInvokeDepth = 4

var (
	ErrDepthExceeded       = errors.New("runtime: cross-program invocation depth exceeded")
	ErrPrivilegeEscalation = errors.New("runtime: cross-program invocation escalates privileges")
	ErrAccountNotPassed    = errors.New("runtime: account required by callee not passed")
	ErrInvalidSeeds        = errors.New("runtime: signer seeds do not derive a program address")
	ErrAccountInUse        = errors.New("runtime: account already in use")
	ErrInsufficientFunds   = errors.New("runtime: insufficient lamports")
)

// InvokeContext is the environment handed to a program for one instruction.
// It implements program.Env.
type InvokeContext struct {
	runtime   *Runtime
	programID solana.PublicKey
	depth     int
}

var _ program.Env = (*InvokeContext)(nil)

// ProgramID returns the program currently executing.
func (c *InvokeContext) ProgramID() solana.PublicKey { return c.programID }

// Depth returns the invocation depth, starting at 1 for a top-level
// instruction.
func (c *InvokeContext) Depth() int { return c.depth }

func (c *InvokeContext) seedSigners(signerSeeds [][][]byte) (map[solana.PublicKey]bool, error) {
	out := make(map[solana.PublicKey]bool, len(signerSeeds))
	for _, seeds := range signerSeeds {
		addr, err := solana.CreateProgramAddress(seeds, c.programID)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidSeeds, err)
		}
		out[addr] = true
	}
	return out, nil
}

// InvokeSigned calls the program addressed by ix. Every account ix names must
// be present in accounts. A signer meta must already be a signer in the caller
// or be derived from one of signerSeeds under the calling program, and a
// writable meta must be writable in the caller.
func (c *InvokeContext) InvokeSigned(ix solana.Instruction, accounts []*types.AccountInfo, signerSeeds [][][]byte) error {
	if c.depth >= MaxInvokeDepth {
		return fmt.Errorf("%w: depth %d", ErrDepthExceeded, c.depth)
	}
	calleeID := ix.ProgramID()
	callee, err := c.runtime.lookup(calleeID)
	if err != nil {
		return err
	}
	data, err := ix.Data()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInstruction, err)
	}
	pdaSigners, err := c.seedSigners(signerSeeds)
	if err != nil {
		return err
	}
	byKey := make(map[solana.PublicKey]*types.AccountInfo, len(accounts))
	for _, info := range accounts {
		if info == nil {
			continue
		}
		prev, ok := byKey[info.Key]
		if !ok {
			byKey[info.Key] = info
			continue
		}
		byKey[info.Key] = prev.WithPrivileges(prev.IsSigner || info.IsSigner, prev.IsWritable || info.IsWritable)
	}

	metas := ix.Accounts()
	infos := make([]*types.AccountInfo, 0, len(metas))
	for _, meta := range metas {
		caller, ok := byKey[meta.PublicKey]
		if !ok {
			return fmt.Errorf("%w: %s", ErrAccountNotPassed, meta.PublicKey)
		}
		if meta.IsSigner && !caller.IsSigner && !pdaSigners[meta.PublicKey] {
			return fmt.Errorf("%w: %s is not a signer", ErrPrivilegeEscalation, meta.PublicKey)
		}
		if meta.IsWritable && !caller.IsWritable {
			return fmt.Errorf("%w: %s is not writable", ErrPrivilegeEscalation, meta.PublicKey)
		}
		infos = append(infos, caller.WithPrivileges(meta.IsSigner, meta.IsWritable))
	}

	c.runtime.logger.Debug("runtime: invoke", "caller", c.programID.String(), "callee", calleeID.String(), "depth", c.depth+1)
	child := &InvokeContext{runtime: c.runtime, programID: calleeID, depth: c.depth + 1}
	return callee.Process(child, calleeID, infos, data)
}

// RentExemptMinimum returns the balance an account of size data bytes needs
// to be exempt from rent.
func RentExemptMinimum(size int) uint64 {
	return uint64(128+size) * 3480 * 2
}

// CreateOrAllocate funds target to the rent-exempt minimum from payer,
// allocates size zeroed bytes and assigns target to programID. target must be
// an unused system account whose address derives from signerSeeds under the
// calling program.
func (c *InvokeContext) CreateOrAllocate(programID solana.PublicKey, target, systemProgram, payer *types.AccountInfo, size int, signerSeeds [][]byte) error {
	if !programID.Equals(c.programID) {
		return fmt.Errorf("%w: %s cannot assign accounts to %s", ErrPrivilegeEscalation, c.programID, programID)
	}
	if systemProgram == nil || !systemProgram.Key.Equals(solana.SystemProgramID) {
		return fmt.Errorf("%w: system program account required", ErrAccountNotPassed)
	}
	if size < 0 {
		return fmt.Errorf("%w: negative size %d", ErrInvalidInstruction, size)
	}
	addr, err := solana.CreateProgramAddress(signerSeeds, c.programID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSeeds, err)
	}
	if !addr.Equals(target.Key) {
		return fmt.Errorf("%w: seeds derive %s, target is %s", ErrInvalidSeeds, addr, target.Key)
	}
	if !payer.IsSigner || !payer.IsWritable {
		return fmt.Errorf("%w: payer %s must sign and be writable", ErrPrivilegeEscalation, payer.Key)
	}
	if !target.IsWritable {
		return fmt.Errorf("%w: target %s is not writable", ErrPrivilegeEscalation, target.Key)
	}
	if !target.Owner.Equals(solana.SystemProgramID) || len(target.Data) > 0 {
		return fmt.Errorf("%w: %s", ErrAccountInUse, target.Key)
	}

	need := RentExemptMinimum(size)
	if target.Lamports < need {
		topUp := need - target.Lamports
		if payer.Lamports < topUp {
			return fmt.Errorf("%w: payer %s has %d, needs %d", ErrInsufficientFunds, payer.Key, payer.Lamports, topUp)
		}
		payer.Lamports -= topUp
		target.Lamports += topUp
	}
	target.Data = make([]byte, size)
	target.Owner = programID
	c.runtime.metrics.IncAllocation()
	return nil
}
