package tokenmeta

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gagliardetto/solana-go"

	"rooster/core/program"
	"rooster/core/types"
)

var ErrMissingSignature = errors.New("tokenmeta: required signature missing")

// RecordedCall is a token metadata instruction observed by a Recorder.
type RecordedCall struct {
	Call
	Accounts []solana.PublicKey
	Signers  []solana.PublicKey
}

// Recorder stands in for the token metadata program on a local ledger. It
// checks the signer positions of Transfer and Delegate and records every call
// without moving any balances.
type Recorder struct {
	mu    sync.Mutex
	calls []RecordedCall
}

var _ program.Program = (*Recorder)(nil)

func NewRecorder() *Recorder { return &Recorder{} }

// Process implements program.Program.
func (r *Recorder) Process(_ program.Env, _ solana.PublicKey, accounts []*types.AccountInfo, data []byte) error {
	call, err := DecodeCall(data)
	if err != nil {
		return err
	}
	var want int
	var signers []int
	switch call.Tag {
	case TagTransfer:
		want = TransferAccountCount
		signers = []int{TransferAccountAuthority, TransferAccountPayer}
	case TagDelegate:
		want = DelegateAccountCount
		signers = []int{DelegateAccountApprover, DelegateAccountPayer}
	}
	if len(accounts) < want {
		return fmt.Errorf("tokenmeta: %s expects %d accounts, got %d", call.Tag, want, len(accounts))
	}
	for _, idx := range signers {
		if !accounts[idx].IsSigner {
			return fmt.Errorf("%w: account %d (%s)", ErrMissingSignature, idx, accounts[idx].Key)
		}
	}
	recorded := RecordedCall{Call: *call}
	for _, info := range accounts {
		recorded.Accounts = append(recorded.Accounts, info.Key)
		if info.IsSigner {
			recorded.Signers = append(recorded.Signers, info.Key)
		}
	}
	r.mu.Lock()
	r.calls = append(r.calls, recorded)
	r.mu.Unlock()
	return nil
}

// Calls returns the recorded calls in order.
func (r *Recorder) Calls() []RecordedCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]RecordedCall(nil), r.calls...)
}
