package types

import (
	"github.com/gagliardetto/solana-go"
)

// Account is the persisted form of a ledger account. Programs own accounts and
// are the only parties allowed to change their data.
type Account struct {
	Lamports   uint64           `json:"lamports"`
	Owner      solana.PublicKey `json:"owner"`
	Executable bool             `json:"executable"`
	Data       []byte           `json:"data"`
}

// NewAccount returns an empty account owned by the system program.
func NewAccount() *Account {
	return &Account{Owner: solana.SystemProgramID}
}

// Clone returns a deep copy so callers can mutate the copy without touching
// the stored instance.
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	clone := *a
	clone.Data = append([]byte(nil), a.Data...)
	return &clone
}

// IsEmpty reports whether the account has never been funded or allocated.
func (a *Account) IsEmpty() bool {
	return a == nil || (a.Lamports == 0 && len(a.Data) == 0 && !a.Executable)
}

// AccountInfo is the view of an account handed to a program for the duration
// of one instruction. The embedded Account is shared between every view of the
// same key inside a transaction, so a write through one view is visible to all
// of them. Signer and writable flags are per view.
type AccountInfo struct {
	Key        solana.PublicKey
	IsSigner   bool
	IsWritable bool
	*Account
}

// NewAccountInfo wraps acc in a view with the supplied privileges. A nil
// account is replaced by an empty system-owned account.
func NewAccountInfo(key solana.PublicKey, signer, writable bool, acc *Account) *AccountInfo {
	if acc == nil {
		acc = NewAccount()
	}
	return &AccountInfo{Key: key, IsSigner: signer, IsWritable: writable, Account: acc}
}

// WithPrivileges returns another view of the same account with different
// signer and writable flags.
func (i *AccountInfo) WithPrivileges(signer, writable bool) *AccountInfo {
	return &AccountInfo{Key: i.Key, IsSigner: signer, IsWritable: writable, Account: i.Account}
}

// Meta returns the account meta describing this view.
func (i *AccountInfo) Meta() *solana.AccountMeta {
	return solana.NewAccountMeta(i.Key, i.IsWritable, i.IsSigner)
}
