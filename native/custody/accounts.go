package custody

import (
	"fmt"

	"github.com/gagliardetto/solana-go"

	"rooster/core/types"
	"rooster/native/tokenmeta"
)

// InitAccounts is the participant list of an Init instruction.
type InitAccounts struct {
	Owner         *types.AccountInfo
	Custody       *types.AccountInfo
	SystemProgram *types.AccountInfo
}

// WithdrawAccounts is the participant list of a Withdraw instruction.
type WithdrawAccounts struct {
	Owner                  *types.AccountInfo
	Custody                *types.AccountInfo
	Token                  *types.AccountInfo
	DestinationOwner       *types.AccountInfo
	Destination            *types.AccountInfo
	Mint                   *types.AccountInfo
	Metadata               *types.AccountInfo
	Edition                *types.AccountInfo
	TokenRecord            *types.AccountInfo
	TokenMetadataProgram   *types.AccountInfo
	SystemProgram          *types.AccountInfo
	SysvarInstructions     *types.AccountInfo
	TokenProgram           *types.AccountInfo
	AssociatedTokenProgram *types.AccountInfo
	AuthRulesProgram       *types.AccountInfo
	RuleSet                *types.AccountInfo
}

// DelegateAccounts is the participant list of a Delegate instruction.
type DelegateAccounts struct {
	Delegate             *types.AccountInfo
	Custody              *types.AccountInfo
	Token                *types.AccountInfo
	Mint                 *types.AccountInfo
	Metadata             *types.AccountInfo
	Edition              *types.AccountInfo
	DelegateRecord       *types.AccountInfo
	TokenMetadataProgram *types.AccountInfo
	SystemProgram        *types.AccountInfo
	SysvarInstructions   *types.AccountInfo
	TokenProgram         *types.AccountInfo
}

const (
	initAccountCount     = 3
	withdrawAccountCount = 16
	delegateAccountCount = 11
)

// accountCursor hands out accounts in order. Trailing accounts beyond the
// expected count are ignored.
type accountCursor struct {
	accounts []*types.AccountInfo
	pos      int
}

func newAccountCursor(accounts []*types.AccountInfo, want int, cmd CommandKind) (*accountCursor, error) {
	if len(accounts) < want {
		return nil, fmt.Errorf("%w: %s needs %d, got %d", ErrNotEnoughAccounts, cmd, want, len(accounts))
	}
	for i, info := range accounts[:want] {
		if info == nil || info.Account == nil {
			return nil, fmt.Errorf("%w: %s account %d is nil", ErrNotEnoughAccounts, cmd, i)
		}
	}
	return &accountCursor{accounts: accounts}, nil
}

func (c *accountCursor) next() *types.AccountInfo {
	info := c.accounts[c.pos]
	c.pos++
	return info
}

// fixed returns the next account and checks it is the well-known key.
func (c *accountCursor) fixed(name string, want solana.PublicKey) (*types.AccountInfo, error) {
	idx := c.pos
	info := c.next()
	if !info.Key.Equals(want) {
		return nil, fmt.Errorf("%w: %s at position %d must be %s, got %s", ErrUnexpectedAccount, name, idx, want, info.Key)
	}
	return info, nil
}

func parseInitAccounts(accounts []*types.AccountInfo) (*InitAccounts, error) {
	cur, err := newAccountCursor(accounts, initAccountCount, KindInit)
	if err != nil {
		return nil, err
	}
	out := &InitAccounts{
		Owner:   cur.next(),
		Custody: cur.next(),
	}
	if out.SystemProgram, err = cur.fixed("system program", solana.SystemProgramID); err != nil {
		return nil, err
	}
	return out, nil
}

func parseWithdrawAccounts(accounts []*types.AccountInfo) (*WithdrawAccounts, error) {
	cur, err := newAccountCursor(accounts, withdrawAccountCount, KindWithdraw)
	if err != nil {
		return nil, err
	}
	out := &WithdrawAccounts{
		Owner:            cur.next(),
		Custody:          cur.next(),
		Token:            cur.next(),
		DestinationOwner: cur.next(),
		Destination:      cur.next(),
		Mint:             cur.next(),
		Metadata:         cur.next(),
		Edition:          cur.next(),
		TokenRecord:      cur.next(),
	}
	if out.TokenMetadataProgram, err = cur.fixed("token metadata program", tokenmeta.ProgramID); err != nil {
		return nil, err
	}
	if out.SystemProgram, err = cur.fixed("system program", solana.SystemProgramID); err != nil {
		return nil, err
	}
	if out.SysvarInstructions, err = cur.fixed("instructions sysvar", solana.SysVarInstructionsPubkey); err != nil {
		return nil, err
	}
	if out.TokenProgram, err = cur.fixed("token program", solana.TokenProgramID); err != nil {
		return nil, err
	}
	if out.AssociatedTokenProgram, err = cur.fixed("associated token program", solana.SPLAssociatedTokenAccountProgramID); err != nil {
		return nil, err
	}
	if out.AuthRulesProgram, err = cur.fixed("authorization rules program", tokenmeta.AuthRulesProgramID); err != nil {
		return nil, err
	}
	out.RuleSet = cur.next()
	return out, nil
}

func parseDelegateAccounts(accounts []*types.AccountInfo) (*DelegateAccounts, error) {
	cur, err := newAccountCursor(accounts, delegateAccountCount, KindDelegate)
	if err != nil {
		return nil, err
	}
	out := &DelegateAccounts{
		Delegate:       cur.next(),
		Custody:        cur.next(),
		Token:          cur.next(),
		Mint:           cur.next(),
		Metadata:       cur.next(),
		Edition:        cur.next(),
		DelegateRecord: cur.next(),
	}
	if out.TokenMetadataProgram, err = cur.fixed("token metadata program", tokenmeta.ProgramID); err != nil {
		return nil, err
	}
	if out.SystemProgram, err = cur.fixed("system program", solana.SystemProgramID); err != nil {
		return nil, err
	}
	if out.SysvarInstructions, err = cur.fixed("instructions sysvar", solana.SysVarInstructionsPubkey); err != nil {
		return nil, err
	}
	if out.TokenProgram, err = cur.fixed("token program", solana.TokenProgramID); err != nil {
		return nil, err
	}
	return out, nil
}

// list returns the accounts in the order they are handed to the transfer.
func (a *WithdrawAccounts) list() []*types.AccountInfo {
	return []*types.AccountInfo{
		a.Token, a.Custody, a.Destination, a.DestinationOwner, a.Mint, a.Metadata, a.Edition,
		a.TokenRecord, a.Owner, a.TokenMetadataProgram, a.SystemProgram, a.SysvarInstructions,
		a.TokenProgram, a.AssociatedTokenProgram, a.AuthRulesProgram, a.RuleSet,
	}
}

// list returns the accounts in the order they are handed to the delegation.
func (a *DelegateAccounts) list() []*types.AccountInfo {
	return []*types.AccountInfo{
		a.Delegate, a.DelegateRecord, a.Token, a.Custody, a.Mint, a.Metadata, a.Edition,
		a.TokenMetadataProgram, a.SystemProgram, a.SysvarInstructions, a.TokenProgram,
	}
}
