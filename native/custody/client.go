package custody

import (
	"github.com/gagliardetto/solana-go"

	"rooster/native/tokenmeta"
)

// WithdrawKeys names the accounts of a Withdraw instruction that are not
// derived or well known.
type WithdrawKeys struct {
	Owner            solana.PublicKey
	Token            solana.PublicKey
	DestinationOwner solana.PublicKey
	Destination      solana.PublicKey
	Mint             solana.PublicKey
	Metadata         solana.PublicKey
	Edition          solana.PublicKey
	TokenRecord      solana.PublicKey
	RuleSet          solana.PublicKey
}

// DelegateKeys names the accounts of a Delegate instruction that are not
// derived or well known.
type DelegateKeys struct {
	Delegate       solana.PublicKey
	Token          solana.PublicKey
	Mint           solana.PublicKey
	Metadata       solana.PublicKey
	Edition        solana.PublicKey
	DelegateRecord solana.PublicKey
}

func newInstruction(programID solana.PublicKey, accounts solana.AccountMetaSlice, cmd Command) (*solana.GenericInstruction, error) {
	data, err := EncodeCommand(cmd)
	if err != nil {
		return nil, err
	}
	return solana.NewInstruction(programID, accounts, data), nil
}

// NewInitInstruction builds the Init request for owner. The custody address is
// derived from owner.
func NewInitInstruction(programID, owner solana.PublicKey) (*solana.GenericInstruction, error) {
	custody, _, err := FindCustodyAddress(programID, owner)
	if err != nil {
		return nil, err
	}
	return newInstruction(programID, solana.AccountMetaSlice{
		solana.NewAccountMeta(owner, true, true),
		solana.NewAccountMeta(custody, true, false),
		solana.NewAccountMeta(solana.SystemProgramID, false, false),
	}, InitCommand{})
}

// NewWithdrawInstruction builds a Withdraw request moving the custodied asset
// of keys.Owner to keys.Destination.
func NewWithdrawInstruction(programID solana.PublicKey, keys WithdrawKeys, args WithdrawArgs) (*solana.GenericInstruction, error) {
	custody, _, err := FindCustodyAddress(programID, keys.Owner)
	if err != nil {
		return nil, err
	}
	return newInstruction(programID, solana.AccountMetaSlice{
		solana.NewAccountMeta(keys.Owner, true, true),
		solana.NewAccountMeta(custody, true, false),
		solana.NewAccountMeta(keys.Token, true, false),
		solana.NewAccountMeta(keys.DestinationOwner, false, false),
		solana.NewAccountMeta(keys.Destination, true, false),
		solana.NewAccountMeta(keys.Mint, false, false),
		solana.NewAccountMeta(keys.Metadata, true, false),
		solana.NewAccountMeta(keys.Edition, false, false),
		solana.NewAccountMeta(keys.TokenRecord, true, false),
		solana.NewAccountMeta(tokenmeta.ProgramID, false, false),
		solana.NewAccountMeta(solana.SystemProgramID, false, false),
		solana.NewAccountMeta(solana.SysVarInstructionsPubkey, false, false),
		solana.NewAccountMeta(solana.TokenProgramID, false, false),
		solana.NewAccountMeta(solana.SPLAssociatedTokenAccountProgramID, false, false),
		solana.NewAccountMeta(tokenmeta.AuthRulesProgramID, false, false),
		solana.NewAccountMeta(keys.RuleSet, false, false),
	}, WithdrawCommand{Args: args})
}

// NewDelegateInstruction builds a Delegate request. The custody address is
// rebuilt from args.Owner and args.Bump, so a bump that lands on the curve is
// rejected here rather than on the ledger.
func NewDelegateInstruction(programID solana.PublicKey, keys DelegateKeys, args DelegateArgs) (*solana.GenericInstruction, error) {
	custody, err := CreateCustodyAddress(programID, args.Owner, args.Bump)
	if err != nil {
		return nil, err
	}
	return newInstruction(programID, solana.AccountMetaSlice{
		solana.NewAccountMeta(keys.Delegate, true, true),
		solana.NewAccountMeta(custody, true, false),
		solana.NewAccountMeta(keys.Token, true, false),
		solana.NewAccountMeta(keys.Mint, false, false),
		solana.NewAccountMeta(keys.Metadata, true, false),
		solana.NewAccountMeta(keys.Edition, false, false),
		solana.NewAccountMeta(keys.DelegateRecord, true, false),
		solana.NewAccountMeta(tokenmeta.ProgramID, false, false),
		solana.NewAccountMeta(solana.SystemProgramID, false, false),
		solana.NewAccountMeta(solana.SysVarInstructionsPubkey, false, false),
		solana.NewAccountMeta(solana.TokenProgramID, false, false),
	}, DelegateCommand{Args: args})
}
