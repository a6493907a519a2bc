package tokenmeta

import (
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

var ErrMissingAccount = errors.New("tokenmeta: required account missing")

type slot struct {
	name string
	key  *solana.PublicKey
}

func requireSlots(slots ...slot) error {
	for _, s := range slots {
		if s.key == nil || *s.key == (solana.PublicKey{}) {
			return fmt.Errorf("%w: %s", ErrMissingAccount, s.name)
		}
	}
	return nil
}

func keyOr(key *solana.PublicKey, fallback solana.PublicKey) solana.PublicKey {
	if key == nil {
		return fallback
	}
	return *key
}

func set(key solana.PublicKey) *solana.PublicKey { return &key }

// placeholderMeta fills an optional account slot that is never supplied.
// The program ID stands in read-only so positions stay fixed.
func placeholderMeta() *solana.AccountMeta {
	return solana.NewAccountMeta(ProgramID, false, false)
}

// optionalMeta renders an optional account, falling back to the placeholder.
func optionalMeta(key *solana.PublicKey, writable bool) *solana.AccountMeta {
	if key == nil {
		return placeholderMeta()
	}
	return solana.NewAccountMeta(*key, writable, false)
}

// TransferBuilder assembles a token metadata Transfer instruction.
type TransferBuilder struct {
	token                     *solana.PublicKey
	tokenOwner                *solana.PublicKey
	destination               *solana.PublicKey
	destinationOwner          *solana.PublicKey
	mint                      *solana.PublicKey
	metadata                  *solana.PublicKey
	edition                   *solana.PublicKey
	ownerTokenRecord          *solana.PublicKey
	authority                 *solana.PublicKey
	payer                     *solana.PublicKey
	systemProgram             *solana.PublicKey
	sysvarInstructions        *solana.PublicKey
	splTokenProgram           *solana.PublicKey
	splATAProgram             *solana.PublicKey
	authorizationRulesProgram *solana.PublicKey
	authorizationRules        *solana.PublicKey
}

func NewTransferBuilder() *TransferBuilder { return &TransferBuilder{} }

func (b *TransferBuilder) Token(k solana.PublicKey) *TransferBuilder {
	b.token = set(k)
	return b
}

func (b *TransferBuilder) TokenOwner(k solana.PublicKey) *TransferBuilder {
	b.tokenOwner = set(k)
	return b
}

func (b *TransferBuilder) Destination(k solana.PublicKey) *TransferBuilder {
	b.destination = set(k)
	return b
}

func (b *TransferBuilder) DestinationOwner(k solana.PublicKey) *TransferBuilder {
	b.destinationOwner = set(k)
	return b
}

func (b *TransferBuilder) Mint(k solana.PublicKey) *TransferBuilder {
	b.mint = set(k)
	return b
}

func (b *TransferBuilder) Metadata(k solana.PublicKey) *TransferBuilder {
	b.metadata = set(k)
	return b
}

func (b *TransferBuilder) Edition(k solana.PublicKey) *TransferBuilder {
	b.edition = set(k)
	return b
}

func (b *TransferBuilder) OwnerTokenRecord(k solana.PublicKey) *TransferBuilder {
	b.ownerTokenRecord = set(k)
	return b
}

func (b *TransferBuilder) Authority(k solana.PublicKey) *TransferBuilder {
	b.authority = set(k)
	return b
}

func (b *TransferBuilder) Payer(k solana.PublicKey) *TransferBuilder {
	b.payer = set(k)
	return b
}

func (b *TransferBuilder) SystemProgram(k solana.PublicKey) *TransferBuilder {
	b.systemProgram = set(k)
	return b
}

func (b *TransferBuilder) SysvarInstructions(k solana.PublicKey) *TransferBuilder {
	b.sysvarInstructions = set(k)
	return b
}

func (b *TransferBuilder) SplTokenProgram(k solana.PublicKey) *TransferBuilder {
	b.splTokenProgram = set(k)
	return b
}

func (b *TransferBuilder) SplATAProgram(k solana.PublicKey) *TransferBuilder {
	b.splATAProgram = set(k)
	return b
}

func (b *TransferBuilder) AuthorizationRulesProgram(k solana.PublicKey) *TransferBuilder {
	b.authorizationRulesProgram = set(k)
	return b
}

func (b *TransferBuilder) AuthorizationRules(k solana.PublicKey) *TransferBuilder {
	b.authorizationRules = set(k)
	return b
}

// Build validates the required accounts and returns the instruction.
func (b *TransferBuilder) Build(args TransferArgs) (*solana.GenericInstruction, error) {
	if err := requireSlots(
		slot{"token", b.token},
		slot{"token_owner", b.tokenOwner},
		slot{"destination", b.destination},
		slot{"destination_owner", b.destinationOwner},
		slot{"mint", b.mint},
		slot{"metadata", b.metadata},
		slot{"authority", b.authority},
		slot{"payer", b.payer},
	); err != nil {
		return nil, err
	}
	data, err := EncodeTransfer(args)
	if err != nil {
		return nil, err
	}
	accounts := solana.AccountMetaSlice{
		solana.NewAccountMeta(*b.token, true, false),
		solana.NewAccountMeta(*b.tokenOwner, false, false),
		solana.NewAccountMeta(*b.destination, true, false),
		solana.NewAccountMeta(*b.destinationOwner, false, false),
		solana.NewAccountMeta(*b.mint, false, false),
		solana.NewAccountMeta(*b.metadata, true, false),
		optionalMeta(b.edition, false),
		optionalMeta(b.ownerTokenRecord, true),
		placeholderMeta(), // destination token record
		solana.NewAccountMeta(*b.authority, false, true),
		solana.NewAccountMeta(*b.payer, true, true),
		solana.NewAccountMeta(keyOr(b.systemProgram, solana.SystemProgramID), false, false),
		solana.NewAccountMeta(keyOr(b.sysvarInstructions, solana.SysVarInstructionsPubkey), false, false),
		solana.NewAccountMeta(keyOr(b.splTokenProgram, solana.TokenProgramID), false, false),
		solana.NewAccountMeta(keyOr(b.splATAProgram, solana.SPLAssociatedTokenAccountProgramID), false, false),
		optionalMeta(b.authorizationRulesProgram, false),
		optionalMeta(b.authorizationRules, false),
	}
	return solana.NewInstruction(ProgramID, accounts, data), nil
}

// DelegateBuilder assembles a token metadata Delegate instruction.
type DelegateBuilder struct {
	delegateRecord     *solana.PublicKey
	delegate           *solana.PublicKey
	metadata           *solana.PublicKey
	masterEdition      *solana.PublicKey
	mint               *solana.PublicKey
	token              *solana.PublicKey
	approver           *solana.PublicKey
	payer              *solana.PublicKey
	systemProgram      *solana.PublicKey
	sysvarInstructions *solana.PublicKey
	splTokenProgram    *solana.PublicKey
}

func NewDelegateBuilder() *DelegateBuilder { return &DelegateBuilder{} }

func (b *DelegateBuilder) DelegateRecord(k solana.PublicKey) *DelegateBuilder {
	b.delegateRecord = set(k)
	return b
}

func (b *DelegateBuilder) Delegate(k solana.PublicKey) *DelegateBuilder {
	b.delegate = set(k)
	return b
}

func (b *DelegateBuilder) Metadata(k solana.PublicKey) *DelegateBuilder {
	b.metadata = set(k)
	return b
}

func (b *DelegateBuilder) MasterEdition(k solana.PublicKey) *DelegateBuilder {
	b.masterEdition = set(k)
	return b
}

func (b *DelegateBuilder) Mint(k solana.PublicKey) *DelegateBuilder {
	b.mint = set(k)
	return b
}

func (b *DelegateBuilder) Token(k solana.PublicKey) *DelegateBuilder {
	b.token = set(k)
	return b
}

func (b *DelegateBuilder) Approver(k solana.PublicKey) *DelegateBuilder {
	b.approver = set(k)
	return b
}

func (b *DelegateBuilder) Payer(k solana.PublicKey) *DelegateBuilder {
	b.payer = set(k)
	return b
}

func (b *DelegateBuilder) SystemProgram(k solana.PublicKey) *DelegateBuilder {
	b.systemProgram = set(k)
	return b
}

func (b *DelegateBuilder) SysvarInstructions(k solana.PublicKey) *DelegateBuilder {
	b.sysvarInstructions = set(k)
	return b
}

func (b *DelegateBuilder) SplTokenProgram(k solana.PublicKey) *DelegateBuilder {
	b.splTokenProgram = set(k)
	return b
}

// Build validates the required accounts and returns the instruction.
func (b *DelegateBuilder) Build(args DelegateArgs) (*solana.GenericInstruction, error) {
	if err := requireSlots(
		slot{"delegate", b.delegate},
		slot{"metadata", b.metadata},
		slot{"mint", b.mint},
		slot{"approver", b.approver},
		slot{"payer", b.payer},
	); err != nil {
		return nil, err
	}
	data, err := EncodeDelegate(args)
	if err != nil {
		return nil, err
	}
	accounts := solana.AccountMetaSlice{
		optionalMeta(b.delegateRecord, true),
		solana.NewAccountMeta(*b.delegate, false, false),
		solana.NewAccountMeta(*b.metadata, true, false),
		optionalMeta(b.masterEdition, false),
		placeholderMeta(), // token record
		solana.NewAccountMeta(*b.mint, false, false),
		optionalMeta(b.token, true),
		solana.NewAccountMeta(*b.approver, false, true),
		solana.NewAccountMeta(*b.payer, true, true),
		solana.NewAccountMeta(keyOr(b.systemProgram, solana.SystemProgramID), false, false),
		solana.NewAccountMeta(keyOr(b.sysvarInstructions, solana.SysVarInstructionsPubkey), false, false),
		solana.NewAccountMeta(keyOr(b.splTokenProgram, solana.TokenProgramID), false, false),
		placeholderMeta(), // authorization rules program
		placeholderMeta(), // authorization rules
	}
	return solana.NewInstruction(ProgramID, accounts, data), nil
}

// Transfer account positions, used by programs that inspect the instruction.
const (
	TransferAccountAuthority = 9
	TransferAccountPayer     = 10
	TransferAccountCount     = 17

	DelegateAccountApprover = 7
	DelegateAccountPayer    = 8
	DelegateAccountCount    = 14
)
