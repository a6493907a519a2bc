// Package custody implements the custody program: a program-derived authority
// that holds one asset on behalf of an owner and moves it only through signed
// calls into the token metadata program.
package custody

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/gagliardetto/solana-go"

	"rooster/core/events"
	"rooster/core/program"
	"rooster/core/types"
	"rooster/native/tokenmeta"
	"rooster/observability/metrics"
)

// Engine is the custody program. It is stateless between instructions; all
// persistent state lives in the custody record account.
type Engine struct {
	emitter events.Emitter
	logger  *slog.Logger
	metrics *metrics.CustodyMetrics
}

var _ program.Program = (*Engine)(nil)

// NewEngine creates a custody engine with a no-op emitter and a discarding
// logger. Callers can override both via the setters.
func NewEngine() *Engine {
	return &Engine{
		emitter: events.NoopEmitter{},
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// SetEmitter configures the event emitter used by the engine. Passing nil resets
// the emitter to a no-op implementation.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetLogger routes program logs to logger. Passing nil silences them.
func (e *Engine) SetLogger(logger *slog.Logger) {
	if logger == nil {
		e.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
		return
	}
	e.logger = logger
}

// SetMetrics enables command and CPI counters. Every command's series is
// created up front so dashboards see zeros before the first instruction.
func (e *Engine) SetMetrics(m *metrics.CustodyMetrics) {
	e.metrics = m
	for _, kind := range []CommandKind{KindInit, KindWithdraw, KindDelegate} {
		m.InitCommand(kind.String())
	}
}

func (e *Engine) emit(evt events.Event) {
	if e == nil || e.emitter == nil || evt == nil {
		return
	}
	e.emitter.Emit(evt)
}

// Process implements program.Program. It decodes data and dispatches to the
// matching handler.
func (e *Engine) Process(env program.Env, programID solana.PublicKey, accounts []*types.AccountInfo, data []byte) error {
	cmd, err := DecodeCommand(data)
	if err != nil {
		e.metrics.ObserveCommand("unknown", "rejected")
		return err
	}
	switch c := cmd.(type) {
	case InitCommand:
		err = e.processInit(env, programID, accounts)
	case WithdrawCommand:
		err = e.processWithdraw(env, programID, accounts, c.Args)
	case DelegateCommand:
		err = e.processDelegate(env, programID, accounts, c.Args)
	default:
		err = fmt.Errorf("%w: unsupported command %T", ErrMalformedCommand, cmd)
	}
	e.metrics.ObserveCommand(cmd.Kind().String(), outcome(err))
	if err != nil {
		e.logger.Error("rooster: command failed", "command", cmd.Kind().String(), "error", err)
	}
	return err
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case isCustodyError(err):
		return "rejected"
	default:
		return "failed"
	}
}

func (e *Engine) processInit(env program.Env, programID solana.PublicKey, accounts []*types.AccountInfo) error {
	e.logger.Info("rooster: init")
	acc, err := parseInitAccounts(accounts)
	if err != nil {
		return err
	}
	custody, bump, err := FindCustodyAddress(programID, acc.Owner.Key)
	if err != nil {
		return err
	}
	if !custody.Equals(acc.Custody.Key) {
		return fmt.Errorf("%w: expected %s, got %s", ErrAddressMismatch, custody, acc.Custody.Key)
	}
	if !acc.Owner.IsSigner {
		return fmt.Errorf("%w: owner %s", ErrNotASigner, acc.Owner.Key)
	}
	if acc.Custody.Owner.Equals(programID) && len(acc.Custody.Data) > 0 {
		return fmt.Errorf("%w: %s", ErrAlreadyInitialized, custody)
	}
	if err := env.CreateOrAllocate(programID, acc.Custody, acc.SystemProgram, acc.Owner, RecordSize, Seeds(acc.Owner.Key, bump)); err != nil {
		return fmt.Errorf("custody: allocate record: %w", err)
	}
	raw, err := Record{Bump: bump}.MarshalBinary()
	if err != nil {
		return err
	}
	if len(acc.Custody.Data) != len(raw) {
		return fmt.Errorf("%w: allocated %d bytes, need %d", ErrInvalidRecord, len(acc.Custody.Data), len(raw))
	}
	copy(acc.Custody.Data, raw)
	e.logger.Debug("rooster: custody record written", "custody", custody.String(), "bump", bump)
	e.emit(InitializedEvent{Owner: acc.Owner.Key, Custody: custody, Bump: bump})
	return nil
}

func (e *Engine) processWithdraw(env program.Env, programID solana.PublicKey, accounts []*types.AccountInfo, args WithdrawArgs) error {
	e.logger.Info("rooster: withdraw")
	acc, err := parseWithdrawAccounts(accounts)
	if err != nil {
		return err
	}
	bump, err := AssertCustodyAddress(programID, acc.Custody.Key, acc.Owner.Key)
	if err != nil {
		return err
	}
	if !acc.Owner.IsSigner {
		return fmt.Errorf("%w: owner %s", ErrNotASigner, acc.Owner.Key)
	}
	if _, err := loadRecord(programID, acc.Custody, bump); err != nil {
		return err
	}
	ix, err := tokenmeta.NewTransferBuilder().
		Token(acc.Token.Key).
		TokenOwner(acc.Custody.Key).
		Destination(acc.Destination.Key).
		DestinationOwner(acc.DestinationOwner.Key).
		Mint(acc.Mint.Key).
		Metadata(acc.Metadata.Key).
		Edition(acc.Edition.Key).
		OwnerTokenRecord(acc.TokenRecord.Key).
		Authority(acc.Custody.Key).
		Payer(acc.Owner.Key).
		SystemProgram(acc.SystemProgram.Key).
		SysvarInstructions(acc.SysvarInstructions.Key).
		SplTokenProgram(acc.TokenProgram.Key).
		SplATAProgram(acc.AssociatedTokenProgram.Key).
		AuthorizationRulesProgram(acc.AuthRulesProgram.Key).
		AuthorizationRules(acc.RuleSet.Key).
		Build(tokenmeta.TransferArgs{Amount: 1, AuthorizationData: args.AuthData})
	if err != nil {
		e.logger.Error("rooster: transfer builder failed", "error", err)
		return fmt.Errorf("%w: %v", ErrTransferBuilderFailed, err)
	}
	if err := e.invoke(env, ix, acc.list(), Seeds(acc.Owner.Key, bump)); err != nil {
		return fmt.Errorf("custody: transfer cpi: %w", err)
	}
	e.emit(WithdrawnEvent{
		Owner:       acc.Owner.Key,
		Custody:     acc.Custody.Key,
		Destination: acc.Destination.Key,
		Mint:        acc.Mint.Key,
	})
	return nil
}

func (e *Engine) processDelegate(env program.Env, programID solana.PublicKey, accounts []*types.AccountInfo, args DelegateArgs) error {
	e.logger.Info("rooster: delegate", "amount", args.Amount)
	acc, err := parseDelegateAccounts(accounts)
	if err != nil {
		return err
	}
	bump, err := assertDelegateSeeds(programID, acc.Custody.Key, args)
	if err != nil {
		return err
	}
	if !acc.Delegate.IsSigner {
		return fmt.Errorf("%w: delegate %s", ErrNotASigner, acc.Delegate.Key)
	}
	if _, err := loadRecord(programID, acc.Custody, bump); err != nil {
		return err
	}
	ix, err := tokenmeta.NewDelegateBuilder().
		DelegateRecord(acc.DelegateRecord.Key).
		Delegate(acc.Delegate.Key).
		Metadata(acc.Metadata.Key).
		MasterEdition(acc.Edition.Key).
		Mint(acc.Mint.Key).
		Token(acc.Token.Key).
		Approver(acc.Custody.Key).
		Payer(acc.Delegate.Key).
		SystemProgram(acc.SystemProgram.Key).
		SysvarInstructions(acc.SysvarInstructions.Key).
		SplTokenProgram(acc.TokenProgram.Key).
		Build(tokenmeta.DelegateArgs{Amount: args.Amount})
	if err != nil {
		e.logger.Error("rooster: delegate builder failed", "error", err)
		return fmt.Errorf("%w: %v", ErrDelegateBuilderFailed, err)
	}
	if err := e.invoke(env, ix, acc.list(), Seeds(args.Owner, bump)); err != nil {
		return fmt.Errorf("custody: delegate cpi: %w", err)
	}
	e.emit(DelegatedEvent{
		Custody:  acc.Custody.Key,
		Delegate: acc.Delegate.Key,
		Mint:     acc.Mint.Key,
		Amount:   args.Amount,
	})
	return nil
}

// invoke issues ix signed by the custody authority. seeds are always the set
// rebuilt from the guard's bump.
func (e *Engine) invoke(env program.Env, ix *solana.GenericInstruction, accounts []*types.AccountInfo, seeds [][]byte) error {
	err := env.InvokeSigned(ix, accounts, [][][]byte{seeds})
	result := "ok"
	if err != nil {
		result = "failed"
	}
	e.metrics.ObserveCPI("token_metadata", result)
	return err
}
