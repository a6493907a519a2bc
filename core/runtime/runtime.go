// Package runtime is an in-process ledger that executes program instructions
// against accounts held in a key-value store. Transactions are atomic: account
// changes are committed only when every instruction succeeds.
package runtime

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"rooster/core/program"
	"rooster/core/types"
	"rooster/observability/metrics"
	"rooster/storage"
)

var (
	ErrUnknownProgram     = errors.New("runtime: program not registered")
	ErrMissingSignature   = errors.New("runtime: signer meta without transaction signature")
	ErrReadonlyModified   = errors.New("runtime: read-only account modified")
	ErrEmptyTransaction   = errors.New("runtime: transaction has no instructions")
	ErrProgramRegistered  = errors.New("runtime: program already registered")
	ErrInvalidInstruction = errors.New("runtime: invalid instruction")
)

// Transaction is an ordered list of instructions plus the keys that signed it.
type Transaction struct {
	Signers      []solana.PublicKey
	Instructions []solana.Instruction
}

// Runtime executes transactions. It is safe for concurrent use; transactions
// touching disjoint writable accounts run in parallel.
type Runtime struct {
	store    *AccountStore
	locks    *lockTable
	mu       sync.RWMutex
	programs map[solana.PublicKey]program.Program
	logger   *slog.Logger
	tracer   trace.Tracer
	metrics  *metrics.RuntimeMetrics
}

// New creates a runtime over db.
func New(db storage.Database) *Runtime {
	return &Runtime{
		store:    NewAccountStore(db),
		locks:    newLockTable(),
		programs: make(map[solana.PublicKey]program.Program),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		tracer:   otel.Tracer("rooster/core/runtime"),
	}
}

// SetLogger routes runtime logs to logger. Passing nil silences them.
func (r *Runtime) SetLogger(logger *slog.Logger) {
	if logger == nil {
		r.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
		return
	}
	r.logger = logger
}

// SetMetrics enables transaction counters.
func (r *Runtime) SetMetrics(m *metrics.RuntimeMetrics) { r.metrics = m }

// Register installs p as the program at id.
func (r *Runtime) Register(id solana.PublicKey, p program.Program) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.programs[id]; ok {
		return fmt.Errorf("%w: %s", ErrProgramRegistered, id)
	}
	r.programs[id] = p
	return nil
}

func (r *Runtime) lookup(id solana.PublicKey) (program.Program, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.programs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProgram, id)
	}
	return p, nil
}

// Account returns a copy of the stored account at key.
func (r *Runtime) Account(key solana.PublicKey) (*types.Account, error) {
	release := r.locks.acquire(map[solana.PublicKey]bool{key: false})
	defer release()
	return r.store.Get(key)
}

// SetAccount overwrites the stored account at key. Intended for funding test
// and simulation accounts.
func (r *Runtime) SetAccount(key solana.PublicKey, acc *types.Account) error {
	release := r.locks.acquire(map[solana.PublicKey]bool{key: true})
	defer release()
	return r.store.Put(key, acc)
}

// Execute runs every instruction of tx in order. Writable accounts are
// committed only when all instructions succeed.
func (r *Runtime) Execute(ctx context.Context, tx Transaction) (err error) {
	start := time.Now()
	_, span := r.tracer.Start(ctx, "runtime.Execute", trace.WithAttributes(
		attribute.Int("rooster.instructions", len(tx.Instructions)),
		attribute.Int("rooster.signers", len(tx.Signers)),
	))
	defer func() {
		result := "ok"
		if err != nil {
			result = "failed"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			r.logger.Warn("runtime: transaction failed", "error", err)
		}
		r.metrics.ObserveTransaction(result, time.Since(start))
		span.End()
	}()

	if len(tx.Instructions) == 0 {
		return ErrEmptyTransaction
	}
	signed := make(map[solana.PublicKey]bool, len(tx.Signers))
	for _, key := range tx.Signers {
		signed[key] = true
	}
	writable := make(map[solana.PublicKey]bool)
	for i, ix := range tx.Instructions {
		if ix == nil {
			return fmt.Errorf("%w: instruction %d is nil", ErrInvalidInstruction, i)
		}
		for _, meta := range ix.Accounts() {
			if meta.IsSigner && !signed[meta.PublicKey] {
				return fmt.Errorf("%w: %s", ErrMissingSignature, meta.PublicKey)
			}
			writable[meta.PublicKey] = writable[meta.PublicKey] || meta.IsWritable
		}
	}

	release := r.locks.acquire(writable)
	defer release()

	working := make(map[solana.PublicKey]*types.Account, len(writable))
	for key := range writable {
		acc, err := r.store.Get(key)
		if err != nil {
			return err
		}
		working[key] = acc
	}

	for i, ix := range tx.Instructions {
		if err := r.executeInstruction(ix, working); err != nil {
			return fmt.Errorf("instruction %d: %w", i, err)
		}
	}

	dirty := make(map[solana.PublicKey]*types.Account, len(writable))
	for key, isWritable := range writable {
		if isWritable {
			dirty[key] = working[key]
		}
	}
	if err := r.store.Commit(dirty); err != nil {
		return err
	}
	r.logger.Debug("runtime: transaction committed", "instructions", len(tx.Instructions))
	return nil
}

func (r *Runtime) executeInstruction(ix solana.Instruction, working map[solana.PublicKey]*types.Account) error {
	programID := ix.ProgramID()
	prog, err := r.lookup(programID)
	if err != nil {
		return err
	}
	data, err := ix.Data()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInstruction, err)
	}
	metas := ix.Accounts()
	infos := make([]*types.AccountInfo, 0, len(metas))
	before := make(map[solana.PublicKey]*types.Account, len(metas))
	writable := make(map[solana.PublicKey]bool, len(metas))
	for _, meta := range metas {
		acc := working[meta.PublicKey]
		infos = append(infos, types.NewAccountInfo(meta.PublicKey, meta.IsSigner, meta.IsWritable, acc))
		if _, seen := before[meta.PublicKey]; !seen {
			before[meta.PublicKey] = acc.Clone()
		}
		writable[meta.PublicKey] = writable[meta.PublicKey] || meta.IsWritable
	}

	ictx := &InvokeContext{runtime: r, programID: programID, depth: 1}
	if err := prog.Process(ictx, programID, infos, data); err != nil {
		return err
	}
	for key, prev := range before {
		if writable[key] {
			continue
		}
		if !sameAccount(prev, working[key]) {
			return fmt.Errorf("%w: %s", ErrReadonlyModified, key)
		}
	}
	return nil
}

func sameAccount(a, b *types.Account) bool {
	return a.Lamports == b.Lamports &&
		a.Owner == b.Owner &&
		a.Executable == b.Executable &&
		bytes.Equal(a.Data, b.Data)
}
