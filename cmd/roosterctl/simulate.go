package main

import (
	"context"
	"encoding/base64"
	"flag"
	"fmt"
	"path/filepath"

	"github.com/gagliardetto/solana-go"

	"rooster/core/events"
	"rooster/core/runtime"
	"rooster/core/types"
	"rooster/crypto"
	"rooster/native/custody"
	"rooster/native/tokenmeta"
	"rooster/observability/metrics"
	telemetry "rooster/observability/otel"
	"rooster/storage"
)

const simulationFunding = 1_000_000_000

// runSimulate replays the custody lifecycle against a LevelDB-backed ledger in
// the config DataDir, with a recording stand-in for the token metadata
// program. Asset accounts are derived from the owner so repeated runs reuse
// them.
func runSimulate(args []string) error {
	fs := flag.NewFlagSet("simulate", flag.ExitOnError)
	owner := fs.String("owner", "", "Owner public key (defaults to the configured keypair)")
	amount := fs.Uint64("amount", 1, "Amount to delegate")
	s, err := openSession(fs, args)
	if err != nil {
		return err
	}

	ctx := context.Background()
	shutdown, err := telemetry.Init(ctx, telemetry.ConfigFromEnv("roosterctl", s.cfg.LogEnv))
	if err != nil {
		return err
	}
	defer func() { _ = shutdown(ctx) }()

	ownerKey, err := crypto.ParseOptionalPublicKey(*owner)
	if err != nil {
		return fmt.Errorf("--owner: %w", err)
	}
	if ownerKey.IsZero() {
		kp, err := crypto.LoadKeypair(s.cfg.KeypairPath)
		if err != nil {
			return err
		}
		ownerKey = kp.PublicKey()
	}

	db, err := storage.NewLevelDB(filepath.Join(s.cfg.DataDir, "ledger"))
	if err != nil {
		return err
	}
	defer db.Close()

	report, err := simulateLifecycle(ctx, s, db, ownerKey, *amount)
	if err != nil {
		return err
	}
	return printJSON(report)
}

type simulationReport struct {
	Custody string              `json:"custody"`
	Bump    uint8               `json:"bump"`
	Events  []*types.Event      `json:"events"`
	Calls   []map[string]string `json:"calls"`
}

// simulateLifecycle runs init, withdraw and delegate for owner against db.
// Withdraw carries the transfer rules payload for the derived destination.
func simulateLifecycle(ctx context.Context, s *session, db storage.Database, ownerKey solana.PublicKey, amount uint64) (*simulationReport, error) {
	rt := runtime.New(db)
	rt.SetLogger(s.logger)
	rt.SetMetrics(metrics.Runtime())
	emitted := &events.Recorder{}
	engine := custody.NewEngine()
	engine.SetEmitter(emitted)
	engine.SetLogger(s.logger)
	engine.SetMetrics(metrics.Custody())
	calls := tokenmeta.NewRecorder()
	if err := rt.Register(s.programID, engine); err != nil {
		return nil, err
	}
	if err := rt.Register(tokenmeta.ProgramID, calls); err != nil {
		return nil, err
	}

	if err := fundIfEmpty(rt, ownerKey); err != nil {
		return nil, err
	}
	address, bump, err := custody.FindCustodyAddress(s.programID, ownerKey)
	if err != nil {
		return nil, err
	}
	existing, err := rt.Account(address)
	if err != nil {
		return nil, err
	}
	if existing.Owner.Equals(s.programID) && len(existing.Data) > 0 {
		s.logger.Info("custody already initialized", "custody", address.String())
	} else if err := simulateStep(ctx, rt, ownerKey, func() (*solana.GenericInstruction, error) {
		return custody.NewInitInstruction(s.programID, ownerKey)
	}); err != nil {
		return nil, fmt.Errorf("init: %w", err)
	}

	accs, err := deriveAssetAccounts(s.programID, ownerKey)
	if err != nil {
		return nil, err
	}
	ruleSet, err := s.cfg.RuleSetKey()
	if err != nil {
		return nil, err
	}
	if ruleSet.IsZero() {
		ruleSet = accs["rule-set"]
	}
	authData, err := tokenmeta.TransferAuthorization(accs["destination"], 1).MarshalBorsh()
	if err != nil {
		return nil, err
	}
	logAuthData(s.logger, "withdraw", ownerKey, authData)
	if err := simulateStep(ctx, rt, ownerKey, func() (*solana.GenericInstruction, error) {
		return custody.NewWithdrawInstruction(s.programID, custody.WithdrawKeys{
			Owner:            ownerKey,
			Token:            accs["token"],
			DestinationOwner: accs["destination-owner"],
			Destination:      accs["destination"],
			Mint:             accs["mint"],
			Metadata:         accs["metadata"],
			Edition:          accs["edition"],
			TokenRecord:      accs["token-record"],
			RuleSet:          ruleSet,
		}, custody.WithdrawArgs{AuthData: authData})
	}); err != nil {
		return nil, fmt.Errorf("withdraw: %w", err)
	}
	if err := simulateStep(ctx, rt, ownerKey, func() (*solana.GenericInstruction, error) {
		return custody.NewDelegateInstruction(s.programID, custody.DelegateKeys{
			Delegate:       ownerKey,
			Token:          accs["token"],
			Mint:           accs["mint"],
			Metadata:       accs["metadata"],
			Edition:        accs["edition"],
			DelegateRecord: accs["delegate-record"],
		}, custody.DelegateArgs{Amount: amount, Owner: ownerKey, Bump: bump})
	}); err != nil {
		return nil, fmt.Errorf("delegate: %w", err)
	}

	report := &simulationReport{Custody: address.String(), Bump: bump}
	for _, evt := range emitted.Events() {
		if payload, ok := evt.(events.Payload); ok {
			report.Events = append(report.Events, payload.Event())
		}
	}
	for _, call := range calls.Calls() {
		entry := map[string]string{"instruction": call.Tag.String(), "accounts": fmt.Sprint(len(call.Accounts))}
		for i, signer := range call.Signers {
			entry[fmt.Sprintf("signer%d", i)] = signer.String()
		}
		if len(call.AuthorizationData) > 0 {
			entry["authData"] = base64.StdEncoding.EncodeToString(call.AuthorizationData)
		}
		report.Calls = append(report.Calls, entry)
	}
	return report, nil
}

func fundIfEmpty(rt *runtime.Runtime, owner solana.PublicKey) error {
	acc, err := rt.Account(owner)
	if err != nil {
		return err
	}
	if acc.Lamports >= runtime.RentExemptMinimum(custody.RecordSize) {
		return nil
	}
	acc.Lamports = simulationFunding
	return rt.SetAccount(owner, acc)
}

func simulateStep(ctx context.Context, rt *runtime.Runtime, signer solana.PublicKey, build func() (*solana.GenericInstruction, error)) error {
	ix, err := build()
	if err != nil {
		return err
	}
	return rt.Execute(ctx, runtime.Transaction{
		Signers:      []solana.PublicKey{signer},
		Instructions: []solana.Instruction{ix},
	})
}

// deriveAssetAccounts gives every asset account a stable address seeded from
// the owner.
func deriveAssetAccounts(programID, owner solana.PublicKey) (map[string]solana.PublicKey, error) {
	names := []string{
		"token", "destination-owner", "destination", "mint", "metadata",
		"edition", "token-record", "delegate-record", "rule-set",
	}
	out := make(map[string]solana.PublicKey, len(names))
	for _, name := range names {
		key, err := solana.CreateWithSeed(owner, name, programID)
		if err != nil {
			return nil, fmt.Errorf("derive %s: %w", name, err)
		}
		out[name] = key
	}
	return out, nil
}
