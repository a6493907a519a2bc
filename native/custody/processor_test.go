package custody

import (
	"errors"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"rooster/core/events"
	"rooster/core/types"
	"rooster/native/tokenmeta"
	"rooster/observability/metrics"
)

type invocation struct {
	programID solana.PublicKey
	metas     []*solana.AccountMeta
	data      []byte
	accounts  []*types.AccountInfo
	seeds     [][][]byte
}

type allocation struct {
	programID solana.PublicKey
	target    solana.PublicKey
	payer     solana.PublicKey
	size      int
	seeds     [][]byte
}

type mockEnv struct {
	invokes   []invocation
	allocs    []allocation
	invokeErr error
	allocErr  error
}

func (m *mockEnv) InvokeSigned(ix solana.Instruction, accounts []*types.AccountInfo, seeds [][][]byte) error {
	data, err := ix.Data()
	if err != nil {
		return err
	}
	m.invokes = append(m.invokes, invocation{
		programID: ix.ProgramID(),
		metas:     ix.Accounts(),
		data:      data,
		accounts:  accounts,
		seeds:     seeds,
	})
	return m.invokeErr
}

func (m *mockEnv) CreateOrAllocate(programID solana.PublicKey, target, _, payer *types.AccountInfo, size int, seeds [][]byte) error {
	m.allocs = append(m.allocs, allocation{
		programID: programID,
		target:    target.Key,
		payer:     payer.Key,
		size:      size,
		seeds:     seeds,
	})
	if m.allocErr != nil {
		return m.allocErr
	}
	target.Lamports = 1
	target.Owner = programID
	target.Data = make([]byte, size)
	return nil
}

type ledger map[solana.PublicKey]*types.Account

func (l ledger) infos(ix *solana.GenericInstruction) []*types.AccountInfo {
	out := make([]*types.AccountInfo, 0, len(ix.AccountValues))
	for _, meta := range ix.AccountValues {
		acc, ok := l[meta.PublicKey]
		if !ok {
			acc = types.NewAccount()
			l[meta.PublicKey] = acc
		}
		out = append(out, types.NewAccountInfo(meta.PublicKey, meta.IsSigner, meta.IsWritable, acc))
	}
	return out
}

func (l ledger) run(t *testing.T, engine *Engine, env *mockEnv, ix *solana.GenericInstruction) error {
	t.Helper()
	data, err := ix.Data()
	require.NoError(t, err)
	return engine.Process(env, ix.ProgramID(), l.infos(ix), data)
}

func withdrawKeys(owner solana.PublicKey) WithdrawKeys {
	return WithdrawKeys{
		Owner:            owner,
		Token:            key(0xa1),
		DestinationOwner: key(0xa2),
		Destination:      key(0xa3),
		Mint:             key(0xa4),
		Metadata:         key(0xa5),
		Edition:          key(0xa6),
		TokenRecord:      key(0xa7),
		RuleSet:          key(0xa8),
	}
}

func delegateKeys() DelegateKeys {
	return DelegateKeys{
		Delegate:       key(0xb1),
		Token:          key(0xb2),
		Mint:           key(0xb3),
		Metadata:       key(0xb4),
		Edition:        key(0xb5),
		DelegateRecord: key(0xb6),
	}
}

func initialized(t *testing.T, owner solana.PublicKey) (ledger, *Engine) {
	t.Helper()
	l := ledger{}
	engine := NewEngine()
	ix, err := NewInitInstruction(ProgramID, owner)
	require.NoError(t, err)
	require.NoError(t, l.run(t, engine, &mockEnv{}, ix))
	return l, engine
}

func TestInitCreatesRecord(t *testing.T) {
	owner := key(0x10)
	custody, bump, err := FindCustodyAddress(ProgramID, owner)
	require.NoError(t, err)

	l := ledger{}
	engine := NewEngine()
	rec := &events.Recorder{}
	engine.SetEmitter(rec)
	env := &mockEnv{}

	ix, err := NewInitInstruction(ProgramID, owner)
	require.NoError(t, err)
	require.NoError(t, l.run(t, engine, env, ix))

	require.Len(t, env.allocs, 1)
	require.Equal(t, custody, env.allocs[0].target)
	require.Equal(t, owner, env.allocs[0].payer)
	require.Equal(t, RecordSize, env.allocs[0].size)
	require.Equal(t, Seeds(owner, bump), env.allocs[0].seeds)
	require.Empty(t, env.invokes)

	stored, err := UnmarshalRecord(l[custody].Data)
	require.NoError(t, err)
	require.Equal(t, bump, stored.Bump)
	require.Equal(t, ProgramID, l[custody].Owner)

	require.Equal(t, []string{EventTypeInitialized}, rec.Types())
	evt := rec.Events()[0].(InitializedEvent).Event()
	require.Equal(t, custody.String(), evt.Attributes["custody"])
}

func TestInitRequiresOwnerSignature(t *testing.T) {
	ix, err := NewInitInstruction(ProgramID, key(0x10))
	require.NoError(t, err)
	ix.AccountValues[0].IsSigner = false

	env := &mockEnv{}
	err = ledger{}.run(t, NewEngine(), env, ix)
	require.ErrorIs(t, err, ErrNotASigner)
	require.Empty(t, env.allocs)
}

func TestInitRejectsForeignCustodyAddress(t *testing.T) {
	ix, err := NewInitInstruction(ProgramID, key(0x10))
	require.NoError(t, err)
	ix.AccountValues[1].PublicKey = key(0x12)

	env := &mockEnv{}
	err = ledger{}.run(t, NewEngine(), env, ix)
	require.ErrorIs(t, err, ErrAddressMismatch)
	require.Empty(t, env.allocs)
}

func TestInitTwiceFails(t *testing.T) {
	owner := key(0x10)
	l, engine := initialized(t, owner)

	ix, err := NewInitInstruction(ProgramID, owner)
	require.NoError(t, err)
	env := &mockEnv{}
	require.ErrorIs(t, l.run(t, engine, env, ix), ErrAlreadyInitialized)
	require.Empty(t, env.allocs)
}

func TestInitPropagatesAllocatorFailure(t *testing.T) {
	allocErr := errors.New("insufficient lamports")
	ix, err := NewInitInstruction(ProgramID, key(0x10))
	require.NoError(t, err)
	err = ledger{}.run(t, NewEngine(), &mockEnv{allocErr: allocErr}, ix)
	require.ErrorIs(t, err, allocErr)
}

func TestInitRejectsMisplacedSystemProgram(t *testing.T) {
	ix, err := NewInitInstruction(ProgramID, key(0x10))
	require.NoError(t, err)
	ix.AccountValues[2].PublicKey = key(0x13)
	require.ErrorIs(t, ledger{}.run(t, NewEngine(), &mockEnv{}, ix), ErrUnexpectedAccount)
}

func TestInitRejectsShortAccountList(t *testing.T) {
	ix, err := NewInitInstruction(ProgramID, key(0x10))
	require.NoError(t, err)
	ix.AccountValues = ix.AccountValues[:2]
	require.ErrorIs(t, ledger{}.run(t, NewEngine(), &mockEnv{}, ix), ErrNotEnoughAccounts)
}

func TestWithdrawTransfersOneWithAuthData(t *testing.T) {
	owner := key(0x20)
	custody, bump, err := FindCustodyAddress(ProgramID, owner)
	require.NoError(t, err)
	l, engine := initialized(t, owner)
	rec := &events.Recorder{}
	engine.SetEmitter(rec)

	authData := []byte{0xde, 0xad, 0xbe, 0xef}
	keys := withdrawKeys(owner)
	ix, err := NewWithdrawInstruction(ProgramID, keys, WithdrawArgs{AuthData: authData})
	require.NoError(t, err)

	env := &mockEnv{}
	require.NoError(t, l.run(t, engine, env, ix))
	require.Len(t, env.invokes, 1)

	call := env.invokes[0]
	require.Equal(t, tokenmeta.ProgramID, call.programID)
	require.Equal(t, [][][]byte{Seeds(owner, bump)}, call.seeds)

	decoded, err := tokenmeta.DecodeCall(call.data)
	require.NoError(t, err)
	require.Equal(t, tokenmeta.TagTransfer, decoded.Tag)
	require.Equal(t, uint64(1), decoded.Amount)
	require.Equal(t, authData, decoded.AuthorizationData)

	require.Len(t, call.metas, tokenmeta.TransferAccountCount)
	require.Equal(t, keys.Token, call.metas[0].PublicKey)
	require.Equal(t, custody, call.metas[1].PublicKey)
	require.Equal(t, keys.Destination, call.metas[2].PublicKey)
	require.Equal(t, keys.TokenRecord, call.metas[7].PublicKey)
	require.Equal(t, tokenmeta.ProgramID, call.metas[8].PublicKey)
	require.Equal(t, custody, call.metas[tokenmeta.TransferAccountAuthority].PublicKey)
	require.True(t, call.metas[tokenmeta.TransferAccountAuthority].IsSigner)
	require.Equal(t, owner, call.metas[tokenmeta.TransferAccountPayer].PublicKey)
	require.Equal(t, keys.RuleSet, call.metas[16].PublicKey)

	require.Equal(t, []string{EventTypeWithdrawn}, rec.Types())
}

func TestWithdrawEmptyAuthDataIsNone(t *testing.T) {
	owner := key(0x20)
	l, engine := initialized(t, owner)
	ix, err := NewWithdrawInstruction(ProgramID, withdrawKeys(owner), WithdrawArgs{})
	require.NoError(t, err)

	env := &mockEnv{}
	require.NoError(t, l.run(t, engine, env, ix))
	decoded, err := tokenmeta.DecodeCall(env.invokes[0].data)
	require.NoError(t, err)
	require.Nil(t, decoded.AuthorizationData)
}

func TestWithdrawRejectsForeignAuthorityBeforeAnyCall(t *testing.T) {
	owner := key(0x20)
	l, engine := initialized(t, owner)
	ix, err := NewWithdrawInstruction(ProgramID, withdrawKeys(owner), WithdrawArgs{})
	require.NoError(t, err)
	ix.AccountValues[1].PublicKey = key(0x21)

	env := &mockEnv{}
	require.ErrorIs(t, l.run(t, engine, env, ix), ErrAuthorityMismatch)
	require.Empty(t, env.invokes)
	require.Empty(t, env.allocs)
}

func TestWithdrawRequiresOwnerSignature(t *testing.T) {
	owner := key(0x20)
	l, engine := initialized(t, owner)
	ix, err := NewWithdrawInstruction(ProgramID, withdrawKeys(owner), WithdrawArgs{})
	require.NoError(t, err)
	ix.AccountValues[0].IsSigner = false

	env := &mockEnv{}
	require.ErrorIs(t, l.run(t, engine, env, ix), ErrNotASigner)
	require.Empty(t, env.invokes)
}

func TestWithdrawRequiresRecord(t *testing.T) {
	owner := key(0x20)
	ix, err := NewWithdrawInstruction(ProgramID, withdrawKeys(owner), WithdrawArgs{})
	require.NoError(t, err)

	env := &mockEnv{}
	require.ErrorIs(t, ledger{}.run(t, NewEngine(), env, ix), ErrUninitialized)
	require.Empty(t, env.invokes)
}

func TestWithdrawBuilderFailure(t *testing.T) {
	owner := key(0x20)
	l, engine := initialized(t, owner)
	keys := withdrawKeys(owner)
	keys.Mint = solana.PublicKey{}
	ix, err := NewWithdrawInstruction(ProgramID, keys, WithdrawArgs{})
	require.NoError(t, err)

	env := &mockEnv{}
	err = l.run(t, engine, env, ix)
	require.ErrorIs(t, err, ErrTransferBuilderFailed)
	require.Empty(t, env.invokes)
}

func TestWithdrawPropagatesDownstreamError(t *testing.T) {
	owner := key(0x20)
	l, engine := initialized(t, owner)
	downstream := errors.New("token metadata: rule set denied transfer")
	ix, err := NewWithdrawInstruction(ProgramID, withdrawKeys(owner), WithdrawArgs{})
	require.NoError(t, err)

	err = l.run(t, engine, &mockEnv{invokeErr: downstream}, ix)
	require.ErrorIs(t, err, downstream)
	require.False(t, isCustodyError(err))
}

func TestWithdrawRejectsMisplacedWellKnownAccount(t *testing.T) {
	owner := key(0x20)
	l, engine := initialized(t, owner)
	ix, err := NewWithdrawInstruction(ProgramID, withdrawKeys(owner), WithdrawArgs{})
	require.NoError(t, err)
	ix.AccountValues[12], ix.AccountValues[13] = ix.AccountValues[13], ix.AccountValues[12]

	require.ErrorIs(t, l.run(t, engine, &mockEnv{}, ix), ErrUnexpectedAccount)
}

func TestWithdrawIgnoresTrailingAccounts(t *testing.T) {
	owner := key(0x20)
	l, engine := initialized(t, owner)
	ix, err := NewWithdrawInstruction(ProgramID, withdrawKeys(owner), WithdrawArgs{})
	require.NoError(t, err)
	ix.AccountValues = append(ix.AccountValues, solana.NewAccountMeta(key(0xee), false, false))

	env := &mockEnv{}
	require.NoError(t, l.run(t, engine, env, ix))
	require.Len(t, env.invokes, 1)
}

func TestDelegateUsesGuardSeeds(t *testing.T) {
	owner := key(0x30)
	custody, bump, err := FindCustodyAddress(ProgramID, owner)
	require.NoError(t, err)
	l, engine := initialized(t, owner)
	rec := &events.Recorder{}
	engine.SetEmitter(rec)

	keys := delegateKeys()
	ix, err := NewDelegateInstruction(ProgramID, keys, DelegateArgs{Amount: 3, Owner: owner, Bump: bump})
	require.NoError(t, err)

	env := &mockEnv{}
	require.NoError(t, l.run(t, engine, env, ix))
	require.Len(t, env.invokes, 1)

	call := env.invokes[0]
	require.Equal(t, [][][]byte{Seeds(owner, bump)}, call.seeds)
	decoded, err := tokenmeta.DecodeCall(call.data)
	require.NoError(t, err)
	require.Equal(t, tokenmeta.TagDelegate, decoded.Tag)
	require.Equal(t, uint64(3), decoded.Amount)
	require.Nil(t, decoded.AuthorizationData)

	require.Len(t, call.metas, tokenmeta.DelegateAccountCount)
	require.Equal(t, keys.DelegateRecord, call.metas[0].PublicKey)
	require.Equal(t, keys.Delegate, call.metas[1].PublicKey)
	require.Equal(t, tokenmeta.ProgramID, call.metas[4].PublicKey)
	require.Equal(t, keys.Token, call.metas[6].PublicKey)
	require.Equal(t, custody, call.metas[tokenmeta.DelegateAccountApprover].PublicKey)
	require.True(t, call.metas[tokenmeta.DelegateAccountApprover].IsSigner)
	require.Equal(t, keys.Delegate, call.metas[tokenmeta.DelegateAccountPayer].PublicKey)

	require.Equal(t, []string{EventTypeDelegated}, rec.Types())
	evt := rec.Events()[0].(DelegatedEvent).Event()
	require.Equal(t, "3", evt.Attributes["amount"])
}

func TestDelegateRejectsWrongBump(t *testing.T) {
	owner := key(0x30)
	custody, bump, err := FindCustodyAddress(ProgramID, owner)
	require.NoError(t, err)
	l, engine := initialized(t, owner)

	data, err := EncodeCommand(DelegateCommand{Args: DelegateArgs{Amount: 1, Owner: owner, Bump: bump - 1}})
	require.NoError(t, err)
	ix, err := NewDelegateInstruction(ProgramID, delegateKeys(), DelegateArgs{Amount: 1, Owner: owner, Bump: bump})
	require.NoError(t, err)
	require.Equal(t, custody, ix.AccountValues[1].PublicKey)

	env := &mockEnv{}
	err = engine.Process(env, ProgramID, l.infos(ix), data)
	require.ErrorIs(t, err, ErrAuthorityMismatch)
	require.Empty(t, env.invokes)
}

func TestDelegateRequiresDelegateSignature(t *testing.T) {
	owner := key(0x30)
	_, bump, err := FindCustodyAddress(ProgramID, owner)
	require.NoError(t, err)
	l, engine := initialized(t, owner)

	ix, err := NewDelegateInstruction(ProgramID, delegateKeys(), DelegateArgs{Amount: 1, Owner: owner, Bump: bump})
	require.NoError(t, err)
	ix.AccountValues[0].IsSigner = false

	env := &mockEnv{}
	require.ErrorIs(t, l.run(t, engine, env, ix), ErrNotASigner)
	require.Empty(t, env.invokes)
}

func TestDelegateBuilderFailure(t *testing.T) {
	owner := key(0x30)
	_, bump, err := FindCustodyAddress(ProgramID, owner)
	require.NoError(t, err)
	l, engine := initialized(t, owner)

	keys := delegateKeys()
	keys.Metadata = solana.PublicKey{}
	ix, err := NewDelegateInstruction(ProgramID, keys, DelegateArgs{Amount: 1, Owner: owner, Bump: bump})
	require.NoError(t, err)

	env := &mockEnv{}
	require.ErrorIs(t, l.run(t, engine, env, ix), ErrDelegateBuilderFailed)
	require.Empty(t, env.invokes)
}

func TestProcessRejectsMalformedData(t *testing.T) {
	env := &mockEnv{}
	err := NewEngine().Process(env, ProgramID, nil, []byte{9})
	require.ErrorIs(t, err, ErrMalformedCommand)
	require.Empty(t, env.invokes)
	require.Empty(t, env.allocs)
}

func TestProcessCountsOutcomes(t *testing.T) {
	m := metrics.Custody()
	engine := NewEngine()
	engine.SetMetrics(m)

	okBefore := testutil.ToFloat64(m.CommandCount("init", "ok"))
	rejectedBefore := testutil.ToFloat64(m.CommandCount("init", "rejected"))

	ix, err := NewInitInstruction(ProgramID, key(0x40))
	require.NoError(t, err)
	l := ledger{}
	require.NoError(t, l.run(t, engine, &mockEnv{}, ix))
	require.Error(t, l.run(t, engine, &mockEnv{}, ix))

	require.Equal(t, okBefore+1, testutil.ToFloat64(m.CommandCount("init", "ok")))
	require.Equal(t, rejectedBefore+1, testutil.ToFloat64(m.CommandCount("init", "rejected")))
}

func TestSetMetricsSeedsCommandSeries(t *testing.T) {
	NewEngine().SetMetrics(metrics.Custody())

	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)
	seen := map[string]bool{}
	for _, family := range families {
		if family.GetName() != "rooster_commands_total" {
			continue
		}
		for _, metric := range family.GetMetric() {
			labels := map[string]string{}
			for _, pair := range metric.GetLabel() {
				labels[pair.GetName()] = pair.GetValue()
			}
			seen[labels["command"]+"/"+labels["outcome"]] = true
		}
	}
	for _, command := range []string{"init", "withdraw", "delegate"} {
		for _, result := range []string{"ok", "rejected", "failed"} {
			require.True(t, seen[command+"/"+result], "%s/%s not registered", command, result)
		}
	}
}
