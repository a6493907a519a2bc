package custody

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"

	"rooster/native/tokenmeta"
)

func TestNewInitInstructionAccounts(t *testing.T) {
	owner := key(0x50)
	custody, _, err := FindCustodyAddress(ProgramID, owner)
	require.NoError(t, err)

	ix, err := NewInitInstruction(ProgramID, owner)
	require.NoError(t, err)
	require.Equal(t, ProgramID, ix.ProgramID())

	metas := ix.Accounts()
	require.Len(t, metas, 3)
	require.Equal(t, solana.NewAccountMeta(owner, true, true), metas[0])
	require.Equal(t, solana.NewAccountMeta(custody, true, false), metas[1])
	require.Equal(t, solana.NewAccountMeta(solana.SystemProgramID, false, false), metas[2])

	data, err := ix.Data()
	require.NoError(t, err)
	require.Equal(t, []byte{0}, data)
}

func TestNewWithdrawInstructionAccounts(t *testing.T) {
	owner := key(0x51)
	keys := withdrawKeys(owner)
	ix, err := NewWithdrawInstruction(ProgramID, keys, WithdrawArgs{AuthData: []byte{1}})
	require.NoError(t, err)

	metas := ix.Accounts()
	require.Len(t, metas, withdrawAccountCount)
	require.True(t, metas[0].IsSigner)
	writable := map[int]bool{0: true, 1: true, 2: true, 4: true, 6: true, 8: true}
	for i, meta := range metas {
		require.Equal(t, writable[i], meta.IsWritable, "account %d", i)
		if i > 0 {
			require.False(t, meta.IsSigner, "account %d", i)
		}
	}
	require.Equal(t, tokenmeta.ProgramID, metas[9].PublicKey)
	require.Equal(t, tokenmeta.AuthRulesProgramID, metas[14].PublicKey)
	require.Equal(t, keys.RuleSet, metas[15].PublicKey)

	data, err := ix.Data()
	require.NoError(t, err)
	cmd, err := DecodeCommand(data)
	require.NoError(t, err)
	require.Equal(t, WithdrawCommand{Args: WithdrawArgs{AuthData: []byte{1}}}, cmd)
}

func TestNewDelegateInstructionAccounts(t *testing.T) {
	owner := key(0x52)
	custody, bump, err := FindCustodyAddress(ProgramID, owner)
	require.NoError(t, err)

	ix, err := NewDelegateInstruction(ProgramID, delegateKeys(), DelegateArgs{Amount: 8, Owner: owner, Bump: bump})
	require.NoError(t, err)
	metas := ix.Accounts()
	require.Len(t, metas, delegateAccountCount)
	require.True(t, metas[0].IsSigner)
	require.Equal(t, custody, metas[1].PublicKey)
	require.Equal(t, solana.TokenProgramID, metas[10].PublicKey)
}

func TestNewDelegateInstructionRejectsOnCurveBump(t *testing.T) {
	owner := key(0x53)
	_, bump, err := FindCustodyAddress(ProgramID, owner)
	require.NoError(t, err)
	for b := int(bump) + 1; b <= 255; b++ {
		_, err := NewDelegateInstruction(ProgramID, delegateKeys(), DelegateArgs{Owner: owner, Bump: uint8(b)})
		require.Error(t, err)
	}
}
