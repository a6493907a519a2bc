package custody

import (
	"bytes"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"
)

func key(fill byte) solana.PublicKey {
	var k solana.PublicKey
	copy(k[:], bytes.Repeat([]byte{fill}, 32))
	return k
}

func TestFindCustodyAddressDeterministic(t *testing.T) {
	owner := key(0x11)
	addr1, bump1, err := FindCustodyAddress(ProgramID, owner)
	require.NoError(t, err)
	addr2, bump2, err := FindCustodyAddress(ProgramID, owner)
	require.NoError(t, err)
	require.Equal(t, addr1, addr2)
	require.Equal(t, bump1, bump2)

	rebuilt, err := CreateCustodyAddress(ProgramID, owner, bump1)
	require.NoError(t, err)
	require.Equal(t, addr1, rebuilt)
}

func TestFindCustodyAddressIsCanonical(t *testing.T) {
	owner := key(0x22)
	_, bump, err := FindCustodyAddress(ProgramID, owner)
	require.NoError(t, err)
	for higher := int(bump) + 1; higher <= 255; higher++ {
		_, err := CreateCustodyAddress(ProgramID, owner, uint8(higher))
		require.Error(t, err, "bump %d should land on the curve", higher)
	}
}

func TestCustodyAddressDependsOnOwnerAndProgram(t *testing.T) {
	a, _, err := FindCustodyAddress(ProgramID, key(1))
	require.NoError(t, err)
	b, _, err := FindCustodyAddress(ProgramID, key(2))
	require.NoError(t, err)
	require.NotEqual(t, a, b)

	c, _, err := FindCustodyAddress(key(9), key(1))
	require.NoError(t, err)
	require.NotEqual(t, a, c)
}

func TestSeedsLayout(t *testing.T) {
	owner := key(0x33)
	seeds := Seeds(owner, 7)
	require.Len(t, seeds, 3)
	require.Equal(t, []byte("rooster"), seeds[0])
	require.Equal(t, owner.Bytes(), seeds[1])
	require.Equal(t, []byte{7}, seeds[2])
}

func TestFindCustodyAddressUsesRoosterSeeds(t *testing.T) {
	owner := key(0x66)
	addr, bump, err := FindCustodyAddress(ProgramID, owner)
	require.NoError(t, err)

	want, wantBump, err := solana.FindProgramAddress([][]byte{[]byte("rooster"), owner.Bytes()}, ProgramID)
	require.NoError(t, err)
	require.Equal(t, want, addr)
	require.Equal(t, wantBump, bump)
	require.Equal(t, Seeds(owner, bump)[:2], [][]byte{[]byte("rooster"), owner.Bytes()})
}
