package custody

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// SeedPrefix namespaces every custody address.
const SeedPrefix = "rooster"

// ProgramID is the default deployment address of the custody program.
var ProgramID = solana.MustPublicKeyFromBase58("MyProgram1111111111111111111111111111111111")

func baseSeeds(owner solana.PublicKey) [][]byte {
	return [][]byte{[]byte(SeedPrefix), owner.Bytes()}
}

// Seeds returns the signer seed set of the custody address for owner.
func Seeds(owner solana.PublicKey, bump uint8) [][]byte {
	return append(baseSeeds(owner), []byte{bump})
}

// FindCustodyAddress derives the custody address of owner under programID.
// Bumps are tried from 255 downward and the first one that lands off the
// ed25519 curve is returned, so the result is canonical for owner.
func FindCustodyAddress(programID, owner solana.PublicKey) (solana.PublicKey, uint8, error) {
	addr, bump, err := solana.FindProgramAddress(baseSeeds(owner), programID)
	if err != nil {
		return solana.PublicKey{}, 0, fmt.Errorf("%w: %v", ErrDerivationExhausted, err)
	}
	return addr, bump, nil
}

// CreateCustodyAddress rebuilds the custody address from a known bump without
// searching. It fails when the seeds land on the curve.
func CreateCustodyAddress(programID, owner solana.PublicKey, bump uint8) (solana.PublicKey, error) {
	return solana.CreateProgramAddress(Seeds(owner, bump), programID)
}
