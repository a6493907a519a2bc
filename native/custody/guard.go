package custody

import (
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// AssertCustodyAddress re-derives the custody address of owner and returns its
// bump when it equals claimed. The returned bump is the only seed material a
// handler may sign with.
func AssertCustodyAddress(programID, claimed, owner solana.PublicKey) (uint8, error) {
	expected, bump, err := FindCustodyAddress(programID, owner)
	if err != nil {
		return 0, err
	}
	if !expected.Equals(claimed) {
		return 0, fmt.Errorf("%w: expected %s, got %s", ErrAuthorityMismatch, expected, claimed)
	}
	return bump, nil
}

// assertDelegateSeeds accepts a caller-supplied (owner, bump) pair only when
// it matches what the guard derives for the custody account.
func assertDelegateSeeds(programID, custody solana.PublicKey, args DelegateArgs) (uint8, error) {
	bump, err := AssertCustodyAddress(programID, custody, args.Owner)
	if err != nil {
		return 0, err
	}
	if args.Bump != bump {
		return 0, fmt.Errorf("%w: supplied bump %d, derived %d", ErrAuthorityMismatch, args.Bump, bump)
	}
	return bump, nil
}

func isCustodyError(err error) bool {
	var custodyErr *Error
	return errors.As(err, &custodyErr)
}
