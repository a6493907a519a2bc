// Package crypto manages the ed25519 keypairs that sign rooster transactions.
package crypto

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go"
)

var ErrInvalidPublicKey = errors.New("crypto: invalid public key")

// GenerateKeypair returns a fresh ed25519 keypair.
func GenerateKeypair() (solana.PrivateKey, error) {
	key, err := solana.NewRandomPrivateKey()
	if err != nil {
		return nil, fmt.Errorf("crypto: generate keypair: %w", err)
	}
	return key, nil
}

// ParsePublicKey decodes a base58 ledger address.
func ParsePublicKey(s string) (solana.PublicKey, error) {
	key, err := solana.PublicKeyFromBase58(strings.TrimSpace(s))
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("%w %q: %v", ErrInvalidPublicKey, s, err)
	}
	return key, nil
}

// ParseOptionalPublicKey is ParsePublicKey that maps an empty string to the
// zero key.
func ParseOptionalPublicKey(s string) (solana.PublicKey, error) {
	if strings.TrimSpace(s) == "" {
		return solana.PublicKey{}, nil
	}
	return ParsePublicKey(s)
}
