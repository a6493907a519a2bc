package runtime

import (
	"errors"
	"fmt"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/gagliardetto/solana-go"

	"rooster/core/types"
	"rooster/storage"
)

var accountPrefix = []byte("account:")

func accountKey(key solana.PublicKey) []byte {
	return ethcrypto.Keccak256(accountPrefix, key[:])
}

// AccountStore persists ledger accounts as rlp blobs in a key-value database.
type AccountStore struct {
	db storage.Database
}

func NewAccountStore(db storage.Database) *AccountStore {
	return &AccountStore{db: db}
}

// Get loads the account stored under key. Keys that were never written
// resolve to an empty system-owned account.
func (s *AccountStore) Get(key solana.PublicKey) (*types.Account, error) {
	data, err := s.db.Get(accountKey(key))
	if errors.Is(err, storage.ErrNotFound) {
		return types.NewAccount(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("runtime: load account %s: %w", key, err)
	}
	acc := new(types.Account)
	if err := rlp.DecodeBytes(data, acc); err != nil {
		return nil, fmt.Errorf("runtime: decode account %s: %w", key, err)
	}
	return acc, nil
}

// Put stores acc under key.
func (s *AccountStore) Put(key solana.PublicKey, acc *types.Account) error {
	if acc == nil {
		acc = types.NewAccount()
	}
	encoded, err := rlp.EncodeToBytes(acc)
	if err != nil {
		return fmt.Errorf("runtime: encode account %s: %w", key, err)
	}
	return s.db.Put(accountKey(key), encoded)
}

// Commit writes every account in accounts in one atomic batch.
func (s *AccountStore) Commit(accounts map[solana.PublicKey]*types.Account) error {
	batch := s.db.NewBatch()
	for key, acc := range accounts {
		if acc == nil {
			acc = types.NewAccount()
		}
		encoded, err := rlp.EncodeToBytes(acc)
		if err != nil {
			return fmt.Errorf("runtime: encode account %s: %w", key, err)
		}
		batch.Put(accountKey(key), encoded)
	}
	if batch.Len() == 0 {
		return nil
	}
	if err := batch.Write(); err != nil {
		return fmt.Errorf("runtime: commit %d accounts: %w", len(accounts), err)
	}
	return nil
}
