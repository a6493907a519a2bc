package crypto

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/gagliardetto/solana-go"
)

// SaveKeypair writes key to path in the solana-keygen JSON layout (a JSON
// array of the 64 secret key bytes). The parent directory is created with 0700
// permissions and the file is replaced atomically.
func SaveKeypair(path string, key solana.PrivateKey) error {
	if len(key) == 0 {
		return errors.New("crypto: nil private key")
	}
	if path == "" {
		return errors.New("crypto: empty keypair path")
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	ints := make([]int, len(key))
	for i, b := range key {
		ints[i] = int(b)
	}
	encoded, err := json.Marshal(ints)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "keypair-")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(encoded); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o600); err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// LoadKeypair reads a solana-keygen keypair file.
func LoadKeypair(path string) (solana.PrivateKey, error) {
	if path == "" {
		return nil, errors.New("crypto: empty keypair path")
	}
	key, err := solana.PrivateKeyFromSolanaKeygenFile(path)
	if err != nil {
		return nil, fmt.Errorf("crypto: load keypair %s: %w", path, err)
	}
	return key, nil
}

// EnsureKeypair loads the keypair at path, generating and saving a new one
// when the file does not exist.
func EnsureKeypair(path string) (solana.PrivateKey, bool, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		key, err := GenerateKeypair()
		if err != nil {
			return nil, false, err
		}
		if err := SaveKeypair(path, key); err != nil {
			return nil, false, err
		}
		return key, true, nil
	} else if err != nil {
		return nil, false, err
	}
	key, err := LoadKeypair(path)
	return key, false, err
}
