package custody

import (
	"bytes"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"

	"rooster/core/types"
)

// RecordSize is the exact on-ledger size of a Record.
const RecordSize = 1

// Record is the state stored at a custody address: the bump needed to sign
// as that address again.
type Record struct {
	Bump uint8
}

// MarshalBinary encodes the record.
func (r Record) MarshalBinary() ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := bin.NewBorshEncoder(buf).WriteUint8(r.Bump); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalRecord decodes account data into a record. The data must be
// exactly RecordSize bytes.
func UnmarshalRecord(data []byte) (*Record, error) {
	if len(data) != RecordSize {
		return nil, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidRecord, RecordSize, len(data))
	}
	bump, err := bin.NewBorshDecoder(data).ReadUint8()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	return &Record{Bump: bump}, nil
}

// ValidateRecord returns the active record held by acc. bump is the value
// re-derived from the owner; a stored bump that disagrees marks the record
// invalid. Accounts not owned by programID, or empty, are uninitialized.
func ValidateRecord(programID solana.PublicKey, acc *types.Account, bump uint8) (*Record, error) {
	if acc == nil || acc.Owner != programID || len(acc.Data) == 0 {
		return nil, ErrUninitialized
	}
	rec, err := UnmarshalRecord(acc.Data)
	if err != nil {
		return nil, err
	}
	if rec.Bump != bump {
		return nil, fmt.Errorf("%w: stored bump %d, derived %d", ErrInvalidRecord, rec.Bump, bump)
	}
	return rec, nil
}

func loadRecord(programID solana.PublicKey, info *types.AccountInfo, bump uint8) (*Record, error) {
	return ValidateRecord(programID, info.Account, bump)
}
