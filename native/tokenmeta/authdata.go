package tokenmeta

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sort"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// PayloadValue is one entry of an authorization payload. The concrete types
// below are the only implementations.
type PayloadValue interface {
	payloadVariant() uint8
}

// PubkeyValue carries an account address, e.g. the transfer destination.
type PubkeyValue solana.PublicKey

// SeedsValue carries the seeds of a program-derived address.
type SeedsValue [][]byte

// MerkleProofValue carries a proof for allow-list rules.
type MerkleProofValue [][32]byte

// NumberValue carries an integer such as an amount.
type NumberValue uint64

func (PubkeyValue) payloadVariant() uint8      { return 0 }
func (SeedsValue) payloadVariant() uint8       { return 1 }
func (MerkleProofValue) payloadVariant() uint8 { return 2 }
func (NumberValue) payloadVariant() uint8      { return 3 }

// AuthorizationData is the rules payload the token metadata program forwards
// to the authorization rules program.
type AuthorizationData struct {
	Payload map[string]PayloadValue
}

// Payload keys read by the transfer rules of a rule set.
const (
	PayloadKeyDestination = "Destination"
	PayloadKeyAmount      = "Amount"
)

// TransferAuthorization is the payload a rule set evaluates for a transfer:
// the receiving token account and the amount moved.
func TransferAuthorization(destination solana.PublicKey, amount uint64) AuthorizationData {
	return AuthorizationData{Payload: map[string]PayloadValue{
		PayloadKeyDestination: PubkeyValue(destination),
		PayloadKeyAmount:      NumberValue(amount),
	}}
}

// MarshalBorsh encodes the payload as the borsh form of a string-keyed map.
// Entries are written in ascending key order so the output is deterministic.
func (a AuthorizationData) MarshalBorsh() ([]byte, error) {
	buf := new(bytes.Buffer)
	enc := bin.NewBorshEncoder(buf)
	keys := make([]string, 0, len(a.Payload))
	for key := range a.Payload {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	if err := enc.WriteUint32(uint32(len(keys)), binary.LittleEndian); err != nil {
		return nil, err
	}
	for _, key := range keys {
		if err := writeBytes(enc, []byte(key)); err != nil {
			return nil, err
		}
		value := a.Payload[key]
		if value == nil {
			return nil, fmt.Errorf("tokenmeta: nil payload value for %q", key)
		}
		if err := enc.WriteUint8(value.payloadVariant()); err != nil {
			return nil, err
		}
		if err := writePayloadValue(enc, value); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

func writePayloadValue(enc *bin.Encoder, value PayloadValue) error {
	switch v := value.(type) {
	case PubkeyValue:
		return enc.WriteBytes(v[:], false)
	case SeedsValue:
		if err := enc.WriteUint32(uint32(len(v)), binary.LittleEndian); err != nil {
			return err
		}
		for _, seed := range v {
			if err := writeBytes(enc, seed); err != nil {
				return err
			}
		}
		return nil
	case MerkleProofValue:
		if err := enc.WriteUint32(uint32(len(v)), binary.LittleEndian); err != nil {
			return err
		}
		for _, node := range v {
			if err := enc.WriteBytes(node[:], false); err != nil {
				return err
			}
		}
		return nil
	case NumberValue:
		return enc.WriteUint64(uint64(v), binary.LittleEndian)
	default:
		return fmt.Errorf("tokenmeta: unsupported payload value %T", value)
	}
}

func writeBytes(enc *bin.Encoder, b []byte) error {
	if err := enc.WriteUint32(uint32(len(b)), binary.LittleEndian); err != nil {
		return err
	}
	return enc.WriteBytes(b, false)
}
