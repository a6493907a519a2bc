package tokenmeta

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	bin "github.com/gagliardetto/binary"
)

var ErrMalformedCall = errors.New("tokenmeta: malformed instruction data")

// TransferArgs is the V1 transfer argument set. AuthorizationData is the
// borsh encoding of the rules payload; it is carried verbatim and omitted from
// the wire when empty.
type TransferArgs struct {
	Amount            uint64
	AuthorizationData []byte
}

// DelegateArgs is the TransferV1 delegation argument set.
type DelegateArgs struct {
	Amount            uint64
	AuthorizationData []byte
}

// Call is a decoded token metadata instruction.
type Call struct {
	Tag               InstructionTag
	Variant           uint8
	Amount            uint64
	AuthorizationData []byte
}

func encodeCall(tag InstructionTag, variant uint8, amount uint64, authData []byte) ([]byte, error) {
	buf := new(bytes.Buffer)
	enc := bin.NewBorshEncoder(buf)
	if err := enc.WriteUint8(uint8(tag)); err != nil {
		return nil, err
	}
	if err := enc.WriteUint8(variant); err != nil {
		return nil, err
	}
	if err := enc.WriteUint64(amount, binary.LittleEndian); err != nil {
		return nil, err
	}
	if len(authData) == 0 {
		if err := enc.WriteUint8(0); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}
	if err := enc.WriteUint8(1); err != nil {
		return nil, err
	}
	if err := enc.WriteBytes(authData, false); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// EncodeTransfer returns the instruction data for a V1 transfer.
func EncodeTransfer(args TransferArgs) ([]byte, error) {
	return encodeCall(TagTransfer, transferArgsV1, args.Amount, args.AuthorizationData)
}

// EncodeDelegate returns the instruction data for a TransferV1 delegation.
func EncodeDelegate(args DelegateArgs) ([]byte, error) {
	return encodeCall(TagDelegate, delegateArgsTransferV1, args.Amount, args.AuthorizationData)
}

// DecodeCall parses instruction data produced by EncodeTransfer or
// EncodeDelegate. Any bytes following a present authorization option are
// returned as the authorization data.
func DecodeCall(data []byte) (*Call, error) {
	dec := bin.NewBorshDecoder(data)
	tag, err := dec.ReadUint8()
	if err != nil {
		return nil, fmt.Errorf("%w: tag: %v", ErrMalformedCall, err)
	}
	call := &Call{Tag: InstructionTag(tag)}
	switch call.Tag {
	case TagTransfer, TagDelegate:
	default:
		return nil, fmt.Errorf("%w: unsupported tag %d", ErrMalformedCall, tag)
	}
	if call.Variant, err = dec.ReadUint8(); err != nil {
		return nil, fmt.Errorf("%w: variant: %v", ErrMalformedCall, err)
	}
	if call.Tag == TagTransfer && call.Variant != transferArgsV1 {
		return nil, fmt.Errorf("%w: unsupported transfer variant %d", ErrMalformedCall, call.Variant)
	}
	if call.Tag == TagDelegate && call.Variant != delegateArgsTransferV1 {
		return nil, fmt.Errorf("%w: unsupported delegate variant %d", ErrMalformedCall, call.Variant)
	}
	if call.Amount, err = dec.ReadUint64(binary.LittleEndian); err != nil {
		return nil, fmt.Errorf("%w: amount: %v", ErrMalformedCall, err)
	}
	present, err := dec.ReadUint8()
	if err != nil {
		return nil, fmt.Errorf("%w: authorization option: %v", ErrMalformedCall, err)
	}
	switch present {
	case 0:
		if dec.Remaining() != 0 {
			return nil, fmt.Errorf("%w: %d trailing bytes", ErrMalformedCall, dec.Remaining())
		}
	case 1:
		if dec.Remaining() == 0 {
			return nil, fmt.Errorf("%w: empty authorization data", ErrMalformedCall)
		}
		raw, err := dec.ReadNBytes(dec.Remaining())
		if err != nil {
			return nil, fmt.Errorf("%w: authorization data: %v", ErrMalformedCall, err)
		}
		call.AuthorizationData = append([]byte(nil), raw...)
	default:
		return nil, fmt.Errorf("%w: invalid option tag %d", ErrMalformedCall, present)
	}
	return call, nil
}
