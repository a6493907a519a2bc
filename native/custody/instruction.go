package custody

import (
	"bytes"
	"encoding/binary"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// CommandKind is the discriminant byte leading every custody instruction.
// New commands append a value; existing values never change.
type CommandKind uint8

const (
	KindInit CommandKind = iota
	KindWithdraw
	KindDelegate
)

func (k CommandKind) String() string {
	switch k {
	case KindInit:
		return "init"
	case KindWithdraw:
		return "withdraw"
	case KindDelegate:
		return "delegate"
	default:
		return "unknown"
	}
}

// Command is one decoded custody instruction: InitCommand, WithdrawCommand or
// DelegateCommand.
type Command interface {
	Kind() CommandKind
}

// InitCommand creates the custody record for the signing owner.
type InitCommand struct{}

// WithdrawArgs carries the authorization data forwarded untouched to the
// token metadata transfer. Decoding always yields a non-nil slice.
type WithdrawArgs struct {
	AuthData []byte
}

// WithdrawCommand moves the custodied asset out of custody.
type WithdrawCommand struct {
	Args WithdrawArgs
}

// DelegateArgs names the custody address by its owner and bump.
type DelegateArgs struct {
	Amount uint64
	Owner  solana.PublicKey
	Bump   uint8
}

// DelegateCommand approves a transfer delegate on the custodied asset.
type DelegateCommand struct {
	Args DelegateArgs
}

func (InitCommand) Kind() CommandKind     { return KindInit }
func (WithdrawCommand) Kind() CommandKind { return KindWithdraw }
func (DelegateCommand) Kind() CommandKind { return KindDelegate }

// EncodeCommand serialises cmd into instruction data.
func EncodeCommand(cmd Command) ([]byte, error) {
	if cmd == nil {
		return nil, fmt.Errorf("%w: nil command", ErrMalformedCommand)
	}
	buf := new(bytes.Buffer)
	enc := bin.NewBorshEncoder(buf)
	if err := enc.WriteUint8(uint8(cmd.Kind())); err != nil {
		return nil, err
	}
	switch c := cmd.(type) {
	case InitCommand:
	case WithdrawCommand:
		if err := enc.WriteUint32(uint32(len(c.Args.AuthData)), binary.LittleEndian); err != nil {
			return nil, err
		}
		if err := enc.WriteBytes(c.Args.AuthData, false); err != nil {
			return nil, err
		}
	case DelegateCommand:
		if err := enc.WriteUint64(c.Args.Amount, binary.LittleEndian); err != nil {
			return nil, err
		}
		if err := enc.WriteBytes(c.Args.Owner[:], false); err != nil {
			return nil, err
		}
		if err := enc.WriteUint8(c.Args.Bump); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: unsupported command %T", ErrMalformedCommand, cmd)
	}
	return buf.Bytes(), nil
}

// DecodeCommand parses instruction data. Unknown discriminants, short
// payloads and trailing bytes are all rejected with ErrMalformedCommand.
func DecodeCommand(data []byte) (Command, error) {
	dec := bin.NewBorshDecoder(data)
	tag, err := dec.ReadUint8()
	if err != nil {
		return nil, fmt.Errorf("%w: missing discriminant", ErrMalformedCommand)
	}
	var cmd Command
	switch CommandKind(tag) {
	case KindInit:
		cmd = InitCommand{}
	case KindWithdraw:
		size, err := dec.ReadUint32(binary.LittleEndian)
		if err != nil {
			return nil, fmt.Errorf("%w: withdraw auth data length: %v", ErrMalformedCommand, err)
		}
		if uint64(size) > uint64(dec.Remaining()) {
			return nil, fmt.Errorf("%w: withdraw auth data needs %d bytes, %d remain", ErrMalformedCommand, size, dec.Remaining())
		}
		authData := []byte{}
		if size > 0 {
			raw, err := dec.ReadNBytes(int(size))
			if err != nil {
				return nil, fmt.Errorf("%w: withdraw auth data: %v", ErrMalformedCommand, err)
			}
			authData = append([]byte(nil), raw...)
		}
		cmd = WithdrawCommand{Args: WithdrawArgs{AuthData: authData}}
	case KindDelegate:
		var args DelegateArgs
		if args.Amount, err = dec.ReadUint64(binary.LittleEndian); err != nil {
			return nil, fmt.Errorf("%w: delegate amount: %v", ErrMalformedCommand, err)
		}
		owner, err := dec.ReadNBytes(len(solana.PublicKey{}))
		if err != nil {
			return nil, fmt.Errorf("%w: delegate owner: %v", ErrMalformedCommand, err)
		}
		args.Owner = solana.PublicKeyFromBytes(owner)
		if args.Bump, err = dec.ReadUint8(); err != nil {
			return nil, fmt.Errorf("%w: delegate bump: %v", ErrMalformedCommand, err)
		}
		cmd = DelegateCommand{Args: args}
	default:
		return nil, fmt.Errorf("%w: unknown discriminant %d", ErrMalformedCommand, tag)
	}
	if rest := dec.Remaining(); rest != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes after %s", ErrMalformedCommand, rest, cmd.Kind())
	}
	return cmd, nil
}
