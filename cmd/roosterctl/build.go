package main

import (
	"encoding/base64"
	"flag"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"

	"rooster/crypto"
	"rooster/native/custody"
	"rooster/native/tokenmeta"
)

type metaJSON struct {
	PublicKey  string `json:"pubkey"`
	IsSigner   bool   `json:"isSigner"`
	IsWritable bool   `json:"isWritable"`
}

type instructionJSON struct {
	ProgramID  string     `json:"programId"`
	Accounts   []metaJSON `json:"accounts"`
	Data       string     `json:"data"`
	DataBase58 string     `json:"dataBase58"`
}

func renderInstruction(ix *solana.GenericInstruction) (instructionJSON, error) {
	data, err := ix.Data()
	if err != nil {
		return instructionJSON{}, err
	}
	out := instructionJSON{
		ProgramID:  ix.ProgramID().String(),
		Data:       base64.StdEncoding.EncodeToString(data),
		DataBase58: base58.Encode(data),
	}
	for _, meta := range ix.Accounts() {
		out.Accounts = append(out.Accounts, metaJSON{
			PublicKey:  meta.PublicKey.String(),
			IsSigner:   meta.IsSigner,
			IsWritable: meta.IsWritable,
		})
	}
	return out, nil
}

func runBuild(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("build needs one of init, withdraw, delegate")
	}
	var (
		ix  *solana.GenericInstruction
		err error
	)
	switch args[0] {
	case "init":
		ix, err = buildInit(args[1:])
	case "withdraw":
		ix, err = buildWithdraw(args[1:])
	case "delegate":
		ix, err = buildDelegate(args[1:])
	default:
		return fmt.Errorf("unknown instruction %q", args[0])
	}
	if err != nil {
		return err
	}
	out, err := renderInstruction(ix)
	if err != nil {
		return err
	}
	return printJSON(out)
}

func paused(s *session, command string) error {
	if s.cfg.Pauses.Paused(command) {
		return fmt.Errorf("%s is paused in the config", command)
	}
	return nil
}

func buildInit(args []string) (*solana.GenericInstruction, error) {
	fs := flag.NewFlagSet("build init", flag.ExitOnError)
	owner := fs.String("owner", "", "Owner public key")
	s, err := openSession(fs, args)
	if err != nil {
		return nil, err
	}
	if err := paused(s, "init"); err != nil {
		return nil, err
	}
	ownerKey, err := requireKey("owner", *owner)
	if err != nil {
		return nil, err
	}
	return custody.NewInitInstruction(s.programID, ownerKey)
}

func buildWithdraw(args []string) (*solana.GenericInstruction, error) {
	fs := flag.NewFlagSet("build withdraw", flag.ExitOnError)
	names := []string{"owner", "token", "destination-owner", "destination", "mint", "metadata", "edition", "token-record"}
	values := make(map[string]*string, len(names))
	for _, name := range names {
		values[name] = fs.String(name, "", name+" public key")
	}
	ruleSet := fs.String("rule-set", "", "Authorization rule set (defaults to the config RuleSet)")
	authData := fs.String("auth-data", "", "Base64 authorization payload")
	authTransfer := fs.Bool("auth-transfer", false, "Attach the transfer rules payload (destination, amount 1) instead of --auth-data")
	s, err := openSession(fs, args)
	if err != nil {
		return nil, err
	}
	if err := paused(s, "withdraw"); err != nil {
		return nil, err
	}
	keys := make(map[string]solana.PublicKey, len(names))
	for _, name := range names {
		if keys[name], err = requireKey(name, *values[name]); err != nil {
			return nil, err
		}
	}
	rules, err := crypto.ParseOptionalPublicKey(*ruleSet)
	if err != nil {
		return nil, fmt.Errorf("--rule-set: %w", err)
	}
	if rules.IsZero() {
		if rules, err = s.cfg.RuleSetKey(); err != nil {
			return nil, err
		}
	}
	if rules.IsZero() {
		return nil, fmt.Errorf("--rule-set is required when the config has no RuleSet")
	}
	payload, err := withdrawAuthData(*authData, *authTransfer, keys["destination"])
	if err != nil {
		return nil, err
	}
	logAuthData(s.logger, "withdraw", keys["owner"], payload)
	return custody.NewWithdrawInstruction(s.programID, custody.WithdrawKeys{
		Owner:            keys["owner"],
		Token:            keys["token"],
		DestinationOwner: keys["destination-owner"],
		Destination:      keys["destination"],
		Mint:             keys["mint"],
		Metadata:         keys["metadata"],
		Edition:          keys["edition"],
		TokenRecord:      keys["token-record"],
		RuleSet:          rules,
	}, custody.WithdrawArgs{AuthData: payload})
}

// withdrawAuthData resolves the withdraw authorization payload from either the
// raw base64 flag or the generated transfer payload.
func withdrawAuthData(raw string, transfer bool, destination solana.PublicKey) ([]byte, error) {
	if transfer {
		if raw != "" {
			return nil, fmt.Errorf("--auth-data and --auth-transfer are mutually exclusive")
		}
		return tokenmeta.TransferAuthorization(destination, 1).MarshalBorsh()
	}
	payload, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("--auth-data: %w", err)
	}
	return payload, nil
}

func buildDelegate(args []string) (*solana.GenericInstruction, error) {
	fs := flag.NewFlagSet("build delegate", flag.ExitOnError)
	names := []string{"delegate", "owner", "token", "mint", "metadata", "edition", "delegate-record"}
	values := make(map[string]*string, len(names))
	for _, name := range names {
		values[name] = fs.String(name, "", name+" public key")
	}
	amount := fs.Uint64("amount", 1, "Amount to delegate")
	bump := fs.Int("bump", -1, "Custody bump (derived when negative)")
	s, err := openSession(fs, args)
	if err != nil {
		return nil, err
	}
	if err := paused(s, "delegate"); err != nil {
		return nil, err
	}
	keys := make(map[string]solana.PublicKey, len(names))
	for _, name := range names {
		if keys[name], err = requireKey(name, *values[name]); err != nil {
			return nil, err
		}
	}
	if *bump > 255 {
		return nil, fmt.Errorf("--bump must be at most 255")
	}
	resolved := uint8(*bump)
	if *bump < 0 {
		if _, resolved, err = custody.FindCustodyAddress(s.programID, keys["owner"]); err != nil {
			return nil, err
		}
	}
	return custody.NewDelegateInstruction(s.programID, custody.DelegateKeys{
		Delegate:       keys["delegate"],
		Token:          keys["token"],
		Mint:           keys["mint"],
		Metadata:       keys["metadata"],
		Edition:        keys["edition"],
		DelegateRecord: keys["delegate-record"],
	}, custody.DelegateArgs{Amount: *amount, Owner: keys["owner"], Bump: resolved})
}
