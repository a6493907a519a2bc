package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"

	"rooster/crypto"
	"rooster/native/custody"
	"rooster/rpcclient"
)

func runInspect(args []string) error {
	fs := flag.NewFlagSet("inspect", flag.ExitOnError)
	owner := fs.String("owner", "", "Owner public key")
	timeout := fs.Duration("timeout", 10*time.Second, "RPC timeout")
	s, err := openSession(fs, args)
	if err != nil {
		return err
	}
	ownerKey, err := requireKey("owner", *owner)
	if err != nil {
		return err
	}
	address, bump, err := custody.FindCustodyAddress(s.programID, ownerKey)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	client := rpcclient.New(s.cfg.RPCEndpoint, s.cfg.Commitment)
	acc, err := client.Account(ctx, address)
	if errors.Is(err, rpcclient.ErrAccountNotFound) {
		return printJSON(map[string]interface{}{"custody": address.String(), "initialized": false})
	}
	if err != nil {
		return err
	}
	out := map[string]interface{}{
		"custody":     address.String(),
		"lamports":    acc.Lamports,
		"owner":       acc.Owner.String(),
		"initialized": false,
	}
	if acc.Owner.Equals(s.programID) && len(acc.Data) > 0 {
		rec, err := custody.UnmarshalRecord(acc.Data)
		if err != nil {
			return err
		}
		out["initialized"] = true
		out["bump"] = rec.Bump
		out["bumpMatches"] = rec.Bump == bump
	}
	return printJSON(out)
}

// runSend submits an Init for the configured keypair. Withdraw and Delegate
// need accounts the CLI cannot discover, so they are built and signed
// elsewhere.
func runSend(args []string) error {
	if len(args) < 1 || args[0] != "init" {
		return fmt.Errorf("send supports only init")
	}
	fs := flag.NewFlagSet("send init", flag.ExitOnError)
	timeout := fs.Duration("timeout", 30*time.Second, "RPC timeout")
	s, err := openSession(fs, args[1:])
	if err != nil {
		return err
	}
	if err := paused(s, "init"); err != nil {
		return err
	}
	payer, err := crypto.LoadKeypair(s.cfg.KeypairPath)
	if err != nil {
		return err
	}
	ix, err := custody.NewInitInstruction(s.programID, payer.PublicKey())
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	client := rpcclient.New(s.cfg.RPCEndpoint, s.cfg.Commitment)
	sig, err := client.Send(ctx, payer, []solana.Instruction{ix})
	if err != nil {
		return err
	}
	s.logger.Info("init submitted", "signature", sig.String(), "custody", ix.Accounts()[1].PublicKey.String())
	return printJSON(map[string]string{
		"signature": sig.String(),
		"custody":   ix.Accounts()[1].PublicKey.String(),
	})
}
