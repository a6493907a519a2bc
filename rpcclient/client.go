// Package rpcclient talks to a ledger node over JSON-RPC on behalf of the
// rooster command line and gateway.
package rpcclient

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	"rooster/core/types"
)

var ErrAccountNotFound = errors.New("rpcclient: account not found")

// Client wraps the JSON-RPC client with a fixed commitment level.
type Client struct {
	rpc        *rpc.Client
	commitment rpc.CommitmentType
}

// New returns a client for endpoint. An empty commitment selects confirmed.
func New(endpoint, commitment string) *Client {
	level := rpc.CommitmentType(commitment)
	if commitment == "" {
		level = rpc.CommitmentConfirmed
	}
	return &Client{rpc: rpc.New(endpoint), commitment: level}
}

// Account fetches the account at key.
func (c *Client) Account(ctx context.Context, key solana.PublicKey) (*types.Account, error) {
	res, err := c.rpc.GetAccountInfoWithOpts(ctx, key, &rpc.GetAccountInfoOpts{
		Encoding:   solana.EncodingBase64,
		Commitment: c.commitment,
	})
	if errors.Is(err, rpc.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("rpcclient: get account %s: %w", key, err)
	}
	if res == nil || res.Value == nil {
		return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, key)
	}
	acc := &types.Account{
		Lamports:   res.Value.Lamports,
		Owner:      res.Value.Owner,
		Executable: res.Value.Executable,
	}
	if res.Value.Data != nil {
		acc.Data = res.Value.Data.GetBinary()
	}
	return acc, nil
}

// Send signs the instructions with payer and any extra signers, submits the
// transaction and returns its signature.
func (c *Client) Send(ctx context.Context, payer solana.PrivateKey, ixs []solana.Instruction, signers ...solana.PrivateKey) (solana.Signature, error) {
	recent, err := c.rpc.GetLatestBlockhash(ctx, c.commitment)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("rpcclient: latest blockhash: %w", err)
	}
	tx, err := solana.NewTransaction(ixs, recent.Value.Blockhash, solana.TransactionPayer(payer.PublicKey()))
	if err != nil {
		return solana.Signature{}, fmt.Errorf("rpcclient: build transaction: %w", err)
	}
	keys := append([]solana.PrivateKey{payer}, signers...)
	if _, err := tx.Sign(func(pub solana.PublicKey) *solana.PrivateKey {
		for i := range keys {
			if keys[i].PublicKey().Equals(pub) {
				return &keys[i]
			}
		}
		return nil
	}); err != nil {
		return solana.Signature{}, fmt.Errorf("rpcclient: sign transaction: %w", err)
	}
	sig, err := c.rpc.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		PreflightCommitment: c.commitment,
	})
	if err != nil {
		return solana.Signature{}, fmt.Errorf("rpcclient: send transaction: %w", err)
	}
	return sig, nil
}
