package routes

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/go-chi/chi/v5"

	"rooster/core/types"
	"rooster/crypto"
	"rooster/native/custody"
	"rooster/rpcclient"
)

// AccountFetcher loads ledger accounts. rpcclient.Client satisfies it.
type AccountFetcher interface {
	Account(ctx context.Context, key solana.PublicKey) (*types.Account, error)
}

type custodyResponse struct {
	Owner       string  `json:"owner"`
	Custody     string  `json:"custody"`
	Bump        uint8   `json:"bump"`
	Initialized bool    `json:"initialized"`
	Lamports    *uint64 `json:"lamports,omitempty"`
}

type custodyRoutes struct {
	programID solana.PublicKey
	accounts  AccountFetcher
	timeout   time.Duration
}

func (cr *custodyRoutes) mount(r chi.Router) {
	r.Get("/{owner}", cr.lookup)
}

func (cr *custodyRoutes) lookup(w http.ResponseWriter, r *http.Request) {
	owner, err := crypto.ParsePublicKey(chi.URLParam(r, "owner"))
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	address, bump, err := custody.FindCustodyAddress(cr.programID, owner)
	if err != nil {
		writeJSONError(w, http.StatusUnprocessableEntity, "derivation_failed", err)
		return
	}
	resp := custodyResponse{Owner: owner.String(), Custody: address.String(), Bump: bump}
	if cr.accounts == nil {
		writeJSON(w, http.StatusOK, resp)
		return
	}
	ctx := r.Context()
	if cr.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cr.timeout)
		defer cancel()
	}
	acc, err := cr.accounts.Account(ctx, address)
	switch {
	case errors.Is(err, rpcclient.ErrAccountNotFound):
		writeJSON(w, http.StatusOK, resp)
		return
	case err != nil:
		writeJSONError(w, http.StatusBadGateway, "upstream", err)
		return
	}
	lamports := acc.Lamports
	resp.Lamports = &lamports
	_, err = custody.ValidateRecord(cr.programID, acc, bump)
	switch {
	case errors.Is(err, custody.ErrUninitialized):
	case err != nil:
		writeJSONError(w, http.StatusConflict, "invalid_record", err)
		return
	default:
		resp.Initialized = true
	}
	writeJSON(w, http.StatusOK, resp)
}
