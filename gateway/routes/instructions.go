package routes

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/gagliardetto/solana-go"
	"github.com/go-chi/chi/v5"
	"github.com/mr-tron/base58"

	"rooster/crypto"
	"rooster/gateway/middleware"
	"rooster/native/custody"
	"rooster/observability/logging"
)

const maxRequestBody = 64 << 10

// Pauser reports whether an instruction builder is switched off.
type Pauser interface {
	Paused(command string) bool
}

type accountMetaJSON struct {
	PublicKey  string `json:"pubkey"`
	IsSigner   bool   `json:"isSigner"`
	IsWritable bool   `json:"isWritable"`
}

// InstructionResponse is an unsigned instruction ready to be placed in a
// transaction by the caller.
type InstructionResponse struct {
	ProgramID  string            `json:"programId"`
	Accounts   []accountMetaJSON `json:"accounts"`
	Data       string            `json:"data"`
	DataBase58 string            `json:"dataBase58"`
	Custody    string            `json:"custody"`
}

type initRequest struct {
	Owner string `json:"owner"`
}

type withdrawRequest struct {
	Owner            string `json:"owner"`
	Token            string `json:"token"`
	DestinationOwner string `json:"destinationOwner"`
	Destination      string `json:"destination"`
	Mint             string `json:"mint"`
	Metadata         string `json:"metadata"`
	Edition          string `json:"edition"`
	TokenRecord      string `json:"tokenRecord"`
	RuleSet          string `json:"ruleSet"`
	// AuthData is base64 and may be empty.
	AuthData string `json:"authData"`
}

type delegateRequest struct {
	Delegate       string `json:"delegate"`
	Owner          string `json:"owner"`
	Bump           *uint8 `json:"bump"`
	Amount         uint64 `json:"amount"`
	Token          string `json:"token"`
	Mint           string `json:"mint"`
	Metadata       string `json:"metadata"`
	Edition        string `json:"edition"`
	DelegateRecord string `json:"delegateRecord"`
}

type instructionRoutes struct {
	programID      solana.PublicKey
	defaultRuleSet solana.PublicKey
	pauses         Pauser
	logger         *slog.Logger
}

func (ir *instructionRoutes) mount(r chi.Router) {
	r.Post("/init", ir.guard("init", ir.buildInit))
	r.Post("/withdraw", ir.guard("withdraw", ir.buildWithdraw))
	r.Post("/delegate", ir.guard("delegate", ir.buildDelegate))
}

func (ir *instructionRoutes) guard(command string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ir.pauses != nil && ir.pauses.Paused(command) {
			writeJSONError(w, http.StatusServiceUnavailable, "paused", fmt.Errorf("%s is paused", command))
			return
		}
		next(w, r)
	}
}

func decodeBody(r *http.Request, dst interface{}) error {
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return fmt.Errorf("decode request: %w", err)
	}
	return nil
}

// keyParser collects the first parse failure so request fields can be read
// in one pass.
type keyParser struct {
	err error
}

func (p *keyParser) key(field, value string) solana.PublicKey {
	if p.err != nil {
		return solana.PublicKey{}
	}
	key, err := crypto.ParsePublicKey(value)
	if err != nil {
		p.err = fmt.Errorf("%s: %w", field, err)
	}
	return key
}

func (ir *instructionRoutes) buildInit(w http.ResponseWriter, r *http.Request) {
	var req initRequest
	if err := decodeBody(r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}
	var p keyParser
	owner := p.key("owner", req.Owner)
	if p.err != nil {
		writeBadRequest(w, p.err)
		return
	}
	ix, err := custody.NewInitInstruction(ir.programID, owner)
	ir.respond(w, ix, err)
}

func (ir *instructionRoutes) buildWithdraw(w http.ResponseWriter, r *http.Request) {
	var req withdrawRequest
	if err := decodeBody(r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}
	var p keyParser
	keys := custody.WithdrawKeys{
		Owner:            p.key("owner", req.Owner),
		Token:            p.key("token", req.Token),
		DestinationOwner: p.key("destinationOwner", req.DestinationOwner),
		Destination:      p.key("destination", req.Destination),
		Mint:             p.key("mint", req.Mint),
		Metadata:         p.key("metadata", req.Metadata),
		Edition:          p.key("edition", req.Edition),
		TokenRecord:      p.key("tokenRecord", req.TokenRecord),
	}
	if p.err != nil {
		writeBadRequest(w, p.err)
		return
	}
	ruleSet, err := crypto.ParseOptionalPublicKey(req.RuleSet)
	if err != nil {
		writeBadRequest(w, fmt.Errorf("ruleSet: %w", err))
		return
	}
	if ruleSet.IsZero() {
		ruleSet = ir.defaultRuleSet
	}
	if ruleSet.IsZero() {
		writeBadRequest(w, errors.New("ruleSet: required"))
		return
	}
	keys.RuleSet = ruleSet
	authData, err := base64.StdEncoding.DecodeString(req.AuthData)
	if err != nil {
		writeBadRequest(w, fmt.Errorf("authData: %w", err))
		return
	}
	ir.logger.Info("gateway: withdraw instruction requested",
		"owner", keys.Owner.String(),
		logging.MaskBytes("authData", authData),
		"request_id", middleware.RequestIDFromContext(r.Context()),
	)
	ix, err := custody.NewWithdrawInstruction(ir.programID, keys, custody.WithdrawArgs{AuthData: authData})
	ir.respond(w, ix, err)
}

func (ir *instructionRoutes) buildDelegate(w http.ResponseWriter, r *http.Request) {
	var req delegateRequest
	if err := decodeBody(r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}
	var p keyParser
	keys := custody.DelegateKeys{
		Delegate:       p.key("delegate", req.Delegate),
		Token:          p.key("token", req.Token),
		Mint:           p.key("mint", req.Mint),
		Metadata:       p.key("metadata", req.Metadata),
		Edition:        p.key("edition", req.Edition),
		DelegateRecord: p.key("delegateRecord", req.DelegateRecord),
	}
	owner := p.key("owner", req.Owner)
	if p.err != nil {
		writeBadRequest(w, p.err)
		return
	}
	var bump uint8
	if req.Bump != nil {
		bump = *req.Bump
	} else {
		_, found, err := custody.FindCustodyAddress(ir.programID, owner)
		if err != nil {
			writeJSONError(w, http.StatusUnprocessableEntity, "derivation_failed", err)
			return
		}
		bump = found
	}
	ix, err := custody.NewDelegateInstruction(ir.programID, keys, custody.DelegateArgs{
		Amount: req.Amount,
		Owner:  owner,
		Bump:   bump,
	})
	ir.respond(w, ix, err)
}

func (ir *instructionRoutes) respond(w http.ResponseWriter, ix *solana.GenericInstruction, err error) {
	if err != nil {
		writeJSONError(w, http.StatusUnprocessableEntity, "build_failed", err)
		return
	}
	data, err := ix.Data()
	if err != nil {
		writeInternalError(w, err)
		return
	}
	metas := ix.Accounts()
	resp := InstructionResponse{
		ProgramID:  ix.ProgramID().String(),
		Accounts:   make([]accountMetaJSON, 0, len(metas)),
		Data:       base64.StdEncoding.EncodeToString(data),
		DataBase58: base58.Encode(data),
		Custody:    metas[1].PublicKey.String(),
	}
	for _, meta := range metas {
		resp.Accounts = append(resp.Accounts, accountMetaJSON{
			PublicKey:  meta.PublicKey.String(),
			IsSigner:   meta.IsSigner,
			IsWritable: meta.IsWritable,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}
