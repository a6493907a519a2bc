package routes

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/go-chi/chi/v5"

	"rooster/gateway/middleware"
)

type Config struct {
	ProgramID solana.PublicKey
	// RuleSet is used by withdraw requests that do not name one.
	RuleSet  solana.PublicKey
	Accounts AccountFetcher
	// RPCTimeout bounds each account lookup. Zero leaves it to the request.
	RPCTimeout time.Duration
	Pauses     Pauser
	// RPCTarget, when set, is proxied under /rpc.
	RPCTarget *url.URL

	Authenticator *middleware.Authenticator
	RateLimiter   *middleware.RateLimiter
	Observability *middleware.Observability
	CORS          middleware.CORSConfig
	Logger        *slog.Logger
}

const (
	RateLimitCustody      = "custody"
	RateLimitInstructions = "instructions"
	RateLimitRPC          = "rpc"
)

func New(cfg Config) (http.Handler, error) {
	if cfg.ProgramID.IsZero() {
		return nil, errors.New("routes: program id is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS(cfg.CORS))

	obs := cfg.Observability

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if obs != nil {
		r.Handle("/metrics", obs.MetricsHandler())
	}

	group := func(sr chi.Router, name, limitKey string, scopes ...string) {
		if cfg.RateLimiter != nil {
			sr.Use(cfg.RateLimiter.Middleware(limitKey))
		}
		if cfg.Authenticator != nil {
			sr.Use(cfg.Authenticator.Middleware(scopes...))
		}
		if obs != nil {
			sr.Use(obs.Middleware(name))
		}
	}

	custodyAPI := &custodyRoutes{programID: cfg.ProgramID, accounts: cfg.Accounts, timeout: cfg.RPCTimeout}
	r.Route("/v1/custody", func(sr chi.Router) {
		group(sr, "custody", RateLimitCustody, middleware.ScopeRead)
		custodyAPI.mount(sr)
	})

	instructionAPI := &instructionRoutes{programID: cfg.ProgramID, defaultRuleSet: cfg.RuleSet, pauses: cfg.Pauses, logger: logger}
	r.Route("/v1/instructions", func(sr chi.Router) {
		group(sr, "instructions", RateLimitInstructions, middleware.ScopeBuild)
		instructionAPI.mount(sr)
	})

	if cfg.RPCTarget != nil {
		proxy := NewProxy(cfg.RPCTarget, "/rpc", logger)
		r.Route("/rpc", func(sr chi.Router) {
			group(sr, "rpc", RateLimitRPC, middleware.ScopeRead)
			sr.Handle("/", proxy)
			sr.Handle("/*", proxy)
		})
	}

	return r, nil
}
