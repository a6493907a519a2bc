package main

import (
	"context"
	"errors"
	"flag"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"rooster/crypto"
	"rooster/gateway/config"
	"rooster/gateway/middleware"
	"rooster/gateway/routes"
	"rooster/observability/logging"
	telemetry "rooster/observability/otel"
	"rooster/rpcclient"
)

func main() {
	var cfgPath string
	flag.StringVar(&cfgPath, "config", "", "path to gateway configuration")
	flag.Parse()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		logging.Setup("rooster-gateway", "").Error("load config", "error", err)
		os.Exit(1)
	}
	env := cfg.Environment
	if override := strings.TrimSpace(os.Getenv("ROOSTER_ENV")); override != "" {
		env = override
	}
	logger := logging.Setup(cfg.Observability.ServiceName, env)

	otelCfg := telemetry.ConfigFromEnv(cfg.Observability.ServiceName, env)
	otelCfg.Traces = otelCfg.Traces && cfg.Observability.Tracing
	shutdownTelemetry, err := telemetry.Init(context.Background(), otelCfg)
	if err != nil {
		logger.Error("failed to initialise telemetry", "error", err)
		os.Exit(1)
	}
	defer func() {
		if shutdownTelemetry != nil {
			_ = shutdownTelemetry(context.Background())
		}
	}()

	programID, err := crypto.ParsePublicKey(cfg.ProgramID)
	if err != nil {
		logger.Error("parse program id", "error", err)
		os.Exit(1)
	}
	ruleSet, err := crypto.ParseOptionalPublicKey(cfg.RuleSet)
	if err != nil {
		logger.Error("parse rule set", "error", err)
		os.Exit(1)
	}
	rpcURL, err := cfg.RPCURL()
	if err != nil {
		logger.Error("parse rpc endpoint", "error", err)
		os.Exit(1)
	}

	rateLimits := make(map[string]middleware.RateLimit, len(cfg.RateLimits))
	for _, entry := range cfg.RateLimits {
		rateLimits[entry.ID] = middleware.RateLimit{
			RequestsPerMinute: entry.RequestsPerMinute,
			Burst:             entry.Burst,
		}
	}
	if len(rateLimits) == 0 {
		rateLimits[routes.RateLimitCustody] = middleware.RateLimit{RequestsPerMinute: 600, Burst: 60}
		rateLimits[routes.RateLimitInstructions] = middleware.RateLimit{RequestsPerMinute: 120, Burst: 20}
		rateLimits[routes.RateLimitRPC] = middleware.RateLimit{RequestsPerMinute: 600, Burst: 60}
	}

	obs := middleware.NewObservability(middleware.ObservabilityConfig{
		ServiceName:   cfg.Observability.ServiceName,
		MetricsPrefix: cfg.Observability.MetricsPrefix,
		LogRequests:   cfg.Observability.LogRequests,
		Enabled:       cfg.Observability.Metrics || cfg.Observability.Tracing,
	}, logger)

	auth := middleware.NewAuthenticator(middleware.AuthConfig{
		Enabled:    cfg.Auth.Enabled,
		HMACSecret: cfg.Auth.HMACSecret,
		Issuer:     cfg.Auth.Issuer,
		Audience:   cfg.Auth.Audience,
		ScopeClaim: cfg.Auth.ScopeClaim,
		ClockSkew:  cfg.Auth.ClockSkew,
	}, logger)

	routeCfg := routes.Config{
		ProgramID:     programID,
		RuleSet:       ruleSet,
		Accounts:      rpcclient.New(rpcURL.String(), cfg.RPC.Commitment),
		RPCTimeout:    cfg.RPC.Timeout,
		Pauses:        cfg.Pauses,
		Authenticator: auth,
		RateLimiter:   middleware.NewRateLimiter(rateLimits, logger),
		Observability: obs,
		CORS:          middleware.CORSConfig{AllowedOrigins: cfg.CORS.AllowedOrigins},
		Logger:        logger,
	}
	if cfg.RPC.Proxy {
		routeCfg.RPCTarget = rpcURL
	}
	router, err := routes.New(routeCfg)
	if err != nil {
		logger.Error("configure routes", "error", err)
		os.Exit(1)
	}

	handler := http.Handler(router)
	if cfg.Observability.Tracing {
		handler = otelhttp.NewHandler(router, "rooster-gateway")
	}

	server := &http.Server{
		Addr:         cfg.ListenAddress,
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	listener, err := net.Listen("tcp", cfg.ListenAddress)
	if err != nil {
		logger.Error("listen", "error", err)
		os.Exit(1)
	}
	go func() {
		logger.Info("listening", "addr", listener.Addr().String(), "program", programID.String(), "rpc", rpcURL.Redacted())
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("serve", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("graceful shutdown failed", "error", err)
	}
}
