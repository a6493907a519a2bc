package config

import (
	"fmt"
	"net/url"
)

var validCommitments = map[string]struct{}{
	"processed": {},
	"confirmed": {},
	"finalized": {},
}

func Validate(cfg *Config) error {
	if _, err := cfg.Program(); err != nil {
		return fmt.Errorf("ProgramID: %w", err)
	}
	if _, err := cfg.RuleSetKey(); err != nil {
		return fmt.Errorf("RuleSet: %w", err)
	}
	endpoint, err := url.Parse(cfg.RPCEndpoint)
	if err != nil || endpoint.Host == "" || (endpoint.Scheme != "http" && endpoint.Scheme != "https") {
		return fmt.Errorf("RPCEndpoint: %q is not an http(s) URL", cfg.RPCEndpoint)
	}
	if _, ok := validCommitments[cfg.Commitment]; !ok {
		return fmt.Errorf("Commitment: unsupported level %q", cfg.Commitment)
	}
	return nil
}
