package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/gagliardetto/solana-go"

	"rooster/crypto"
	"rooster/native/custody"
)

const (
	DefaultRPCEndpoint = "http://127.0.0.1:8899"
	DefaultCommitment  = "confirmed"
	DefaultNetworkName = "rooster-local"
)

type Config struct {
	ProgramID   string `toml:"ProgramID"`
	RPCEndpoint string `toml:"RPCEndpoint"`
	Commitment  string `toml:"Commitment"`
	KeypairPath string `toml:"KeypairPath"`
	DataDir     string `toml:"DataDir"`
	NetworkName string `toml:"NetworkName"`
	RuleSet     string `toml:"RuleSet,omitempty"`
	LogEnv      string `toml:"LogEnv,omitempty"`
	Pauses      Pauses `toml:"pauses"`
}

// Load loads the configuration from the given path. A missing file is
// replaced by a default configuration, and a missing keypair is generated
// next to it.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	cfg := &Config{}
	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, err
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("config file %s has unknown field %s", path, undecoded[0])
	}

	normalize(cfg)
	if err := ensureKeypair(path, cfg); err != nil {
		return nil, err
	}
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	return cfg, nil
}

func normalize(cfg *Config) {
	if strings.TrimSpace(cfg.ProgramID) == "" {
		cfg.ProgramID = custody.ProgramID.String()
	}
	if strings.TrimSpace(cfg.RPCEndpoint) == "" {
		cfg.RPCEndpoint = DefaultRPCEndpoint
	}
	cfg.Commitment = strings.ToLower(strings.TrimSpace(cfg.Commitment))
	if cfg.Commitment == "" {
		cfg.Commitment = DefaultCommitment
	}
	if strings.TrimSpace(cfg.NetworkName) == "" {
		cfg.NetworkName = DefaultNetworkName
	}
	if strings.TrimSpace(cfg.DataDir) == "" {
		cfg.DataDir = "./rooster-data"
	}
}

// Program returns the configured custody program address.
func (c *Config) Program() (solana.PublicKey, error) {
	return crypto.ParsePublicKey(c.ProgramID)
}

// RuleSetKey returns the configured authorization rule set, or the zero key
// when none is set.
func (c *Config) RuleSetKey() (solana.PublicKey, error) {
	return crypto.ParseOptionalPublicKey(c.RuleSet)
}

func ensureKeypair(configPath string, cfg *Config) error {
	keypairPath := cfg.KeypairPath
	if keypairPath == "" {
		keypairPath = defaultKeypairPath(configPath)
	}
	if _, _, err := crypto.EnsureKeypair(keypairPath); err != nil {
		return err
	}
	if cfg.KeypairPath != keypairPath {
		cfg.KeypairPath = keypairPath
		return persist(configPath, cfg)
	}
	return nil
}

// createDefault creates and saves a default configuration file.
func createDefault(path string) (*Config, error) {
	cfg := &Config{}
	normalize(cfg)
	cfg.KeypairPath = defaultKeypairPath(path)
	if _, _, err := crypto.EnsureKeypair(cfg.KeypairPath); err != nil {
		return nil, err
	}
	if err := persist(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func persist(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

func defaultKeypairPath(configPath string) string {
	return filepath.Join(filepath.Dir(configPath), "id.json")
}
