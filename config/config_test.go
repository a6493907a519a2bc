package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"rooster/native/custody"
)

func TestLoadCreatesDefault(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rooster.toml")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, custody.ProgramID.String(), cfg.ProgramID)
	require.Equal(t, DefaultRPCEndpoint, cfg.RPCEndpoint)
	require.Equal(t, DefaultCommitment, cfg.Commitment)
	require.Equal(t, filepath.Join(dir, "id.json"), cfg.KeypairPath)
	require.FileExists(t, path)
	require.FileExists(t, cfg.KeypairPath)

	reloaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, cfg, reloaded)
}

func TestLoadParsesSettings(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rooster.toml")
	keypair := filepath.Join(dir, "owner.json")
	contents := `ProgramID = "11111111111111111111111111111111"
RPCEndpoint = "https://api.devnet.example.org"
Commitment = "Finalized"
KeypairPath = "` + keypair + `"
DataDir = "./ledger"
NetworkName = "devnet"

[pauses]
Withdraw = true
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "finalized", cfg.Commitment)
	require.Equal(t, "devnet", cfg.NetworkName)
	require.Equal(t, keypair, cfg.KeypairPath)
	require.FileExists(t, keypair)
	require.True(t, cfg.Pauses.Paused("withdraw"))
	require.False(t, cfg.Pauses.Paused("init"))
	require.False(t, cfg.Pauses.Paused("bogus"))

	program, err := cfg.Program()
	require.NoError(t, err)
	require.True(t, program.IsZero())
	ruleSet, err := cfg.RuleSetKey()
	require.NoError(t, err)
	require.True(t, ruleSet.IsZero())
}

func TestLoadPersistsGeneratedKeypairPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rooster.toml")
	require.NoError(t, os.WriteFile(path, []byte("NetworkName = \"x\"\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "id.json"), cfg.KeypairPath)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(raw), "KeypairPath")
}

func TestLoadRejectsUnknownField(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rooster.toml")
	require.NoError(t, os.WriteFile(path, []byte("ValidatorKey = \"abc\"\n"), 0o644))
	_, err := Load(path)
	require.ErrorContains(t, err, "unknown field")
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg := &Config{}
		normalize(cfg)
		return cfg
	}
	require.NoError(t, Validate(base()))

	cfg := base()
	cfg.ProgramID = "bogus!"
	require.Error(t, Validate(cfg))

	cfg = base()
	cfg.RPCEndpoint = "ftp://example.org"
	require.Error(t, Validate(cfg))

	cfg = base()
	cfg.Commitment = "max"
	require.Error(t, Validate(cfg))

	cfg = base()
	cfg.RuleSet = "0OIl"
	require.Error(t, Validate(cfg))
}
