package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/gagliardetto/solana-go"

	"rooster/config"
	"rooster/crypto"
	"rooster/native/custody"
	"rooster/observability/logging"
)

const defaultConfig = "./rooster.toml"

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "derive":
		err = runDerive(os.Args[2:])
	case "build":
		err = runBuild(os.Args[2:])
	case "inspect":
		err = runInspect(os.Args[2:])
	case "send":
		err = runSend(os.Args[2:])
	case "simulate":
		err = runSimulate(os.Args[2:])
	case "-h", "--help", "help":
		usage()
		return
	default:
		usage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `Usage: roosterctl <command> [flags]

Commands:
  derive     print the custody address and bump for an owner
  build      build an init, withdraw or delegate instruction as JSON
  inspect    fetch and decode an owner's custody record from the node
  send       sign and submit an init instruction with the configured keypair
  simulate   run init, withdraw and delegate against a local ledger`)
}

// session is the state shared by every subcommand once flags are parsed.
type session struct {
	cfg       *config.Config
	programID solana.PublicKey
	logger    *slog.Logger
}

func openSession(fs *flag.FlagSet, args []string) (*session, error) {
	configPath := fs.String("config", defaultConfig, "Path to the rooster config file")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	programID, err := cfg.Program()
	if err != nil {
		return nil, err
	}
	logger := logging.Setup("roosterctl", cfg.LogEnv)
	if cfg.LogEnv == "" {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &session{cfg: cfg, programID: programID, logger: logger}
	s.logOpened()
	return s, nil
}

func (s *session) logOpened() {
	s.logger.Debug("roosterctl: session opened",
		"program", s.programID.String(),
		logging.MaskField("keypair", s.cfg.KeypairPath),
		"endpoint", s.cfg.RPCEndpoint,
	)
}

// logAuthData records that an authorization payload was attached to command.
// Only the payload size reaches the log.
func logAuthData(logger *slog.Logger, command string, owner solana.PublicKey, payload []byte) {
	logger.Debug("roosterctl: authorization data attached",
		"command", command,
		"owner", owner.String(),
		logging.MaskBytes("authData", payload),
	)
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func requireKey(name, value string) (solana.PublicKey, error) {
	if value == "" {
		return solana.PublicKey{}, fmt.Errorf("--%s is required", name)
	}
	key, err := crypto.ParsePublicKey(value)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("--%s: %w", name, err)
	}
	return key, nil
}

func runDerive(args []string) error {
	fs := flag.NewFlagSet("derive", flag.ExitOnError)
	owner := fs.String("owner", "", "Owner public key (base58)")
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
	return printJSON(map[string]interface{}{
		"program": s.programID.String(),
		"owner":   ownerKey.String(),
		"custody": address.String(),
		"bump":    bump,
	})
}

func newFlagSet() *flag.FlagSet {
	return flag.NewFlagSet("roosterctl", flag.ContinueOnError)
}
