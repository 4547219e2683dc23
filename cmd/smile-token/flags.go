package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/log"
	"github.com/urfave/cli/v2"

	"github.com/Abdullah1738/smile-token/offchain/cairoprover"
	"github.com/Abdullah1738/smile-token/offchain/cairorunner"
	"github.com/Abdullah1738/smile-token/offchain/network"
	"github.com/Abdullah1738/smile-token/protocol"
	"github.com/Abdullah1738/smile-token/zk/cairo"
)

var (
	verbosityFlag = &cli.IntFlag{
		Name:    "verbosity",
		Usage:   "log level: 0=crit 1=error 2=warn 3=info 4=debug 5=trace",
		Value:   3,
		EnvVars: []string{"SMILE_VERBOSITY"},
	}
	networkFlag = &cli.StringFlag{
		Name:    "network",
		Usage:   "network profile (localhost, devnet or one from --network-config)",
		Value:   network.Localhost,
		EnvVars: []string{"SMILE_NETWORK"},
	}
	networkConfigFlag = &cli.StringFlag{
		Name:    "network-config",
		Usage:   "YAML/JSON file with extra network profiles",
		EnvVars: []string{"SMILE_NETWORK_CONFIG"},
	}
	proverURLFlag = &cli.StringFlag{
		Name:    "prover-url",
		Usage:   "override the profile's prover url",
		EnvVars: []string{"SMILE_PROVER_URL"},
	}

	stateFlag = &cli.StringFlag{
		Name:  "state",
		Usage: `balance state as JSON, e.g. [{"name":"faucet","amount":1000000}] (default: genesis)`,
	}
	stateFileFlag = &cli.PathFlag{
		Name:  "state-file",
		Usage: "file holding the balance state JSON",
	}
	amountFlag = &cli.Int64Flag{Name: "amount", Usage: "transfer amount", Required: true}
	fromFlag   = &cli.StringFlag{Name: "from", Usage: "sender identifier", Required: true}
	toFlag     = &cli.StringFlag{Name: "to", Usage: "receiver identifier", Required: true}

	identityFlag         = &cli.StringFlag{Name: "identity", Usage: "identity of the image owner", Required: true}
	identityEncodingFlag = &cli.StringFlag{
		Name:  "identity-encoding",
		Usage: "bytearray, strict (deprecated) or numeric (deprecated)",
		Value: "bytearray",
	}
	imageFlag = &cli.StringFlag{Name: "image", Usage: "image values, comma or space separated"}

	runnerFlag = &cli.StringFlag{
		Name:    "runner",
		Usage:   "path to the cairo runner binary",
		Value:   "cairo1-run",
		EnvVars: []string{"SMILE_CAIRO_RUNNER"},
	}
	runnerArgFlag    = &cli.StringSliceFlag{Name: "runner-arg", Usage: "extra runner argument (repeatable)"}
	tokenProgramFlag = &cli.PathFlag{
		Name:    "token-program",
		Usage:   "compiled smile_token program",
		Value:   "programs/erc20.sierra.json",
		EnvVars: []string{"SMILE_TOKEN_PROGRAM"},
	}
	smileProgramFlag = &cli.PathFlag{
		Name:    "smile-program",
		Usage:   "compiled smile program",
		Value:   "programs/smile.sierra.json",
		EnvVars: []string{"SMILE_PROGRAM"},
	}
	layoutFlag = &cli.StringFlag{Name: "layout", Usage: "runner layout", Value: "all_cairo"}

	encodingFlag = &cli.StringFlag{Name: "encoding", Usage: "proof text encoding: base64, hex or base58", Value: "base64"}
	formatFlag   = &cli.StringFlag{Name: "format", Usage: "proof output format: v1 or v2", Value: "v1"}
)

func loadState(c *cli.Context) (protocol.BalanceState, error) {
	raw := strings.TrimSpace(c.String(stateFlag.Name))
	if path := c.Path(stateFileFlag.Name); path != "" {
		if raw != "" {
			return nil, fmt.Errorf("--state and --state-file are exclusive")
		}
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		raw = string(b)
	}
	if raw == "" {
		return protocol.GenesisState(), nil
	}
	return protocol.ParseBalanceStateJSON([]byte(raw))
}

func identityEncoder(name string) (protocol.IdentityEncoder, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "bytearray":
		return protocol.ByteArrayIdentity{}, nil
	case "strict":
		return protocol.StrictByteArrayIdentity{}, nil
	case "numeric":
		return protocol.NumericIdentity{}, nil
	}
	return nil, fmt.Errorf("unknown identity encoding %q", name)
}

func parseImage(s string) ([]uint64, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' || r == '\n' || r == '\t' })
	out := make([]uint64, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.ParseUint(f, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("image value %q: %w", f, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func profile(c *cli.Context) (network.Profile, error) {
	return network.Resolve(c.String(networkFlag.Name), c.String(networkConfigFlag.Name), c.String(proverURLFlag.Name))
}

func proverClient(c *cli.Context) (*cairoprover.Client, error) {
	p, err := profile(c)
	if err != nil {
		return nil, err
	}
	if p.ProverURL == "" {
		return nil, cairoprover.ErrMissingProverURL
	}
	return cairoprover.New(p.ProverURL, nil).WithLogger(log.Root().New("module", "prover")), nil
}

func runnerClient(c *cli.Context) *cairorunner.Client {
	return cairorunner.New(c.String(runnerFlag.Name), c.StringSlice(runnerArgFlag.Name), map[string]string{
		cairo.ProgramSmileToken: c.Path(tokenProgramFlag.Name),
		cairo.ProgramSmile:      c.Path(smileProgramFlag.Name),
	}).WithLayout(c.String(layoutFlag.Name))
}
