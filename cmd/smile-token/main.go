package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/ethereum/go-ethereum/log"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(argv []string, stdout io.Writer) error {
	app := newApp(stdout)
	return app.Run(append([]string{app.Name}, argv...))
}

func newApp(stdout io.Writer) *cli.App {
	return &cli.App{
		Name:      "smile-token",
		Usage:     "builds smile_token calldata, runs and proves programs, decodes proof outputs",
		Writer:    stdout,
		ErrWriter: os.Stderr,
		Flags: []cli.Flag{
			verbosityFlag,
			networkFlag,
			networkConfigFlag,
			proverURLFlag,
		},
		Before: func(c *cli.Context) error {
			setupLogging(c.Int(verbosityFlag.Name))
			return nil
		},
		Commands: []*cli.Command{
			calldataCommand,
			hashCommand,
			genesisCommand,
			decodeCommand,
			runCommand,
			proveCommand,
			registrationsCommand,
		},
	}
}

func setupLogging(verbosity int) {
	level := log.FromLegacyLevel(verbosity)
	log.SetDefault(log.NewLogger(log.NewTerminalHandlerWithLevel(os.Stderr, level, false)))
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
