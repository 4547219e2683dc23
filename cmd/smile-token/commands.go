package main

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/Abdullah1738/smile-token/offchain/cairoprover"
	"github.com/Abdullah1738/smile-token/protocol"
	"github.com/Abdullah1738/smile-token/zk/cairo"
)

var calldataCommand = &cli.Command{
	Name:  "calldata",
	Usage: "build or inspect program calldata",
	Subcommands: []*cli.Command{
		{
			Name:   "transfer",
			Usage:  "token transfer calldata",
			Flags:  []cli.Flag{stateFlag, stateFileFlag, amountFlag, fromFlag, toFlag},
			Action: cmdCalldataTransfer,
		},
		{
			Name:   "image",
			Usage:  "identity and image calldata",
			Flags:  []cli.Flag{identityFlag, identityEncodingFlag, imageFlag},
			Action: cmdCalldataImage(protocol.BuildImageArgs),
		},
		{
			Name:   "smile",
			Usage:  "smile program calldata (image calldata behind the initial state)",
			Flags:  []cli.Flag{identityFlag, identityEncodingFlag, imageFlag},
			Action: cmdCalldataImage(protocol.BuildSmileArgs),
		},
		{
			Name:      "inspect",
			Usage:     "decode transfer calldata and check its commitment",
			ArgsUsage: "<[calldata]>",
			Action:    cmdCalldataInspect,
		},
	},
}

func cmdCalldataTransfer(c *cli.Context) error {
	state, err := loadState(c)
	if err != nil {
		return err
	}
	out, err := protocol.BuildTransferArgs(state, c.Int64(amountFlag.Name), protocol.Identifier(c.String(fromFlag.Name)), protocol.Identifier(c.String(toFlag.Name)))
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(c.App.Writer, out.String())
	return err
}

type imageBuilder func(protocol.IdentityEncoder, protocol.Identifier, []uint64) (protocol.Calldata, error)

func cmdCalldataImage(build imageBuilder) cli.ActionFunc {
	return func(c *cli.Context) error {
		enc, err := identityEncoder(c.String(identityEncodingFlag.Name))
		if err != nil {
			return err
		}
		image, err := parseImage(c.String(imageFlag.Name))
		if err != nil {
			return err
		}
		out, err := build(enc, protocol.Identifier(c.String(identityFlag.Name)), image)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(c.App.Writer, out.String())
		return err
	}
}

func cmdCalldataInspect(c *cli.Context) error {
	raw := strings.Join(c.Args().Slice(), " ")
	if strings.TrimSpace(raw) == "" {
		return fmt.Errorf("calldata argument required")
	}
	calldata, err := protocol.ParseCalldata(raw)
	if err != nil {
		return err
	}
	args, digest, err := protocol.DecodeTransferArgs(calldata)
	if err != nil {
		return err
	}
	want, err := protocol.Commit(args.State)
	if err != nil {
		return err
	}
	return writeJSON(c.App.Writer, map[string]any{
		"state":            args.State,
		"amount":           args.Amount,
		"from":             args.From,
		"to":               args.To,
		"commitment":       protocol.FeltDecimal(digest),
		"commitment_valid": want.Equal(digest),
	})
}

var hashCommand = &cli.Command{
	Name:  "hash",
	Usage: "print the commitment of a balance state",
	Flags: []cli.Flag{stateFlag, stateFileFlag},
	Action: func(c *cli.Context) error {
		state, err := loadState(c)
		if err != nil {
			return err
		}
		h, err := protocol.Commit(state)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(c.App.Writer, protocol.FeltDecimal(h))
		return err
	},
}

var genesisCommand = &cli.Command{
	Name:  "genesis",
	Usage: "print the genesis state and its commitment",
	Action: func(c *cli.Context) error {
		return writeJSON(c.App.Writer, map[string]any{
			"state":      protocol.GenesisState(),
			"commitment": protocol.FeltDecimal(protocol.GenesisCommitment()),
		})
	},
}

var decodeCommand = &cli.Command{
	Name:      "decode",
	Usage:     "decode the balance change carried by a proof",
	ArgsUsage: "<proof text | - for stdin>",
	Flags:     []cli.Flag{encodingFlag, formatFlag},
	Action: func(c *cli.Context) error {
		text := c.Args().First()
		if text == "" || text == "-" {
			b, err := readAllStdin()
			if err != nil {
				return err
			}
			text = string(b)
		}
		raw, err := cairoprover.DecodeProof(text, cairoprover.Encoding(c.String(encodingFlag.Name)))
		if err != nil {
			return err
		}
		format, err := cairo.ParseOutputFormat(c.String(formatFlag.Name))
		if err != nil {
			return err
		}
		change, err := cairo.Decoder{Format: format}.Decode(raw)
		if err != nil {
			return err
		}
		return writeJSON(c.App.Writer, change)
	},
}

func readAllStdin() ([]byte, error) {
	b, err := io.ReadAll(os.Stdin)
	if err != nil {
		return nil, fmt.Errorf("read stdin: %w", err)
	}
	return b, nil
}

var runCommand = &cli.Command{
	Name:  "run",
	Usage: "run a program with the cairo runner, optionally proving it",
	Flags: []cli.Flag{runnerFlag, runnerArgFlag, tokenProgramFlag, smileProgramFlag, layoutFlag,
		&cli.BoolFlag{Name: "prove", Usage: "prove the run with the profile's prover"},
		&cli.PathFlag{Name: "out", Usage: "write the base64 proof to this file instead of stdout"},
		&cli.DurationFlag{Name: "timeout", Usage: "overall deadline", Value: 20 * time.Minute},
	},
	Subcommands: []*cli.Command{
		{
			Name:  "transfer",
			Usage: "run the token program on a transfer",
			Flags: []cli.Flag{stateFlag, stateFileFlag, amountFlag, fromFlag, toFlag},
			Action: func(c *cli.Context) error {
				state, err := loadState(c)
				if err != nil {
					return err
				}
				args := protocol.TransferArgs{
					State:  state,
					Amount: c.Int64(amountFlag.Name),
					From:   protocol.Identifier(c.String(fromFlag.Name)),
					To:     protocol.Identifier(c.String(toFlag.Name)),
				}
				return runAndMaybeProve(c, func(ctx context.Context, p *cairo.Pipeline) (*cairo.Task, error) {
					return p.RunTransfer(ctx, args)
				})
			},
		},
		{
			Name:  "smile",
			Usage: "run the smile program on an image",
			Flags: []cli.Flag{identityFlag, identityEncodingFlag, imageFlag},
			Action: func(c *cli.Context) error {
				enc, err := identityEncoder(c.String(identityEncodingFlag.Name))
				if err != nil {
					return err
				}
				image, err := parseImage(c.String(imageFlag.Name))
				if err != nil {
					return err
				}
				id := protocol.Identifier(c.String(identityFlag.Name))
				return runAndMaybeProve(c, func(ctx context.Context, p *cairo.Pipeline) (*cairo.Task, error) {
					p.Identity = enc
					return p.RunImage(ctx, id, image)
				})
			},
		},
	},
}

func runAndMaybeProve(c *cli.Context, start func(context.Context, *cairo.Pipeline) (*cairo.Task, error)) error {
	ctx, cancel := context.WithTimeout(c.Context, c.Duration("timeout"))
	defer cancel()

	p := &cairo.Pipeline{Runner: runnerClient(c), Prover: cairo.UnimplementedProver{}}
	if c.Bool("prove") {
		prover, err := proverClient(c)
		if err != nil {
			return err
		}
		p.Prover = prover
	}

	task, err := start(ctx, p)
	if err != nil {
		return err
	}
	report := map[string]any{
		"task":    task.ID,
		"program": task.Program,
		"output":  task.Run.Output,
	}
	switch task.Program {
	case cairo.ProgramSmileToken:
		if parsed, err := cairo.ParseTransferRunOutput(task.Run.Output); err == nil {
			report["next_state"] = protocol.FeltDecimal(parsed.NextState)
			report["change"] = parsed.Change
		}
	case cairo.ProgramSmile:
		if out, err := protocol.ParseCalldata(task.Run.Output); err == nil {
			if score, err := cairo.SmileScore(out, nil); err == nil {
				report["score"] = score
			}
		}
	}

	if c.Bool("prove") {
		res, err := p.Prove(ctx, task)
		if err != nil {
			return err
		}
		if err := emitProof(c, res.Proof, report); err != nil {
			return err
		}
	}
	return writeJSON(c.App.Writer, report)
}

func emitProof(c *cli.Context, proof []byte, report map[string]any) error {
	text, err := cairoprover.EncodeProof(proof, cairoprover.EncodingBase64)
	if err != nil {
		return err
	}
	if path := c.Path("out"); path != "" {
		if err := os.WriteFile(path, []byte(text), 0o600); err != nil {
			return err
		}
		report["proof_file"] = path
		return nil
	}
	report["proof"] = text
	return nil
}

var proveCommand = &cli.Command{
	Name:  "prove",
	Usage: "prove a previous run from its trace, memory and output",
	Flags: []cli.Flag{
		&cli.PathFlag{Name: "trace", Usage: "trace file", Required: true},
		&cli.PathFlag{Name: "memory", Usage: "memory file", Required: true},
		&cli.StringFlag{Name: "output", Usage: "program output, e.g. [1 2 3]", Required: true},
		&cli.PathFlag{Name: "out", Usage: "write the base64 proof to this file instead of stdout"},
		&cli.DurationFlag{Name: "timeout", Usage: "overall deadline", Value: 20 * time.Minute},
	},
	Action: func(c *cli.Context) error {
		trace, err := os.ReadFile(c.Path("trace"))
		if err != nil {
			return err
		}
		memory, err := os.ReadFile(c.Path("memory"))
		if err != nil {
			return err
		}
		output := c.String("output")
		if _, err := protocol.ParseCalldata(output); err != nil {
			return err
		}
		prover, err := proverClient(c)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(c.Context, c.Duration("timeout"))
		defer cancel()
		proof, err := prover.Prove(ctx, cairo.RunOutput{Trace: trace, Memory: memory, Output: output})
		if err != nil {
			return err
		}
		report := map[string]any{"output": output}
		if err := emitProof(c, proof, report); err != nil {
			return err
		}
		return writeJSON(c.App.Writer, report)
	},
}

var registrationsCommand = &cli.Command{
	Name:  "registrations",
	Usage: "print the contract registration payloads",
	Flags: []cli.Flag{
		&cli.PathFlag{Name: "ecdsa-vkey", Usage: "file with the base64 ECDSA verification key; adds its registration"},
	},
	Action: func(c *cli.Context) error {
		regs := protocol.Registrations()
		if path := c.Path("ecdsa-vkey"); path != "" {
			raw, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			vkey, err := base64.StdEncoding.DecodeString(strings.TrimSpace(string(raw)))
			if err != nil {
				return fmt.Errorf("decode verification key: %w", err)
			}
			regs = append(regs, protocol.ECDSARegistration(vkey))
		}

		p, err := profile(c)
		if err != nil {
			return err
		}
		type entry struct {
			protocol.Registration
			StateDigestText string `json:"state_digest_text"`
			ContractURL     string `json:"contract_url"`
		}
		out := make([]entry, 0, len(regs))
		for _, r := range regs {
			out = append(out, entry{Registration: r, StateDigestText: string(r.StateDigest), ContractURL: p.ContractURL(r.ContractName)})
		}
		return writeJSON(c.App.Writer, out)
	},
}
