package cairo

import (
	"context"
	"errors"

	"github.com/Abdullah1738/smile-token/protocol"
)

var (
	ErrRunnerUnavailable = errors.New("cairo runner unavailable")
	ErrProverUnavailable = errors.New("cairo prover unavailable")
)

// Program names as known to the runner.
const (
	ProgramSmileToken = protocol.ContractSmileToken
	ProgramSmile      = protocol.ContractSmile
)

// RunOutput is what one VM execution produces.
type RunOutput struct {
	Trace  []byte
	Memory []byte
	// Output is the bracketed decimal program output.
	Output string
}

// Runner executes a program on calldata.
type Runner interface {
	Run(ctx context.Context, program string, calldata protocol.Calldata) (RunOutput, error)
}

// Prover produces a proof of a completed run. The returned bytes are the
// proof record the settlement chain verifies.
type Prover interface {
	Prove(ctx context.Context, run RunOutput) ([]byte, error)
}

type UnimplementedRunner struct{}

func (UnimplementedRunner) Run(context.Context, string, protocol.Calldata) (RunOutput, error) {
	return RunOutput{}, ErrRunnerUnavailable
}

type UnimplementedProver struct{}

func (UnimplementedProver) Prove(context.Context, RunOutput) ([]byte, error) {
	return nil, ErrProverUnavailable
}
