package cairo

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/google/uuid"

	"github.com/Abdullah1738/smile-token/protocol"
)

var ErrTaskConsumed = errors.New("task already proved")

// Task is one executed run waiting to be proved. It is produced by the
// Pipeline's Run methods and consumed by Pipeline.Prove.
type Task struct {
	ID       uuid.UUID
	Program  string
	Calldata protocol.Calldata
	Run      RunOutput
	RanAt    time.Time

	mu       sync.Mutex
	consumed bool
}

// ProofResult is the terminal result of a task.
type ProofResult struct {
	TaskID  uuid.UUID
	Program string
	Proof   []byte
	Output  string
}

// Pipeline builds calldata, runs it and proves the run.
type Pipeline struct {
	Runner   Runner
	Prover   Prover
	Builder  protocol.Builder
	Identity protocol.IdentityEncoder
	Logger   log.Logger
}

func (p *Pipeline) logger() log.Logger {
	if p.Logger == nil {
		return log.Root()
	}
	return p.Logger
}

// RunTransfer runs the token program on a transfer.
func (p *Pipeline) RunTransfer(ctx context.Context, args protocol.TransferArgs) (*Task, error) {
	calldata, err := p.Builder.Transfer(args)
	if err != nil {
		return nil, err
	}
	return p.run(ctx, ProgramSmileToken, calldata)
}

// RunImage runs the smile program on an identity and image.
func (p *Pipeline) RunImage(ctx context.Context, id protocol.Identifier, image []uint64) (*Task, error) {
	calldata, err := protocol.BuildSmileArgs(p.Identity, id, image)
	if err != nil {
		return nil, err
	}
	return p.run(ctx, ProgramSmile, calldata)
}

func (p *Pipeline) run(ctx context.Context, program string, calldata protocol.Calldata) (*Task, error) {
	runner := p.Runner
	if runner == nil {
		return nil, ErrRunnerUnavailable
	}
	task := &Task{
		ID:       uuid.New(),
		Program:  program,
		Calldata: calldata,
	}
	start := time.Now()
	out, err := runner.Run(ctx, program, calldata)
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", program, err)
	}
	task.Run = out
	task.RanAt = time.Now()
	p.logger().Info("Program ran", "task", task.ID, "program", program, "args", len(calldata), "trace", len(out.Trace), "memory", len(out.Memory), "elapsed", time.Since(start))
	return task, nil
}

// Prove proves a task's run. A task yields at most one result; proving it
// again fails with ErrTaskConsumed.
func (p *Pipeline) Prove(ctx context.Context, task *Task) (ProofResult, error) {
	if task == nil {
		return ProofResult{}, errors.New("nil task")
	}
	prover := p.Prover
	if prover == nil {
		return ProofResult{}, ErrProverUnavailable
	}

	task.mu.Lock()
	defer task.mu.Unlock()
	if task.consumed {
		return ProofResult{}, fmt.Errorf("%w: %s", ErrTaskConsumed, task.ID)
	}
	task.consumed = true

	start := time.Now()
	proof, err := prover.Prove(ctx, task.Run)
	if err != nil {
		p.logger().Warn("Proving failed", "task", task.ID, "program", task.Program, "err", err)
		return ProofResult{}, fmt.Errorf("prove %s: %w", task.Program, err)
	}
	p.logger().Info("Proof generated", "task", task.ID, "program", task.Program, "size", len(proof), "elapsed", time.Since(start))
	return ProofResult{
		TaskID:  task.ID,
		Program: task.Program,
		Proof:   proof,
		Output:  task.Run.Output,
	}, nil
}
