package cairorunner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/Abdullah1738/smile-token/protocol"
	"github.com/Abdullah1738/smile-token/zk/cairo"
)

var (
	ErrRunner         = errors.New("cairo runner error")
	ErrUnknownProgram = errors.New("unknown program")
)

// Client runs programs with an external cairo runner binary:
//
//	<path> <args...> <program file> --args <calldata> --trace_file <f> --memory_file <f> --layout <layout> --proof_mode --print_output
//
// The program output is the last bracketed list printed on stdout.
type Client struct {
	path     string
	args     []string
	layout   string
	programs map[string]string
}

var _ cairo.Runner = (*Client)(nil)

func New(path string, args []string, programs map[string]string) *Client {
	path = strings.TrimSpace(path)
	if path == "" {
		path = "cairo1-run"
	}
	progs := make(map[string]string, len(programs))
	for k, v := range programs {
		progs[k] = v
	}
	return &Client{
		path:     path,
		args:     append([]string{}, args...),
		layout:   "all_cairo",
		programs: progs,
	}
}

func (c *Client) WithLayout(layout string) *Client {
	if layout = strings.TrimSpace(layout); layout != "" {
		c.layout = layout
	}
	return c
}

func (c *Client) Run(ctx context.Context, program string, calldata protocol.Calldata) (cairo.RunOutput, error) {
	if c == nil {
		return cairo.RunOutput{}, errors.New("nil client")
	}
	file, ok := c.programs[program]
	if !ok || strings.TrimSpace(file) == "" {
		return cairo.RunOutput{}, fmt.Errorf("%w: %s", ErrUnknownProgram, program)
	}

	dir, err := os.MkdirTemp("", "cairo-run-*")
	if err != nil {
		return cairo.RunOutput{}, err
	}
	defer os.RemoveAll(dir)
	tracePath := filepath.Join(dir, "trace")
	memoryPath := filepath.Join(dir, "memory")

	cmdArgs := make([]string, 0, len(c.args)+12)
	cmdArgs = append(cmdArgs, c.args...)
	cmdArgs = append(cmdArgs,
		file,
		"--args", calldata.String(),
		"--trace_file", tracePath,
		"--memory_file", memoryPath,
		"--layout", c.layout,
		"--proof_mode",
		"--print_output",
	)

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, c.path, cmdArgs...)
	cmd.Stdin = nil
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return cairo.RunOutput{}, fmt.Errorf("%w: %v: %s", ErrRunner, err, strings.TrimSpace(stderr.String()))
	}

	output, err := ParseOutput(string(out))
	if err != nil {
		return cairo.RunOutput{}, err
	}
	trace, err := os.ReadFile(tracePath)
	if err != nil {
		return cairo.RunOutput{}, fmt.Errorf("%w: read trace: %v", ErrRunner, err)
	}
	memory, err := os.ReadFile(memoryPath)
	if err != nil {
		return cairo.RunOutput{}, fmt.Errorf("%w: read memory: %v", ErrRunner, err)
	}
	return cairo.RunOutput{Trace: trace, Memory: memory, Output: output}, nil
}

// ParseOutput extracts the last bracketed list from runner stdout, e.g.
// "Program Output : [1 2 3]".
func ParseOutput(stdout string) (string, error) {
	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		start := strings.IndexByte(line, '[')
		end := strings.LastIndexByte(line, ']')
		if start < 0 || end < start {
			continue
		}
		out := line[start : end+1]
		if _, err := protocol.ParseCalldata(out); err != nil {
			return "", fmt.Errorf("%w: bad program output %q: %v", ErrRunner, out, err)
		}
		return out, nil
	}
	return "", fmt.Errorf("%w: no program output", ErrRunner)
}
