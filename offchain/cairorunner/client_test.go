package cairorunner

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/Abdullah1738/smile-token/protocol"
)

func TestParseOutput(t *testing.T) {
	got, err := ParseOutput("Running...\nProgram Output : [1 2 3]\n")
	if err != nil {
		t.Fatalf("ParseOutput: %v", err)
	}
	if got != "[1 2 3]" {
		t.Fatalf("got %q", got)
	}
	if _, err := ParseOutput("nothing here"); !errors.Is(err, ErrRunner) {
		t.Fatalf("expected ErrRunner, got %v", err)
	}
	if _, err := ParseOutput("[1 x]"); !errors.Is(err, ErrRunner) {
		t.Fatalf("expected ErrRunner, got %v", err)
	}
}

// fakeRunner writes a script that behaves like the runner binary: it writes
// its --args value into the trace file, a fixed memory file and prints an
// output line.
func fakeRunner(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script tests are not supported on windows")
	}
	path := filepath.Join(t.TempDir(), "runner.sh")
	if err := os.WriteFile(path, []byte("#!/usr/bin/env bash\nset -euo pipefail\n"+body), 0o755); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

const fakeRunnerBody = `
args=""; trace=""; memory=""
while [[ $# -gt 0 ]]; do
  case "$1" in
    --args) args="$2"; shift 2;;
    --trace_file) trace="$2"; shift 2;;
    --memory_file) memory="$2"; shift 2;;
    *) shift;;
  esac
done
printf '%s' "$args" > "$trace"
printf 'mem' > "$memory"
echo "Program Output : [1 2 3]"
`

func TestClient_Run(t *testing.T) {
	c := New(fakeRunner(t, fakeRunnerBody), nil, map[string]string{"smile_token": "erc20.sierra.json"})

	calldata, err := protocol.BuildTransferArgs(protocol.GenesisState(), 10, "faucet", "bob")
	if err != nil {
		t.Fatalf("BuildTransferArgs: %v", err)
	}
	out, err := c.Run(context.Background(), "smile_token", calldata)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out.Output != "[1 2 3]" {
		t.Fatalf("output: %q", out.Output)
	}
	if string(out.Trace) != calldata.String() {
		t.Fatalf("trace: %q", out.Trace)
	}
	if string(out.Memory) != "mem" {
		t.Fatalf("memory: %q", out.Memory)
	}
}

func TestClient_Errors(t *testing.T) {
	c := New(fakeRunner(t, "echo boom >&2\nexit 3\n"), nil, map[string]string{"smile": "smile.sierra.json"})
	if _, err := c.Run(context.Background(), "nope", nil); !errors.Is(err, ErrUnknownProgram) {
		t.Fatalf("expected ErrUnknownProgram, got %v", err)
	}
	_, err := c.Run(context.Background(), "smile", nil)
	if !errors.Is(err, ErrRunner) {
		t.Fatalf("expected ErrRunner, got %v", err)
	}
	if !strings.Contains(err.Error(), "boom") {
		t.Fatalf("stderr not reported: %v", err)
	}
}
