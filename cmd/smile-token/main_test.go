package main

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"strings"
	"testing"

	"github.com/Abdullah1738/smile-token/protocol"
	"github.com/Abdullah1738/smile-token/zk/cairo"
)

const genesisHash = "712283419138572991963600362117880041447189344350653266109245321471516704496"

func runCLI(t *testing.T, argv ...string) string {
	t.Helper()
	var out bytes.Buffer
	if err := run(append([]string{"--verbosity", "0"}, argv...), &out); err != nil {
		t.Fatalf("run %v: %v", argv, err)
	}
	return strings.TrimSpace(out.String())
}

func TestCalldataTransfer(t *testing.T) {
	got := runCLI(t, "calldata", "transfer",
		"--state", `[{"name":"bob","amount":100},{"name":"alice","amount":0}]`,
		"--amount", "99", "--from", "bob", "--to", "max")
	want := "[2 0 6451042 3 100 0 418430673765 5 0 99 0 6451042 3 0 7168376 3 2553248914692030785942303172119107100577416932040888712016243391667211221779]"
	if got != want {
		t.Fatalf("got  %s\nwant %s", got, want)
	}
}

func TestCalldataTransfer_DefaultsToGenesis(t *testing.T) {
	got := runCLI(t, "calldata", "transfer", "--amount", "5", "--from", "faucet", "--to", "bob")
	if !strings.HasSuffix(got, " "+genesisHash+"]") {
		t.Fatalf("unexpected calldata: %s", got)
	}
}

func TestCalldataImageAndSmile(t *testing.T) {
	if got := runCLI(t, "calldata", "smile", "--identity", "bob", "--image", "1,2"); got != "[666 0 6451042 3 2 1 2]" {
		t.Fatalf("smile: %s", got)
	}
	if got := runCLI(t, "calldata", "image", "--identity", "0x10", "--identity-encoding", "numeric", "--image", "5"); got != "[16 1 5]" {
		t.Fatalf("image: %s", got)
	}
}

func TestCalldataInspect(t *testing.T) {
	calldata := runCLI(t, "calldata", "transfer", "--amount", "5", "--from", "faucet", "--to", "bob")
	var got struct {
		Amount          int64               `json:"amount"`
		From            protocol.Identifier `json:"from"`
		To              protocol.Identifier `json:"to"`
		Commitment      string              `json:"commitment"`
		CommitmentValid bool                `json:"commitment_valid"`
	}
	if err := json.Unmarshal([]byte(runCLI(t, "calldata", "inspect", calldata)), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Amount != 5 || got.From != "faucet" || got.To != "bob" || got.Commitment != genesisHash || !got.CommitmentValid {
		t.Fatalf("unexpected inspect output: %+v", got)
	}
}

func TestHashAndGenesis(t *testing.T) {
	if got := runCLI(t, "hash"); got != genesisHash {
		t.Fatalf("hash: %s", got)
	}
	if got := runCLI(t, "hash", "--state", `[{"name":"bob","amount":100},{"name":"alice","amount":0}]`); got != "2553248914692030785942303172119107100577416932040888712016243391667211221779" {
		t.Fatalf("hash: %s", got)
	}
	if got := runCLI(t, "genesis"); !strings.Contains(got, genesisHash) || !strings.Contains(got, `"faucet"`) {
		t.Fatalf("genesis: %s", got)
	}
}

func TestHash_RejectsNegative(t *testing.T) {
	var out bytes.Buffer
	err := run([]string{"--verbosity", "0", "hash", "--state", `[{"name":"bob","amount":-1}]`}, &out)
	if err == nil {
		t.Fatalf("expected error")
	}
}

func TestDecode(t *testing.T) {
	outputs, err := cairo.TransferOutput(cairo.OutputFormatV1, protocol.BalanceChange{From: "faucet", To: "bob", Value: 1000})
	if err != nil {
		t.Fatalf("TransferOutput: %v", err)
	}
	raw, err := cairo.ProofRecord{Proof: []byte{1, 2}, Inputs: []byte{3}, Outputs: outputs}.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary: %v", err)
	}

	var change protocol.BalanceChange
	if err := json.Unmarshal([]byte(runCLI(t, "decode", "--encoding", "hex", "0x"+hex.EncodeToString(raw))), &change); err != nil {
		t.Fatalf("decode json: %v", err)
	}
	if change != (protocol.BalanceChange{From: "faucet", To: "bob", Value: 1000}) {
		t.Fatalf("unexpected change: %+v", change)
	}
}

func TestRegistrations(t *testing.T) {
	got := runCLI(t, "--network", "devnet", "registrations")
	for _, needle := range []string{
		`"contract_name": "smile_token"`,
		`"state_digest_text": "` + genesisHash + `"`,
		`"state_digest_text": "666"`,
		`https://api.devnet.hyle.eu/hyle/zktx/v1/contract/smile`,
	} {
		if !strings.Contains(got, needle) {
			t.Fatalf("registrations output missing %s:\n%s", needle, got)
		}
	}
}
