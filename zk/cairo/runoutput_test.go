package cairo

import (
	"testing"

	"github.com/Abdullah1738/smile-token/protocol"
)

const transferRunOutput = "[1 2831912719953807781384198442703907171559331656188090552995826225667240275554 821437474560069410818607312792617211384461751521236926274368999079072185639 1 175285199027252607942330356499331179285261039416457052358062226228862137957 352748885689853111792340362419153546690909839254974950175281 25 0 0 112568767309172 6 1 175285199027252607942330356499331179285261039416457052358062226228862137957 352748885689853111792340362419153546690909839254974950175281 25 1000]"

func TestParseTransferRunOutput_Golden(t *testing.T) {
	out, err := ParseTransferRunOutput(transferRunOutput)
	if err != nil {
		t.Fatalf("ParseTransferRunOutput: %v", err)
	}
	receiver := protocol.Identifier("c59b18d3bdaccb4d689048559a9bb6e8265293bf.ecdsa_secp256r1")
	if out.Version != 1 {
		t.Fatalf("version: %d", out.Version)
	}
	if got := protocol.FeltDecimal(out.InitialState); got != "2831912719953807781384198442703907171559331656188090552995826225667240275554" {
		t.Fatalf("initial state: %s", got)
	}
	if out.Identity != receiver {
		t.Fatalf("identity: %s", out.Identity)
	}
	if !out.TxHash.IsZero() {
		t.Fatalf("tx hash: %s", protocol.FeltDecimal(out.TxHash))
	}
	want := protocol.BalanceChange{From: "faucet", To: receiver, Value: 1000}
	if out.Change != want {
		t.Fatalf("change: got %+v want %+v", out.Change, want)
	}

	initial, err := protocol.Commit(protocol.BalanceState{
		{Name: "faucet", Amount: 999_999},
		{Name: "ae0e5100ea7d28905ce690194c0717cd93756a20.ecdsa_secp256r1", Amount: 1},
	})
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if !initial.Equal(out.InitialState) {
		t.Fatalf("initial state does not match calldata commitment")
	}
}

func TestParseTransferRunOutput_Truncated(t *testing.T) {
	for _, in := range []string{"[]", "[1 2 3]", "[1 2 3 0 0 0 0]", "[1 2 3 0 0 0 0 0 0 0 0]"} {
		if _, err := ParseTransferRunOutput(in); err == nil {
			t.Fatalf("%s: expected error", in)
		}
	}
}
