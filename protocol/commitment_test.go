package protocol

import (
	"errors"
	"testing"
)

const (
	genesisHash  = "712283419138572991963600362117880041447189344350653266109245321471516704496"
	bobAliceHash = "2553248914692030785942303172119107100577416932040888712016243391667211221779"
)

func TestCommit_Golden(t *testing.T) {
	cases := []struct {
		name  string
		state BalanceState
		want  string
	}{
		{name: "genesis", state: GenesisState(), want: genesisHash},
		{name: "bob_alice", state: BalanceState{{Name: "bob", Amount: 100}, {Name: "alice", Amount: 0}}, want: bobAliceHash},
		{name: "alice_bob", state: BalanceState{{Name: "alice", Amount: 0}, {Name: "bob", Amount: 100}}, want: "660657858154162301687255952168331968936749798500330371701131793750655303105"},
		{name: "faucet_bob_zero", state: BalanceState{{Name: "faucet", Amount: 1_000_000}, {Name: "bob", Amount: 0}}, want: "1557856462605768123840284158023886399206219936453318560238961223555399360749"},
		{
			name: "long_identifier",
			state: BalanceState{
				{Name: "faucet", Amount: 999_999},
				{Name: "ea52d6459ddcb891e08001321246dbc7bdcd9d01.ecdsa_secp256r1", Amount: 1},
			},
			want: "802132474092543607147321308332300047661392663766327111661533130755281240521",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Commit(tc.state)
			if err != nil {
				t.Fatalf("Commit: %v", err)
			}
			if FeltDecimal(got) != tc.want {
				t.Fatalf("got %s want %s", FeltDecimal(got), tc.want)
			}
		})
	}
}

func TestGenesisCommitment(t *testing.T) {
	if got := FeltDecimal(GenesisCommitment()); got != genesisHash {
		t.Fatalf("got %s want %s", got, genesisHash)
	}
}

func TestCommit_NegativeAmount(t *testing.T) {
	_, err := Commit(BalanceState{{Name: "bob", Amount: -1}})
	if !errors.Is(err, ErrCommitmentInput) {
		t.Fatalf("expected ErrCommitmentInput, got %v", err)
	}
}

func TestCommitmentCache(t *testing.T) {
	cache, err := NewCommitmentCache(8)
	if err != nil {
		t.Fatalf("NewCommitmentCache: %v", err)
	}
	state := BalanceState{{Name: "bob", Amount: 100}, {Name: "alice", Amount: 0}}
	for i := 0; i < 3; i++ {
		got, err := cache.Commit(state)
		if err != nil {
			t.Fatalf("Commit: %v", err)
		}
		if FeltDecimal(got) != bobAliceHash {
			t.Fatalf("got %s", FeltDecimal(got))
		}
	}
	if cache.Len() != 1 {
		t.Fatalf("cache len: got %d want 1", cache.Len())
	}
	if _, err := cache.Commit(GenesisState()); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if cache.Len() != 2 {
		t.Fatalf("cache len: got %d want 2", cache.Len())
	}
}
