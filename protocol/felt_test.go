package protocol

import (
	"math/big"
	"testing"
)

const primeDecimal = "3618502788666131213697322783095070105623107215331596699973092056135872020481"

func TestFieldPrime(t *testing.T) {
	if got := FieldPrime.Dec(); got != primeDecimal {
		t.Fatalf("got %s want %s", got, primeDecimal)
	}
}

func TestParseFelt(t *testing.T) {
	f, err := ParseFelt("6451042")
	if err != nil {
		t.Fatalf("ParseFelt: %v", err)
	}
	if got := FeltDecimal(f); got != "6451042" {
		t.Fatalf("got %s", got)
	}

	for _, bad := range []string{"", "-1", "+1", "0x10", "abc", primeDecimal} {
		if _, err := ParseFelt(bad); err == nil {
			t.Fatalf("%q: expected error", bad)
		}
	}

	max := "3618502788666131213697322783095070105623107215331596699973092056135872020480"
	f, err = ParseFelt(max)
	if err != nil {
		t.Fatalf("P-1: %v", err)
	}
	if FeltDecimal(f) != max {
		t.Fatalf("P-1 round trip: %s", FeltDecimal(f))
	}
}

func TestFeltFromAmount_Negative(t *testing.T) {
	if _, err := FeltFromAmount(-1); err == nil {
		t.Fatalf("expected error")
	}
}

func TestFeltToSignedAndClamp(t *testing.T) {
	neg5, err := ParseFelt("3618502788666131213697322783095070105623107215331596699973092056135872020476")
	if err != nil {
		t.Fatalf("ParseFelt: %v", err)
	}
	if got := FeltToSigned(neg5, nil); got.Cmp(big.NewInt(-5)) != 0 {
		t.Fatalf("signed: got %s want -5", got)
	}
	if got := FeltToSigned(FeltFromUint64(7), nil); got.Cmp(big.NewInt(7)) != 0 {
		t.Fatalf("signed: got %s want 7", got)
	}

	cases := []struct {
		v    int64
		want int64
	}{
		{v: -5, want: -3},
		{v: 0, want: 0},
		{v: 2, want: 2},
		{v: 99, want: 3},
	}
	for _, tc := range cases {
		if got := Clamp(big.NewInt(tc.v), -3, 3); got != tc.want {
			t.Fatalf("Clamp(%d): got %d want %d", tc.v, got, tc.want)
		}
	}
	if got := Clamp(FeltToSigned(neg5, nil), -100, 100); got != -5 {
		t.Fatalf("pipeline: got %d", got)
	}
}
