package protocol

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/NethermindEth/juno/core/felt"
	"github.com/holiman/uint256"
)

// FieldPrime is the Stark field modulus P = 2^251 + 17*2^192 + 1.
var FieldPrime = func() *uint256.Int {
	p := new(uint256.Int).Lsh(uint256.NewInt(1), 251)
	p.Add(p, new(uint256.Int).Lsh(uint256.NewInt(17), 192))
	return p.AddUint64(p, 1)
}()

// DefaultSignThreshold is (P-1)/2. Field values above it are read as negative.
var DefaultSignThreshold = new(uint256.Int).Rsh(FieldPrime, 1)

// ParseFelt parses a decimal field element. Values outside [0, P) are rejected.
func ParseFelt(s string) (*felt.Felt, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.HasPrefix(s, "-") || strings.HasPrefix(s, "+") {
		return nil, fmt.Errorf("invalid field element %q", s)
	}
	u, err := uint256.FromDecimal(s)
	if err != nil {
		return nil, fmt.Errorf("invalid field element %q: %w", s, err)
	}
	if !u.Lt(FieldPrime) {
		return nil, fmt.Errorf("field element %q not below field prime", s)
	}
	return feltFromUint256(u), nil
}

// FeltFromUint64 returns v as a field element.
func FeltFromUint64(v uint64) *felt.Felt {
	return new(felt.Felt).SetUint64(v)
}

// FeltFromAmount returns a non-negative amount as a field element.
func FeltFromAmount(v int64) (*felt.Felt, error) {
	if v < 0 {
		return nil, fmt.Errorf("%w: negative amount %d", ErrCommitmentInput, v)
	}
	return FeltFromUint64(uint64(v)), nil
}

// FeltDecimal renders f in base 10, the form the VM argument parser accepts.
func FeltDecimal(f *felt.Felt) string {
	if f == nil {
		return "0"
	}
	return feltToUint256(f).Dec()
}

// FeltToSigned maps a field element to a signed integer: values above
// threshold are taken as v - P. A nil threshold means DefaultSignThreshold.
func FeltToSigned(f *felt.Felt, threshold *uint256.Int) *big.Int {
	if threshold == nil {
		threshold = DefaultSignThreshold
	}
	v := feltToUint256(f)
	if v.Gt(threshold) {
		neg := new(uint256.Int).Sub(FieldPrime, v)
		return new(big.Int).Neg(neg.ToBig())
	}
	return v.ToBig()
}

// Clamp saturates v into [lo, hi].
func Clamp(v *big.Int, lo, hi int64) int64 {
	if lo > hi {
		lo, hi = hi, lo
	}
	if v.Cmp(big.NewInt(lo)) < 0 {
		return lo
	}
	if v.Cmp(big.NewInt(hi)) > 0 {
		return hi
	}
	return v.Int64()
}

func feltFromUint256(u *uint256.Int) *felt.Felt {
	b := u.Bytes32()
	return new(felt.Felt).SetBytes(b[:])
}

func feltToUint256(f *felt.Felt) *uint256.Int {
	b := f.Bytes()
	return new(uint256.Int).SetBytes32(b[:])
}
