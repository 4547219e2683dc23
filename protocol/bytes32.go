package protocol

import (
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/NethermindEth/juno/core/felt"
	"github.com/holiman/uint256"
)

var errInvalidHexFelt = errors.New("invalid hex field element")

func parseHexFelt(s string) (*felt.Felt, error) {
	if s == "" || len(s) > 64 {
		return nil, errInvalidHexFelt
	}
	if len(s)%2 == 1 {
		s = "0" + s
	}
	raw, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidHexFelt, err)
	}
	u := new(uint256.Int).SetBytes(raw)
	if !u.Lt(FieldPrime) {
		return nil, fmt.Errorf("%w: not below field prime", errInvalidHexFelt)
	}
	return feltFromUint256(u), nil
}

// FeltHex renders f as 64 lowercase hex digits.
func FeltHex(f *felt.Felt) string {
	b := f.Bytes()
	return hex.EncodeToString(b[:])
}
