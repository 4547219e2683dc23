package protocol

import (
	"fmt"
	"strings"

	"github.com/NethermindEth/juno/core/felt"
)

// IdentityEncoder turns an identifier into the calldata tokens a program
// reads it from.
type IdentityEncoder interface {
	EncodeIdentity(id Identifier) ([]*felt.Felt, error)
}

// ByteArrayIdentity encodes identifiers as splitting ByteArrays. It is the
// canonical strategy.
type ByteArrayIdentity struct{}

func (ByteArrayIdentity) EncodeIdentity(id Identifier) ([]*felt.Felt, error) {
	return EncodeByteArray(string(id)).Felts(), nil
}

// StrictByteArrayIdentity rejects identifiers longer than one word.
//
// Deprecated: use ByteArrayIdentity.
type StrictByteArrayIdentity struct{}

func (StrictByteArrayIdentity) EncodeIdentity(id Identifier) ([]*felt.Felt, error) {
	ba, err := EncodeByteArrayStrict(string(id))
	if err != nil {
		return nil, err
	}
	return ba.Felts(), nil
}

// NumericIdentity encodes an identifier as a single field element. The
// identifier must be a decimal or 0x-prefixed hex number below P.
//
// Deprecated: use ByteArrayIdentity.
type NumericIdentity struct{}

func (NumericIdentity) EncodeIdentity(id Identifier) ([]*felt.Felt, error) {
	s := strings.TrimSpace(string(id))
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		f, err := parseHexFelt(s[2:])
		if err != nil {
			return nil, fmt.Errorf("%w: identity %q: %v", ErrEncoding, id, err)
		}
		return []*felt.Felt{f}, nil
	}
	f, err := ParseFelt(s)
	if err != nil {
		return nil, fmt.Errorf("%w: identity %q: %v", ErrEncoding, id, err)
	}
	return []*felt.Felt{f}, nil
}
