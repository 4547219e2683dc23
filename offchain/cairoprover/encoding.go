package cairoprover

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/mr-tron/base58"
)

// Encoding names a text form of a proof record.
type Encoding string

const (
	EncodingBase64 Encoding = "base64"
	EncodingHex    Encoding = "hex"
	EncodingBase58 Encoding = "base58"
)

// DecodeProof decodes a proof record from text. Hex must be 0x-prefixed.
func DecodeProof(text string, enc Encoding) ([]byte, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("empty proof")
	}
	switch enc {
	case EncodingBase64, "":
		return base64.StdEncoding.DecodeString(text)
	case EncodingHex:
		return hexutil.Decode(text)
	case EncodingBase58:
		return base58.Decode(text)
	default:
		return nil, fmt.Errorf("unknown proof encoding %q", enc)
	}
}

// EncodeProof is the inverse of DecodeProof.
func EncodeProof(raw []byte, enc Encoding) (string, error) {
	switch enc {
	case EncodingBase64, "":
		return base64.StdEncoding.EncodeToString(raw), nil
	case EncodingHex:
		return hexutil.Encode(raw), nil
	case EncodingBase58:
		return base58.Encode(raw), nil
	default:
		return "", fmt.Errorf("unknown proof encoding %q", enc)
	}
}
