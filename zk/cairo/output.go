package cairo

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"github.com/Abdullah1738/smile-token/protocol"
)

// FaucetMarkerHex is the hex of the sender field the decoder anchors on: a
// length byte of 6 followed by "faucet".
const FaucetMarkerHex = "06666175636574"

// OutputFormat selects the program output revision.
type OutputFormat uint8

const (
	// OutputFormatV1 places the receiver length right after the marker.
	OutputFormatV1 OutputFormat = iota
	// OutputFormatV2 wraps the receiver in an option, adding two
	// discriminant bytes after the marker.
	OutputFormatV2
)

func (f OutputFormat) discriminantBytes() int {
	if f == OutputFormatV2 {
		return 2
	}
	return 0
}

func (f OutputFormat) String() string {
	switch f {
	case OutputFormatV1:
		return "v1"
	case OutputFormatV2:
		return "v2"
	default:
		return fmt.Sprintf("OutputFormat(%d)", uint8(f))
	}
}

// ParseOutputFormat accepts "v1" or "v2".
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch s {
	case "", "v1", "V1":
		return OutputFormatV1, nil
	case "v2", "V2":
		return OutputFormatV2, nil
	}
	return 0, fmt.Errorf("unknown output format %q", s)
}

// MaxIdentifierLen is the longest identifier an output field can carry.
const MaxIdentifierLen = 0xff

// MarkerFor returns the serialized sender field of id: one length byte
// followed by its bytes.
func MarkerFor(id protocol.Identifier) ([]byte, error) {
	if len(id) > MaxIdentifierLen {
		return nil, fmt.Errorf("%w: %d bytes", ErrIdentifierTooLong, len(id))
	}
	out := make([]byte, 0, 1+len(id))
	out = append(out, byte(len(id)))
	return append(out, id...), nil
}

// Decoder extracts a balance change from a raw proof.
//
// The zero value decodes OutputFormatV1 transfers sent by the genesis sender.
type Decoder struct {
	Format OutputFormat
	Sender protocol.Identifier
}

func (d Decoder) sender() protocol.Identifier {
	if d.Sender == "" {
		return protocol.GenesisSender
	}
	return d.Sender
}

// Decode walks the record envelope and scans its output section:
//
//	u32le proofLen || proof || u32le inputsLen || inputs || outputs
//
// Inside outputs it finds the sender marker, skips the format's
// discriminant bytes, reads a length-prefixed receiver (cut at the first
// NUL) and then one compact integer.
func (d Decoder) Decode(raw []byte) (protocol.BalanceChange, error) {
	tail, err := outputSection(raw)
	if err != nil {
		return protocol.BalanceChange{}, err
	}

	sender := d.sender()
	marker, err := MarkerFor(sender)
	if err != nil {
		return protocol.BalanceChange{}, err
	}
	pos := bytes.Index(tail, marker)
	if pos < 0 {
		return protocol.BalanceChange{}, ErrMarkerNotFound
	}
	off := pos + 1 + len(sender) + d.Format.discriminantBytes()

	if off >= len(tail) {
		return protocol.BalanceChange{}, fmt.Errorf("%w: receiver length", ErrProofTruncated)
	}
	n := int(tail[off])
	off++
	if off+n > len(tail) {
		return protocol.BalanceChange{}, fmt.Errorf("%w: receiver (%d bytes)", ErrProofTruncated, n)
	}
	name := tail[off : off+n]
	if i := bytes.IndexByte(name, 0); i >= 0 {
		name = name[:i]
	}
	off += n

	v, _, err := DecodeCompactInt(tail, off)
	if err != nil {
		return protocol.BalanceChange{}, err
	}
	return protocol.BalanceChange{
		From:  sender,
		To:    protocol.Identifier(name),
		Value: int64(v),
	}, nil
}

// DecodeOutput decodes raw with the zero Decoder.
func DecodeOutput(raw []byte) (protocol.BalanceChange, error) {
	return Decoder{}.Decode(raw)
}

func outputSection(raw []byte) ([]byte, error) {
	if len(raw) < 4 {
		return nil, fmt.Errorf("%w: proof length", ErrProofTruncated)
	}
	proofLen := uint64(binary.LittleEndian.Uint32(raw[0:4]))
	off := 4 + proofLen
	if off+4 > uint64(len(raw)) {
		return nil, fmt.Errorf("%w: inputs length at %d", ErrProofTruncated, off)
	}
	inputsLen := uint64(binary.LittleEndian.Uint32(raw[off : off+4]))
	off += 4 + inputsLen
	if off > uint64(len(raw)) {
		return nil, fmt.Errorf("%w: inputs (%d bytes)", ErrProofTruncated, inputsLen)
	}
	return raw[off:], nil
}

// ProofRecord is the envelope a prover returns.
type ProofRecord struct {
	Proof   []byte
	Inputs  []byte
	Outputs []byte
}

func (r ProofRecord) MarshalBinary() ([]byte, error) {
	if uint64(len(r.Proof)) > 0xffffffff || uint64(len(r.Inputs)) > 0xffffffff {
		return nil, fmt.Errorf("proof record section too large")
	}
	out := make([]byte, 0, 8+len(r.Proof)+len(r.Inputs)+len(r.Outputs))
	out = binary.LittleEndian.AppendUint32(out, uint32(len(r.Proof)))
	out = append(out, r.Proof...)
	out = binary.LittleEndian.AppendUint32(out, uint32(len(r.Inputs)))
	out = append(out, r.Inputs...)
	out = append(out, r.Outputs...)
	return out, nil
}

func (r *ProofRecord) UnmarshalBinary(raw []byte) error {
	tail, err := outputSection(raw)
	if err != nil {
		return err
	}
	proofLen := int(binary.LittleEndian.Uint32(raw[0:4]))
	r.Proof = append([]byte(nil), raw[4:4+proofLen]...)
	inputsStart := 8 + proofLen
	r.Inputs = append([]byte(nil), raw[inputsStart:len(raw)-len(tail)]...)
	r.Outputs = append([]byte(nil), tail...)
	return nil
}

// TransferOutput serializes the transfer fields the decoder reads: the
// sender marker, the format's discriminant, the receiver and the value.
func TransferOutput(format OutputFormat, change protocol.BalanceChange) ([]byte, error) {
	if change.Value < 0 || change.Value > 0xffffffff {
		return nil, fmt.Errorf("value %d out of compact range", change.Value)
	}
	from, err := MarkerFor(change.From)
	if err != nil {
		return nil, err
	}
	to, err := MarkerFor(change.To)
	if err != nil {
		return nil, err
	}
	out := append([]byte(nil), from...)
	if format == OutputFormatV2 {
		// Some(receiver)
		out = append(out, 1, 0)
	}
	out = append(out, to...)
	out = append(out, EncodeCompactInt(uint32(change.Value))...)
	return out, nil
}

// FaucetMarker returns the decoded FaucetMarkerHex.
func FaucetMarker() []byte {
	b, _ := hex.DecodeString(FaucetMarkerHex)
	return b
}
