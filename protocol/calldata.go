package protocol

import (
	"fmt"
	"strings"

	"github.com/NethermindEth/juno/core/felt"
)

// Calldata is the flat field-element argument list passed to a VM program.
type Calldata []*felt.Felt

// String renders the VM argument format: "[a b c]" in base 10.
func (c Calldata) String() string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, f := range c {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(FeltDecimal(f))
	}
	sb.WriteByte(']')
	return sb.String()
}

// ParseCalldata parses the bracketed decimal format produced by String. VM
// outputs use the same format.
func ParseCalldata(s string) (Calldata, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "[") || !strings.HasSuffix(s, "]") {
		return nil, fmt.Errorf("%w: calldata must be bracket-delimited", ErrCalldataShape)
	}
	fields := strings.Fields(s[1 : len(s)-1])
	out := make(Calldata, 0, len(fields))
	for i, field := range fields {
		f, err := ParseFelt(field)
		if err != nil {
			return nil, fmt.Errorf("%w: element %d: %v", ErrCalldataShape, i, err)
		}
		out = append(out, f)
	}
	return out, nil
}
