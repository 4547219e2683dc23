package cairo

import (
	"fmt"

	"github.com/NethermindEth/juno/core/felt"

	"github.com/Abdullah1738/smile-token/protocol"
)

// TransferRunOutput is the program output of a transfer run:
//
//	version || initial_state || next_state || bytearray(identity) || tx_hash ||
//	bytearray(from) || bytearray(to) || amount
type TransferRunOutput struct {
	Version      uint64
	InitialState *felt.Felt
	NextState    *felt.Felt
	Identity     protocol.Identifier
	TxHash       *felt.Felt
	Change       protocol.BalanceChange
}

// ParseTransferRunOutput parses the bracketed output string of a transfer run.
func ParseTransferRunOutput(output string) (TransferRunOutput, error) {
	toks, err := protocol.ParseCalldata(output)
	if err != nil {
		return TransferRunOutput{}, err
	}
	var out TransferRunOutput
	if len(toks) < 3 {
		return out, fmt.Errorf("%w: run output has %d elements", ErrProofTruncated, len(toks))
	}
	version, err := smallFelt(toks[0])
	if err != nil {
		return out, err
	}
	out.Version = version
	out.InitialState = toks[1]
	out.NextState = toks[2]
	off := 3

	identity, n, err := protocol.DecodeByteArray(toks[off:])
	if err != nil {
		return out, fmt.Errorf("%w: identity: %v", ErrProofParse, err)
	}
	out.Identity = protocol.Identifier(identity)
	off += n

	if off >= len(toks) {
		return out, fmt.Errorf("%w: tx hash", ErrProofTruncated)
	}
	out.TxHash = toks[off]
	off++

	from, n, err := protocol.DecodeByteArray(toks[off:])
	if err != nil {
		return out, fmt.Errorf("%w: sender: %v", ErrProofParse, err)
	}
	off += n
	to, n, err := protocol.DecodeByteArray(toks[off:])
	if err != nil {
		return out, fmt.Errorf("%w: receiver: %v", ErrProofParse, err)
	}
	off += n

	if off >= len(toks) {
		return out, fmt.Errorf("%w: amount", ErrProofTruncated)
	}
	amount, err := smallFelt(toks[off])
	if err != nil {
		return out, err
	}
	if amount > 1<<62 {
		return out, fmt.Errorf("%w: amount out of range", ErrProofParse)
	}
	out.Change = protocol.BalanceChange{
		From:  protocol.Identifier(from),
		To:    protocol.Identifier(to),
		Value: int64(amount),
	}
	return out, nil
}

func smallFelt(f *felt.Felt) (uint64, error) {
	b := f.Bytes()
	for _, c := range b[:24] {
		if c != 0 {
			return 0, fmt.Errorf("%w: element %s does not fit in 64 bits", ErrProofParse, protocol.FeltDecimal(f))
		}
	}
	var v uint64
	for _, c := range b[24:] {
		v = v<<8 | uint64(c)
	}
	return v, nil
}
