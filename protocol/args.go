package protocol

import (
	"fmt"

	"github.com/NethermindEth/juno/core/felt"
)

// TransferArgs are the inputs of the token transfer program.
type TransferArgs struct {
	State  BalanceState
	Amount int64
	From   Identifier
	To     Identifier
}

// Builder assembles program calldata. The zero value hashes with Commit.
type Builder struct {
	Committer Committer
}

// BuildTransferArgs lays out
//
//	len(state) || (bytearray(name) || amount)... || amount || bytearray(from) || bytearray(to) || commit(state)
//
// The commitment is over the pre-transfer state.
func BuildTransferArgs(state BalanceState, amount int64, from, to Identifier) (Calldata, error) {
	return Builder{}.Transfer(TransferArgs{State: state, Amount: amount, From: from, To: to})
}

func (b Builder) Transfer(args TransferArgs) (Calldata, error) {
	if len(args.State) == 0 {
		return nil, fmt.Errorf("%w: empty balance state", ErrCalldataShape)
	}
	if args.From == "" || args.To == "" {
		return nil, fmt.Errorf("%w: missing sender or receiver", ErrCalldataShape)
	}
	amount, err := FeltFromAmount(args.Amount)
	if err != nil {
		return nil, err
	}
	tokens, err := args.State.Tokens()
	if err != nil {
		return nil, err
	}

	committer := b.Committer
	if committer == nil {
		committer = CommitFunc(Commit)
	}
	digest, err := committer.Commit(args.State)
	if err != nil {
		return nil, err
	}

	out := make(Calldata, 0, len(tokens)+10)
	out = append(out, FeltFromUint64(uint64(len(args.State))))
	out = append(out, tokens...)
	out = append(out, amount)
	out = append(out, EncodeByteArray(string(args.From)).Felts()...)
	out = append(out, EncodeByteArray(string(args.To)).Felts()...)
	out = append(out, digest)
	return out, nil
}

// BuildImageArgs lays out identity || len(image) || image...
func BuildImageArgs(identity IdentityEncoder, id Identifier, image []uint64) (Calldata, error) {
	if identity == nil {
		identity = ByteArrayIdentity{}
	}
	idTokens, err := identity.EncodeIdentity(id)
	if err != nil {
		return nil, err
	}
	out := make(Calldata, 0, len(idTokens)+1+len(image))
	out = append(out, idTokens...)
	out = append(out, FeltFromUint64(uint64(len(image))))
	for _, px := range image {
		out = append(out, FeltFromUint64(px))
	}
	return out, nil
}

// BuildSmileArgs prefixes the smile program's initial state to the image args.
func BuildSmileArgs(identity IdentityEncoder, id Identifier, image []uint64) (Calldata, error) {
	rest, err := BuildImageArgs(identity, id, image)
	if err != nil {
		return nil, err
	}
	return append(Calldata{new(felt.Felt).SetUint64(SmileInitialState)}, rest...), nil
}

// DecodeTransferArgs reverses BuildTransferArgs. It returns the arguments and
// the commitment carried in the calldata; it does not check the commitment.
func DecodeTransferArgs(c Calldata) (TransferArgs, *felt.Felt, error) {
	var out TransferArgs
	if len(c) == 0 {
		return out, nil, fmt.Errorf("%w: empty calldata", ErrCalldataShape)
	}
	count, ok := smallUint(c[0])
	if !ok || count > uint64(len(c)) {
		return out, nil, fmt.Errorf("%w: bad entry count", ErrCalldataShape)
	}
	off := 1
	readText := func(what string) (string, error) {
		s, n, err := DecodeByteArray(c[off:])
		if err != nil {
			return "", fmt.Errorf("%w: %s: %v", ErrCalldataShape, what, err)
		}
		off += n
		return s, nil
	}
	readAmount := func(what string) (int64, error) {
		if off >= len(c) {
			return 0, fmt.Errorf("%w: missing %s", ErrCalldataShape, what)
		}
		v, ok := smallUint(c[off])
		if !ok || v > 1<<62 {
			return 0, fmt.Errorf("%w: %s out of range", ErrCalldataShape, what)
		}
		off++
		return int64(v), nil
	}

	out.State = make(BalanceState, 0, count)
	for i := uint64(0); i < count; i++ {
		name, err := readText(fmt.Sprintf("entry %d name", i))
		if err != nil {
			return out, nil, err
		}
		amount, err := readAmount(fmt.Sprintf("entry %d amount", i))
		if err != nil {
			return out, nil, err
		}
		out.State = append(out.State, BalanceEntry{Name: Identifier(name), Amount: amount})
	}
	amount, err := readAmount("amount")
	if err != nil {
		return out, nil, err
	}
	out.Amount = amount
	from, err := readText("from")
	if err != nil {
		return out, nil, err
	}
	to, err := readText("to")
	if err != nil {
		return out, nil, err
	}
	out.From, out.To = Identifier(from), Identifier(to)

	if off != len(c)-1 {
		return out, nil, fmt.Errorf("%w: want commitment at element %d, have %d elements", ErrCalldataShape, off, len(c))
	}
	return out, c[off], nil
}
