package protocol

import (
	"fmt"
	"strings"

	"github.com/NethermindEth/juno/core/felt"
)

// BytesPerWord is the number of text bytes packed into one ByteArray word.
const BytesPerWord = 31

// ByteArray is the VM's calldata representation of a text value.
//
// Serialized form:
//
//	full_word_count || full_words... || pending_word || pending_word_len
//
// Text whose length is an exact multiple of BytesPerWord has every chunk in
// FullWords and a zero pending word of length 0.
type ByteArray struct {
	FullWords      []*felt.Felt
	PendingWord    *felt.Felt
	PendingWordLen int
}

// EncodeByteArray splits text into 31-byte big-endian words. It accepts any length.
func EncodeByteArray(text string) ByteArray {
	raw := []byte(text)
	full := len(raw) / BytesPerWord

	out := ByteArray{
		FullWords: make([]*felt.Felt, 0, full),
	}
	offset := 0
	for i := 0; i < full; i++ {
		out.FullWords = append(out.FullWords, packWord(raw[offset:offset+BytesPerWord]))
		offset += BytesPerWord
	}
	out.PendingWord = packWord(raw[offset:])
	out.PendingWordLen = len(raw) - offset
	return out
}

// EncodeByteArrayStrict is the single-word codec: it rejects text longer than
// BytesPerWord instead of splitting it.
//
// Deprecated: use EncodeByteArray. Kept for programs compiled against the
// single-word argument format.
func EncodeByteArrayStrict(text string) (ByteArray, error) {
	if len(text) > BytesPerWord {
		return ByteArray{}, fmt.Errorf("%w: %v (%d bytes)", ErrEncoding, errByteArrayTooLong, len(text))
	}
	return EncodeByteArray(text), nil
}

// Felts returns the serialized token stream.
func (b ByteArray) Felts() []*felt.Felt {
	out := make([]*felt.Felt, 0, len(b.FullWords)+3)
	out = append(out, FeltFromUint64(uint64(len(b.FullWords))))
	out = append(out, b.FullWords...)
	pending := b.PendingWord
	if pending == nil {
		pending = new(felt.Felt)
	}
	out = append(out, pending)
	out = append(out, FeltFromUint64(uint64(b.PendingWordLen)))
	return out
}

func (b ByteArray) String() string {
	toks := b.Felts()
	parts := make([]string, len(toks))
	for i, t := range toks {
		parts[i] = FeltDecimal(t)
	}
	return strings.Join(parts, " ")
}

// DecodeByteArray reads one serialized ByteArray from the front of tokens and
// returns the text and the number of tokens consumed.
func DecodeByteArray(tokens []*felt.Felt) (string, int, error) {
	if len(tokens) < 1 {
		return "", 0, fmt.Errorf("%w: empty ByteArray token stream", ErrEncoding)
	}
	count, ok := smallUint(tokens[0])
	if !ok || count > uint64(len(tokens)) || uint64(len(tokens)-1) < count+2 {
		return "", 0, fmt.Errorf("%w: ByteArray word count out of range", ErrEncoding)
	}

	var sb strings.Builder
	i := 1
	for ; uint64(i) <= count; i++ {
		b := tokens[i].Bytes()
		if b[0] != 0 {
			return "", 0, fmt.Errorf("%w: full word %d exceeds %d bytes", ErrEncoding, i-1, BytesPerWord)
		}
		sb.Write(b[32-BytesPerWord:])
	}

	pendingLen, ok := smallUint(tokens[i+1])
	if !ok || pendingLen >= BytesPerWord {
		return "", 0, fmt.Errorf("%w: invalid pending word length", ErrEncoding)
	}
	pb := tokens[i].Bytes()
	for _, c := range pb[:32-pendingLen] {
		if c != 0 {
			return "", 0, fmt.Errorf("%w: pending word wider than %d bytes", ErrEncoding, pendingLen)
		}
	}
	sb.Write(pb[32-pendingLen:])
	return sb.String(), i + 2, nil
}

func packWord(chunk []byte) *felt.Felt {
	if len(chunk) == 0 {
		return new(felt.Felt)
	}
	return new(felt.Felt).SetBytes(chunk)
}

func smallUint(f *felt.Felt) (uint64, bool) {
	u := feltToUint256(f)
	if !u.IsUint64() {
		return 0, false
	}
	return u.Uint64(), true
}
