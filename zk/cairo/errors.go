package cairo

import (
	"errors"
	"fmt"
)

var (
	// ErrProofParse is the base error of every output decoding failure.
	ErrProofParse = errors.New("proof output parse error")

	ErrMarkerNotFound = fmt.Errorf("%w: sender marker not found", ErrProofParse)
	ErrProofTruncated = fmt.Errorf("%w: truncated", ErrProofParse)

	// ErrIdentifierTooLong reports an identifier whose length does not fit
	// the one-byte length prefix of an output field.
	ErrIdentifierTooLong = fmt.Errorf("identifier longer than %d bytes", MaxIdentifierLen)
)
