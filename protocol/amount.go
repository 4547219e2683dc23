package protocol

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseAmount parses a non-negative integer amount.
func ParseAmount(s string) (int64, error) {
	s = strings.TrimSpace(s)
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: amount %q is not an integer", ErrCommitmentInput, s)
	}
	if v < 0 {
		return 0, fmt.Errorf("%w: negative amount %d", ErrCommitmentInput, v)
	}
	return v, nil
}
