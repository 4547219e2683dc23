package cairo

import (
	"fmt"
	"math"

	"github.com/holiman/uint256"

	"github.com/Abdullah1738/smile-token/protocol"
)

// The smile program reports its score as a fixed-point logit in the last
// output element.
const (
	SmileLogitScale = 100_000
	SmileLogitClamp = 10 * SmileLogitScale
)

// SmileScore maps a smile run output to a probability in (0, 1). The raw
// logit is read as a signed field value, saturated to ±SmileLogitClamp and
// passed through the logistic function.
func SmileScore(output protocol.Calldata, threshold *uint256.Int) (float64, error) {
	if len(output) == 0 {
		return 0, fmt.Errorf("%w: empty smile output", ErrProofTruncated)
	}
	signed := protocol.FeltToSigned(output[len(output)-1], threshold)
	logit := protocol.Clamp(signed, -SmileLogitClamp, SmileLogitClamp)
	x := float64(logit) / SmileLogitScale
	return 1 / (1 + math.Exp(-x)), nil
}
