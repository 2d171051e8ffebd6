package ledger

import (
	"math"
	"strconv"
	"strings"

	"github.com/govalues/decimal"
)

// MaxAmount caps a single record so balance sums stay inside the 19 digit
// decimal range.
const MaxAmount = 1e15

// ExactAmount reports whether f converts to a balance decimal with no
// rounding: finite, below 1e19 in magnitude and with at most 19 digits after
// the decimal point.
func ExactAmount(f float64) bool {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return false
	}
	if _, err := decimal.NewFromFloat64(f); err != nil {
		return false
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if i := strings.IndexByte(s, '.'); i >= 0 && len(s)-i-1 > decimal.MaxScale {
		return false
	}
	return true
}
