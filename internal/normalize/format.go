package normalize

import (
	"math"
	"math/big"

	"github.com/dustin/go-humanize"
)

const satsSuffix = " sats"

// FormatSats renders an amount with thousands separators, e.g. "1,234 sats".
func FormatSats(amount uint64) string {
	if amount > math.MaxInt64 {
		return humanize.BigComma(new(big.Int).SetUint64(amount)) + satsSuffix
	}
	return humanize.Comma(int64(amount)) + satsSuffix
}
