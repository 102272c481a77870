package format

import (
	"math"
	"strconv"

	"github.com/dustin/go-humanize"
)

// CurrencySymbol is the glyph shown in front of amounts.
const CurrencySymbol = "₦"

// Money renders an amount with thousands grouping and two decimals, e.g.
// ₦2,100.00. It is for display only; values are never parsed back.
func Money(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		v = 0
	}
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	return sign + CurrencySymbol + humanize.FormatFloat("#,###.##", v)
}

// Plain is Money without the currency symbol.
func Plain(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		v = 0
	}
	if v < 0 {
		return "-" + humanize.FormatFloat("#,###.##", -v)
	}
	return humanize.FormatFloat("#,###.##", v)
}

// Quantity renders a quantity with as many decimals as it needs.
func Quantity(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Decimal renders an amount with two decimals and no grouping, the way the
// store serializes totals.
func Decimal(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
