package domain

// LineAmount is qty × unit_rate with no rounding.
func LineAmount(item LineItem) float64 {
	return item.Qty.Float64() * item.UnitRate.Float64()
}

// Subtotal sums the line amounts; an empty list is 0.
func Subtotal(items []LineItem) float64 {
	var sum float64
	for _, item := range items {
		sum += LineAmount(item)
	}
	return sum
}

// GrandTotal is subtotal + vat − wht.
func GrandTotal(items []LineItem, vat, wht Amount) float64 {
	return Subtotal(items) + vat.Float64() - wht.Float64()
}

// GrandTotalText is GrandTotal with adjustments taken as raw text.
func GrandTotalText(items []LineItem, vat, wht string) float64 {
	return Subtotal(items) + ParseAmount(vat) - ParseAmount(wht)
}
