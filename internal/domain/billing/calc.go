package billing

// ItemAmount computes one line's amount. Quantity defaults to 1 when zero
// or negative so a bare rate still bills a single unit.
func ItemAmount(qty int, rate float64) float64 {
	if qty <= 0 {
		qty = 1
	}
	return float64(qty) * rate
}

// Totals computes gross, discount, and net for an item set. Net is not
// clamped: a discount larger than gross legitimately yields a negative net
// and the caller decides whether to accept it. The result is independent
// of item ordering.
func Totals(items []ItemInput, discount float64) (gross, disc, net float64) {
	for _, item := range items {
		gross += ItemAmount(item.Qty, item.Rate)
	}
	return gross, discount, gross - discount
}
