package billing

import "github.com/poskit/billingd/internal/domain"

// Calculate derives the bill figures from cart lines and a discount
// percentage. Pure and stable: the same inputs always yield the same
// output, and values keep full float precision. Rounding to two decimals
// happens only when an invoice is rendered.
func Calculate(items []domain.CartItem, discount float64) domain.Bill {
	var subtotal float64
	for _, item := range items {
		subtotal += item.UnitPrice * float64(item.Quantity)
	}
	discountAmount := subtotal * discount / 100
	return domain.Bill{
		Subtotal:       subtotal,
		DiscountAmount: discountAmount,
		Total:          subtotal - discountAmount,
	}
}

func clampDiscount(percent float64) float64 {
	switch {
	case percent < 0:
		return 0
	case percent > 100:
		return 100
	}
	return percent
}
