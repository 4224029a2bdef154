// Package pricing computes order totals. All values are integer minor
// currency units; there is no floating point anywhere in the money path.
package pricing

// Config carries the delivery pricing rules.
type Config struct {
	FreeDeliveryThreshold int64
	DeliveryFee           int64
}

// Line is a priced (unit price, quantity) pair.
type Line struct {
	UnitPrice int64
	Quantity  int
}

// Quote is the result of pricing a line list.
type Quote struct {
	Subtotal     int64 `json:"subtotal"`
	FreeDelivery bool  `json:"free"`
	DeliveryFee  int64 `json:"delivery"`
	Total        int64 `json:"total"`
}

// Compute prices the given lines. applyFee says whether the caller's
// fulfillment type is subject to a delivery fee at all; the free-delivery
// flag is reported either way so clients can show "R120 away from free
// delivery" style hints. A subtotal exactly at the threshold qualifies.
func Compute(lines []Line, cfg Config, applyFee bool) Quote {
	var subtotal int64
	for _, line := range lines {
		subtotal += line.UnitPrice * int64(line.Quantity)
	}

	q := Quote{
		Subtotal:     subtotal,
		FreeDelivery: subtotal >= cfg.FreeDeliveryThreshold,
	}

	if applyFee && !q.FreeDelivery {
		q.DeliveryFee = cfg.DeliveryFee
	}
	q.Total = q.Subtotal + q.DeliveryFee

	return q
}
