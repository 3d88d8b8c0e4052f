package booking

import "math"

const (
	MinGuests = 1
	MaxGuests = 10
)

// Total is price*guests plus the booking fee on that subtotal, in cents.
func Total(pricePerPerson float64, guests int, feeRate float64) float64 {
	subtotal := pricePerPerson * float64(guests)
	return math.Round((subtotal+subtotal*feeRate)*100) / 100
}

// Fee is the booking fee part of Total.
func Fee(pricePerPerson float64, guests int, feeRate float64) float64 {
	return math.Round(pricePerPerson*float64(guests)*feeRate*100) / 100
}

func clampGuests(n int) int {
	if n < MinGuests {
		return MinGuests
	}
	if n > MaxGuests {
		return MaxGuests
	}
	return n
}
