package pricing

// Money represents a monetary value stored in minor units (Korean won).
type Money = int64

// clampNonNegative floors a monetary value at zero.
func clampNonNegative(v Money) Money {
	if v < 0 {
		return 0
	}
	return v
}
