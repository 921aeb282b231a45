package market

import "math"

// Prices live in the database as integer cents. JSON carries decimal
// amounts, so client-supplied values are rounded into cents at the boundary
// and compared with a tolerance instead of exact equality.
const (
	// PriceToleranceCents absorbs rounding on a single unit price.
	PriceToleranceCents int64 = 1
	// TotalToleranceCents allows the asserted grand total to drift by up
	// to one rupiah.
	TotalToleranceCents int64 = 100
)

func CentsFromRupiah(r float64) int64 {
	return int64(math.Round(r * 100))
}

func RupiahFromCents(c int64) float64 {
	return float64(c) / 100
}

func centsDiff(a, b int64) int64 {
	if a > b {
		return a - b
	}
	return b - a
}

// WithinTolerance reports whether two cent amounts differ by at most tol.
func WithinTolerance(a, b, tol int64) bool {
	return centsDiff(a, b) <= tol
}
