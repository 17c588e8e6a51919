package geo

// Approximate cell edge per precision, in km:
//
//	3 ≈ 156   4 ≈ 39   5 ≈ 4.9   6 ≈ 1.2   7 ≈ 0.15
var cellSizeKm = map[int]float64{
	3: 156,
	4: 39,
	5: 4.9,
	6: 1.2,
	7: 0.15,
}

// CellSizeKm returns the approximate cell edge for a precision chosen by SelectPrecision.
func CellSizeKm(precision int) (float64, bool) {
	km, ok := cellSizeKm[precision]
	return km, ok
}

// SelectPrecision maps the angular span of box to the coarsest precision that
// still resolves it, keeping the candidate fan-out at nine cells or fewer.
func SelectPrecision(box BoundingBox) int {
	span := box.Span()
	switch {
	case span >= 10:
		return 3
	case span > 2.5:
		return 4
	case span > 0.5:
		return 5
	case span > 0.05:
		return 6
	default:
		return 7
	}
}
