package core

// -----------------------------------------------------------------------------

// CalculateTotalMean returns the sum and arithmetic mean of data.
// An empty slice yields (0, 0).
func CalculateTotalMean(data []float64) (float64, float64) {
	if len(data) == 0 {
		return 0, 0
	}

	total := 0.0
	for _, v := range data {
		total += v
	}
	return total, total / float64(len(data))
}
