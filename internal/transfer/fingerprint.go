package transfer

import "math"

// fingerprint computes the behavioral baseline over a sender's approved
// amounts: the mean and the population standard deviation (variance divided
// by n, not n-1).
func fingerprint(amounts []float64) (mean, stdDev float64) {
	n := float64(len(amounts))
	if n == 0 {
		return 0, 0
	}

	for _, a := range amounts {
		mean += a
	}
	mean /= n

	variance := 0.0
	for _, a := range amounts {
		d := a - mean
		variance += d * d
	}
	variance /= n

	return mean, math.Sqrt(variance)
}
