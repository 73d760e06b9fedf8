// Package descriptive implements the summary statistics used to build
// cleaning baselines. Quartiles use the exclusive-median split rather than
// interpolated percentiles.
package descriptive

import (
	"slices"

	"github.com/montanaflynn/stats"
)

// Quartiles holds Q1, Q3 and their spread
type Quartiles struct {
	Q1  float64
	Q3  float64
	IQR float64
}

// Mean returns the arithmetic average, 0 for empty input
func Mean(data []float64) float64 {
	m, err := stats.Mean(data)
	if err != nil {
		return 0
	}
	return m
}

// Median returns the middle value of the sorted input, averaging the two
// central values for even lengths. Empty input returns 0.
func Median(data []float64) float64 {
	m, err := stats.Median(data)
	if err != nil {
		return 0
	}
	return m
}

// StandardDeviation returns the population standard deviation (divides by N)
func StandardDeviation(data []float64) float64 {
	sd, err := stats.StandardDeviationPopulation(data)
	if err != nil {
		return 0
	}
	return sd
}

// SplitHalves sorts a copy of data and returns the lower ⌊n/2⌋ elements and
// the elements from ⌈n/2⌉ on. The middle element of an odd-length input
// belongs to neither half.
func SplitHalves(data []float64) (lower, upper []float64) {
	sorted := slices.Clone(data)
	slices.Sort(sorted)
	n := len(sorted)
	return sorted[:n/2], sorted[(n+1)/2:]
}

// ComputeQuartiles returns Q1 = median(lower half), Q3 = median(upper half)
func ComputeQuartiles(data []float64) Quartiles {
	lower, upper := SplitHalves(data)
	q1 := Median(lower)
	q3 := Median(upper)
	return Quartiles{Q1: q1, Q3: q3, IQR: q3 - q1}
}
