package background

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// An Estimator reduces the sigma-clipped samples of one grid box to a
// single background level. Estimators may assume the slice is non-empty.
type Estimator interface {
	EstimateBackground(values []float64) float64
}

// MeanBackground is the plain mean of the clipped samples.
type MeanBackground struct{}

func (MeanBackground) EstimateBackground(values []float64) float64 {
	return stat.Mean(values, nil)
}

// MedianBackground is the median of the clipped samples.
type MedianBackground struct{}

func (MedianBackground) EstimateBackground(values []float64) float64 {
	return median(values)
}

// MMMBackground is the DAOPHOT MMM mode estimate 3*median - 2*mean.
type MMMBackground struct{}

func (MMMBackground) EstimateBackground(values []float64) float64 {
	return 3*median(values) - 2*stat.Mean(values, nil)
}

// SExtractorBackground is the SExtractor mode estimate
// 2.5*median - 1.5*mean. When (mean - median)/stddev exceeds 0.3 the field
// is considered crowded and the median is returned instead; a zero stddev
// returns the mean.
type SExtractorBackground struct{}

func (SExtractorBackground) EstimateBackground(values []float64) float64 {
	mean := stat.Mean(values, nil)
	med := median(values)
	std := stat.StdDev(values, nil)
	if std == 0 || math.IsNaN(std) {
		return mean
	}
	if math.Abs(mean-med)/std > 0.3 {
		return med
	}
	return 2.5*med - 1.5*mean
}

var estimators = map[string]Estimator{
	"mean":   MeanBackground{},
	"median": MedianBackground{},
	"mmm":    MMMBackground{},
	"sexb":   SExtractorBackground{},
}

// EstimatorByName resolves a named estimator. Unknown names are an error so
// a typo fails before any per-box work starts.
func EstimatorByName(name string) (Estimator, error) {
	e, ok := estimators[name]
	if !ok {
		return nil, fmt.Errorf("unknown background estimator %q (have mean, median, mmm, sexb)", name)
	}
	return e, nil
}

// median sorts a copy and averages the middle pair for even counts.
func median(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return math.NaN()
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
