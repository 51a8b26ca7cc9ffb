// Package background estimates a smooth 2D sky background and its RMS from
// a single image frame, optionally restricted by an exclusion mask. The
// frame is divided into a grid of boxes, each box is reduced to one level
// through sigma clipping and a pluggable estimator, the low-resolution mesh
// is median filtered, and the mesh is interpolated back to full resolution.
package background

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// SigmaClip iteratively rejects samples farther than Sigma standard
// deviations from the running mean. Iteration stops when no sample is
// rejected, the deviation collapses to zero, or MaxIters is reached.
type SigmaClip struct {
	Sigma    float64
	MaxIters int
}

// Clip returns the surviving samples. The input slice is not modified. With
// a non-positive Sigma or MaxIters clipping is disabled and the input is
// returned as is.
func (c SigmaClip) Clip(values []float64) []float64 {
	if c.Sigma <= 0 || c.MaxIters <= 0 || len(values) < 2 {
		return values
	}
	cur := append([]float64(nil), values...)
	for iter := 0; iter < c.MaxIters && len(cur) > 1; iter++ {
		mean := stat.Mean(cur, nil)
		sigma := stat.StdDev(cur, nil)
		if sigma == 0 || math.IsNaN(sigma) {
			break
		}
		lo := mean - c.Sigma*sigma
		hi := mean + c.Sigma*sigma
		kept := cur[:0]
		for _, v := range cur {
			if v >= lo && v <= hi {
				kept = append(kept, v)
			}
		}
		if len(kept) == len(cur) || len(kept) == 0 {
			break
		}
		cur = kept
	}
	return cur
}
