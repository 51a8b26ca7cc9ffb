package background

import (
	"fmt"
	"math"
)

// An Interpolator expands the low-resolution background mesh back to the
// full frame resolution.
type Interpolator interface {
	Resize(mesh []float64, meshRows, meshCols, rows, cols int) []float32
}

// ZoomInterpolator places each mesh value at the center of its grid box and
// interpolates bilinearly between centers. Pixels beyond the outermost
// centers clamp to the edge value.
type ZoomInterpolator struct{}

func (ZoomInterpolator) Resize(mesh []float64, meshRows, meshCols, rows, cols int) []float32 {
	out := make([]float32, rows*cols)
	spacingY := float64(rows) / float64(meshRows)
	spacingX := float64(cols) / float64(meshCols)

	for y := 0; y < rows; y++ {
		fy := (float64(y)+0.5)/spacingY - 0.5
		y0, y1, ty := meshSpan(fy, meshRows)
		rowOff := y * cols
		row0 := y0 * meshCols
		row1 := y1 * meshCols
		for x := 0; x < cols; x++ {
			fx := (float64(x)+0.5)/spacingX - 0.5
			x0, x1, tx := meshSpan(fx, meshCols)
			top := mesh[row0+x0]*(1-tx) + mesh[row0+x1]*tx
			bot := mesh[row1+x0]*(1-tx) + mesh[row1+x1]*tx
			out[rowOff+x] = float32(top*(1-ty) + bot*ty)
		}
	}
	return out
}

// meshSpan maps a fractional mesh coordinate to its two bracketing cell
// indices and the interpolation weight of the upper one.
func meshSpan(f float64, n int) (lo, hi int, t float64) {
	if f <= 0 {
		return 0, 0, 0
	}
	if f >= float64(n-1) {
		return n - 1, n - 1, 0
	}
	lo = int(math.Floor(f))
	return lo, lo + 1, f - float64(lo)
}

// NearestInterpolator assigns each pixel the value of the grid box it falls
// in, producing a blocky surface. Mostly useful for inspecting the mesh.
type NearestInterpolator struct{}

func (NearestInterpolator) Resize(mesh []float64, meshRows, meshCols, rows, cols int) []float32 {
	out := make([]float32, rows*cols)
	for y := 0; y < rows; y++ {
		my := y * meshRows / rows
		rowOff := y * cols
		meshOff := my * meshCols
		for x := 0; x < cols; x++ {
			out[rowOff+x] = float32(mesh[meshOff+x*meshCols/cols])
		}
	}
	return out
}

var interpolators = map[string]Interpolator{
	"zoom":    ZoomInterpolator{},
	"nearest": NearestInterpolator{},
}

// InterpolatorByName resolves a named interpolator.
func InterpolatorByName(name string) (Interpolator, error) {
	i, ok := interpolators[name]
	if !ok {
		return nil, fmt.Errorf("unknown background interpolator %q (have zoom, nearest)", name)
	}
	return i, nil
}
