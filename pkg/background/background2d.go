package background

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// Params configures a single-frame background estimation. Box and filter
// sizes are (rows, cols) pairs.
type Params struct {
	// BoxSize is the grid box extent in pixels. Each dimension must be
	// between 1 and the corresponding frame dimension.
	BoxSize [2]int
	// FilterSize is the median filter window applied to the mesh. A size
	// of 1 on both axes disables filtering.
	FilterSize [2]int
	// Estimator names the per-box level estimator (see EstimatorByName).
	Estimator string
	// Interpolator names the mesh upsampler (see InterpolatorByName).
	Interpolator string
	// Clip is applied to each box's samples before estimation.
	Clip SigmaClip
	// ExcludePercentile marks a box as unusable when more than this
	// percentage of its pixels is excluded by the mask. Unusable boxes are
	// refilled from neighboring boxes. 100 only rejects fully-masked
	// boxes.
	ExcludePercentile float64
}

// Result holds the full-resolution background surfaces estimated from one
// frame, plus the per-frame scalar summaries.
type Result struct {
	Rows int
	Cols int
	// Background and RMS are row-major full-resolution surfaces.
	Background []float32
	RMS        []float32
	// Mask is the coverage mask the estimate was computed under, copied
	// from the input. True marks pixels that contributed no samples.
	Mask []bool
	// BackgroundMedian and RMSMedian summarize the surfaces.
	BackgroundMedian float64
	RMSMedian        float64
}

// Estimate computes the background of a rows x cols frame. A nil mask uses
// every pixel; otherwise mask must match the frame length, with true bits
// excluding pixels from the estimation. The data is only read.
func Estimate(data []float32, rows, cols int, mask []bool, p Params) (*Result, error) {
	if rows < 1 || cols < 1 || len(data) != rows*cols {
		return nil, fmt.Errorf("data length %d does not match %dx%d frame", len(data), rows, cols)
	}
	if mask != nil && len(mask) != len(data) {
		return nil, fmt.Errorf("mask length %d does not match %dx%d frame", len(mask), rows, cols)
	}
	if p.BoxSize[0] < 1 || p.BoxSize[0] > rows || p.BoxSize[1] < 1 || p.BoxSize[1] > cols {
		return nil, fmt.Errorf("box size %dx%d outside frame %dx%d", p.BoxSize[0], p.BoxSize[1], rows, cols)
	}
	est, err := EstimatorByName(p.Estimator)
	if err != nil {
		return nil, err
	}
	interp, err := InterpolatorByName(p.Interpolator)
	if err != nil {
		return nil, err
	}

	// The grid divides the frame evenly into roughly box-sized cells, so
	// no padding row or column of partial boxes is needed.
	meshRows := (rows + p.BoxSize[0]/2) / p.BoxSize[0]
	meshCols := (cols + p.BoxSize[1]/2) / p.BoxSize[1]
	spacingY := float64(rows) / float64(meshRows)
	spacingX := float64(cols) / float64(meshCols)

	bkgMesh := make([]float64, meshRows*meshCols)
	rmsMesh := make([]float64, meshRows*meshCols)
	samples := make([]float64, 0, p.BoxSize[0]*p.BoxSize[1])

	for my := 0; my < meshRows; my++ {
		yStart := int(float64(my)*spacingY + 0.5)
		yEnd := int(float64(my+1)*spacingY + 0.5)
		if yEnd > rows {
			yEnd = rows
		}
		for mx := 0; mx < meshCols; mx++ {
			xStart := int(float64(mx)*spacingX + 0.5)
			xEnd := int(float64(mx+1)*spacingX + 0.5)
			if xEnd > cols {
				xEnd = cols
			}

			samples = samples[:0]
			for y := yStart; y < yEnd; y++ {
				rowOff := y * cols
				for x := xStart; x < xEnd; x++ {
					if mask == nil || !mask[rowOff+x] {
						samples = append(samples, float64(data[rowOff+x]))
					}
				}
			}

			i := my*meshCols + mx
			total := (yEnd - yStart) * (xEnd - xStart)
			excluded := 100 * float64(total-len(samples)) / float64(total)
			if len(samples) == 0 || excluded > p.ExcludePercentile {
				bkgMesh[i] = math.NaN()
				rmsMesh[i] = math.NaN()
				continue
			}

			clipped := p.Clip.Clip(samples)
			bkgMesh[i] = est.EstimateBackground(clipped)
			if len(clipped) < 2 {
				rmsMesh[i] = 0
			} else {
				rmsMesh[i] = stat.StdDev(clipped, nil)
			}
		}
	}

	if err := fillMesh(bkgMesh, meshRows, meshCols); err != nil {
		return nil, err
	}
	if err := fillMesh(rmsMesh, meshRows, meshCols); err != nil {
		return nil, err
	}

	if p.FilterSize[0] > 1 || p.FilterSize[1] > 1 {
		bkgMesh = medianFilterMesh(bkgMesh, meshRows, meshCols, p.FilterSize)
		rmsMesh = medianFilterMesh(rmsMesh, meshRows, meshCols, p.FilterSize)
	}

	res := &Result{
		Rows:       rows,
		Cols:       cols,
		Background: interp.Resize(bkgMesh, meshRows, meshCols, rows, cols),
		RMS:        interp.Resize(rmsMesh, meshRows, meshCols, rows, cols),
	}
	if mask != nil {
		res.Mask = append([]bool(nil), mask...)
	}
	res.BackgroundMedian = median(bkgMesh)
	res.RMSMedian = median(rmsMesh)
	return res, nil
}

// fillMesh replaces NaN cells with the median of their non-NaN neighbors,
// relaxing the required neighbor count from 8 down to 1 so isolated valid
// regions still flood outward. A mesh with no valid cell at all is an
// error.
func fillMesh(mesh []float64, meshRows, meshCols int) error {
	valid := 0
	for _, v := range mesh {
		if !math.IsNaN(v) {
			valid++
		}
	}
	if valid == len(mesh) {
		return nil
	}
	if valid == 0 {
		return fmt.Errorf("no usable grid cells: every box exceeded the exclusion limit")
	}

	neighborVals := make([]float64, 0, 8)
	for required := 8; required >= 1; required-- {
		for changed := true; changed; {
			changed = false
			for y := 0; y < meshRows; y++ {
				for x := 0; x < meshCols; x++ {
					i := y*meshCols + x
					if !math.IsNaN(mesh[i]) {
						continue
					}
					neighborVals = neighborVals[:0]
					for dy := -1; dy <= 1; dy++ {
						for dx := -1; dx <= 1; dx++ {
							if dy == 0 && dx == 0 {
								continue
							}
							ny, nx := y+dy, x+dx
							if ny < 0 || ny >= meshRows || nx < 0 || nx >= meshCols {
								continue
							}
							if v := mesh[ny*meshCols+nx]; !math.IsNaN(v) {
								neighborVals = append(neighborVals, v)
							}
						}
					}
					if len(neighborVals) >= required {
						mesh[i] = median(neighborVals)
						changed = true
					}
				}
			}
		}
	}
	return nil
}

// medianFilterMesh applies a (rows, cols) median window to the mesh with
// edge replication. Even window sizes extend one cell further on the high
// side.
func medianFilterMesh(mesh []float64, meshRows, meshCols int, size [2]int) []float64 {
	loY, hiY := (size[0]-1)/2, size[0]/2
	loX, hiX := (size[1]-1)/2, size[1]/2
	out := make([]float64, len(mesh))
	window := make([]float64, 0, size[0]*size[1])

	for y := 0; y < meshRows; y++ {
		for x := 0; x < meshCols; x++ {
			window = window[:0]
			for dy := -loY; dy <= hiY; dy++ {
				yy := clampIndex(y+dy, meshRows)
				for dx := -loX; dx <= hiX; dx++ {
					xx := clampIndex(x+dx, meshCols)
					window = append(window, mesh[yy*meshCols+xx])
				}
			}
			out[y*meshCols+x] = median(window)
		}
	}
	return out
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
