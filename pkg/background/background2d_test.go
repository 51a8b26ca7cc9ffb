package background

import (
	"math"
	"testing"
)

func defaultTestParams() Params {
	return Params{
		BoxSize:           [2]int{8, 8},
		FilterSize:        [2]int{3, 3},
		Estimator:         "mean",
		Interpolator:      "zoom",
		Clip:              SigmaClip{Sigma: 3, MaxIters: 5},
		ExcludePercentile: 100,
	}
}

func constantFrame(rows, cols int, v float32) []float32 {
	data := make([]float32, rows*cols)
	for i := range data {
		data[i] = v
	}
	return data
}

func TestEstimateConstantFrame(t *testing.T) {
	rows, cols := 64, 64
	res, err := Estimate(constantFrame(rows, cols, 7), rows, cols, nil, defaultTestParams())
	if err != nil {
		t.Fatal(err)
	}
	for i, v := range res.Background {
		if math.Abs(float64(v)-7) > 1e-5 {
			t.Fatalf("background[%d] = %v, want 7", i, v)
		}
	}
	for i, v := range res.RMS {
		if math.Abs(float64(v)) > 1e-5 {
			t.Fatalf("rms[%d] = %v, want 0", i, v)
		}
	}
	if math.Abs(res.BackgroundMedian-7) > 1e-6 {
		t.Errorf("background median = %v, want 7", res.BackgroundMedian)
	}
	if math.Abs(res.RMSMedian) > 1e-6 {
		t.Errorf("rms median = %v, want 0", res.RMSMedian)
	}
}

func TestEstimateVerticalGradient(t *testing.T) {
	// A linear ramp survives box averaging and bilinear interpolation
	// exactly away from the clamped borders.
	rows, cols := 64, 64
	data := make([]float32, rows*cols)
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			data[y*cols+x] = float32(y)
		}
	}
	p := defaultTestParams()
	p.FilterSize = [2]int{1, 1}
	res, err := Estimate(data, rows, cols, nil, p)
	if err != nil {
		t.Fatal(err)
	}
	for y := 8; y < rows-8; y++ {
		got := float64(res.Background[y*cols+10])
		if math.Abs(got-float64(y)) > 1e-4 {
			t.Fatalf("background at row %d = %v, want %d", y, got, y)
		}
	}
}

func TestEstimateMaskedRegionGetsFilled(t *testing.T) {
	rows, cols := 64, 64
	data := constantFrame(rows, cols, 7)
	mask := make([]bool, rows*cols)
	// Fully mask one grid box; its cell must be refilled from neighbors.
	for y := 16; y < 24; y++ {
		for x := 16; x < 24; x++ {
			mask[y*cols+x] = true
		}
	}
	res, err := Estimate(data, rows, cols, mask, defaultTestParams())
	if err != nil {
		t.Fatal(err)
	}
	for i, v := range res.Background {
		if math.Abs(float64(v)-7) > 1e-5 {
			t.Fatalf("background[%d] = %v, want 7", i, v)
		}
	}
	if res.Mask == nil || !res.Mask[17*cols+17] {
		t.Error("result does not carry the input coverage mask")
	}
}

func TestEstimateChannelMask(t *testing.T) {
	// Only every fourth pixel belongs to the channel; the estimate must
	// ignore the foreign pixels entirely.
	rows, cols := 32, 32
	data := make([]float32, rows*cols)
	mask := make([]bool, rows*cols)
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			i := y*cols + x
			if y%2 == 1 && x%2 == 0 {
				data[i] = 3
			} else {
				data[i] = 1000
				mask[i] = true
			}
		}
	}
	res, err := Estimate(data, rows, cols, mask, defaultTestParams())
	if err != nil {
		t.Fatal(err)
	}
	for i, v := range res.Background {
		if math.Abs(float64(v)-3) > 1e-5 {
			t.Fatalf("background[%d] = %v, want 3", i, v)
		}
	}
}

func TestEstimateExcludePercentile(t *testing.T) {
	rows, cols := 32, 32
	data := constantFrame(rows, cols, 7)
	mask := make([]bool, rows*cols)
	for i := 0; i < len(mask); i += 2 {
		mask[i] = true
	}
	p := defaultTestParams()
	p.ExcludePercentile = 10
	// Every box is half masked, so every box is rejected and nothing is
	// left to fill from.
	if _, err := Estimate(data, rows, cols, mask, p); err == nil {
		t.Error("expected an error when every box exceeds the exclusion limit")
	}

	p.ExcludePercentile = 60
	if _, err := Estimate(data, rows, cols, mask, p); err != nil {
		t.Errorf("boxes within the exclusion limit failed: %v", err)
	}
}

func TestEstimateArgumentErrors(t *testing.T) {
	data := constantFrame(16, 16, 1)

	p := defaultTestParams()
	p.BoxSize = [2]int{32, 8}
	if _, err := Estimate(data, 16, 16, nil, p); err == nil {
		t.Error("expected an error for a box taller than the frame")
	}

	if _, err := Estimate(data, 16, 17, nil, defaultTestParams()); err == nil {
		t.Error("expected an error for a data/shape mismatch")
	}

	if _, err := Estimate(data, 16, 16, make([]bool, 5), defaultTestParams()); err == nil {
		t.Error("expected an error for a mask/shape mismatch")
	}

	p = defaultTestParams()
	p.Interpolator = "spline"
	if _, err := Estimate(data, 16, 16, nil, p); err == nil {
		t.Error("expected an error for an unknown interpolator")
	}
}

func TestZoomInterpolatorConstantMesh(t *testing.T) {
	mesh := []float64{4, 4, 4, 4}
	out := ZoomInterpolator{}.Resize(mesh, 2, 2, 10, 12)
	if len(out) != 120 {
		t.Fatalf("output length %d, want 120", len(out))
	}
	for i, v := range out {
		if math.Abs(float64(v)-4) > 1e-6 {
			t.Fatalf("out[%d] = %v, want 4", i, v)
		}
	}
}

func TestZoomInterpolatorMidpoint(t *testing.T) {
	// Two cells across a 16-wide row: centers at x=3.5 and x=11.5, the
	// midpoint x=7.5 must average the two.
	mesh := []float64{10, 20}
	out := ZoomInterpolator{}.Resize(mesh, 1, 2, 1, 16)
	if got := float64(out[3]); math.Abs(got-10) > 1e-6 {
		t.Errorf("out[3] = %v, want 10", got)
	}
	if got := float64(out[12]); math.Abs(got-20) > 1e-6 {
		t.Errorf("out[12] = %v, want 20", got)
	}
	mid := (float64(out[7]) + float64(out[8])) / 2
	if math.Abs(mid-15) > 1e-6 {
		t.Errorf("midpoint value %v, want 15", mid)
	}
	// Edges clamp to the nearest center.
	if got := float64(out[0]); math.Abs(got-10) > 1e-6 {
		t.Errorf("out[0] = %v, want 10", got)
	}
	if got := float64(out[15]); math.Abs(got-20) > 1e-6 {
		t.Errorf("out[15] = %v, want 20", got)
	}
}

func TestNearestInterpolator(t *testing.T) {
	mesh := []float64{1, 2, 3, 4}
	out := NearestInterpolator{}.Resize(mesh, 2, 2, 4, 4)
	want := []float32{1, 1, 2, 2, 1, 1, 2, 2, 3, 3, 4, 4, 3, 3, 4, 4}
	for i := range want {
		if out[i] != want[i] {
			t.Fatalf("out[%d] = %v, want %v", i, out[i], want[i])
		}
	}
}

func TestMedianFilterMeshSmoothsSpike(t *testing.T) {
	mesh := []float64{
		1, 1, 1,
		1, 9, 1,
		1, 1, 1,
	}
	out := medianFilterMesh(mesh, 3, 3, [2]int{3, 3})
	if out[4] != 1 {
		t.Errorf("filtered center = %v, want 1", out[4])
	}
}
