package bayer

import (
	"math"
	"strings"
	"testing"

	"bayerbg/pkg/background"
)

// bayerTestFrame builds a frame with a constant level per color channel:
// red 3, both greens 2, blue 1.
func bayerTestFrame(rows, cols int) *Array {
	levels := map[Color]float32{R: 3, G1: 2, G2: 2, B: 1}
	a := NewFrame(rows, cols)
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			a.Set(y, x, levels[PixelColor(float64(x), float64(y))])
		}
	}
	return a
}

func testBackgroundConfig() BackgroundConfig {
	cfg := DefaultBackgroundConfig()
	cfg.BoxSize = [2]int{8, 8}
	cfg.FilterSize = [2]int{3, 3}
	cfg.Sigma = 3
	cfg.Iters = 5
	return cfg
}

func TestRGBBackgroundSeparate(t *testing.T) {
	data := bayerTestFrame(64, 64)
	results, err := RGBBackgroundSeparate(data, testBackgroundConfig())
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 3 {
		t.Fatalf("got %d channel results, want 3", len(results))
	}

	wantMedian := []float64{3, 2, 1}
	for i, res := range results {
		if math.Abs(res.BackgroundMedian-wantMedian[i]) > 1e-6 {
			t.Errorf("%s background median = %v, want %v", RGB(i), res.BackgroundMedian, wantMedian[i])
		}
		if math.Abs(res.RMSMedian) > 1e-6 {
			t.Errorf("%s RMS median = %v, want 0", RGB(i), res.RMSMedian)
		}
		// The interpolated surface of a flat channel stays flat.
		for j, v := range res.Background {
			if math.Abs(float64(v)-wantMedian[i]) > 1e-5 {
				t.Fatalf("%s background[%d] = %v, want %v", RGB(i), j, v, wantMedian[i])
			}
		}
		if res.Mask == nil {
			t.Errorf("%s result carries no coverage mask", RGB(i))
		}
	}
}

func TestRGBBackgroundCombined(t *testing.T) {
	data := bayerTestFrame(64, 64)
	combined, err := RGBBackground(data, testBackgroundConfig())
	if err != nil {
		t.Fatal(err)
	}

	// Every pixel carries the estimate of its own channel, which here is
	// the original value.
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			if math.Abs(float64(combined.At(y, x)-data.At(y, x))) > 1e-5 {
				t.Fatalf("combined (%d,%d) = %v, want %v", y, x, combined.At(y, x), data.At(y, x))
			}
		}
	}

	// The combined mean sits strictly between the lowest and highest
	// channel medians.
	var sum float64
	for _, v := range combined.Data() {
		sum += float64(v)
	}
	mean := sum / float64(len(combined.Data()))
	if !(mean > 1 && mean < 3) {
		t.Errorf("combined mean = %v, want strictly between 1 and 3", mean)
	}
	if math.Abs(mean-2) > 1e-5 {
		t.Errorf("combined mean = %v, want 2", mean)
	}
}

func TestRGBBackgroundDeterministic(t *testing.T) {
	data := bayerTestFrame(32, 32)
	cfg := testBackgroundConfig()
	first, err := RGBBackground(data, cfg)
	if err != nil {
		t.Fatal(err)
	}
	second, err := RGBBackground(data, cfg)
	if err != nil {
		t.Fatal(err)
	}
	for i := range first.Data() {
		if first.Data()[i] != second.Data()[i] {
			t.Fatalf("pixel %d differs between identical runs", i)
		}
	}
}

func TestRGBBackgroundRejectsCubes(t *testing.T) {
	cube, err := NewArray(2, 32, 32)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := RGBBackground(cube, testBackgroundConfig()); err == nil {
		t.Error("expected an error for 3D input")
	}
}

func TestRGBBackgroundPropagatesBackendErrors(t *testing.T) {
	data := bayerTestFrame(32, 32)
	cfg := testBackgroundConfig()
	cfg.Estimator = "mode"
	_, err := RGBBackground(data, cfg)
	if err == nil {
		t.Fatal("expected an error for an unknown estimator")
	}
	if !strings.Contains(err.Error(), "unknown background estimator") {
		t.Errorf("error %q does not name the unknown estimator", err)
	}
}

func TestRGBBackgroundLogsChannels(t *testing.T) {
	data := bayerTestFrame(32, 32)
	cfg := testBackgroundConfig()
	var log strings.Builder
	cfg.Log = &log
	if _, err := RGBBackgroundSeparate(data, cfg); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"red", "green", "blue"} {
		if !strings.Contains(log.String(), name) {
			t.Errorf("log output missing %s channel line:\n%s", name, log.String())
		}
	}
}

func TestCombineBackgroundsShapeMismatch(t *testing.T) {
	a := bayerTestFrame(32, 32)
	b := bayerTestFrame(32, 48)
	cfg := testBackgroundConfig()
	ra, err := RGBBackgroundSeparate(a, cfg)
	if err != nil {
		t.Fatal(err)
	}
	rb, err := RGBBackgroundSeparate(b, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := CombineBackgrounds([]*background.Result{ra[0], rb[1], ra[2]}); err == nil {
		t.Error("expected a shape mismatch error")
	}
}
