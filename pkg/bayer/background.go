package bayer

import (
	"fmt"
	"io"

	"bayerbg/pkg/background"
)

// BackgroundConfig carries the per-channel estimation knobs. Box and filter
// sizes are (rows, cols) pairs. The zero value is not useful; start from
// DefaultBackgroundConfig.
type BackgroundConfig struct {
	BoxSize           [2]int
	FilterSize        [2]int
	Estimator         string
	Interpolator      string
	Sigma             float64
	Iters             int
	ExcludePercentile float64
	// Log receives one summary line per channel when set.
	Log io.Writer
}

// DefaultBackgroundConfig returns the settings tuned for full-frame DSLR
// images of the PANOPTES units: box sizes that divide the sensor into a
// manageable mesh and the MMM mode estimator, which is robust against
// stars.
func DefaultBackgroundConfig() BackgroundConfig {
	return BackgroundConfig{
		BoxSize:           [2]int{79, 84},
		FilterSize:        [2]int{11, 12},
		Estimator:         "mmm",
		Interpolator:      "zoom",
		Sigma:             5,
		Iters:             10,
		ExcludePercentile: 100,
	}
}

// RGBBackgroundSeparate estimates the background of each broad color
// channel of a single 2D frame, returning the red, green and blue results
// in that order. Each channel sees only its own lattice pixels; backend
// errors are wrapped with the channel name and abort the remaining
// channels.
func RGBBackgroundSeparate(data *Array, cfg BackgroundConfig) ([]*background.Result, error) {
	if data.NDim() != 2 {
		return nil, fmt.Errorf("background estimation needs a single 2D frame, got shape %v", data.Shape())
	}
	channels, err := SplitChannels(data, false)
	if err != nil {
		return nil, err
	}

	logw := cfg.Log
	if logw == nil {
		logw = io.Discard
	}

	params := background.Params{
		BoxSize:           cfg.BoxSize,
		FilterSize:        cfg.FilterSize,
		Estimator:         cfg.Estimator,
		Interpolator:      cfg.Interpolator,
		Clip:              background.SigmaClip{Sigma: cfg.Sigma, MaxIters: cfg.Iters},
		ExcludePercentile: cfg.ExcludePercentile,
	}

	results := make([]*background.Result, 0, len(channels))
	for i, ch := range channels {
		res, err := background.Estimate(ch.Data.Data(), data.Rows(), data.Cols(), ch.Mask.Bits(), params)
		if err != nil {
			return nil, fmt.Errorf("%s channel: %w", RGB(i), err)
		}
		fmt.Fprintf(logw, "%s channel: background median %.2f, RMS median %.2f\n",
			RGB(i), res.BackgroundMedian, res.RMSMedian)
		results = append(results, res)
	}
	return results, nil
}

// RGBBackground estimates the per-channel backgrounds of a 2D frame and
// combines them into one full-resolution surface in which every pixel
// carries the estimate of its own color channel.
func RGBBackground(data *Array, cfg BackgroundConfig) (*Array, error) {
	results, err := RGBBackgroundSeparate(data, cfg)
	if err != nil {
		return nil, err
	}
	return CombineBackgrounds(results)
}

// CombineBackgrounds zero-fills each channel's surface outside its own
// lattice and sums the channels. The results must share a shape and carry
// their coverage masks.
func CombineBackgrounds(results []*background.Result) (*Array, error) {
	if len(results) == 0 {
		return nil, fmt.Errorf("no channel results to combine")
	}
	rows, cols := results[0].Rows, results[0].Cols
	out := NewFrame(rows, cols)
	for i, res := range results {
		if res.Rows != rows || res.Cols != cols {
			return nil, fmt.Errorf("channel %d shape %dx%d does not match %dx%d",
				i, res.Rows, res.Cols, rows, cols)
		}
		if res.Mask == nil {
			return nil, fmt.Errorf("channel %d carries no coverage mask", i)
		}
		data := out.Data()
		for j, excluded := range res.Mask {
			if !excluded {
				data[j] += res.Background[j]
			}
		}
	}
	return out, nil
}
