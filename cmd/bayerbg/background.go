package main

import (
	"fmt"
	"image"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"golang.org/x/image/tiff"

	"bayerbg/pkg/bayer"
	"bayerbg/pkg/fits"
)

type backgroundOptions struct {
	BoxSize           []int
	FilterSize        []int
	Estimator         string
	Interpolator      string
	Sigma             float64
	Iters             int
	ExcludePercentile float64
	Bias              float64
	OutputDir         string
	Subtract          bool
	Preview           bool
	Overwrite         bool
	Verbose           bool
}

var bgOpts backgroundOptions

var backgroundCmd = &cobra.Command{
	Use:   "background <file>...",
	Short: "Estimate per-channel sky backgrounds",
	Long: `Estimate the red, green and blue sky backgrounds of one or more raw
Bayer frames. Each input produces a FITS file holding the combined
background in the primary HDU plus per-channel background and RMS
extensions. FITS cubes are processed frame by frame.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBackground,
}

func init() {
	f := backgroundCmd.Flags()
	f.IntSliceVar(&bgOpts.BoxSize, "box-size", nil, "Grid box size as rows,cols")
	f.IntSliceVar(&bgOpts.FilterSize, "filter-size", nil, "Mesh median filter size as rows,cols")
	f.StringVar(&bgOpts.Estimator, "estimator", "", "Box estimator: mean, median, mmm or sexb")
	f.StringVar(&bgOpts.Interpolator, "interpolator", "", "Mesh interpolator: zoom or nearest")
	f.Float64Var(&bgOpts.Sigma, "sigma", 0, "Sigma clipping threshold")
	f.IntVar(&bgOpts.Iters, "iters", 0, "Sigma clipping iterations")
	f.Float64Var(&bgOpts.ExcludePercentile, "exclude-percentile", 0, "Maximum masked percentage per box")
	f.Float64Var(&bgOpts.Bias, "bias", 0, "Camera bias to subtract before estimation")
	f.StringVarP(&bgOpts.OutputDir, "output-dir", "o", "", "Directory for output files")
	f.BoolVar(&bgOpts.Subtract, "subtract", false, "Also write a background-subtracted frame")
	f.BoolVar(&bgOpts.Preview, "preview", false, "Also write a TIFF preview of the background")
	f.BoolVar(&bgOpts.Overwrite, "overwrite", false, "Overwrite existing output files")
	f.BoolVarP(&bgOpts.Verbose, "verbose", "v", false, "Log per-channel statistics")
	rootCmd.AddCommand(backgroundCmd)
}

// mergeBackgroundConfig folds config file defaults into any flag the user
// did not set explicitly.
func mergeBackgroundConfig(cmd *cobra.Command) bayer.BackgroundConfig {
	bcfg := bayer.DefaultBackgroundConfig()
	bcfg.BoxSize = cfg.Background.BoxSize
	bcfg.FilterSize = cfg.Background.FilterSize
	bcfg.Estimator = cfg.Background.Estimator
	bcfg.Interpolator = cfg.Background.Interpolator
	bcfg.Sigma = cfg.Background.Sigma
	bcfg.Iters = cfg.Background.Iters
	bcfg.ExcludePercentile = cfg.Background.ExcludePercentile

	f := cmd.Flags()
	if f.Changed("box-size") && len(bgOpts.BoxSize) == 2 {
		bcfg.BoxSize = [2]int{bgOpts.BoxSize[0], bgOpts.BoxSize[1]}
	}
	if f.Changed("filter-size") && len(bgOpts.FilterSize) == 2 {
		bcfg.FilterSize = [2]int{bgOpts.FilterSize[0], bgOpts.FilterSize[1]}
	}
	if f.Changed("estimator") {
		bcfg.Estimator = bgOpts.Estimator
	}
	if f.Changed("interpolator") {
		bcfg.Interpolator = bgOpts.Interpolator
	}
	if f.Changed("sigma") {
		bcfg.Sigma = bgOpts.Sigma
	}
	if f.Changed("iters") {
		bcfg.Iters = bgOpts.Iters
	}
	if f.Changed("exclude-percentile") {
		bcfg.ExcludePercentile = bgOpts.ExcludePercentile
	}
	if !f.Changed("bias") {
		bgOpts.Bias = cfg.Camera.Bias
	}
	if !f.Changed("output-dir") {
		bgOpts.OutputDir = cfg.Output.Dir
	}
	if !f.Changed("preview") {
		bgOpts.Preview = cfg.Output.Preview
	}
	if !f.Changed("verbose") {
		bgOpts.Verbose = cfg.Output.Verbose
	}
	if bgOpts.Verbose {
		bcfg.Log = os.Stderr
	}
	return bcfg
}

func runBackground(cmd *cobra.Command, args []string) error {
	bcfg := mergeBackgroundConfig(cmd)

	bar := progressbar.NewOptions(len(args),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription("Estimating backgrounds"),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)

	// Files are independent; fan them out across the CPUs.
	workers := runtime.NumCPU()
	if workers > len(args) {
		workers = len(args)
	}
	tasks := make(chan string)
	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range tasks {
				err := processFile(path, bcfg)
				mu.Lock()
				if err != nil && firstErr == nil {
					firstErr = fmt.Errorf("%s: %w", path, err)
				}
				mu.Unlock()
				bar.Add(1)
			}
		}()
	}
	for _, path := range args {
		tasks <- path
	}
	close(tasks)
	wg.Wait()
	bar.Finish()
	return firstErr
}

func processFile(path string, bcfg bayer.BackgroundConfig) error {
	arr, hdr, err := loadImage(path)
	if err != nil {
		return err
	}
	if bgOpts.Bias != 0 {
		subtractScalar(arr, float32(bgOpts.Bias))
	}

	frames := arr.Frames()
	if frames == 0 {
		frames = 1
	}
	for i := 0; i < frames; i++ {
		frame := arr.Frame(i)
		results, err := bayer.RGBBackgroundSeparate(frame, bcfg)
		if err != nil {
			return err
		}
		combined, err := bayer.CombineBackgrounds(results)
		if err != nil {
			return err
		}

		base := outputBase(path, arr.NDim() == 3, i)
		out := base + "-background.fits"
		if err := fits.WriteRGBBackground(out, combined.Data(), frame.Rows(), frame.Cols(), results, hdr, bgOpts.Overwrite); err != nil {
			return err
		}

		if bgOpts.Subtract {
			sub := frame.Clone()
			subData := sub.Data()
			for j, v := range combined.Data() {
				subData[j] -= v
			}
			if err := fits.WriteImage(base+"-subtracted.fits", sub.Data(), sub.Shape(), hdr, bgOpts.Overwrite); err != nil {
				return err
			}
		}
		if bgOpts.Preview {
			if err := writePreview(base+"-background.tiff", combined); err != nil {
				return err
			}
		}
	}
	return nil
}

// loadImage decodes a FITS file directly and hands anything else to the
// build-specific raw loader.
func loadImage(path string) (*bayer.Array, fits.Header, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".fits" || ext == ".fit" || ext == ".fts" {
		img, err := fits.Read(path)
		if err != nil {
			return nil, nil, err
		}
		arr, err := bayer.FromData(img.Data, img.Shape...)
		if err != nil {
			return nil, nil, err
		}
		return arr, img.Header, nil
	}
	arr, err := loadRawImage(path)
	if err != nil {
		return nil, nil, err
	}
	return arr, fits.Header{}, nil
}

func outputBase(path string, cube bool, frame int) string {
	name := filepath.Base(path)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	if cube {
		name = fmt.Sprintf("%s-f%02d", name, frame)
	}
	return filepath.Join(bgOpts.OutputDir, name)
}

func subtractScalar(arr *bayer.Array, v float32) {
	data := arr.Data()
	for i := range data {
		data[i] -= v
	}
}

// writePreview saves the surface as a 16-bit grayscale TIFF stretched over
// its own value range.
func writePreview(path string, surface *bayer.Array) error {
	data := surface.Data()
	lo, hi := float32(math.Inf(1)), float32(math.Inf(-1))
	for _, v := range data {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	scale := float32(0)
	if hi > lo {
		scale = 65535 / (hi - lo)
	}

	img := image.NewGray16(image.Rect(0, 0, surface.Cols(), surface.Rows()))
	for y := 0; y < surface.Rows(); y++ {
		for x := 0; x < surface.Cols(); x++ {
			v := uint16((surface.At(y, x) - lo) * scale)
			off := y*img.Stride + x*2
			img.Pix[off] = byte(v >> 8)
			img.Pix[off+1] = byte(v)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating preview: %w", err)
	}
	defer f.Close()
	if err := tiff.Encode(f, img, nil); err != nil {
		return fmt.Errorf("encoding preview: %w", err)
	}
	return nil
}
