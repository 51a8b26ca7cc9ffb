//go:build purego || js

package main

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	_ "golang.org/x/image/tiff"

	"bayerbg/pkg/bayer"
)

// loadRawImage decodes a non-FITS image with the standard image codecs.
// Raw Bayer data is expected in the red channel of grayscale or color
// files; the gray value is used directly.
func loadRawImage(path string) (*bayer.Array, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	arr := bayer.NewFrame(h, w)
	data := arr.Data()

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			// Grayscale sources report r == g == b; for anything already
			// demosaiced fall back to luminance.
			gray := uint16((19595*r + 38470*g + 7471*b + 1<<15) >> 16)
			data[y*w+x] = float32(gray)
		}
	}
	return arr, nil
}
