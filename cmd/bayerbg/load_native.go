//go:build !purego && !js

package main

import (
	"fmt"

	"gocv.io/x/gocv"

	"bayerbg/pkg/bayer"
)

// loadRawImage decodes a non-FITS image through OpenCV, which handles the
// 16-bit PNG and TIFF files raw converters produce.
func loadRawImage(path string) (*bayer.Array, error) {
	src := gocv.IMRead(path, gocv.IMReadGrayScale|gocv.IMReadAnyDepth)
	if src.Empty() {
		return nil, fmt.Errorf("could not load image: %s", path)
	}
	defer src.Close()

	floatMat := gocv.NewMat()
	defer floatMat.Close()
	src.ConvertTo(&floatMat, gocv.MatTypeCV32F)

	rows, cols := floatMat.Rows(), floatMat.Cols()
	arr := bayer.NewFrame(rows, cols)
	data, err := floatMat.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("reading image data: %w", err)
	}
	copy(arr.Data(), data[:rows*cols])
	return arr, nil
}
