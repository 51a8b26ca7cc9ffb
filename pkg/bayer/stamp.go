package bayer

import "fmt"

// StampSize is the requested stamp extent in pixels. Width spans the column
// (x) axis and Height the row (y) axis.
type StampSize struct {
	Width  int
	Height int
}

// StampBox is a half-open pixel region [YMin, YMax) x [XMin, XMax). Bounds
// may extend past the array edges when the target sits near a border;
// Extract reports that case.
type StampBox struct {
	YMin int
	YMax int
	XMin int
	XMax int
}

func (b StampBox) Width() int  { return b.XMax - b.XMin }
func (b StampBox) Height() int { return b.YMax - b.YMin }

// Extract copies the boxed region out of a 2D array.
func (b StampBox) Extract(a *Array) (*Array, error) {
	if a.NDim() != 2 {
		return nil, &ShapeError{Shape: a.Shape()}
	}
	if b.YMin < 0 || b.XMin < 0 || b.YMax > a.rows || b.XMax > a.cols {
		return nil, fmt.Errorf("stamp box y[%d:%d] x[%d:%d] outside %dx%d array",
			b.YMin, b.YMax, b.XMin, b.XMax, a.rows, a.cols)
	}
	out := NewFrame(b.Height(), b.Width())
	for y := b.YMin; y < b.YMax; y++ {
		srcOff := y*a.cols + b.XMin
		copy(out.data[(y-b.YMin)*out.cols:], a.data[srcOff:srcOff+out.cols])
	}
	return out, nil
}

// InvalidStampSizeError reports a stamp side that cannot hold whole
// superpixels symmetrically around the center one.
type InvalidStampSizeError struct {
	Axis string
	Size int
}

func (e *InvalidStampSizeError) Error() string {
	return fmt.Sprintf("invalid stamp %s %d: after removing the center superpixel the remainder must split into whole superpixels per side (valid sizes 6, 10, 14, ...)",
		e.Axis, e.Size)
}

// StampSlice computes the pixel box of a stamp centered near (x, y) such
// that the box's top-left corner always lands on a G2 lattice position, the
// superpixel origin. Stamps cut this way start on the same Bayer phase
// regardless of the color of the target pixel, so they can be debayered or
// channel-split without realignment.
//
// Fractional coordinates are rounded half away from zero. Valid sizes leave
// an even number of superpixels around the center one, i.e. sides of
// 6, 10, 14, ...; other sizes return an InvalidStampSizeError unless
// ignoreSuperpixel is set, which skips only the size validation. The box is
// then grown by half the size on each side and shifted by one pixel in x
// and/or y according to the color of the rounded center:
//
//	G1 -> no shift, R -> +1 in x, B -> +1 in y, G2 -> +1 in both
//
// Odd sizes additionally extend both maxima by one pixel.
func StampSlice(x, y float64, size StampSize, ignoreSuperpixel bool) (StampBox, error) {
	if !ignoreSuperpixel {
		if (size.Width-2)%4 != 0 {
			return StampBox{}, &InvalidStampSizeError{Axis: "width", Size: size.Width}
		}
		if (size.Height-2)%4 != 0 {
			return StampBox{}, &InvalidStampSizeError{Axis: "height", Size: size.Height}
		}
	}

	xi := roundHalfUp(x)
	yi := roundHalfUp(y)

	box := StampBox{
		XMin: xi - size.Width/2,
		XMax: xi + size.Width/2,
		YMin: yi - size.Height/2,
		YMax: yi + size.Height/2,
	}

	switch PixelColor(float64(xi), float64(yi)) {
	case R:
		box.XMin++
		box.XMax++
	case B:
		box.YMin++
		box.YMax++
	case G2:
		box.XMin++
		box.XMax++
		box.YMin++
		box.YMax++
	}

	// An odd size cannot center on a pixel; favor the high side on both
	// axes so the box still covers the requested extent.
	if size.Width%2 == 1 {
		box.XMax++
		box.YMax++
	}

	return box, nil
}
