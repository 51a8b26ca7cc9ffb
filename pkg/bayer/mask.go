package bayer

// latticeOffset is the (row, col) offset of each color within the 2x2
// superpixel, matching PixelColor.
var latticeOffset = map[Color][2]int{
	G2: {0, 0},
	B:  {0, 1},
	R:  {1, 0},
	G1: {1, 1},
}

// ChannelMasks builds one exclusion mask per color channel for an array of
// the given shape. Each mask excludes every pixel except the ones on its
// own color lattice, so applying a mask to a raw frame leaves only that
// channel's samples visible.
//
// With separateGreen the result is [R, G1, G2, B]; otherwise the two green
// lattices share a single mask and the result is [R, G, B]. The shape is
// (rows, cols) or (frames, rows, cols); anything else is a ShapeError.
func ChannelMasks(separateGreen bool, shape ...int) ([]*ExclusionMask, error) {
	var frames, rows, cols int
	switch len(shape) {
	case 2:
		rows, cols = shape[0], shape[1]
	case 3:
		frames, rows, cols = shape[0], shape[1], shape[2]
	default:
		return nil, &ShapeError{Shape: append([]int(nil), shape...)}
	}

	r := newExclusionMask(frames, rows, cols)
	includeLattice(r, R)
	b := newExclusionMask(frames, rows, cols)
	includeLattice(b, B)

	if separateGreen {
		g1 := newExclusionMask(frames, rows, cols)
		includeLattice(g1, G1)
		g2 := newExclusionMask(frames, rows, cols)
		includeLattice(g2, G2)
		return []*ExclusionMask{r, g1, g2, b}, nil
	}

	g := newExclusionMask(frames, rows, cols)
	includeLattice(g, G1)
	includeLattice(g, G2)
	return []*ExclusionMask{r, g, b}, nil
}

// includeLattice clears the exclusion bit on every pixel of the color's
// lattice, in each frame.
func includeLattice(m *ExclusionMask, c Color) {
	off := latticeOffset[c]
	frames := m.frames
	if frames == 0 {
		frames = 1
	}
	n := m.rows * m.cols
	for f := 0; f < frames; f++ {
		base := f * n
		for y := off[0]; y < m.rows; y += 2 {
			rowOff := base + y*m.cols
			for x := off[1]; x < m.cols; x += 2 {
				m.bits[rowOff+x] = false
			}
		}
	}
}

// SplitChannels pairs the data with a channel mask per color, sharing the
// input's backing storage. The data itself is never modified. Channel order
// matches ChannelMasks.
func SplitChannels(data *Array, separateGreen bool) ([]MaskedArray, error) {
	masks, err := ChannelMasks(separateGreen, data.Shape()...)
	if err != nil {
		return nil, err
	}
	channels := make([]MaskedArray, len(masks))
	for i, m := range masks {
		channels[i] = MaskedArray{Data: data, Mask: m}
	}
	return channels, nil
}
