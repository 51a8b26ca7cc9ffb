// Package bayer provides utilities for working with raw Bayer-mosaic
// astronomical images: pixel color classification, per-channel exclusion
// masks, masked channel splitting, superpixel-aligned stamp slices and
// per-channel background estimation.
//
// All operations assume an RGGB color filter array with the superpixel
// origin at array position (0, 0):
//
//	G2 B
//	R  G1
//
// where the row axis (y) grows downward and the column axis (x) grows to
// the right, matching the memory order of a raw frame read row by row.
package bayer

import "fmt"

// ShapeError reports an array shape outside the supported 2D and 3D forms.
type ShapeError struct {
	Shape []int
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("only 2D and 3D data allowed, got %d dimensions %v", len(e.Shape), e.Shape)
}

// Array is a dense row-major float32 array holding either a single frame
// (rows x cols) or a cube of frames (frames x rows x cols). A 2D array
// reports Frames() == 0; cube frames are addressed through Frame.
type Array struct {
	data   []float32
	frames int // 0 for a 2D array
	rows   int
	cols   int
}

// NewArray allocates a zeroed array. The shape is (rows, cols) for a single
// frame or (frames, rows, cols) for a cube; anything else is a ShapeError.
func NewArray(shape ...int) (*Array, error) {
	switch len(shape) {
	case 2:
		return &Array{
			data: make([]float32, shape[0]*shape[1]),
			rows: shape[0],
			cols: shape[1],
		}, nil
	case 3:
		return &Array{
			data:   make([]float32, shape[0]*shape[1]*shape[2]),
			frames: shape[0],
			rows:   shape[1],
			cols:   shape[2],
		}, nil
	default:
		return nil, &ShapeError{Shape: append([]int(nil), shape...)}
	}
}

// NewFrame allocates a zeroed 2D array.
func NewFrame(rows, cols int) *Array {
	a, _ := NewArray(rows, cols)
	return a
}

// FromData wraps an existing backing slice without copying. The slice length
// must match the product of the shape.
func FromData(data []float32, shape ...int) (*Array, error) {
	a := &Array{data: data}
	n := 1
	switch len(shape) {
	case 2:
		a.rows, a.cols = shape[0], shape[1]
	case 3:
		a.frames, a.rows, a.cols = shape[0], shape[1], shape[2]
		n = shape[0]
	default:
		return nil, &ShapeError{Shape: append([]int(nil), shape...)}
	}
	n *= a.rows * a.cols
	if len(data) != n {
		return nil, fmt.Errorf("data length %d does not match shape %v", len(data), shape)
	}
	return a, nil
}

// NDim returns 2 for a single frame and 3 for a cube.
func (a *Array) NDim() int {
	if a.frames > 0 {
		return 3
	}
	return 2
}

// Shape returns the array dimensions, outermost first.
func (a *Array) Shape() []int {
	if a.frames > 0 {
		return []int{a.frames, a.rows, a.cols}
	}
	return []int{a.rows, a.cols}
}

func (a *Array) Rows() int   { return a.rows }
func (a *Array) Cols() int   { return a.cols }
func (a *Array) Frames() int { return a.frames }

// Data returns the backing slice in row-major order.
func (a *Array) Data() []float32 { return a.data }

// At returns the sample at row y, column x of a 2D array or of the first
// frame of a cube.
func (a *Array) At(y, x int) float32 { return a.data[y*a.cols+x] }

// Set stores a sample at row y, column x.
func (a *Array) Set(y, x int, v float32) { a.data[y*a.cols+x] = v }

// Frame returns a 2D view sharing the backing data of frame i. For a 2D
// array only frame 0 is valid and the view is the array itself.
func (a *Array) Frame(i int) *Array {
	if a.frames == 0 {
		if i != 0 {
			panic(fmt.Sprintf("bayer: frame %d of a 2D array", i))
		}
		return a
	}
	n := a.rows * a.cols
	return &Array{data: a.data[i*n : (i+1)*n], rows: a.rows, cols: a.cols}
}

// Clone returns a deep copy.
func (a *Array) Clone() *Array {
	out := &Array{
		data:   make([]float32, len(a.data)),
		frames: a.frames,
		rows:   a.rows,
		cols:   a.cols,
	}
	copy(out.data, a.data)
	return out
}

// ExclusionMask marks, per pixel, whether the pixel is left out of a
// computation. A true bit means the pixel is excluded, following the
// masked-array convention where the mask hides data rather than selecting
// it. Masks share the shape of the array they apply to.
type ExclusionMask struct {
	bits   []bool
	frames int
	rows   int
	cols   int
}

// newExclusionMask allocates a mask with every pixel excluded.
func newExclusionMask(frames, rows, cols int) *ExclusionMask {
	n := rows * cols
	if frames > 0 {
		n *= frames
	}
	bits := make([]bool, n)
	for i := range bits {
		bits[i] = true
	}
	return &ExclusionMask{bits: bits, frames: frames, rows: rows, cols: cols}
}

// Excluded reports whether the pixel at row y, column x of a 2D mask (or
// the first frame of a cube mask) is excluded.
func (m *ExclusionMask) Excluded(y, x int) bool { return m.bits[y*m.cols+x] }

// Bits returns the backing bit slice in row-major order.
func (m *ExclusionMask) Bits() []bool { return m.bits }

// Shape returns the mask dimensions, outermost first.
func (m *ExclusionMask) Shape() []int {
	if m.frames > 0 {
		return []int{m.frames, m.rows, m.cols}
	}
	return []int{m.rows, m.cols}
}

func (m *ExclusionMask) Rows() int { return m.rows }
func (m *ExclusionMask) Cols() int { return m.cols }

// Frame returns a 2D view of frame i sharing the backing bits.
func (m *ExclusionMask) Frame(i int) *ExclusionMask {
	if m.frames == 0 {
		if i != 0 {
			panic(fmt.Sprintf("bayer: frame %d of a 2D mask", i))
		}
		return m
	}
	n := m.rows * m.cols
	return &ExclusionMask{bits: m.bits[i*n : (i+1)*n], rows: m.rows, cols: m.cols}
}

// CountIncluded returns the number of pixels not excluded by the mask.
func (m *ExclusionMask) CountIncluded() int {
	n := 0
	for _, b := range m.bits {
		if !b {
			n++
		}
	}
	return n
}

// MaskedArray pairs image data with an exclusion mask over the same shape.
// The data is shared with the source array, never copied.
type MaskedArray struct {
	Data *Array
	Mask *ExclusionMask
}

// Sum accumulates the included samples in float64.
func (m MaskedArray) Sum() float64 {
	var sum float64
	data := m.Data.data
	for i, excluded := range m.Mask.bits {
		if !excluded {
			sum += float64(data[i])
		}
	}
	return sum
}

// Filled returns a copy of the data with every excluded pixel replaced by
// fill.
func (m MaskedArray) Filled(fill float32) *Array {
	out := m.Data.Clone()
	for i, excluded := range m.Mask.bits {
		if excluded {
			out.data[i] = fill
		}
	}
	return out
}
