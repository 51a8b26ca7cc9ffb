// Package fits reads and writes simple FITS image files: a primary image
// HDU with optional IMAGE extensions, which is all the raw frames and
// background products handled here need.
package fits

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

// Header holds FITS keywords and their parsed values as strings. Keys are
// stored upper-case.
type Header map[string]string

// String returns the value of a keyword, or "" when absent.
func (h Header) String(key string) string {
	return h[strings.ToUpper(key)]
}

// Int returns a keyword parsed as an integer.
func (h Header) Int(key string) (int, bool) {
	v, ok := h[strings.ToUpper(key)]
	if !ok {
		return 0, false
	}
	i, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, false
	}
	return i, true
}

// Float returns a keyword parsed as a float.
func (h Header) Float(key string) (float64, bool) {
	v, ok := h[strings.ToUpper(key)]
	if !ok {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// Set stores a keyword value.
func (h Header) Set(key, value string) {
	h[strings.ToUpper(key)] = value
}

// Image is a decoded primary-HDU image. Data holds physical values (raw
// values scaled by BSCALE and shifted by BZERO) as a 2D frame or, when
// NAXIS3 is present, a 3D cube.
type Image struct {
	Data   []float32
	Shape  []int // (rows, cols) or (frames, rows, cols)
	Header Header
}

// Read decodes the primary HDU of a FITS file.
func Read(path string) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening FITS file: %w", err)
	}
	defer f.Close()
	return readFrom(f)
}

// ReadBytes decodes the primary HDU of an in-memory FITS file.
func ReadBytes(data []byte) (*Image, error) {
	return readFrom(bytes.NewReader(data))
}

func readFrom(r io.Reader) (*Image, error) {
	var bitpix, naxis, cols, rows, frames int
	bzero := 0.0
	bscale := 1.0
	headerDone := false
	header := Header{}

	recordBuf := make([]byte, 80)

	for !headerDone {
		for i := 0; i < 36; i++ {
			if _, err := io.ReadFull(r, recordBuf); err != nil {
				return nil, fmt.Errorf("reading FITS header record: %w", err)
			}
			record := string(recordBuf)
			keyword := strings.TrimSpace(record[:8])

			if keyword == "END" {
				headerDone = true
				remaining := 35 - i
				if remaining > 0 {
					skipBuf := make([]byte, remaining*80)
					io.ReadFull(r, skipBuf)
				}
				break
			}

			if len(record) > 10 && record[8] == '=' && record[9] == ' ' {
				rawValue := strings.TrimSpace(strings.SplitN(record[10:], "/", 2)[0])
				parsedValue := parseValue(rawValue)

				if keyword != "" && parsedValue != "" {
					header[strings.ToUpper(keyword)] = parsedValue
				}

				switch keyword {
				case "BITPIX":
					bitpix, _ = strconv.Atoi(strings.TrimSpace(rawValue))
				case "NAXIS":
					naxis, _ = strconv.Atoi(strings.TrimSpace(rawValue))
				case "NAXIS1":
					cols, _ = strconv.Atoi(strings.TrimSpace(rawValue))
				case "NAXIS2":
					rows, _ = strconv.Atoi(strings.TrimSpace(rawValue))
				case "NAXIS3":
					frames, _ = strconv.Atoi(strings.TrimSpace(rawValue))
				case "BZERO":
					bzero, _ = strconv.ParseFloat(strings.TrimSpace(rawValue), 64)
				case "BSCALE":
					bscale, _ = strconv.ParseFloat(strings.TrimSpace(rawValue), 64)
				}
			}
		}
	}

	if naxis < 2 || naxis > 3 || cols == 0 || rows == 0 {
		return nil, fmt.Errorf("invalid FITS: NAXIS=%d, NAXIS1=%d, NAXIS2=%d", naxis, cols, rows)
	}
	shape := []int{rows, cols}
	numPixels := rows * cols
	if naxis == 3 {
		if frames < 1 {
			return nil, fmt.Errorf("invalid FITS: NAXIS=3 with NAXIS3=%d", frames)
		}
		shape = []int{frames, rows, cols}
		numPixels *= frames
	}

	pixels := make([]float32, numPixels)

	switch bitpix {
	case 8:
		rawBytes := make([]byte, numPixels)
		if _, err := io.ReadFull(r, rawBytes); err != nil {
			return nil, fmt.Errorf("reading 8-bit pixel data: %w", err)
		}
		for i := 0; i < numPixels; i++ {
			pixels[i] = float32(float64(rawBytes[i])*bscale + bzero)
		}

	case 16:
		rawBytes := make([]byte, numPixels*2)
		if _, err := io.ReadFull(r, rawBytes); err != nil {
			return nil, fmt.Errorf("reading 16-bit pixel data: %w", err)
		}
		for i := 0; i < numPixels; i++ {
			signedVal := int16(binary.BigEndian.Uint16(rawBytes[i*2:]))
			pixels[i] = float32(float64(signedVal)*bscale + bzero)
		}

	case 32:
		rawBytes := make([]byte, numPixels*4)
		if _, err := io.ReadFull(r, rawBytes); err != nil {
			return nil, fmt.Errorf("reading 32-bit pixel data: %w", err)
		}
		for i := 0; i < numPixels; i++ {
			intVal := int32(binary.BigEndian.Uint32(rawBytes[i*4:]))
			pixels[i] = float32(float64(intVal)*bscale + bzero)
		}

	case -32:
		rawBytes := make([]byte, numPixels*4)
		if _, err := io.ReadFull(r, rawBytes); err != nil {
			return nil, fmt.Errorf("reading -32 float pixel data: %w", err)
		}
		for i := 0; i < numPixels; i++ {
			intBits := binary.BigEndian.Uint32(rawBytes[i*4:])
			floatVal := math.Float32frombits(intBits)
			pixels[i] = float32(float64(floatVal)*bscale + bzero)
		}

	default:
		return nil, fmt.Errorf("unsupported BITPIX: %d", bitpix)
	}

	return &Image{Data: pixels, Shape: shape, Header: header}, nil
}

func parseValue(rawValue string) string {
	if rawValue == "" {
		return ""
	}
	if rawValue == "T" {
		return "True"
	}
	if rawValue == "F" {
		return "False"
	}
	if strings.HasPrefix(rawValue, "'") {
		endQuote := strings.LastIndex(rawValue, "'")
		if endQuote > 0 {
			return strings.TrimRight(rawValue[1:endQuote], " ")
		}
		return strings.TrimLeft(strings.TrimRight(rawValue, " "), "'")
	}
	return rawValue
}
