package fits

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strings"

	"bayerbg/pkg/background"
)

const (
	blockSize  = 2880
	recordSize = 80
	// bzero16 maps unsigned 16-bit physical values onto signed storage,
	// the conventional encoding for camera data.
	bzero16 = 32768
)

// reserved keywords are written by the encoder itself and skipped when they
// appear in a caller-supplied header.
var reservedKeys = map[string]bool{
	"SIMPLE": true, "XTENSION": true, "BITPIX": true,
	"NAXIS": true, "NAXIS1": true, "NAXIS2": true, "NAXIS3": true,
	"BZERO": true, "BSCALE": true, "PCOUNT": true, "GCOUNT": true,
	"EXTEND": true, "END": true,
}

// WriteImage writes a 16-bit FITS file holding one image in the primary
// HDU. The shape is (rows, cols) or (frames, rows, cols); values are
// rounded and clamped to [0, 65535]. Without overwrite an existing file is
// an error.
func WriteImage(path string, data []float32, shape []int, hdr Header, overwrite bool) error {
	f, err := createFile(path, overwrite)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if err := writeHDU(w, true, data, shape, hdr); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return w.Flush()
}

// WriteRGBBackground writes the combined background surface as the primary
// HDU followed by one background and one RMS IMAGE extension per channel,
// tagged with COLOR and IMGTYPE keywords. Channel order follows the
// results slice (red, green, blue for RGBBackgroundSeparate output).
func WriteRGBBackground(path string, combined []float32, rows, cols int, results []*background.Result, hdr Header, overwrite bool) error {
	f, err := createFile(path, overwrite)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	shape := []int{rows, cols}
	if err := writeHDU(w, true, combined, shape, hdr); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}

	colors := []string{"red", "green", "blue"}
	for i, res := range results {
		color := fmt.Sprintf("channel%d", i)
		if i < len(colors) {
			color = colors[i]
		}
		extShape := []int{res.Rows, res.Cols}

		bkgHdr := Header{"COLOR": color, "IMGTYPE": "background"}
		if err := writeHDU(w, false, res.Background, extShape, bkgHdr); err != nil {
			return fmt.Errorf("writing %s %s background: %w", path, color, err)
		}
		rmsHdr := Header{"COLOR": color, "IMGTYPE": "background_rms"}
		if err := writeHDU(w, false, res.RMS, extShape, rmsHdr); err != nil {
			return fmt.Errorf("writing %s %s background_rms: %w", path, color, err)
		}
	}
	return w.Flush()
}

func createFile(path string, overwrite bool) (*os.File, error) {
	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if !overwrite {
		flags = os.O_WRONLY | os.O_CREATE | os.O_EXCL
	}
	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return nil, fmt.Errorf("creating FITS file: %w", err)
	}
	return f, nil
}

func writeHDU(w io.Writer, primary bool, data []float32, shape []int, hdr Header) error {
	var frames, rows, cols int
	switch len(shape) {
	case 2:
		rows, cols = shape[0], shape[1]
	case 3:
		frames, rows, cols = shape[0], shape[1], shape[2]
	default:
		return fmt.Errorf("unsupported shape %v", shape)
	}
	numPixels := rows * cols
	if frames > 0 {
		numPixels *= frames
	}
	if len(data) != numPixels {
		return fmt.Errorf("data length %d does not match shape %v", len(data), shape)
	}

	var cards []string
	if primary {
		cards = append(cards, card("SIMPLE", "T"))
	} else {
		cards = append(cards, card("XTENSION", "'IMAGE   '"))
	}
	cards = append(cards, card("BITPIX", "16"))
	naxis := 2
	if frames > 0 {
		naxis = 3
	}
	cards = append(cards,
		card("NAXIS", fmt.Sprintf("%d", naxis)),
		card("NAXIS1", fmt.Sprintf("%d", cols)),
		card("NAXIS2", fmt.Sprintf("%d", rows)),
	)
	if frames > 0 {
		cards = append(cards, card("NAXIS3", fmt.Sprintf("%d", frames)))
	}
	if !primary {
		cards = append(cards, card("PCOUNT", "0"), card("GCOUNT", "1"))
	}
	cards = append(cards, card("BZERO", fmt.Sprintf("%d", bzero16)), card("BSCALE", "1"))

	// Caller keywords in sorted order so output is reproducible.
	keys := make([]string, 0, len(hdr))
	for k := range hdr {
		if !reservedKeys[strings.ToUpper(k)] {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		cards = append(cards, card(k, formatValue(hdr[k])))
	}
	cards = append(cards, fmt.Sprintf("%-*s", recordSize, "END"))

	var header strings.Builder
	for _, c := range cards {
		header.WriteString(c)
	}
	if err := writePadded(w, []byte(header.String()), ' '); err != nil {
		return err
	}

	raw := make([]byte, numPixels*2)
	for i, v := range data {
		phys := math.Round(float64(v))
		if phys < 0 {
			phys = 0
		} else if phys > 65535 {
			phys = 65535
		}
		binary.BigEndian.PutUint16(raw[i*2:], uint16(int16(int(phys)-bzero16)))
	}
	return writePadded(w, raw, 0)
}

// card renders one 80-character header record. The value field is
// right-justified for numbers and boolean flags; quoted strings come in
// pre-formatted and are left-justified.
func card(key, value string) string {
	var body string
	if strings.HasPrefix(value, "'") {
		body = fmt.Sprintf("%-8s= %s", key, value)
	} else {
		body = fmt.Sprintf("%-8s= %20s", key, value)
	}
	if len(body) > recordSize {
		body = body[:recordSize]
	}
	return fmt.Sprintf("%-*s", recordSize, body)
}

// formatValue quotes anything that does not look like a number or a
// boolean flag.
func formatValue(v string) string {
	if v == "T" || v == "F" {
		return v
	}
	numeric := v != ""
	for _, r := range v {
		if (r < '0' || r > '9') && r != '.' && r != '-' && r != '+' && r != 'e' && r != 'E' {
			numeric = false
			break
		}
	}
	if numeric {
		return v
	}
	return fmt.Sprintf("'%-8s'", v)
}

// writePadded writes data extended with pad bytes to the next 2880-byte
// block boundary.
func writePadded(w io.Writer, data []byte, pad byte) error {
	if _, err := w.Write(data); err != nil {
		return err
	}
	rem := len(data) % blockSize
	if rem == 0 {
		return nil
	}
	padding := make([]byte, blockSize-rem)
	if pad != 0 {
		for i := range padding {
			padding[i] = pad
		}
	}
	_, err := w.Write(padding)
	return err
}
