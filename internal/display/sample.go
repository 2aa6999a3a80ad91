package display

import (
	"encoding/binary"
	"image/color"

	"github.com/ivlev/bubble2video/internal/frame"
)

// Downsample picks cols x rows evenly spaced pixels (nearest neighbour).
func Downsample(f *frame.Frame, cols, rows int) []color.NRGBA {
	if cols <= 0 || rows <= 0 || f.Empty() {
		return nil
	}
	out := make([]color.NRGBA, 0, cols*rows)
	for r := 0; r < rows; r++ {
		y := (2*r + 1) * f.Height / (2 * rows)
		for c := 0; c < cols; c++ {
			x := (2*c + 1) * f.Width / (2 * cols)
			out = append(out, f.NRGBAAt(x, y))
		}
	}
	return out
}

// Fit returns the largest cols x rows grid with the frame's aspect ratio
// inside maxCols x maxRows cells, where a cell is cellAspect pixels tall per
// pixel of width.
func Fit(f *frame.Frame, maxCols, maxRows int, cellAspect float64) (int, int) {
	if f.Empty() || maxCols <= 0 || maxRows <= 0 {
		return 0, 0
	}
	cols := maxCols
	rows := int(float64(cols) * float64(f.Height) / float64(f.Width) / cellAspect)
	if rows > maxRows {
		rows = maxRows
		cols = int(float64(rows) * cellAspect * float64(f.Width) / float64(f.Height))
	}
	return max(cols, 1), max(rows, 1)
}

// MarshalPixels encodes pixels in the LED wire format: little-endian uint16
// pixel count followed by RGB triplets.
func MarshalPixels(px []color.NRGBA) []byte {
	data := make([]byte, 2, len(px)*3+2)
	binary.LittleEndian.PutUint16(data, uint16(len(px)))
	for _, p := range px {
		data = append(data, p.R, p.G, p.B)
	}
	return data
}
