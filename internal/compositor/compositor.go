package compositor

import (
	"fmt"
	"image"

	"github.com/ivlev/bubble2video/internal/frame"
)

// Composite blends foreground onto background with its top-left corner at
// offset and returns a new frame laid out like background. The foreground's
// alpha channel drives the per-pixel opacity; out-of-range offsets are
// clipped rather than rejected.
func Composite(background, foreground *frame.Frame, offset image.Point) *frame.Frame {
	return CompositeOpacity(background, foreground, offset, 1)
}

// CompositeOpacity is Composite with every per-pixel opacity multiplied by
// a global scale in [0, 1].
func CompositeOpacity(background, foreground *frame.Frame, offset image.Point, scale float64) *frame.Frame {
	out := frame.New(background.Width, background.Height, background.Channels)
	CompositeInto(out, background, foreground, offset, scale)
	return out
}

// CompositeInto writes the blend into dst, which must share background's
// layout. dst may alias background.
func CompositeInto(dst, background, foreground *frame.Frame, offset image.Point, scale float64) {
	if !dst.SameLayout(background) {
		panic(fmt.Sprintf("compositor: destination %dx%dx%d does not match background %dx%dx%d",
			dst.Width, dst.Height, dst.Channels, background.Width, background.Height, background.Channels))
	}
	if dst != background {
		dst.CopyFrom(background)
	}
	if foreground.Empty() || scale <= 0 {
		return
	}
	if scale > 1 {
		scale = 1
	}

	// The alpha channel of the background is blended only when the
	// foreground carries one too.
	channels := 3
	if background.HasAlpha() && foreground.HasAlpha() {
		channels = 4
	}

	for y := max(offset.Y, 0); y < background.Height; y++ {
		fy := y - offset.Y
		if fy >= foreground.Height {
			break
		}
		for x := max(offset.X, 0); x < background.Width; x++ {
			fx := x - offset.X
			if fx >= foreground.Width {
				break
			}

			opacity := float64(foreground.Alpha(fx, fy)) / 255.0 * scale
			if opacity <= 0 {
				continue
			}

			fi := foreground.Offset(fx, fy)
			bi := background.Offset(x, y)
			di := dst.Offset(x, y)
			for c := 0; c < channels; c++ {
				dst.Pix[di+c] = uint8(float64(background.Pix[bi+c])*(1-opacity) + float64(foreground.Pix[fi+c])*opacity)
			}
		}
	}
}
