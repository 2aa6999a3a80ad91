package overlay

import (
	"image"

	xdraw "golang.org/x/image/draw"

	"github.com/ivlev/bubble2video/internal/frame"
)

// Prepare mirrors the asset horizontally when requested and resamples it to
// the size of region. The asset itself is never modified, so one decoded
// bubble can serve any number of placements.
func Prepare(asset *frame.Frame, region image.Rectangle, mirror bool) *frame.Frame {
	src := asset
	if mirror {
		src = FlipHorizontal(asset)
	}
	return Resize(src, region.Dx(), region.Dy())
}

// FlipHorizontal returns a copy of f mirrored around its vertical axis.
func FlipHorizontal(f *frame.Frame) *frame.Frame {
	out := frame.New(f.Width, f.Height, f.Channels)
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			s := f.Offset(x, y)
			d := out.Offset(f.Width-1-x, y)
			copy(out.Pix[d:d+f.Channels], f.Pix[s:s+f.Channels])
		}
	}
	return out
}

// Resize resamples f to width x height with a bilinear filter.
func Resize(f *frame.Frame, width, height int) *frame.Frame {
	out := frame.New(width, height, f.Channels)
	if out.Empty() || f.Empty() {
		return out
	}
	if width == f.Width && height == f.Height {
		out.CopyFrom(f)
		return out
	}

	src := image.NewNRGBA(f.Bounds())
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			src.SetNRGBA(x, y, f.NRGBAAt(x, y))
		}
	}
	dst := image.NewNRGBA(image.Rect(0, 0, width, height))
	xdraw.BiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Src, nil)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			s := dst.PixOffset(x, y)
			d := out.Offset(x, y)
			copy(out.Pix[d:d+f.Channels], dst.Pix[s:s+f.Channels])
		}
	}
	return out
}
