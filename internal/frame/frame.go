package frame

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
)

// Frame is an interleaved 8-bit pixel buffer with 3 (RGB) or 4 (RGBA,
// straight alpha) channels. The pixel at (x, y) starts at
// Pix[y*Stride + x*Channels].
type Frame struct {
	Pix      []uint8
	Width    int
	Height   int
	Channels int
	Stride   int
}

// New allocates a zeroed frame with a packed stride.
func New(width, height, channels int) *Frame {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	stride := width * channels
	return &Frame{
		Pix:      make([]uint8, stride*height),
		Width:    width,
		Height:   height,
		Channels: channels,
		Stride:   stride,
	}
}

// Empty reports whether the frame has no addressable pixels.
func (f *Frame) Empty() bool {
	return f == nil || f.Width <= 0 || f.Height <= 0 || len(f.Pix) == 0
}

// HasAlpha reports whether the fourth channel is present.
func (f *Frame) HasAlpha() bool {
	return f.Channels >= 4
}

// Offset returns the index of the first byte of pixel (x, y).
func (f *Frame) Offset(x, y int) int {
	return y*f.Stride + x*f.Channels
}

// Alpha returns the alpha byte of (x, y). Frames without an alpha channel
// are fully opaque.
func (f *Frame) Alpha(x, y int) uint8 {
	if f.Channels < 4 {
		return 0xff
	}
	return f.Pix[f.Offset(x, y)+3]
}

// SameLayout reports whether two frames can be used interchangeably as
// destination buffers.
func (f *Frame) SameLayout(o *Frame) bool {
	return f.Width == o.Width && f.Height == o.Height && f.Channels == o.Channels
}

// Clone returns an independent deep copy.
func (f *Frame) Clone() *Frame {
	out := &Frame{
		Pix:      make([]uint8, len(f.Pix)),
		Width:    f.Width,
		Height:   f.Height,
		Channels: f.Channels,
		Stride:   f.Stride,
	}
	copy(out.Pix, f.Pix)
	return out
}

// CopyFrom overwrites f with the contents of src. Both frames must share
// the same layout.
func (f *Frame) CopyFrom(src *Frame) {
	if !f.SameLayout(src) {
		panic(fmt.Sprintf("frame: copy %dx%dx%d into %dx%dx%d", src.Width, src.Height, src.Channels, f.Width, f.Height, f.Channels))
	}
	row := f.Width * f.Channels
	for y := 0; y < f.Height; y++ {
		copy(f.Pix[y*f.Stride:y*f.Stride+row], src.Pix[y*src.Stride:y*src.Stride+row])
	}
}

// Crop returns a copy of the pixels inside r, clipped to the frame.
func (f *Frame) Crop(r image.Rectangle) *Frame {
	r = r.Intersect(f.Bounds())
	out := New(r.Dx(), r.Dy(), f.Channels)
	f.CropInto(out, r.Min)
	return out
}

// CropInto copies the area starting at origin into dst, which defines the
// size of the copied window.
func (f *Frame) CropInto(dst *Frame, origin image.Point) {
	r := image.Rect(origin.X, origin.Y, origin.X+dst.Width, origin.Y+dst.Height).Intersect(f.Bounds())
	if r.Empty() {
		return
	}
	row := r.Dx() * f.Channels
	for y := r.Min.Y; y < r.Max.Y; y++ {
		s := f.Offset(r.Min.X, y)
		d := dst.Offset(r.Min.X-origin.X, y-origin.Y)
		copy(dst.Pix[d:d+row], f.Pix[s:s+row])
	}
}

// Paste writes src into f with its top-left corner at at. Pixels falling
// outside f are dropped. Channel counts must match.
func (f *Frame) Paste(src *Frame, at image.Point) {
	r := image.Rect(at.X, at.Y, at.X+src.Width, at.Y+src.Height).Intersect(f.Bounds())
	if r.Empty() {
		return
	}
	row := r.Dx() * f.Channels
	for y := r.Min.Y; y < r.Max.Y; y++ {
		d := f.Offset(r.Min.X, y)
		s := src.Offset(r.Min.X-at.X, y-at.Y)
		copy(f.Pix[d:d+row], src.Pix[s:s+row])
	}
}

// ColorModel implements image.Image.
func (f *Frame) ColorModel() color.Model {
	return color.NRGBAModel
}

// Bounds implements image.Image.
func (f *Frame) Bounds() image.Rectangle {
	return image.Rect(0, 0, f.Width, f.Height)
}

// At implements image.Image.
func (f *Frame) At(x, y int) color.Color {
	return f.NRGBAAt(x, y)
}

func (f *Frame) NRGBAAt(x, y int) color.NRGBA {
	if !(image.Point{x, y}.In(f.Bounds())) {
		return color.NRGBA{}
	}
	i := f.Offset(x, y)
	c := color.NRGBA{R: f.Pix[i], G: f.Pix[i+1], B: f.Pix[i+2], A: 0xff}
	if f.Channels >= 4 {
		c.A = f.Pix[i+3]
	}
	return c
}

// Set implements draw.Image.
func (f *Frame) Set(x, y int, c color.Color) {
	if !(image.Point{x, y}.In(f.Bounds())) {
		return
	}
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	i := f.Offset(x, y)
	f.Pix[i], f.Pix[i+1], f.Pix[i+2] = n.R, n.G, n.B
	if f.Channels >= 4 {
		f.Pix[i+3] = n.A
	}
}

// Opaque reports whether every pixel is fully opaque.
func (f *Frame) Opaque() bool {
	if f.Channels < 4 {
		return true
	}
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			if f.Pix[f.Offset(x, y)+3] != 0xff {
				return false
			}
		}
	}
	return true
}

// FromImage converts a decoded image. Opaque images become 3-channel
// frames, everything else keeps a straight alpha channel.
func FromImage(img image.Image) *Frame {
	b := img.Bounds()
	channels := 4
	if o, ok := img.(interface{ Opaque() bool }); ok && o.Opaque() {
		channels = 3
	}

	// Pix[0] of an *image.NRGBA is always its Rect.Min pixel.
	nrgba, ok := img.(*image.NRGBA)
	if !ok {
		nrgba = image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(nrgba, nrgba.Bounds(), img, b.Min, draw.Src)
	}

	f := New(b.Dx(), b.Dy(), channels)
	for y := 0; y < f.Height; y++ {
		src := nrgba.Pix[y*nrgba.Stride : y*nrgba.Stride+f.Width*4]
		dst := f.Pix[y*f.Stride : y*f.Stride+f.Width*channels]
		if channels == 4 {
			copy(dst, src)
			continue
		}
		for x := 0; x < f.Width; x++ {
			dst[x*3], dst[x*3+1], dst[x*3+2] = src[x*4], src[x*4+1], src[x*4+2]
		}
	}
	return f
}

// ToRGBA converts the frame into a packed, premultiplied *image.RGBA as
// expected by raw video pipes.
func (f *Frame) ToRGBA() *image.RGBA {
	out := image.NewRGBA(f.Bounds())
	f.WriteRGBA(out)
	return out
}

// WriteRGBA fills dst (same size as f) without allocating.
func (f *Frame) WriteRGBA(dst *image.RGBA) {
	for y := 0; y < f.Height; y++ {
		s := f.Pix[y*f.Stride:]
		d := dst.Pix[y*dst.Stride:]
		for x := 0; x < f.Width; x++ {
			si, di := x*f.Channels, x*4
			if f.Channels < 4 {
				d[di], d[di+1], d[di+2], d[di+3] = s[si], s[si+1], s[si+2], 0xff
				continue
			}
			a := uint32(s[si+3])
			d[di] = uint8(uint32(s[si]) * a / 0xff)
			d[di+1] = uint8(uint32(s[si+1]) * a / 0xff)
			d[di+2] = uint8(uint32(s[si+2]) * a / 0xff)
			d[di+3] = uint8(a)
		}
	}
}
