package text

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/rivo/uniseg"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
	"golang.org/x/text/unicode/norm"
)

// Style is the fixed look of bubble captions.
type Style struct {
	Size   float64     // Font size in pixels
	Color  color.NRGBA // Glyph colour
	Anchor image.Point // Baseline origin relative to the bubble region
	Wrap   bool        // Break lines at spaces to fit the region width
}

// DefaultStyle returns white text anchored 50px right and 70px down from
// the region corner.
func DefaultStyle() Style {
	return Style{
		Size:   16,
		Color:  color.NRGBA{R: 255, G: 255, B: 255, A: 255},
		Anchor: image.Pt(50, 70),
	}
}

// ParseColor parses a "#rrggbb" colour.
func ParseColor(hex string) (color.NRGBA, error) {
	c, err := colorful.Hex(hex)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid colour %q: %w", hex, err)
	}
	r, g, b := c.Clamped().RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 255}, nil
}

// Clusters splits text into user-perceived characters after NFC
// normalization. Each cluster is revealed as one animation step.
func Clusters(s string) []string {
	s = norm.NFC.String(s)
	var out []string
	g := uniseg.NewGraphemes(s)
	for g.Next() {
		out = append(out, g.Str())
	}
	return out
}

// Renderer draws caption prefixes with a single font face.
type Renderer struct {
	face  font.Face
	style Style
}

// NewRenderer builds a renderer for the embedded Go Regular face.
func NewRenderer(style Style) (*Renderer, error) {
	if style.Size <= 0 {
		style.Size = DefaultStyle().Size
	}
	ttf, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	face, err := opentype.NewFace(ttf, &opentype.FaceOptions{
		Size:    style.Size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("create face: %w", err)
	}
	return &Renderer{face: face, style: style}, nil
}

// Layout breaks text for a region of the given width. Wrapping is decided
// on the full text once, so a word never jumps to the next line while it is
// being revealed.
func (r *Renderer) Layout(s string, regionWidth int) *Layout {
	l := &Layout{clusters: Clusters(s)}

	maxWidth := 0
	if r.style.Wrap {
		maxWidth = regionWidth - 2*r.style.Anchor.X
		if maxWidth <= 0 {
			maxWidth = regionWidth - r.style.Anchor.X
		}
	}

	lineStart, lastBreak := 0, -1
	wrapped := false
	for i, c := range l.clusters {
		switch c {
		case "\n", "\r\n":
			l.lines = append(l.lines, [2]int{lineStart, i})
			lineStart, lastBreak, wrapped = i+1, -1, false
			continue
		case " ":
			// A wrapped line never starts with a space.
			if wrapped && i == lineStart {
				lineStart++
				continue
			}
			lastBreak = i
		}
		wrapped = false
		if maxWidth <= 0 || lastBreak <= lineStart {
			continue
		}
		if font.MeasureString(r.face, strings.Join(l.clusters[lineStart:i+1], "")).Ceil() > maxWidth {
			l.lines = append(l.lines, [2]int{lineStart, lastBreak})
			lineStart, lastBreak, wrapped = lastBreak+1, -1, true
			for lineStart <= i && l.clusters[lineStart] == " " {
				lineStart++
			}
		}
	}
	l.lines = append(l.lines, [2]int{lineStart, len(l.clusters)})
	return l
}

// Draw renders lines with the first baseline at the style anchor, relative
// to dst's bounds.
func (r *Renderer) Draw(dst draw.Image, lines []string) {
	r.DrawAt(dst, dst.Bounds().Min, lines)
}

// DrawAt is Draw with the anchor measured from region instead of the
// destination corner. Glyphs outside dst are clipped.
func (r *Renderer) DrawAt(dst draw.Image, region image.Point, lines []string) {
	origin := region.Add(r.style.Anchor)
	lineHeight := r.face.Metrics().Height
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(r.style.Color),
		Face: r.face,
	}
	for i, line := range lines {
		if line == "" {
			continue
		}
		d.Dot = fixed.P(origin.X, origin.Y).Add(fixed.Point26_6{Y: lineHeight * fixed.Int26_6(i)})
		d.DrawString(line)
	}
}

// Layout is the line arrangement of one caption.
type Layout struct {
	clusters []string
	lines    [][2]int
}

// Len is the number of reveal steps.
func (l *Layout) Len() int {
	return len(l.clusters)
}

// Prefix returns the first n characters.
func (l *Layout) Prefix(n int) string {
	n = min(max(n, 0), len(l.clusters))
	return strings.Join(l.clusters[:n], "")
}

// Lines returns the visible part of each line once n characters are shown.
func (l *Layout) Lines(n int) []string {
	var out []string
	for _, ln := range l.lines {
		if ln[0] >= n && len(out) > 0 {
			break
		}
		end := min(ln[1], n)
		if end < ln[0] {
			end = ln[0]
		}
		out = append(out, strings.Join(l.clusters[ln[0]:end], ""))
	}
	return out
}
