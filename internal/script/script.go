package script

import (
	"fmt"
	"image"
	"path/filepath"
)

// Script describes a complete conversation: the background, the bubble
// asset and the ordered list of lines.
type Script struct {
	Version    string   `yaml:"version"`
	Background string   `yaml:"background"`       // Parent image (or PDF)
	Page       int      `yaml:"page,omitempty"`   // PDF page counted from 1; 0 means the first
	Bubble     string   `yaml:"bubble"`           // Transparent bubble asset
	Output     string   `yaml:"output,omitempty"` // Target video file
	FPS        int      `yaml:"fps"`
	Style      Style    `yaml:"style"`
	Bubbles    []Bubble `yaml:"bubbles"`
}

// Style groups the caption and timeline settings shared by all bubbles.
type Style struct {
	FontSize  float64 `yaml:"font_size"`
	Color     string  `yaml:"color"`
	Easing    string  `yaml:"easing,omitempty"`
	Wrap      bool    `yaml:"wrap,omitempty"`
	HoldFrame *bool   `yaml:"hold_frame,omitempty"` // Defaults to true
}

// Bubble is a single spoken line.
type Bubble struct {
	Text   string    `yaml:"text"`
	Rect   Rectangle `yaml:"rect"`   // Target rectangle in background pixels
	Mirror bool      `yaml:"mirror"` // Flip the asset for a speaker on the right
}

// Rectangle represents a bounding box
type Rectangle struct {
	X int `yaml:"x"`
	Y int `yaml:"y"`
	W int `yaml:"w"`
	H int `yaml:"h"`
}

// Image converts the box into an image.Rectangle.
func (r Rectangle) Image() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.W, r.Y+r.H)
}

// PageIndex converts the 1-based Page into a zero-based page index.
func (s *Script) PageIndex() int {
	if s.Page <= 1 {
		return 0
	}
	return s.Page - 1
}

// HoldEnabled reports whether the hold phase emits a frame.
func (s Style) HoldEnabled() bool {
	return s.HoldFrame == nil || *s.HoldFrame
}

// Validate rejects scripts the sequencer could never play.
func (s *Script) Validate() error {
	if s.Background == "" {
		return fmt.Errorf("script: background is not set")
	}
	if s.Bubble == "" {
		return fmt.Errorf("script: bubble asset is not set")
	}
	if s.Page < 0 {
		return fmt.Errorf("script: page %d, pages are counted from 1", s.Page)
	}
	if len(s.Bubbles) == 0 {
		return fmt.Errorf("script: no bubbles")
	}
	for i, b := range s.Bubbles {
		if b.Rect.W <= 0 || b.Rect.H <= 0 {
			return fmt.Errorf("script: bubble %d has empty rect %dx%d", i+1, b.Rect.W, b.Rect.H)
		}
	}
	return nil
}

// Speakers' regions in the reference conversation (x, y, width, height).
var (
	LeftSpeaker  = Rectangle{X: 200, Y: 40, W: 300, H: 150}
	RightSpeaker = Rectangle{X: 700, Y: 20, W: 300, H: 150}
)

// DefaultScript returns the reference four-line conversation.
func DefaultScript() *Script {
	return &Script{
		Version:    "1.0",
		Background: "conversation.png",
		Bubble:     "textbbl.png",
		Output:     "conversation.mp4",
		FPS:        10,
		Style: Style{
			FontSize: 16,
			Color:    "#ffffff",
			Easing:   "linear",
		},
		Bubbles: []Bubble{
			{Text: "We must act!", Rect: LeftSpeaker},
			{Text: "What's the plan, Bats?", Rect: RightSpeaker, Mirror: true},
			{Text: "No plan. Just justice.", Rect: LeftSpeaker, Mirror: true},
			{Text: "Hell yeah. Let's roll.", Rect: RightSpeaker, Mirror: true},
		},
	}
}

// Resolve makes relative asset paths relative to dir, the directory the
// script was read from.
func (s *Script) Resolve(dir string) {
	for _, p := range []*string{&s.Background, &s.Bubble} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(dir, *p)
		}
	}
}
