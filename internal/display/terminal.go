package display

import (
	"fmt"

	"github.com/gdamore/tcell/v2"

	"github.com/ivlev/bubble2video/internal/frame"
)

// Terminal previews frames in the terminal with upper half blocks: every
// cell shows two vertically stacked pixels.
type Terminal struct {
	screen tcell.Screen
}

// NewTerminal takes over the terminal until Close.
func NewTerminal() (*Terminal, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	if err := screen.Init(); err != nil {
		return nil, err
	}
	return NewTerminalScreen(screen), nil
}

// NewTerminalScreen wraps an initialised screen.
func NewTerminalScreen(screen tcell.Screen) *Terminal {
	screen.Clear()
	return &Terminal{screen: screen}
}

// Present implements sink.Presenter.
func (t *Terminal) Present(f *frame.Frame) error {
	w, h := t.screen.Size()
	if w <= 0 || h <= 0 {
		return fmt.Errorf("terminal has no area (%dx%d)", w, h)
	}
	cols, pixelRows := Fit(f, w, h*2, 1)
	rows := pixelRows / 2
	if rows == 0 {
		return nil
	}
	px := Downsample(f, cols, rows*2)

	for cy := 0; cy < rows; cy++ {
		for cx := 0; cx < cols; cx++ {
			top := px[(2*cy)*cols+cx]
			bottom := px[(2*cy+1)*cols+cx]
			style := tcell.StyleDefault.
				Foreground(tcell.NewRGBColor(int32(top.R), int32(top.G), int32(top.B))).
				Background(tcell.NewRGBColor(int32(bottom.R), int32(bottom.G), int32(bottom.B)))
			t.screen.SetContent(cx, cy, '▀', nil, style)
		}
	}
	t.screen.Show()
	return nil
}

func (t *Terminal) Close() error {
	t.screen.Fini()
	return nil
}
