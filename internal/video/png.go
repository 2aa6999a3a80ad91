package video

import (
	"fmt"
	"image/png"
	"os"
	"path/filepath"

	"github.com/ivlev/bubble2video/internal/frame"
)

// PNGRecorder writes every frame as a numbered PNG file, for inspecting a
// render frame by frame or feeding another encoder.
type PNGRecorder struct {
	Dir    string
	frames int
}

func NewPNGRecorder(dir string) (*PNGRecorder, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &PNGRecorder{Dir: dir}, nil
}

// Record implements sink.Recorder.
func (r *PNGRecorder) Record(f *frame.Frame) error {
	path := filepath.Join(r.Dir, fmt.Sprintf("frame_%05d.png", r.frames))
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(out, f); err != nil {
		out.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := out.Close(); err != nil {
		return err
	}
	r.frames++
	return nil
}

func (r *PNGRecorder) Frames() int {
	return r.frames
}

func (r *PNGRecorder) Close() error {
	return nil
}
