package sink

import (
	"errors"
	"sync"

	"golang.org/x/time/rate"

	"github.com/ivlev/bubble2video/internal/frame"
)

// Recorder appends frames to a persistent, order-preserving output.
// Implementations that keep a frame after Record returns must copy it: the
// caller reuses the buffer for the next step.
type Recorder interface {
	Record(f *frame.Frame) error
}

// Presenter shows a frame to a live observer on a best-effort basis.
type Presenter interface {
	Present(f *frame.Frame) error
}

// Collector keeps a copy of every recorded frame in memory.
type Collector struct {
	mu     sync.Mutex
	frames []*frame.Frame
}

func (c *Collector) Record(f *frame.Frame) error {
	c.mu.Lock()
	c.frames = append(c.frames, f.Clone())
	c.mu.Unlock()
	return nil
}

// Frames returns the recorded frames in order.
func (c *Collector) Frames() []*frame.Frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*frame.Frame(nil), c.frames...)
}

// Len returns the number of recorded frames.
func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.frames)
}

// Counter records only the number of frames.
type Counter struct {
	N int
}

func (c *Counter) Record(*frame.Frame) error {
	c.N++
	return nil
}

// Presenters fans a frame out to every presenter and joins their errors.
type Presenters []Presenter

func (ps Presenters) Present(f *frame.Frame) error {
	var errs []error
	for _, p := range ps {
		if err := p.Present(f); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Throttle drops frames that arrive faster than fps so slow displays do
// not hold back offline rendering.
func Throttle(p Presenter, fps float64) Presenter {
	if fps <= 0 {
		return p
	}
	return &throttled{next: p, limiter: rate.NewLimiter(rate.Limit(fps), 1)}
}

type throttled struct {
	next    Presenter
	limiter *rate.Limiter
}

func (t *throttled) Present(f *frame.Frame) error {
	if !t.limiter.Allow() {
		return nil
	}
	return t.next.Present(f)
}
