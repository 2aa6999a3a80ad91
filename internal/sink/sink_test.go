package sink

import (
	"errors"
	"testing"

	"github.com/ivlev/bubble2video/internal/frame"
)

type countingPresenter struct {
	n   int
	err error
}

func (p *countingPresenter) Present(*frame.Frame) error {
	p.n++
	return p.err
}

func TestCollectorCopiesFrames(t *testing.T) {
	var c Collector
	f := frame.New(2, 2, 3)

	c.Record(f)
	f.Pix[0] = 42
	c.Record(f)

	frames := c.Frames()
	if len(frames) != 2 {
		t.Fatalf("expected 2 frames, got %d", len(frames))
	}
	if frames[0].Pix[0] != 0 || frames[1].Pix[0] != 42 {
		t.Error("recorded frames must be snapshots")
	}
}

func TestPresentersJoinErrors(t *testing.T) {
	boom := errors.New("boom")
	a, b := &countingPresenter{}, &countingPresenter{err: boom}

	err := Presenters{a, b}.Present(frame.New(1, 1, 3))
	if !errors.Is(err, boom) {
		t.Errorf("expected joined error, got %v", err)
	}
	if a.n != 1 || b.n != 1 {
		t.Error("every presenter must see the frame")
	}
}

func TestThrottleDropsBurst(t *testing.T) {
	p := &countingPresenter{}
	th := Throttle(p, 1)
	f := frame.New(1, 1, 3)
	for i := 0; i < 10; i++ {
		th.Present(f)
	}
	if p.n != 1 {
		t.Errorf("burst of 10 at 1 fps should pass once, passed %d", p.n)
	}

	if Throttle(p, 0) != Presenter(p) {
		t.Error("non-positive rate disables throttling")
	}
}
