package sequencer

import (
	"bytes"
	"context"
	"errors"
	"image"
	"testing"
	"time"

	"github.com/ivlev/bubble2video/internal/frame"
	"github.com/ivlev/bubble2video/internal/sink"
	"github.com/ivlev/bubble2video/internal/text"
)

func testParent(w, h int) *frame.Frame {
	f := frame.New(w, h, 3)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := f.Offset(x, y)
			f.Pix[i], f.Pix[i+1], f.Pix[i+2] = uint8(x), uint8(y), uint8(x^y)
		}
	}
	return f
}

// testBubble is a dark ellipse-ish blob on a transparent background.
func testBubble(w, h int) *frame.Frame {
	f := frame.New(w, h, 4)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := f.Offset(x, y)
			f.Pix[i], f.Pix[i+1], f.Pix[i+2] = 20, 40, 200
			dx, dy := float64(2*x-w)/float64(w), float64(2*y-h)/float64(h)
			if dx*dx+dy*dy <= 1 {
				f.Pix[i+3] = 255
			}
		}
	}
	return f
}

func newTestSequencer(t *testing.T, rec sink.Recorder) *Sequencer {
	t.Helper()
	txt, err := text.NewRenderer(text.DefaultStyle())
	if err != nil {
		t.Fatalf("NewRenderer failed: %v", err)
	}
	return New(rec, txt)
}

func regionEqual(a, b *frame.Frame, r image.Rectangle) bool {
	return bytes.Equal(a.Crop(r).Pix, b.Crop(r).Pix)
}

func TestStepsTimeline(t *testing.T) {
	spec := Spec{Region: image.Rect(200, 40, 500, 190), Text: "Hi!"}
	steps := spec.Steps(DefaultOptions())

	if len(steps) != 26 || FrameCount(steps) != 26 {
		t.Fatalf("expected 26 steps, got %d (%d frames)", len(steps), FrameCount(steps))
	}

	want := []struct {
		phase Phase
		count int
		delay time.Duration
	}{
		{PhaseFadeIn, 11, 100 * time.Millisecond},
		{PhaseReveal, 3, 150 * time.Millisecond},
		{PhaseHold, 1, time.Second},
		{PhaseFadeOut, 11, 100 * time.Millisecond},
	}
	i := 0
	for _, w := range want {
		for k := 0; k < w.count; k++ {
			st := steps[i]
			if st.Phase != w.phase || st.Delay != w.delay {
				t.Fatalf("step %d: got %v/%v, want %v/%v", i, st.Phase, st.Delay, w.phase, w.delay)
			}
			i++
		}
	}

	for k := 0; k <= 10; k++ {
		if got, exp := steps[k].Opacity, float64(k)/10; got != exp {
			t.Errorf("fade-in step %d opacity %v, want %v", k, got, exp)
		}
		if got, exp := steps[15+k].Opacity, float64(10-k)/10; got != exp {
			t.Errorf("fade-out step %d opacity %v, want %v", k, got, exp)
		}
		if steps[15+k].Text != "" {
			t.Errorf("fade-out step %d shows text %q", k, steps[15+k].Text)
		}
	}
	for k, exp := range []string{"H", "Hi", "Hi!"} {
		if steps[11+k].Text != exp || steps[11+k].Revealed != k+1 {
			t.Errorf("reveal step %d: %q/%d", k, steps[11+k].Text, steps[11+k].Revealed)
		}
	}
}

func TestStepsWithoutHoldFrame(t *testing.T) {
	opts := DefaultOptions()
	opts.HoldFrame = false
	steps := Spec{Region: image.Rect(0, 0, 10, 10), Text: "Hi!"}.Steps(opts)
	if FrameCount(steps) != 25 {
		t.Errorf("expected 25 frames, got %d", FrameCount(steps))
	}
}

func TestRunScenario(t *testing.T) {
	parent := testParent(1000, 400)
	original := parent.Clone()
	region := image.Rect(200, 40, 500, 190)

	var rec sink.Collector
	seq := newTestSequencer(t, &rec)
	err := seq.Run(context.Background(), parent, Spec{
		Overlay: testBubble(120, 60),
		Region:  region,
		Text:    "Hi!",
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	frames := rec.Frames()
	if len(frames) != 26 {
		t.Fatalf("expected 26 frames, got %d", len(frames))
	}
	for i, f := range frames {
		if f.Width != 1000 || f.Height != 400 {
			t.Fatalf("frame %d has size %dx%d", i, f.Width, f.Height)
		}
		if !regionEqual(f, original, image.Rect(0, 0, 1000, 40)) {
			t.Fatalf("frame %d touched pixels outside the region", i)
		}
	}

	if !bytes.Equal(frames[0].Pix, original.Pix) {
		t.Error("first fade-in frame (opacity 0) must equal the original")
	}
	if !bytes.Equal(parent.Pix, original.Pix) {
		t.Error("parent was not restored after fade-out")
	}
	if !bytes.Equal(frames[len(frames)-1].Pix, original.Pix) {
		t.Error("last frame must equal the original")
	}

	// Bubble centre moves monotonically toward the overlay colour.
	cx, cy := region.Min.X+region.Dx()/2, region.Min.Y+region.Dy()/2
	prev := -1
	for k := 0; k <= 10; k++ {
		b := int(frames[k].Pix[frames[k].Offset(cx, cy)+2])
		if b < prev && original.Pix[original.Offset(cx, cy)+2] < 200 {
			t.Errorf("fade-in step %d went backwards", k)
		}
		prev = b
	}

	if regionEqual(frames[13], frames[10], region) {
		t.Error("reveal frames should differ from the bare bubble")
	}
	if !regionEqual(frames[14], frames[13], region) {
		t.Error("hold frame should repeat the fully revealed caption")
	}
	if !regionEqual(frames[15], frames[10], region) {
		t.Error("first fade-out frame should show the bubble without text")
	}
}

func TestFadeInThenOutRestoresRegion(t *testing.T) {
	parent := testParent(300, 200)
	original := parent.Clone()

	opts := DefaultOptions()
	opts.HoldFrame = false
	var rec sink.Collector
	seq := newTestSequencer(t, &rec)
	seq.Options = opts

	if err := seq.Run(context.Background(), parent, Spec{Overlay: testBubble(50, 40), Region: image.Rect(20, 30, 220, 130)}); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if rec.Len() != 22 {
		t.Errorf("expected 22 frames without caption and hold, got %d", rec.Len())
	}
	if !bytes.Equal(parent.Pix, original.Pix) {
		t.Error("region not restored")
	}
}

func TestTwoBubblesDoNotInterfere(t *testing.T) {
	parent := testParent(1000, 400)
	original := parent.Clone()
	left := image.Rect(200, 40, 500, 190)
	right := image.Rect(700, 20, 1000, 170)
	bubble := testBubble(90, 45)

	var rec sink.Collector
	seq := newTestSequencer(t, &rec)
	err := seq.Run(context.Background(), parent,
		Spec{Overlay: bubble, Region: left, Text: "Hi!"},
		Spec{Overlay: bubble, Region: right, Text: "Yo!", Mirror: true},
	)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	frames := rec.Frames()
	if len(frames) != 52 {
		t.Fatalf("expected two blocks of 26 frames, got %d", len(frames))
	}
	for i, f := range frames[:26] {
		if !regionEqual(f, original, right) {
			t.Fatalf("frame %d of the first bubble touched the second region", i)
		}
	}
	for i, f := range frames[26:] {
		if !regionEqual(f, original, left) {
			t.Fatalf("frame %d of the second bubble touched the first region", i)
		}
	}
	if !bytes.Equal(parent.Pix, original.Pix) {
		t.Error("parent not restored after both bubbles")
	}
}

// halfBubble is opaque on its left half and transparent on the right.
func halfBubble(w, h int) *frame.Frame {
	f := frame.New(w, h, 4)
	for y := 0; y < h; y++ {
		for x := 0; x < w/2; x++ {
			i := f.Offset(x, y)
			f.Pix[i], f.Pix[i+1], f.Pix[i+2], f.Pix[i+3] = 20, 40, 200, 255
		}
	}
	return f
}

func TestMirrorFlipsBubble(t *testing.T) {
	region := image.Rect(40, 20, 140, 70)
	left := image.Pt(region.Min.X+2, region.Min.Y+5)
	right := image.Pt(region.Max.X-3, region.Min.Y+5)
	bubbleColour := [3]uint8{20, 40, 200}

	pixel := func(f *frame.Frame, p image.Point) [3]uint8 {
		i := f.Offset(p.X, p.Y)
		return [3]uint8{f.Pix[i], f.Pix[i+1], f.Pix[i+2]}
	}

	tests := []struct {
		name   string
		mirror bool
		filled image.Point
		bare   image.Point
	}{
		{"plain", false, left, right},
		{"mirrored", true, right, left},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parent := testParent(200, 100)
			original := parent.Clone()

			var rec sink.Collector
			seq := newTestSequencer(t, &rec)
			// Region and asset share the size, so no resampling blurs the edge.
			err := seq.Run(context.Background(), parent, Spec{Overlay: halfBubble(100, 50), Region: region, Mirror: tt.mirror})
			if err != nil {
				t.Fatalf("Run failed: %v", err)
			}

			full := rec.Frames()[10]
			if got := pixel(full, tt.filled); got != bubbleColour {
				t.Errorf("pixel %v = %v, want bubble colour", tt.filled, got)
			}
			if got, want := pixel(full, tt.bare), pixel(original, tt.bare); got != want {
				t.Errorf("pixel %v = %v, want background %v", tt.bare, got, want)
			}
		})
	}
}

func TestEasedFadeRestoresRegion(t *testing.T) {
	parent := testParent(400, 200)
	original := parent.Clone()
	region := image.Rect(30, 20, 330, 170)

	easing, err := ParseEasing("in-out-cubic")
	if err != nil {
		t.Fatal(err)
	}
	var rec sink.Collector
	seq := newTestSequencer(t, &rec)
	seq.Options.Easing = easing

	if err := seq.Run(context.Background(), parent, Spec{Overlay: testBubble(70, 35), Region: region, Text: "Hi!"}); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	frames := rec.Frames()
	if len(frames) != 26 {
		t.Fatalf("expected 26 frames, got %d", len(frames))
	}
	if regionEqual(frames[5], frames[10], region) {
		t.Error("eased fade-in should not be fully opaque halfway")
	}
	if !bytes.Equal(frames[len(frames)-1].Pix, original.Pix) {
		t.Error("last eased frame must equal the original")
	}
	if !bytes.Equal(parent.Pix, original.Pix) {
		t.Error("parent not restored after eased fade-out")
	}
}

func TestRunIsDeterministic(t *testing.T) {
	run := func() []*frame.Frame {
		var rec sink.Collector
		seq := newTestSequencer(t, &rec)
		err := seq.Run(context.Background(), testParent(400, 200), Spec{
			Overlay: testBubble(64, 32),
			Region:  image.Rect(50, 20, 350, 170),
			Text:    "We must act!",
			Mirror:  true,
		})
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		return rec.Frames()
	}

	a, b := run(), run()
	if len(a) != len(b) {
		t.Fatalf("frame counts differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if !bytes.Equal(a[i].Pix, b[i].Pix) {
			t.Fatalf("frame %d differs between runs", i)
		}
	}
}

func TestRegionClippedByParent(t *testing.T) {
	parent := testParent(200, 100)
	original := parent.Clone()

	var rec sink.Collector
	seq := newTestSequencer(t, &rec)
	err := seq.Run(context.Background(), parent, Spec{
		Overlay: testBubble(40, 20),
		Region:  image.Rect(-50, -20, 100, 60),
		Text:    "edge",
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if rec.Len() != 27 {
		t.Errorf("expected 27 frames, got %d", rec.Len())
	}
	if !bytes.Equal(parent.Pix, original.Pix) {
		t.Error("clipped region not restored")
	}
}

func TestPreconditionsAbortBeforeFirstFrame(t *testing.T) {
	good := Spec{Overlay: testBubble(10, 10), Region: image.Rect(0, 0, 50, 50), Text: "ok"}

	tests := []struct {
		name   string
		parent *frame.Frame
		specs  []Spec
		want   error
	}{
		{"nil parent", nil, []Spec{good}, ErrAssetMissing},
		{"empty parent", frame.New(0, 0, 3), []Spec{good}, ErrAssetMissing},
		{"missing overlay", testParent(100, 100), []Spec{good, {Region: image.Rect(0, 0, 10, 10)}}, ErrAssetMissing},
		{"zero width", testParent(100, 100), []Spec{good, {Overlay: testBubble(4, 4), Region: image.Rect(10, 10, 10, 40)}}, ErrDegenerateRegion},
		{"outside parent", testParent(100, 100), []Spec{{Overlay: testBubble(4, 4), Region: image.Rect(200, 200, 260, 240)}}, ErrDegenerateRegion},
		{"grey parent", frame.New(100, 100, 1), []Spec{good}, ErrUnsupportedFormat},
		{"two channel overlay", testParent(100, 100), []Spec{good, {Overlay: frame.New(4, 4, 2), Region: image.Rect(0, 0, 10, 10)}}, ErrUnsupportedFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var rec sink.Collector
			seq := newTestSequencer(t, &rec)
			err := seq.Run(context.Background(), tt.parent, tt.specs...)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			if rec.Len() != 0 {
				t.Errorf("%d frames emitted before abort", rec.Len())
			}
		})
	}
}

type failingPresenter struct{ calls int }

func (p *failingPresenter) Present(*frame.Frame) error {
	p.calls++
	return errors.New("display gone")
}

type failingRecorder struct{ after, n int }

func (r *failingRecorder) Record(*frame.Frame) error {
	r.n++
	if r.n > r.after {
		return errors.New("disk full")
	}
	return nil
}

func TestPresenterFailureIsIgnored(t *testing.T) {
	var rec sink.Collector
	pres := &failingPresenter{}
	seq := newTestSequencer(t, &rec)
	seq.Presenter = pres

	err := seq.Run(context.Background(), testParent(200, 100), Spec{Overlay: testBubble(8, 8), Region: image.Rect(10, 10, 110, 60)})
	if err != nil {
		t.Fatalf("presenter errors must not abort: %v", err)
	}
	if pres.calls != rec.Len() {
		t.Errorf("presenter saw %d frames, recorder %d", pres.calls, rec.Len())
	}
}

func TestRecorderFailureAborts(t *testing.T) {
	rec := &failingRecorder{after: 5}
	seq := newTestSequencer(t, rec)

	err := seq.Run(context.Background(), testParent(200, 100), Spec{Overlay: testBubble(8, 8), Region: image.Rect(10, 10, 110, 60)})
	if err == nil {
		t.Fatal("expected recorder error")
	}
	if rec.n != 6 {
		t.Errorf("sequencer kept recording after a failure: %d calls", rec.n)
	}
}

func TestCancelledContextStopsBetweenBubbles(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var rec sink.Collector
	seq := newTestSequencer(t, &rec)
	seq.Progress = func(done, total int) { cancel() }

	spec := Spec{Overlay: testBubble(8, 8), Region: image.Rect(10, 10, 110, 60), Text: "a"}
	err := seq.Run(ctx, testParent(200, 100), spec, spec)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if rec.Len() != 24 {
		t.Errorf("first bubble should complete with 24 frames, got %d", rec.Len())
	}
}

func TestRealtimePacerHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	Realtime{}.Pause(ctx, time.Minute)
	if time.Since(start) > time.Second {
		t.Error("pause ignored cancellation")
	}
}

func TestParseEasing(t *testing.T) {
	for _, name := range []string{"", "linear", "In-Out-Quad", "out-cubic"} {
		if _, err := ParseEasing(name); err != nil {
			t.Errorf("ParseEasing(%q): %v", name, err)
		}
	}
	if _, err := ParseEasing("bounce-forever"); err == nil {
		t.Error("expected error for unknown easing")
	}
	e, _ := ParseEasing("in-quad")
	if e(0) != 0 || e(1) != 1 {
		t.Error("easing must keep the end points")
	}
}
