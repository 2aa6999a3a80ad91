package sequencer

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log"

	"github.com/ivlev/bubble2video/internal/compositor"
	"github.com/ivlev/bubble2video/internal/frame"
	"github.com/ivlev/bubble2video/internal/overlay"
	"github.com/ivlev/bubble2video/internal/sink"
	"github.com/ivlev/bubble2video/internal/text"
)

var (
	// ErrAssetMissing is returned when the parent frame or a bubble asset is
	// empty. Nothing is emitted in that case.
	ErrAssetMissing = errors.New("asset missing")
	// ErrDegenerateRegion is returned for regions without area or entirely
	// outside the parent frame.
	ErrDegenerateRegion = errors.New("degenerate region")
	// ErrUnsupportedFormat is returned for frames that are neither RGB nor
	// RGBA.
	ErrUnsupportedFormat = errors.New("unsupported pixel format")
)

func checkChannels(f *frame.Frame) error {
	if f.Channels != 3 && f.Channels != 4 {
		return fmt.Errorf("%d channels: %w", f.Channels, ErrUnsupportedFormat)
	}
	return nil
}

// Sequencer plays speech bubbles over a shared parent frame and emits one
// full frame per animation step.
type Sequencer struct {
	Recorder  sink.Recorder
	Presenter sink.Presenter // optional
	Pacer     Pacer          // nil means Offline
	Text      *text.Renderer
	Overlays  *overlay.Cache // optional
	Options   Options

	// Progress is called after each finished bubble.
	Progress func(done, total int)
}

// New creates a sequencer with the default timeline and an offline pacer.
func New(rec sink.Recorder, txt *text.Renderer) *Sequencer {
	return &Sequencer{
		Recorder: rec,
		Text:     txt,
		Pacer:    Offline{},
		Options:  DefaultOptions(),
	}
}

// Validate checks every precondition of Run without touching anything.
func Validate(parent *frame.Frame, specs []Spec) error {
	if parent.Empty() {
		return fmt.Errorf("parent frame: %w", ErrAssetMissing)
	}
	if err := checkChannels(parent); err != nil {
		return fmt.Errorf("parent frame: %w", err)
	}
	for i, s := range specs {
		if s.Overlay.Empty() {
			return fmt.Errorf("bubble %d: %w", i+1, ErrAssetMissing)
		}
		if err := checkChannels(s.Overlay); err != nil {
			return fmt.Errorf("bubble %d: %w", i+1, err)
		}
		if s.Region.Empty() {
			return fmt.Errorf("bubble %d: region %v: %w", i+1, s.Region, ErrDegenerateRegion)
		}
		if s.Region.Intersect(parent.Bounds()).Empty() {
			return fmt.Errorf("bubble %d: region %v outside %v: %w", i+1, s.Region, parent.Bounds(), ErrDegenerateRegion)
		}
	}
	return nil
}

// Run plays specs one after another on parent, which is mutated in place
// and left showing its original pixels inside every bubble region. All
// preconditions are checked before the first frame. Cancellation of ctx is
// observed between bubbles; a started bubble always runs to completion.
func (s *Sequencer) Run(ctx context.Context, parent *frame.Frame, specs ...Spec) error {
	if err := Validate(parent, specs); err != nil {
		return err
	}
	if s.Recorder == nil {
		return errors.New("sequencer: no recorder")
	}
	if s.Text == nil {
		txt, err := text.NewRenderer(text.DefaultStyle())
		if err != nil {
			return err
		}
		s.Text = txt
	}

	for i, spec := range specs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.play(ctx, parent, spec); err != nil {
			return fmt.Errorf("bubble %d: %w", i+1, err)
		}
		if s.Progress != nil {
			s.Progress(i+1, len(specs))
		}
	}
	return nil
}

func (s *Sequencer) play(ctx context.Context, parent *frame.Frame, spec Spec) error {
	visible := spec.Region.Intersect(parent.Bounds())
	// Where the prepared overlay starts relative to the visible window;
	// negative when the region hangs over the top or left edge.
	shift := spec.Region.Min.Sub(visible.Min)
	ov := s.Overlays.Prepare(spec.Overlay, spec.Region, spec.Mirror)

	w, h, ch := visible.Dx(), visible.Dy(), parent.Channels
	pristine := frame.Get(w, h, ch)
	bubble := frame.Get(w, h, ch)
	work := frame.Get(w, h, ch)
	defer frame.Put(pristine)
	defer frame.Put(bubble)
	defer frame.Put(work)

	parent.CropInto(pristine, visible.Min)
	compositor.CompositeInto(bubble, pristine, ov, shift, 1)
	layout := s.Text.Layout(spec.Text, spec.Region.Dx())

	for _, st := range spec.Steps(s.Options) {
		switch st.Phase {
		case PhaseFadeIn:
			compositor.CompositeInto(work, pristine, ov, shift, st.Opacity)
		case PhaseReveal, PhaseHold:
			work.CopyFrom(bubble)
			s.Text.DrawAt(work, shift, layout.Lines(st.Revealed))
		case PhaseFadeOut:
			if st.Opacity <= 0 {
				work.CopyFrom(pristine)
			} else {
				compositor.CompositeInto(work, bubble, pristine, image.Point{}, 1-st.Opacity)
			}
		}

		if st.Silent {
			s.pacer().Pause(ctx, st.Delay)
			continue
		}
		parent.Paste(work, visible.Min)
		if err := s.emit(parent); err != nil {
			return err
		}
		s.pacer().Pause(ctx, st.Delay)
	}
	return nil
}

func (s *Sequencer) emit(f *frame.Frame) error {
	if err := s.Recorder.Record(f); err != nil {
		return fmt.Errorf("record frame: %w", err)
	}
	if s.Presenter != nil {
		if err := s.Presenter.Present(f); err != nil {
			log.Printf("[!] Preview error: %v", err)
		}
	}
	return nil
}

func (s *Sequencer) pacer() Pacer {
	if s.Pacer == nil {
		return Offline{}
	}
	return s.Pacer
}
