package sequencer

import (
	"image"
	"time"

	"github.com/ivlev/bubble2video/internal/frame"
	"github.com/ivlev/bubble2video/internal/text"
)

// Phase of a bubble's performance.
type Phase int

const (
	PhaseFadeIn Phase = iota
	PhaseReveal
	PhaseHold
	PhaseFadeOut
)

func (p Phase) String() string {
	switch p {
	case PhaseFadeIn:
		return "fade-in"
	case PhaseReveal:
		return "reveal"
	case PhaseHold:
		return "hold"
	case PhaseFadeOut:
		return "fade-out"
	default:
		return "unknown"
	}
}

// Spec describes one speech bubble: which asset goes where, what it says and
// whether it is mirrored for a speaker on the other side.
type Spec struct {
	Overlay *frame.Frame
	Region  image.Rectangle
	Text    string
	Mirror  bool
}

// Step is a single emitted frame request.
type Step struct {
	Phase    Phase
	Opacity  float64         // Overlay visibility in [0, 1]
	Text     string          // Visible caption prefix
	Revealed int             // Number of visible characters
	Region   image.Rectangle // Target region in parent coordinates
	Delay    time.Duration   // Pause after the frame is shown
	Silent   bool            // Pause only, no frame is emitted
}

// Options tune the timeline. The zero value is not useful; start from
// DefaultOptions.
type Options struct {
	FadeSteps   int // Intervals between 0 and 1; FadeSteps+1 frames per fade
	FadeDelay   time.Duration
	RevealDelay time.Duration
	HoldDelay   time.Duration
	HoldFrame   bool // Emit a frame for the hold phase
	Easing      Easing
}

// DefaultOptions reproduces the reference pacing: 11-step fades at 100ms,
// 150ms per character and a one second hold.
func DefaultOptions() Options {
	return Options{
		FadeSteps:   10,
		FadeDelay:   100 * time.Millisecond,
		RevealDelay: 150 * time.Millisecond,
		HoldDelay:   1000 * time.Millisecond,
		HoldFrame:   true,
		Easing:      Linear,
	}
}

// Steps returns the ordered timeline of s. The result depends only on s
// and opts.
func (s Spec) Steps(opts Options) []Step {
	n := opts.FadeSteps
	if n <= 0 {
		n = DefaultOptions().FadeSteps
	}
	ease := opts.Easing
	if ease == nil {
		ease = Linear
	}
	clusters := text.Clusters(s.Text)

	steps := make([]Step, 0, 2*(n+1)+len(clusters)+1)
	for i := 0; i <= n; i++ {
		steps = append(steps, Step{
			Phase:   PhaseFadeIn,
			Opacity: ease(float64(i) / float64(n)),
			Region:  s.Region,
			Delay:   opts.FadeDelay,
		})
	}

	prefix := ""
	for i, c := range clusters {
		prefix += c
		steps = append(steps, Step{
			Phase:    PhaseReveal,
			Opacity:  1,
			Text:     prefix,
			Revealed: i + 1,
			Region:   s.Region,
			Delay:    opts.RevealDelay,
		})
	}

	steps = append(steps, Step{
		Phase:    PhaseHold,
		Opacity:  1,
		Text:     prefix,
		Revealed: len(clusters),
		Region:   s.Region,
		Delay:    opts.HoldDelay,
		Silent:   !opts.HoldFrame,
	})

	for i := n; i >= 0; i-- {
		steps = append(steps, Step{
			Phase:   PhaseFadeOut,
			Opacity: ease(float64(i) / float64(n)),
			Region:  s.Region,
			Delay:   opts.FadeDelay,
		})
	}
	return steps
}

// FrameCount is the number of frames the timeline emits.
func FrameCount(steps []Step) int {
	n := 0
	for _, st := range steps {
		if !st.Silent {
			n++
		}
	}
	return n
}
