package sequencer

import (
	"context"
	"time"
)

// Pacer honours the pause between two emitted frames.
type Pacer interface {
	Pause(ctx context.Context, d time.Duration)
}

// Offline skips pauses; used when rendering straight to a file.
type Offline struct{}

func (Offline) Pause(context.Context, time.Duration) {}

// Realtime sleeps for every pause, returning early once ctx is done.
type Realtime struct{}

func (Realtime) Pause(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}
