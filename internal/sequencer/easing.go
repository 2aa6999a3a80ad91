package sequencer

import (
	"fmt"
	"strings"

	"github.com/fogleman/ease"
)

// Easing maps linear fade progress in [0, 1] to an overlay opacity.
type Easing func(t float64) float64

// Linear keeps the reference 0.0, 0.1, ... 1.0 ramp.
var Linear Easing = ease.Linear

var easings = map[string]Easing{
	"linear":       ease.Linear,
	"in-quad":      ease.InQuad,
	"out-quad":     ease.OutQuad,
	"in-out-quad":  ease.InOutQuad,
	"in-cubic":     ease.InCubic,
	"out-cubic":    ease.OutCubic,
	"in-out-cubic": ease.InOutCubic,
	"in-out-sine":  ease.InOutSine,
}

// ParseEasing resolves an easing by name. An empty name means linear.
func ParseEasing(name string) (Easing, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return Linear, nil
	}
	e, ok := easings[name]
	if !ok {
		return nil, fmt.Errorf("unknown easing: %s", name)
	}
	return e, nil
}
