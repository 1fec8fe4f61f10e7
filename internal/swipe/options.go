// Package swipe implements swipe-to-delete gesture recognition for list rows.
//
// Each rendered row owns a Tracker, a small state machine fed with raw
// pointer events. Trackers belonging to the same list live in a Registry,
// which keeps at most one row revealed and collapses every row when the
// list scrolls or the screen changes. A Dispatcher turns a tap on the
// revealed action surface into a call to an external Deleter.
package swipe

import (
	"fmt"
	"strings"
	"time"
)

// Options holds the geometry and timing of a swipe gesture.
// Distances are device-independent pixels.
type Options struct {
	// MaxReveal bounds the leftward translation of a row.
	MaxReveal float64
	// RevealThreshold is the drag distance that must be exceeded on
	// release for the row to snap open.
	RevealThreshold float64
	// VisibilityThreshold is the translation after which the action
	// surface behind the row becomes visible.
	VisibilityThreshold float64
	// CloseDuration is the length of the snap-back animation.
	CloseDuration time.Duration
	// ScrollQuietPeriod is how long the list must stop scrolling before
	// revealed rows are closed.
	ScrollQuietPeriod time.Duration
}

// DefaultOptions returns the stock gesture geometry.
func DefaultOptions() Options {
	return Options{
		MaxReveal:           90,
		RevealThreshold:     80,
		VisibilityThreshold: 10,
		CloseDuration:       300 * time.Millisecond,
		ScrollQuietPeriod:   100 * time.Millisecond,
	}
}

// Validate reports every inconsistent field at once.
func (o Options) Validate() error {
	var errors []string

	if o.MaxReveal <= 0 {
		errors = append(errors, fmt.Sprintf("invalid max reveal %v: must be positive", o.MaxReveal))
	}
	if o.RevealThreshold < 0 {
		errors = append(errors, fmt.Sprintf("invalid reveal threshold %v: must not be negative", o.RevealThreshold))
	}
	if o.VisibilityThreshold < 0 {
		errors = append(errors, fmt.Sprintf("invalid visibility threshold %v: must not be negative", o.VisibilityThreshold))
	}
	if o.CloseDuration < 0 {
		errors = append(errors, fmt.Sprintf("invalid close duration %v: must not be negative", o.CloseDuration))
	}
	if o.ScrollQuietPeriod < 0 {
		errors = append(errors, fmt.Sprintf("invalid scroll quiet period %v: must not be negative", o.ScrollQuietPeriod))
	}

	if len(errors) > 0 {
		return fmt.Errorf("swipe options validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}
