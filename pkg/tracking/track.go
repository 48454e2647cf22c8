package tracking

import (
	"time"

	"github.com/strobotta/minitrack/pkg/detection"
)

// Target is the single object currently being tracked.
type Target struct {
	Label     string
	Region    detection.Detection // Last matched bounding box
	FirstSeen time.Time
	LastSeen  time.Time
	Misses    int // Consecutive ticks without a matching detection
}

// Tracks owns the live target. At most one target exists at a time; it is
// created on the first qualifying detection, refreshed on every match, and
// discarded once it has gone undetected for longer than the miss timeout.
// Owned exclusively by the control loop tick, so no locking.
type Tracks struct {
	missTimeout time.Duration
	current     *Target
}

// NewTracks creates an empty track store.
func NewTracks(missTimeout time.Duration) *Tracks {
	return &Tracks{missTimeout: missTimeout}
}

// Update advances the track state with this tick's selected detection
// (nil when nothing was selected) and returns the live target, or nil when
// there is none. A single missed tick only bumps the miss counter; the
// target is discarded only after the miss timeout elapses, so one slow
// inference cycle does not abandon tracking.
func (t *Tracks) Update(sel *detection.Detection, now time.Time) *Target {
	if sel != nil {
		if t.current == nil {
			t.current = &Target{
				Label:     sel.Label,
				Region:    *sel,
				FirstSeen: now,
				LastSeen:  now,
			}
		} else {
			t.current.Region = *sel
			t.current.LastSeen = now
			t.current.Misses = 0
		}
		return t.current
	}

	if t.current == nil {
		return nil
	}

	t.current.Misses++
	if now.Sub(t.current.LastSeen) > t.missTimeout {
		t.current = nil
	}
	return t.current
}

// Current returns the live target, or nil.
func (t *Tracks) Current() *Target {
	return t.current
}

// Clear discards the live target.
func (t *Tracks) Clear() {
	t.current = nil
}
