package tracking

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/strobotta/minitrack/pkg/detection"
	"github.com/strobotta/minitrack/pkg/video"
)

// ErrDetectTimeout reports that the detector did not answer within the
// configured budget. Recoverable: the tick degrades to the cached result
// and the next tick retries naturally.
var ErrDetectTimeout = errors.New("detector timed out")

// DetectionSet is the filtered detector output for one frame.
type DetectionSet struct {
	Items     []detection.Detection
	FrameTime time.Time // Capture time of the source frame
}

// Fresh reports whether the set was computed from a frame captured within
// maxAge of now. An empty set (zero FrameTime) is never fresh.
func (s DetectionSet) Fresh(maxAge time.Duration, now time.Time) bool {
	if s.FrameTime.IsZero() {
		return false
	}
	return now.Sub(s.FrameTime) <= maxAge
}

// Adapter wraps an object detection backend for use inside a fixed-rate
// control loop. The model may be slower than the loop, so the adapter
// re-invokes it only when its own cadence budget has elapsed and serves the
// cached result in between. A call never blocks longer than the configured
// timeout: a slow inference keeps running in the background and its result
// is picked up once ready.
type Adapter struct {
	detector detection.Detector

	label         string
	minConfidence float64
	interval      time.Duration
	timeout       time.Duration

	mu        sync.Mutex
	last      DetectionSet
	inflight  bool
	lastStart time.Time
}

// NewAdapter creates a detector adapter with the session's label filter,
// confidence threshold and timing budget.
func NewAdapter(d detection.Detector, cfg Config) *Adapter {
	return &Adapter{
		detector:      d,
		label:         cfg.Label,
		minConfidence: cfg.ConfidenceThreshold,
		interval:      cfg.DetectInterval,
		timeout:       cfg.DetectTimeout,
	}
}

type detectResult struct {
	items []detection.Detection
	err   error
}

// Detect returns the detections for the given frame, filtered to the
// session's label and confidence threshold. Between inference runs it
// returns the cached set. On model failure it returns an empty set and a
// recoverable error; on timeout it returns the cached set and ErrDetectTimeout.
func (a *Adapter) Detect(frame video.Frame) (DetectionSet, error) {
	now := time.Now()

	a.mu.Lock()
	if a.inflight || now.Sub(a.lastStart) < a.interval {
		cached := a.last
		a.mu.Unlock()
		return cached, nil
	}
	a.inflight = true
	a.lastStart = now
	a.mu.Unlock()

	done := make(chan detectResult, 1)
	go func() {
		items, err := a.detector.Detect(frame.Data)
		done <- detectResult{items: items, err: err}
	}()

	timer := time.NewTimer(a.timeout)
	defer timer.Stop()

	select {
	case res := <-done:
		a.mu.Lock()
		a.inflight = false
		if res.err != nil {
			a.mu.Unlock()
			return DetectionSet{}, fmt.Errorf("detector: %w", res.err)
		}
		a.last = DetectionSet{
			Items:     a.filter(res.items),
			FrameTime: frame.Timestamp,
		}
		result := a.last
		a.mu.Unlock()
		return result, nil

	case <-timer.C:
		// Let the inference finish in the background and cache its result
		// for a later tick.
		go func() {
			res := <-done
			a.mu.Lock()
			a.inflight = false
			if res.err == nil {
				a.last = DetectionSet{
					Items:     a.filter(res.items),
					FrameTime: frame.Timestamp,
				}
			}
			a.mu.Unlock()
		}()

		a.mu.Lock()
		cached := a.last
		a.mu.Unlock()
		return cached, ErrDetectTimeout
	}
}

// ResultFresh reports whether the cached detection set was computed from a
// frame captured within maxAge of now.
func (a *Adapter) ResultFresh(maxAge time.Duration, now time.Time) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.last.Fresh(maxAge, now)
}

// filter keeps detections matching the session label at or above the
// confidence threshold. Input order is preserved so selection stays
// deterministic.
func (a *Adapter) filter(items []detection.Detection) []detection.Detection {
	var kept []detection.Detection
	for _, d := range items {
		if !strings.EqualFold(d.Label, a.label) {
			continue
		}
		if d.Confidence < a.minConfidence {
			continue
		}
		kept = append(kept, d)
	}
	return kept
}
