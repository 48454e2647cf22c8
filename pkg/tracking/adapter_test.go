package tracking

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/strobotta/minitrack/pkg/detection"
	"github.com/strobotta/minitrack/pkg/video"
)

// fakeDetector is a controllable detection backend for adapter tests.
type fakeDetector struct {
	mu    sync.Mutex
	items []detection.Detection
	err   error
	delay time.Duration
	calls int
}

func (f *fakeDetector) Detect(jpeg []byte) ([]detection.Detection, error) {
	f.mu.Lock()
	f.calls++
	items, err, delay := f.items, f.err, f.delay
	f.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	return items, err
}

func (f *fakeDetector) Close() error { return nil }

func (f *fakeDetector) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func testFrame() video.Frame {
	return video.Frame{
		Data:      []byte{0xff, 0xd8},
		Width:     640,
		Height:    480,
		Timestamp: time.Now(),
	}
}

func adapterConfig() Config {
	cfg := DefaultConfig()
	cfg.DetectInterval = 50 * time.Millisecond
	cfg.DetectTimeout = 100 * time.Millisecond
	return cfg
}

func TestAdapterFiltersLabelAndConfidence(t *testing.T) {
	fd := &fakeDetector{items: []detection.Detection{
		det("person", 0.95, 100, 100, 50, 100),
		det("dog", 0.99, 200, 100, 50, 100),    // wrong label
		det("person", 0.40, 300, 100, 50, 100), // below threshold
		det("Person", 0.80, 400, 100, 50, 100), // case-insensitive match
	}}
	a := NewAdapter(fd, adapterConfig())

	set, err := a.Detect(testFrame())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(set.Items) != 2 {
		t.Fatalf("expected 2 detections after filtering, got %d", len(set.Items))
	}
	// Input order preserved.
	if set.Items[0].U != 100 || set.Items[1].U != 400 {
		t.Errorf("filter reordered detections: %+v", set.Items)
	}
}

func TestAdapterCadenceServesCache(t *testing.T) {
	fd := &fakeDetector{items: []detection.Detection{
		det("person", 0.9, 100, 100, 50, 100),
	}}
	a := NewAdapter(fd, adapterConfig())

	if _, err := a.Detect(testFrame()); err != nil {
		t.Fatalf("first detect: %v", err)
	}
	if fd.callCount() != 1 {
		t.Fatalf("expected 1 model call, got %d", fd.callCount())
	}

	// Immediately again: within the cadence budget, served from cache.
	set, err := a.Detect(testFrame())
	if err != nil {
		t.Fatalf("cached detect: %v", err)
	}
	if fd.callCount() != 1 {
		t.Fatalf("model re-invoked within cadence budget, calls=%d", fd.callCount())
	}
	if len(set.Items) != 1 {
		t.Fatalf("cached set lost detections, got %d", len(set.Items))
	}

	time.Sleep(60 * time.Millisecond)
	if _, err := a.Detect(testFrame()); err != nil {
		t.Fatalf("post-cadence detect: %v", err)
	}
	if fd.callCount() != 2 {
		t.Fatalf("expected 2 model calls after the cadence elapsed, got %d", fd.callCount())
	}
}

func TestAdapterTimeoutDoesNotBlock(t *testing.T) {
	fd := &fakeDetector{
		items: []detection.Detection{det("person", 0.9, 100, 100, 50, 100)},
		delay: 150 * time.Millisecond,
	}
	cfg := adapterConfig()
	cfg.DetectTimeout = 20 * time.Millisecond
	cfg.DetectInterval = time.Second // keep later calls on the cache
	a := NewAdapter(fd, cfg)

	start := time.Now()
	set, err := a.Detect(testFrame())
	elapsed := time.Since(start)

	if !errors.Is(err, ErrDetectTimeout) {
		t.Fatalf("expected ErrDetectTimeout, got %v", err)
	}
	if elapsed > 100*time.Millisecond {
		t.Fatalf("Detect blocked %v, budget was 20ms", elapsed)
	}
	if len(set.Items) != 0 {
		t.Fatalf("no cache yet, expected empty set, got %d items", len(set.Items))
	}

	// The slow inference keeps running and lands in the cache.
	time.Sleep(200 * time.Millisecond)
	set, err = a.Detect(testFrame())
	if err != nil {
		t.Fatalf("cached detect after late completion: %v", err)
	}
	if len(set.Items) != 1 {
		t.Fatalf("late result not cached, got %d items", len(set.Items))
	}
	if !a.ResultFresh(time.Second, time.Now()) {
		t.Error("late result should be fresh")
	}
}

func TestAdapterModelError(t *testing.T) {
	fd := &fakeDetector{err: errors.New("inference exploded")}
	a := NewAdapter(fd, adapterConfig())

	set, err := a.Detect(testFrame())
	if err == nil {
		t.Fatal("expected an error")
	}
	if errors.Is(err, ErrDetectTimeout) {
		t.Fatal("model failure must not look like a timeout")
	}
	if len(set.Items) != 0 {
		t.Fatalf("expected empty set on model failure, got %d items", len(set.Items))
	}
}

func TestDetectionSetFresh(t *testing.T) {
	now := time.Now()

	var empty DetectionSet
	if empty.Fresh(time.Hour, now) {
		t.Error("zero-time set must never be fresh")
	}

	recent := DetectionSet{FrameTime: now.Add(-100 * time.Millisecond)}
	if !recent.Fresh(750*time.Millisecond, now) {
		t.Error("recent set should be fresh")
	}

	old := DetectionSet{FrameTime: now.Add(-time.Second)}
	if old.Fresh(750*time.Millisecond, now) {
		t.Error("old set should be stale")
	}
}
