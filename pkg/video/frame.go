package video

import (
	"sync"
	"time"
)

// Frame is one captured camera image. The payload is JPEG-encoded and is
// never mutated after publish; readers receive their own copy.
type Frame struct {
	Data      []byte    // JPEG bytes
	Width     int       // Pixel width
	Height    int       // Pixel height
	Timestamp time.Time // Capture time (monotonic)
}

// Age returns how old the frame is relative to now.
func (f Frame) Age(now time.Time) time.Duration {
	return now.Sub(f.Timestamp)
}

// Source provides the most recent camera frame without blocking.
type Source interface {
	// Latest returns the most recently captured frame, or false if no
	// frame has been captured yet. It never blocks.
	Latest() (Frame, bool)
}

// LatestStore is a single-slot frame buffer: each publish overwrites the
// previous frame, so readers always see the freshest complete frame and
// older frames are dropped rather than queued.
type LatestStore struct {
	mu    sync.RWMutex
	frame Frame
	has   bool
}

// NewLatestStore creates an empty frame store.
func NewLatestStore() *LatestStore {
	return &LatestStore{}
}

// Publish replaces the stored frame. The store takes ownership of data;
// callers must not modify it afterward.
func (s *LatestStore) Publish(f Frame) {
	s.mu.Lock()
	s.frame = f
	s.has = true
	s.mu.Unlock()
}

// Latest returns a copy of the most recent frame. The returned frame's
// payload is independent of the writer, so a concurrent publish can never
// tear a frame a reader already holds.
func (s *LatestStore) Latest() (Frame, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.has {
		return Frame{}, false
	}

	f := s.frame
	f.Data = make([]byte, len(s.frame.Data))
	copy(f.Data, s.frame.Data)
	return f, true
}
