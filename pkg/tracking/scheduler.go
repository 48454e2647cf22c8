package tracking

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/strobotta/minitrack/internal/log"
	"github.com/strobotta/minitrack/pkg/detection"
	"github.com/strobotta/minitrack/pkg/video"
)

// motionErrorLogInterval rate-limits motion failure logging; every failure
// is still counted.
const motionErrorLogInterval = 5 * time.Second

// Dispatcher accepts the gaze commands the scheduler produces.
// robot.HTTPController satisfies this through its SendGaze method.
type Dispatcher interface {
	SendGaze(pan, tilt float64, duration time.Duration) error
}

// Scheduler runs the tracking pipeline at a fixed rate: read the latest
// frame, detect, select, update the track, update the gaze and dispatch.
// Ticks are paced by wall clock and never queued; if a tick overruns, the
// next one starts immediately and stale ticks are dropped, so the loop
// always works on the freshest data.
type Scheduler struct {
	cfg     Config
	source  video.Source
	adapter *Adapter
	tracks  *Tracks
	gaze    *GazeController
	motion  Dispatcher
	sink    Sink

	sessionID string

	mu            sync.Mutex
	stats         Stats
	lastCmd       *CommandInfo
	lastMotionErr error
	lastMotionLog time.Time
	lastTarget    *TargetInfo
	state         State
}

// NewScheduler assembles a tracking session. sink may be nil.
func NewScheduler(cfg Config, source video.Source, detector detection.Detector, motion Dispatcher, sink Sink) (*Scheduler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Scheduler{
		cfg:       cfg,
		source:    source,
		adapter:   NewAdapter(detector, cfg),
		tracks:    NewTracks(cfg.MissTimeout),
		gaze:      NewGazeController(cfg),
		motion:    motion,
		sink:      sink,
		sessionID: uuid.NewString(),
	}, nil
}

// SessionID returns the session identifier used on telemetry snapshots.
func (s *Scheduler) SessionID() string {
	return s.sessionID
}

// Run executes the control loop until ctx is cancelled. On cancellation it
// exits within one tick period and forces the gaze controller to IDLE,
// skipping the return interpolation, so no further motion is issued.
func (s *Scheduler) Run(ctx context.Context) error {
	period := s.cfg.TickPeriod()
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	log.Info("tracking session started",
		"session", s.sessionID,
		"label", s.cfg.Label,
		"confidence", s.cfg.ConfidenceThreshold,
		"hz", s.cfg.ControlHz,
		"miss_timeout", s.cfg.MissTimeout)

	for {
		select {
		case <-ctx.Done():
			s.gaze.Stop()
			s.mu.Lock()
			s.state = s.gaze.State()
			s.mu.Unlock()
			log.Info("tracking session stopped", "session", s.sessionID)
			return ctx.Err()

		case <-ticker.C:
			s.tick(time.Now())
		}
	}
}

// tick runs one pipeline pass. Every failure mode short of dispatch keeps
// the tick alive: no frame and stale results degrade to "nothing seen",
// detector errors degrade to an empty detection set.
func (s *Scheduler) tick(now time.Time) {
	s.mu.Lock()
	s.stats.Ticks++
	s.mu.Unlock()

	frame, ok := s.source.Latest()
	if !ok {
		// No camera yet. The tick is a no-op but stays on schedule.
		s.count(func(st *Stats) { st.NoFrameTicks++ })
		s.publish()
		return
	}

	var items []detection.Detection
	if frame.Age(now) > s.cfg.MaxFrameAge {
		// Camera stalled; run the rest of the pipeline with no detections
		// so the miss/return machinery still advances.
		s.count(func(st *Stats) { st.StaleFrameTicks++ })
	} else {
		set, err := s.adapter.Detect(frame)
		if err != nil {
			if errors.Is(err, ErrDetectTimeout) {
				s.count(func(st *Stats) { st.DetectTimeouts++ })
			} else {
				s.count(func(st *Stats) { st.DetectErrors++ })
				log.Debug("detection failed", "error", err)
			}
		}
		// A detection never outlives its source frame: drop results that
		// have gone stale relative to the control clock.
		if set.Fresh(s.cfg.MaxResultAge, now) {
			items = set.Items
		}
	}

	radius := s.cfg.ContinuityRadiusFrac * float64(frame.Width)
	var selected *detection.Detection
	if d, found := Select(items, s.tracks.Current(), radius); found {
		selected = &d
	}

	target := s.tracks.Update(selected, now)

	cmd, emit := s.gaze.Update(target, frame.Width, frame.Height, now)
	if emit {
		s.dispatch(cmd, now)
	}

	s.mu.Lock()
	s.state = s.gaze.State()
	s.stats.ClampEvents = s.gaze.ClampEvents()
	s.lastTarget = targetInfo(target)
	s.mu.Unlock()

	s.publish()
}

// dispatch hands the clamped command to the motion interface. Failures are
// counted and logged (rate-limited) but never end the session; the robot
// simply may not have moved this tick.
func (s *Scheduler) dispatch(cmd Command, now time.Time) {
	err := s.motion.SendGaze(cmd.Pan, cmd.Tilt, cmd.Duration)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.stats.MotionErrors++
		s.lastMotionErr = err
		if now.Sub(s.lastMotionLog) > motionErrorLogInterval {
			log.Warn("motion dispatch failed",
				"error", err, "total_errors", s.stats.MotionErrors)
			s.lastMotionLog = now
		}
		return
	}

	s.lastCmd = &CommandInfo{
		PanDeg:     Degrees(cmd.Pan),
		TiltDeg:    Degrees(cmd.Tilt),
		DurationMs: cmd.Duration.Milliseconds(),
		Clamped:    cmd.Clamped,
	}
}

// Stats returns a copy of the session counters.
func (s *Scheduler) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// LastMotionError returns the most recent motion dispatch failure, or nil.
func (s *Scheduler) LastMotionError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastMotionErr
}

// Telemetry returns the current session snapshot.
func (s *Scheduler) Telemetry() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		SessionID:   s.sessionID,
		State:       s.state.String(),
		Target:      s.lastTarget,
		LastCommand: s.lastCmd,
		Stats:       s.stats,
		Time:        time.Now(),
	}
}

func (s *Scheduler) count(f func(*Stats)) {
	s.mu.Lock()
	f(&s.stats)
	s.mu.Unlock()
}

func (s *Scheduler) publish() {
	if s.sink == nil {
		return
	}
	s.sink.PublishSnapshot(s.Telemetry())
}

func targetInfo(t *Target) *TargetInfo {
	if t == nil {
		return nil
	}
	return &TargetInfo{
		Label:    t.Label,
		U:        t.Region.U,
		V:        t.Region.V,
		W:        t.Region.W,
		H:        t.Region.H,
		Misses:   t.Misses,
		LastSeen: t.LastSeen,
	}
}
