package tracking

import (
	"image"
	"math"
	"time"

	"github.com/strobotta/minitrack/internal/log"
)

// State is the gaze controller's mode for a tracking session.
type State int

const (
	// StateIdle means no active target and no return in progress.
	StateIdle State = iota
	// StateTracking means a live target is being followed.
	StateTracking
	// StateReturning means the target was just lost and the gaze is easing
	// back to the neutral pose.
	StateReturning
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateTracking:
		return "tracking"
	case StateReturning:
		return "returning"
	default:
		return "unknown"
	}
}

// Command is one gaze request: a pan/tilt offset in radians plus the
// requested transition duration. During tracking, LookAt carries the
// target's pixel position for actuators that prefer image-space requests.
// Clamped is set when the safety bounds trimmed the computed offsets.
type Command struct {
	Pan      float64
	Tilt     float64
	Duration time.Duration
	LookAt   *image.Point
	Clamped  bool
}

// GazeController converts the tracked target's image position into bounded
// gaze commands, and eases back to neutral when the target is lost.
//
// State machine: IDLE → TRACKING on the first live target; TRACKING →
// RETURNING when the track store discards the target; RETURNING → IDLE once
// the gaze is back at neutral, or RETURNING → TRACKING if the target
// reappears mid-return. Stop forces IDLE from any state.
//
// Owned exclusively by the control loop tick; not safe for concurrent use.
type GazeController struct {
	cfg Config

	state State

	// Commanded offsets (radians). Always within the safety bounds.
	pan, tilt float64

	// EMA-smoothed normalized image offsets
	sdx, sdy  float64
	hasSmooth bool

	// Return interpolation
	returnStart    time.Time
	returnFromPan  float64
	returnFromTilt float64

	// Idle scan
	idleSince time.Time

	wasClamped  bool
	clampEvents uint64
}

// NewGazeController creates a gaze controller in IDLE.
func NewGazeController(cfg Config) *GazeController {
	return &GazeController{
		cfg:       cfg,
		idleSince: time.Now(),
	}
}

// State returns the current controller state.
func (g *GazeController) State() State {
	return g.state
}

// Offsets returns the current commanded pan/tilt offsets in radians.
func (g *GazeController) Offsets() (pan, tilt float64) {
	return g.pan, g.tilt
}

// ClampEvents returns how many emitted commands were trimmed by the
// safety bounds.
func (g *GazeController) ClampEvents() uint64 {
	return g.clampEvents
}

// Update advances the state machine one tick and returns the gaze command
// to dispatch, if any. target is the live track target (nil when none);
// frameW/frameH are the dimensions of the frame the target was detected in.
func (g *GazeController) Update(target *Target, frameW, frameH int, now time.Time) (Command, bool) {
	if target != nil {
		if g.state != StateTracking {
			// IDLE → TRACKING on the first live target; a reappearing
			// target also interrupts RETURNING directly into TRACKING.
			log.Info("gaze tracking", "from", g.state.String(), "label", target.Label)
			g.state = StateTracking
		}
		return g.trackingCommand(target, frameW, frameH), true
	}

	switch g.state {
	case StateTracking:
		log.Info("gaze target lost, returning to neutral",
			"pan_deg", Degrees(g.pan), "tilt_deg", Degrees(g.tilt))
		g.state = StateReturning
		g.returnStart = now
		g.returnFromPan = g.pan
		g.returnFromTilt = g.tilt
		g.sdx, g.sdy, g.hasSmooth = 0, 0, false
		return g.returningCommand(now), true

	case StateReturning:
		return g.returningCommand(now), true

	default: // StateIdle
		return g.idleCommand(now)
	}
}

// Stop forces the controller to IDLE, skipping any return interpolation.
// No command is emitted; the session is over.
func (g *GazeController) Stop() {
	if g.state != StateIdle {
		log.Info("gaze stopped", "from", g.state.String())
	}
	g.state = StateIdle
	g.pan, g.tilt = 0, 0
	g.sdx, g.sdy, g.hasSmooth = 0, 0, false
	g.idleSince = time.Now()
}

// trackingCommand runs the control law: deadband, EMA smoothing of the
// normalized image offset, then an incremental proportional step.
func (g *GazeController) trackingCommand(target *Target, frameW, frameH int) Command {
	cx := float64(frameW) / 2
	cy := float64(frameH) / 2

	du := target.Region.U - cx
	dv := target.Region.V - cy

	if math.Abs(du) < g.cfg.DeadbandPx {
		du = 0
	}
	if math.Abs(dv) < g.cfg.DeadbandPx {
		dv = 0
	}

	dx := du / cx
	dy := dv / cy

	if g.hasSmooth {
		g.sdx = g.cfg.SmoothAlpha*g.sdx + (1-g.cfg.SmoothAlpha)*dx
		g.sdy = g.cfg.SmoothAlpha*g.sdy + (1-g.cfg.SmoothAlpha)*dy
	} else {
		g.sdx, g.sdy = dx, dy
		g.hasSmooth = true
	}

	pan := g.pan + g.cfg.KpPan*g.sdx
	tilt := g.tilt + g.cfg.KpTilt*(-g.sdy)

	lookAt := image.Pt(int(target.Region.U), int(target.Region.V))
	return g.emit(pan, tilt, &lookAt)
}

// returningCommand eases the offset back toward neutral with a smoothstep
// so there is no velocity jump at either end. Transitions to IDLE once
// within epsilon of neutral.
func (g *GazeController) returningCommand(now time.Time) Command {
	t := float64(now.Sub(g.returnStart)) / float64(g.cfg.ReturnDuration)
	if t > 1 {
		t = 1
	}
	s := t * t * (3 - 2*t)

	pan := g.returnFromPan * (1 - s)
	tilt := g.returnFromTilt * (1 - s)

	cmd := g.emit(pan, tilt, nil)

	if t >= 1 || (math.Abs(pan) <= g.cfg.NeutralEpsilon && math.Abs(tilt) <= g.cfg.NeutralEpsilon) {
		g.state = StateIdle
		g.pan, g.tilt = 0, 0
		g.idleSince = now
		log.Info("gaze at neutral")
	}
	return cmd
}

// idleCommand optionally sweeps the gaze while idle to look for a target.
func (g *GazeController) idleCommand(now time.Time) (Command, bool) {
	if !g.cfg.ScanEnabled {
		return Command{}, false
	}
	idle := now.Sub(g.idleSince)
	if idle < g.cfg.ScanStartDelay {
		return Command{}, false
	}

	phase := 2 * math.Pi * float64(idle-g.cfg.ScanStartDelay) / float64(g.cfg.ScanPeriod)
	pan := g.cfg.ScanAmplitude * math.Sin(phase)
	return g.emit(pan, g.cfg.ScanTilt, nil), true
}

// emit clamps the computed offsets to the safety bounds, records them as
// the current commanded position and builds the outgoing command. The
// clamp is unconditional and is the last step before dispatch.
func (g *GazeController) emit(pan, tilt float64, lookAt *image.Point) Command {
	clampedPan := clamp(pan, -g.cfg.MaxPan, g.cfg.MaxPan)
	clampedTilt := clamp(tilt, -g.cfg.MaxTilt, g.cfg.MaxTilt)
	clamped := clampedPan != pan || clampedTilt != tilt

	if clamped {
		g.clampEvents++
		if !g.wasClamped {
			log.Warn("gaze command clamped to safety bounds",
				"pan_deg", Degrees(pan), "tilt_deg", Degrees(tilt),
				"max_pan_deg", Degrees(g.cfg.MaxPan), "max_tilt_deg", Degrees(g.cfg.MaxTilt))
		}
	}
	g.wasClamped = clamped

	g.pan, g.tilt = clampedPan, clampedTilt

	return Command{
		Pan:      clampedPan,
		Tilt:     clampedTilt,
		Duration: g.cfg.CommandDuration,
		LookAt:   lookAt,
		Clamped:  clamped,
	}
}
