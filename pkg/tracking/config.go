package tracking

import (
	"fmt"
	"time"
)

// Config holds all tunable parameters for a target tracking session
type Config struct {
	// Target selection
	Label               string  // Class label to track ("person", "dog", ...)
	ConfidenceThreshold float64 // Minimum detection confidence (0-1)

	// Timing
	ControlHz      float64       // Control loop frequency
	DetectInterval time.Duration // Minimum time between model inferences
	DetectTimeout  time.Duration // Max time a tick waits on the detector
	MaxFrameAge    time.Duration // Frames older than this are treated as a sensor gap
	MaxResultAge   time.Duration // Detection sets older than this count as empty

	// Target continuity
	MissTimeout          time.Duration // Undetected longer than this = target lost
	ContinuityRadiusFrac float64       // Continuity radius as a fraction of frame width

	// Control law
	SmoothAlpha float64 // EMA weight on history (0-1, higher = smoother)
	KpPan       float64 // Pan gain (radians per unit normalized offset)
	KpTilt      float64 // Tilt gain (radians per unit normalized offset)
	DeadbandPx  float64 // Ignore pixel offsets smaller than this

	// Safety bounds (radians, symmetric: ±bound)
	MaxPan  float64
	MaxTilt float64

	// Command shape
	CommandDuration time.Duration // Requested transition duration per command

	// Return to neutral
	ReturnDuration time.Duration // How long the ease back to neutral takes
	NeutralEpsilon float64       // Close enough to neutral (radians)

	// Idle scan (off by default)
	ScanEnabled    bool
	ScanStartDelay time.Duration // Idle time before scanning starts
	ScanAmplitude  float64       // Scan sweep amplitude (radians)
	ScanPeriod     time.Duration // One full sweep cycle
	ScanTilt       float64       // Fixed tilt while scanning (radians)
}

// DefaultConfig returns the recommended configuration for responsive tracking.
func DefaultConfig() Config {
	return Config{
		Label:               "person",
		ConfidenceThreshold: 0.7,

		ControlHz:      15,
		DetectInterval: 150 * time.Millisecond,
		DetectTimeout:  60 * time.Millisecond,
		MaxFrameAge:    500 * time.Millisecond,
		MaxResultAge:   750 * time.Millisecond,

		MissTimeout:          1 * time.Second,
		ContinuityRadiusFrac: 0.25,

		SmoothAlpha: 0.85,
		KpPan:       Radians(2.5),
		KpTilt:      Radians(2.0),
		DeadbandPx:  18,

		MaxPan:  DefaultMaxPan,
		MaxTilt: DefaultMaxTilt,

		CommandDuration: 200 * time.Millisecond,

		ReturnDuration: 1500 * time.Millisecond,
		NeutralEpsilon: Radians(0.5),

		ScanEnabled:    false,
		ScanStartDelay: 3 * time.Second,
		ScanAmplitude:  Radians(20),
		ScanPeriod:     6 * time.Second,
		ScanTilt:       Radians(5),
	}
}

// SmoothConfig returns a configuration for slower, steadier gaze.
func SmoothConfig() Config {
	cfg := DefaultConfig()
	cfg.SmoothAlpha = 0.92
	cfg.KpPan = Radians(1.8)
	cfg.KpTilt = Radians(1.5)
	cfg.DetectInterval = 250 * time.Millisecond
	cfg.ReturnDuration = 2 * time.Second
	return cfg
}

// ResponsiveConfig returns a configuration for fast target following.
func ResponsiveConfig() Config {
	cfg := DefaultConfig()
	cfg.ControlHz = 20
	cfg.SmoothAlpha = 0.7
	cfg.KpPan = Radians(3.5)
	cfg.KpTilt = Radians(2.8)
	cfg.DetectInterval = 100 * time.Millisecond
	return cfg
}

// Validate checks the configuration for values that would break the loop.
func (c Config) Validate() error {
	if c.Label == "" {
		return fmt.Errorf("label must not be empty")
	}
	if c.ConfidenceThreshold < 0 || c.ConfidenceThreshold > 1 {
		return fmt.Errorf("confidence threshold %v out of range [0,1]", c.ConfidenceThreshold)
	}
	if c.ControlHz <= 0 {
		return fmt.Errorf("control frequency must be positive, got %v", c.ControlHz)
	}
	if c.SmoothAlpha < 0 || c.SmoothAlpha >= 1 {
		return fmt.Errorf("smoothing alpha %v out of range [0,1)", c.SmoothAlpha)
	}
	if c.MaxPan <= 0 || c.MaxTilt <= 0 {
		return fmt.Errorf("safety bounds must be positive")
	}
	if c.MissTimeout <= 0 {
		return fmt.Errorf("miss timeout must be positive")
	}
	if c.ReturnDuration <= 0 {
		return fmt.Errorf("return duration must be positive")
	}
	if c.ContinuityRadiusFrac <= 0 || c.ContinuityRadiusFrac > 1 {
		return fmt.Errorf("continuity radius fraction %v out of range (0,1]", c.ContinuityRadiusFrac)
	}
	return nil
}

// TickPeriod returns the control loop period.
func (c Config) TickPeriod() time.Duration {
	return time.Duration(float64(time.Second) / c.ControlHz)
}
