package tracking

import "time"

// Stats are per-session counters. Purely observational; the loop never
// branches on them.
type Stats struct {
	Ticks           uint64 `json:"ticks"`
	NoFrameTicks    uint64 `json:"no_frame_ticks"`
	StaleFrameTicks uint64 `json:"stale_frame_ticks"`
	DetectErrors    uint64 `json:"detect_errors"`
	DetectTimeouts  uint64 `json:"detect_timeouts"`
	MotionErrors    uint64 `json:"motion_errors"`
	ClampEvents     uint64 `json:"clamp_events"`
}

// TargetInfo describes the live target for external logging/UI.
type TargetInfo struct {
	Label    string    `json:"label"`
	U        float64   `json:"u"`
	V        float64   `json:"v"`
	W        float64   `json:"w"`
	H        float64   `json:"h"`
	Misses   int       `json:"misses"`
	LastSeen time.Time `json:"last_seen"`
}

// CommandInfo describes the last dispatched gaze command.
type CommandInfo struct {
	PanDeg     float64 `json:"pan_deg"`
	TiltDeg    float64 `json:"tilt_deg"`
	DurationMs int64   `json:"duration_ms"`
	Clamped    bool    `json:"clamped"`
}

// Snapshot is the telemetry view of a tracking session: controller state,
// target presence, last command and counters. Exposed for dashboards; not
// required for correctness.
type Snapshot struct {
	SessionID   string       `json:"session_id"`
	State       string       `json:"state"`
	Target      *TargetInfo  `json:"target,omitempty"`
	LastCommand *CommandInfo `json:"last_command,omitempty"`
	Stats       Stats        `json:"stats"`
	Time        time.Time    `json:"time"`
}

// Sink receives telemetry snapshots. Implementations must not block; the
// scheduler calls PublishSnapshot from the control loop.
type Sink interface {
	PublishSnapshot(Snapshot)
}
