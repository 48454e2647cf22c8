// Package tracking provides closed-loop visual target tracking and gaze
// control: detect a labeled target in the camera feed and steer the robot's
// head toward it at a fixed control rate, easing back to neutral when the
// target is lost.
package tracking

import "math"

// Default gaze bounds. These are session-level safety limits applied to
// every outgoing command; the robot package enforces its own hardware
// ceilings underneath.
const (
	// DefaultMaxPan is the default pan bound in radians (±55°).
	DefaultMaxPan = 55.0 * math.Pi / 180.0

	// DefaultMaxTilt is the default tilt bound in radians (±25°).
	DefaultMaxTilt = 25.0 * math.Pi / 180.0
)

// Degrees converts radians to degrees for logging/display.
func Degrees(radians float64) float64 {
	return radians * 180.0 / math.Pi
}

// Radians converts degrees to radians.
func Radians(degrees float64) float64 {
	return degrees * math.Pi / 180.0
}

// clamp limits a value to a range
func clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
