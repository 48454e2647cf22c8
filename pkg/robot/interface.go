// Package robot provides interfaces and implementations for Reachy Mini robot control.
//
// This package follows the Interface Segregation Principle by defining
// small, focused interfaces that can be composed as needed. Consumers should
// depend only on the interfaces they actually use.
package robot

import "time"

// GazeActuator provides gaze control for the tracking loop. The daemon owns
// trajectory execution and final hardware limiting; callers are still
// expected to clamp commands to their own session bounds before dispatch.
type GazeActuator interface {
	// LookAtImage aims the head at a pixel coordinate in the camera frame.
	// When perform is false the daemon only computes and returns the pose.
	LookAtImage(u, v int, duration time.Duration, perform bool) (Pose, error)

	// LookAtWorld aims the head at a point in world coordinates (meters).
	LookAtWorld(x, y, z float64, duration time.Duration) (Pose, error)

	// SendGaze applies a pan/tilt head offset (radians) over the given duration.
	SendGaze(pan, tilt float64, duration time.Duration) error
}

// HeadController provides direct head pose control.
type HeadController interface {
	SetHeadPose(roll, pitch, yaw float64) error
}

// StatusController provides robot status queries.
type StatusController interface {
	GetDaemonStatus() (string, error)
}

// Controller is the composite interface for full robot control.
type Controller interface {
	GazeActuator
	HeadController
	StatusController
}

// Ensure HTTPController implements Controller
var _ Controller = (*HTTPController)(nil)
