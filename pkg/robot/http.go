package robot

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/strobotta/minitrack/internal/httpc"
)

// moveTimeout bounds every motion request so a stalled daemon can never
// block the control loop for more than a fraction of a tick budget.
const moveTimeout = 2 * time.Second

// HTTPController implements robot control using the daemon's HTTP API.
type HTTPController struct {
	BaseURL string
	client  *http.Client
}

// NewHTTPController creates a new HTTP-based robot controller.
func NewHTTPController(robotIP string) *HTTPController {
	return &HTTPController{
		BaseURL: fmt.Sprintf("http://%s:8000", robotIP),
		client:  httpc.NewClient(moveTimeout),
	}
}

// LookAtImage asks the daemon to aim the head at a camera pixel coordinate.
func (r *HTTPController) LookAtImage(u, v int, duration time.Duration, perform bool) (Pose, error) {
	payload := map[string]interface{}{
		"u":                u,
		"v":                v,
		"duration":         duration.Seconds(),
		"perform_movement": perform,
	}
	return r.postLookAt("/api/move/look_at_image", payload)
}

// LookAtWorld asks the daemon to aim the head at a world coordinate (meters).
func (r *HTTPController) LookAtWorld(x, y, z float64, duration time.Duration) (Pose, error) {
	payload := map[string]interface{}{
		"x":        x,
		"y":        y,
		"z":        z,
		"duration": duration.Seconds(),
	}
	return r.postLookAt("/api/move/look_at_world", payload)
}

// SendGaze applies a pan/tilt head offset over the given duration.
// Pan maps to head yaw, tilt to head pitch; roll stays neutral.
func (r *HTTPController) SendGaze(pan, tilt float64, duration time.Duration) error {
	payload := map[string]interface{}{
		"target_head_pose": map[string]float64{
			"roll":  0,
			"pitch": tilt,
			"yaw":   pan,
		},
		"target_antennas": nil,
		"target_body_yaw": nil,
		"duration":        duration.Seconds(),
	}
	return r.postMove(payload)
}

// SetHeadPose sets the robot's head position directly (preserves body yaw).
func (r *HTTPController) SetHeadPose(roll, pitch, yaw float64) error {
	payload := map[string]interface{}{
		"target_head_pose": map[string]float64{
			"roll":  roll,
			"pitch": pitch,
			"yaw":   yaw,
		},
		"target_antennas": nil,
		"target_body_yaw": nil,
		"duration":        0.3,
	}
	return r.postMove(payload)
}

// GetDaemonStatus returns the robot daemon status.
func (r *HTTPController) GetDaemonStatus() (string, error) {
	resp, err := r.client.Get(r.BaseURL + "/api/daemon/status")
	if err != nil {
		return "", fmt.Errorf("daemon status request failed: %w", err)
	}
	defer resp.Body.Close()

	var status struct {
		State string `json:"state"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return "", fmt.Errorf("failed to decode daemon status: %w", err)
	}

	return status.State, nil
}

// postLookAt sends a look-at request and decodes the resulting pose.
func (r *HTTPController) postLookAt(path string, payload map[string]interface{}) (Pose, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Pose{}, fmt.Errorf("failed to marshal look-at payload: %w", err)
	}

	resp, err := r.client.Post(r.BaseURL+path, "application/json", bytes.NewReader(data))
	if err != nil {
		return Pose{}, fmt.Errorf("look-at request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Pose{}, fmt.Errorf("look-at request returned %s", resp.Status)
	}

	var pose Pose
	if err := json.NewDecoder(resp.Body).Decode(&pose); err != nil {
		return Pose{}, fmt.Errorf("failed to decode pose: %w", err)
	}
	return pose, nil
}

// postMove sends a movement command to the robot API.
func (r *HTTPController) postMove(payload map[string]interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal move payload: %w", err)
	}

	resp, err := r.client.Post(r.BaseURL+"/api/move/set_target", "application/json", bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("move request failed: %w", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("move request returned %s", resp.Status)
	}
	return nil
}
