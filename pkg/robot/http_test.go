package robot

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestSendGazeMapsPanTiltToHeadPose(t *testing.T) {
	var got struct {
		TargetHeadPose map[string]float64 `json:"target_head_pose"`
		Duration       float64            `json:"duration"`
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/move/set_target" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewHTTPController("127.0.0.1")
	c.BaseURL = srv.URL

	if err := c.SendGaze(0.4, -0.2, 200*time.Millisecond); err != nil {
		t.Fatalf("SendGaze: %v", err)
	}

	if got.TargetHeadPose["yaw"] != 0.4 {
		t.Errorf("pan should map to yaw, got %v", got.TargetHeadPose["yaw"])
	}
	if got.TargetHeadPose["pitch"] != -0.2 {
		t.Errorf("tilt should map to pitch, got %v", got.TargetHeadPose["pitch"])
	}
	if got.TargetHeadPose["roll"] != 0 {
		t.Errorf("roll should stay neutral, got %v", got.TargetHeadPose["roll"])
	}
	if got.Duration != 0.2 {
		t.Errorf("duration should be 0.2s, got %v", got.Duration)
	}
}

func TestSendGazeNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewHTTPController("127.0.0.1")
	c.BaseURL = srv.URL

	if err := c.SendGaze(0.1, 0.1, time.Second); err == nil {
		t.Fatal("expected an error on non-200 status")
	}
}

func TestLookAtImageDecodesPose(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/move/look_at_image" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var payload map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode: %v", err)
		}
		if payload["u"] != float64(320) || payload["v"] != float64(240) {
			t.Errorf("unexpected pixel coordinates: %v", payload)
		}
		json.NewEncoder(w).Encode(Pose{
			Position:    [3]float64{0.1, 0.0, 0.2},
			Orientation: [4]float64{0, 0, 0, 1},
		})
	}))
	defer srv.Close()

	c := NewHTTPController("127.0.0.1")
	c.BaseURL = srv.URL

	pose, err := c.LookAtImage(320, 240, 500*time.Millisecond, true)
	if err != nil {
		t.Fatalf("LookAtImage: %v", err)
	}
	if pose.Position[0] != 0.1 || pose.Orientation[3] != 1 {
		t.Errorf("unexpected pose: %+v", pose)
	}
}

func TestGetDaemonStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/daemon/status" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"state":"running"}`))
	}))
	defer srv.Close()

	c := NewHTTPController("127.0.0.1")
	c.BaseURL = srv.URL

	state, err := c.GetDaemonStatus()
	if err != nil {
		t.Fatalf("GetDaemonStatus: %v", err)
	}
	if state != "running" {
		t.Errorf("expected running, got %q", state)
	}
}
