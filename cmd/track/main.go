// Target tracking for Reachy Mini.
//
// Connects to the robot daemon and camera stream, runs the closed-loop
// tracking session and drives the head toward the configured target label.
//
// Usage:
//
//	ROBOT_IP=192.168.68.80 TRACK_LABEL=person go run ./cmd/track
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/strobotta/minitrack/internal/config"
	"github.com/strobotta/minitrack/internal/log"
	"github.com/strobotta/minitrack/pkg/detection"
	"github.com/strobotta/minitrack/pkg/robot"
	"github.com/strobotta/minitrack/pkg/tracking"
	"github.com/strobotta/minitrack/pkg/video"
	"github.com/strobotta/minitrack/pkg/web"
)

func main() {
	log.Init(config.String("LOG_LEVEL", "info"))

	robotIP := config.RobotIPRequired()
	cfg := buildConfig()

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	if cfg.Label != detection.FaceLabel && !detection.ValidLabel(cfg.Label) {
		log.Warn("label is not a COCO class; the detector will never match it", "label", cfg.Label)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Motion interface
	controller := robot.NewHTTPController(robotIP)
	if state, err := controller.GetDaemonStatus(); err != nil {
		log.Error("robot daemon unreachable", "error", err)
		os.Exit(1)
	} else {
		log.Info("robot daemon ready", "state", state)
	}

	// Detector
	detector, err := buildDetector(cfg.Label)
	if err != nil {
		log.Error("detector init failed", "error", err)
		os.Exit(1)
	}
	defer detector.Close()

	// Camera stream
	videoClient := video.NewClient(robotIP, 100*time.Millisecond)
	if err := videoClient.Connect(ctx); err != nil {
		log.Error("video connect failed", "error", err)
		os.Exit(1)
	}
	defer videoClient.Close()

	// Optional telemetry dashboard
	var sink tracking.Sink
	if port := config.String("TRACK_DASHBOARD_PORT", ""); port != "" {
		srv := web.NewServer(port)
		go func() {
			if err := srv.Start(); err != nil {
				log.Error("dashboard server stopped", "error", err)
			}
		}()
		defer srv.Shutdown()
		sink = srv
	}

	sched, err := tracking.NewScheduler(cfg, videoClient.Source(), detector, controller, sink)
	if err != nil {
		log.Error("scheduler init failed", "error", err)
		os.Exit(1)
	}

	err = sched.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Error("tracking loop failed", "error", err)
		os.Exit(1)
	}

	stats := sched.Stats()
	log.Info("session finished",
		"ticks", stats.Ticks,
		"no_frame_ticks", stats.NoFrameTicks,
		"detect_errors", stats.DetectErrors,
		"detect_timeouts", stats.DetectTimeouts,
		"motion_errors", stats.MotionErrors,
		"clamp_events", stats.ClampEvents)
}

// buildConfig layers TRACK_* environment overrides on the defaults.
func buildConfig() tracking.Config {
	cfg := tracking.DefaultConfig()

	cfg.Label = config.String("TRACK_LABEL", cfg.Label)
	cfg.ConfidenceThreshold = config.Float("TRACK_CONF", cfg.ConfidenceThreshold)
	cfg.ControlHz = config.Float("TRACK_HZ", cfg.ControlHz)
	cfg.MissTimeout = config.Duration("TRACK_MISS_TIMEOUT", cfg.MissTimeout)
	cfg.ReturnDuration = config.Duration("TRACK_RETURN_DURATION", cfg.ReturnDuration)
	cfg.DetectInterval = config.Duration("TRACK_DETECT_INTERVAL", cfg.DetectInterval)
	cfg.SmoothAlpha = config.Float("TRACK_SMOOTH_ALPHA", cfg.SmoothAlpha)
	cfg.MaxPan = tracking.Radians(config.Float("TRACK_MAX_PAN_DEG", tracking.Degrees(cfg.MaxPan)))
	cfg.MaxTilt = tracking.Radians(config.Float("TRACK_MAX_TILT_DEG", tracking.Degrees(cfg.MaxTilt)))
	cfg.ScanEnabled = config.Bool("TRACK_SCAN", cfg.ScanEnabled)

	return cfg
}

// buildDetector picks the detection backend. YOLO by default; the YuNet
// face detector when tracking faces.
func buildDetector(label string) (detection.Detector, error) {
	backend := config.String("TRACK_DETECTOR", "yolo")
	if label == detection.FaceLabel {
		backend = config.String("TRACK_DETECTOR", "yunet")
	}

	dcfg := detection.DefaultConfig()
	switch backend {
	case "yunet":
		dcfg.ModelPath = config.String("TRACK_MODEL", "models/face_detection_yunet.onnx")
		dcfg.InputWidth = 320
		dcfg.InputHeight = 320
		dcfg.ConfidenceThresh = 0.5
		dcfg.NMSThresh = 0.3
		return detection.NewYuNet(dcfg)
	default:
		dcfg.ModelPath = config.String("TRACK_MODEL", dcfg.ModelPath)
		return detection.NewYOLO(dcfg)
	}
}
