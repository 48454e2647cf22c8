package detection

import (
	"fmt"
	"image"
	"os"
	"sync"

	"gocv.io/x/gocv"
)

// FaceLabel is the label emitted by the YuNet backend. YuNet only finds
// faces, so every detection carries this label.
const FaceLabel = "face"

// YuNetDetector uses OpenCV's FaceDetectorYN for face detection.
// Use this backend with a "face" target label when tracking people
// close to the robot; it is much cheaper than full YOLO inference.
type YuNetDetector struct {
	detector gocv.FaceDetectorYN
	config   Config
	mu       sync.Mutex // Protects inference
}

// NewYuNet creates a new YuNet face detector using GoCV's built-in FaceDetectorYN
func NewYuNet(cfg Config) (*YuNetDetector, error) {
	if _, err := os.Stat(cfg.ModelPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("model file not found: %s", cfg.ModelPath)
	}

	// Create FaceDetectorYN with initial size (updated per-image)
	detector := gocv.NewFaceDetectorYNWithParams(
		cfg.ModelPath,
		"", // No config file needed for ONNX
		image.Pt(cfg.InputWidth, cfg.InputHeight),
		float32(cfg.ConfidenceThresh),
		float32(cfg.NMSThresh),
		5000, // Top K
		int(gocv.NetBackendDefault),
		int(gocv.NetTargetCPU),
	)

	return &YuNetDetector{
		detector: detector,
		config:   cfg,
	}, nil
}

// Detect finds faces in the JPEG image
func (d *YuNetDetector) Detect(jpeg []byte) ([]Detection, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	img, err := gocv.IMDecode(jpeg, gocv.IMReadColor)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	defer img.Close()

	if img.Empty() {
		return nil, fmt.Errorf("empty image")
	}

	d.detector.SetInputSize(image.Pt(img.Cols(), img.Rows()))

	faces := gocv.NewMat()
	defer faces.Close()

	d.detector.Detect(img, &faces)

	// YuNet output format (15 columns):
	// 0-3: x, y, w, h (bounding box in pixels)
	// 4-13: 5 facial landmarks (x,y pairs)
	// 14: face score
	var detections []Detection
	for r := 0; r < faces.Rows(); r++ {
		x := float64(faces.GetFloatAt(r, 0))
		y := float64(faces.GetFloatAt(r, 1))
		w := float64(faces.GetFloatAt(r, 2))
		h := float64(faces.GetFloatAt(r, 3))
		score := float64(faces.GetFloatAt(r, 14))

		detections = append(detections, Detection{
			Label:      FaceLabel,
			Confidence: score,
			U:          x + w/2,
			V:          y + h/2,
			W:          w,
			H:          h,
		})
	}

	return detections, nil
}

// Close releases the detector resources
func (d *YuNetDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.detector.Close()
	return nil
}
