package detection

import (
	"fmt"
	"image"
	"os"
	"sync"

	"gocv.io/x/gocv"

	"github.com/strobotta/minitrack/internal/log"
)

// YOLODetector uses YOLOv8 for general object detection
type YOLODetector struct {
	net       gocv.Net
	config    Config
	mu        sync.Mutex // Protects inference
	inputSize image.Point
}

// NewYOLO creates a new YOLO object detector
func NewYOLO(cfg Config) (*YOLODetector, error) {
	// Check if model file exists
	if _, err := os.Stat(cfg.ModelPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("model file not found: %s", cfg.ModelPath)
	}

	// Load ONNX model
	net := gocv.ReadNetFromONNX(cfg.ModelPath)
	if net.Empty() {
		return nil, fmt.Errorf("failed to load YOLO model from %s", cfg.ModelPath)
	}

	// Set backend and target
	net.SetPreferableBackend(gocv.NetBackendDefault)
	net.SetPreferableTarget(gocv.NetTargetCPU)

	return &YOLODetector{
		net:       net,
		config:    cfg,
		inputSize: image.Pt(cfg.InputWidth, cfg.InputHeight),
	}, nil
}

// Detect finds objects in the JPEG image
func (d *YOLODetector) Detect(jpeg []byte) ([]Detection, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	// Decode JPEG to Mat
	img, err := gocv.IMDecode(jpeg, gocv.IMReadColor)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	defer img.Close()

	if img.Empty() {
		return nil, fmt.Errorf("empty image")
	}

	imgW := float32(img.Cols())
	imgH := float32(img.Rows())

	// Create blob from image
	blob := gocv.BlobFromImage(img, 1.0/255.0, d.inputSize, gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	// Set input
	d.net.SetInput(blob, "")

	// Forward pass
	output := d.net.Forward("")
	defer output.Close()

	detections := d.parseYOLOv8Output(output, imgW, imgH)

	if len(detections) > 0 {
		log.Debug("yolo inference", "objects", len(detections))
	}

	return detections, nil
}

// parseYOLOv8Output parses the YOLOv8 output tensor.
// Output shape: [1, 84, 8400] - 84 = 4 bbox + 80 classes, 8400 candidates
func (d *YOLODetector) parseYOLOv8Output(output gocv.Mat, imgW, imgH float32) []Detection {
	var boxes []image.Rectangle
	var confidences []float32
	var classIDs []int

	// YOLOv8 output is [1, 84, 8400]: columns are candidates, rows are
	// 4 bbox values followed by 80 class scores.
	rows := output.Cols() // 8400 candidates
	cols := output.Rows() // 84

	data, err := output.DataPtrFloat32()
	if err != nil {
		return nil
	}

	for i := 0; i < rows; i++ {
		// Best class score for this candidate (scores start at index 4)
		maxScore := float32(0)
		maxClassID := 0

		for c := 4; c < cols; c++ {
			score := data[c*rows+i]
			if score > maxScore {
				maxScore = score
				maxClassID = c - 4
			}
		}

		if maxScore < float32(d.config.ConfidenceThresh) {
			continue
		}

		// Bounding box in model input space (center x, center y, width, height)
		cx := data[0*rows+i]
		cy := data[1*rows+i]
		w := data[2*rows+i]
		h := data[3*rows+i]

		// Convert to corner format and scale to image size
		x1 := int((cx - w/2) * imgW / float32(d.config.InputWidth))
		y1 := int((cy - h/2) * imgH / float32(d.config.InputHeight))
		x2 := int((cx + w/2) * imgW / float32(d.config.InputWidth))
		y2 := int((cy + h/2) * imgH / float32(d.config.InputHeight))

		boxes = append(boxes, image.Rect(x1, y1, x2, y2))
		confidences = append(confidences, maxScore)
		classIDs = append(classIDs, maxClassID)
	}

	if len(boxes) == 0 {
		return nil
	}

	// Apply NMS
	indices := gocv.NMSBoxes(boxes, confidences, float32(d.config.ConfidenceThresh), float32(d.config.NMSThresh))

	var detections []Detection
	for _, idx := range indices {
		box := boxes[idx]
		detections = append(detections, Detection{
			Label:      COCOClasses[classIDs[idx]],
			Confidence: float64(confidences[idx]),
			U:          float64(box.Min.X) + float64(box.Dx())/2,
			V:          float64(box.Min.Y) + float64(box.Dy())/2,
			W:          float64(box.Dx()),
			H:          float64(box.Dy()),
		})
	}

	return detections
}

// Close releases the detector resources
func (d *YOLODetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.net.Close()
	return nil
}

// COCOClasses contains the 80 COCO class names
var COCOClasses = []string{
	"person", "bicycle", "car", "motorcycle", "airplane", "bus", "train", "truck", "boat",
	"traffic light", "fire hydrant", "stop sign", "parking meter", "bench", "bird", "cat",
	"dog", "horse", "sheep", "cow", "elephant", "bear", "zebra", "giraffe", "backpack",
	"umbrella", "handbag", "tie", "suitcase", "frisbee", "skis", "snowboard", "sports ball",
	"kite", "baseball bat", "baseball glove", "skateboard", "surfboard", "tennis racket",
	"bottle", "wine glass", "cup", "fork", "knife", "spoon", "bowl", "banana", "apple",
	"sandwich", "orange", "broccoli", "carrot", "hot dog", "pizza", "donut", "cake", "chair",
	"couch", "potted plant", "bed", "dining table", "toilet", "tv", "laptop", "mouse",
	"remote", "keyboard", "cell phone", "microwave", "oven", "toaster", "sink", "refrigerator",
	"book", "clock", "vase", "scissors", "teddy bear", "hair drier", "toothbrush",
}

// ValidLabel returns true if label is a known COCO class.
func ValidLabel(label string) bool {
	for _, c := range COCOClasses {
		if c == label {
			return true
		}
	}
	return false
}
