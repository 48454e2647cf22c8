// Package detection provides object detection using computer vision
package detection

import "math"

// Detection represents a detected object in pixel coordinates
type Detection struct {
	Label      string  // Class label ("person", "dog", ...)
	Confidence float64 // Detection confidence (0-1)
	U, V       float64 // Bounding box center in pixels
	W, H       float64 // Bounding box width and height in pixels
}

// Center returns the center point of the bounding box.
func (d Detection) Center() (u, v float64) {
	return d.U, d.V
}

// Area returns the area of the bounding box.
func (d Detection) Area() float64 {
	return d.W * d.H
}

// DistanceTo returns the Euclidean pixel distance between the centers
// of d and other.
func (d Detection) DistanceTo(other Detection) float64 {
	du := d.U - other.U
	dv := d.V - other.V
	return math.Hypot(du, dv)
}

// Detector is the interface for object detection backends
type Detector interface {
	// Detect finds objects in the JPEG image and returns their positions
	Detect(jpeg []byte) ([]Detection, error)

	// Close releases resources
	Close() error
}

// Config holds detector configuration
type Config struct {
	ModelPath        string  // Path to ONNX model
	ConfidenceThresh float64 // Minimum confidence (default 0.25)
	NMSThresh        float64 // Non-maximum suppression threshold
	InputWidth       int     // Model input width
	InputHeight      int     // Model input height
}

// DefaultConfig returns production defaults for YOLOv8n
func DefaultConfig() Config {
	return Config{
		ModelPath:        "models/yolov8n.onnx",
		ConfidenceThresh: 0.25,
		NMSThresh:        0.45,
		InputWidth:       640,
		InputHeight:      640,
	}
}
