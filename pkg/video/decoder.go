package video

import (
	"bytes"
	"fmt"
	"os/exec"
	"sync"
	"time"
)

// Decoder converts accumulated H264 NAL units into JPEG frames using a
// short-lived ffmpeg process with pipe I/O (no temp files). Decoding is
// rate limited so a fast RTP stream cannot saturate the CPU.
type Decoder struct {
	mu          sync.Mutex
	lastDecode  time.Time
	minInterval time.Duration
}

// NewDecoder creates a decoder that produces at most one frame per interval.
func NewDecoder(interval time.Duration) *Decoder {
	return &Decoder{minInterval: interval}
}

// DecodeNAL decodes H264 NAL units to a JPEG image. Returns (nil, nil) when
// the call is rate limited or the input is too small to hold a frame.
func (d *Decoder) DecodeNAL(nalData []byte) ([]byte, error) {
	if len(nalData) < 100 {
		return nil, nil
	}

	d.mu.Lock()
	if time.Since(d.lastDecode) < d.minInterval {
		d.mu.Unlock()
		return nil, nil
	}
	d.lastDecode = time.Now()
	d.mu.Unlock()

	cmd := exec.Command("ffmpeg",
		"-f", "h264", // Input format
		"-i", "pipe:0", // Read from stdin
		"-vframes", "1", // Just one frame
		"-f", "image2pipe", // Output as pipe
		"-vcodec", "mjpeg", // Output as JPEG
		"-q:v", "3", // Quality (1-31, lower is better)
		"pipe:1",
	)

	cmd.Stdin = bytes.NewReader(nalData)
	var stdout bytes.Buffer
	cmd.Stdout = &stdout

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg decode: %w", err)
	}

	jpeg := stdout.Bytes()
	if len(jpeg) < 1000 {
		return nil, fmt.Errorf("decoded frame too small (%d bytes)", len(jpeg))
	}
	return jpeg, nil
}
