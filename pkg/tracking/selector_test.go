package tracking

import (
	"testing"
	"time"

	"github.com/strobotta/minitrack/pkg/detection"
)

func det(label string, conf, u, v, w, h float64) detection.Detection {
	return detection.Detection{Label: label, Confidence: conf, U: u, V: v, W: w, H: h}
}

func TestSelectEmpty(t *testing.T) {
	_, found := Select(nil, nil, 100)
	if found {
		t.Fatal("expected no selection from empty input")
	}
}

func TestSelectHighestConfidence(t *testing.T) {
	items := []detection.Detection{
		det("person", 0.75, 100, 100, 50, 100),
		det("person", 0.92, 400, 200, 50, 100),
		det("person", 0.80, 300, 150, 50, 100),
	}

	got, found := Select(items, nil, 100)
	if !found {
		t.Fatal("expected a selection")
	}
	if got.Confidence != 0.92 {
		t.Errorf("expected confidence 0.92 winner, got %v", got.Confidence)
	}
}

func TestSelectConfidenceTieGoesToLargerArea(t *testing.T) {
	items := []detection.Detection{
		det("person", 0.9, 100, 100, 40, 80),
		det("person", 0.9, 400, 200, 60, 120),
	}

	got, _ := Select(items, nil, 100)
	if got.U != 400 {
		t.Errorf("expected larger box to win the tie, got box at u=%v", got.U)
	}
}

func TestSelectFullTieKeepsInputOrder(t *testing.T) {
	items := []detection.Detection{
		det("person", 0.9, 100, 100, 50, 100),
		det("person", 0.9, 400, 200, 50, 100),
	}

	got, _ := Select(items, nil, 100)
	if got.U != 100 {
		t.Errorf("expected first detection on a full tie, got box at u=%v", got.U)
	}
}

func TestSelectContinuityBeatsConfidence(t *testing.T) {
	prev := &Target{
		Label:    "person",
		Region:   det("person", 0.8, 200, 200, 50, 100),
		LastSeen: time.Now(),
	}
	items := []detection.Detection{
		det("person", 0.95, 600, 200, 50, 100), // more confident but far away
		det("person", 0.75, 210, 205, 50, 100), // near the previous target
	}

	got, _ := Select(items, prev, 100)
	if got.U != 210 {
		t.Errorf("expected continuity pick near u=210, got u=%v", got.U)
	}
}

func TestSelectContinuityRadiusExceeded(t *testing.T) {
	prev := &Target{
		Label:    "person",
		Region:   det("person", 0.8, 200, 200, 50, 100),
		LastSeen: time.Now(),
	}
	// Everything is outside the continuity radius; fall back to confidence.
	items := []detection.Detection{
		det("person", 0.95, 600, 200, 50, 100),
		det("person", 0.75, 400, 205, 50, 100),
	}

	got, _ := Select(items, prev, 50)
	if got.U != 600 {
		t.Errorf("expected confidence fallback to u=600, got u=%v", got.U)
	}
}

func TestSelectDeterministic(t *testing.T) {
	items := []detection.Detection{
		det("person", 0.9, 100, 100, 50, 100),
		det("person", 0.9, 400, 200, 50, 100),
		det("person", 0.85, 300, 150, 60, 120),
	}

	first, _ := Select(items, nil, 100)
	for i := 0; i < 50; i++ {
		got, _ := Select(items, nil, 100)
		if got != first {
			t.Fatalf("selection changed between identical calls: %+v vs %+v", got, first)
		}
	}
}
