package tracking

import "github.com/strobotta/minitrack/pkg/detection"

// Select picks at most one detection as the target. The policy, in order:
//
//  1. If a previous target exists, prefer the detection whose center is
//     closest to it, provided the distance is under continuityRadius. This
//     keeps the gaze on the same object when several same-label objects
//     are in frame.
//  2. Otherwise take the highest confidence.
//  3. Confidence ties go to the larger bounding box (nearer object).
//  4. Remaining ties go to the earlier detection in the input.
//
// Pure function of its inputs: identical arguments always yield the
// identical pick.
func Select(items []detection.Detection, prev *Target, continuityRadius float64) (detection.Detection, bool) {
	if len(items) == 0 {
		return detection.Detection{}, false
	}

	if prev != nil {
		bestIdx := -1
		bestDist := continuityRadius
		for i, d := range items {
			dist := d.DistanceTo(prev.Region)
			if dist < bestDist {
				bestDist = dist
				bestIdx = i
			}
		}
		if bestIdx >= 0 {
			return items[bestIdx], true
		}
	}

	best := 0
	for i := 1; i < len(items); i++ {
		if better(items[i], items[best]) {
			best = i
		}
	}
	return items[best], true
}

// better reports whether a should be picked over b: higher confidence wins,
// equal confidence falls back to larger area. Strict comparisons keep the
// earlier detection on full ties.
func better(a, b detection.Detection) bool {
	if a.Confidence != b.Confidence {
		return a.Confidence > b.Confidence
	}
	return a.Area() > b.Area()
}
