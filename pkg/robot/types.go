package robot

// Physical head limits (radians). These are hardware ceilings to prevent
// sending impossible commands to the daemon; the tracking session applies
// its own, tighter, configurable bounds before commands ever reach here.
const (
	MaxHeadRoll  = 0.35 // ±20° (conservative)
	MaxHeadPitch = 0.52 // ±30°
	MaxHeadYaw   = 1.05 // ±60°
)

// clamp restricts v to the range [min, max].
func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// Offset represents additive head adjustments (roll, pitch, yaw in radians)
type Offset struct {
	Roll, Pitch, Yaw float64
}

// Clamp returns a new Offset with values clamped to physical head limits.
func (o Offset) Clamp() Offset {
	return Offset{
		Roll:  clamp(o.Roll, -MaxHeadRoll, MaxHeadRoll),
		Pitch: clamp(o.Pitch, -MaxHeadPitch, MaxHeadPitch),
		Yaw:   clamp(o.Yaw, -MaxHeadYaw, MaxHeadYaw),
	}
}

// Add returns a new Offset that is the sum of o and other
func (o Offset) Add(other Offset) Offset {
	return Offset{
		Roll:  o.Roll + other.Roll,
		Pitch: o.Pitch + other.Pitch,
		Yaw:   o.Yaw + other.Yaw,
	}
}

// Pose is the head pose reported by the daemon after a look-at request.
type Pose struct {
	Position    [3]float64 `json:"position"`    // x, y, z
	Orientation [4]float64 `json:"orientation"` // quaternion
}
