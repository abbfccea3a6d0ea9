package curve

import "github.com/philipswan/TetheredRing-sub000/pkg/core"

// Kinematic is a constant-acceleration trajectory along a frame path of
// the given arc length. Transit vehicles use zero acceleration; launch
// vehicles on a mass driver accelerate from rest.
type Kinematic struct {
	StartFraction float64
	PathLength    float64
	Speed         float64
	Acceleration  float64
	Lifetime      float64
}

// Duration returns the lifetime on the trajectory in seconds.
func (k Kinematic) Duration() float64 {
	return k.Lifetime
}

// FractionAt returns the wrapped frame fraction after elapsed seconds.
// Negative elapsed times stay at the start.
func (k Kinematic) FractionAt(elapsed float64) float64 {
	if elapsed < 0 {
		elapsed = 0
	}
	s := k.Speed*elapsed + 0.5*k.Acceleration*elapsed*elapsed
	return core.Wrap(k.StartFraction + s/k.PathLength)
}

// ZoneIndex returns the zone after elapsed seconds, or core.NoZone once the
// trajectory has been left.
func (k Kinematic) ZoneIndex(elapsed float64, zones int) int {
	if elapsed > k.Lifetime {
		return core.NoZone
	}
	return ZoneOf(k.FractionAt(elapsed), zones)
}
