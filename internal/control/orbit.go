package control

import (
	"math"
	"sync"
	"time"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/philipswan/TetheredRing-sub000/internal/config"
	"github.com/philipswan/TetheredRing-sub000/internal/geo"
)

// Orbit drives the camera around the polar axis at a fixed latitude and
// altitude. An operator may pin it to a position and release it again.
type Orbit struct {
	cfg config.CameraConfig

	mu     sync.Mutex
	pinned bool
	pin    r3.Vec
}

// NewOrbit creates a camera orbit from configuration.
func NewOrbit(cfg config.CameraConfig) *Orbit {
	return &Orbit{cfg: cfg}
}

// Geodetic returns the orbiting camera position after elapsed time. A
// zero orbit period keeps the camera at its configured longitude.
func (o *Orbit) Geodetic(elapsed time.Duration) geo.Geodetic {
	lon := o.cfg.Longitude
	if o.cfg.OrbitPeriod > 0 {
		turns := elapsed.Seconds() / o.cfg.OrbitPeriod.Seconds()
		lon += 360 * (turns - math.Floor(turns))
	}
	if lon > 180 {
		lon -= 360
	}
	return geo.Geodetic{Longitude: lon, Latitude: o.cfg.Latitude, Altitude: o.cfg.Altitude}
}

// Position returns the camera position after elapsed time.
func (o *Orbit) Position(elapsed time.Duration) r3.Vec {
	o.mu.Lock()
	pinned, pin := o.pinned, o.pin
	o.mu.Unlock()
	if pinned {
		return pin
	}
	return geo.ToECEF(o.Geodetic(elapsed))
}

// Pin holds the camera at p until Release.
func (o *Orbit) Pin(p r3.Vec) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.pinned = true
	o.pin = p
}

// Release resumes orbiting.
func (o *Orbit) Release() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.pinned = false
}

// Pinned reports whether the camera is held in place.
func (o *Orbit) Pinned() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.pinned
}
