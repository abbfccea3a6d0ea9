package curve

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/philipswan/TetheredRing-sub000/pkg/core"
)

const eps = 1e-9

func assertVec(t *testing.T, want, got r3.Vec) {
	t.Helper()
	assert.InDelta(t, want.X, got.X, eps, "X")
	assert.InDelta(t, want.Y, got.Y, eps, "Y")
	assert.InDelta(t, want.Z, got.Z, eps, "Z")
}

func TestZoneOf(t *testing.T) {
	tests := []struct {
		f     float64
		zones int
		want  int
	}{
		{0, 16, 0},
		{0.5, 16, 8},
		{0.999, 16, 15},
		{1, 16, 15},
		{-0.1, 16, 0},
		{0.3125, 16, 5},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ZoneOf(tt.f, tt.zones), "ZoneOf(%v, %d)", tt.f, tt.zones)
	}
}

func TestInterval_Full(t *testing.T) {
	assert.True(t, Interval{Start: 0, Finish: 1}.Full())
	assert.False(t, Interval{Start: 0.9, Finish: 0.1}.Full())
	assert.False(t, Interval{Start: 0.2, Finish: 0.2}.Full())
}

func TestRing_PointAt(t *testing.T) {
	r := NewRing(r3.Vec{}, 100, r3.Vec{Z: 1})

	p := r.PointAt(0)
	assertVec(t, r3.Vec{X: 100}, p.Position)
	assertVec(t, r3.Vec{Y: 1}, p.Basis.Forward)
	assertVec(t, r3.Vec{X: 1}, p.Basis.Up)

	p = r.PointAt(0.25)
	assertVec(t, r3.Vec{Y: 100}, p.Position)
	assertVec(t, r3.Vec{X: -1}, p.Basis.Forward)
	assertVec(t, r3.Vec{Y: 1}, p.Basis.Up)
	assertVec(t, r3.Vec{Z: -1}, p.Basis.Right)

	assert.InDelta(t, 200*math.Pi, r.Length(), eps)
}

func TestRing_VisibleIntervals(t *testing.T) {
	r := NewRing(r3.Vec{}, 100, r3.Vec{Z: 1})

	t.Run("window wraps through zero", func(t *testing.T) {
		got := r.VisibleIntervals(r3.Vec{X: 100}, 10)
		require.Len(t, got, 1)
		half := math.Acos(0.995) / (2 * math.Pi)
		assert.InDelta(t, 1-half, got[0].Start, eps)
		assert.InDelta(t, half, got[0].Finish, eps)
		assert.Greater(t, got[0].Start, got[0].Finish)
	})

	t.Run("camera too far", func(t *testing.T) {
		assert.Empty(t, r.VisibleIntervals(r3.Vec{X: 1000}, 10))
	})

	t.Run("tangent sphere is a single point", func(t *testing.T) {
		got := r.VisibleIntervals(r3.Vec{X: 110}, 10)
		require.Len(t, got, 1)
		assert.InDelta(t, got[0].Start, got[0].Finish, eps)
		assert.False(t, got[0].Full())
	})

	t.Run("camera on axis inside range", func(t *testing.T) {
		got := r.VisibleIntervals(r3.Vec{}, 200)
		require.Len(t, got, 1)
		assert.True(t, got[0].Full())
	})

	t.Run("camera on axis out of range", func(t *testing.T) {
		assert.Empty(t, r.VisibleIntervals(r3.Vec{Z: 500}, 200))
	})

	t.Run("sphere swallows ring", func(t *testing.T) {
		got := r.VisibleIntervals(r3.Vec{X: 10}, 150)
		require.Len(t, got, 1)
		assert.True(t, got[0].Full())
	})
}

func square(t *testing.T) *Polyline {
	t.Helper()
	p, err := NewPolyline([]r3.Vec{
		{X: 100, Y: -100},
		{X: 100, Y: 100},
		{X: -100, Y: 100},
		{X: -100, Y: -100},
	}, r3.Vec{})
	require.NoError(t, err)
	return p
}

func TestNewPolyline_TooFewPoints(t *testing.T) {
	_, err := NewPolyline([]r3.Vec{{X: 1}, {X: 2}}, r3.Vec{})
	assert.ErrorIs(t, err, ErrTooFewPoints)
}

func TestPolyline_PointAt(t *testing.T) {
	p := square(t)
	assert.InDelta(t, 800, p.Length(), eps)
	assert.Equal(t, 4, p.Segments())

	pl := p.PointAt(0)
	assertVec(t, r3.Vec{X: 100, Y: -100}, pl.Position)

	pl = p.PointAt(0.125)
	assertVec(t, r3.Vec{X: 100}, pl.Position)
	assertVec(t, r3.Vec{Y: 1}, pl.Basis.Forward)
	assertVec(t, r3.Vec{X: 1}, pl.Basis.Up)

	pl = p.PointAt(1.125)
	assertVec(t, r3.Vec{X: 100}, pl.Position)
}

func TestPolyline_VisibleIntervals(t *testing.T) {
	p := square(t)

	got := p.VisibleIntervals(r3.Vec{X: 100}, 50)
	require.Len(t, got, 1)
	assert.InDelta(t, 0.0625, got[0].Start, eps)
	assert.InDelta(t, 0.1875, got[0].Finish, eps)

	// a corner touches two segments
	got = p.VisibleIntervals(r3.Vec{X: 100, Y: 100}, 10)
	require.Len(t, got, 2)
	assert.InDelta(t, 190.0/800, got[0].Start, eps)
	assert.InDelta(t, 200.0/800, got[0].Finish, eps)
	assert.InDelta(t, 200.0/800, got[1].Start, eps)
	assert.InDelta(t, 210.0/800, got[1].Finish, eps)

	assert.Empty(t, p.VisibleIntervals(r3.Vec{Z: 1000}, 10))
}

func TestKinematic(t *testing.T) {
	cruise := Kinematic{StartFraction: 0.5, PathLength: 1000, Speed: 10, Lifetime: 20}
	assert.InDelta(t, 0.6, cruise.FractionAt(10), eps)
	assert.InDelta(t, 0.5, cruise.FractionAt(-3), eps)
	assert.Equal(t, 6, cruise.ZoneIndex(15, 10))
	assert.Equal(t, 5, cruise.ZoneIndex(5, 10))
	assert.Equal(t, core.NoZone, cruise.ZoneIndex(20.5, 10))
	assert.Equal(t, 20.0, cruise.Duration())

	launch := Kinematic{StartFraction: 0.95, PathLength: 1000, Acceleration: 2, Lifetime: 60}
	assert.InDelta(t, 0.05, launch.FractionAt(10), eps)
	assert.Equal(t, 0, launch.ZoneIndex(10, 10))
}
