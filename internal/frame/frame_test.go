package frame

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/philipswan/TetheredRing-sub000/internal/curve"
	"github.com/philipswan/TetheredRing-sub000/pkg/core"
)

// fixedPath answers every visibility query with the same intervals.
type fixedPath struct {
	intervals []curve.Interval
	queries   int
}

func (p *fixedPath) PointAt(f float64) core.Placement {
	return core.Placement{Position: r3.Vec{X: f}}
}

func (p *fixedPath) VisibleIntervals(r3.Vec, float64) []curve.Interval {
	p.queries++
	return p.intervals
}

func (p *fixedPath) Length() float64 { return 1 }

func collect(w Window, zones int) []int {
	var out []int
	w.Each(zones, func(z int) { out = append(out, z) })
	return out
}

func TestWindowEach(t *testing.T) {
	assert.Equal(t, []int{2, 3, 4, 5}, collect(Window{2, 5}, 16))
	assert.Equal(t, []int{14, 15, 0, 1, 2}, collect(Window{14, 2}, 16))
	assert.Equal(t, []int{7}, collect(Window{7, 7}, 16))
	assert.Empty(t, collect(NoWindow, 16))
	assert.Len(t, collect(Window{0, 15}, 16), 16)
	assert.Empty(t, collect(Window{3, 20}, 16), "out of range window")
}

func TestWindowLenContains(t *testing.T) {
	w := Window{14, 2}
	assert.Equal(t, 5, w.Len(16))
	assert.True(t, w.Contains(15, 16))
	assert.True(t, w.Contains(0, 16))
	assert.False(t, w.Contains(8, 16))
	assert.Equal(t, 0, NoWindow.Len(16))
	assert.False(t, NoWindow.Contains(0, 16))
}

func TestDiffShiftedWindow(t *testing.T) {
	var d Diff
	NewDiffer(16).Diff(Window{2, 5}, Window{4, 7}, 16, &d)

	assert.Equal(t, []int{6, 7}, d.Assign)
	assert.Equal(t, []int{4, 5, 6, 7}, d.Update)
	assert.Equal(t, []int{2, 3}, d.Remove)
}

func TestDiffWrapAround(t *testing.T) {
	var d Diff
	NewDiffer(16).Diff(NoWindow, Window{14, 2}, 16, &d)

	assert.Equal(t, []int{14, 15, 0, 1, 2}, d.Assign)
	assert.Equal(t, []int{14, 15, 0, 1, 2}, d.Update)
	assert.Empty(t, d.Remove)
}

func TestDiffDisappear(t *testing.T) {
	var d Diff
	NewDiffer(16).Diff(Window{15, 1}, NoWindow, 16, &d)

	assert.Empty(t, d.Assign)
	assert.Empty(t, d.Update)
	assert.Equal(t, []int{15, 0, 1}, d.Remove)
}

func TestDifferReuse(t *testing.T) {
	differ := NewDiffer(4)
	var a, b Diff

	differ.Diff(Window{0, 2}, Window{1, 3}, 4, &a)
	for _, f := range differ.flags {
		assert.Zero(t, f, "flags cleared after use")
	}

	// a second frame with more zones grows the array
	differ.Diff(Window{6, 9}, Window{8, 1}, 12, &b)
	assert.Equal(t, []int{10, 11, 0, 1}, b.Assign)
	assert.Equal(t, []int{6, 7}, b.Remove)
	assert.Equal(t, []int{8, 9, 10, 11, 0, 1}, b.Update)

	// reusing a Diff resets its lists
	differ.Diff(Window{1, 3}, Window{1, 3}, 4, &a)
	if diff := cmp.Diff(Diff{Assign: []int{}, Update: []int{1, 2, 3}, Remove: []int{}}, a); diff != "" {
		t.Errorf("unchanged window (-want +got):\n%s", diff)
	}
}

func TestWindowFromIntervals(t *testing.T) {
	tests := []struct {
		name   string
		ivs    []curve.Interval
		offset float64
		want   Window
	}{
		{"none", nil, 0, NoWindow},
		{"simple", []curve.Interval{{Start: 0.13, Finish: 0.34}}, 0, Window{2, 5}},
		{"wrapping", []curve.Interval{{Start: 0.9, Finish: 0.15}}, 0, Window{14, 2}},
		{"tangent", []curve.Interval{{Start: 0.5, Finish: 0.5}}, 0, Window{8, 8}},
		{"full", []curve.Interval{{Start: 0, Finish: 1}}, 0.3, Window{0, 15}},
		{"offset", []curve.Interval{{Start: 0.13, Finish: 0.34}}, 0.25, Window{14, 1}},
		{"segments", []curve.Interval{{Start: 0.4, Finish: 0.45}, {Start: 0.1, Finish: 0.2}}, 0, Window{1, 7}},
		{"end of path", []curve.Interval{{Start: 0.97, Finish: 1}}, 0, Window{15, 15}},
		{"end of path shifted", []curve.Interval{{Start: 0.2, Finish: 0.25}}, 0.3, Window{14, 15}},
		{"nearly whole path", []curve.Interval{{Start: 0.95, Finish: 0.94}}, 0, Window{0, 15}},
		{"wrap into previous zone", []curve.Interval{{Start: 0.95, Finish: 0.93}}, 0, Window{15, 14}},
		{"short wrap", []curve.Interval{{Start: 0.99, Finish: 0.01}}, 0, Window{15, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, WindowFromIntervals(tt.ivs, tt.offset, 16))
		})
	}
}

func TestNewValidates(t *testing.T) {
	_, err := New(Config{ID: "ring", Zones: 0, Path: &fixedPath{}})
	assert.ErrorIs(t, err, ErrInvalidZones)

	_, err = New(Config{ID: "ring", Zones: 4})
	assert.ErrorIs(t, err, ErrNoPath)
}

func TestTrackAndRoll(t *testing.T) {
	path := &fixedPath{intervals: []curve.Interval{{Start: 0.13, Finish: 0.34}}}
	f, err := New(Config{ID: "ring", Zones: 16, Path: path, RangeRadius: 10})
	require.NoError(t, err)

	assert.True(t, f.Current().Empty())
	assert.Equal(t, Window{2, 5}, f.Track(r3.Vec{}, 0))
	assert.True(t, f.Previous().Empty(), "previous survives until Roll")

	f.Roll()
	assert.Equal(t, Window{2, 5}, f.Previous())

	path.intervals = nil
	f.Track(r3.Vec{}, 1)
	assert.True(t, f.Current().Empty())
	assert.Equal(t, Window{2, 5}, f.Previous())
}

func TestRotatingFrameOffset(t *testing.T) {
	path := &fixedPath{intervals: []curve.Interval{{Start: 0.5, Finish: 0.5}}}
	f, err := New(Config{ID: "spin", Zones: 4, Path: path, RotationRate: 0.25, TimeOrigin: 2})
	require.NoError(t, err)

	assert.True(t, f.Rotating())
	assert.InDelta(t, 0.25, f.Offset(3), 1e-12)
	assert.InDelta(t, 0.75, f.Offset(1), 1e-12)

	// path fraction 0.5 holds frame position 0.25 at t=3
	assert.Equal(t, Window{1, 1}, f.Track(r3.Vec{}, 3))
	assert.InDelta(t, 0.5, f.PlacementOf(0.25, 3).Position.X, 1e-12)
}

func TestInsertAndPartition(t *testing.T) {
	f, err := New(Config{ID: "ring", Zones: 8, Path: &fixedPath{}})
	require.NoError(t, err)

	objs := []*Object{{FramePosition: 0.05}, {FramePosition: 0.3}, {FramePosition: 0.99}, {FramePosition: 1.2}}
	zones := make([]int, len(objs))
	for i, o := range objs {
		zones[i] = f.Insert("tether", o)
	}
	assert.Equal(t, []int{0, 2, 7, 1}, zones)
	assert.Equal(t, 4, f.Count("tether"))
	assert.Zero(t, f.Count("habitat"))

	ids := map[uint64]bool{}
	f.Each("tether", func(_ int, o *Object) { ids[o.ID] = true })
	assert.Len(t, ids, 4, "unique ids")

	f.SetObjects(2, "tether", nil)
	assert.NotContains(t, f.Zone(2), core.ClassName("tether"))
	assert.Equal(t, 3, f.Count("tether"))

	// zone indices are taken modulo Z
	f.InsertAt(9, "habitat", &Object{})
	f.InsertAt(-1, "habitat", &Object{})
	assert.Len(t, f.Objects(1, "habitat"), 1)
	assert.Len(t, f.Objects(7, "habitat"), 1)

	taken := f.Take("tether")
	assert.Len(t, taken, 3)
	assert.Zero(t, f.Count("tether"))
}

func TestObjectModelLink(t *testing.T) {
	o := &Object{}
	assert.False(t, o.HasModel())
	assert.Nil(t, o.Detach())
}
