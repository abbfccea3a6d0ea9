package frame

const (
	inCurrent  uint8 = 1 << 0
	inPrevious uint8 = 1 << 1
)

// Diff holds the work lists for one frame and one tick.
type Diff struct {
	// Assign lists zones that became visible.
	Assign []int
	// Update lists every currently visible zone.
	Update []int
	// Remove lists zones that stopped being visible.
	Remove []int
}

func (d *Diff) reset() {
	d.Assign = d.Assign[:0]
	d.Update = d.Update[:0]
	d.Remove = d.Remove[:0]
}

// Differ turns a previous and current window into work lists. It only
// touches the zones inside the two windows, using a transient flag per
// zone that is cleared again before returning, so one Differ can serve
// every frame.
type Differ struct {
	flags []uint8
}

// NewDiffer creates a differ for frames of up to zones zones. It grows on
// demand.
func NewDiffer(zones int) *Differ {
	return &Differ{flags: make([]uint8, zones)}
}

// Diff fills out with the work lists for moving from prev to cur.
func (d *Differ) Diff(prev, cur Window, zones int, out *Diff) {
	if len(d.flags) < zones {
		d.flags = make([]uint8, zones)
	}
	out.reset()

	cur.Each(zones, func(z int) { d.flags[z] |= inCurrent })
	prev.Each(zones, func(z int) { d.flags[z] |= inPrevious })

	cur.Each(zones, func(z int) {
		if d.flags[z]&inPrevious == 0 {
			out.Assign = append(out.Assign, z)
		}
		out.Update = append(out.Update, z)
	})
	prev.Each(zones, func(z int) {
		if d.flags[z]&inCurrent == 0 {
			out.Remove = append(out.Remove, z)
		}
	})

	cur.Each(zones, func(z int) { d.flags[z] = 0 })
	prev.Each(zones, func(z int) { d.flags[z] = 0 })
}
