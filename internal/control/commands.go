package control

import (
	"fmt"
	"sort"

	"github.com/philipswan/TetheredRing-sub000/internal/config"
	"github.com/philipswan/TetheredRing-sub000/internal/engine"
	"github.com/philipswan/TetheredRing-sub000/internal/geo"
	"github.com/philipswan/TetheredRing-sub000/pkg/core"
)

// Command names understood by the console.
const (
	CmdLaunch = "launch"
	CmdCamera = "camera"
	CmdOrbit  = "orbit"
	CmdStatus = "status"
	CmdHelp   = "help"
)

// Launcher queues a vehicle of a moving class.
type Launcher interface {
	Launch(name core.ClassName) error
}

// StatusSource reports the engine state published after each tick.
type StatusSource interface {
	Status() engine.Status
}

// RegisterCommands wires the console commands. Launches are queued so a
// burst of them never stalls the console.
func RegisterCommands(d *Dispatcher, launcher Launcher, orbit *Orbit, status StatusSource) {
	d.Register(CmdLaunch, func(e Event) (any, error) {
		name := config.LaunchVehicle
		if len(e.Args) > 0 {
			name = core.ClassName(e.Args[0])
		}
		if err := launcher.Launch(name); err != nil {
			return nil, err
		}
		return fmt.Sprintf("launched %s", name), nil
	}, Buffered(64), Logged())

	d.Register(CmdCamera, func(e Event) (any, error) {
		if len(e.Args) != 1 {
			return nil, fmt.Errorf("usage: camera long,lat[,alt]")
		}
		g, err := geo.ParseGeodetic(e.Args[0])
		if err != nil {
			return nil, fmt.Errorf("camera %q: %w", e.Args[0], err)
		}
		orbit.Pin(geo.ToECEF(g))
		return g, nil
	}, Logged())

	d.Register(CmdOrbit, func(Event) (any, error) {
		orbit.Release()
		return "orbiting", nil
	}, Logged())

	d.Register(CmdStatus, func(Event) (any, error) {
		return status.Status(), nil
	})

	d.Register(CmdHelp, func(Event) (any, error) {
		cmds := d.Commands()
		sort.Strings(cmds)
		return cmds, nil
	})
}
