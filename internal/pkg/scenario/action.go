package scenario

import (
	"fmt"

	"github.com/ohowland/gridfault/internal/pkg/network"
)

// Action is a single edit applied to a network. The set of actions is closed.
type Action interface {
	fmt.Stringer
	action()
}

// LineOutage takes a line out of service.
type LineOutage struct {
	Line network.Handle
}

// TransformerOutage takes a transformer out of service.
type TransformerOutage struct {
	Transformer network.Handle
}

// SwitchState drives a switch open or closed.
type SwitchState struct {
	Switch network.Handle
	Closed bool
}

// AllSwitches drives every switch in the network to the same state.
type AllSwitches struct {
	Closed bool
}

// LoadDemand sets the real power demand of a load.
type LoadDemand struct {
	Load network.Handle
	PMW  float64
}

// ResistanceScale multiplies the per-length resistance of every line.
type ResistanceScale struct {
	Factor float64
}

// VoltageSetpoint sets the voltage magnitude of a reference source.
type VoltageSetpoint struct {
	Source network.Handle
	VmPU   float64
}

func (LineOutage) action()        {}
func (TransformerOutage) action() {}
func (SwitchState) action()       {}
func (AllSwitches) action()       {}
func (LoadDemand) action()        {}
func (ResistanceScale) action()   {}
func (VoltageSetpoint) action()   {}

func (a LineOutage) String() string { return fmt.Sprintf("line %s out", a.Line) }

func (a TransformerOutage) String() string {
	return fmt.Sprintf("transformer %s out", a.Transformer)
}

func (a SwitchState) String() string {
	return fmt.Sprintf("switch %s %s", a.Switch, position(a.Closed))
}

func (a AllSwitches) String() string { return "all switches " + position(a.Closed) }

func (a LoadDemand) String() string { return fmt.Sprintf("load %s p=%g MW", a.Load, a.PMW) }

func (a ResistanceScale) String() string { return fmt.Sprintf("line resistance x%g", a.Factor) }

func (a VoltageSetpoint) String() string {
	return fmt.Sprintf("source %s vm=%g pu", a.Source, a.VmPU)
}

func position(closed bool) string {
	if closed {
		return "closed"
	}
	return "open"
}

// Apply performs the actions on net in order. It stops at the first action
// that references an element net does not have.
func Apply(net *network.Network, actions ...Action) error {
	for _, a := range actions {
		if err := apply(net, a); err != nil {
			return fmt.Errorf("scenario: %v: %w", a, err)
		}
	}
	return nil
}

func apply(net *network.Network, a Action) error {
	switch a := a.(type) {
	case LineOutage:
		line, err := net.Line(a.Line)
		if err != nil {
			return err
		}
		line.InService = false

	case TransformerOutage:
		trafo, err := net.Transformer(a.Transformer)
		if err != nil {
			return err
		}
		trafo.InService = false

	case SwitchState:
		sw, err := net.Switch(a.Switch)
		if err != nil {
			return err
		}
		sw.Closed = a.Closed

	case AllSwitches:
		for i := range net.Switches {
			net.Switches[i].Closed = a.Closed
		}

	case LoadDemand:
		load, err := net.Load(a.Load)
		if err != nil {
			return err
		}
		load.PMW = a.PMW

	case ResistanceScale:
		for i := range net.Lines {
			net.Lines[i].ROhmPerKM *= a.Factor
		}

	case VoltageSetpoint:
		src, err := net.ExtGrid(a.Source)
		if err != nil {
			return err
		}
		src.VmPU = a.VmPU

	default:
		return fmt.Errorf("unhandled action %T", a)
	}
	return nil
}
