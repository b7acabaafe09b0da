/*
network.go The electrical network model. Elements are held in construction
order; that order is the positional index of every element. Elements may also
carry a Handle, a stable symbolic name used by scenarios to find them.
*/

package network

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/ohowland/gridfault/internal/pkg/catalog"
)

// Handle is a stable symbolic identifier for an element.
type Handle string

// SwitchKind tags what the far side of a switch is connected to.
type SwitchKind string

const (
	// BusSwitch connects two buses.
	BusSwitch SwitchKind = "b"
	// LineSwitch connects a bus to the end of a line.
	LineSwitch SwitchKind = "l"
)

// Bus is a node of the network at a nominal voltage level.
type Bus struct {
	ID   int
	VnKV float64
	Name string
}

// LineParams are the per-length electrical parameters of a line.
type LineParams struct {
	LengthKM  float64
	ROhmPerKM float64
	XOhmPerKM float64
	CNFPerKM  float64
	MaxIKA    float64
}

// Line is a conductor between two buses of the same voltage level.
type Line struct {
	LineParams
	ID        int
	Handle    Handle
	Name      string
	FromBus   int
	ToBus     int
	InService bool
}

// Transformer connects a high voltage bus to a low voltage bus.
type Transformer struct {
	ID        int
	Handle    Handle
	Name      string
	HVBus     int
	LVBus     int
	StdType   string
	Params    catalog.TrafoType
	InService bool
}

// Switch connects a bus to another bus or to a line.
type Switch struct {
	ID      int
	Handle  Handle
	Name    string
	Bus     int
	Element int
	Kind    SwitchKind
	Closed  bool
}

// ExtGrid is the external grid connection and the voltage reference.
type ExtGrid struct {
	ID        int
	Handle    Handle
	Name      string
	Bus       int
	VmPU      float64
	VaDegree  float64
	SscMaxMVA float64
	SscMinMVA float64
	InService bool
}

// Load is a constant power demand attached to a bus.
type Load struct {
	ID        int
	Handle    Handle
	Name      string
	Bus       int
	PMW       float64
	QMVAR     float64
	InService bool
}

// Network is a complete network instance.
type Network struct {
	pid          uuid.UUID
	Name         string
	Buses        []Bus
	Lines        []Line
	Transformers []Transformer
	Switches     []Switch
	ExtGrids     []ExtGrid
	Loads        []Load
}

// New returns an empty network.
func New(name string) (*Network, error) {
	pid, err := uuid.NewUUID()
	if err != nil {
		return nil, err
	}
	return &Network{pid: pid, Name: name}, nil
}

// PID is an accessor for the network's process id.
func (n Network) PID() uuid.UUID {
	return n.pid
}

// AddBus appends a bus and returns its id.
func (n *Network) AddBus(vnKV float64, name string) int {
	id := len(n.Buses)
	n.Buses = append(n.Buses, Bus{ID: id, VnKV: vnKV, Name: name})
	return id
}

// AddLine appends an in-service line and returns its id.
func (n *Network) AddLine(from, to int, p LineParams, h Handle, name string) (int, error) {
	if err := n.checkBus("line "+name, from); err != nil {
		return 0, err
	}
	if err := n.checkBus("line "+name, to); err != nil {
		return 0, err
	}
	if n.Buses[from].VnKV != n.Buses[to].VnKV {
		return 0, &ConfigurationError{
			Element: "line " + name,
			Reason: fmt.Sprintf("connects %.3f kV bus %d to %.3f kV bus %d",
				n.Buses[from].VnKV, from, n.Buses[to].VnKV, to),
		}
	}
	if err := n.checkHandle(h, n.lineIndex); err != nil {
		return 0, err
	}

	id := len(n.Lines)
	n.Lines = append(n.Lines, Line{
		LineParams: p,
		ID:         id,
		Handle:     h,
		Name:       name,
		FromBus:    from,
		ToBus:      to,
		InService:  true,
	})
	return id, nil
}

// AddTransformer appends an in-service transformer built from template
// parameters and returns its id.
func (n *Network) AddTransformer(hv, lv int, stdType string, params catalog.TrafoType, h Handle, name string) (int, error) {
	if err := n.checkBus("transformer "+name, hv); err != nil {
		return 0, err
	}
	if err := n.checkBus("transformer "+name, lv); err != nil {
		return 0, err
	}
	if n.Buses[hv].VnKV <= n.Buses[lv].VnKV {
		return 0, &ConfigurationError{
			Element: "transformer " + name,
			Reason:  fmt.Sprintf("hv bus %d is not above lv bus %d", hv, lv),
		}
	}
	if err := n.checkHandle(h, n.transformerIndex); err != nil {
		return 0, err
	}

	id := len(n.Transformers)
	n.Transformers = append(n.Transformers, Transformer{
		ID:        id,
		Handle:    h,
		Name:      name,
		HVBus:     hv,
		LVBus:     lv,
		StdType:   stdType,
		Params:    params,
		InService: true,
	})
	return id, nil
}

// AddSwitch appends a switch and returns its id. For a LineSwitch, element
// is a line id and bus must be one of the line's ends.
func (n *Network) AddSwitch(bus, element int, kind SwitchKind, closed bool, h Handle, name string) (int, error) {
	sw := Switch{
		ID:      len(n.Switches),
		Handle:  h,
		Name:    name,
		Bus:     bus,
		Element: element,
		Kind:    kind,
		Closed:  closed,
	}
	if err := n.checkSwitch(sw); err != nil {
		return 0, err
	}
	if err := n.checkHandle(h, n.switchIndex); err != nil {
		return 0, err
	}
	n.Switches = append(n.Switches, sw)
	return sw.ID, nil
}

// AddExtGrid appends an in-service external grid at 1.0 pu and returns its id.
func (n *Network) AddExtGrid(bus int, sscMaxMVA, sscMinMVA float64, h Handle, name string) (int, error) {
	if err := n.checkBus("ext_grid "+name, bus); err != nil {
		return 0, err
	}
	if err := n.checkHandle(h, n.extGridIndex); err != nil {
		return 0, err
	}

	id := len(n.ExtGrids)
	n.ExtGrids = append(n.ExtGrids, ExtGrid{
		ID:        id,
		Handle:    h,
		Name:      name,
		Bus:       bus,
		VmPU:      1.0,
		SscMaxMVA: sscMaxMVA,
		SscMinMVA: sscMinMVA,
		InService: true,
	})
	return id, nil
}

// AddLoad appends an in-service load and returns its id.
func (n *Network) AddLoad(bus int, pMW, qMVAR float64, h Handle, name string) (int, error) {
	if err := n.checkBus("load "+name, bus); err != nil {
		return 0, err
	}
	if err := n.checkHandle(h, n.loadIndex); err != nil {
		return 0, err
	}

	id := len(n.Loads)
	n.Loads = append(n.Loads, Load{
		ID:        id,
		Handle:    h,
		Name:      name,
		Bus:       bus,
		PMW:       pMW,
		QMVAR:     qMVAR,
		InService: true,
	})
	return id, nil
}

// Clone returns a deep copy of the network under a new PID.
func (n *Network) Clone() (*Network, error) {
	pid, err := uuid.NewUUID()
	if err != nil {
		return nil, err
	}
	return &Network{
		pid:          pid,
		Name:         n.Name,
		Buses:        append([]Bus(nil), n.Buses...),
		Lines:        append([]Line(nil), n.Lines...),
		Transformers: append([]Transformer(nil), n.Transformers...),
		Switches:     append([]Switch(nil), n.Switches...),
		ExtGrids:     append([]ExtGrid(nil), n.ExtGrids...),
		Loads:        append([]Load(nil), n.Loads...),
	}, nil
}

func (n *Network) checkBus(element string, bus int) error {
	if bus < 0 || bus >= len(n.Buses) {
		return &ConfigurationError{Element: element, Reason: fmt.Sprintf("unknown bus %d", bus)}
	}
	return nil
}

func (n *Network) checkSwitch(sw Switch) error {
	element := "switch " + sw.Name
	if err := n.checkBus(element, sw.Bus); err != nil {
		return err
	}
	switch sw.Kind {
	case BusSwitch:
		return n.checkBus(element, sw.Element)
	case LineSwitch:
		if sw.Element < 0 || sw.Element >= len(n.Lines) {
			return &ConfigurationError{Element: element, Reason: fmt.Sprintf("unknown line %d", sw.Element)}
		}
		line := n.Lines[sw.Element]
		if line.FromBus != sw.Bus && line.ToBus != sw.Bus {
			return &ConfigurationError{
				Element: element,
				Reason:  fmt.Sprintf("bus %d is not an end of line %d", sw.Bus, sw.Element),
			}
		}
		return nil
	default:
		return &ConfigurationError{Element: element, Reason: fmt.Sprintf("unknown switch kind %q", sw.Kind)}
	}
}

func (n *Network) checkHandle(h Handle, index func(Handle) (int, bool)) error {
	if h == "" {
		return nil
	}
	if _, exists := index(h); exists {
		return &ConfigurationError{Element: string(h), Reason: "duplicate handle"}
	}
	return nil
}
