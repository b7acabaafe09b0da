/*
scenario.go The fault catalog. Each scenario is a named, ordered list of
actions against the handles the topology builder assigns.
*/

package scenario

import (
	"errors"
	"fmt"

	"github.com/ohowland/gridfault/internal/pkg/network"
	"github.com/ohowland/gridfault/internal/pkg/topology"
)

// Category groups scenarios by fault class.
type Category string

// Fault classes.
const (
	FeederOutage   Category = "feeder_outage"
	Islanding      Category = "islanding"
	RedundancyLoss Category = "loss_of_redundancy"
	Looping        Category = "looping"
	Misoperation   Category = "misoperation"
	WrongSequence  Category = "wrong_switching_sequence"
	OpenCircuit    Category = "open_circuit"
	HighImpedance  Category = "high_impedance_fault"
	VoltageSag     Category = "voltage_sag"
	VoltageSwell   Category = "voltage_swell"
)

// ErrUnknownScenario is returned by Lookup for a name not in the catalog.
var ErrUnknownScenario = errors.New("scenario: unknown scenario")

// Scenario is a named fault.
type Scenario struct {
	Name        string   `json:"name"`
	Category    Category `json:"category"`
	Description string   `json:"description"`
	Actions     []Action `json:"-"`
}

// Apply performs the scenario's actions on net.
func (s Scenario) Apply(net *network.Network) error {
	return Apply(net, s.Actions...)
}

// Steps describes each action in order.
func (s Scenario) Steps() []string {
	steps := make([]string, len(s.Actions))
	for i, a := range s.Actions {
		steps[i] = a.String()
	}
	return steps
}

var (
	tieOpen      = SwitchState{Switch: topology.TieSwitch, Closed: false}
	tieClosed    = SwitchState{Switch: topology.TieSwitch, Closed: true}
	breakerOpen  = SwitchState{Switch: topology.BusTieBreaker, Closed: false}
	breakerClose = SwitchState{Switch: topology.BusTieBreaker, Closed: true}
)

func setpoint(pu float64) VoltageSetpoint {
	return VoltageSetpoint{Source: topology.GridConnection, VmPU: pu}
}

var scenarios = []Scenario{
	{"FO_H1", FeederOutage, "HV line out of service",
		[]Action{LineOutage{topology.HVLine}}},
	{"FO_M1", FeederOutage, "middle MV feeder section out of service",
		[]Action{LineOutage{topology.FeederLine(9)}}},
	{"FO_T1", FeederOutage, "tail LV line out of service",
		[]Action{LineOutage{topology.LVLine(8)}}},
	{"FO_D1", FeederOutage, "MV bus tie and an LV line out of service together",
		[]Action{LineOutage{topology.MVBusTie}, LineOutage{topology.LVLine(7)}}},

	{"IS_S1", Islanding, "MV tie switch opened",
		[]Action{tieOpen}},
	{"IS_S2", Islanding, "MV bus tie breaker opened",
		[]Action{breakerOpen}},
	{"IS_S3", Islanding, "main transformer out with the bus tie breaker forced closed",
		[]Action{TransformerOutage{topology.MainTransformer}, breakerClose}},

	{"LR_R1", RedundancyLoss, "MV tie switch opened",
		[]Action{tieOpen}},
	{"LR_R2", RedundancyLoss, "MV bus tie breaker opened",
		[]Action{breakerOpen}},
	{"LR_R3", RedundancyLoss, "both MV switches opened",
		[]Action{tieOpen, breakerOpen}},

	{"LP_T1", Looping, "MV tie switch closed",
		[]Action{tieClosed}},
	{"LP_T2", Looping, "MV bus tie breaker closed",
		[]Action{breakerClose}},
	{"LP_T3", Looping, "all switches closed",
		[]Action{AllSwitches{Closed: true}}},

	{"SM_OPEN_F1", Misoperation, "first MV feeder section opened in error",
		[]Action{LineOutage{topology.FeederLine(1)}}},
	{"SM_OPEN_F2", Misoperation, "second MV feeder section opened in error",
		[]Action{LineOutage{topology.FeederLine(2)}}},
	{"SM_OPEN_L1", Misoperation, "first load dropped",
		[]Action{LoadDemand{Load: topology.Load(1), PMW: 0}}},

	{"WS_S1", WrongSequence, "tie opened, breaker closed, tie re-closed",
		[]Action{tieOpen, breakerClose, tieClosed}},
	{"WS_S2", WrongSequence, "breaker opened, tie closed, breaker re-closed",
		[]Action{breakerOpen, tieClosed, breakerClose}},

	{"OC_U1", OpenCircuit, "MV bus tie open circuit",
		[]Action{LineOutage{topology.MVBusTie}}},
	{"OC_U2", OpenCircuit, "last LV line open circuit",
		[]Action{LineOutage{topology.LVLine(9)}}},
	{"OC_U3", OpenCircuit, "MV bus tie open circuit with the tie switch closed",
		[]Action{LineOutage{topology.MVBusTie}, tieClosed}},

	{"HIF_H200", HighImpedance, "line resistance raised 20%",
		[]Action{ResistanceScale{1.2}}},
	{"HIF_H400", HighImpedance, "line resistance raised 40%",
		[]Action{ResistanceScale{1.4}}},
	{"HIF_H800", HighImpedance, "line resistance raised 80%",
		[]Action{ResistanceScale{1.8}}},

	{"SAG_5", VoltageSag, "source voltage 0.95 pu",
		[]Action{setpoint(0.95)}},
	{"SAG_10", VoltageSag, "source voltage 0.90 pu",
		[]Action{setpoint(0.90)}},
	{"SAG_20", VoltageSag, "source voltage 0.80 pu",
		[]Action{setpoint(0.80)}},

	{"SWE_5", VoltageSwell, "source voltage 1.05 pu",
		[]Action{setpoint(1.05)}},
	{"SWE_10", VoltageSwell, "source voltage 1.10 pu",
		[]Action{setpoint(1.10)}},
}

var index = func() map[string]int {
	m := make(map[string]int, len(scenarios))
	for i, s := range scenarios {
		m[s.Name] = i
	}
	return m
}()

// Lookup returns the named scenario.
func Lookup(name string) (Scenario, error) {
	i, ok := index[name]
	if !ok {
		return Scenario{}, fmt.Errorf("%w: %q", ErrUnknownScenario, name)
	}
	return clone(scenarios[i]), nil
}

// Names lists every scenario name in catalog order.
func Names() []string {
	names := make([]string, len(scenarios))
	for i, s := range scenarios {
		names[i] = s.Name
	}
	return names
}

// All returns every scenario in catalog order.
func All() []Scenario {
	all := make([]Scenario, len(scenarios))
	for i, s := range scenarios {
		all[i] = clone(s)
	}
	return all
}

func clone(s Scenario) Scenario {
	s.Actions = append([]Action(nil), s.Actions...)
	return s
}
