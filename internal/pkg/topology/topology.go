/*
topology.go Builds the fixed multi-voltage distribution network: an HV pair
fed by the grid connection, an HV/MV substation, ten radial MV feeder
sections with a normally-open tie, one MV/LV transformer per feeder bus and
a radial LV chain carrying the loads.
*/

package topology

import (
	"fmt"
	"log"

	"github.com/ohowland/gridfault/internal/pkg/catalog"
	"github.com/ohowland/gridfault/internal/pkg/network"
)

// Nominal voltage levels in kV.
const (
	HVKV = 132.0
	MVKV = 33.0
	LVKV = 0.4
)

// FeederSections is the number of MV feeder buses, and of LV buses.
const FeederSections = 10

// Equipment template names.
const (
	MainTransformerType         = "100 MVA 132/33 kV"
	DistributionTransformerType = "0.4 MVA 33/0.415 kV"
)

// Stable element handles.
const (
	GridConnection  network.Handle = "grid_connection"
	HVLine          network.Handle = "hv_line_1_2"
	MVBusTie        network.Handle = "mv_bus_tie"
	MainTransformer network.Handle = "t1_hv_mv"
	TieSwitch       network.Handle = "mv_tie_switch"
	BusTieBreaker   network.Handle = "mv_bus_tie_breaker"
)

// FeederLine is the handle of the i-th MV feeder section, counting from 1.
func FeederLine(i int) network.Handle {
	return network.Handle(fmt.Sprintf("mv_feeder_line_%d", i))
}

// LVLine is the handle of the i-th LV connecting line, counting from 1.
func LVLine(i int) network.Handle {
	return network.Handle(fmt.Sprintf("lv_line_%d", i))
}

// DistributionTransformer is the handle of the i-th MV/LV transformer, counting from 1.
func DistributionTransformer(i int) network.Handle {
	return network.Handle(fmt.Sprintf("trf_%d", i))
}

// Load is the handle of the i-th load, counting from 1.
func Load(i int) network.Handle {
	return network.Handle(fmt.Sprintf("load_%d", i))
}

// Tie switch end points, as 0-based feeder bus indices.
const (
	tieFrom = 4
	tieTo   = 8
)

var (
	hvLine     = network.LineParams{LengthKM: 10, ROhmPerKM: 0.05, XOhmPerKM: 0.25, CNFPerKM: 10, MaxIKA: 0.8}
	mvTieLine  = network.LineParams{LengthKM: 1, ROhmPerKM: 0.1, XOhmPerKM: 0.25, CNFPerKM: 10, MaxIKA: 0.6}
	feederLine = network.LineParams{LengthKM: 2, ROhmPerKM: 0.1, XOhmPerKM: 0.25, CNFPerKM: 10, MaxIKA: 0.6}
	lvLine     = network.LineParams{LengthKM: 0.3, ROhmPerKM: 0.5, XOhmPerKM: 0.2, CNFPerKM: 0, MaxIKA: 0.4}
)

// Templates returns the transformer templates the builder depends on.
func Templates() map[string]catalog.TrafoType {
	return map[string]catalog.TrafoType{
		MainTransformerType: {
			SnMVA: 100, VnHVKV: 132, VnLVKV: 33,
			VkPercent: 12, VkrPercent: 0.3, PfeKW: 50, I0Percent: 0.1, ShiftDegree: 30,
		},
		DistributionTransformerType: {
			SnMVA: 0.4, VnHVKV: 33, VnLVKV: 0.415,
			VkPercent: 6, VkrPercent: 0.5, PfeKW: 1.2, I0Percent: 0.3, ShiftDegree: 30,
		},
	}
}

// Register adds the builder's templates to cat. Registering into a catalog
// that already holds them is a no-op.
func Register(cat *catalog.Catalog) error {
	for name, params := range Templates() {
		if err := cat.Register(name, catalog.Trafo, params); err != nil {
			return err
		}
	}
	return nil
}

// Build registers the templates and assembles a fresh network instance.
func Build(cat *catalog.Catalog) (*network.Network, error) {
	if err := Register(cat); err != nil {
		return nil, err
	}
	mainType, err := cat.Get(MainTransformerType, catalog.Trafo)
	if err != nil {
		return nil, err
	}
	distType, err := cat.Get(DistributionTransformerType, catalog.Trafo)
	if err != nil {
		return nil, err
	}

	net, err := network.New("gridfault")
	if err != nil {
		return nil, err
	}

	b := builder{net: net}

	hv1 := net.AddBus(HVKV, "HV Bus 1")
	hv2 := net.AddBus(HVKV, "HV Bus 2")
	mvPrimary := net.AddBus(MVKV, "MV Bus 1")
	mvSecondary := net.AddBus(MVKV, "MV Bus 2")

	b.extGrid(hv1, 1000, 500, GridConnection, "Grid Connection")
	b.line(hv1, hv2, hvLine, HVLine, "HV Line 1-2")
	b.transformer(hv1, mvPrimary, MainTransformerType, mainType, MainTransformer, "T1 HV-MV")
	busTie := b.line(mvPrimary, mvSecondary, mvTieLine, MVBusTie, "MV Bus Tie")

	feeders := make([]int, FeederSections)
	prev := mvPrimary
	for i := range feeders {
		feeders[i] = net.AddBus(MVKV, fmt.Sprintf("MV Feeder Bus %d", i+1))
		b.line(prev, feeders[i], feederLine, FeederLine(i+1), fmt.Sprintf("MV Feeder Line %d", i+1))
		prev = feeders[i]
	}

	lvBuses := make([]int, FeederSections)
	for i := range lvBuses {
		lvBuses[i] = net.AddBus(LVKV, fmt.Sprintf("LV Bus %d", i+1))
		b.transformer(feeders[i], lvBuses[i], DistributionTransformerType, distType,
			DistributionTransformer(i+1), fmt.Sprintf("TRF_%d", i+1))
	}
	for i := 1; i < len(lvBuses); i++ {
		b.line(lvBuses[i-1], lvBuses[i], lvLine, LVLine(i), fmt.Sprintf("LV Line %d", i))
	}

	b.busSwitch(feeders[tieFrom], feeders[tieTo], false, TieSwitch, "MV Tie Switch")
	b.lineSwitch(mvPrimary, busTie, true, BusTieBreaker, "MV Bus Tie Breaker")

	for i, bus := range lvBuses {
		b.load(bus, 0.2+0.05*float64(i), 0.05, Load(i+1), fmt.Sprintf("Load_%d", i+1))
	}

	if b.err != nil {
		return nil, b.err
	}
	if err := net.Validate(); err != nil {
		return nil, err
	}
	log.Printf("[Topology] Built %d buses, %d lines, %d transformers",
		len(net.Buses), len(net.Lines), len(net.Transformers))
	return net, nil
}

// builder records the first construction error; later calls are no-ops.
type builder struct {
	net *network.Network
	err error
}

func (b *builder) line(from, to int, p network.LineParams, h network.Handle, name string) int {
	if b.err != nil {
		return 0
	}
	id, err := b.net.AddLine(from, to, p, h, name)
	b.err = err
	return id
}

func (b *builder) transformer(hv, lv int, stdType string, p catalog.TrafoType, h network.Handle, name string) {
	if b.err != nil {
		return
	}
	_, b.err = b.net.AddTransformer(hv, lv, stdType, p, h, name)
}

func (b *builder) busSwitch(bus, other int, closed bool, h network.Handle, name string) {
	if b.err != nil {
		return
	}
	_, b.err = b.net.AddSwitch(bus, other, network.BusSwitch, closed, h, name)
}

func (b *builder) lineSwitch(bus, line int, closed bool, h network.Handle, name string) {
	if b.err != nil {
		return
	}
	_, b.err = b.net.AddSwitch(bus, line, network.LineSwitch, closed, h, name)
}

func (b *builder) extGrid(bus int, sscMax, sscMin float64, h network.Handle, name string) {
	if b.err != nil {
		return
	}
	_, b.err = b.net.AddExtGrid(bus, sscMax, sscMin, h, name)
}

func (b *builder) load(bus int, p, q float64, h network.Handle, name string) {
	if b.err != nil {
		return
	}
	_, b.err = b.net.AddLoad(bus, p, q, h, name)
}
