package topology

import (
	"errors"
	"math"
	"testing"

	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"

	"github.com/ohowland/gridfault/internal/pkg/catalog"
	"github.com/ohowland/gridfault/internal/pkg/network"
)

func TestBuildCounts(t *testing.T) {
	net, err := Build(catalog.New())
	assert.NilError(t, err)

	levels := make(map[float64]int)
	for _, b := range net.Buses {
		levels[b.VnKV]++
	}
	assert.Check(t, is.Len(net.Buses, 24))
	assert.Equal(t, levels[HVKV], 2)
	assert.Equal(t, levels[MVKV], 2+FeederSections)
	assert.Equal(t, levels[LVKV], FeederSections)

	assert.Check(t, is.Len(net.Lines, 21))
	assert.Check(t, is.Len(net.Transformers, 1+FeederSections))
	assert.Check(t, is.Len(net.ExtGrids, 1))
	assert.Check(t, is.Len(net.Loads, FeederSections))
	assert.Check(t, is.Len(net.Switches, 2))
}

func TestBuildSourceBounds(t *testing.T) {
	net, err := Build(catalog.New())
	assert.NilError(t, err)

	grid, err := net.ExtGrid(GridConnection)
	assert.NilError(t, err)
	assert.Equal(t, grid.Bus, 0)
	assert.Equal(t, grid.SscMaxMVA, 1000.0)
	assert.Equal(t, grid.SscMinMVA, 500.0)
	assert.Equal(t, grid.VmPU, 1.0)
}

func TestBuildSwitches(t *testing.T) {
	net, err := Build(catalog.New())
	assert.NilError(t, err)

	tie, err := net.Switch(TieSwitch)
	assert.NilError(t, err)
	assert.Equal(t, tie.ID, 0)
	assert.Equal(t, tie.Kind, network.BusSwitch)
	assert.Check(t, !tie.Closed)
	assert.Equal(t, net.Buses[tie.Bus].Name, "MV Feeder Bus 5")
	assert.Equal(t, net.Buses[tie.Element].Name, "MV Feeder Bus 9")

	breaker, err := net.Switch(BusTieBreaker)
	assert.NilError(t, err)
	assert.Equal(t, breaker.ID, 1)
	assert.Equal(t, breaker.Kind, network.LineSwitch)
	assert.Check(t, breaker.Closed)
	assert.Equal(t, net.Lines[breaker.Element].Handle, MVBusTie)
}

func TestLoadsFormArithmeticSequence(t *testing.T) {
	net, err := Build(catalog.New())
	assert.NilError(t, err)

	for i, l := range net.Loads {
		assert.Check(t, math.Abs(l.PMW-(0.2+0.05*float64(i))) < 1e-12, "load %d: %v", i, l.PMW)
		assert.Equal(t, l.QMVAR, 0.05)
		assert.Equal(t, net.Buses[l.Bus].VnKV, LVKV)
	}
}

func TestLinePositions(t *testing.T) {
	net, err := Build(catalog.New())
	assert.NilError(t, err)

	n := len(net.Lines)
	assert.Equal(t, net.Lines[0].Handle, HVLine)
	assert.Equal(t, net.Lines[1].Handle, MVBusTie)
	assert.Equal(t, net.Lines[2].Handle, FeederLine(1))
	assert.Equal(t, net.Lines[3].Handle, FeederLine(2))
	assert.Equal(t, net.Lines[n/2].Handle, FeederLine(9))
	assert.Equal(t, net.Lines[n-3].Handle, LVLine(7))
	assert.Equal(t, net.Lines[n-2].Handle, LVLine(8))
	assert.Equal(t, net.Lines[n-1].Handle, LVLine(9))
	assert.Equal(t, net.Transformers[0].Handle, MainTransformer)
	assert.Equal(t, net.Loads[0].Handle, Load(1))
}

func TestBuildTwiceSameCatalog(t *testing.T) {
	cat := catalog.New()

	first, err := Build(cat)
	assert.NilError(t, err)
	second, err := Build(cat)
	assert.NilError(t, err)

	assert.DeepEqual(t, cat.Names(catalog.Trafo), []string{DistributionTransformerType, MainTransformerType})
	assert.Assert(t, first.PID() != second.PID())
	assert.Equal(t, len(first.Buses), len(second.Buses))
}

func TestBuildConflictingTemplate(t *testing.T) {
	cat := catalog.New()
	params := Templates()[MainTransformerType]
	params.VkPercent = 10
	assert.NilError(t, cat.Register(MainTransformerType, catalog.Trafo, params))

	_, err := Build(cat)
	var dup *catalog.DuplicateTypeError
	assert.Assert(t, errors.As(err, &dup))
}
