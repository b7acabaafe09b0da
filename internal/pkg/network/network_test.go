package network

import (
	"errors"
	"testing"

	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"

	"github.com/ohowland/gridfault/internal/pkg/catalog"
)

var feeder = LineParams{LengthKM: 2, ROhmPerKM: 0.1, XOhmPerKM: 0.25, CNFPerKM: 10, MaxIKA: 0.6}

var trafo = catalog.TrafoType{
	SnMVA: 100, VnHVKV: 132, VnLVKV: 33, VkPercent: 12, VkrPercent: 0.3,
	PfeKW: 50, I0Percent: 0.1, ShiftDegree: 30,
}

func newTestNetwork(t *testing.T) *Network {
	n, err := New("test")
	assert.NilError(t, err)

	hv := n.AddBus(132, "HV")
	mv1 := n.AddBus(33, "MV 1")
	mv2 := n.AddBus(33, "MV 2")

	_, err = n.AddExtGrid(hv, 1000, 500, "grid", "Grid Connection")
	assert.NilError(t, err)
	_, err = n.AddTransformer(hv, mv1, "100 MVA 132/33 kV", trafo, "t1", "T1")
	assert.NilError(t, err)
	line, err := n.AddLine(mv1, mv2, feeder, "feeder_1", "MV Line")
	assert.NilError(t, err)
	_, err = n.AddSwitch(mv1, line, LineSwitch, true, "breaker", "Breaker")
	assert.NilError(t, err)
	_, err = n.AddLoad(mv2, 1, 0.2, "load_1", "Load_1")
	assert.NilError(t, err)
	return n
}

func assertConfigurationError(t *testing.T, err error) {
	t.Helper()
	var cfgErr *ConfigurationError
	assert.Assert(t, errors.As(err, &cfgErr), "got %v", err)
}

func TestBuildAndValidate(t *testing.T) {
	n := newTestNetwork(t)
	assert.NilError(t, n.Validate())
	assert.Check(t, is.Len(n.Buses, 3))
	assert.Check(t, n.Lines[0].InService)
	assert.Check(t, n.Transformers[0].InService)
	assert.Equal(t, n.ExtGrids[0].VmPU, 1.0)
}

func TestAddLineRejectsUnknownBus(t *testing.T) {
	n := newTestNetwork(t)
	_, err := n.AddLine(1, 42, feeder, "", "dangling")
	assertConfigurationError(t, err)
}

func TestAddLineRejectsVoltageMismatch(t *testing.T) {
	n := newTestNetwork(t)
	_, err := n.AddLine(0, 1, feeder, "", "across levels")
	assertConfigurationError(t, err)
}

func TestAddTransformerRejectsInvertedBuses(t *testing.T) {
	n := newTestNetwork(t)
	_, err := n.AddTransformer(1, 0, "100 MVA 132/33 kV", trafo, "", "inverted")
	assertConfigurationError(t, err)
}

func TestAddSwitchRejectsForeignLine(t *testing.T) {
	n := newTestNetwork(t)
	_, err := n.AddSwitch(0, 0, LineSwitch, true, "", "not at a line end")
	assertConfigurationError(t, err)
}

func TestDuplicateHandle(t *testing.T) {
	n := newTestNetwork(t)
	_, err := n.AddLine(1, 2, feeder, "feeder_1", "again")
	assertConfigurationError(t, err)
}

func TestLookupByHandle(t *testing.T) {
	n := newTestNetwork(t)

	line, err := n.Line("feeder_1")
	assert.NilError(t, err)
	line.InService = false
	assert.Check(t, !n.Lines[0].InService)

	sw, err := n.Switch("breaker")
	assert.NilError(t, err)
	assert.Equal(t, sw.Kind, LineSwitch)

	_, err = n.Line("missing")
	assertConfigurationError(t, err)
	_, err = n.Switch("")
	assertConfigurationError(t, err)
}

func TestValidateNoSource(t *testing.T) {
	n := newTestNetwork(t)
	n.ExtGrids[0].InService = false
	assertConfigurationError(t, n.Validate())

	_, err := n.Source()
	assertConfigurationError(t, err)
}

func TestValidateTwoSources(t *testing.T) {
	n := newTestNetwork(t)
	_, err := n.AddExtGrid(2, 100, 50, "", "second")
	assert.NilError(t, err)
	assertConfigurationError(t, n.Validate())
}

func TestValidateDanglingReference(t *testing.T) {
	n := newTestNetwork(t)
	n.Loads[0].Bus = 99
	assertConfigurationError(t, n.Validate())
}

func TestCloneIsIndependent(t *testing.T) {
	n := newTestNetwork(t)
	c, err := n.Clone()
	assert.NilError(t, err)
	assert.Assert(t, c.PID() != n.PID())

	c.Lines[0].InService = false
	c.Switches[0].Closed = false
	c.Loads[0].PMW = 0

	assert.Check(t, n.Lines[0].InService)
	assert.Check(t, n.Switches[0].Closed)
	assert.Equal(t, n.Loads[0].PMW, 1.0)
}
