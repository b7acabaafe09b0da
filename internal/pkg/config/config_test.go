package config

import (
	"testing"

	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"

	"github.com/ohowland/gridfault/internal/pkg/powerflow"
)

func TestLoad(t *testing.T) {
	config, err := Load("./testdata/gridfault.json")
	assert.NilError(t, err)
	assert.DeepEqual(t, config, Default())
}

func TestLoadPartialKeepsDefaults(t *testing.T) {
	config, err := Load("./testdata/partial.json")
	assert.NilError(t, err)
	assert.Equal(t, config.Solver.FrequencyHz, 60.0)
	assert.Equal(t, config.Solver.BaseMVA, 1.0)
	assert.DeepEqual(t, config.Solver.Stages, powerflow.DefaultStages())
	assert.Equal(t, config.Webservice.Addr, "localhost:8080")
}

func TestLoadRejectsBadStage(t *testing.T) {
	_, err := Load("./testdata/bad_stage.json")
	assert.ErrorContains(t, err, "Algorithm")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("./testdata/missing.json")
	assert.Assert(t, err != nil)
}

func TestValidateEmptyStages(t *testing.T) {
	config := Default()
	config.Solver.Stages = []powerflow.Stage{}
	assert.ErrorContains(t, config.Validate(), "Stages")
}

func TestResolverOptions(t *testing.T) {
	config := Default()
	config.Solver.Stages = config.Solver.Stages[:1]

	r := powerflow.NewResolver(config.ResolverOptions()...)
	assert.Check(t, is.Len(r.Stages(), 1))
	assert.Equal(t, r.Stages()[0].Algorithm, powerflow.NewtonRaphson)
}
