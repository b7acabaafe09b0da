package catalog

import (
	"errors"
	"testing"

	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"
)

func distributionTrafo() TrafoType {
	return TrafoType{
		SnMVA:       0.4,
		VnHVKV:      33,
		VnLVKV:      0.415,
		VkPercent:   6,
		VkrPercent:  0.5,
		PfeKW:       1.2,
		I0Percent:   0.3,
		ShiftDegree: 30,
	}
}

func TestRegisterAndGet(t *testing.T) {
	c := New()
	err := c.Register("0.4 MVA 33/0.415 kV", Trafo, distributionTrafo())
	assert.NilError(t, err)

	params, err := c.Get("0.4 MVA 33/0.415 kV", Trafo)
	assert.NilError(t, err)
	assert.Equal(t, params, distributionTrafo())
}

func TestRegisterIdenticalIsNoop(t *testing.T) {
	c := New()
	assert.NilError(t, c.Register("0.4 MVA 33/0.415 kV", Trafo, distributionTrafo()))
	assert.NilError(t, c.Register("0.4 MVA 33/0.415 kV", Trafo, distributionTrafo()))

	assert.Check(t, is.DeepEqual(c.Names(Trafo), []string{"0.4 MVA 33/0.415 kV"}))
	params, err := c.Get("0.4 MVA 33/0.415 kV", Trafo)
	assert.NilError(t, err)
	assert.Equal(t, params, distributionTrafo())
}

func TestRegisterDifferentParamsFails(t *testing.T) {
	c := New()
	assert.NilError(t, c.Register("0.4 MVA 33/0.415 kV", Trafo, distributionTrafo()))

	changed := distributionTrafo()
	changed.VkPercent = 4
	err := c.Register("0.4 MVA 33/0.415 kV", Trafo, changed)

	var dup *DuplicateTypeError
	assert.Assert(t, errors.As(err, &dup), "got %v", err)
	assert.Equal(t, dup.Name, "0.4 MVA 33/0.415 kV")

	params, err := c.Get("0.4 MVA 33/0.415 kV", Trafo)
	assert.NilError(t, err)
	assert.Equal(t, params.VkPercent, 6.0)
}

func TestGetUnknown(t *testing.T) {
	c := New()
	_, err := c.Get("missing", Trafo)

	var unknown *UnknownTypeError
	assert.Assert(t, errors.As(err, &unknown))
	assert.Equal(t, unknown.Name, "missing")
}

func TestUnsupportedKind(t *testing.T) {
	c := New()
	err := c.Register("NAYY 4x50 SE", ElementKind("line"), distributionTrafo())

	var unknown *UnknownTypeError
	assert.Assert(t, errors.As(err, &unknown))
	assert.Check(t, is.Len(c.Names(ElementKind("line")), 0))
}

func TestRegisterRejectsInvalidParams(t *testing.T) {
	c := New()

	inverted := distributionTrafo()
	inverted.VnHVKV, inverted.VnLVKV = 0.415, 33
	assert.Assert(t, c.Register("inverted", Trafo, inverted) != nil)

	resistive := distributionTrafo()
	resistive.VkrPercent = 7
	assert.Assert(t, c.Register("resistive", Trafo, resistive) != nil)

	assert.Check(t, is.Len(c.Names(Trafo), 0))
}

func TestNamesSorted(t *testing.T) {
	c := New()
	assert.NilError(t, c.Register("b", Trafo, distributionTrafo()))
	assert.NilError(t, c.Register("a", Trafo, distributionTrafo()))
	assert.Check(t, is.DeepEqual(c.Names(Trafo), []string{"a", "b"}))
}
