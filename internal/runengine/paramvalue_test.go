package runengine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/easternanemone/daqcore/internal/capability"
)

func TestToParamValue_Conversions(t *testing.T) {
	v, err := toParamValue(4.0)
	assert.NoError(t, err)
	assert.Equal(t, capability.FloatParam(4.0), v)

	v, err = toParamValue(4)
	assert.NoError(t, err)
	assert.Equal(t, capability.IntParam(4), v)

	v, err = toParamValue(true)
	assert.NoError(t, err)
	assert.Equal(t, capability.BoolParam(true), v)

	v, err = toParamValue("binning_2x2")
	assert.NoError(t, err)
	assert.Equal(t, capability.StringParam("binning_2x2"), v)

	_, err = toParamValue([]int{1, 2})
	assert.Error(t, err)
}

func TestNewRunUID_Unique(t *testing.T) {
	a := newRunUID()
	b := newRunUID()
	assert.NotEqual(t, a, b)
	assert.Contains(t, a, "run-")
}
