package daq

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_Error(t *testing.T) {
	e := NewDeviceError("start_stream", "camera-0", CodeHardwareSetup, "vendor init failed")
	assert.Equal(t, "daq: vendor init failed (op=start_stream device=camera-0)", e.Error())

	bare := NewError("queue", CodeConfigInvalid, "")
	assert.Equal(t, "daq: invalid configuration", bare.Error())
}

func TestError_UnwrapAndIs(t *testing.T) {
	inner := fmt.Errorf("timed out")
	wrapped := WrapError("read_snapshot", CodeTimeout, inner)
	require.Error(t, wrapped)
	assert.ErrorIs(t, wrapped, inner)
	assert.True(t, IsCode(wrapped, CodeTimeout))
	assert.False(t, IsCode(wrapped, CodeNotFound))
}

func TestError_WrapPreservesInnerCode(t *testing.T) {
	inner := NewDeviceError("move_abs", "stage-1", CodeHardwareCommunication, "serial write failed")
	outer := WrapError("MoveTo", CodePlanExecution, inner)
	assert.Equal(t, CodeHardwareCommunication, outer.Code)
	assert.Equal(t, "MoveTo", outer.Op)
	assert.True(t, errors.Is(outer, inner))
}

func TestError_WrapNil(t *testing.T) {
	assert.Nil(t, WrapError("noop", CodeTimeout, nil))
}

func TestError_IsByCode(t *testing.T) {
	a := NewError("a", CodeTimeout, "a timed out")
	b := NewError("b", CodeTimeout, "b timed out")
	c := NewError("c", CodeNotFound, "missing")

	assert.True(t, errors.Is(a, b))
	assert.False(t, errors.Is(a, c))
}
