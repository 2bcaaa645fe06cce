package devices

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/easternanemone/daqcore/internal/fae"
)

func TestStage_MoveAbsSettlesAndReportsPosition(t *testing.T) {
	s := NewStage("stage1", time.Millisecond)
	require.NoError(t, s.MoveAbs(12.5))
	pos, err := s.Position()
	require.NoError(t, err)
	assert.Equal(t, 12.5, pos)
	assert.Equal(t, 1, s.MoveCalls())
}

func TestStage_MoveRelIsRelativeToCurrentPosition(t *testing.T) {
	s := NewStage("stage1", 0)
	require.NoError(t, s.MoveAbs(5))
	require.NoError(t, s.MoveRel(2))
	pos, _ := s.Position()
	assert.Equal(t, 7.0, pos)
}

func TestSensor_ReadCountsCalls(t *testing.T) {
	s := NewSensor("diode1", 10, 0)
	v, err := s.Read()
	require.NoError(t, err)
	assert.Equal(t, 10.0, v)
	assert.Equal(t, 1, s.ReadCalls())
}

func TestShutter_OpenClose(t *testing.T) {
	sh := NewShutter("shutter1")
	open, _ := sh.ShutterOpen()
	assert.False(t, open)

	require.NoError(t, sh.OpenShutter())
	open, _ = sh.ShutterOpen()
	assert.True(t, open)

	require.NoError(t, sh.CloseShutter())
	open, _ = sh.ShutterOpen()
	assert.False(t, open)
}

func TestTriggerUnit_TriggerRequiresArm(t *testing.T) {
	tu := NewTriggerUnit("trig1")
	require.NoError(t, tu.Trigger())
	assert.Equal(t, 0, tu.TriggerCalls())

	require.NoError(t, tu.Arm())
	require.NoError(t, tu.Trigger())
	assert.Equal(t, 1, tu.TriggerCalls())
}

func TestCamera_DelegatesToEngine(t *testing.T) {
	sdk := fae.NewMockVendorSDK()
	engine := fae.NewEngine("cam1", sdk)
	cam := NewCamera("cam1", engine)
	assert.Equal(t, "cam1", cam.ID())
	assert.Equal(t, fae.StateIdle, cam.State())
}
