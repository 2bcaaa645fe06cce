package registry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/easternanemone/daqcore/internal/capability"
)

type fakeStage struct {
	id  string
	pos float64
}

func (f *fakeStage) ID() string                              { return f.id }
func (f *fakeStage) MoveAbs(pos float64) error                { f.pos = pos; return nil }
func (f *fakeStage) MoveRel(delta float64) error              { f.pos += delta; return nil }
func (f *fakeStage) Position() (float64, error)               { return f.pos, nil }
func (f *fakeStage) WaitSettled(_ time.Duration) error        { return nil }
func (f *fakeStage) Stop() error                               { return nil }
func (f *fakeStage) Parameters() map[string]capability.ParamValue {
	return map[string]capability.ParamValue{"velocity": capability.FloatParam(1.0)}
}
func (f *fakeStage) SetParameter(name string, value capability.ParamValue) error { return nil }

type fakeMeter struct{ id string }

func (f *fakeMeter) ID() string              { return f.id }
func (f *fakeMeter) Read() (float64, error)  { return 42, nil }

func TestRegistry_AddGetRemove(t *testing.T) {
	r := New()
	stage := &fakeStage{id: "stage1"}
	require.NoError(t, r.Add(stage))

	got, ok := r.Get("stage1")
	require.True(t, ok)
	assert.Same(t, stage, got)

	r.Remove("stage1")
	_, ok = r.Get("stage1")
	assert.False(t, ok)
}

func TestRegistry_RejectsEmptyID(t *testing.T) {
	r := New()
	err := r.Add(&fakeStage{id: ""})
	assert.Error(t, err)
}

func TestRegistry_CapabilityQueries(t *testing.T) {
	r := New()
	require.NoError(t, r.Add(&fakeStage{id: "stage1"}))
	require.NoError(t, r.Add(&fakeMeter{id: "meter1"}))

	_, ok := r.Movable("stage1")
	assert.True(t, ok)
	_, ok = r.Movable("meter1")
	assert.False(t, ok, "meter does not implement Movable")

	_, ok = r.Readable("meter1")
	assert.True(t, ok)

	_, ok = r.Triggerable("stage1")
	assert.False(t, ok)
}

func TestRegistry_ParameterSnapshot(t *testing.T) {
	r := New()
	require.NoError(t, r.Add(&fakeStage{id: "stage1"}))
	require.NoError(t, r.Add(&fakeMeter{id: "meter1"}))

	snap := r.ParameterSnapshot()
	require.Contains(t, snap, "stage1")
	assert.NotContains(t, snap, "meter1", "meter has no Parameters method")
	assert.Equal(t, capability.FloatParam(1.0), snap["stage1"]["velocity"])
}

func TestRegistry_IDsSorted(t *testing.T) {
	r := New()
	require.NoError(t, r.Add(&fakeStage{id: "zebra"}))
	require.NoError(t, r.Add(&fakeStage{id: "alpha"}))
	assert.Equal(t, []string{"alpha", "zebra"}, r.IDs())
}
