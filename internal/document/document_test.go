package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewStop_SetsExitStatus(t *testing.T) {
	d := NewStop("run1", ExitAbort, "user requested", 3, 1_500_000_000)
	assert.Equal(t, Stop, d.Kind)
	assert.Equal(t, ExitAbort, d.ExitStatus)
	assert.Equal(t, uint64(3), d.NumEvents)
}

func TestNewEvent_CarriesSeqNum(t *testing.T) {
	d := NewEvent("run1", "desc1", 2, map[string]float64{"x": 1}, nil, map[string]float64{"stage1": 0.5}, 42)
	assert.Equal(t, Event, d.Kind)
	assert.Equal(t, uint64(2), d.SeqNum)
	assert.Equal(t, 0.5, d.Positions["stage1"])
}
