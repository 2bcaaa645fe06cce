package ringbuffer

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Scenario 3 (spec §8): tap with nth=3 over 10 writes receives exactly
// records 0, 3, 6, 9, in order, and the writer never blocks even though
// nothing drains the tap between writes.
func TestTapRegistry_DeliveryRate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ring.bin")
	rb, err := Create(path, 4096, 1)
	require.NoError(t, err)
	defer rb.Close()

	ch, err := rb.RegisterTap("viewer-1", 3, 16)
	require.NoError(t, err)

	bodies := make([][]byte, 10)
	for i := range bodies {
		bodies[i] = []byte(fmt.Sprintf("record-%d", i))
		require.NoError(t, rb.Write(bodies[i]))
	}

	var got [][]byte
	for i := 0; i < 4; i++ {
		select {
		case b := <-ch:
			got = append(got, b)
		default:
			t.Fatalf("expected tap delivery %d, channel empty", i)
		}
	}

	require.Len(t, got, 4)
	assert.Equal(t, bodies[0], got[0])
	assert.Equal(t, bodies[3], got[1])
	assert.Equal(t, bodies[6], got[2])
	assert.Equal(t, bodies[9], got[3])

	select {
	case extra := <-ch:
		t.Fatalf("unexpected extra delivery: %s", extra)
	default:
	}
}

func TestTapRegistry_DropsOnFullChannelWithoutBlocking(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ring.bin")
	rb, err := Create(path, 4096, 1)
	require.NoError(t, err)
	defer rb.Close()

	_, err = rb.RegisterTap("slow", 1, 1)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		require.NoError(t, rb.Write([]byte{byte(i)}))
	}

	dropped, ok := rb.TapDropCount("slow")
	require.True(t, ok)
	assert.Greater(t, dropped, uint64(0))
}

func TestTapRegistry_DuplicateIDFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ring.bin")
	rb, err := Create(path, 4096, 1)
	require.NoError(t, err)
	defer rb.Close()

	_, err = rb.RegisterTap("a", 1, 4)
	require.NoError(t, err)
	_, err = rb.RegisterTap("a", 1, 4)
	require.Error(t, err)
}

func TestTapRegistry_RejectsNthLessThanOne(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ring.bin")
	rb, err := Create(path, 4096, 1)
	require.NoError(t, err)
	defer rb.Close()

	_, err = rb.RegisterTap("bad", 0, 4)
	require.Error(t, err)
}
