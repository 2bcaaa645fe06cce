package daq

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentStream_LateSubscriberMissesEarlierDocuments(t *testing.T) {
	s := NewDocumentStream()
	s.Publish(Document{Kind: DocStart, RunID: "run1"})

	ch, _, unsub := s.Subscribe()
	defer unsub()

	s.Publish(Document{Kind: DocStop, RunID: "run1", ExitStatus: ExitSuccess})

	select {
	case doc := <-ch:
		assert.Equal(t, DocStop, doc.Kind)
	default:
		t.Fatal("expected the post-subscribe Stop document")
	}

	select {
	case doc := <-ch:
		t.Fatalf("unexpected extra document: %+v", doc)
	default:
	}
}

func TestDocumentStream_DropsOnFullChannelWithoutBlocking(t *testing.T) {
	s := NewDocumentStream()
	_, id, unsub := s.Subscribe()
	defer unsub()

	for i := 0; i < 70; i++ {
		s.Publish(Document{Kind: DocEvent, RunID: "run1", SeqNum: uint64(i)})
	}

	dropped, ok := s.DroppedCount(id)
	require.True(t, ok)
	assert.Greater(t, dropped, uint64(0))
}

func TestDocumentStream_MultipleSubscribersIndependent(t *testing.T) {
	s := NewDocumentStream()
	ch1, _, unsub1 := s.Subscribe()
	defer unsub1()
	ch2, _, unsub2 := s.Subscribe()
	defer unsub2()

	s.Publish(Document{Kind: DocStart, RunID: "run1"})

	d1 := <-ch1
	d2 := <-ch2
	assert.Equal(t, DocStart, d1.Kind)
	assert.Equal(t, DocStart, d2.Kind)
}
