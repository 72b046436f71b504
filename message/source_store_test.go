package message_test

import (
	"testing"

	"github.com/mycok/vertexbsp/message"
)

func TestWithSourceStoreOverwritesBySource(t *testing.T) {
	s := message.NewWithSourceStore()

	s.AddMessage("v1", "neighbour-a", strMsg("first"))
	s.AddMessage("v1", "neighbour-b", strMsg("other"))
	s.AddMessage("v1", "neighbour-a", strMsg("second"))

	msgs := s.GetVertexMessagesWithoutSource("v1")
	if len(msgs) != 2 {
		t.Fatalf("got %d messages, want 2 (one per source)", len(msgs))
	}

	var sawSecond, sawFirst bool
	for _, m := range msgs {
		switch m {
		case strMsg("second"):
			sawSecond = true
		case strMsg("first"):
			sawFirst = true
		}
	}
	if !sawSecond {
		t.Fatalf("expected neighbour-a's later message to have overwritten its earlier one")
	}
	if sawFirst {
		t.Fatalf("neighbour-a's earlier message should have been replaced, not retained")
	}
}

func TestWithSourceStoreReadsAreNonDestructive(t *testing.T) {
	s := message.NewWithSourceStore()
	s.AddMessage("v1", "neighbour-a", strMsg("x"))

	_ = s.GetVertexMessagesWithoutSource("v1")

	if !s.HasMessagesForVertex("v1") {
		t.Fatalf("needAllMessages reads must not drain the store")
	}
}
