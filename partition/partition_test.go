package partition_test

import (
	"testing"

	"github.com/mycok/vertexbsp/bsp"
	"github.com/mycok/vertexbsp/partition"
)

func TestStoreTakeReleaseLifecycle(t *testing.T) {
	s := partition.NewStore()
	p := s.GetOrCreate(1)
	p.AddVertex(bsp.NewVertex("v1", 0))

	taken := s.Take(1)
	if taken.ID != 1 {
		t.Fatalf("got partition id %d, want 1", taken.ID)
	}

	s.Release(1)

	// Taking again after release must succeed without panicking.
	s.Take(1)
	s.Release(1)
}

func TestStoreTakeTwicePanics(t *testing.T) {
	s := partition.NewStore()
	s.Take(1)

	defer func() {
		if recover() == nil {
			t.Fatalf("expected Take on an already-held partition to panic")
		}
	}()

	s.Take(1)
}

func TestPartitionAllHalted(t *testing.T) {
	p := partition.NewPartition(0)
	v1 := bsp.NewVertex("v1", 0)
	v2 := bsp.NewVertex("v2", 0)
	p.AddVertex(v1)
	p.AddVertex(v2)

	if p.AllHalted() {
		t.Fatalf("expected fresh vertices to not be halted")
	}

	v1.VoteToHalt()
	if p.AllHalted() {
		t.Fatalf("expected AllHalted to be false while v2 is still active")
	}

	v2.VoteToHalt()
	if !p.AllHalted() {
		t.Fatalf("expected AllHalted to be true once every vertex halted")
	}
}

func TestPhaseBitRoundTrip(t *testing.T) {
	for _, tc := range []struct {
		id           int32
		forNextPhase bool
	}{
		{id: 0, forNextPhase: false},
		{id: 0, forNextPhase: true},
		{id: 42, forNextPhase: true},
		{id: 1<<31 - 1, forNextPhase: false},
	} {
		encoded := partition.EncodeWithPhase(tc.id, tc.forNextPhase)
		gotID, gotPhase := partition.DecodeWithPhase(encoded)
		if gotID != tc.id || gotPhase != tc.forNextPhase {
			t.Fatalf("round trip of (%d, %v) produced (%d, %v)", tc.id, tc.forNextPhase, gotID, gotPhase)
		}
	}
}
