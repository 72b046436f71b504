package partition_test

import (
	"testing"

	"github.com/mycok/vertexbsp/bsp"
	"github.com/mycok/vertexbsp/partition"
)

// fakeLookup resolves vertex ids against a fixed table.
type fakeLookup map[string]partition.Owner

func (f fakeLookup) OwnerOf(vertexID string) (partition.Owner, error) {
	return f[vertexID], nil
}

func TestTypeStoreClassification(t *testing.T) {
	// Worker "w1" owns partition 0 with vertices internal, local, remote
	// and mixed; worker "w2" owns the vertices they point at.
	p0 := partition.NewPartition(0)
	p1 := partition.NewPartition(1)

	internal := bsp.NewVertex("internal", nil)
	internal.AddEdge(bsp.NewEdge("internal-peer", nil))
	p0.AddVertex(internal)

	localBoundary := bsp.NewVertex("local-boundary", nil)
	localBoundary.AddEdge(bsp.NewEdge("p1-peer", nil))
	p0.AddVertex(localBoundary)

	remoteBoundary := bsp.NewVertex("remote-boundary", nil)
	remoteBoundary.AddEdge(bsp.NewEdge("remote-peer", nil))
	p0.AddVertex(remoteBoundary)

	mixed := bsp.NewVertex("mixed", nil)
	mixed.AddEdge(bsp.NewEdge("p1-peer", nil))
	mixed.AddEdge(bsp.NewEdge("remote-peer", nil))
	p0.AddVertex(mixed)

	p1.AddVertex(bsp.NewVertex("p1-peer", nil))

	lookup := fakeLookup{
		"internal-peer":   {PartitionID: 0, WorkerID: "w1"},
		"p1-peer":         {PartitionID: 1, WorkerID: "w1"},
		"remote-peer":     {PartitionID: 0, WorkerID: "w2"},
		"internal":        {PartitionID: 0, WorkerID: "w1"},
		"local-boundary":  {PartitionID: 0, WorkerID: "w1"},
		"remote-boundary": {PartitionID: 0, WorkerID: "w1"},
		"mixed":           {PartitionID: 0, WorkerID: "w1"},
	}

	ts, err := partition.NewTypeStore([]*partition.Partition{p0, p1}, lookup, "w1", false)
	if err != nil {
		t.Fatalf("NewTypeStore returned error: %v", err)
	}

	cases := []struct {
		id   string
		want partition.VertexType
	}{
		{"internal", partition.Internal},
		{"local-boundary", partition.LocalBoundary},
		{"remote-boundary", partition.RemoteBoundary},
		{"mixed", partition.MixedBoundary},
	}
	for _, tc := range cases {
		if got := ts.TypeOf(tc.id); got != tc.want {
			t.Errorf("TypeOf(%q) = %v, want %v", tc.id, got, tc.want)
		}
	}

	if !ts.TypeOf("mixed").IsBoundary() {
		t.Errorf("expected MIXED_BOUNDARY to report IsBoundary() == true")
	}
	if ts.TypeOf("internal").IsBoundary() {
		t.Errorf("expected INTERNAL to report IsBoundary() == false")
	}
}

func TestTypeStoreRequiresUndirectedGraphUnderTokenDiscipline(t *testing.T) {
	p0 := partition.NewPartition(0)
	v := bsp.NewVertex("v1", nil)
	v.AddEdge(bsp.NewEdge("v2", nil))
	p0.AddVertex(v)
	p0.AddVertex(bsp.NewVertex("v2", nil)) // no edge back to v1

	lookup := fakeLookup{
		"v1": {PartitionID: 0, WorkerID: "w1"},
		"v2": {PartitionID: 0, WorkerID: "w1"},
	}

	if _, err := partition.NewTypeStore([]*partition.Partition{p0}, lookup, "w1", true); err == nil {
		t.Fatalf("expected an error for an asymmetric edge under requireUndirected")
	}
}
