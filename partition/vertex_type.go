package partition

import (
	"fmt"

	"github.com/mycok/vertexbsp/bsp"
)

// VertexType classifies a vertex by where its out-neighbours live relative
// to the vertex's own partition and worker. Assigned once, after graph
// load, by TypeStore.
type VertexType int

const (
	// Internal vertices have every out-neighbour in the same partition.
	Internal VertexType = iota
	// LocalBoundary vertices have every out-neighbour on the same worker,
	// with at least one in a different partition.
	LocalBoundary
	// RemoteBoundary vertices have every out-of-partition neighbour on a
	// different worker.
	RemoteBoundary
	// MixedBoundary vertices have out-neighbours satisfying both the
	// LocalBoundary and RemoteBoundary conditions.
	MixedBoundary
)

func (t VertexType) String() string {
	switch t {
	case Internal:
		return "INTERNAL"
	case LocalBoundary:
		return "LOCAL_BOUNDARY"
	case RemoteBoundary:
		return "REMOTE_BOUNDARY"
	case MixedBoundary:
		return "MIXED_BOUNDARY"
	default:
		return fmt.Sprintf("VertexType(%d)", int(t))
	}
}

// IsBoundary reports whether t is any of the three boundary variants, i.e.
// whether a vertex of this type participates in the philosophers protocol.
func (t VertexType) IsBoundary() bool { return t != Internal }

// TypeStore classifies every vertex owned by a worker exactly once, right
// after graph load, by walking its out-edges and checking each
// destination's partition/worker against the owning vertex's own.
type TypeStore struct {
	types map[string]VertexType
}

// NewTypeStore classifies every vertex reachable from partitions using
// lookup to resolve each edge destination's owner. requireUndirected, when
// true, enforces the invariant the token/philosophers layer depends on:
// every edge (u,v) must have a matching reverse edge (v,u), since fork
// ownership is only well-defined between a symmetric pair of neighbours.
// When that invariant is violated it returns ErrAsymmetricEdge rather than
// silently producing a philosophers table nobody holds both ends of. Only
// edges whose destination is itself a vertex of partitions are checked: the
// out-edges of any other destination (typically one on another worker) are
// not visible here.
func NewTypeStore(partitions []*Partition, lookup OwnerLookup, selfWorkerID string, requireUndirected bool) (*TypeStore, error) {
	ts := &TypeStore{types: make(map[string]VertexType)}

	// neighboursOf records every out-neighbour discovered per vertex, used
	// only for the requireUndirected check below; discarded afterwards.
	var neighboursOf map[string]map[string]bool
	if requireUndirected {
		neighboursOf = make(map[string]map[string]bool)
	}

	for _, p := range partitions {
		for _, v := range p.Vertices() {
			vt, err := classify(v, p.ID, lookup, selfWorkerID)
			if err != nil {
				return nil, fmt.Errorf("classify vertex %q: %w", v.ID(), err)
			}
			ts.types[v.ID()] = vt

			if requireUndirected {
				for _, e := range v.Edges() {
					if neighboursOf[v.ID()] == nil {
						neighboursOf[v.ID()] = make(map[string]bool)
					}
					neighboursOf[v.ID()][e.DestID()] = true
				}
			}
		}
	}

	if requireUndirected {
		for u, neighbours := range neighboursOf {
			for v := range neighbours {
				if _, owned := ts.types[v]; !owned {
					continue
				}
				if !neighboursOf[v][u] {
					return nil, fmt.Errorf("%w: edge %s->%s has no matching reverse edge", ErrAsymmetricEdge, u, v)
				}
			}
		}
	}

	return ts, nil
}

func classify(v *bsp.Vertex, ownPartitionID int32, lookup OwnerLookup, selfWorkerID string) (VertexType, error) {
	var sawLocalBoundary, sawRemoteBoundary bool

	for _, e := range v.Edges() {
		owner, err := lookup.OwnerOf(e.DestID())
		if err != nil {
			return Internal, err
		}

		switch {
		case owner.WorkerID != selfWorkerID:
			sawRemoteBoundary = true
		case owner.PartitionID != ownPartitionID:
			sawLocalBoundary = true
		}
	}

	switch {
	case sawLocalBoundary && sawRemoteBoundary:
		return MixedBoundary, nil
	case sawRemoteBoundary:
		return RemoteBoundary, nil
	case sawLocalBoundary:
		return LocalBoundary, nil
	default:
		return Internal, nil
	}
}

// TypeOf returns the classification for vertexID. It panics if called for
// a vertex the store was never populated with, since that indicates a
// caller bug (querying before NewTypeStore completed, or a stale id) rather
// than a recoverable runtime condition.
func (ts *TypeStore) TypeOf(vertexID string) VertexType {
	vt, ok := ts.types[vertexID]
	if !ok {
		panic(fmt.Sprintf("partition: no VertexType recorded for vertex %q", vertexID))
	}

	return vt
}
