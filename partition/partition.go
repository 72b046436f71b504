// Package partition implements partition ownership and vertex boundary
// classification: the worker-local bookkeeping that PartitionExecutor and
// the philosophers/token layers depend on to decide which serialisability
// policy applies to a given vertex.
package partition

import (
	"sync"

	"github.com/mycok/vertexbsp/bsp"
)

// Partition owns the vertices assigned to it for the life of the worker
// process. Vertex maps are mutated only between super-steps, or by the
// single compute thread that currently holds the partition via Store.Take.
type Partition struct {
	ID       int32
	mu       sync.Mutex
	vertices map[string]*bsp.Vertex
}

// NewPartition creates an empty partition with the given id.
func NewPartition(id int32) *Partition {
	return &Partition{ID: id, vertices: make(map[string]*bsp.Vertex)}
}

// AddVertex inserts v into the partition. Called during graph load or, for
// lazily-created BSP vertices, by the compute thread holding the partition
// just before its compute pass; never called concurrently with a compute
// pass over the same partition.
func (p *Partition) AddVertex(v *bsp.Vertex) {
	p.mu.Lock()
	p.vertices[v.ID()] = v
	p.mu.Unlock()
}

// RemoveVertex drops the vertex with the given id, honouring a removal
// signal. Called only by the compute thread currently holding the
// partition, or between super-steps.
func (p *Partition) RemoveVertex(id string) {
	p.mu.Lock()
	delete(p.vertices, id)
	p.mu.Unlock()
}

// Vertex returns the vertex with the given id, or nil if the partition does
// not own it.
func (p *Partition) Vertex(id string) *bsp.Vertex {
	p.mu.Lock()
	v := p.vertices[id]
	p.mu.Unlock()

	return v
}

// Vertices returns every vertex owned by the partition. Insertion order is
// not meaningful and is not preserved.
func (p *Partition) Vertices() []*bsp.Vertex {
	p.mu.Lock()
	out := make([]*bsp.Vertex, 0, len(p.vertices))
	for _, v := range p.vertices {
		out = append(out, v)
	}
	p.mu.Unlock()

	return out
}

// AllHalted reports whether every vertex currently owned by the partition
// has voted to halt.
func (p *Partition) AllHalted() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, v := range p.vertices {
		if !v.Halted() {
			return false
		}
	}

	return true
}

// Owner describes which worker and task own a partition, as observed by
// this worker. Stable for the duration of a super-step.
type Owner struct {
	PartitionID int32
	WorkerID    string
	TaskID      string
}

// OwnerLookup resolves a vertex id to the partition, worker and task that
// currently own it. Backed, in production, by the external partitioning
// service; exposed here as an interface purely so RequestProcessor and
// PartitionExecutor can be tested against a fake.
type OwnerLookup interface {
	OwnerOf(vertexID string) (Owner, error)
}

// Store tracks every partition this worker owns and enforces that at most
// one compute thread holds a given partition at a time.
type Store struct {
	mu         sync.Mutex
	partitions map[int32]*Partition
	held       map[int32]bool
}

// NewStore creates an empty partition store.
func NewStore() *Store {
	return &Store{
		partitions: make(map[int32]*Partition),
		held:       make(map[int32]bool),
	}
}

// Put registers a partition with the store, replacing any previous
// partition with the same id. Used during graph load.
func (s *Store) Put(p *Partition) {
	s.mu.Lock()
	s.partitions[p.ID] = p
	s.mu.Unlock()
}

// GetOrCreate returns the partition for id, creating an empty one on first
// use. Safe for concurrent callers.
func (s *Store) GetOrCreate(id int32) *Partition {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.partitions[id]
	if !ok {
		p = NewPartition(id)
		s.partitions[id] = p
	}

	return p
}

// Take acquires exclusive ownership of the partition with the given id for
// the duration of a compute pass. It is an error to call Take again for the
// same id before a matching Release; PartitionExecutor enforces this by
// construction (a partition id is only ever dequeued by one thread at a
// time), so Take does not block: it panics on a caller bug instead of
// silently serialising, since that would mask a dequeue-queue defect.
func (s *Store) Take(id int32) *Partition {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.held[id] {
		panic("partition: Take called for a partition already held")
	}
	s.held[id] = true

	p, ok := s.partitions[id]
	if !ok {
		p = NewPartition(id)
		s.partitions[id] = p
	}

	return p
}

// Release returns the partition with the given id to the store.
func (s *Store) Release(id int32) {
	s.mu.Lock()
	delete(s.held, id)
	s.mu.Unlock()
}

// IDs returns every partition id currently registered with the store. The
// order is not meaningful.
func (s *Store) IDs() []int32 {
	s.mu.Lock()
	ids := make([]int32, 0, len(s.partitions))
	for id := range s.partitions {
		ids = append(ids, id)
	}
	s.mu.Unlock()

	return ids
}
