package bsp

// Vertex represents a single vertex owned by a partition for the duration of
// a super-step. All field reads and writes happen from the single compute
// thread that currently holds the owning partition.
type Vertex struct {
	id      string
	value   interface{}
	halted  bool
	removed bool
	edges   []*Edge
	maxStep int
}

// ID returns the vertex id.
func (v *Vertex) ID() string { return v.id }

// Value returns the value currently associated with the vertex.
func (v *Vertex) Value() interface{} { return v.value }

// SetValue replaces the value associated with the vertex.
func (v *Vertex) SetValue(val interface{}) { v.value = val }

// Edges returns the ordered list of outgoing edges for the vertex.
func (v *Vertex) Edges() []*Edge { return v.edges }

// AddEdge appends a new outgoing edge to the vertex.
func (v *Vertex) AddEdge(e *Edge) { v.edges = append(v.edges, e) }

// RemoveEdge drops every outgoing edge pointing at destID, preserving the
// order of the remaining edges.
func (v *Vertex) RemoveEdge(destID string) {
	kept := v.edges[:0]
	for _, e := range v.edges {
		if e.DestID() != destID {
			kept = append(kept, e)
		}
	}
	v.edges = kept
}

// VoteToHalt marks the vertex as halted. A halted vertex is skipped by
// subsequent super-steps unless it receives a message, in which case it is
// woken up automatically before compute is invoked again.
func (v *Vertex) VoteToHalt() { v.halted = true }

// WakeUp clears the halted flag, used when a message arrives for an
// otherwise-halted vertex.
func (v *Vertex) WakeUp() { v.halted = false }

// Halted reports whether the vertex is currently halted.
func (v *Vertex) Halted() bool { return v.halted }

// RequestRemoval signals that the vertex should be dropped from its
// partition once its current compute call returns. Whether a later message
// addressed to the removed id recreates the vertex is the VertexResolver's
// decision.
func (v *Vertex) RequestRemoval() { v.removed = true }

// RemovalRequested reports whether RequestRemoval has been called.
func (v *Vertex) RemovalRequested() bool { return v.removed }

// NewVertex creates a vertex with the given id and initial value.
func NewVertex(id string, value interface{}) *Vertex {
	return &Vertex{id: id, value: value, halted: false}
}
