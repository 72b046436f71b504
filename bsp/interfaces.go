package bsp

// ComputeFunc is invoked once per active vertex per super-step. It receives
// the logical super-step number, the vertex being computed, the messages
// sent to it during the previous super-step, and a MessageSender. The
// compute function mutates the vertex's value and/or edges directly and may
// call MessageSender.SendMessage to enqueue outgoing messages for delivery
// at the start of the next super-step.
type ComputeFunc func(superstep int, v *Vertex, msgIt MessageIterator, sender MessageSender) error

// Message is a value sent from one vertex to another, consumed during the
// super-step that follows the one in which it was sent.
type Message interface{}

// VertexResolver decides how a vertex that exists only as the destination
// of an inbound message comes into being under synchronous execution:
// return a new vertex to create it lazily before the super-step's compute
// pass, or nil to drop the pending messages instead (an algorithm that
// removes vertices and never recreates them returns nil unconditionally).
type VertexResolver func(id string) *Vertex

// MessageIterator yields the messages destined for a single vertex during
// the current super-step. A MessageIterator is exhausted after a single
// pass; it does not support rewinding.
type MessageIterator interface {
	// Next advances the iterator and reports whether a message is
	// available. It must be called before the first call to Message.
	Next() bool
	// Message returns the message the iterator is currently positioned
	// at, together with the id of the vertex that sent it. The source id
	// is only meaningful when the store was configured to retain it
	// (needAllMessages); otherwise it is the empty string.
	Message() (msg Message, sourceID string)
}

// MessageSender is the collaborator compute functions use to enqueue
// outgoing messages. Messages enqueued during super-step N are delivered to
// their destination vertex at the start of super-step N+1 (or immediately,
// under a barrierless-asynchronous discipline).
type MessageSender interface {
	SendMessage(destID string, msg Message) error
	SendMessageToAllEdges(v *Vertex, msg Message) error
}

// Aggregator is a concurrent-safe accumulator that can be registered
// against a worker set under a name and updated by compute functions across
// all partitions during a super-step.
type Aggregator interface {
	// Type identifies the concrete aggregator implementation so a
	// registry can reconstruct it by name.
	Type() string
	// Get returns the current aggregate value.
	Get() interface{}
	// Set overwrites the current aggregate value.
	Set(val interface{})
	// Aggregate folds val into the current aggregate value.
	Aggregate(val interface{})
}
