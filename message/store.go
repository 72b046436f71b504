// Package message implements the per-partition, per-destination-vertex
// message stores that buffer messages between super-steps. A Store holds
// every message addressed to the vertices of a single partition; draining a
// vertex's messages is destructive, exactly as a single super-step only
// ever gets to read a message once.
package message

import (
	"fmt"
	"sync"

	"github.com/mycok/vertexbsp/bsp"
)

// Store buffers messages for a single partition, keyed by destination
// vertex id. It can be shared by multiple writer goroutines (message
// delivery) and a single reader goroutine (the compute thread currently
// holding the partition).
type Store struct {
	mu                sync.Mutex
	msgs              map[string][]bsp.Message
	byteSize          map[string]int
	maxBytesPerVertex int
}

// NewStore creates an empty message store for one partition with no cap on
// how many encoded bytes a single vertex's queue may hold.
func NewStore() *Store {
	return &Store{msgs: make(map[string][]bsp.Message)}
}

// NewBoundedStore creates an empty message store whose per-vertex encoded
// byte total is capped at maxBytesPerVertex. Exceeding the cap on delivery
// from the wire (see AddEncodedMessage) fails fast rather than letting one
// slow-to-compute vertex's queue grow without limit; there is no
// out-of-core spillover path to fall back to.
func NewBoundedStore(maxBytesPerVertex int) *Store {
	return &Store{
		msgs:              make(map[string][]bsp.Message),
		byteSize:          make(map[string]int),
		maxBytesPerVertex: maxBytesPerVertex,
	}
}

// AddEncodedMessage is AddMessage's counterpart for messages arriving off
// the wire, where the caller already knows the message's encoded size. It
// enforces the store's maxBytesPerVertex cap, if one was configured with
// NewBoundedStore, returning ErrPayloadTooLarge when destID's queue would
// exceed it.
func (s *Store) AddEncodedMessage(destID string, msg bsp.Message, encodedSize int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.maxBytesPerVertex > 0 && s.byteSize[destID]+encodedSize > s.maxBytesPerVertex {
		return fmt.Errorf("%w: vertex %s queue would exceed %d bytes", ErrPayloadTooLarge, destID, s.maxBytesPerVertex)
	}

	s.msgs[destID] = append(s.msgs[destID], msg)
	if s.byteSize != nil {
		s.byteSize[destID] += encodedSize
	}

	return nil
}

// AddMessage appends a single message addressed to destID.
func (s *Store) AddMessage(destID string, msg bsp.Message) {
	s.mu.Lock()
	s.msgs[destID] = append(s.msgs[destID], msg)
	s.mu.Unlock()
}

// AddMessages appends a batch of messages addressed to destID in one
// critical section, avoiding a lock acquisition per message when a sender
// has accumulated several messages for the same destination.
func (s *Store) AddMessages(destID string, msgs []bsp.Message) {
	if len(msgs) == 0 {
		return
	}

	s.mu.Lock()
	existing, ok := s.msgs[destID]
	if !ok {
		// Copy rather than alias the caller's slice; the caller may
		// reuse its backing array for the next destination.
		cp := make([]bsp.Message, len(msgs))
		copy(cp, msgs)
		s.msgs[destID] = cp
	} else {
		s.msgs[destID] = append(existing, msgs...)
	}
	s.mu.Unlock()
}

// RemoveVertexMessages destructively drains and returns the messages
// currently buffered for vertexID. Calling it again before any new message
// arrives returns an empty slice; it is idempotent in that sense.
func (s *Store) RemoveVertexMessages(vertexID string) []bsp.Message {
	s.mu.Lock()
	msgs := s.msgs[vertexID]
	delete(s.msgs, vertexID)
	delete(s.byteSize, vertexID)
	s.mu.Unlock()

	return msgs
}

// HasMessagesForVertex reports whether vertexID currently has any buffered
// messages, without draining them.
func (s *Store) HasMessagesForVertex(vertexID string) bool {
	s.mu.Lock()
	_, ok := s.msgs[vertexID]
	s.mu.Unlock()

	return ok
}

// VertexIDs returns the id of every vertex that currently has buffered
// messages. The order is not meaningful.
func (s *Store) VertexIDs() []string {
	s.mu.Lock()
	ids := make([]string, 0, len(s.msgs))
	for id := range s.msgs {
		ids = append(ids, id)
	}
	s.mu.Unlock()

	return ids
}

// HasMessagesForPartition reports whether any vertex in the partition
// currently has buffered messages.
func (s *Store) HasMessagesForPartition() bool {
	s.mu.Lock()
	has := len(s.msgs) != 0
	s.mu.Unlock()

	return has
}

// ClearPartition discards every buffered message in the store, used when
// rotating stores across a super-step boundary.
func (s *Store) ClearPartition() {
	s.mu.Lock()
	s.msgs = make(map[string][]bsp.Message)
	if s.byteSize != nil {
		s.byteSize = make(map[string]int)
	}
	s.mu.Unlock()
}
