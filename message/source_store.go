package message

import (
	"sync"

	"github.com/mycok/vertexbsp/bsp"
)

// WithSourceStore is the needAllMessages variant of Store. Instead of
// appending every message sent to a vertex, it keeps only the latest
// message received from each source vertex: a later message from a given
// source overwrites that source's previous contribution rather than
// accumulating alongside it. This mirrors computations that need a
// complete, current view of "what every neighbour last told me" rather
// than a log of everything they ever sent.
type WithSourceStore struct {
	mu   sync.Mutex
	msgs map[string]map[string]bsp.Message // destID -> sourceID -> message
}

// NewWithSourceStore creates an empty needAllMessages store for one
// partition.
func NewWithSourceStore() *WithSourceStore {
	return &WithSourceStore{msgs: make(map[string]map[string]bsp.Message)}
}

// AddMessage records msg as sourceID's current contribution to destID,
// replacing whatever sourceID previously sent.
func (s *WithSourceStore) AddMessage(destID, sourceID string, msg bsp.Message) {
	s.mu.Lock()
	byDest, ok := s.msgs[destID]
	if !ok {
		byDest = make(map[string]bsp.Message)
		s.msgs[destID] = byDest
	}
	byDest[sourceID] = msg
	s.mu.Unlock()
}

// GetVertexMessagesWithoutSource returns the current per-source messages
// for vertexID, stripped of their source ids, without draining the store.
// Unlike Store.RemoveVertexMessages, reads here are non-destructive: a
// needAllMessages computation must see every neighbour's latest
// contribution on every super-step it runs in, not just the first.
func (s *WithSourceStore) GetVertexMessagesWithoutSource(vertexID string) []bsp.Message {
	s.mu.Lock()
	byDest := s.msgs[vertexID]
	out := make([]bsp.Message, 0, len(byDest))
	for _, msg := range byDest {
		out = append(out, msg)
	}
	s.mu.Unlock()

	return out
}

// GetVertexMessagesWithSources is GetVertexMessagesWithoutSource's
// source-preserving counterpart, returning parallel message/source-id
// slices so a caller can build a bsp.MessageIterator that reports each
// message's sender. Also non-destructive.
func (s *WithSourceStore) GetVertexMessagesWithSources(vertexID string) (msgs []bsp.Message, sources []string) {
	s.mu.Lock()
	byDest := s.msgs[vertexID]
	msgs = make([]bsp.Message, 0, len(byDest))
	sources = make([]string, 0, len(byDest))
	for src, msg := range byDest {
		msgs = append(msgs, msg)
		sources = append(sources, src)
	}
	s.mu.Unlock()

	return msgs, sources
}

// HasMessagesForVertex reports whether vertexID has a contribution from at
// least one source.
func (s *WithSourceStore) HasMessagesForVertex(vertexID string) bool {
	s.mu.Lock()
	n := len(s.msgs[vertexID])
	s.mu.Unlock()

	return n > 0
}

// HasMessagesForPartition reports whether any vertex in the partition has
// at least one recorded contribution.
func (s *WithSourceStore) HasMessagesForPartition() bool {
	s.mu.Lock()
	has := len(s.msgs) != 0
	s.mu.Unlock()

	return has
}

// ClearPartition discards every recorded contribution.
func (s *WithSourceStore) ClearPartition() {
	s.mu.Lock()
	s.msgs = make(map[string]map[string]bsp.Message)
	s.mu.Unlock()
}
