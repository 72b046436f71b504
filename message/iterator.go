package message

import "github.com/mycok/vertexbsp/bsp"

// Iterator adapts a plain slice of messages, drained destructively from a
// Store, into the bsp.MessageIterator a compute function receives. Source
// ids are always empty: a plain Store never records who sent a message.
type Iterator struct {
	msgs []bsp.Message
	cur  bsp.Message
}

// NewIterator wraps msgs, typically the result of Store.RemoveVertexMessages,
// for delivery to a single vertex's compute call.
func NewIterator(msgs []bsp.Message) *Iterator {
	return &Iterator{msgs: msgs}
}

// Next implements bsp.MessageIterator.
func (it *Iterator) Next() bool {
	if len(it.msgs) == 0 {
		return false
	}

	it.cur = it.msgs[0]
	it.msgs = it.msgs[1:]

	return true
}

// Message implements bsp.MessageIterator. The source id is always empty.
func (it *Iterator) Message() (bsp.Message, string) {
	return it.cur, ""
}

// SourceIterator adapts the non-destructive read of a WithSourceStore into
// a bsp.MessageIterator, preserving which neighbour sent each message.
type SourceIterator struct {
	msgs []bsp.Message
	srcs []string
	cur  bsp.Message
	src  string
}

// NewSourceIterator wraps msgs/srcs, typically the result of
// WithSourceStore.GetVertexMessagesWithSources, for delivery to a single
// vertex's compute call under needAllMessages.
func NewSourceIterator(msgs []bsp.Message, srcs []string) *SourceIterator {
	return &SourceIterator{msgs: msgs, srcs: srcs}
}

// Next implements bsp.MessageIterator.
func (it *SourceIterator) Next() bool {
	if len(it.msgs) == 0 {
		return false
	}

	it.cur, it.msgs = it.msgs[0], it.msgs[1:]
	it.src, it.srcs = it.srcs[0], it.srcs[1:]

	return true
}

// Message implements bsp.MessageIterator.
func (it *SourceIterator) Message() (bsp.Message, string) {
	return it.cur, it.src
}

var (
	_ bsp.MessageIterator = (*Iterator)(nil)
	_ bsp.MessageIterator = (*SourceIterator)(nil)
)
