package comm

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"github.com/mycok/vertexbsp/bsp"
)

// Codec serialises vertex ids and messages for the wire. RequestProcessor
// only needs the encoded bytes and their length; it never inspects a
// message's concrete type.
type Codec interface {
	EncodeID(id string) []byte
	DecodeID(b []byte) string
	EncodeMessage(msg bsp.Message) ([]byte, error)
	DecodeMessage(b []byte) (bsp.Message, error)
}

// GobCodec encodes messages with encoding/gob, matching the gob registration
// the transport/rpc package already requires of every concrete message type
// a caller wants to send remotely (see transport/rpc.Client's init, which
// registers transport.WorkerMessagesEnvelope; application message types
// must be registered the same way by whoever defines them).
type GobCodec struct{}

// NewGobCodec returns the default codec.
func NewGobCodec() GobCodec { return GobCodec{} }

// EncodeID returns id's UTF-8 bytes; vertex ids are plain strings.
func (GobCodec) EncodeID(id string) []byte { return []byte(id) }

// DecodeID is EncodeID's inverse.
func (GobCodec) DecodeID(b []byte) string { return string(b) }

// EncodeMessage gob-encodes msg as an interface value, so the decoder can
// recover its concrete type without the caller threading a type hint
// through the wire envelope.
func (GobCodec) EncodeMessage(msg bsp.Message) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(&msg); err != nil {
		return nil, fmt.Errorf("comm: gob-encode message: %w", err)
	}

	return buf.Bytes(), nil
}

// DecodeMessage is EncodeMessage's inverse.
func (GobCodec) DecodeMessage(b []byte) (bsp.Message, error) {
	var msg bsp.Message
	if err := gob.NewDecoder(bytes.NewReader(b)).Decode(&msg); err != nil {
		return nil, fmt.Errorf("comm: gob-decode message: %w", err)
	}

	return msg, nil
}
