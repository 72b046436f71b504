// Package rpc is a concrete transport.Transport backed by the standard
// library's net/rpc over encoding/gob: a plain TCP/HTTP RPC channel with no
// code generation step, so every request/response type here is a regular
// Go struct that net/rpc's gob codec encodes directly. The only explicit
// gob registration is transport.WorkerMessagesEnvelope, in client.go's init.
package rpc

import "github.com/mycok/vertexbsp/transport"

// Ack is the empty acknowledgement every handler returns; its only purpose
// is to give rpc.Client.Go something to decode into, since the arg itself
// already carries every outcome through the returned error.
type Ack struct{}

// WorkerMessagesArgs is the wire argument for SendWorkerMessages.
type WorkerMessagesArgs struct {
	Envelope transport.WorkerMessagesEnvelope
}

// TokenArgs is the wire argument for SendToken.
type TokenArgs struct {
	SenderID   string
	ReceiverID string
}

// ForkArgs is the wire argument for SendFork.
type ForkArgs struct {
	SenderID   string
	ReceiverID string
}

// GlobalTokenArgs is the wire argument for SendGlobalToken. It carries no
// payload: the receiving task is already addressed by the RPC connection
// itself.
type GlobalTokenArgs struct{}

// PartitionTokenArgs is the wire argument for SendPartitionToken.
type PartitionTokenArgs struct {
	SenderPartitionID   int32
	ReceiverPartitionID int32
}
