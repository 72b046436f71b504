// Package transport defines the wire contract workers use to exchange
// messages, tokens and forks: an async fire-and-forget send plus a
// blocking barrier that waits for every outstanding send to be
// acknowledged. The engine assumes a reliable unicast channel; transport
// implementations are responsible for redelivery, the engine is not.
package transport

// WorkerMessagesEnvelope carries one compute thread's outgoing batch of
// vertex messages destined for a single partition on a single worker. The
// partition id's high bit encodes the next-phase flag (see
// partition.EncodeWithPhase); everything below the high bit is the real
// partition id.
type WorkerMessagesEnvelope struct {
	PartitionIDWithPhase int32
	Messages             []EncodedMessage
}

// EncodedMessage pairs an encoded destination vertex id with its encoded
// message payload, both already serialised by the caller. SourceID is only
// populated when the computation is configured with needAllMessages, where
// the receiving store must key each message by its sender so a later
// message from the same source overwrites rather than accumulates.
type EncodedMessage struct {
	DestID   []byte
	SourceID []byte
	Payload  []byte
}

// Transport is the collaborator the worker core sends wire messages
// through. A concrete implementation (transport/rpc) owns the actual
// network channel; the core only depends on this interface so it can be
// exercised against a fake in tests.
type Transport interface {
	// SendWorkerMessages delivers a batch of vertex messages to taskID,
	// asynchronously. The call must not block on acknowledgement.
	SendWorkerMessages(taskID string, envelope WorkerMessagesEnvelope) error

	// SendToken delivers a distributed-locking token/fork-request from
	// senderID to receiverID, addressed to taskID.
	SendToken(taskID string, senderID, receiverID string) error

	// SendFork delivers a distributed-locking fork from senderID to
	// receiverID, addressed to taskID.
	SendFork(taskID string, senderID, receiverID string) error

	// SendGlobalToken hands the global token to the worker identified by
	// taskID.
	SendGlobalToken(taskID string) error

	// SendPartitionToken hands a partition token from senderPartitionID
	// to receiverPartitionID, both owned by taskID.
	SendPartitionToken(taskID string, senderPartitionID, receiverPartitionID int32) error

	// WaitAllRequests blocks until every request sent through this
	// Transport has been acknowledged by its destination. Used as the
	// barrier between super-steps and before a philosopher may eat.
	WaitAllRequests() error
}
