package comm

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/mycok/vertexbsp/message"
	"github.com/mycok/vertexbsp/partition"
	"github.com/mycok/vertexbsp/philosophers"
	"github.com/mycok/vertexbsp/token"
	"github.com/mycok/vertexbsp/transport"
)

// Receiver implements the arrival side of every wire request a worker may
// receive (transport/rpc.Handler's shape, kept decoupled from that package
// so comm never imports net/rpc), decoding each into this worker's
// ServerData and handing token/fork traffic to whichever serialisability
// layer is configured. At most one of VertexForks/PartitionForks is
// expected to be non-nil for a given worker configuration, since a worker
// runs under exactly one discipline at a time.
type Receiver struct {
	ServerData *ServerData
	Codec      Codec

	VertexForks    *philosophers.Table
	PartitionForks *philosophers.Table

	GlobalRing    *token.Ring
	PartitionRing *token.Ring

	Log *logrus.Entry
}

// HandleWorkerMessages decodes envelope and appends every message to the
// appropriate store: the source-keyed remote (or next-phase-remote) store
// when this worker's ServerData was configured with WithNeedAllMessages,
// the plain remote (or next-phase-remote) store under async otherwise, or
// the incoming store under BSP.
func (r *Receiver) HandleWorkerMessages(envelope transport.WorkerMessagesEnvelope) error {
	partitionID, forNextPhase := partition.DecodeWithPhase(envelope.PartitionIDWithPhase)

	if r.ServerData.NeedAllMessages() {
		var wsStore *message.WithSourceStore
		if forNextPhase {
			wsStore = r.ServerData.NextPhaseRemoteSourceStore(partitionID)
		} else {
			wsStore = r.ServerData.RemoteSourceStore(partitionID)
		}

		for _, m := range envelope.Messages {
			destID := r.Codec.DecodeID(m.DestID)
			sourceID := r.Codec.DecodeID(m.SourceID)
			msg, err := r.Codec.DecodeMessage(m.Payload)
			if err != nil {
				return fmt.Errorf("comm: decode message for %s: %w", destID, err)
			}

			wsStore.AddMessage(destID, sourceID, msg)
		}

		return nil
	}

	var store *message.Store
	switch {
	case forNextPhase:
		store = r.ServerData.NextPhaseRemoteStore(partitionID)
	case r.ServerData.mode == ModeAsync:
		store = r.ServerData.RemoteStore(partitionID)
	default:
		store = r.ServerData.IncomingStore(partitionID)
	}

	for _, m := range envelope.Messages {
		destID := r.Codec.DecodeID(m.DestID)
		msg, err := r.Codec.DecodeMessage(m.Payload)
		if err != nil {
			return fmt.Errorf("comm: decode message for %s: %w", destID, err)
		}

		if err := store.AddEncodedMessage(destID, msg, len(m.DestID)+len(m.Payload)); err != nil {
			return err
		}
	}

	return nil
}

func (r *Receiver) forksTable() *philosophers.Table {
	if r.VertexForks != nil {
		return r.VertexForks
	}

	return r.PartitionForks
}

// HandleToken forwards an arriving token to whichever philosophers table
// this worker is configured with. It is a no-op if neither is set.
func (r *Receiver) HandleToken(senderID, receiverID string) error {
	t := r.forksTable()
	if t == nil {
		return nil
	}

	return t.ReceiveToken(senderID, receiverID)
}

// HandleFork forwards an arriving fork to whichever philosophers table this
// worker is configured with. It is a no-op if neither is set.
func (r *Receiver) HandleFork(senderID, receiverID string) error {
	t := r.forksTable()
	if t == nil {
		return nil
	}

	return t.ReceiveFork(senderID, receiverID)
}

// HandleGlobalToken advances the global ring's local view to reflect that
// this worker now holds the token. Ring order is fixed and identical on
// every worker, so no sender/holder identity needs to travel on the wire;
// arrival of the message is itself the signal to advance.
func (r *Receiver) HandleGlobalToken() error {
	if r.GlobalRing == nil {
		return nil
	}

	r.GlobalRing.Advance()

	return nil
}

// HandlePartitionToken advances the partition ring's local view, logging a
// warning if the sender is not the holder this worker expects (a sign the
// ring has desynchronised, which should not happen given a reliable
// transport). The receiver id is logged but not checked.
func (r *Receiver) HandlePartitionToken(senderPartitionID, receiverPartitionID int32) error {
	if r.PartitionRing == nil {
		return nil
	}

	holder := r.PartitionRing.Holder()
	wantSender := fmt.Sprintf("%d", senderPartitionID)
	if holder != wantSender && r.Log != nil {
		r.Log.WithFields(logrus.Fields{
			"expected_holder": holder,
			"sender":          wantSender,
			"receiver":        receiverPartitionID,
		}).Warn("comm: partition token arrived from an unexpected holder")
	}

	r.PartitionRing.Advance()

	return nil
}
