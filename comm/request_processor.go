package comm

import (
	"fmt"
	"sync/atomic"

	"github.com/mycok/vertexbsp/bsp"
	"github.com/mycok/vertexbsp/partition"
	"github.com/mycok/vertexbsp/transport"
)

// taskBucket accumulates every not-yet-flushed outgoing message destined
// for one remote task, grouped by the partition (with its next-phase flag
// already encoded) the message belongs to. size is the running total of
// encoded bytes across every partition in the bucket; it is what
// maxMessagesSizePerWorker is checked against.
type taskBucket struct {
	size        int
	byPartition map[int32][]transport.EncodedMessage
}

// RequestProcessorConfig configures a RequestProcessor. It is deliberately
// small: the fields that change per super-step or per phase (ForNextPhase)
// are mutated directly rather than re-constructing the processor.
type RequestProcessorConfig struct {
	// SelfTaskID is this worker's own task id, used to detect the local
	// short-circuit.
	SelfTaskID string
	// AsyncEnabled turns on the local short-circuit: a message whose
	// destination task equals SelfTaskID is appended directly to the
	// local MessageStore instead of being serialised and queued.
	AsyncEnabled bool
	// MultiPhaseEnabled allows ForNextPhase to take effect; ignored
	// otherwise.
	MultiPhaseEnabled bool
	// MaxMessagesSizePerWorker is the accumulated encoded-byte threshold
	// per destination task that triggers an eager flush.
	MaxMessagesSizePerWorker int
	// MaxVertexBufferBytes, if non-zero, rejects any single message whose
	// own encoded size exceeds it with ErrPayloadTooLarge, before it is
	// ever buffered. Zero disables the check.
	MaxVertexBufferBytes int
	// NeedAllMessages routes every sent message through the source-keyed
	// stores instead of the plain ones, and tags outgoing wire messages
	// with CurrentSourceID. It must agree with the ServerData this
	// RequestProcessor was built with.
	NeedAllMessages bool
	// InitialCacheSlack pre-sizes each per-partition message slice so the
	// first appends after a flush do not immediately reallocate. Zero
	// leaves sizing to append's growth policy.
	InitialCacheSlack int
}

// RequestProcessor batches one compute thread's outgoing messages by
// destination worker task, flushing a destination's bucket to the
// transport once its accumulated encoded size crosses the configured
// threshold. It is not safe for concurrent use by more than one goroutine;
// the compute loop gives each compute thread its own RequestProcessor.
type RequestProcessor struct {
	cfg RequestProcessorConfig

	lookup     partition.OwnerLookup
	transport  transport.Transport
	codec      Codec
	serverData *ServerData

	// ForNextPhase tags every subsequent SendMessage call as destined for
	// the next computation phase, under multi-phase async. The compute
	// loop flips this between the phases of a single super-step.
	ForNextPhase bool

	// CurrentSourceID is the id of the vertex currently being computed.
	// The compute loop sets it before invoking a vertex's Compute method
	// so that every message that vertex sends is attributed to it; only
	// consulted when cfg.NeedAllMessages is set.
	CurrentSourceID string

	buckets map[string]*taskBucket

	messagesSent      int64
	localMessagesSent int64
	messageBytesSent  int64
}

// NewRequestProcessor creates a RequestProcessor for one compute thread.
func NewRequestProcessor(cfg RequestProcessorConfig, lookup partition.OwnerLookup, tr transport.Transport, codec Codec, serverData *ServerData) *RequestProcessor {
	return &RequestProcessor{
		cfg:        cfg,
		lookup:     lookup,
		transport:  tr,
		codec:      codec,
		serverData: serverData,
		buckets:    make(map[string]*taskBucket),
	}
}

// SendMessage routes msg to destID: directly into the local MessageStore
// when the local short-circuit applies, otherwise into the per-task
// outgoing bucket, flushing that bucket immediately if it is now full.
func (rp *RequestProcessor) SendMessage(destID string, msg bsp.Message) error {
	owner, err := rp.lookup.OwnerOf(destID)
	if err != nil {
		return fmt.Errorf("comm: resolve owner of %s: %w", destID, err)
	}

	forNextPhase := rp.ForNextPhase && rp.cfg.MultiPhaseEnabled
	partitionIDWithPhase := partition.EncodeWithPhase(owner.PartitionID, forNextPhase)

	atomic.AddInt64(&rp.messagesSent, 1)

	if rp.cfg.AsyncEnabled && owner.TaskID == rp.cfg.SelfTaskID {
		atomic.AddInt64(&rp.localMessagesSent, 1)

		if rp.cfg.NeedAllMessages {
			wsStore := rp.serverData.LocalSourceStore(owner.PartitionID)
			if forNextPhase {
				wsStore = rp.serverData.NextPhaseLocalSourceStore(owner.PartitionID)
			}
			wsStore.AddMessage(destID, rp.CurrentSourceID, msg)

			return nil
		}

		store := rp.serverData.LocalStore(owner.PartitionID)
		if forNextPhase {
			store = rp.serverData.NextPhaseLocalStore(owner.PartitionID)
		}
		store.AddMessage(destID, msg)

		return nil
	}

	payload, err := rp.codec.EncodeMessage(msg)
	if err != nil {
		return fmt.Errorf("comm: encode message for %s: %w", destID, err)
	}
	encDest := rp.codec.EncodeID(destID)

	var encSource []byte
	if rp.cfg.NeedAllMessages {
		encSource = rp.codec.EncodeID(rp.CurrentSourceID)
	}

	size := len(payload) + len(encDest) + len(encSource)
	if rp.cfg.MaxVertexBufferBytes > 0 && size > rp.cfg.MaxVertexBufferBytes {
		return fmt.Errorf("%w: message to %s is %d bytes, max is %d", ErrPayloadTooLarge, destID, size, rp.cfg.MaxVertexBufferBytes)
	}

	bucket, ok := rp.buckets[owner.TaskID]
	if !ok {
		bucket = &taskBucket{byPartition: make(map[int32][]transport.EncodedMessage)}
		rp.buckets[owner.TaskID] = bucket
	}
	msgs, ok := bucket.byPartition[partitionIDWithPhase]
	if !ok && rp.cfg.InitialCacheSlack > 0 {
		msgs = make([]transport.EncodedMessage, 0, rp.cfg.InitialCacheSlack)
	}
	bucket.byPartition[partitionIDWithPhase] = append(msgs, transport.EncodedMessage{
		DestID:   encDest,
		SourceID: encSource,
		Payload:  payload,
	})
	bucket.size += size

	if bucket.size >= rp.cfg.MaxMessagesSizePerWorker {
		delete(rp.buckets, owner.TaskID)

		return rp.flushBucket(owner.TaskID, bucket)
	}

	return nil
}

// SendMessageToAllEdges sends msg to every destination named by v's
// out-edges, stopping at the first error.
func (rp *RequestProcessor) SendMessageToAllEdges(v *bsp.Vertex, msg bsp.Message) error {
	for _, e := range v.Edges() {
		if err := rp.SendMessage(e.DestID(), msg); err != nil {
			return err
		}
	}

	return nil
}

// flushBucket emits one SendWorkerMessages request per partition the
// bucket has accumulated messages for (the wire envelope carries a single
// partition at a time), updating the remote-bytes-sent counter.
func (rp *RequestProcessor) flushBucket(taskID string, bucket *taskBucket) error {
	var sentBytes int

	for partitionIDWithPhase, msgs := range bucket.byPartition {
		envelope := transport.WorkerMessagesEnvelope{
			PartitionIDWithPhase: partitionIDWithPhase,
			Messages:             msgs,
		}
		for _, m := range msgs {
			sentBytes += len(m.DestID) + len(m.SourceID) + len(m.Payload)
		}
		if err := rp.transport.SendWorkerMessages(taskID, envelope); err != nil {
			return fmt.Errorf("comm: send worker messages to %s: %w", taskID, err)
		}
	}

	atomic.AddInt64(&rp.messageBytesSent, int64(sentBytes))

	return nil
}

// Flush detaches and emits every remaining per-task bucket. Called at the
// end of a super-step (or before releasing a fork/token) so no buffered
// message is left unsent across a serialisability boundary.
func (rp *RequestProcessor) Flush() error {
	buckets := rp.buckets
	rp.buckets = make(map[string]*taskBucket)

	for taskID, bucket := range buckets {
		if err := rp.flushBucket(taskID, bucket); err != nil {
			return err
		}
	}

	return nil
}

// MessagesSent returns the count of messages sent since the last
// ResetCounters call. bapOnly selects the barrierless-asynchronous
// reporting convention, under which only locally short-circuited messages
// count towards termination (remote sends are not barrier-synchronised, so
// counting them would never let the computation see a quiescent total).
func (rp *RequestProcessor) MessagesSent(bapOnly bool) int64 {
	if bapOnly {
		return atomic.LoadInt64(&rp.localMessagesSent)
	}

	return atomic.LoadInt64(&rp.messagesSent)
}

// MessageBytesSent returns the count of remote-serialised bytes sent since
// the last ResetCounters call.
func (rp *RequestProcessor) MessageBytesSent() int64 {
	return atomic.LoadInt64(&rp.messageBytesSent)
}

// ResetCounters zeroes every counter, returning their pre-reset values.
func (rp *RequestProcessor) ResetCounters() (messagesSent, localMessagesSent, messageBytesSent int64) {
	messagesSent = atomic.SwapInt64(&rp.messagesSent, 0)
	localMessagesSent = atomic.SwapInt64(&rp.localMessagesSent, 0)
	messageBytesSent = atomic.SwapInt64(&rp.messageBytesSent, 0)

	return
}

var _ bsp.MessageSender = (*RequestProcessor)(nil)
