package comm_test

import (
	"encoding/gob"
	"errors"
	"sync"
	"testing"

	"github.com/mycok/vertexbsp/bsp"
	"github.com/mycok/vertexbsp/comm"
	"github.com/mycok/vertexbsp/partition"
	"github.com/mycok/vertexbsp/transport"
)

type strMsg string

func init() {
	gob.Register(strMsg(""))
}

type fakeLookup map[string]partition.Owner

func (f fakeLookup) OwnerOf(id string) (partition.Owner, error) {
	o, ok := f[id]
	if !ok {
		return partition.Owner{}, errors.New("unknown vertex")
	}

	return o, nil
}

type recordingTransport struct {
	mu        sync.Mutex
	envelopes []transport.WorkerMessagesEnvelope
	taskIDs   []string
}

func (t *recordingTransport) SendWorkerMessages(taskID string, envelope transport.WorkerMessagesEnvelope) error {
	t.mu.Lock()
	t.taskIDs = append(t.taskIDs, taskID)
	t.envelopes = append(t.envelopes, envelope)
	t.mu.Unlock()

	return nil
}
func (t *recordingTransport) SendToken(string, string, string) error        { return nil }
func (t *recordingTransport) SendFork(string, string, string) error         { return nil }
func (t *recordingTransport) SendGlobalToken(string) error                  { return nil }
func (t *recordingTransport) SendPartitionToken(string, int32, int32) error { return nil }
func (t *recordingTransport) WaitAllRequests() error                       { return nil }

func TestSendMessageLocalShortCircuit(t *testing.T) {
	lookup := fakeLookup{"v2": {PartitionID: 1, WorkerID: "w1", TaskID: "task-1"}}
	tr := &recordingTransport{}
	sd := comm.NewServerData(comm.ModeAsync, false, 0)

	rp := comm.NewRequestProcessor(comm.RequestProcessorConfig{
		SelfTaskID:               "task-1",
		AsyncEnabled:             true,
		MaxMessagesSizePerWorker: 1 << 20,
	}, lookup, tr, comm.NewGobCodec(), sd)

	if err := rp.SendMessage("v2", strMsg("hello")); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}

	if len(tr.envelopes) != 0 {
		t.Fatalf("expected no wire sends for a local destination, got %d", len(tr.envelopes))
	}

	msgs := sd.LocalStore(1).RemoveVertexMessages("v2")
	if len(msgs) != 1 || msgs[0] != strMsg("hello") {
		t.Fatalf("got %v, want [hello] in the local store", msgs)
	}

	sent, local, _ := rp.ResetCounters()
	if sent != 1 || local != 1 {
		t.Fatalf("got sent=%d local=%d, want 1,1", sent, local)
	}
}

func TestSendMessageRemoteBucketsAndFlushesOnThreshold(t *testing.T) {
	lookup := fakeLookup{"v2": {PartitionID: 1, WorkerID: "w2", TaskID: "task-2"}}
	tr := &recordingTransport{}
	sd := comm.NewServerData(comm.ModeBSP, false, 0)

	rp := comm.NewRequestProcessor(comm.RequestProcessorConfig{
		SelfTaskID:               "task-1",
		MaxMessagesSizePerWorker: 1, // flush on the very first message
	}, lookup, tr, comm.NewGobCodec(), sd)

	if err := rp.SendMessage("v2", strMsg("hello")); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}

	if len(tr.envelopes) != 1 {
		t.Fatalf("got %d flushed envelopes, want 1", len(tr.envelopes))
	}
	if tr.taskIDs[0] != "task-2" {
		t.Fatalf("got taskID %s, want task-2", tr.taskIDs[0])
	}
}

func TestFlushEmitsRemainingBuckets(t *testing.T) {
	lookup := fakeLookup{"v2": {PartitionID: 1, WorkerID: "w2", TaskID: "task-2"}}
	tr := &recordingTransport{}
	sd := comm.NewServerData(comm.ModeBSP, false, 0)

	rp := comm.NewRequestProcessor(comm.RequestProcessorConfig{
		SelfTaskID:               "task-1",
		MaxMessagesSizePerWorker: 1 << 20, // never triggers on its own
	}, lookup, tr, comm.NewGobCodec(), sd)

	if err := rp.SendMessage("v2", strMsg("hello")); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if len(tr.envelopes) != 0 {
		t.Fatalf("expected no flush before Flush() is called")
	}

	if err := rp.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if len(tr.envelopes) != 1 {
		t.Fatalf("got %d envelopes after Flush, want 1", len(tr.envelopes))
	}

	// A second Flush with nothing buffered must be a no-op, not re-send.
	if err := rp.Flush(); err != nil {
		t.Fatalf("second Flush: %v", err)
	}
	if len(tr.envelopes) != 1 {
		t.Fatalf("got %d envelopes after second Flush, want still 1", len(tr.envelopes))
	}
}

func TestSendMessageRejectsOversizedPayload(t *testing.T) {
	lookup := fakeLookup{"v2": {PartitionID: 1, WorkerID: "w2", TaskID: "task-2"}}
	tr := &recordingTransport{}
	sd := comm.NewServerData(comm.ModeBSP, false, 0)

	rp := comm.NewRequestProcessor(comm.RequestProcessorConfig{
		SelfTaskID:               "task-1",
		MaxMessagesSizePerWorker: 1 << 20,
		MaxVertexBufferBytes:     4,
	}, lookup, tr, comm.NewGobCodec(), sd)

	err := rp.SendMessage("v2", strMsg("this message is much larger than 4 bytes"))
	if !errors.Is(err, comm.ErrPayloadTooLarge) {
		t.Fatalf("got err %v, want ErrPayloadTooLarge", err)
	}
	if len(tr.envelopes) != 0 {
		t.Fatalf("expected a rejected message not to be buffered or sent")
	}
}

func TestSendMessageLocalShortCircuitTagsSource(t *testing.T) {
	lookup := fakeLookup{"v2": {PartitionID: 1, WorkerID: "w1", TaskID: "task-1"}}
	tr := &recordingTransport{}
	sd := comm.NewServerData(comm.ModeAsync, false, 0).WithNeedAllMessages()

	rp := comm.NewRequestProcessor(comm.RequestProcessorConfig{
		SelfTaskID:               "task-1",
		AsyncEnabled:             true,
		MaxMessagesSizePerWorker: 1 << 20,
		NeedAllMessages:          true,
	}, lookup, tr, comm.NewGobCodec(), sd)
	rp.CurrentSourceID = "v1"

	if err := rp.SendMessage("v2", strMsg("bitmask")); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}

	msgs, srcs := sd.LocalSourceStore(1).GetVertexMessagesWithSources("v2")
	if len(msgs) != 1 || msgs[0] != strMsg("bitmask") || srcs[0] != "v1" {
		t.Fatalf("got %v from %v, want [bitmask] attributed to v1 in the source-keyed local store", msgs, srcs)
	}
}

func TestSendMessageToAllEdges(t *testing.T) {
	lookup := fakeLookup{
		"v2": {PartitionID: 1, WorkerID: "w1", TaskID: "task-1"},
		"v3": {PartitionID: 1, WorkerID: "w1", TaskID: "task-1"},
	}
	tr := &recordingTransport{}
	sd := comm.NewServerData(comm.ModeAsync, false, 0)

	rp := comm.NewRequestProcessor(comm.RequestProcessorConfig{
		SelfTaskID:               "task-1",
		AsyncEnabled:             true,
		MaxMessagesSizePerWorker: 1 << 20,
	}, lookup, tr, comm.NewGobCodec(), sd)

	v := bsp.NewVertex("v1", nil)
	v.AddEdge(bsp.NewEdge("v2", nil))
	v.AddEdge(bsp.NewEdge("v3", nil))

	if err := rp.SendMessageToAllEdges(v, strMsg("ping")); err != nil {
		t.Fatalf("SendMessageToAllEdges: %v", err)
	}

	if len(sd.LocalStore(1).RemoveVertexMessages("v2")) != 1 {
		t.Fatalf("expected v2 to have received the message")
	}
	if len(sd.LocalStore(1).RemoveVertexMessages("v3")) != 1 {
		t.Fatalf("expected v3 to have received the message")
	}
}
