package rpc_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/mycok/vertexbsp/transport"
	vbrpc "github.com/mycok/vertexbsp/transport/rpc"
)

type recordingHandler struct {
	mu               sync.Mutex
	workerMsgCalls   []transport.WorkerMessagesEnvelope
	tokenCalls       []vbrpc.TokenArgs
	forkCalls        []vbrpc.ForkArgs
	globalTokenCalls int
	partitionCalls   []vbrpc.PartitionTokenArgs
}

func (h *recordingHandler) HandleWorkerMessages(envelope transport.WorkerMessagesEnvelope) error {
	h.mu.Lock()
	h.workerMsgCalls = append(h.workerMsgCalls, envelope)
	h.mu.Unlock()
	return nil
}

func (h *recordingHandler) HandleToken(senderID, receiverID string) error {
	h.mu.Lock()
	h.tokenCalls = append(h.tokenCalls, vbrpc.TokenArgs{SenderID: senderID, ReceiverID: receiverID})
	h.mu.Unlock()
	return nil
}

func (h *recordingHandler) HandleFork(senderID, receiverID string) error {
	h.mu.Lock()
	h.forkCalls = append(h.forkCalls, vbrpc.ForkArgs{SenderID: senderID, ReceiverID: receiverID})
	h.mu.Unlock()
	return nil
}

func (h *recordingHandler) HandleGlobalToken() error {
	h.mu.Lock()
	h.globalTokenCalls++
	h.mu.Unlock()
	return nil
}

func (h *recordingHandler) HandlePartitionToken(senderPartitionID, receiverPartitionID int32) error {
	h.mu.Lock()
	h.partitionCalls = append(h.partitionCalls, vbrpc.PartitionTokenArgs{
		SenderPartitionID:   senderPartitionID,
		ReceiverPartitionID: receiverPartitionID,
	})
	h.mu.Unlock()
	return nil
}

type fixedAddressBook map[string]string

func (f fixedAddressBook) Address(taskID string) (string, error) {
	addr, ok := f[taskID]
	if !ok {
		return "", errors.New("unknown task id")
	}
	return addr, nil
}

func TestClientServerRoundTrip(t *testing.T) {
	handler := &recordingHandler{}
	srv := vbrpc.NewServer(handler)

	addr, err := srv.Listen("127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}

	client := vbrpc.NewClient(fixedAddressBook{"worker-2": addr})

	if err := client.SendToken("worker-2", "10", "20"); err != nil {
		t.Fatalf("SendToken: %v", err)
	}
	if err := client.SendFork("worker-2", "20", "10"); err != nil {
		t.Fatalf("SendFork: %v", err)
	}
	if err := client.SendGlobalToken("worker-2"); err != nil {
		t.Fatalf("SendGlobalToken: %v", err)
	}
	if err := client.SendPartitionToken("worker-2", 1, 2); err != nil {
		t.Fatalf("SendPartitionToken: %v", err)
	}
	envelope := transport.WorkerMessagesEnvelope{
		PartitionIDWithPhase: 3,
		Messages: []transport.EncodedMessage{
			{DestID: []byte("v1"), Payload: []byte("hello")},
		},
	}
	if err := client.SendWorkerMessages("worker-2", envelope); err != nil {
		t.Fatalf("SendWorkerMessages: %v", err)
	}

	if err := client.WaitAllRequests(); err != nil {
		t.Fatalf("WaitAllRequests: %v", err)
	}

	handler.mu.Lock()
	defer handler.mu.Unlock()

	if len(handler.tokenCalls) != 1 || handler.tokenCalls[0] != (vbrpc.TokenArgs{SenderID: "10", ReceiverID: "20"}) {
		t.Errorf("unexpected token calls: %+v", handler.tokenCalls)
	}
	if len(handler.forkCalls) != 1 || handler.forkCalls[0] != (vbrpc.ForkArgs{SenderID: "20", ReceiverID: "10"}) {
		t.Errorf("unexpected fork calls: %+v", handler.forkCalls)
	}
	if handler.globalTokenCalls != 1 {
		t.Errorf("got %d global token calls, want 1", handler.globalTokenCalls)
	}
	if len(handler.partitionCalls) != 1 || handler.partitionCalls[0] != (vbrpc.PartitionTokenArgs{SenderPartitionID: 1, ReceiverPartitionID: 2}) {
		t.Errorf("unexpected partition token calls: %+v", handler.partitionCalls)
	}
	if len(handler.workerMsgCalls) != 1 || handler.workerMsgCalls[0].PartitionIDWithPhase != 3 {
		t.Errorf("unexpected worker message calls: %+v", handler.workerMsgCalls)
	}
}

func TestClientUnknownAddressFails(t *testing.T) {
	client := vbrpc.NewClient(fixedAddressBook{})

	if err := client.SendToken("nowhere", "a", "b"); err == nil {
		t.Fatalf("expected an error resolving an unknown task id")
	}
}
