package rpc

import (
	"encoding/gob"
	"fmt"
	"net/rpc"
	"sync"

	"github.com/mycok/vertexbsp/transport"
)

// AddressBook resolves a task id to the network address its RPC server is
// listening on. Backed, in production, by the same cluster membership
// service the engine otherwise treats as an external collaborator.
type AddressBook interface {
	Address(taskID string) (string, error)
}

// Client is a transport.Transport implementation that dials one
// *rpc.Client per destination task and keeps it open for the life of the
// process, exactly as GobRPCClientBase's workerClients map does.
type Client struct {
	addresses AddressBook

	mu      sync.Mutex
	clients map[string]*rpc.Client

	pendingMu sync.Mutex
	pending   []*rpc.Call
}

// NewClient creates a Client that resolves destinations through
// addresses.
func NewClient(addresses AddressBook) *Client {
	return &Client{
		addresses: addresses,
		clients:   make(map[string]*rpc.Client),
	}
}

func (c *Client) clientFor(taskID string) (*rpc.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if cl, ok := c.clients[taskID]; ok {
		return cl, nil
	}

	addr, err := c.addresses.Address(taskID)
	if err != nil {
		return nil, fmt.Errorf("rpc: resolve address for task %s: %w", taskID, err)
	}

	cl, err := rpc.DialHTTP("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("rpc: dial task %s at %s: %w", taskID, addr, err)
	}

	c.clients[taskID] = cl

	return cl, nil
}

// asyncCall fires a request without waiting for the response, recording
// the in-flight *rpc.Call so WaitAllRequests can later block on it. This
// is the fire-and-forget half of the transport contract.
func (c *Client) asyncCall(taskID, serviceMethod string, args interface{}) error {
	cl, err := c.clientFor(taskID)
	if err != nil {
		return err
	}

	call := cl.Go(serviceMethod, args, &Ack{}, nil)

	c.pendingMu.Lock()
	c.pending = append(c.pending, call)
	c.pendingMu.Unlock()

	return nil
}

// SendWorkerMessages implements transport.Transport.
func (c *Client) SendWorkerMessages(taskID string, envelope transport.WorkerMessagesEnvelope) error {
	return c.asyncCall(taskID, "Server.HandleWorkerMessages", &WorkerMessagesArgs{Envelope: envelope})
}

// SendToken implements transport.Transport.
func (c *Client) SendToken(taskID string, senderID, receiverID string) error {
	return c.asyncCall(taskID, "Server.HandleToken", &TokenArgs{SenderID: senderID, ReceiverID: receiverID})
}

// SendFork implements transport.Transport.
func (c *Client) SendFork(taskID string, senderID, receiverID string) error {
	return c.asyncCall(taskID, "Server.HandleFork", &ForkArgs{SenderID: senderID, ReceiverID: receiverID})
}

// SendGlobalToken implements transport.Transport.
func (c *Client) SendGlobalToken(taskID string) error {
	return c.asyncCall(taskID, "Server.HandleGlobalToken", &GlobalTokenArgs{})
}

// SendPartitionToken implements transport.Transport.
func (c *Client) SendPartitionToken(taskID string, senderPartitionID, receiverPartitionID int32) error {
	return c.asyncCall(taskID, "Server.HandlePartitionToken", &PartitionTokenArgs{
		SenderPartitionID:   senderPartitionID,
		ReceiverPartitionID: receiverPartitionID,
	})
}

// WaitAllRequests implements transport.Transport. It blocks until every
// request sent since the last call to WaitAllRequests has completed,
// returning the first error encountered (if any) after draining the rest.
func (c *Client) WaitAllRequests() error {
	c.pendingMu.Lock()
	pending := c.pending
	c.pending = nil
	c.pendingMu.Unlock()

	var firstErr error
	for _, call := range pending {
		<-call.Done
		if call.Error != nil && firstErr == nil {
			firstErr = call.Error
		}
	}

	return firstErr
}

func init() {
	gob.Register(transport.WorkerMessagesEnvelope{})
}
