package rpc

import (
	"fmt"
	"net"
	"net/http"
	"net/rpc"

	"github.com/mycok/vertexbsp/transport"
)

// Handler is the worker-side collaborator a Server dispatches arriving
// requests to: in production, the comm and philosophers packages'
// arrival-side methods (message delivery into a MessageStore,
// Table.ReceiveToken / Table.ReceiveFork), wired up by the worker that
// owns them.
type Handler interface {
	HandleWorkerMessages(envelope transport.WorkerMessagesEnvelope) error
	HandleToken(senderID, receiverID string) error
	HandleFork(senderID, receiverID string) error
	HandleGlobalToken() error
	HandlePartitionToken(senderPartitionID, receiverPartitionID int32) error
}

// Server exposes a Handler over net/rpc. It owns its own *rpc.Server
// rather than registering against the package-level default registry, so
// a single process can run more than one Server (one per worker, in
// tests) without their service names colliding.
type Server struct {
	handler Handler
	rpcSrv  *rpc.Server
}

// NewServer wraps handler for RPC dispatch.
func NewServer(handler Handler) *Server {
	s := &Server{handler: handler, rpcSrv: rpc.NewServer()}
	// Registering under a fixed name ("Server") regardless of instance
	// keeps Client's serviceMethod strings ("Server.<Method>") stable;
	// safe because each instance owns an independent *rpc.Server registry.
	_ = s.rpcSrv.RegisterName("Server", (*serverMethods)(s))

	return s
}

// serverMethods is a distinct type so the methods net/rpc discovers by
// reflection are exactly the five Handle* wire entry points below, not any
// future exported method added to Server itself (e.g. Listen).
type serverMethods Server

// Listen starts an HTTP listener on addr, serving this server's RPC
// endpoint in the background. It returns the address actually bound to
// (useful when addr requests an ephemeral port with a zero port number).
func (s *Server) Listen(addr string) (string, error) {
	mux := http.NewServeMux()
	mux.Handle(rpc.DefaultRPCPath, s.rpcSrv)

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return "", fmt.Errorf("rpc: listen on %s: %w", addr, err)
	}

	go http.Serve(listener, mux) //nolint:errcheck // server lifetime is process lifetime

	return listener.Addr().String(), nil
}

// HandleWorkerMessages is the RPC-dispatched entry point for
// SendWorkerMessages.
func (s *serverMethods) HandleWorkerMessages(args *WorkerMessagesArgs, _ *Ack) error {
	return s.handler.HandleWorkerMessages(args.Envelope)
}

// HandleToken is the RPC-dispatched entry point for SendToken.
func (s *serverMethods) HandleToken(args *TokenArgs, _ *Ack) error {
	return s.handler.HandleToken(args.SenderID, args.ReceiverID)
}

// HandleFork is the RPC-dispatched entry point for SendFork.
func (s *serverMethods) HandleFork(args *ForkArgs, _ *Ack) error {
	return s.handler.HandleFork(args.SenderID, args.ReceiverID)
}

// HandleGlobalToken is the RPC-dispatched entry point for SendGlobalToken.
func (s *serverMethods) HandleGlobalToken(_ *GlobalTokenArgs, _ *Ack) error {
	return s.handler.HandleGlobalToken()
}

// HandlePartitionToken is the RPC-dispatched entry point for
// SendPartitionToken.
func (s *serverMethods) HandlePartitionToken(args *PartitionTokenArgs, _ *Ack) error {
	return s.handler.HandlePartitionToken(args.SenderPartitionID, args.ReceiverPartitionID)
}
