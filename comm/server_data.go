package comm

import (
	"sync"

	"github.com/mycok/vertexbsp/message"
)

// Mode selects which set of message stores ServerData rotates at a
// super-step boundary.
type Mode int

const (
	// ModeBSP is synchronous bulk-synchronous-parallel execution: a
	// current/incoming pair of stores is swapped at every boundary.
	ModeBSP Mode = iota
	// ModeAsync is either barrier or barrierless asynchronous execution:
	// a single remote/local pair of stores persists across super-steps
	// of the same phase.
	ModeAsync
)

// ServerData owns the per-partition message stores a worker needs and
// rotates them across super-step boundaries according to the configured
// execution discipline. It does not decide when a boundary occurs; the
// worker coordinator calls RotateSuperstep (BSP) or PromotePhase
// (multi-phase async) once every partition pass for the step has quiesced.
type ServerData struct {
	mode              Mode
	multiPhase        bool
	needAllMessages   bool
	maxBytesPerVertex int

	mu sync.Mutex

	current  map[int32]*message.Store
	incoming map[int32]*message.Store

	remote map[int32]*message.Store
	local  map[int32]*message.Store

	nextPhaseRemote map[int32]*message.Store
	nextPhaseLocal  map[int32]*message.Store

	// The needAllMessages variants of remote/local/next-phase-*, populated
	// instead of the plain stores above when needAllMessages is enabled.
	// needAllMessages is only supported under async, so current/
	// incoming never gain a source-keyed counterpart.
	remoteWS map[int32]*message.WithSourceStore
	localWS  map[int32]*message.WithSourceStore

	nextPhaseRemoteWS map[int32]*message.WithSourceStore
	nextPhaseLocalWS  map[int32]*message.WithSourceStore
}

// NewServerData creates a ServerData for the given discipline.
// maxBytesPerVertex, if non-zero, bounds every plain store it lazily
// creates; see message.NewBoundedStore. The source-keyed store variant for
// the remote/local (and next-phase) stores is enabled separately, with
// WithNeedAllMessages; see RemoteSourceStore.
func NewServerData(mode Mode, multiPhase bool, maxBytesPerVertex int) *ServerData {
	return &ServerData{
		mode:              mode,
		multiPhase:        multiPhase,
		maxBytesPerVertex: maxBytesPerVertex,
		current:           make(map[int32]*message.Store),
		incoming:          make(map[int32]*message.Store),
		remote:            make(map[int32]*message.Store),
		local:             make(map[int32]*message.Store),
		nextPhaseRemote:   make(map[int32]*message.Store),
		nextPhaseLocal:    make(map[int32]*message.Store),
		remoteWS:          make(map[int32]*message.WithSourceStore),
		localWS:           make(map[int32]*message.WithSourceStore),
		nextPhaseRemoteWS: make(map[int32]*message.WithSourceStore),
		nextPhaseLocalWS:  make(map[int32]*message.WithSourceStore),
	}
}

// Mode reports which discipline this ServerData was constructed for.
func (sd *ServerData) Mode() Mode {
	return sd.mode
}

// WithNeedAllMessages enables the source-keyed store variant for this
// ServerData's remote/local (and next-phase) stores. Returns sd for
// chaining at construction time.
func (sd *ServerData) WithNeedAllMessages() *ServerData {
	sd.needAllMessages = true

	return sd
}

// NeedAllMessages reports whether this ServerData was configured with
// WithNeedAllMessages.
func (sd *ServerData) NeedAllMessages() bool {
	return sd.needAllMessages
}

func (sd *ServerData) newStore() *message.Store {
	if sd.maxBytesPerVertex > 0 {
		return message.NewBoundedStore(sd.maxBytesPerVertex)
	}

	return message.NewStore()
}

func (sd *ServerData) storeFor(m map[int32]*message.Store, partitionID int32) *message.Store {
	sd.mu.Lock()
	defer sd.mu.Unlock()

	s, ok := m[partitionID]
	if !ok {
		s = sd.newStore()
		m[partitionID] = s
	}

	return s
}

func (sd *ServerData) wsStoreFor(m map[int32]*message.WithSourceStore, partitionID int32) *message.WithSourceStore {
	sd.mu.Lock()
	defer sd.mu.Unlock()

	s, ok := m[partitionID]
	if !ok {
		s = message.NewWithSourceStore()
		m[partitionID] = s
	}

	return s
}

// CurrentStore returns the BSP store compute reads from this super-step,
// creating it on first use.
func (sd *ServerData) CurrentStore(partitionID int32) *message.Store {
	return sd.storeFor(sd.current, partitionID)
}

// IncomingStore returns the BSP store messages sent this super-step are
// buffered into, for delivery next super-step.
func (sd *ServerData) IncomingStore(partitionID int32) *message.Store {
	return sd.storeFor(sd.incoming, partitionID)
}

// RemoteStore returns the persistent async store that messages arriving
// over the wire are delivered into.
func (sd *ServerData) RemoteStore(partitionID int32) *message.Store {
	return sd.storeFor(sd.remote, partitionID)
}

// LocalStore returns the persistent async store that RequestProcessor's
// local short-circuit appends directly into.
func (sd *ServerData) LocalStore(partitionID int32) *message.Store {
	return sd.storeFor(sd.local, partitionID)
}

// NextPhaseRemoteStore returns the staging store for wire-delivered
// messages addressed to the next computation phase, under multi-phase
// async.
func (sd *ServerData) NextPhaseRemoteStore(partitionID int32) *message.Store {
	return sd.storeFor(sd.nextPhaseRemote, partitionID)
}

// NextPhaseLocalStore is NextPhaseRemoteStore's local-short-circuit
// counterpart.
func (sd *ServerData) NextPhaseLocalStore(partitionID int32) *message.Store {
	return sd.storeFor(sd.nextPhaseLocal, partitionID)
}

// RemoteSourceStore is RemoteStore's needAllMessages counterpart: the
// persistent async store, keyed by source vertex, that wire-delivered
// messages land in when this ServerData was built with
// WithNeedAllMessages.
func (sd *ServerData) RemoteSourceStore(partitionID int32) *message.WithSourceStore {
	return sd.wsStoreFor(sd.remoteWS, partitionID)
}

// LocalSourceStore is LocalStore's needAllMessages counterpart: the store
// RequestProcessor's local short-circuit appends directly into when this
// ServerData was built with WithNeedAllMessages.
func (sd *ServerData) LocalSourceStore(partitionID int32) *message.WithSourceStore {
	return sd.wsStoreFor(sd.localWS, partitionID)
}

// NextPhaseRemoteSourceStore is NextPhaseRemoteStore's needAllMessages
// counterpart.
func (sd *ServerData) NextPhaseRemoteSourceStore(partitionID int32) *message.WithSourceStore {
	return sd.wsStoreFor(sd.nextPhaseRemoteWS, partitionID)
}

// NextPhaseLocalSourceStore is NextPhaseLocalStore's needAllMessages
// counterpart.
func (sd *ServerData) NextPhaseLocalSourceStore(partitionID int32) *message.WithSourceStore {
	return sd.wsStoreFor(sd.nextPhaseLocalWS, partitionID)
}

// RotateSuperstep performs the synchronous-BSP store rotation for every
// partition id in partitionIDs: the previous current store is discarded,
// incoming is promoted to current, and a fresh empty incoming store is
// allocated. It is a no-op under ModeAsync, where remote/local stores
// persist across the whole phase instead.
func (sd *ServerData) RotateSuperstep(partitionIDs []int32) {
	if sd.mode != ModeBSP {
		return
	}

	sd.mu.Lock()
	defer sd.mu.Unlock()

	for _, id := range partitionIDs {
		incoming, ok := sd.incoming[id]
		if !ok {
			incoming = sd.newStore()
		}
		sd.current[id] = incoming
		sd.incoming[id] = sd.newStore()
	}
}

// PromotePhase performs the multi-phase-async store promotion for every
// partition id in partitionIDs: nextPhaseRemote/nextPhaseLocal become
// remote/local, and fresh next-phase stores are allocated. It is a no-op
// when multi-phase async is not enabled.
func (sd *ServerData) PromotePhase(partitionIDs []int32) {
	if !sd.multiPhase {
		return
	}

	sd.mu.Lock()
	defer sd.mu.Unlock()

	for _, id := range partitionIDs {
		nextRemote, ok := sd.nextPhaseRemote[id]
		if !ok {
			nextRemote = sd.newStore()
		}
		nextLocal, ok := sd.nextPhaseLocal[id]
		if !ok {
			nextLocal = sd.newStore()
		}

		sd.remote[id] = nextRemote
		sd.local[id] = nextLocal
		sd.nextPhaseRemote[id] = sd.newStore()
		sd.nextPhaseLocal[id] = sd.newStore()

		if sd.needAllMessages {
			nextRemoteWS, ok := sd.nextPhaseRemoteWS[id]
			if !ok {
				nextRemoteWS = message.NewWithSourceStore()
			}
			nextLocalWS, ok := sd.nextPhaseLocalWS[id]
			if !ok {
				nextLocalWS = message.NewWithSourceStore()
			}

			sd.remoteWS[id] = nextRemoteWS
			sd.localWS[id] = nextLocalWS
			sd.nextPhaseRemoteWS[id] = message.NewWithSourceStore()
			sd.nextPhaseLocalWS[id] = message.NewWithSourceStore()
		}
	}
}
