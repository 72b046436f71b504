// Package philosophers implements the Chandy-Misra hygienic dining
// philosophers protocol used to let neighbouring boundary vertices (or
// partitions) execute concurrently without violating serialisability. Each
// philosopher holds one fork per neighbour before it may eat (compute);
// forks are handed off, tagged clean or dirty, as the token circulates.
package philosophers

import (
	"fmt"
	"io"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/mycok/vertexbsp/transport"
)

// entry holds one philosopher's per-neighbour fork state, guarded by its
// own mutex so unrelated philosophers never contend with each other.
type entry struct {
	mu         sync.Mutex
	neighbours map[string]forkState
}

// Table tracks the fork/token state of every boundary philosopher local to
// this worker. A single Table instance is shared by every partition a
// worker owns: two boundary vertices in different local partitions still
// negotiate forks through the same in-process table.
type Table struct {
	setupMu sync.Mutex
	pMap    map[string]*entry

	condMu sync.Mutex
	cond   *sync.Cond

	transport transport.Transport
	locator   Locator
	log       *logrus.Entry
}

// NewTable creates an empty philosophers table. t and loc must be non-nil;
// log defaults to an output-discarding entry when nil.
func NewTable(t transport.Transport, loc Locator, log *logrus.Entry) *Table {
	if log == nil {
		log = logrus.NewEntry(&logrus.Logger{Out: io.Discard})
	}

	tbl := &Table{
		pMap:      make(map[string]*entry),
		transport: t,
		locator:   loc,
		log:       log,
	}
	tbl.cond = sync.NewCond(&tbl.condMu)

	return tbl
}

// AddBoundaryVertex registers id as a philosopher with initial fork state
// for each of its boundary neighbours (every id in neighbourIDs for which
// the caller has already determined the relationship crosses a partition
// boundary; non-boundary neighbours must be filtered out before calling
// this). Must not be called concurrently with AcquireForks/ReleaseForks or
// the arrival handlers; it is a one-time setup step run to completion
// before any compute thread starts.
//
// Per the acyclic-precedence construction that makes Chandy-Misra
// deadlock-free, the neighbour with the smaller id starts holding the
// token and the neighbour with the larger id starts holding the dirty
// fork. Self-loops are skipped.
func (t *Table) AddBoundaryVertex(id string, neighbourIDs []string) error {
	if len(neighbourIDs) == 0 {
		return nil
	}

	neighbours := make(map[string]forkState, len(neighbourIDs))
	for _, neighbourID := range neighbourIDs {
		if neighbourID == id {
			continue
		}

		var fs forkState
		if neighbourID < id {
			fs = fs.withFork().dirty()
		} else {
			fs = fs.withToken()
		}
		neighbours[neighbourID] = fs
	}

	if len(neighbours) == 0 {
		return nil
	}

	t.setupMu.Lock()
	defer t.setupMu.Unlock()

	if _, exists := t.pMap[id]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateNeighbour, id)
	}
	t.pMap[id] = &entry{neighbours: neighbours}

	return nil
}

// IsBoundary reports whether id was registered as a philosopher.
func (t *Table) IsBoundary(id string) bool {
	t.setupMu.Lock()
	_, ok := t.pMap[id]
	t.setupMu.Unlock()

	return ok
}

func (t *Table) entryFor(id string) *entry {
	t.setupMu.Lock()
	e := t.pMap[id]
	t.setupMu.Unlock()

	return e
}

// AcquireForks blocks until id holds every fork it needs to eat
// (compute). It is a no-op for a non-boundary id.
func (t *Table) AcquireForks(id string) error {
	e := t.entryFor(id)
	if e == nil {
		return nil
	}

	var toRequest []string

	e.mu.Lock()
	for neighbourID, fs := range e.neighbours {
		switch {
		case fs.haveToken() && !fs.haveFork():
			// Must apply the state update before sending the token:
			// a local short-circuit delivers and processes it
			// synchronously and would otherwise observe stale state.
			e.neighbours[neighbourID] = fs.withoutToken()
			toRequest = append(toRequest, neighbourID)
		case !fs.haveToken() && fs.haveFork() && fs.isDirty():
			e.neighbours[neighbourID] = fs.clean()
		default:
			e.mu.Unlock()
			return fmt.Errorf("philosophers: philosopher %s neighbour %s in unexpected state %03b", id, neighbourID, fs)
		}
	}
	e.mu.Unlock()

	var needFlush bool
	for _, neighbourID := range toRequest {
		remote, err := t.sendToken(id, neighbourID)
		if err != nil {
			return err
		}
		needFlush = needFlush || remote
	}

	if needFlush {
		if err := t.transport.WaitAllRequests(); err != nil {
			return fmt.Errorf("philosophers: flush after requesting forks for %s: %w", id, err)
		}
	}

	if len(toRequest) == 0 {
		return nil
	}

	t.condMu.Lock()
	for t.missingFork(e) {
		t.cond.Wait()
	}
	t.condMu.Unlock()

	return nil
}

func (t *Table) missingFork(e *entry) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, fs := range e.neighbours {
		if !fs.haveFork() {
			return true
		}
	}

	return false
}

// ReleaseForks hands the fork straight back to every neighbour whose token
// has already arrived, and marks every other fork id holds dirty. It is a
// no-op for a non-boundary id.
func (t *Table) ReleaseForks(id string) error {
	e := t.entryFor(id)
	if e == nil {
		return nil
	}

	var toSend []string

	e.mu.Lock()
	for neighbourID, fs := range e.neighbours {
		if fs.haveToken() {
			e.neighbours[neighbourID] = fs.withoutFork()
			toSend = append(toSend, neighbourID)
		} else {
			e.neighbours[neighbourID] = fs.dirty()
		}
	}
	e.mu.Unlock()

	var needFlush bool
	for _, neighbourID := range toSend {
		remote, err := t.sendFork(id, neighbourID)
		if err != nil {
			return err
		}
		needFlush = needFlush || remote
	}

	if needFlush {
		if err := t.transport.WaitAllRequests(); err != nil {
			return fmt.Errorf("philosophers: flush after releasing forks for %s: %w", id, err)
		}
	}

	return nil
}

// sendToken requests the fork for the edge (senderID, receiverID) by
// handing receiverID the token, short-circuiting to a direct in-process
// call when receiverID is local to this worker. Returns whether the send
// crossed the network, so callers know whether a WaitAllRequests flush is
// needed.
func (t *Table) sendToken(senderID, receiverID string) (remote bool, err error) {
	taskID, local, err := t.locator.Locate(receiverID)
	if err != nil {
		return false, fmt.Errorf("philosophers: locate %s: %w", receiverID, err)
	}

	if local {
		return false, t.ReceiveToken(senderID, receiverID)
	}

	return true, t.transport.SendToken(taskID, senderID, receiverID)
}

// sendFork hands the fork for the edge (senderID, receiverID) to
// receiverID, short-circuiting locally when possible.
func (t *Table) sendFork(senderID, receiverID string) (remote bool, err error) {
	taskID, local, err := t.locator.Locate(receiverID)
	if err != nil {
		return false, fmt.Errorf("philosophers: locate %s: %w", receiverID, err)
	}

	if local {
		return false, t.ReceiveFork(senderID, receiverID)
	}

	return true, t.transport.SendFork(taskID, senderID, receiverID)
}

// ReceiveToken processes a token (and implicit fork request) arriving for
// receiverID from senderID. If receiverID's fork for this edge is dirty it
// is sent straight back, asynchronously: doing this inline can deadlock a
// caller that is itself blocked in AcquireForks waiting on the
// fork-arrival signal this send may need to produce, so the send is
// dispatched on its own goroutine.
func (t *Table) ReceiveToken(senderID, receiverID string) error {
	e := t.entryFor(receiverID)
	if e == nil {
		return fmt.Errorf("%w: %s", ErrUnknownPhilosopher, receiverID)
	}

	e.mu.Lock()
	fs, ok := e.neighbours[senderID]
	if !ok {
		e.mu.Unlock()
		return fmt.Errorf("%w: %s has no relationship with %s", ErrUnknownNeighbour, receiverID, senderID)
	}

	fs = fs.withToken()

	var sendFork bool
	if fs.isDirty() {
		fs = fs.withoutFork().clean()
		sendFork = true
	}
	e.neighbours[senderID] = fs
	e.mu.Unlock()

	if sendFork {
		go func() {
			if _, err := t.sendFork(receiverID, senderID); err != nil {
				t.log.WithError(err).WithFields(logrus.Fields{
					"sender":   receiverID,
					"receiver": senderID,
				}).Error("philosophers: failed to send fork in response to token receipt")
			}
		}()
	}

	return nil
}

// ReceiveFork processes a fork arriving for receiverID from senderID and
// wakes every goroutine blocked in AcquireForks.
func (t *Table) ReceiveFork(senderID, receiverID string) error {
	e := t.entryFor(receiverID)
	if e == nil {
		return fmt.Errorf("%w: %s", ErrUnknownPhilosopher, receiverID)
	}

	e.mu.Lock()
	fs, ok := e.neighbours[senderID]
	if !ok {
		e.mu.Unlock()
		return fmt.Errorf("%w: %s has no relationship with %s", ErrUnknownNeighbour, receiverID, senderID)
	}
	e.neighbours[senderID] = fs.withFork()
	e.mu.Unlock()

	t.condMu.Lock()
	t.cond.Broadcast()
	t.condMu.Unlock()

	return nil
}
