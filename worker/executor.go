// Package worker implements the per-super-step compute loop, generalised
// over the three execution disciplines (BSP, AP, BAP) and the four
// serialisability policies (none, token, vertex-lock, partition-lock).
package worker

import (
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mycok/vertexbsp/bsp"
	"github.com/mycok/vertexbsp/bsp/aggregator"
	"github.com/mycok/vertexbsp/comm"
	"github.com/mycok/vertexbsp/message"
	"github.com/mycok/vertexbsp/partition"
	"github.com/mycok/vertexbsp/philosophers"
	"github.com/mycok/vertexbsp/token"
	"github.com/mycok/vertexbsp/transport"
)

// timedLogger gates a progress line to at most once per interval: cheap
// enough to check on every partition without turning a large job into log
// spam.
type timedLogger struct {
	log      *logrus.Entry
	interval time.Duration
	last     time.Time
}

func (t *timedLogger) maybeLog(partitionsDone int, stats PartitionStats) {
	now := time.Now()
	if !t.last.IsZero() && now.Sub(t.last) < t.interval {
		return
	}
	t.last = now

	t.log.WithFields(logrus.Fields{
		"partitions_done":   partitionsDone,
		"vertices":          stats.VertexCount,
		"edges":             stats.EdgeCount,
		"finished_vertices": stats.FinishedVertices,
	}).Debug("worker: compute thread progress")
}

// Deps bundles every collaborator an Executor needs beyond its own Config.
// Only the fields the configured Discipline actually uses need to be set;
// NewExecutor checks this and fails fast with ErrUnsupportedConfig
// otherwise.
type Deps struct {
	// SelfTaskID is this worker's own task id: the local short-circuit
	// check in RequestProcessor, and the REMOTE_BOUNDARY/MIXED_BOUNDARY
	// token gate, both compare against it.
	SelfTaskID string
	Partitions *partition.Store
	ServerData *comm.ServerData
	Lookup     partition.OwnerLookup
	Transport  transport.Transport
	Codec      comm.Codec
	ComputeFn  bsp.ComputeFunc

	// Resolver, if set, is consulted under synchronous execution for every
	// pending-message destination the partition does not own: returning a
	// vertex creates it lazily before the compute pass, returning nil drops
	// the messages. Unset, no vertex is ever created by message arrival.
	Resolver bsp.VertexResolver

	// Aggregators, if set, holds the job's named accumulators. Compute
	// functions fold into them during the pass; RunSuperstep snapshots
	// their values at every super-step boundary. Cross-worker reduction is
	// the outer coordinator's job.
	Aggregators *aggregator.Registry

	// TypeStore is required under DisciplineToken.
	TypeStore *partition.TypeStore
	// VertexForks is required under DisciplineVertexLock.
	VertexForks *philosophers.Table
	// PartitionForks is required under DisciplinePartitionLock.
	PartitionForks *philosophers.Table
	// GlobalRing and PartitionRing are both required under
	// DisciplineToken: a LOCAL_BOUNDARY vertex gates on PartitionRing, a
	// REMOTE_BOUNDARY vertex gates on GlobalRing, MIXED_BOUNDARY on both.
	GlobalRing    *token.Ring
	PartitionRing *token.Ring
}

// Executor runs PartitionExecutor's compute loop for one worker: it draws
// partition ids from a per-super-step queue across Config.ComputeThreads
// goroutines, invoking Deps.ComputeFn for each vertex under the configured
// serialisability discipline, and aggregates per-partition stats.
type Executor struct {
	cfg  Config
	deps Deps
}

// NewExecutor validates cfg and checks that deps carries every collaborator
// the configured discipline needs.
func NewExecutor(cfg Config, deps Deps) (*Executor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.Async.Serialisability {
	case DisciplineToken:
		if deps.TypeStore == nil || deps.GlobalRing == nil || deps.PartitionRing == nil {
			return nil, fmt.Errorf("%w: token discipline requires TypeStore, GlobalRing and PartitionRing", ErrUnsupportedConfig)
		}
	case DisciplineVertexLock:
		if deps.VertexForks == nil {
			return nil, fmt.Errorf("%w: vertex-lock discipline requires VertexForks", ErrUnsupportedConfig)
		}
	case DisciplinePartitionLock:
		if deps.PartitionForks == nil {
			return nil, fmt.Errorf("%w: partition-lock discipline requires PartitionForks", ErrUnsupportedConfig)
		}
	}

	if deps.Partitions == nil || deps.ServerData == nil || deps.Lookup == nil ||
		deps.Transport == nil || deps.Codec == nil || deps.ComputeFn == nil {
		return nil, fmt.Errorf("%w: Partitions, ServerData, Lookup, Transport, Codec and ComputeFn are all required", ErrUnsupportedConfig)
	}

	return &Executor{cfg: cfg, deps: deps}, nil
}

func (ex *Executor) newRequestProcessor() *comm.RequestProcessor {
	return comm.NewRequestProcessor(comm.RequestProcessorConfig{
		SelfTaskID:               ex.deps.SelfTaskID,
		AsyncEnabled:             ex.cfg.Async.IsAsync,
		MultiPhaseEnabled:        ex.cfg.Async.MultiPhase,
		MaxMessagesSizePerWorker: ex.cfg.MaxMessageBytesPerWorker,
		MaxVertexBufferBytes:     ex.cfg.MaxVertexBufferBytes,
		NeedAllMessages:          ex.cfg.Async.NeedAllMessages,
		InitialCacheSlack:        ex.cfg.InitialCacheSlack,
	}, ex.deps.Lookup, ex.deps.Transport, ex.deps.Codec, ex.deps.ServerData)
}

// RunSuperstep drives every partition id in partitionIDs through one
// super-step across Config.ComputeThreads goroutines, each with its own
// RequestProcessor so no outgoing bucket is shared between compute
// threads. It blocks until every partition in the batch has been
// processed and every thread's cache has been flushed, then performs the
// BSP store rotation (a no-op under async) before returning. Multi-phase
// promotion is a separate step the caller invokes explicitly at a phase
// boundary; see PromotePhase.
func (ex *Executor) RunSuperstep(logicalSuperstep int, partitionIDs []int32) (SuperstepStats, error) {
	if ex.deps.GlobalRing != nil {
		ex.deps.GlobalRing.EnsureProgress()
	}
	if ex.deps.PartitionRing != nil {
		ex.deps.PartitionRing.EnsureProgress()
	}

	queue := make(chan int32, len(partitionIDs))
	for _, id := range partitionIDs {
		queue <- id
	}
	close(queue)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		total    SuperstepStats
		firstErr error
	)

	threads := ex.cfg.ComputeThreads
	if threads <= 0 {
		threads = 1
	}

	wg.Add(threads)
	for i := 0; i < threads; i++ {
		go func() {
			defer wg.Done()

			rp := ex.newRequestProcessor()
			tl := &timedLogger{log: ex.cfg.Log, interval: ex.cfg.ProgressLogInterval}

			var partitionsDone int
			for partitionID := range queue {
				stats, err := ex.runPartition(logicalSuperstep, partitionID, rp)
				partitionsDone++
				tl.maybeLog(partitionsDone, stats)

				mu.Lock()
				total.PartitionStats.Add(stats)
				if err != nil && firstErr == nil {
					firstErr = err
				}
				mu.Unlock()

				if err != nil {
					return
				}
			}

			if err := rp.Flush(); err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = fmt.Errorf("worker: final flush: %w", err)
				}
				mu.Unlock()

				return
			}

			sent, local, bytes := rp.ResetCounters()

			mu.Lock()
			if ex.cfg.Async.DisableBarriers {
				total.MessagesSent += local
			} else {
				total.MessagesSent += sent
			}
			total.MessageBytesSent += bytes
			mu.Unlock()
		}()
	}
	wg.Wait()

	if firstErr != nil {
		ex.cfg.Log.WithError(firstErr).Error("worker: super-step failed")

		return total, firstErr
	}

	if ex.deps.ServerData.Mode() == comm.ModeBSP {
		ex.deps.ServerData.RotateSuperstep(partitionIDs)
	}

	if ex.cfg.Async.Serialisability == DisciplineToken {
		ex.deps.GlobalRing.Advance()
		ex.deps.PartitionRing.Advance()
	}

	if ex.deps.Aggregators != nil {
		ex.cfg.Log.WithField("superstep", logicalSuperstep).
			WithFields(logrus.Fields(ex.deps.Aggregators.Values())).
			Debug("worker: aggregator values at super-step boundary")
	}

	return total, nil
}

// Aggregator returns the named accumulator registered with this worker, or
// nil when none was registered under that name (or no registry was
// configured at all). Compute functions typically capture their
// accumulators directly at setup time; this accessor serves the driver
// side, which reads the values between super-steps.
func (ex *Executor) Aggregator(name string) bsp.Aggregator {
	if ex.deps.Aggregators == nil {
		return nil
	}

	return ex.deps.Aggregators.Get(name)
}

// PromotePhase performs the multi-phase-async store promotion for
// partitionIDs. Unlike the BSP rotation in RunSuperstep, this is not
// called automatically every super-step: the outer coordinator (out of
// scope for this module) decides when a phase boundary has been reached
// and calls this explicitly.
func (ex *Executor) PromotePhase(partitionIDs []int32) {
	ex.deps.ServerData.PromotePhase(partitionIDs)
}

// AllHalted reports whether every vertex in every partition this worker
// owns has voted to halt. Combined with SuperstepStats.Quiescent, the
// outer coordinator uses this (alongside confirmation that no remote
// message is still in flight) to decide whether to terminate the job.
func (ex *Executor) AllHalted() bool {
	for _, id := range ex.deps.Partitions.IDs() {
		if !ex.deps.Partitions.GetOrCreate(id).AllHalted() {
			return false
		}
	}

	return true
}

// runPartition implements the per-partition body of the compute loop:
// take ownership, apply the partition-lock skip/acquire step, compute
// every vertex, flush-then-release, clear consumed queues under BSP.
func (ex *Executor) runPartition(logicalSuperstep int, partitionID int32, rp *comm.RequestProcessor) (PartitionStats, error) {
	p := ex.deps.Partitions.Take(partitionID)
	defer ex.deps.Partitions.Release(partitionID)

	var stats PartitionStats

	ex.resolveMissingVertices(partitionID, p)

	vertices := p.Vertices()
	partitionMember := fmt.Sprintf("%d", partitionID)
	underPartitionLock := ex.cfg.Async.Serialisability == DisciplinePartitionLock

	// Partition-level skip: only applies to the partition-lock discipline,
	// and only past the first logical super-step, which must always run
	// every partition to allow initialization.
	if underPartitionLock && logicalSuperstep > 0 && p.AllHalted() && !ex.hasMessagesForPartition(partitionID) {
		for _, v := range vertices {
			stats.EdgeCount += len(v.Edges())
		}
		stats.VertexCount = len(vertices)
		stats.FinishedVertices = len(vertices)

		return stats, nil
	}

	if underPartitionLock {
		if err := ex.deps.PartitionForks.AcquireForks(partitionMember); err != nil {
			return stats, fmt.Errorf("worker: acquire forks for partition %d: %w", partitionID, err)
		}
	}

	for _, v := range vertices {
		if err := ex.computeVertex(logicalSuperstep, partitionID, v, rp, &stats); err != nil {
			return stats, err
		}
		if v.RemovalRequested() {
			p.RemoveVertex(v.ID())
		}
	}

	if underPartitionLock {
		// Flush before releasing forks: a neighbouring partition that
		// acquires forks next must not observe the release racing ahead
		// of the messages this pass just sent.
		if err := rp.Flush(); err != nil {
			return stats, fmt.Errorf("worker: flush before releasing forks for partition %d: %w", partitionID, err)
		}
		if err := ex.deps.PartitionForks.ReleaseForks(partitionMember); err != nil {
			return stats, fmt.Errorf("worker: release forks for partition %d: %w", partitionID, err)
		}
	}

	if ex.deps.ServerData.Mode() == comm.ModeBSP {
		ex.deps.ServerData.CurrentStore(partitionID).ClearPartition()
	}

	return stats, nil
}

// resolveMissingVertices creates, via Deps.Resolver, any vertex the
// partition does not own but that has pending messages in the current BSP
// store. A nil resolver result leaves the messages unconsumed; the
// end-of-pass ClearPartition discards them.
func (ex *Executor) resolveMissingVertices(partitionID int32, p *partition.Partition) {
	if ex.deps.Resolver == nil || ex.cfg.Async.IsAsync {
		return
	}

	for _, id := range ex.deps.ServerData.CurrentStore(partitionID).VertexIDs() {
		if p.Vertex(id) != nil {
			continue
		}
		if v := ex.deps.Resolver(id); v != nil {
			p.AddVertex(v)
		}
	}
}

// computeVertex dispatches a single vertex to the policy its configured
// discipline requires.
func (ex *Executor) computeVertex(logicalSuperstep int, partitionID int32, v *bsp.Vertex, rp *comm.RequestProcessor, stats *PartitionStats) error {
	switch ex.cfg.Async.Serialisability {
	case DisciplineToken:
		return ex.computeUnderToken(logicalSuperstep, partitionID, v, rp, stats)
	case DisciplineVertexLock:
		return ex.computeUnderVertexLock(logicalSuperstep, partitionID, v, rp, stats)
	default:
		// DisciplineNone computes directly; DisciplinePartitionLock
		// already holds its forks at partition granularity (see
		// runPartition), so it also computes directly here.
		return ex.runComputeForVertex(logicalSuperstep, partitionID, v, rp, stats)
	}
}

// computeUnderToken gates a vertex's compute on the token(s) its boundary
// type requires: internal vertices need none, local-boundary vertices the
// partition token, remote-boundary vertices the global token, and
// mixed-boundary vertices both.
func (ex *Executor) computeUnderToken(logicalSuperstep int, partitionID int32, v *bsp.Vertex, rp *comm.RequestProcessor, stats *PartitionStats) error {
	vt := ex.deps.TypeStore.TypeOf(v.ID())

	if ex.tokenGateOpen(vt, partitionID) {
		return ex.runComputeForVertex(logicalSuperstep, partitionID, v, rp, stats)
	}

	// Wake-up only, no compute: a halted vertex with pending messages
	// must not be lost at the termination check just because its token
	// has not arrived this pass.
	if v.Halted() && ex.hasMessages(partitionID, v.ID()) {
		v.WakeUp()
	}

	return nil
}

func (ex *Executor) tokenGateOpen(vt partition.VertexType, partitionID int32) bool {
	partitionMember := fmt.Sprintf("%d", partitionID)

	switch vt {
	case partition.Internal:
		return true
	case partition.LocalBoundary:
		return ex.deps.PartitionRing.Holds(partitionMember)
	case partition.RemoteBoundary:
		return ex.deps.GlobalRing.Holds(ex.deps.SelfTaskID)
	case partition.MixedBoundary:
		return ex.deps.PartitionRing.Holds(partitionMember) && ex.deps.GlobalRing.Holds(ex.deps.SelfTaskID)
	default:
		return true
	}
}

// computeUnderVertexLock implements the hygienic-dining-philosophers gate
// for a single boundary vertex: acquire forks, compute, flush the
// RequestProcessor so forks cannot race ahead of sent messages, release.
// Non-boundary vertices compute directly.
func (ex *Executor) computeUnderVertexLock(logicalSuperstep int, partitionID int32, v *bsp.Vertex, rp *comm.RequestProcessor, stats *PartitionStats) error {
	if !ex.deps.VertexForks.IsBoundary(v.ID()) {
		return ex.runComputeForVertex(logicalSuperstep, partitionID, v, rp, stats)
	}

	if err := ex.deps.VertexForks.AcquireForks(v.ID()); err != nil {
		return fmt.Errorf("worker: acquire forks for vertex %s: %w", v.ID(), err)
	}

	if err := ex.runComputeForVertex(logicalSuperstep, partitionID, v, rp, stats); err != nil {
		return err
	}

	if err := rp.Flush(); err != nil {
		return fmt.Errorf("worker: flush before releasing forks for vertex %s: %w", v.ID(), err)
	}

	if err := ex.deps.VertexForks.ReleaseForks(v.ID()); err != nil {
		return fmt.Errorf("worker: release forks for vertex %s: %w", v.ID(), err)
	}

	return nil
}

// runComputeForVertex implements the shared halt/wake-up/compute/vote
// machinery every discipline eventually bottoms out in: a halted vertex
// with no pending messages is skipped entirely; one with pending messages
// is woken up before compute runs; a vertex is forced to vote to halt once
// the logical super-step reaches Config.MaxSupersteps.
func (ex *Executor) runComputeForVertex(logicalSuperstep int, partitionID int32, v *bsp.Vertex, rp *comm.RequestProcessor, stats *PartitionStats) error {
	hasMsgs := ex.hasMessages(partitionID, v.ID())

	if v.Halted() {
		if !hasMsgs {
			stats.VertexCount++
			stats.EdgeCount += len(v.Edges())
			stats.FinishedVertices++

			return nil
		}

		v.WakeUp()
	}

	it := ex.readMessages(logicalSuperstep, partitionID, v.ID())
	rp.CurrentSourceID = v.ID()

	if err := ex.deps.ComputeFn(logicalSuperstep, v, it, rp); err != nil {
		return fmt.Errorf("worker: compute vertex %s: %w", v.ID(), err)
	}

	if ex.cfg.MaxSupersteps > 0 && logicalSuperstep+1 >= ex.cfg.MaxSupersteps {
		v.VoteToHalt()
	}

	stats.VertexCount++
	stats.EdgeCount += len(v.Edges())
	if v.Halted() {
		stats.FinishedVertices++
	}

	return nil
}

// hasMessages reports whether vertexID has any pending messages under the
// stores the configured discipline reads from, without draining them.
func (ex *Executor) hasMessages(partitionID int32, vertexID string) bool {
	if !ex.cfg.Async.IsAsync {
		return ex.deps.ServerData.CurrentStore(partitionID).HasMessagesForVertex(vertexID)
	}

	if ex.cfg.Async.NeedAllMessages {
		if ex.cfg.Async.DoRemoteRead && ex.deps.ServerData.RemoteSourceStore(partitionID).HasMessagesForVertex(vertexID) {
			return true
		}
		if ex.cfg.Async.DoLocalRead && ex.deps.ServerData.LocalSourceStore(partitionID).HasMessagesForVertex(vertexID) {
			return true
		}

		return false
	}

	if ex.cfg.Async.DoRemoteRead && ex.deps.ServerData.RemoteStore(partitionID).HasMessagesForVertex(vertexID) {
		return true
	}
	if ex.cfg.Async.DoLocalRead && ex.deps.ServerData.LocalStore(partitionID).HasMessagesForVertex(vertexID) {
		return true
	}

	return false
}

// hasMessagesForPartition is hasMessages's whole-partition counterpart,
// used only by the partition-lock discipline's skip check.
func (ex *Executor) hasMessagesForPartition(partitionID int32) bool {
	if !ex.cfg.Async.IsAsync {
		return ex.deps.ServerData.CurrentStore(partitionID).HasMessagesForPartition()
	}

	if ex.cfg.Async.NeedAllMessages {
		return (ex.cfg.Async.DoRemoteRead && ex.deps.ServerData.RemoteSourceStore(partitionID).HasMessagesForPartition()) ||
			(ex.cfg.Async.DoLocalRead && ex.deps.ServerData.LocalSourceStore(partitionID).HasMessagesForPartition())
	}

	return (ex.cfg.Async.DoRemoteRead && ex.deps.ServerData.RemoteStore(partitionID).HasMessagesForPartition()) ||
		(ex.cfg.Async.DoLocalRead && ex.deps.ServerData.LocalStore(partitionID).HasMessagesForPartition())
}

// readMessages returns the message iterator a vertex's compute call
// receives: empty at logical super-step 0 under async (algorithms commonly
// send without expecting to receive in step 0), non-destructive under
// needAllMessages (next round overwrites), and destructive drain-on-read
// otherwise.
func (ex *Executor) readMessages(logicalSuperstep int, partitionID int32, vertexID string) bsp.MessageIterator {
	if ex.cfg.Async.IsAsync && logicalSuperstep == 0 {
		return message.NewIterator(nil)
	}

	if !ex.cfg.Async.IsAsync {
		return message.NewIterator(ex.deps.ServerData.CurrentStore(partitionID).RemoveVertexMessages(vertexID))
	}

	if ex.cfg.Async.NeedAllMessages {
		var msgs []bsp.Message
		var srcs []string

		if ex.cfg.Async.DoRemoteRead {
			m, s := ex.deps.ServerData.RemoteSourceStore(partitionID).GetVertexMessagesWithSources(vertexID)
			msgs = append(msgs, m...)
			srcs = append(srcs, s...)
		}
		if ex.cfg.Async.DoLocalRead {
			m, s := ex.deps.ServerData.LocalSourceStore(partitionID).GetVertexMessagesWithSources(vertexID)
			msgs = append(msgs, m...)
			srcs = append(srcs, s...)
		}

		return message.NewSourceIterator(msgs, srcs)
	}

	var msgs []bsp.Message
	if ex.cfg.Async.DoRemoteRead {
		msgs = append(msgs, ex.deps.ServerData.RemoteStore(partitionID).RemoveVertexMessages(vertexID)...)
	}
	if ex.cfg.Async.DoLocalRead {
		msgs = append(msgs, ex.deps.ServerData.LocalStore(partitionID).RemoveVertexMessages(vertexID)...)
	}

	return message.NewIterator(msgs)
}
