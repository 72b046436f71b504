package worker

// PartitionStats reports what happened during one compute thread's pass
// over a single partition: not just a trivial marker for the
// skipped-partition path, but vertex/edge/finished counts for every pass.
type PartitionStats struct {
	VertexCount      int
	EdgeCount        int
	FinishedVertices int
}

// Add accumulates other into s.
func (s *PartitionStats) Add(other PartitionStats) {
	s.VertexCount += other.VertexCount
	s.EdgeCount += other.EdgeCount
	s.FinishedVertices += other.FinishedVertices
}

// SuperstepStats aggregates every PartitionStats produced during one
// super-step, plus the worker-wide message counters RequestProcessor
// tracked over the same interval.
type SuperstepStats struct {
	PartitionStats

	// MessagesSent is the number of messages sent by this worker's
	// compute threads during the super-step. Under DisableBarriers (BAP),
	// this is the local-only count (see RequestProcessor.MessagesSent);
	// otherwise it includes both local and remote sends.
	MessagesSent int64
	// MessageBytesSent is the number of remote-serialised bytes sent
	// during the super-step.
	MessageBytesSent int64
}

// Add accumulates other into s.
func (s *SuperstepStats) Add(other SuperstepStats) {
	s.PartitionStats.Add(other.PartitionStats)
	s.MessagesSent += other.MessagesSent
	s.MessageBytesSent += other.MessageBytesSent
}

// Quiescent reports whether this super-step's stats are consistent with
// global termination: every vertex this worker touched voted to halt and
// no messages were sent. The outer coordinator (out of scope for this
// module) still needs to confirm this holds across every worker and that
// no remote message is still in flight before it actually stops the job.
func (s SuperstepStats) Quiescent() bool {
	return s.FinishedVertices == s.VertexCount && s.MessagesSent == 0
}
