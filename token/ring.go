// Package token implements the global and per-partition token rings used
// to enforce coarse serialisability under the token discipline: at any
// instant exactly one ring member holds the token, and it is handed to the
// next member in a fixed cyclic order once the current holder's interval
// (a logical super-step, or a partition pass) has quiesced.
package token

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/juju/clock"
	"github.com/sirupsen/logrus"
)

// Ring circulates a single token among a fixed, ordered set of members.
// Exactly one member holds the token at any instant. Ring is safe for
// concurrent use; Holder and Advance may be called from different
// goroutines (a compute thread checking whether it may proceed, and the
// goroutine that observes super-step quiescence and advances the ring).
type Ring struct {
	mu      sync.Mutex
	members []string
	holder  int

	clk            clock.Clock
	lastAdvance    time.Time
	progressWindow time.Duration
	log            *logrus.Entry
}

// Option configures a Ring at construction time.
type Option func(*Ring)

// WithClock overrides the clock used for the progress guarantee. Defaults
// to the wall clock; tests inject a fake clock to assert the guarantee
// without sleeping on real time.
func WithClock(clk clock.Clock) Option {
	return func(r *Ring) { r.clk = clk }
}

// WithProgressWindow overrides how long the ring may go without advancing
// before EnsureProgress acts. Defaults to one second.
func WithProgressWindow(d time.Duration) Option {
	return func(r *Ring) { r.progressWindow = d }
}

// WithLogger overrides the logger used for forced-advance warnings.
func WithLogger(log *logrus.Entry) Option {
	return func(r *Ring) { r.log = log }
}

// newRing builds a ring over members in the order they are given; callers
// are responsible for sorting members into the binding order documented on
// NewGlobalRing / NewPartitionRing before calling this.
func newRing(members []string, opts ...Option) *Ring {
	r := &Ring{members: members}
	for _, opt := range opts {
		opt(r)
	}
	if r.clk == nil {
		r.clk = clock.WallClock
	}
	if r.progressWindow == 0 {
		r.progressWindow = time.Second
	}
	if r.log == nil {
		r.log = logrus.NewEntry(logrus.StandardLogger())
	}
	r.lastAdvance = r.clk.Now()

	return r
}

// NewGlobalRing builds the global-token ring over a worker set. Per the
// binding ring-order decision, members are ordered ascending
// lexicographically by worker task id regardless of the order callers
// supply them in.
func NewGlobalRing(workerTaskIDs []string, opts ...Option) *Ring {
	members := append([]string(nil), workerTaskIDs...)
	sort.Strings(members)

	return newRing(members, opts...)
}

// NewPartitionRing builds a partition-token ring over the partitions owned
// by a single worker. Per the binding ring-order decision, members are
// ordered ascending numerically by partition id.
func NewPartitionRing(partitionIDs []int32, opts ...Option) *Ring {
	sorted := append([]int32(nil), partitionIDs...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	members := make([]string, len(sorted))
	for i, id := range sorted {
		members[i] = fmt.Sprintf("%d", id)
	}

	return newRing(members, opts...)
}

// Holder returns the id of the ring member currently holding the token.
func (r *Ring) Holder() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.members[r.holder]
}

// Holds reports whether id currently holds the token.
func (r *Ring) Holds(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.members[r.holder] == id
}

// Advance hands the token to the next member in ring order. It must only
// be called once the current holder's compute threads are quiesced and
// every outgoing message has been flushed; the token path assumes this
// and performs no fork exchange of its own. Returns the new holder's id.
func (r *Ring) Advance() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.holder = (r.holder + 1) % len(r.members)
	r.lastAdvance = r.clk.Now()

	return r.members[r.holder]
}

// EnsureProgress enforces the ring's progress guarantee: the ring advances
// at least once per wall-clock super-step. If the configured progress
// window has elapsed since the last advance, it force-advances the ring
// and logs a warning, rather than letting a stalled holder wedge every
// other member indefinitely.
func (r *Ring) EnsureProgress() {
	r.mu.Lock()
	stalled := r.clk.Now().Sub(r.lastAdvance) > r.progressWindow
	r.mu.Unlock()

	if !stalled {
		return
	}

	prev := r.Holder()
	next := r.Advance()
	r.log.WithFields(logrus.Fields{
		"previous_holder": prev,
		"next_holder":     next,
	}).Warn("token ring exceeded its progress window, forcing advance")
}

// Members returns the ring's fixed member order.
func (r *Ring) Members() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]string, len(r.members))
	copy(out, r.members)

	return out
}
