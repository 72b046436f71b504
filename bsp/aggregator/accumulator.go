// Package aggregator provides the worker-local half of aggregator support:
// named, concurrent-safe accumulators compute functions fold values into
// during a super-step, tracked by a Registry the executor reports from at
// every super-step boundary.
//
// Cross-worker reduction of aggregator values belongs to an external
// collaborator; nothing here ever touches the transport.
package aggregator

import (
	"fmt"
	"math"
	"sync"
	"sync/atomic"

	"github.com/mycok/vertexbsp/bsp"
)

// Float64Accumulator is a concurrent-safe summing bsp.Aggregator for
// float64 values. The sum is stored as its IEEE-754 bit pattern so plain
// uint64 atomics cover every operation.
type Float64Accumulator struct {
	bits uint64
}

// Type implements bsp.Aggregator.
func (a *Float64Accumulator) Type() string { return "Float64Accumulator" }

// Get implements bsp.Aggregator.
func (a *Float64Accumulator) Get() interface{} {
	return math.Float64frombits(atomic.LoadUint64(&a.bits))
}

// Set implements bsp.Aggregator.
func (a *Float64Accumulator) Set(val interface{}) {
	atomic.StoreUint64(&a.bits, math.Float64bits(val.(float64)))
}

// Aggregate implements bsp.Aggregator: it adds val to the running sum.
func (a *Float64Accumulator) Aggregate(val interface{}) {
	add := val.(float64)
	for {
		old := atomic.LoadUint64(&a.bits)
		sum := math.Float64bits(math.Float64frombits(old) + add)
		if atomic.CompareAndSwapUint64(&a.bits, old, sum) {
			return
		}
	}
}

// IntAccumulator is a concurrent-safe summing bsp.Aggregator for int
// values.
type IntAccumulator struct {
	sum int64
}

// Type implements bsp.Aggregator.
func (a *IntAccumulator) Type() string { return "IntAccumulator" }

// Get implements bsp.Aggregator.
func (a *IntAccumulator) Get() interface{} {
	return int(atomic.LoadInt64(&a.sum))
}

// Set implements bsp.Aggregator.
func (a *IntAccumulator) Set(val interface{}) {
	atomic.StoreInt64(&a.sum, int64(val.(int)))
}

// Aggregate implements bsp.Aggregator: it adds val to the running sum.
func (a *IntAccumulator) Aggregate(val interface{}) {
	atomic.AddInt64(&a.sum, int64(val.(int)))
}

// Registry tracks the aggregators registered for one worker's job, keyed
// by name. Registration happens during job setup; lookups and value
// snapshots are safe from any compute thread afterwards.
type Registry struct {
	mu   sync.RWMutex
	aggs map[string]bsp.Aggregator
}

// NewRegistry creates an empty aggregator registry.
func NewRegistry() *Registry {
	return &Registry{aggs: make(map[string]bsp.Aggregator)}
}

// Register adds agg under name, failing if the name is already taken: two
// computations silently folding into the same accumulator is a setup bug,
// not a merge.
func (r *Registry) Register(name string, agg bsp.Aggregator) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.aggs[name]; exists {
		return fmt.Errorf("aggregator: name %q already registered", name)
	}
	r.aggs[name] = agg

	return nil
}

// Get returns the aggregator registered under name, or nil.
func (r *Registry) Get(name string) bsp.Aggregator {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.aggs[name]
}

// Values returns a snapshot of every registered aggregator's current
// value, keyed by name. The executor reports this at each super-step
// boundary.
func (r *Registry) Values() map[string]interface{} {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]interface{}, len(r.aggs))
	for name, agg := range r.aggs {
		out[name] = agg.Get()
	}

	return out
}

var (
	_ bsp.Aggregator = (*Float64Accumulator)(nil)
	_ bsp.Aggregator = (*IntAccumulator)(nil)
)
