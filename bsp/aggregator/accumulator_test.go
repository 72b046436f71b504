package aggregator_test

import (
	"sync"
	"testing"

	"github.com/mycok/vertexbsp/bsp/aggregator"
)

func TestFloat64AccumulatorConcurrentAggregate(t *testing.T) {
	var acc aggregator.Float64Accumulator

	const goroutines = 8
	const perGoroutine = 1000

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				acc.Aggregate(0.5)
			}
		}()
	}
	wg.Wait()

	want := float64(goroutines*perGoroutine) * 0.5
	if got := acc.Get().(float64); got != want {
		t.Fatalf("got sum %v, want %v", got, want)
	}
}

func TestFloat64AccumulatorSetOverwrites(t *testing.T) {
	var acc aggregator.Float64Accumulator

	acc.Aggregate(3.0)
	acc.Set(1.5)

	if got := acc.Get().(float64); got != 1.5 {
		t.Fatalf("got %v after Set, want 1.5", got)
	}
}

func TestIntAccumulatorConcurrentAggregate(t *testing.T) {
	var acc aggregator.IntAccumulator

	const goroutines = 8
	const perGoroutine = 1000

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				acc.Aggregate(2)
			}
		}()
	}
	wg.Wait()

	if got := acc.Get().(int); got != goroutines*perGoroutine*2 {
		t.Fatalf("got sum %d, want %d", got, goroutines*perGoroutine*2)
	}
}

func TestRegistryRegisterAndGet(t *testing.T) {
	reg := aggregator.NewRegistry()

	var acc aggregator.IntAccumulator
	if err := reg.Register("removed", &acc); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if reg.Get("removed") != &acc {
		t.Fatalf("expected Get to return the registered accumulator")
	}
	if reg.Get("missing") != nil {
		t.Fatalf("expected Get on an unknown name to return nil")
	}

	if err := reg.Register("removed", &aggregator.IntAccumulator{}); err == nil {
		t.Fatalf("expected a duplicate registration to fail")
	}
}

func TestRegistryValuesSnapshot(t *testing.T) {
	reg := aggregator.NewRegistry()

	var count aggregator.IntAccumulator
	var mass aggregator.Float64Accumulator
	if err := reg.Register("count", &count); err != nil {
		t.Fatalf("Register(count): %v", err)
	}
	if err := reg.Register("mass", &mass); err != nil {
		t.Fatalf("Register(mass): %v", err)
	}

	count.Aggregate(3)
	mass.Aggregate(0.25)

	vals := reg.Values()
	if got := vals["count"].(int); got != 3 {
		t.Fatalf("got count=%d, want 3", got)
	}
	if got := vals["mass"].(float64); got != 0.25 {
		t.Fatalf("got mass=%v, want 0.25", got)
	}
}
