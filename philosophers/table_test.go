package philosophers_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/mycok/vertexbsp/philosophers"
	"github.com/mycok/vertexbsp/transport"
)

// unreachableTransport fails any test that exercises a remote code path;
// the fixtures here only ever involve philosophers local to one worker.
type unreachableTransport struct{}

func (unreachableTransport) SendWorkerMessages(string, transport.WorkerMessagesEnvelope) error {
	return errors.New("unexpected remote call")
}
func (unreachableTransport) SendToken(string, string, string) error {
	return errors.New("unexpected remote call")
}
func (unreachableTransport) SendFork(string, string, string) error {
	return errors.New("unexpected remote call")
}
func (unreachableTransport) SendGlobalToken(string) error { return errors.New("unexpected remote call") }
func (unreachableTransport) SendPartitionToken(string, int32, int32) error {
	return errors.New("unexpected remote call")
}
func (unreachableTransport) WaitAllRequests() error { return nil }

func allLocal(string) (string, bool, error) { return "self", true, nil }

func TestAddBoundaryVertexRegistersEveryPhilosopher(t *testing.T) {
	tbl := philosophers.NewTable(unreachableTransport{}, philosophers.LocatorFunc(allLocal), nil)

	if err := tbl.AddBoundaryVertex("10", []string{"20", "30"}); err != nil {
		t.Fatalf("AddBoundaryVertex(10): %v", err)
	}
	if err := tbl.AddBoundaryVertex("20", []string{"10", "30"}); err != nil {
		t.Fatalf("AddBoundaryVertex(20): %v", err)
	}
	if err := tbl.AddBoundaryVertex("30", []string{"10", "20"}); err != nil {
		t.Fatalf("AddBoundaryVertex(30): %v", err)
	}

	for _, id := range []string{"10", "20", "30"} {
		if !tbl.IsBoundary(id) {
			t.Fatalf("expected %s to be registered as a boundary philosopher", id)
		}
	}
}

func TestAddBoundaryVertexDuplicateFails(t *testing.T) {
	tbl := philosophers.NewTable(unreachableTransport{}, philosophers.LocatorFunc(allLocal), nil)

	if err := tbl.AddBoundaryVertex("10", []string{"20"}); err != nil {
		t.Fatalf("first AddBoundaryVertex: %v", err)
	}
	if err := tbl.AddBoundaryVertex("10", []string{"20"}); !errors.Is(err, philosophers.ErrDuplicateNeighbour) {
		t.Fatalf("got err %v, want ErrDuplicateNeighbour", err)
	}
}

// TestTriangleMutualExclusion mirrors the three-philosopher triangle
// scenario: ids 10, 20, 30 all pairwise boundary neighbours. Many
// goroutines repeatedly race to eat; at most one of any pair of neighbours
// may hold both their shared forks at once, and every acquire eventually
// completes (no deadlock).
func TestTriangleMutualExclusion(t *testing.T) {
	tbl := philosophers.NewTable(unreachableTransport{}, philosophers.LocatorFunc(allLocal), nil)

	ids := []string{"10", "20", "30"}
	neighboursOf := map[string][]string{
		"10": {"20", "30"},
		"20": {"10", "30"},
		"30": {"10", "20"},
	}
	for _, id := range ids {
		if err := tbl.AddBoundaryVertex(id, neighboursOf[id]); err != nil {
			t.Fatalf("AddBoundaryVertex(%s): %v", id, err)
		}
	}

	var eating sync.Map // id -> bool, records who is currently "at the table"
	var wg sync.WaitGroup
	const rounds = 25

	for _, id := range ids {
		id := id
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < rounds; i++ {
				if err := tbl.AcquireForks(id); err != nil {
					t.Errorf("AcquireForks(%s): %v", id, err)
					return
				}

				if _, alreadyEating := eating.LoadOrStore(id, true); alreadyEating {
					t.Errorf("philosopher %s acquired forks while already recorded as eating", id)
				}

				for _, other := range ids {
					if other == id {
						continue
					}
					if _, ok := eating.Load(other); ok && isNeighbour(neighboursOf, id, other) {
						t.Errorf("philosophers %s and %s ate simultaneously despite sharing forks", id, other)
					}
				}

				eating.Delete(id)

				if err := tbl.ReleaseForks(id); err != nil {
					t.Errorf("ReleaseForks(%s): %v", id, err)
					return
				}
			}
		}()
	}

	wg.Wait()
}

func isNeighbour(neighboursOf map[string][]string, a, b string) bool {
	for _, n := range neighboursOf[a] {
		if n == b {
			return true
		}
	}
	return false
}

func TestAcquireForksNoOpForNonBoundary(t *testing.T) {
	tbl := philosophers.NewTable(unreachableTransport{}, philosophers.LocatorFunc(allLocal), nil)

	if err := tbl.AcquireForks("not-a-philosopher"); err != nil {
		t.Fatalf("AcquireForks on a non-boundary id should be a no-op, got %v", err)
	}
	if err := tbl.ReleaseForks("not-a-philosopher"); err != nil {
		t.Fatalf("ReleaseForks on a non-boundary id should be a no-op, got %v", err)
	}
}
