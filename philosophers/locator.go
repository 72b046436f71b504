package philosophers

// Locator resolves a neighbour id to the task that owns it, and reports
// whether that task is this worker itself. The same Table type serves both
// per-vertex philosophers (Locator backed by a vertex-to-owner lookup) and
// per-partition philosophers (Locator backed by a partition-to-owner
// lookup), so Table depends on this narrow interface rather than on
// partition.OwnerLookup directly.
type Locator interface {
	Locate(neighbourID string) (taskID string, local bool, err error)
}

// LocatorFunc adapts a plain function to a Locator, mirroring the
// http.HandlerFunc adapter idiom.
type LocatorFunc func(neighbourID string) (taskID string, local bool, err error)

// Locate implements Locator.
func (f LocatorFunc) Locate(neighbourID string) (string, bool, error) { return f(neighbourID) }
