package partition

import "errors"

// ErrAsymmetricEdge is returned by NewTypeStore when an edge's destination
// does not have a matching reverse edge back to the source, under a
// serialisability discipline that requires the undirected-graph invariant
// the philosophers protocol depends on.
var ErrAsymmetricEdge = errors.New("partition: edge has no matching reverse edge, required for token/philosophers serialisability")
