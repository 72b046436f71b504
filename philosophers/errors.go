package philosophers

import "errors"

// ErrDuplicateNeighbour is returned by AddBoundaryVertex when a philosopher
// id is registered twice. It indicates the partitioning that produced the
// graph is corrupt: a given boundary vertex or partition must only be
// added to the table once, during the one-time setup pass.
var ErrDuplicateNeighbour = errors.New("philosophers: duplicate neighbour set for philosopher id")

// ErrUnknownPhilosopher is returned when an operation is attempted against
// a philosopher id the table never tracked neighbours for.
var ErrUnknownPhilosopher = errors.New("philosophers: unknown philosopher id")

// ErrUnknownNeighbour is returned when a token or fork arrives from a
// sender the receiving philosopher has no recorded relationship with.
var ErrUnknownNeighbour = errors.New("philosophers: unknown neighbour id")
