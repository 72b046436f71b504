package worker

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"
)

// Discipline selects the per-vertex serialisability policy PartitionExecutor
// applies on every super-step, super-step 0 included. Only the
// partition-lock discipline's skip of an all-halted partition with no
// messages is limited to super-steps after 0, so step 0 runs every
// partition.
type Discipline int

const (
	// DisciplineNone runs every vertex's compute unconditionally, with no
	// distributed mutual exclusion.
	DisciplineNone Discipline = iota
	// DisciplineToken gates LOCAL_BOUNDARY/REMOTE_BOUNDARY/MIXED_BOUNDARY
	// vertices on the local/global token rings.
	DisciplineToken
	// DisciplineVertexLock gates boundary vertices on a per-vertex
	// Chandy-Misra philosophers table.
	DisciplineVertexLock
	// DisciplinePartitionLock gates whole partitions on a per-partition
	// Chandy-Misra philosophers table.
	DisciplinePartitionLock
)

func (d Discipline) String() string {
	switch d {
	case DisciplineNone:
		return "none"
	case DisciplineToken:
		return "token"
	case DisciplineVertexLock:
		return "vertex-lock"
	case DisciplinePartitionLock:
		return "partition-lock"
	default:
		return fmt.Sprintf("Discipline(%d)", int(d))
	}
}

const (
	defaultMaxMessageBytesPerWorker = 1 << 20
	defaultComputeThreads           = 1
	defaultProgressLogInterval      = 15 * time.Second
	defaultInitialCacheSlack        = 16
)

// AsyncConfig holds the execution-discipline options:
// whether the worker runs asynchronously at all, whether it waits
// on barriers between super-steps, whether it needs every neighbour's
// latest message rather than a once-only delivery, whether it runs several
// computation phases back to back, and which serialisability discipline (if
// any) applies to boundary vertices/partitions.
type AsyncConfig struct {
	// IsAsync switches the worker from synchronous BSP to either AP or BAP.
	IsAsync bool
	// DisableBarriers, when IsAsync is set, selects barrierless async
	// (BAP) over barrier-synchronised async (AP): the termination check
	// only waits on locally short-circuited messages, never remote ones.
	DisableBarriers bool
	// NeedAllMessages selects overwrite-by-source, non-destructive message
	// delivery instead of once-only destructive delivery. Only meaningful
	// under IsAsync; see ErrUnsupportedConfig in Validate.
	NeedAllMessages bool
	// MultiPhase enables the next-phase message store promotion, letting
	// a job switch computation classes at phase boundaries without losing
	// in-flight messages.
	MultiPhase bool
	// Serialisability selects the per-vertex/per-partition discipline. Only
	// meaningful under IsAsync; see ErrUnsupportedConfig in Validate.
	Serialisability Discipline
	// DoRemoteRead, when false, skips the remote store on every message
	// read (removeAllMessages only drains the local store). Defaults to
	// true.
	DoRemoteRead bool
	// DoLocalRead, when false, skips the local store on every message read.
	// Defaults to true.
	DoLocalRead bool
}

func (a *AsyncConfig) validate() error {
	var err error

	if !a.IsAsync {
		if a.DisableBarriers {
			err = multierror.Append(err, fmt.Errorf("%w: disableBarriers requires isAsync", ErrUnsupportedConfig))
		}
		if a.NeedAllMessages {
			err = multierror.Append(err, fmt.Errorf("%w: needAllMessages requires isAsync", ErrUnsupportedConfig))
		}
		if a.MultiPhase {
			err = multierror.Append(err, fmt.Errorf("%w: multiPhase requires isAsync", ErrUnsupportedConfig))
		}
		if a.Serialisability != DisciplineNone {
			err = multierror.Append(err, fmt.Errorf("%w: %s discipline requires isAsync", ErrUnsupportedConfig, a.Serialisability))
		}
	}

	// The zero value of both flags means "unset", which defaults to
	// reading both stores; a caller wanting to skip one store sets the
	// other explicitly instead.
	if !a.DoRemoteRead && !a.DoLocalRead {
		a.DoRemoteRead = true
		a.DoLocalRead = true
	}

	return err
}

// Config configures a PartitionExecutor. Validate fills defaults and
// aggregates every violation into a single returned error.
type Config struct {
	// ComputeThreads is the number of goroutines that draw partition ids
	// from the shared queue concurrently. Defaults to 1.
	ComputeThreads int
	// MaxSupersteps bounds the logical super-step count; a vertex votes to
	// halt unconditionally once it is reached. Zero means unbounded.
	MaxSupersteps int
	// Async carries the execution-discipline options.
	Async AsyncConfig
	// MaxMessageBytesPerWorker is the RequestProcessor per-destination-task
	// cache flush threshold. Defaults to 1MiB.
	MaxMessageBytesPerWorker int
	// MaxVertexBufferBytes, if non-zero, is passed to every compute
	// thread's comm.RequestProcessor, which rejects any single outgoing
	// message whose encoded size exceeds it. It does not bound inbound
	// queues: that cap is the maxBytesPerVertex given to comm.NewServerData.
	// Zero disables the check.
	MaxVertexBufferBytes int
	// InitialCacheSlack pre-sizes each RequestProcessor per-partition
	// bucket slice. Defaults to 16 messages.
	InitialCacheSlack int
	// ProgressLogInterval caps how often a single compute thread logs a
	// partitions-processed progress line, mirroring ComputeCallable's
	// TimedLogger: frequent enough to show a large job is alive, rare
	// enough that a high partition count never turns into log spam.
	// Defaults to 15s.
	ProgressLogInterval time.Duration
	// Log receives structured progress and warning output. Defaults to an
	// output-discarding entry.
	Log *logrus.Entry
}

// Validate checks c for internal consistency, fills in defaults, and
// returns every violation found aggregated into one multierror.
func (c *Config) Validate() error {
	var err error

	if c.ComputeThreads <= 0 {
		c.ComputeThreads = defaultComputeThreads
	}

	if c.MaxSupersteps < 0 {
		err = multierror.Append(err, errors.New("worker: MaxSupersteps must not be negative"))
	}

	if c.MaxMessageBytesPerWorker <= 0 {
		c.MaxMessageBytesPerWorker = defaultMaxMessageBytesPerWorker
	}

	if c.ProgressLogInterval <= 0 {
		c.ProgressLogInterval = defaultProgressLogInterval
	}

	if c.InitialCacheSlack <= 0 {
		c.InitialCacheSlack = defaultInitialCacheSlack
	}

	if asyncErr := c.Async.validate(); asyncErr != nil {
		err = multierror.Append(err, asyncErr)
	}

	if c.Log == nil {
		c.Log = logrus.NewEntry(&logrus.Logger{Out: io.Discard})
	}

	return err
}
