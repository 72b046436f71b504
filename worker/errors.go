package worker

import "errors"

// ErrUnsupportedConfig is returned by Config.Validate (and AsyncConfig's
// internal validate) when the configuration requests a combination the
// core does not support, e.g. a serialisability discipline without async
// enabled. It is a fatal, configuration-time error: the caller is expected
// to fix the configuration, not retry.
var ErrUnsupportedConfig = errors.New("worker: unsupported configuration")
