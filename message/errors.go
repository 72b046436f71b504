package message

import "errors"

// ErrPayloadTooLarge is returned by Store.AddEncodedMessage when delivering
// a message would push a vertex's buffered encoded size past the store's
// configured cap. There is no spill-to-disk fallback; the caller is
// expected to surface this as a fatal, fast-failing condition rather than
// silently dropping or truncating messages.
var ErrPayloadTooLarge = errors.New("message: vertex message queue exceeds maximum payload size")
