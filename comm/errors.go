package comm

import "errors"

// ErrPayloadTooLarge is returned by RequestProcessor.SendMessage when a
// single message's encoded size alone exceeds the configured per-vertex
// buffer cap. It is the outbound counterpart to message.ErrPayloadTooLarge;
// advise enabling the big-buffer path rather than retrying.
var ErrPayloadTooLarge = errors.New("comm: message exceeds maximum per-vertex buffer size")
