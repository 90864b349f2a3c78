package outbox

import "errors"

// ErrFull is returned when the outbox is at capacity.
var ErrFull = errors.New("outbox full")
