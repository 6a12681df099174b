// Package delivery sends chime messages to their destination channel and
// classifies the failures the dispatcher has to act on.
package delivery

import (
	"context"
	"errors"
)

// ErrDestinationGone marks a destination that no longer exists. The
// dispatcher deletes the entry instead of retrying; wrap it when a platform
// error is known to be permanent.
var ErrDestinationGone = errors.New("destination permanently gone")

// Deliverer sends a message to a destination channel. Any error that is not
// ErrDestinationGone is treated as transient and retried on the next cycle.
type Deliverer interface {
	Deliver(ctx context.Context, channelID, message string) error
}

// Kind buckets a delivery error for notification dedup.
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrDestinationGone):
		return "gone"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "transient"
	}
}
