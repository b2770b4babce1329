package relay

import (
	"context"
	"errors"

	"github.com/vvatanabe/scm"
)

// Multi hands a notification to every processor in order. It keeps going after
// a failure and returns all errors joined, so the consumer retries the whole set.
type Multi []scm.NotificationProcessor

// Process hands n to each processor and joins their errors.
func (m Multi) Process(ctx context.Context, n *scm.Notification) error {
	var errs []error
	for _, p := range m {
		if err := p.Process(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
