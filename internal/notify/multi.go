package notify

import (
	"biteswipe/internal/service"
	"context"
	"errors"
)

// Multi delivers every notification to each of its notifiers. A failing
// notifier does not stop delivery to the others.
type Multi []service.Notifier

var _ service.Notifier = Multi(nil)

func (m Multi) Notify(ctx context.Context, userID, message string, payload map[string]interface{}) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, userID, message, payload); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
