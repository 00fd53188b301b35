package notification

import (
	"context"

	"barakah/models"
)

// Channel delivers one push payload to one device token. Errors are *DeliveryError
// values classified as invalid token, transient, or channel unavailable.
type Channel interface {
	Send(ctx context.Context, payload models.PushPayload) (string, error)
}

// Surface shows a reminder to a user who currently has the app open.
type Surface interface {
	Notify(ctx context.Context, n models.Notification) error
}
