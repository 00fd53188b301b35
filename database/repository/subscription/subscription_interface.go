package subscriptionRepo

import (
	"context"
	"errors"

	"barakah/models"
)

var ErrSubscriptionNotFound = errors.New("device subscription not found")

// SubscriptionRepository stores the mapping from a user's devices to their push tokens.
type SubscriptionRepository interface {
	// Upsert creates or overwrites the subscription for (OwnerID, DeviceID).
	Upsert(ctx context.Context, sub *models.DeviceSubscription) error
	// Get returns the most recently granted subscription of the owner.
	Get(ctx context.Context, ownerID string) (*models.DeviceSubscription, error)
	// ListActive returns all subscriptions that carry a token.
	ListActive(ctx context.Context) ([]models.DeviceSubscription, error)
	// Delete removes the subscription of one device.
	Delete(ctx context.Context, ownerID, deviceID string) error
	// ClearToken removes subscriptions of the owner still holding the given token.
	// It returns the number of removed rows; a device that re-registered meanwhile is kept.
	ClearToken(ctx context.Context, ownerID, token string) (int64, error)
}
