// File: database/repository/subscription/subscriptionMongoCrud.go
package subscriptionRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"barakah/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Upsert creates or overwrites the subscription document of one device.
func (r *MongoSubscriptionRepo) Upsert(ctx context.Context, sub *models.DeviceSubscription) error {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	now := time.Now()
	if sub.GrantedAt.IsZero() {
		sub.GrantedAt = now
	}
	sub.UpdatedAt = now

	filter := bson.M{"owner_id": sub.OwnerID, "device_id": sub.DeviceID}
	update := bson.M{"$set": sub}

	_, err := r.coll.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to upsert subscription for user %s device %s: %w", sub.OwnerID, sub.DeviceID, err)
	}
	return nil
}

// Delete removes the subscription of one device.
func (r *MongoSubscriptionRepo) Delete(ctx context.Context, ownerID, deviceID string) error {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	result, err := r.coll.DeleteOne(ctx, bson.M{"owner_id": ownerID, "device_id": deviceID})
	if err != nil {
		return fmt.Errorf("failed to delete subscription for user %s device %s: %w", ownerID, deviceID, err)
	}
	if result.DeletedCount == 0 {
		return ErrSubscriptionNotFound
	}
	return nil
}

// ClearToken removes the owner's subscriptions that still hold token.
func (r *MongoSubscriptionRepo) ClearToken(ctx context.Context, ownerID, token string) (int64, error) {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	result, err := r.coll.DeleteMany(ctx, bson.M{"owner_id": ownerID, "token": token})
	if err != nil {
		return 0, fmt.Errorf("failed to clear stale token for user %s: %w", ownerID, err)
	}
	return result.DeletedCount, nil
}

// Get returns the most recently granted subscription of the owner.
func (r *MongoSubscriptionRepo) Get(ctx context.Context, ownerID string) (*models.DeviceSubscription, error) {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	opts := options.FindOne().SetSort(bson.D{{Key: "granted_at", Value: -1}})

	var sub models.DeviceSubscription
	err := r.coll.FindOne(ctx, bson.M{"owner_id": ownerID}, opts).Decode(&sub)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrSubscriptionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch subscription for user %s: %w", ownerID, err)
	}
	return &sub, nil
}

// ListActive returns all subscriptions holding a token, grouped by owner.
func (r *MongoSubscriptionRepo) ListActive(ctx context.Context) ([]models.DeviceSubscription, error) {
	return r.find(ctx, bson.M{"token": bson.M{"$ne": ""}})
}

func (r *MongoSubscriptionRepo) find(ctx context.Context, filter bson.M) ([]models.DeviceSubscription, error) {
	ctx, cancel := newContext(ctx, 10*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "owner_id", Value: 1}, {Key: "granted_at", Value: -1}})
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	defer cursor.Close(ctx)

	var subs []models.DeviceSubscription
	if err := cursor.All(ctx, &subs); err != nil {
		return nil, fmt.Errorf("failed to decode subscriptions: %w", err)
	}
	return subs, nil
}
