package prayerRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"barakah/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// PrayerLogRepository reads the per-day prayer completion log.
type PrayerLogRepository interface {
	// GetLog returns the owner's log for day, or nil when nothing was recorded yet.
	GetLog(ctx context.Context, ownerID, day string) (*models.DailyPrayerLog, error)
}

type MongoPrayerLogRepo struct {
	coll *mongo.Collection
}

func NewMongoPrayerLogRepo(db *mongo.Database) PrayerLogRepository {
	return &MongoPrayerLogRepo{coll: db.Collection("daily_prayer_logs")}
}

func (r *MongoPrayerLogRepo) GetLog(ctx context.Context, ownerID, day string) (*models.DailyPrayerLog, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var l models.DailyPrayerLog
	err := r.coll.FindOne(ctx, bson.M{"created_by": ownerID, "completion_date": day}).Decode(&l)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error fetching prayer log for user %s on %s: %w", ownerID, day, err)
	}
	return &l, nil
}
