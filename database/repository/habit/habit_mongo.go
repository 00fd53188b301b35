package habitRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"barakah/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoHabitRepo implements HabitRepository on the habits and habit_logs collections.
type MongoHabitRepo struct {
	habits *mongo.Collection
	logs   *mongo.Collection
}

func NewMongoHabitRepo(db *mongo.Database) HabitRepository {
	return &MongoHabitRepo{
		habits: db.Collection("habits"),
		logs:   db.Collection("habit_logs"),
	}
}

func (r *MongoHabitRepo) ListActive(ctx context.Context, ownerID string) ([]models.Habit, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cursor, err := r.habits.Find(ctx, bson.M{"created_by": ownerID, "is_active": true})
	if err != nil {
		return nil, fmt.Errorf("error fetching habits for user %s: %w", ownerID, err)
	}
	defer cursor.Close(ctx)

	var habits []models.Habit
	if err := cursor.All(ctx, &habits); err != nil {
		return nil, fmt.Errorf("error decoding habits for user %s: %w", ownerID, err)
	}
	return habits, nil
}

func (r *MongoHabitRepo) ListOwnersWithReminders(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	filter := bson.M{"is_active": true, "reminder_time": bson.M{"$nin": bson.A{"", nil}}}
	raw, err := r.habits.Distinct(ctx, "created_by", filter)
	if err != nil {
		return nil, fmt.Errorf("error listing reminder owners: %w", err)
	}

	owners := make([]string, 0, len(raw))
	for _, v := range raw {
		if id, ok := v.(string); ok && id != "" {
			owners = append(owners, id)
		}
	}
	return owners, nil
}

func (r *MongoHabitRepo) GetByID(ctx context.Context, ownerID, habitID string) (*models.Habit, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var habit models.Habit
	err := r.habits.FindOne(ctx, bson.M{"id": habitID, "created_by": ownerID}).Decode(&habit)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrHabitNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error fetching habit %s: %w", habitID, err)
	}
	return &habit, nil
}

func (r *MongoHabitRepo) CompletedHabitIDs(ctx context.Context, ownerID, day string) (map[string]bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{
		"created_by":      ownerID,
		"completion_date": day,
		"status":          models.HabitLogCompleted,
	}
	cursor, err := r.logs.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("error fetching habit logs for user %s on %s: %w", ownerID, day, err)
	}
	defer cursor.Close(ctx)

	done := make(map[string]bool)
	for cursor.Next(ctx) {
		var l models.HabitLog
		if err := cursor.Decode(&l); err != nil {
			return nil, fmt.Errorf("error decoding habit log: %w", err)
		}
		done[l.HabitID] = true
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return done, nil
}
