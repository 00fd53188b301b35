package tasks

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const TypeDispatchReminders = "reminder:dispatch"

// DispatchPayload names the trigger that enqueued the task and the minute it covers.
type DispatchPayload struct {
	Source string    `json:"source"`
	Minute time.Time `json:"minute"`
}

// NewDispatchTask builds the dispatcher task for one wall-clock minute. It is never
// retried: the minute is pinned in the payload, and a second run of the same minute
// is refused by the task id.
func NewDispatchTask(source string, minute time.Time) (*asynq.Task, []asynq.Option, error) {
	minute = minute.UTC().Truncate(time.Minute)
	b, err := json.Marshal(DispatchPayload{Source: source, Minute: minute})
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(TypeDispatchReminders, b)
	opts := []asynq.Option{
		asynq.TaskID(DispatchTaskID(minute)),
		asynq.ProcessAt(minute),
		asynq.MaxRetry(0),
		asynq.Timeout(55 * time.Second),
	}

	return task, opts, nil
}

// DispatchTaskID is shared by every replica enqueuing the same minute.
func DispatchTaskID(minute time.Time) string {
	return TypeDispatchReminders + ":" + minute.UTC().Truncate(time.Minute).Format(time.RFC3339)
}
