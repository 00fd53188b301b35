package scheduler

import (
	"container/heap"
	"time"

	"barakah/models"
)

type eventKind int

const (
	eventReminder eventKind = iota
	eventSummary
	eventRollover
)

type event struct {
	fireAt time.Time
	kind   eventKind
	entity models.ReminderEntity
	seq    uint64
}

// eventQueue is a min-heap ordered by fire time, then insertion order.
type eventQueue []*event

func (q eventQueue) Len() int { return len(q) }

func (q eventQueue) Less(i, j int) bool {
	if !q[i].fireAt.Equal(q[j].fireAt) {
		return q[i].fireAt.Before(q[j].fireAt)
	}
	return q[i].seq < q[j].seq
}

func (q eventQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *eventQueue) Push(x any) { *q = append(*q, x.(*event)) }

func (q *eventQueue) Pop() any {
	old := *q
	n := len(old)
	ev := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return ev
}

func (q eventQueue) peek() *event {
	if len(q) == 0 {
		return nil
	}
	return q[0]
}

// retain keeps the events for which keep returns true and restores heap order.
func (q *eventQueue) retain(keep func(*event) bool) []*event {
	var dropped []*event
	kept := (*q)[:0]
	for _, ev := range *q {
		if keep(ev) {
			kept = append(kept, ev)
		} else {
			dropped = append(dropped, ev)
		}
	}
	for i := len(kept); i < len(*q); i++ {
		(*q)[i] = nil
	}
	*q = kept
	heap.Init(q)
	return dropped
}
