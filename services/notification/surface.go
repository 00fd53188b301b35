package notification

import (
	"context"
	"errors"
	"sync"
	"time"

	"barakah/models"
)

var ErrSurfaceClosed = errors.New("notification surface closed")

const tagMemory = 48 * time.Hour

// StreamSurface buffers foreground notifications for one client stream.
// A tag already shown is dropped, so local and replayed duplicates collapse.
type StreamSurface struct {
	mu     sync.Mutex
	events chan models.Notification
	done   chan struct{}
	seen   map[string]time.Time
	closed bool
}

func NewStreamSurface(buffer int) *StreamSurface {
	if buffer <= 0 {
		buffer = 16
	}
	return &StreamSurface{
		events: make(chan models.Notification, buffer),
		done:   make(chan struct{}),
		seen:   make(map[string]time.Time),
	}
}

// Events is consumed by the stream handler.
func (s *StreamSurface) Events() <-chan models.Notification {
	return s.events
}

func (s *StreamSurface) Notify(ctx context.Context, n models.Notification) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSurfaceClosed
	}
	if n.Tag != "" {
		if _, ok := s.seen[n.Tag]; ok {
			s.mu.Unlock()
			return nil
		}
		s.prune(n.FiredAt)
		s.seen[n.Tag] = n.FiredAt
	}
	s.mu.Unlock()

	var err error
	select {
	case s.events <- n:
		return nil
	case <-s.done:
		err = ErrSurfaceClosed
	case <-ctx.Done():
		err = ctx.Err()
	}
	// undelivered tags stay eligible for a later attempt
	s.forget(n.Tag)
	return err
}

func (s *StreamSurface) forget(tag string) {
	if tag == "" {
		return
	}
	s.mu.Lock()
	delete(s.seen, tag)
	s.mu.Unlock()
}

// Close stops accepting notifications. Pending events stay readable.
func (s *StreamSurface) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.done)
	}
}

// Done is closed once the surface stops accepting notifications.
func (s *StreamSurface) Done() <-chan struct{} {
	return s.done
}

func (s *StreamSurface) prune(now time.Time) {
	for tag, at := range s.seen {
		if now.Sub(at) > tagMemory {
			delete(s.seen, tag)
		}
	}
}
