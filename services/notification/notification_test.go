package notification

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"barakah/models"

	"firebase.google.com/go/v4/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	last *messaging.Message
	err  error
}

func (f *fakeSender) Send(_ context.Context, m *messaging.Message) (string, error) {
	f.last = m
	if f.err != nil {
		return "", f.err
	}
	return "projects/p/messages/1", nil
}

func samplePayload() models.PushPayload {
	return models.PushPayload{
		Token: "tok-1",
		Notification: models.PushContent{
			Title: "Habit Reminder",
			Body:  "Time for your habit: Read a page of Quran",
			Tag:   "habit:u1:h1:2024-03-10",
		},
		Data: models.PushData{
			EntityID:  "h1",
			DeepLink:  "/habits",
			DedupeKey: "habit:u1:h1:2024-03-10",
			Kind:      models.KindHabit,
		},
	}
}

func TestDeliveryErrorMatchesSentinels(t *testing.T) {
	err := fmt.Errorf("send: %w", NewDeliveryError(KindInvalidToken, errors.New("unregistered")))

	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.NotErrorIs(t, err, ErrTransient)
	assert.Equal(t, KindInvalidToken, KindOf(err))
	assert.Equal(t, KindTransient, KindOf(errors.New("boom")))
	assert.ErrorIs(t, NewDeliveryError(KindChannelUnavailable, nil), ErrChannelUnavailable)
}

func TestFCMChannelSend(t *testing.T) {
	sender := &fakeSender{}
	ch := NewFCMChannel(sender, nil)

	id, err := ch.Send(context.Background(), samplePayload())
	require.NoError(t, err)
	assert.Equal(t, "projects/p/messages/1", id)

	msg := sender.last
	require.NotNil(t, msg)
	assert.Equal(t, "tok-1", msg.Token)
	assert.Equal(t, "Habit Reminder", msg.Notification.Title)
	assert.Equal(t, "habit:u1:h1:2024-03-10", msg.Android.Notification.Tag)
	assert.Equal(t, "habit:u1:h1:2024-03-10", msg.Webpush.Notification.Tag)
	assert.Equal(t, "/habits", msg.Webpush.FCMOptions.Link)
	assert.Equal(t, "habit:u1:h1:2024-03-10", msg.APNS.Headers["apns-collapse-id"])
	assert.Equal(t, map[string]string{
		"entityId":  "h1",
		"deepLink":  "/habits",
		"dedupeKey": "habit:u1:h1:2024-03-10",
		"kind":      "habit",
	}, msg.Data)
}

func TestFCMChannelWithoutClientIsUnavailable(t *testing.T) {
	ch := NewFCMChannel(nil, nil)
	assert.False(t, ch.Ready())

	_, err := ch.Send(context.Background(), samplePayload())
	assert.ErrorIs(t, err, ErrChannelUnavailable)
}

func TestFCMChannelClassifiesUnknownErrorsAsTransient(t *testing.T) {
	ch := NewFCMChannel(&fakeSender{err: errors.New("connection reset")}, nil)

	_, err := ch.Send(context.Background(), samplePayload())
	assert.ErrorIs(t, err, ErrTransient)
}

func TestFCMChannelEmptyToken(t *testing.T) {
	ch := NewFCMChannel(&fakeSender{}, nil)
	p := samplePayload()
	p.Token = ""

	_, err := ch.Send(context.Background(), p)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestStreamSurfaceCollapsesDuplicateTags(t *testing.T) {
	s := NewStreamSurface(4)
	ctx := context.Background()
	at := time.Date(2024, 3, 10, 6, 30, 0, 0, time.UTC)
	n := models.Notification{Title: "Habit Reminder", Tag: "habit:u1:h1:2024-03-10", FiredAt: at}

	require.NoError(t, s.Notify(ctx, n))
	require.NoError(t, s.Notify(ctx, n))
	require.NoError(t, s.Notify(ctx, models.Notification{Tag: "habit:u1:h2:2024-03-10", FiredAt: at}))

	assert.Len(t, s.Events(), 2)
	first := <-s.Events()
	assert.Equal(t, "habit:u1:h1:2024-03-10", first.Tag)
}

func TestStreamSurfaceClosed(t *testing.T) {
	s := NewStreamSurface(1)
	s.Close()
	s.Close()

	err := s.Notify(context.Background(), models.Notification{Tag: "x"})
	assert.ErrorIs(t, err, ErrSurfaceClosed)
}

func TestStreamSurfaceRespectsContextWhenFull(t *testing.T) {
	s := NewStreamSurface(1)
	require.NoError(t, s.Notify(context.Background(), models.Notification{Tag: "a"}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := s.Notify(ctx, models.Notification{Tag: "b"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStreamSurfaceRetriesTagThatWasNotDelivered(t *testing.T) {
	s := NewStreamSurface(1)
	require.NoError(t, s.Notify(context.Background(), models.Notification{Tag: "a"}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	late := models.Notification{Tag: "habit:u1:h1:2024-03-10"}
	require.ErrorIs(t, s.Notify(ctx, late), context.Canceled)

	<-s.Events()
	require.NoError(t, s.Notify(context.Background(), late))
	require.Len(t, s.Events(), 1)
	assert.Equal(t, late.Tag, (<-s.Events()).Tag)
}
