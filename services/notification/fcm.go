package notification

import (
	"context"
	"errors"

	"barakah/models"

	"firebase.google.com/go/v4/messaging"
	"go.uber.org/zap"
)

// Sender is the part of *messaging.Client used for delivery.
type Sender interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// FCMChannel delivers pushes through Firebase Cloud Messaging.
type FCMChannel struct {
	client Sender
	logger *zap.Logger
}

// NewFCMChannel accepts a nil client; every Send then reports the channel as unavailable.
func NewFCMChannel(client Sender, logger *zap.Logger) *FCMChannel {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FCMChannel{client: client, logger: logger}
}

// Ready reports whether the channel has a client to send with.
func (f *FCMChannel) Ready() bool {
	return f != nil && f.client != nil
}

func (f *FCMChannel) Send(ctx context.Context, payload models.PushPayload) (string, error) {
	if !f.Ready() {
		return "", NewDeliveryError(KindChannelUnavailable, errors.New("fcm client not initialised"))
	}
	if payload.Token == "" {
		return "", NewDeliveryError(KindInvalidToken, errors.New("empty token"))
	}

	id, err := f.client.Send(ctx, buildMessage(payload))
	if err != nil {
		kind := classify(err)
		f.logger.Debug("fcm send failed",
			zap.String("dedupe_key", payload.Data.DedupeKey),
			zap.String("kind", string(kind)),
			zap.Error(err))
		return "", NewDeliveryError(kind, err)
	}
	return id, nil
}

func buildMessage(p models.PushPayload) *messaging.Message {
	return &messaging.Message{
		Token: p.Token,
		Notification: &messaging.Notification{
			Title: p.Notification.Title,
			Body:  p.Notification.Body,
		},
		Data: p.Data.AsMap(),
		Android: &messaging.AndroidConfig{
			Priority:    "high",
			CollapseKey: p.Notification.Tag,
			Notification: &messaging.AndroidNotification{
				ChannelID: "reminders",
				Sound:     "default",
				Tag:       p.Notification.Tag,
			},
		},
		Webpush: &messaging.WebpushConfig{
			Notification: &messaging.WebpushNotification{
				Title: p.Notification.Title,
				Body:  p.Notification.Body,
				Tag:   p.Notification.Tag,
			},
			FCMOptions: &messaging.WebpushFCMOptions{
				Link: p.Data.DeepLink,
			},
		},
		APNS: &messaging.APNSConfig{
			Headers: map[string]string{
				"apns-priority":    "10",
				"apns-push-type":   "alert",
				"apns-collapse-id": p.Notification.Tag,
			},
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					Sound:    "default",
					ThreadID: string(p.Data.Kind),
				},
			},
		},
	}
}

func classify(err error) ErrorKind {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindTransient
	case messaging.IsUnregistered(err), messaging.IsInvalidArgument(err), messaging.IsSenderIDMismatch(err):
		return KindInvalidToken
	case messaging.IsThirdPartyAuthError(err):
		return KindChannelUnavailable
	default:
		// unavailable, internal and quota errors land here too
		return KindTransient
	}
}
