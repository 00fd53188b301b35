// File: barakah/models/notification.go
package models

import "time"

// Notification is a reminder as shown on the in-app (foreground) surface.
type Notification struct {
	Kind     ReminderKind `json:"kind"`
	Title    string       `json:"title"`
	Body     string       `json:"body"`
	Tag      string       `json:"tag"` // dedupe key; the client collapses equal tags
	EntityID string       `json:"entityId"`
	DeepLink string       `json:"deepLink"`
	FiredAt  time.Time    `json:"firedAt"`
}

// PushContent is the user-visible part of a push message.
type PushContent struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Tag   string `json:"tag,omitempty"`
}

// PushData is the data part of a push message, read by the client to navigate.
type PushData struct {
	EntityID  string       `json:"entityId"`
	DeepLink  string       `json:"deepLink"`
	DedupeKey string       `json:"dedupeKey"`
	Kind      ReminderKind `json:"kind"`
}

// PushPayload is one message addressed to one device token.
type PushPayload struct {
	Token        string      `json:"token"`
	Notification PushContent `json:"notification"`
	Data         PushData    `json:"data"`
}

// AsMap flattens Data for transports that only carry string maps.
func (d PushData) AsMap() map[string]string {
	return map[string]string{
		"entityId":  d.EntityID,
		"deepLink":  d.DeepLink,
		"dedupeKey": d.DedupeKey,
		"kind":      string(d.Kind),
	}
}

// DispatchResult is returned by one remote dispatcher invocation.
type DispatchResult struct {
	Success      bool      `json:"success"`
	Message      string    `json:"message"`
	InvocationID string    `json:"invocationId,omitempty"`
	At           time.Time `json:"at"`
	Users        int       `json:"users"`
	Due          int       `json:"due"`
	Sent         int       `json:"sent"`
	Suppressed   int       `json:"suppressed"`
	Duplicates   int       `json:"duplicates"`
	Failed       int       `json:"failed"`
	StaleTokens  int       `json:"staleTokens"`
	Unsubscribed int       `json:"unsubscribed"`
}
