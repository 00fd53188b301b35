// File: barakah/models/device.go
package models

import "time"

type Platform string

const (
	PlatformWeb     Platform = "web"
	PlatformAndroid Platform = "android"
	PlatformIOS     Platform = "ios"
)

// DeviceSubscription maps a user's device to its current push token.
// One row per (OwnerID, DeviceID); re-registration overwrites the token.
type DeviceSubscription struct {
	OwnerID   string    `bson:"owner_id" json:"ownerId"`
	DeviceID  string    `bson:"device_id" json:"deviceId"`
	Token     string    `bson:"token" json:"-"`
	Platform  Platform  `bson:"platform" json:"platform"`
	Timezone  string    `bson:"timezone,omitempty" json:"timezone,omitempty"` // IANA name
	GrantedAt time.Time `bson:"granted_at" json:"grantedAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// SubscriptionRequest is what a client posts after the user grants notification permission.
type SubscriptionRequest struct {
	DeviceID   string   `json:"deviceId" binding:"required"`
	Token      string   `json:"token" binding:"required"`
	Platform   Platform `json:"platform"`
	Timezone   string   `json:"timezone"`
	Permission string   `json:"permission"` // granted | denied | default
}
