package handlers

import (
	"github.com/gin-gonic/gin"
)

// HandlerBundle groups the endpoint handlers handed to the router.
type HandlerBundle struct {
	// Shared secret of the trigger endpoint
	CronSecret string

	// Trigger endpoint
	TriggerRemindersHandler gin.HandlerFunc

	// Subscription endpoints
	RegisterSubscriptionHandler gin.HandlerFunc
	DeleteSubscriptionHandler   gin.HandlerFunc

	// Foreground reminder endpoints
	StreamRemindersHandler  gin.HandlerFunc
	RefreshRemindersHandler gin.HandlerFunc
}
