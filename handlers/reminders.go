package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"barakah/models"
	"barakah/services/notification"
	"barakah/services/scheduler"
	"barakah/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const heartbeatInterval = 30 * time.Second

// SubscriptionLookup finds the user's latest device subscription, for its timezone.
type SubscriptionLookup interface {
	Get(ctx context.Context, ownerID string) (*models.DeviceSubscription, error)
}

type ReminderHandler struct {
	Sessions        *scheduler.Manager
	Subscriptions   SubscriptionLookup
	DefaultLocation *time.Location
}

func NewReminderHandler(sessions *scheduler.Manager, subs SubscriptionLookup, defaultLoc *time.Location) *ReminderHandler {
	if defaultLoc == nil {
		defaultLoc = time.UTC
	}
	return &ReminderHandler{Sessions: sessions, Subscriptions: subs, DefaultLocation: defaultLoc}
}

// StreamRemindersHandler runs a foreground scheduler for as long as the client keeps
// the event stream open. Reminders arrive as "reminder" events.
func (h *ReminderHandler) StreamRemindersHandler(c *gin.Context) {
	logger := getLogger(c)
	userID, ok := currentUserID(c)
	if !ok {
		utils.JSONError(c, http.StatusUnauthorized, "unauthorized", "Insufficient authorization", "")
		return
	}

	ctx := c.Request.Context()
	loc := h.location(ctx, userID, c.Query("timezone"))
	surface := notification.NewStreamSurface(16)
	defer surface.Close()

	session, err := h.Sessions.Open(ctx, userID, scheduler.Permission(c.Query("permission")), loc, surface)
	if errors.Is(err, scheduler.ErrPermissionDenied) {
		utils.JSONError(c, http.StatusForbidden, "permission_denied", permissionDeniedMessage, "")
		return
	}
	if err != nil {
		logger.Error("failed to open reminder session", zap.String("user_id", userID), zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "internal", "Failed to start reminders", "")
		return
	}
	defer h.Sessions.Close(session)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		// a failed run ends the stream too
		defer cancel()
		if err := session.Run(runCtx); err != nil {
			logger.Warn("reminder session stopped", zap.String("session_id", session.ID()), zap.Error(err))
		}
	}()

	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	c.SSEvent("ready", gin.H{"sessionId": session.ID(), "day": session.ArmedDay(), "timezone": loc.String()})

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-runCtx.Done():
			return false
		case <-surface.Done():
			return false
		case n := <-surface.Events():
			c.SSEvent("reminder", n)
			return true
		case t := <-heartbeat.C:
			c.SSEvent("ping", t.UTC().Format(time.RFC3339))
			return true
		}
	})
}

// RefreshRemindersHandler re-arms the user's open sessions after habits changed.
func (h *ReminderHandler) RefreshRemindersHandler(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		utils.JSONError(c, http.StatusUnauthorized, "unauthorized", "Insufficient authorization", "")
		return
	}
	n := h.Sessions.Refresh(userID)
	c.JSON(http.StatusOK, gin.H{"success": true, "sessions": n})
}

// location picks the query timezone, then the stored subscription's, then the default.
func (h *ReminderHandler) location(ctx context.Context, userID, requested string) *time.Location {
	if requested != "" {
		if loc, err := time.LoadLocation(requested); err == nil {
			return loc
		}
	}
	if h.Subscriptions != nil {
		if sub, err := h.Subscriptions.Get(ctx, userID); err == nil && sub.Timezone != "" {
			if loc, err := time.LoadLocation(sub.Timezone); err == nil {
				return loc
			}
		}
	}
	return h.DefaultLocation
}
