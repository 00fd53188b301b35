package handlers

import (
	"errors"
	"net/http"
	"time"

	subscriptionRepo "barakah/database/repository/subscription"
	"barakah/models"
	"barakah/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const permissionDeniedMessage = "Notifications are blocked; reminders are off."

type SubscriptionHandler struct {
	Repo subscriptionRepo.SubscriptionRepository
}

func NewSubscriptionHandler(repo subscriptionRepo.SubscriptionRepository) *SubscriptionHandler {
	return &SubscriptionHandler{Repo: repo}
}

// RegisterSubscriptionHandler stores the push token of one device after the user granted
// notification permission. A non-granted permission is reported once and nothing is stored.
func (h *SubscriptionHandler) RegisterSubscriptionHandler(c *gin.Context) {
	logger := getLogger(c)
	userID, ok := currentUserID(c)
	if !ok {
		utils.JSONError(c, http.StatusUnauthorized, "unauthorized", "Insufficient authorization", "")
		return
	}

	var req models.SubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid_request", "Invalid subscription request", err.Error())
		return
	}
	if req.Permission != "granted" {
		utils.JSONError(c, http.StatusForbidden, "permission_denied", permissionDeniedMessage, "")
		return
	}
	if req.Timezone != "" {
		if _, err := time.LoadLocation(req.Timezone); err != nil {
			utils.JSONError(c, http.StatusBadRequest, "invalid_timezone", "Unknown timezone", req.Timezone)
			return
		}
	}

	platform := req.Platform
	switch platform {
	case models.PlatformWeb, models.PlatformAndroid, models.PlatformIOS:
	case "":
		platform = models.PlatformWeb
	default:
		utils.JSONError(c, http.StatusBadRequest, "invalid_platform", "Unsupported platform", string(platform))
		return
	}

	sub := &models.DeviceSubscription{
		OwnerID:  userID,
		DeviceID: req.DeviceID,
		Token:    req.Token,
		Platform: platform,
		Timezone: req.Timezone,
	}
	if err := h.Repo.Upsert(c.Request.Context(), sub); err != nil {
		logger.Error("failed to store subscription", zap.String("user_id", userID), zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "internal", "Failed to store subscription", "")
		return
	}

	logger.Info("device subscribed",
		zap.String("user_id", userID),
		zap.String("device_id", sub.DeviceID),
		zap.String("platform", string(sub.Platform)))
	c.JSON(http.StatusOK, gin.H{"success": true, "subscription": sub})
}

// DeleteSubscriptionHandler unregisters one device of the current user.
func (h *SubscriptionHandler) DeleteSubscriptionHandler(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		utils.JSONError(c, http.StatusUnauthorized, "unauthorized", "Insufficient authorization", "")
		return
	}

	deviceID := c.Param("deviceId")
	err := h.Repo.Delete(c.Request.Context(), userID, deviceID)
	if errors.Is(err, subscriptionRepo.ErrSubscriptionNotFound) {
		utils.JSONError(c, http.StatusNotFound, "not_found", "Subscription not found", deviceID)
		return
	}
	if err != nil {
		getLogger(c).Error("failed to delete subscription", zap.String("user_id", userID), zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "internal", "Failed to delete subscription", "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
