package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"barakah/models"
	"barakah/services/notification"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Dispatcher runs one remote dispatcher invocation.
type Dispatcher interface {
	Dispatch(ctx context.Context, now time.Time) (*models.DispatchResult, error)
}

type CronHandler struct {
	Dispatcher Dispatcher
	Now        func() time.Time
}

func NewCronHandler(d Dispatcher) *CronHandler {
	return &CronHandler{Dispatcher: d, Now: time.Now}
}

// TriggerRemindersHandler is called once per minute by the external scheduler.
// The shared secret is checked by CronSecretMiddleware before this runs.
func (h *CronHandler) TriggerRemindersHandler(c *gin.Context) {
	logger := getLogger(c)

	res, err := h.Dispatcher.Dispatch(c.Request.Context(), h.Now())
	switch {
	case errors.Is(err, notification.ErrChannelUnavailable):
		logger.Error("reminder dispatch aborted: push channel unavailable", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, failure(res, "Push channel unavailable."))
	case err != nil:
		logger.Error("reminder dispatch failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, failure(res, "Failed to send reminders."))
	default:
		c.JSON(http.StatusOK, res)
	}
}

func failure(res *models.DispatchResult, fallback string) *models.DispatchResult {
	if res == nil {
		res = &models.DispatchResult{}
	}
	res.Success = false
	if res.Message == "" {
		res.Message = fallback
	}
	return res
}
