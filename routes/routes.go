package routes

import (
	"net/http"
	"time"

	"barakah/handlers"
	"barakah/middleware"
	"barakah/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RegisterCronRoutes registers the per-minute reminder trigger.
func RegisterCronRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/cron")
	{
		api.Use(middleware.CronSecretMiddleware(hb.CronSecret))
		api.GET("/reminders", hb.TriggerRemindersHandler)
		api.POST("/reminders", hb.TriggerRemindersHandler)
	}
}

// RegisterNotificationRoutes registers device subscription endpoints.
func RegisterNotificationRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/notifications")
	{
		api.Use(middleware.JWTAuthUserMiddleware())
		api.POST("/subscription", hb.RegisterSubscriptionHandler)
		api.DELETE("/subscription/:deviceId", hb.DeleteSubscriptionHandler)
	}
}

// RegisterReminderRoutes registers the foreground reminder stream.
func RegisterReminderRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/reminders")
	{
		api.Use(middleware.JWTAuthUserMiddleware())
		api.GET("/stream", hb.StreamRemindersHandler)
		api.POST("/refresh", hb.RefreshRemindersHandler)
	}
}

// RegisterHealthRoute registers health-check and metrics endpoints.
func RegisterHealthRoute(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		status := utils.GetHealthStatus()
		code := http.StatusOK
		if !status.Healthy() {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{"status": status, "message": "Hi, I'm Barakah"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	RegisterCronRoutes(r, hb)
	RegisterNotificationRoutes(r, hb)
	RegisterReminderRoutes(r, hb)
	RegisterHealthRoute(r)
}
