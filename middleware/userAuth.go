package middleware

import (
	"net/http"
	"strings"

	"barakah/utils"

	"github.com/gin-gonic/gin"
)

// JWTAuthUserMiddleware resolves the user id from a bearer token and stores it as "userID".
// Browsers cannot set headers on an EventSource, so the token may also arrive as ?access_token=.
func JWTAuthUserMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := ""
		if authHeader := c.GetHeader("Authorization"); strings.HasPrefix(authHeader, "Bearer ") {
			tokenString = strings.TrimPrefix(authHeader, "Bearer ")
		} else {
			tokenString = c.Query("access_token")
		}
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Insufficient authorization",
				"code":  0,
			})
			return
		}

		userID, err := utils.ExtractIDFromToken(tokenString)
		if err != nil || userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid token",
				"code":  0,
			})
			return
		}

		c.Set("userID", userID)
		c.Next()
	}
}
