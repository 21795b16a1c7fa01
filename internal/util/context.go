package util

import (
	"github.com/gin-gonic/gin"
	"github.com/quillfeed/quillfeed/internal/models"
)

// GetUserIDFromContext extracts the authenticated user ID from the Gin
// context. If no identity is present it responds 401 and returns false.
func GetUserIDFromContext(c *gin.Context) (string, bool) {
	userID, exists := c.Get("user_id")
	if !exists {
		RespondUnauthorized(c)
		return "", false
	}
	userIDStr, ok := userID.(string)
	if !ok {
		RespondInternalError(c, "invalid user ID in context")
		return "", false
	}
	return userIDStr, true
}

// GetUserFromContext extracts the authenticated profile from the Gin
// context. If no identity is present it responds 401 and returns false.
func GetUserFromContext(c *gin.Context) (*models.Profile, bool) {
	user, exists := c.Get("user")
	if !exists {
		RespondUnauthorized(c)
		return nil, false
	}
	userPtr, ok := user.(*models.Profile)
	if !ok {
		RespondInternalError(c, "invalid user data in context")
		return nil, false
	}
	return userPtr, true
}

// ViewerIDFromContext returns the user ID when a viewer is signed in and ""
// otherwise. Used by read endpoints that work for anonymous viewers.
func ViewerIDFromContext(c *gin.Context) string {
	if userID, exists := c.Get("user_id"); exists {
		if s, ok := userID.(string); ok {
			return s
		}
	}
	return ""
}
