package handlers

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/quillfeed/quillfeed/internal/database"
	"github.com/quillfeed/quillfeed/internal/logger"
	"github.com/quillfeed/quillfeed/internal/models"
	"github.com/quillfeed/quillfeed/internal/util"
	"gorm.io/gorm"
)

// UpdateProfileRequest is the body for updating the authenticated user's
// profile. All fields are optional.
type UpdateProfileRequest struct {
	DisplayName *string `json:"display_name"`
	Bio         *string `json:"bio"`
	AvatarURL   *string `json:"avatar_url"`
	WebsiteURL  *string `json:"website_url"`
	Location    *string `json:"location"`
}

// GetProfile returns a profile by username together with its relationship
// snapshot for the viewer
// GET /api/v1/users/:username
func (h *Handlers) GetProfile(c *gin.Context) {
	username := c.Param("username")
	viewerID := util.ViewerIDFromContext(c)

	var profile models.Profile
	if err := database.DB.First(&profile, "username = ?", username).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.RespondNotFound(c, "user")
			return
		}
		logger.ErrorWithFields("failed to load profile", err)
		util.RespondInternalError(c, "failed to load profile")
		return
	}

	rel, err := h.social.Relationship(c.Request.Context(), viewerID, profile.ID)
	if err != nil {
		logger.ErrorWithFields("failed to load relationship", err)
		util.RespondInternalError(c, "failed to load profile")
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": profile, "relationship": rel})
}

// UpdateMyProfile updates the authenticated user's profile fields
// PATCH /api/v1/users/me
func (h *Handlers) UpdateMyProfile(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	updates := map[string]interface{}{}
	if req.DisplayName != nil {
		v := strings.TrimSpace(*req.DisplayName)
		if len([]rune(v)) > 50 {
			util.RespondValidationError(c, "display_name", "must be at most 50 characters")
			return
		}
		updates["display_name"] = v
	}
	if req.Bio != nil {
		if len([]rune(*req.Bio)) > 160 {
			util.RespondValidationError(c, "bio", "must be at most 160 characters")
			return
		}
		updates["bio"] = *req.Bio
	}
	if req.Location != nil {
		v := strings.TrimSpace(*req.Location)
		if len([]rune(v)) > 30 {
			util.RespondValidationError(c, "location", "must be at most 30 characters")
			return
		}
		updates["location"] = v
	}
	if req.WebsiteURL != nil {
		v := strings.TrimSpace(*req.WebsiteURL)
		if v != "" {
			if len(v) > 255 {
				util.RespondValidationError(c, "website_url", "must be at most 255 characters")
				return
			}
			u, err := url.Parse(v)
			if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
				util.RespondValidationError(c, "website_url", "must be a valid http or https URL")
				return
			}
		}
		updates["website_url"] = v
	}
	if req.AvatarURL != nil {
		updates["avatar_url"] = strings.TrimSpace(*req.AvatarURL)
	}

	if len(updates) == 0 {
		c.JSON(http.StatusOK, gin.H{"user": user})
		return
	}

	if err := database.DB.Model(user).Updates(updates).Error; err != nil {
		logger.ErrorWithFields("failed to update profile", err)
		util.RespondInternalError(c, "failed to update profile")
		return
	}

	var fresh models.Profile
	if err := database.DB.First(&fresh, "id = ?", user.ID).Error; err != nil {
		logger.ErrorWithFields("failed to reload profile", err)
		util.RespondInternalError(c, "failed to update profile")
		return
	}

	logger.Log.Info("profile updated", logger.WithUserID(user.ID))
	c.JSON(http.StatusOK, gin.H{"user": fresh})
}

// SearchUsers searches profiles by username or display name
// GET /api/v1/search/users?q=
func (h *Handlers) SearchUsers(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		util.RespondValidationError(c, "q", "search query is required")
		return
	}
	limit := util.ClampLimit(util.ParseInt(c.Query("limit"), 20), 20, 50)

	pattern := "%" + strings.ToLower(q) + "%"
	var users []models.Profile
	err := database.DB.
		Where("LOWER(username) LIKE ? OR LOWER(display_name) LIKE ?", pattern, pattern).
		Order("username ASC").
		Limit(limit).
		Find(&users).Error
	if err != nil {
		logger.ErrorWithFields("failed to search users", err)
		util.RespondInternalError(c, "failed to search users")
		return
	}

	c.JSON(http.StatusOK, gin.H{"users": users, "count": len(users)})
}
