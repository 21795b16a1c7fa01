package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/quillfeed/quillfeed/internal/logger"
	"github.com/quillfeed/quillfeed/internal/metrics"
	"github.com/quillfeed/quillfeed/internal/models"
	"github.com/quillfeed/quillfeed/internal/social"
	"github.com/quillfeed/quillfeed/internal/util"
)

// FollowUser follows another user
// POST /api/v1/users/:id/follow
func (h *Handlers) FollowUser(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	followedID := c.Param("id")

	follow, err := h.social.Follow(c.Request.Context(), userID, followedID)
	if err != nil {
		switch {
		case errors.Is(err, social.ErrSelfFollow):
			util.RespondValidationError(c, "id", "cannot follow yourself")
		case errors.Is(err, social.ErrUserNotFound):
			util.RespondNotFound(c, "user")
		case errors.Is(err, social.ErrAlreadyFollowing):
			util.RespondConflict(c, "follow")
		default:
			logger.ErrorWithFields("failed to follow user", err)
			util.RespondInternalError(c, "failed to follow user")
		}
		return
	}

	metrics.RecordFollowEvent("follow")
	logger.Log.Info("user followed",
		logger.WithUserID(userID),
		logger.WithRequestID(c.GetString("request_id")),
	)
	c.JSON(http.StatusCreated, gin.H{"following": true, "follow": follow})
}

// UnfollowUser removes a follow edge. Removing an absent edge succeeds.
// DELETE /api/v1/users/:id/follow
func (h *Handlers) UnfollowUser(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	followedID := c.Param("id")

	if err := h.social.Unfollow(c.Request.Context(), userID, followedID); err != nil {
		logger.ErrorWithFields("failed to unfollow user", err)
		util.RespondInternalError(c, "failed to unfollow user")
		return
	}

	metrics.RecordFollowEvent("unfollow")
	c.JSON(http.StatusOK, gin.H{"following": false})
}

// GetRelationship returns follower/following counts for a user plus whether
// the viewer follows them
// GET /api/v1/users/:id/relationship
func (h *Handlers) GetRelationship(c *gin.Context) {
	subjectID := c.Param("id")
	viewerID := util.ViewerIDFromContext(c)

	rel, err := h.social.Relationship(c.Request.Context(), viewerID, subjectID)
	if err != nil {
		if errors.Is(err, social.ErrUserNotFound) {
			util.RespondNotFound(c, "user")
			return
		}
		logger.ErrorWithFields("failed to load relationship", err)
		util.RespondInternalError(c, "failed to load relationship")
		return
	}

	c.JSON(http.StatusOK, rel)
}

// GetFollowers lists a user's followers, newest first
// GET /api/v1/users/:id/followers
func (h *Handlers) GetFollowers(c *gin.Context) {
	subjectID := c.Param("id")
	limit := util.ClampLimit(util.ParseInt(c.Query("limit"), 20), 20, 100)
	offset := util.ParseInt(c.Query("offset"), 0)

	follows, err := h.social.Followers(c.Request.Context(), subjectID, limit, offset)
	if err != nil {
		logger.ErrorWithFields("failed to load followers", err)
		util.RespondInternalError(c, "failed to load followers")
		return
	}

	users := make([]models.Profile, 0, len(follows))
	for _, f := range follows {
		users = append(users, f.Follower)
	}
	c.JSON(http.StatusOK, gin.H{"users": users, "count": len(users)})
}

// GetFollowing lists the users a user follows, newest first
// GET /api/v1/users/:id/following
func (h *Handlers) GetFollowing(c *gin.Context) {
	subjectID := c.Param("id")
	limit := util.ClampLimit(util.ParseInt(c.Query("limit"), 20), 20, 100)
	offset := util.ParseInt(c.Query("offset"), 0)

	follows, err := h.social.Following(c.Request.Context(), subjectID, limit, offset)
	if err != nil {
		logger.ErrorWithFields("failed to load following", err)
		util.RespondInternalError(c, "failed to load following")
		return
	}

	users := make([]models.Profile, 0, len(follows))
	for _, f := range follows {
		users = append(users, f.Followed)
	}
	c.JSON(http.StatusOK, gin.H{"users": users, "count": len(users)})
}
