package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/quillfeed/quillfeed/internal/engagement"
	"github.com/quillfeed/quillfeed/internal/logger"
	"github.com/quillfeed/quillfeed/internal/metrics"
	"github.com/quillfeed/quillfeed/internal/util"
)

// RepostRequest carries optional quote text for a repost
type RepostRequest struct {
	Quote string `json:"quote" binding:"omitempty,max=280"`
}

// LikePost records a like from the authenticated user
// POST /api/v1/posts/:id/like
func (h *Handlers) LikePost(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	postID := c.Param("id")

	count, err := h.engagement.Like(c.Request.Context(), postID, userID)
	if err != nil {
		switch {
		case errors.Is(err, engagement.ErrPostNotFound):
			util.RespondNotFound(c, "post")
		case errors.Is(err, engagement.ErrAlreadyLiked):
			util.RespondConflict(c, "like")
		default:
			logger.ErrorWithFields("failed to like post", err)
			util.RespondInternalError(c, "failed to like post")
		}
		return
	}

	metrics.RecordEngagementEvent("like")
	c.JSON(http.StatusOK, gin.H{"liked": true, "like_count": count})
}

// UnlikePost removes the authenticated user's like. Removing an absent like
// succeeds.
// DELETE /api/v1/posts/:id/like
func (h *Handlers) UnlikePost(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	postID := c.Param("id")

	count, err := h.engagement.Unlike(c.Request.Context(), postID, userID)
	if err != nil {
		if errors.Is(err, engagement.ErrPostNotFound) {
			util.RespondNotFound(c, "post")
			return
		}
		logger.ErrorWithFields("failed to unlike post", err)
		util.RespondInternalError(c, "failed to unlike post")
		return
	}

	metrics.RecordEngagementEvent("unlike")
	c.JSON(http.StatusOK, gin.H{"liked": false, "like_count": count})
}

// RepostPost records a repost from the authenticated user
// POST /api/v1/posts/:id/repost
func (h *Handlers) RepostPost(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	postID := c.Param("id")

	var req RepostRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		util.RespondBadRequest(c, err.Error())
		return
	}

	count, err := h.engagement.Repost(c.Request.Context(), postID, userID, req.Quote)
	if err != nil {
		switch {
		case errors.Is(err, engagement.ErrPostNotFound):
			util.RespondNotFound(c, "post")
		case errors.Is(err, engagement.ErrAlreadyRepost):
			util.RespondConflict(c, "repost")
		default:
			logger.ErrorWithFields("failed to repost", err)
			util.RespondInternalError(c, "failed to repost")
		}
		return
	}

	metrics.RecordEngagementEvent("repost")
	c.JSON(http.StatusOK, gin.H{"reposted": true, "repost_count": count})
}

// UnrepostPost removes the authenticated user's repost. Removing an absent
// repost succeeds.
// DELETE /api/v1/posts/:id/repost
func (h *Handlers) UnrepostPost(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	postID := c.Param("id")

	count, err := h.engagement.Unrepost(c.Request.Context(), postID, userID)
	if err != nil {
		if errors.Is(err, engagement.ErrPostNotFound) {
			util.RespondNotFound(c, "post")
			return
		}
		logger.ErrorWithFields("failed to remove repost", err)
		util.RespondInternalError(c, "failed to remove repost")
		return
	}

	metrics.RecordEngagementEvent("unrepost")
	c.JSON(http.StatusOK, gin.H{"reposted": false, "repost_count": count})
}

// GetEngagement returns the post's counts and the viewer's own flags
// GET /api/v1/posts/:id/engagement
func (h *Handlers) GetEngagement(c *gin.Context) {
	postID := c.Param("id")
	viewerID := util.ViewerIDFromContext(c)

	state, err := h.engagement.State(c.Request.Context(), postID, viewerID)
	if err != nil {
		if errors.Is(err, engagement.ErrPostNotFound) {
			util.RespondNotFound(c, "post")
			return
		}
		logger.ErrorWithFields("failed to load engagement", err)
		util.RespondInternalError(c, "failed to load engagement")
		return
	}

	c.JSON(http.StatusOK, state)
}
