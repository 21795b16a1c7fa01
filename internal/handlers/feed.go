package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/quillfeed/quillfeed/internal/logger"
	"github.com/quillfeed/quillfeed/internal/metrics"
	"github.com/quillfeed/quillfeed/internal/util"
)

// GetGlobalFeed returns the newest published posts from every author
// GET /api/v1/feed/global
func (h *Handlers) GetGlobalFeed(c *gin.Context) {
	viewerID := util.ViewerIDFromContext(c)
	limit := util.ClampLimit(util.ParseInt(c.Query("limit"), 20), 20, 100)

	start := time.Now()
	items, err := h.feed.Global(c.Request.Context(), viewerID, limit)
	if err != nil {
		logger.ErrorWithFields("failed to compose global feed", err)
		util.RespondInternalError(c, "failed to load feed")
		return
	}
	metrics.RecordFeedGeneration("global", time.Since(start), len(items))

	c.JSON(http.StatusOK, gin.H{"posts": items, "count": len(items)})
}

// GetFollowingFeed returns the newest published posts from authors the
// authenticated user follows. Following nobody yields an empty feed.
// GET /api/v1/feed/following
func (h *Handlers) GetFollowingFeed(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	limit := util.ClampLimit(util.ParseInt(c.Query("limit"), 20), 20, 100)

	start := time.Now()
	items, err := h.feed.Following(c.Request.Context(), userID, limit)
	if err != nil {
		logger.ErrorWithFields("failed to compose following feed", err)
		util.RespondInternalError(c, "failed to load feed")
		return
	}
	metrics.RecordFeedGeneration("following", time.Since(start), len(items))

	c.JSON(http.StatusOK, gin.H{"posts": items, "count": len(items)})
}
