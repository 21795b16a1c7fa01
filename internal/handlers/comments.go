package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/quillfeed/quillfeed/internal/logger"
	"github.com/quillfeed/quillfeed/internal/metrics"
	"github.com/quillfeed/quillfeed/internal/threads"
	"github.com/quillfeed/quillfeed/internal/util"
)

// CommentRequest is the body for creating a comment
type CommentRequest struct {
	Content  string  `json:"content" binding:"required,max=2000"`
	ParentID *string `json:"parent_id"`
}

// UpdateCommentRequest is the body for editing a comment
type UpdateCommentRequest struct {
	Content string `json:"content" binding:"required,max=2000"`
}

// CreateComment adds a comment to a published post
// POST /api/v1/posts/:id/comments
func (h *Handlers) CreateComment(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	postID := c.Param("id")

	var req CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	comment, err := h.threads.PostComment(c.Request.Context(), postID, userID, req.Content, req.ParentID)
	if err != nil {
		switch {
		case errors.Is(err, threads.ErrPostNotFound):
			util.RespondNotFound(c, "post")
		case errors.Is(err, threads.ErrEmptyContent):
			util.RespondValidationError(c, "content", "content is required")
		case errors.Is(err, threads.ErrParentMismatch):
			util.RespondValidationError(c, "parent_id", "parent comment does not belong to this post")
		case errors.Is(err, threads.ErrCommentNotFound):
			util.RespondNotFound(c, "parent comment")
		default:
			logger.ErrorWithFields("failed to create comment", err)
			util.RespondInternalError(c, "failed to create comment")
		}
		return
	}

	metrics.RecordCommentCreated()
	c.JSON(http.StatusCreated, comment)
}

// ListComments returns the post's comment thread, roots oldest first with
// replies nested under them
// GET /api/v1/posts/:id/comments
func (h *Handlers) ListComments(c *gin.Context) {
	postID := c.Param("id")

	thread, err := h.threads.ListThread(c.Request.Context(), postID)
	if err != nil {
		if errors.Is(err, threads.ErrPostNotFound) {
			util.RespondNotFound(c, "post")
			return
		}
		logger.ErrorWithFields("failed to load comments", err)
		util.RespondInternalError(c, "failed to load comments")
		return
	}

	c.JSON(http.StatusOK, gin.H{"comments": thread, "count": len(thread)})
}

// UpdateComment edits a comment owned by the authenticated user
// PATCH /api/v1/comments/:id
func (h *Handlers) UpdateComment(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	commentID := c.Param("id")

	var req UpdateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	comment, err := h.threads.UpdateComment(c.Request.Context(), commentID, userID, req.Content)
	if err != nil {
		switch {
		case errors.Is(err, threads.ErrCommentNotFound):
			util.RespondNotFound(c, "comment")
		case errors.Is(err, threads.ErrEmptyContent):
			util.RespondValidationError(c, "content", "content is required")
		default:
			logger.ErrorWithFields("failed to update comment", err)
			util.RespondInternalError(c, "failed to update comment")
		}
		return
	}

	c.JSON(http.StatusOK, comment)
}

// DeleteComment deletes a comment owned by the authenticated user
// DELETE /api/v1/comments/:id
func (h *Handlers) DeleteComment(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	commentID := c.Param("id")

	if err := h.threads.DeleteComment(c.Request.Context(), commentID, userID); err != nil {
		if errors.Is(err, threads.ErrCommentNotFound) {
			util.RespondNotFound(c, "comment")
			return
		}
		logger.ErrorWithFields("failed to delete comment", err)
		util.RespondInternalError(c, "failed to delete comment")
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": true})
}
