package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/quillfeed/quillfeed/internal/database"
	"github.com/quillfeed/quillfeed/internal/logger"
	"github.com/quillfeed/quillfeed/internal/metrics"
	"github.com/quillfeed/quillfeed/internal/models"
	"github.com/quillfeed/quillfeed/internal/util"
	"gorm.io/gorm"
)

// CreatePostRequest is the body for creating or replacing a post
type CreatePostRequest struct {
	Title      string   `json:"title" binding:"required,max=200"`
	Content    string   `json:"content" binding:"required"`
	CategoryID *string  `json:"category_id"`
	Tags       []string `json:"tags" binding:"omitempty,max=10,dive,min=1,max=40"`
	Published  bool     `json:"published"`
}

// UpdatePostRequest is the body for a partial post update
type UpdatePostRequest struct {
	Title      *string  `json:"title" binding:"omitempty,max=200"`
	Content    *string  `json:"content"`
	CategoryID *string  `json:"category_id"`
	Tags       []string `json:"tags" binding:"omitempty,max=10,dive,min=1,max=40"`
	Published  *bool    `json:"published"`
}

// CreatePost creates a post for the authenticated user
// POST /api/v1/posts
func (h *Handlers) CreatePost(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	if req.CategoryID != nil {
		if ok := h.categoryExists(c, *req.CategoryID); !ok {
			return
		}
	}

	post := models.Post{
		Title:      req.Title,
		Content:    req.Content,
		Excerpt:    util.Excerpt(req.Content),
		AuthorID:   userID,
		CategoryID: req.CategoryID,
		Published:  req.Published,
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&post).Error; err != nil {
			return err
		}
		return replacePostTags(tx, &post, req.Tags)
	})
	if err != nil {
		logger.ErrorWithFields("failed to create post", err)
		util.RespondInternalError(c, "failed to create post")
		return
	}

	if err := database.DB.Preload("Author").Preload("Category").First(&post, "id = ?", post.ID).Error; err != nil {
		logger.ErrorWithFields("failed to reload post", err)
		util.RespondInternalError(c, "failed to create post")
		return
	}
	loadTags(database.DB, &post)

	metrics.RecordPostCreated(post.Published)
	logger.Log.Info("post created", logger.WithUserID(userID), logger.WithPostID(post.ID))
	c.JSON(http.StatusCreated, post)
}

// GetPost returns one post with its engagement state. Drafts are only
// visible to their author.
// GET /api/v1/posts/:id
func (h *Handlers) GetPost(c *gin.Context) {
	postID := c.Param("id")
	viewerID := util.ViewerIDFromContext(c)

	var post models.Post
	err := database.DB.Preload("Author").Preload("Category").First(&post, "id = ?", postID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.RespondNotFound(c, "post")
			return
		}
		logger.ErrorWithFields("failed to load post", err)
		util.RespondInternalError(c, "failed to load post")
		return
	}

	if !post.Published && post.AuthorID != viewerID {
		util.RespondNotFound(c, "post")
		return
	}
	loadTags(database.DB, &post)

	resp := gin.H{"post": post}
	// Drafts carry no engagement; the service treats them as nonexistent
	if post.Published {
		state, err := h.engagement.State(c.Request.Context(), postID, viewerID)
		if err != nil {
			logger.ErrorWithFields("failed to load engagement state", err)
		} else {
			resp["engagement"] = state
		}
	}
	c.JSON(http.StatusOK, resp)
}

// UpdatePost partially updates a post owned by the authenticated user
// PATCH /api/v1/posts/:id
func (h *Handlers) UpdatePost(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	postID := c.Param("id")

	var req UpdatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	// Combined id+owner filter so a missing row and a foreign row are
	// indistinguishable to the caller.
	var post models.Post
	err := database.DB.First(&post, "id = ? AND author_id = ?", postID, userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.RespondNotFound(c, "post")
			return
		}
		logger.ErrorWithFields("failed to load post", err)
		util.RespondInternalError(c, "failed to update post")
		return
	}

	if req.CategoryID != nil && *req.CategoryID != "" {
		if ok := h.categoryExists(c, *req.CategoryID); !ok {
			return
		}
	}

	updates := map[string]interface{}{}
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.Content != nil {
		updates["content"] = *req.Content
		updates["excerpt"] = util.Excerpt(*req.Content)
	}
	if req.CategoryID != nil {
		if *req.CategoryID == "" {
			updates["category_id"] = nil
		} else {
			updates["category_id"] = *req.CategoryID
		}
	}
	if req.Published != nil {
		updates["published"] = *req.Published
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if len(updates) > 0 {
			if err := tx.Model(&post).Updates(updates).Error; err != nil {
				return err
			}
		}
		if req.Tags != nil {
			return replacePostTags(tx, &post, req.Tags)
		}
		return nil
	})
	if err != nil {
		logger.ErrorWithFields("failed to update post", err)
		util.RespondInternalError(c, "failed to update post")
		return
	}

	if err := database.DB.Preload("Author").Preload("Category").First(&post, "id = ?", postID).Error; err != nil {
		logger.ErrorWithFields("failed to reload post", err)
		util.RespondInternalError(c, "failed to update post")
		return
	}
	loadTags(database.DB, &post)

	c.JSON(http.StatusOK, post)
}

// DeletePost deletes a post owned by the authenticated user along with its
// engagement and comment rows
// DELETE /api/v1/posts/:id
func (h *Handlers) DeletePost(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	postID := c.Param("id")

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND author_id = ?", postID, userID).Delete(&models.Post{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		for _, m := range []interface{}{&models.Like{}, &models.Repost{}, &models.Comment{}, &models.PostTag{}} {
			if err := tx.Where("post_id = ?", postID).Delete(m).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.RespondNotFound(c, "post")
			return
		}
		logger.ErrorWithFields("failed to delete post", err)
		util.RespondInternalError(c, "failed to delete post")
		return
	}

	logger.Log.Info("post deleted", logger.WithUserID(userID), logger.WithPostID(postID))
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// ListUserPosts returns a user's published posts, newest first. The author
// sees their drafts too.
// GET /api/v1/users/:username/posts
func (h *Handlers) ListUserPosts(c *gin.Context) {
	username := c.Param("username")
	viewerID := util.ViewerIDFromContext(c)
	limit := util.ClampLimit(util.ParseInt(c.Query("limit"), 20), 20, 100)
	offset := util.ParseInt(c.Query("offset"), 0)

	var author models.Profile
	if err := database.DB.First(&author, "username = ?", username).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.RespondNotFound(c, "user")
			return
		}
		logger.ErrorWithFields("failed to load user", err)
		util.RespondInternalError(c, "failed to load posts")
		return
	}

	query := database.DB.Preload("Author").Preload("Category").
		Where("author_id = ?", author.ID).
		Order("created_at DESC").
		Limit(limit).Offset(offset)
	if viewerID != author.ID {
		query = query.Where("published = ?", true)
	}

	var posts []models.Post
	if err := query.Find(&posts).Error; err != nil {
		logger.ErrorWithFields("failed to load posts", err)
		util.RespondInternalError(c, "failed to load posts")
		return
	}
	for i := range posts {
		loadTags(database.DB, &posts[i])
	}

	c.JSON(http.StatusOK, gin.H{"posts": posts, "count": len(posts)})
}

func (h *Handlers) categoryExists(c *gin.Context, categoryID string) bool {
	var n int64
	if err := database.DB.Model(&models.Category{}).Where("id = ?", categoryID).Count(&n).Error; err != nil {
		logger.ErrorWithFields("failed to check category", err)
		util.RespondInternalError(c, "failed to check category")
		return false
	}
	if n == 0 {
		util.RespondValidationError(c, "category_id", "category does not exist")
		return false
	}
	return true
}

// replacePostTags swaps the post's tag set for the given names, creating
// tag rows on first use.
func replacePostTags(tx *gorm.DB, post *models.Post, names []string) error {
	if err := tx.Where("post_id = ?", post.ID).Delete(&models.PostTag{}).Error; err != nil {
		return err
	}
	seen := map[string]bool{}
	for _, name := range names {
		slug := util.Slugify(name)
		if slug == "" || seen[slug] {
			continue
		}
		seen[slug] = true

		var tag models.Tag
		err := tx.Where("slug = ?", slug).First(&tag).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			tag = models.Tag{Name: name, Slug: slug}
			err = tx.Create(&tag).Error
		}
		if err != nil {
			return err
		}
		if err := tx.Create(&models.PostTag{PostID: post.ID, TagID: tag.ID}).Error; err != nil {
			return err
		}
	}
	return nil
}

func loadTags(db *gorm.DB, post *models.Post) {
	var tags []models.Tag
	err := db.Joins("JOIN post_tags ON post_tags.tag_id = tags.id").
		Where("post_tags.post_id = ?", post.ID).
		Order("tags.slug ASC").
		Find(&tags).Error
	if err != nil {
		logger.ErrorWithFields("failed to load tags", err)
		return
	}
	post.Tags = tags
}
