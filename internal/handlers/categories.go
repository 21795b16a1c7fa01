package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/quillfeed/quillfeed/internal/database"
	"github.com/quillfeed/quillfeed/internal/logger"
	"github.com/quillfeed/quillfeed/internal/models"
	"github.com/quillfeed/quillfeed/internal/util"
	"gorm.io/gorm"
)

// CreateCategoryRequest is the body for creating a category
type CreateCategoryRequest struct {
	Name        string `json:"name" binding:"required,max=60"`
	Description string `json:"description" binding:"omitempty,max=200"`
}

// ListCategories returns all categories ordered by name
// GET /api/v1/categories
func (h *Handlers) ListCategories(c *gin.Context) {
	var categories []models.Category
	if err := database.DB.Order("name ASC").Find(&categories).Error; err != nil {
		logger.ErrorWithFields("failed to load categories", err)
		util.RespondInternalError(c, "failed to load categories")
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": categories, "count": len(categories)})
}

// CreateCategory creates a category. Slug collisions are conflicts.
// POST /api/v1/categories
func (h *Handlers) CreateCategory(c *gin.Context) {
	if _, ok := util.GetUserIDFromContext(c); !ok {
		return
	}

	var req CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	name := strings.TrimSpace(req.Name)
	slug := util.Slugify(name)
	if slug == "" {
		util.RespondValidationError(c, "name", "name must contain letters or digits")
		return
	}

	var existing models.Category
	err := database.DB.Where("slug = ?", slug).First(&existing).Error
	if err == nil {
		util.RespondConflict(c, "category")
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		logger.ErrorWithFields("failed to check category", err)
		util.RespondInternalError(c, "failed to create category")
		return
	}

	category := models.Category{Name: name, Slug: slug, Description: req.Description}
	if err := database.DB.Create(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			util.RespondConflict(c, "category")
			return
		}
		logger.ErrorWithFields("failed to create category", err)
		util.RespondInternalError(c, "failed to create category")
		return
	}

	c.JSON(http.StatusCreated, category)
}

// ListCategoryPosts returns the published posts in a category, newest first
// GET /api/v1/categories/:slug/posts
func (h *Handlers) ListCategoryPosts(c *gin.Context) {
	slug := c.Param("slug")
	limit := util.ClampLimit(util.ParseInt(c.Query("limit"), 20), 20, 100)
	offset := util.ParseInt(c.Query("offset"), 0)

	var category models.Category
	if err := database.DB.First(&category, "slug = ?", slug).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.RespondNotFound(c, "category")
			return
		}
		logger.ErrorWithFields("failed to load category", err)
		util.RespondInternalError(c, "failed to load posts")
		return
	}

	var posts []models.Post
	err := database.DB.Preload("Author").Preload("Category").
		Where("category_id = ? AND published = ?", category.ID, true).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&posts).Error
	if err != nil {
		logger.ErrorWithFields("failed to load posts", err)
		util.RespondInternalError(c, "failed to load posts")
		return
	}
	for i := range posts {
		loadTags(database.DB, &posts[i])
	}

	c.JSON(http.StatusOK, gin.H{"category": category, "posts": posts, "count": len(posts)})
}
