// Package threads stores flat comment rows and reconstructs the two-level
// (root + replies) tree shown on a post detail page.
package threads

import (
	"context"
	"errors"
	"fmt"

	"github.com/quillfeed/quillfeed/internal/models"
	"gorm.io/gorm"
)

var (
	ErrPostNotFound    = errors.New("post not found")
	ErrCommentNotFound = errors.New("comment not found or unauthorized")
	ErrEmptyContent    = errors.New("content is required")
	ErrParentMismatch  = errors.New("parent comment does not belong to this post")
)

// Thread is one root comment with its attached replies.
type Thread struct {
	models.Comment
	Replies []models.Comment `json:"replies"`
}

// Service manages comment rows for posts
type Service struct {
	db *gorm.DB
}

// NewService creates a new comment thread service
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// PostComment creates a comment on a published post, optionally as a reply.
// A parent comment must belong to the same post. The returned comment has
// its author profile loaded.
func (s *Service) PostComment(ctx context.Context, postID, userID, content string, parentID *string) (*models.Comment, error) {
	if content == "" {
		return nil, ErrEmptyContent
	}

	var post models.Post
	err := s.db.WithContext(ctx).
		Select("id").
		Where("id = ? AND published = ?", postID, true).
		First(&post).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPostNotFound
	} else if err != nil {
		return nil, fmt.Errorf("failed to load post: %w", err)
	}

	if parentID != nil && *parentID != "" {
		var parent models.Comment
		err := s.db.WithContext(ctx).
			Where("id = ? AND post_id = ?", *parentID, postID).
			First(&parent).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrParentMismatch
		} else if err != nil {
			return nil, fmt.Errorf("failed to load parent comment: %w", err)
		}
	} else {
		parentID = nil
	}

	comment := models.Comment{
		PostID:   postID,
		UserID:   userID,
		Content:  content,
		ParentID: parentID,
	}
	if err := s.db.WithContext(ctx).Create(&comment).Error; err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}

	if err := s.db.WithContext(ctx).Preload("User").First(&comment, "id = ?", comment.ID).Error; err != nil {
		return nil, fmt.Errorf("failed to reload comment: %w", err)
	}

	return &comment, nil
}

// UpdateComment rewrites a comment's content. Ownership is enforced as a
// combined id+user filter, so a mismatch reads as "not found or
// unauthorized" without confirming the row exists.
func (s *Service) UpdateComment(ctx context.Context, commentID, userID, content string) (*models.Comment, error) {
	if content == "" {
		return nil, ErrEmptyContent
	}

	result := s.db.WithContext(ctx).Model(&models.Comment{}).
		Where("id = ? AND user_id = ?", commentID, userID).
		Update("content", content)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to update comment: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrCommentNotFound
	}

	var comment models.Comment
	if err := s.db.WithContext(ctx).Preload("User").First(&comment, "id = ?", commentID).Error; err != nil {
		return nil, fmt.Errorf("failed to reload comment: %w", err)
	}
	return &comment, nil
}

// DeleteComment removes a comment under the same combined ownership filter
// as UpdateComment.
func (s *Service) DeleteComment(ctx context.Context, commentID, userID string) error {
	result := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", commentID, userID).
		Delete(&models.Comment{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete comment: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrCommentNotFound
	}
	return nil
}

// ListThread fetches all comments for a post ordered by creation time and
// assembles the two-level display tree.
func (s *Service) ListThread(ctx context.Context, postID string) ([]Thread, error) {
	var post models.Post
	err := s.db.WithContext(ctx).
		Select("id").
		Where("id = ? AND published = ?", postID, true).
		First(&post).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPostNotFound
	} else if err != nil {
		return nil, fmt.Errorf("failed to load post: %w", err)
	}

	var comments []models.Comment
	err = s.db.WithContext(ctx).
		Preload("User").
		Where("post_id = ?", postID).
		Order("created_at ASC").
		Find(&comments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}

	return Build(comments), nil
}

// Build partitions flat comment rows into root threads with reply lists.
// Input order is preserved, so rows fetched created_at ASC yield roots and
// replies both in chronological order. A reply whose parent is itself a
// reply attaches to no root and is dropped from display; threading is
// deliberately two levels deep.
func Build(comments []models.Comment) []Thread {
	rootIndex := make(map[string]int)
	threads := make([]Thread, 0, len(comments))

	for _, c := range comments {
		if c.ParentID == nil {
			rootIndex[c.ID] = len(threads)
			threads = append(threads, Thread{Comment: c, Replies: []models.Comment{}})
		}
	}

	for _, c := range comments {
		if c.ParentID == nil {
			continue
		}
		if i, ok := rootIndex[*c.ParentID]; ok {
			threads[i].Replies = append(threads[i].Replies, c)
		}
	}

	return threads
}
