// Package engagement is the ledger of like and repost actions and the
// source of per-post engagement state. Counts are never stored on the post
// row; they are recomputed from the underlying rows on every read so they
// cannot drift.
package engagement

import (
	"context"
	"errors"
	"fmt"

	"github.com/quillfeed/quillfeed/internal/models"
	"gorm.io/gorm"
)

var (
	ErrPostNotFound  = errors.New("post not found")
	ErrAlreadyLiked  = errors.New("post already liked")
	ErrAlreadyRepost = errors.New("post already reposted")
)

// State is the engagement snapshot for one post as seen by one viewer.
// The viewer flags are false for anonymous viewers.
type State struct {
	LikeCount    int64 `json:"like_count"`
	RepostCount  int64 `json:"repost_count"`
	CommentCount int64 `json:"comment_count"`
	UserLiked    bool  `json:"user_liked"`
	UserReposted bool  `json:"user_reposted"`
}

// Service records engagement actions and computes state
type Service struct {
	db *gorm.DB
}

// NewService creates a new engagement service
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Like records a like for (postID, userID) and returns the new like count.
// The post must exist and be published. There is no transaction across the
// existence check and the insert; the composite unique index on likes is
// the backstop for concurrent calls.
func (s *Service) Like(ctx context.Context, postID, userID string) (int64, error) {
	if err := s.requirePublishedPost(ctx, postID); err != nil {
		return 0, err
	}

	var existing models.Like
	err := s.db.WithContext(ctx).
		Where("post_id = ? AND user_id = ?", postID, userID).
		First(&existing).Error
	if err == nil {
		return 0, ErrAlreadyLiked
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, fmt.Errorf("failed to check like: %w", err)
	}

	like := models.Like{PostID: postID, UserID: userID}
	if err := s.db.WithContext(ctx).Create(&like).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return 0, ErrAlreadyLiked
		}
		return 0, fmt.Errorf("failed to create like: %w", err)
	}

	return s.countRows(ctx, &models.Like{}, postID)
}

// Unlike removes the like for (postID, userID) if present and returns the
// new like count. Removing an absent like is a no-op, not an error.
func (s *Service) Unlike(ctx context.Context, postID, userID string) (int64, error) {
	err := s.db.WithContext(ctx).
		Where("post_id = ? AND user_id = ?", postID, userID).
		Delete(&models.Like{}).Error
	if err != nil {
		return 0, fmt.Errorf("failed to delete like: %w", err)
	}

	return s.countRows(ctx, &models.Like{}, postID)
}

// Repost records a repost for (postID, userID), optionally with quote text,
// and returns the new repost count. Same contract as Like.
func (s *Service) Repost(ctx context.Context, postID, userID, quote string) (int64, error) {
	if err := s.requirePublishedPost(ctx, postID); err != nil {
		return 0, err
	}

	var existing models.Repost
	err := s.db.WithContext(ctx).
		Where("post_id = ? AND user_id = ?", postID, userID).
		First(&existing).Error
	if err == nil {
		return 0, ErrAlreadyRepost
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, fmt.Errorf("failed to check repost: %w", err)
	}

	repost := models.Repost{PostID: postID, UserID: userID, Content: quote}
	if err := s.db.WithContext(ctx).Create(&repost).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return 0, ErrAlreadyRepost
		}
		return 0, fmt.Errorf("failed to create repost: %w", err)
	}

	return s.countRows(ctx, &models.Repost{}, postID)
}

// Unrepost removes the repost for (postID, userID) if present. Idempotent.
func (s *Service) Unrepost(ctx context.Context, postID, userID string) (int64, error) {
	err := s.db.WithContext(ctx).
		Where("post_id = ? AND user_id = ?", postID, userID).
		Delete(&models.Repost{}).Error
	if err != nil {
		return 0, fmt.Errorf("failed to delete repost: %w", err)
	}

	return s.countRows(ctx, &models.Repost{}, postID)
}

// State computes the engagement snapshot for a single post. The post must
// exist and be published, else ErrPostNotFound. viewerID may be empty for
// anonymous viewers.
func (s *Service) State(ctx context.Context, postID, viewerID string) (*State, error) {
	if err := s.requirePublishedPost(ctx, postID); err != nil {
		return nil, err
	}

	states, err := s.StateForPosts(ctx, []string{postID}, viewerID)
	if err != nil {
		return nil, err
	}
	st := states[postID]
	if st == nil {
		st = &State{}
	}
	return st, nil
}

// StateForPosts computes engagement state for a page of posts with a
// constant number of grouped queries: one count query per entity plus two
// membership probes for the viewer, instead of per-post row fetches.
func (s *Service) StateForPosts(ctx context.Context, postIDs []string, viewerID string) (map[string]*State, error) {
	states := make(map[string]*State, len(postIDs))
	for _, id := range postIDs {
		states[id] = &State{}
	}
	if len(postIDs) == 0 {
		return states, nil
	}

	type countRow struct {
		PostID string
		N      int64
	}

	grouped := func(model interface{}, dest *[]countRow) error {
		return s.db.WithContext(ctx).Model(model).
			Select("post_id, COUNT(*) AS n").
			Where("post_id IN ?", postIDs).
			Group("post_id").
			Scan(dest).Error
	}

	var likeCounts, repostCounts, commentCounts []countRow
	if err := grouped(&models.Like{}, &likeCounts); err != nil {
		return nil, fmt.Errorf("failed to count likes: %w", err)
	}
	if err := grouped(&models.Repost{}, &repostCounts); err != nil {
		return nil, fmt.Errorf("failed to count reposts: %w", err)
	}
	if err := grouped(&models.Comment{}, &commentCounts); err != nil {
		return nil, fmt.Errorf("failed to count comments: %w", err)
	}

	for _, row := range likeCounts {
		states[row.PostID].LikeCount = row.N
	}
	for _, row := range repostCounts {
		states[row.PostID].RepostCount = row.N
	}
	for _, row := range commentCounts {
		states[row.PostID].CommentCount = row.N
	}

	if viewerID != "" {
		var likedIDs []string
		err := s.db.WithContext(ctx).Model(&models.Like{}).
			Where("user_id = ? AND post_id IN ?", viewerID, postIDs).
			Pluck("post_id", &likedIDs).Error
		if err != nil {
			return nil, fmt.Errorf("failed to probe likes: %w", err)
		}
		for _, id := range likedIDs {
			states[id].UserLiked = true
		}

		var repostedIDs []string
		err = s.db.WithContext(ctx).Model(&models.Repost{}).
			Where("user_id = ? AND post_id IN ?", viewerID, postIDs).
			Pluck("post_id", &repostedIDs).Error
		if err != nil {
			return nil, fmt.Errorf("failed to probe reposts: %w", err)
		}
		for _, id := range repostedIDs {
			states[id].UserReposted = true
		}
	}

	return states, nil
}

// requirePublishedPost verifies the target post exists and is published.
func (s *Service) requirePublishedPost(ctx context.Context, postID string) error {
	var post models.Post
	err := s.db.WithContext(ctx).
		Select("id").
		Where("id = ? AND published = ?", postID, true).
		First(&post).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrPostNotFound
	} else if err != nil {
		return fmt.Errorf("failed to load post: %w", err)
	}
	return nil
}

func (s *Service) countRows(ctx context.Context, model interface{}, postID string) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(model).
		Where("post_id = ?", postID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count rows: %w", err)
	}
	return count, nil
}
