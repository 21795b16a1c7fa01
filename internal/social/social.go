// Package social maintains the directed follow graph between profiles and
// answers relationship queries for a viewer. Follower and following counts
// are recomputed from edge rows on every read.
package social

import (
	"context"
	"errors"
	"fmt"

	"github.com/quillfeed/quillfeed/internal/models"
	"gorm.io/gorm"
)

var (
	ErrSelfFollow       = errors.New("cannot follow yourself")
	ErrUserNotFound     = errors.New("user not found")
	ErrAlreadyFollowing = errors.New("already following this user")
)

// Relationship is the social-graph snapshot for one profile as seen by one
// viewer. IsFollowing is false when the viewer is absent or is the subject.
type Relationship struct {
	FollowerCount  int64 `json:"follower_count"`
	FollowingCount int64 `json:"following_count"`
	IsFollowing    bool  `json:"is_following"`
}

// Service maintains follow edges
type Service struct {
	db *gorm.DB
}

// NewService creates a new social graph service
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Follow inserts the follower -> followed edge. The self-follow check runs
// before any existence lookup, so following yourself fails the same way
// whether or not the profile exists.
func (s *Service) Follow(ctx context.Context, followerID, followedID string) (*models.Follow, error) {
	if followerID == followedID {
		return nil, ErrSelfFollow
	}

	var target models.Profile
	err := s.db.WithContext(ctx).Select("id").Where("id = ?", followedID).First(&target).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	} else if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}

	var existing models.Follow
	err = s.db.WithContext(ctx).
		Where("follower_id = ? AND followed_id = ?", followerID, followedID).
		First(&existing).Error
	if err == nil {
		return nil, ErrAlreadyFollowing
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check follow: %w", err)
	}

	follow := models.Follow{FollowerID: followerID, FollowedID: followedID}
	if err := s.db.WithContext(ctx).Create(&follow).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrAlreadyFollowing
		}
		return nil, fmt.Errorf("failed to create follow: %w", err)
	}

	return &follow, nil
}

// Unfollow deletes the follower -> followed edge if present. Idempotent.
func (s *Service) Unfollow(ctx context.Context, followerID, followedID string) error {
	err := s.db.WithContext(ctx).
		Where("follower_id = ? AND followed_id = ?", followerID, followedID).
		Delete(&models.Follow{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete follow: %w", err)
	}
	return nil
}

// Relationship computes the graph snapshot for subjectID. viewerID may be
// empty for anonymous viewers.
func (s *Service) Relationship(ctx context.Context, viewerID, subjectID string) (*Relationship, error) {
	rel := &Relationship{}

	err := s.db.WithContext(ctx).Model(&models.Follow{}).
		Where("followed_id = ?", subjectID).
		Count(&rel.FollowerCount).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count followers: %w", err)
	}

	err = s.db.WithContext(ctx).Model(&models.Follow{}).
		Where("follower_id = ?", subjectID).
		Count(&rel.FollowingCount).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count following: %w", err)
	}

	if viewerID != "" && viewerID != subjectID {
		var edge models.Follow
		err = s.db.WithContext(ctx).
			Where("follower_id = ? AND followed_id = ?", viewerID, subjectID).
			First(&edge).Error
		if err == nil {
			rel.IsFollowing = true
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to check follow: %w", err)
		}
	}

	return rel, nil
}

// FollowedIDs returns the IDs of every profile the user follows.
func (s *Service) FollowedIDs(ctx context.Context, userID string) ([]string, error) {
	var ids []string
	err := s.db.WithContext(ctx).Model(&models.Follow{}).
		Where("follower_id = ?", userID).
		Pluck("followed_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list followed IDs: %w", err)
	}
	return ids, nil
}

// FollowingSet returns, out of subjectIDs, the subset the viewer follows.
// Used to decorate a feed page with one membership query.
func (s *Service) FollowingSet(ctx context.Context, viewerID string, subjectIDs []string) (map[string]bool, error) {
	set := make(map[string]bool)
	if viewerID == "" || len(subjectIDs) == 0 {
		return set, nil
	}

	var ids []string
	err := s.db.WithContext(ctx).Model(&models.Follow{}).
		Where("follower_id = ? AND followed_id IN ?", viewerID, subjectIDs).
		Pluck("followed_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to probe follows: %w", err)
	}
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}

// Followers lists the profiles following subjectID, newest edge first.
func (s *Service) Followers(ctx context.Context, subjectID string, limit, offset int) ([]models.Follow, error) {
	var follows []models.Follow
	err := s.db.WithContext(ctx).
		Preload("Follower").
		Where("followed_id = ?", subjectID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&follows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list followers: %w", err)
	}
	return follows, nil
}

// Following lists the profiles subjectID follows, newest edge first.
func (s *Service) Following(ctx context.Context, subjectID string, limit, offset int) ([]models.Follow, error) {
	var follows []models.Follow
	err := s.db.WithContext(ctx).
		Preload("Followed").
		Where("follower_id = ?", subjectID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&follows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list following: %w", err)
	}
	return follows, nil
}
