// Package feed selects pages of published posts and decorates each with
// author, category, tags, engagement state, and the viewer's relationship
// to the author.
package feed

import (
	"context"
	"fmt"
	"sync"

	"github.com/quillfeed/quillfeed/internal/engagement"
	"github.com/quillfeed/quillfeed/internal/models"
	"github.com/quillfeed/quillfeed/internal/social"
	"gorm.io/gorm"
)

// Item is one view-ready feed entry.
type Item struct {
	models.Post
	LikeCount     int64 `json:"like_count"`
	RepostCount   int64 `json:"repost_count"`
	CommentCount  int64 `json:"comment_count"`
	UserLiked     bool  `json:"user_liked"`
	UserReposted  bool  `json:"user_reposted"`
	UserFollowing bool  `json:"user_following"`
}

// Service composes feeds out of the post table and the engagement and
// social services.
type Service struct {
	db         *gorm.DB
	engagement *engagement.Service
	social     *social.Service
}

// NewService creates a new feed service
func NewService(db *gorm.DB, engagementSvc *engagement.Service, socialSvc *social.Service) *Service {
	return &Service{
		db:         db,
		engagement: engagementSvc,
		social:     socialSvc,
	}
}

// Global returns the newest published posts from every author, decorated
// for the viewer. viewerID may be empty.
func (s *Service) Global(ctx context.Context, viewerID string, limit int) ([]Item, error) {
	return s.compose(ctx, viewerID, limit, nil)
}

// Following restricts the global feed to authors the viewer follows. A
// viewer who follows nobody gets an explicit empty feed, not an error.
func (s *Service) Following(ctx context.Context, viewerID string, limit int) ([]Item, error) {
	followedIDs, err := s.social.FollowedIDs(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	if len(followedIDs) == 0 {
		return []Item{}, nil
	}
	return s.compose(ctx, viewerID, limit, followedIDs)
}

// compose runs the feed query and the decoration fan-out. The three
// decoration lookups (engagement states, follow membership, tags) run
// concurrently; results are keyed by post and author ID, never by
// completion order.
func (s *Service) compose(ctx context.Context, viewerID string, limit int, authorIDs []string) ([]Item, error) {
	query := s.db.WithContext(ctx).
		Preload("Author").
		Preload("Category").
		Where("published = ?", true).
		Order("created_at DESC").
		Limit(limit)
	if authorIDs != nil {
		query = query.Where("author_id IN ?", authorIDs)
	}

	var posts []models.Post
	if err := query.Find(&posts).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch posts: %w", err)
	}
	if len(posts) == 0 {
		return []Item{}, nil
	}

	postIDs := make([]string, len(posts))
	feedAuthorIDs := make([]string, len(posts))
	for i, p := range posts {
		postIDs[i] = p.ID
		feedAuthorIDs[i] = p.AuthorID
	}

	var (
		wg        sync.WaitGroup
		states    map[string]*engagement.State
		following map[string]bool
		postTags  map[string][]models.Tag
		errs      [3]error
	)

	wg.Add(3)
	go func() {
		defer wg.Done()
		states, errs[0] = s.engagement.StateForPosts(ctx, postIDs, viewerID)
	}()
	go func() {
		defer wg.Done()
		following, errs[1] = s.social.FollowingSet(ctx, viewerID, feedAuthorIDs)
	}()
	go func() {
		defer wg.Done()
		postTags, errs[2] = s.tagsForPosts(ctx, postIDs)
	}()
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	items := make([]Item, len(posts))
	for i, p := range posts {
		p.Tags = postTags[p.ID]
		item := Item{Post: p}
		if st := states[p.ID]; st != nil {
			item.LikeCount = st.LikeCount
			item.RepostCount = st.RepostCount
			item.CommentCount = st.CommentCount
			item.UserLiked = st.UserLiked
			item.UserReposted = st.UserReposted
		}
		// Own posts never show as followed
		if p.AuthorID != viewerID {
			item.UserFollowing = following[p.AuthorID]
		}
		items[i] = item
	}

	return items, nil
}

// tagsForPosts loads tags for a page of posts through post_tags in one
// join query.
func (s *Service) tagsForPosts(ctx context.Context, postIDs []string) (map[string][]models.Tag, error) {
	type taggedRow struct {
		PostID string
		models.Tag
	}

	var rows []taggedRow
	err := s.db.WithContext(ctx).
		Table("post_tags").
		Select("post_tags.post_id, tags.*").
		Joins("JOIN tags ON tags.id = post_tags.tag_id").
		Where("post_tags.post_id IN ?", postIDs).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load tags: %w", err)
	}

	tags := make(map[string][]models.Tag, len(postIDs))
	for _, row := range rows {
		tags[row.PostID] = append(tags[row.PostID], row.Tag)
	}
	return tags, nil
}
