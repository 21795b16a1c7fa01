package seed

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/quillfeed/quillfeed/internal/logger"
	"github.com/quillfeed/quillfeed/internal/models"
	"github.com/quillfeed/quillfeed/internal/util"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Seeder handles database seeding operations
type Seeder struct {
	db *gorm.DB
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB) *Seeder {
	_ = gofakeit.Seed(time.Now().UnixNano())
	return &Seeder{db: db}
}

var categoryNames = []string{
	"Technology", "Travel", "Food", "Writing", "Science",
	"Music", "Design", "Personal",
}

var tagPool = []string{
	"golang", "opinion", "tutorial", "review", "essay",
	"photography", "productivity", "books", "history", "ai",
}

// SeedDev seeds the development database with realistic data
func (s *Seeder) SeedDev() error {
	return s.seed(50, 200, 400)
}

// SeedTest seeds a minimal data set for manual testing
func (s *Seeder) SeedTest() error {
	return s.seed(5, 15, 30)
}

func (s *Seeder) seed(userCount, postCount, commentCount int) error {
	logger.Log.Info("creating categories...")
	categories, err := s.seedCategories()
	if err != nil {
		return fmt.Errorf("failed to seed categories: %w", err)
	}

	logger.Log.Info("creating users...")
	users, err := s.seedUsers(userCount)
	if err != nil {
		return fmt.Errorf("failed to seed users: %w", err)
	}

	logger.Log.Info("creating posts...")
	posts, err := s.seedPosts(users, categories, postCount)
	if err != nil {
		return fmt.Errorf("failed to seed posts: %w", err)
	}

	logger.Log.Info("creating follows...")
	if err := s.seedFollows(users); err != nil {
		return fmt.Errorf("failed to seed follows: %w", err)
	}

	logger.Log.Info("creating likes and reposts...")
	if err := s.seedEngagement(users, posts); err != nil {
		return fmt.Errorf("failed to seed engagement: %w", err)
	}

	logger.Log.Info("creating comments...")
	if err := s.seedComments(users, posts, commentCount); err != nil {
		return fmt.Errorf("failed to seed comments: %w", err)
	}

	return nil
}

func (s *Seeder) seedCategories() ([]models.Category, error) {
	categories := make([]models.Category, 0, len(categoryNames))
	for _, name := range categoryNames {
		category := models.Category{
			Name:        name,
			Slug:        util.Slugify(name),
			Description: gofakeit.Sentence(8),
		}
		if err := s.db.Where("slug = ?", category.Slug).FirstOrCreate(&category).Error; err != nil {
			return nil, err
		}
		categories = append(categories, category)
	}
	return categories, nil
}

func (s *Seeder) seedUsers(count int) ([]models.Profile, error) {
	// All seed accounts share one password to keep manual testing simple
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	users := make([]models.Profile, 0, count)
	for i := 0; i < count; i++ {
		username := strings.ToLower(gofakeit.Username())
		email := gofakeit.Email()

		var existing int64
		s.db.Model(&models.Profile{}).
			Where("username = ? OR email = ?", username, email).
			Count(&existing)
		if existing > 0 {
			continue
		}

		user := models.Profile{
			Username:     username,
			Email:        email,
			DisplayName:  gofakeit.Name(),
			Bio:          gofakeit.HipsterSentence(),
			Location:     fmt.Sprintf("%s, %s", gofakeit.City(), gofakeit.Country()),
			WebsiteURL:   gofakeit.URL(),
			PasswordHash: string(hash),
		}
		if err := s.db.Create(&user).Error; err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, nil
}

func (s *Seeder) seedPosts(users []models.Profile, categories []models.Category, count int) ([]models.Post, error) {
	posts := make([]models.Post, 0, count)
	for i := 0; i < count; i++ {
		author := users[rand.Intn(len(users))]

		paragraphs := gofakeit.Paragraph(3+rand.Intn(4), 3, 12, "\n\n")
		post := models.Post{
			Title:     gofakeit.Sentence(4 + rand.Intn(5)),
			Content:   paragraphs,
			Excerpt:   util.Excerpt(paragraphs),
			AuthorID:  author.ID,
			Published: rand.Float32() < 0.85,
		}
		if rand.Float32() < 0.7 {
			category := categories[rand.Intn(len(categories))]
			post.CategoryID = &category.ID
		}
		if err := s.db.Create(&post).Error; err != nil {
			return nil, err
		}

		if err := s.seedPostTags(&post); err != nil {
			return nil, err
		}

		// Spread creation dates over the last month so feeds look lived-in
		createdAt := gofakeit.DateRange(time.Now().AddDate(0, -1, 0), time.Now())
		s.db.Model(&post).UpdateColumn("created_at", createdAt)

		posts = append(posts, post)
	}
	return posts, nil
}

func (s *Seeder) seedPostTags(post *models.Post) error {
	n := rand.Intn(4)
	picked := map[string]bool{}
	for i := 0; i < n; i++ {
		name := tagPool[rand.Intn(len(tagPool))]
		if picked[name] {
			continue
		}
		picked[name] = true

		tag := models.Tag{Name: name, Slug: util.Slugify(name)}
		if err := s.db.Where("slug = ?", tag.Slug).FirstOrCreate(&tag).Error; err != nil {
			return err
		}
		link := models.PostTag{PostID: post.ID, TagID: tag.ID}
		if err := s.db.Where("post_id = ? AND tag_id = ?", post.ID, tag.ID).FirstOrCreate(&link).Error; err != nil {
			return err
		}
	}
	return nil
}

func (s *Seeder) seedFollows(users []models.Profile) error {
	for _, follower := range users {
		n := rand.Intn(len(users)/2 + 1)
		for i := 0; i < n; i++ {
			followed := users[rand.Intn(len(users))]
			if followed.ID == follower.ID {
				continue
			}
			follow := models.Follow{FollowerID: follower.ID, FollowedID: followed.ID}
			err := s.db.Where("follower_id = ? AND followed_id = ?", follower.ID, followed.ID).
				FirstOrCreate(&follow).Error
			if err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Seeder) seedEngagement(users []models.Profile, posts []models.Post) error {
	for _, post := range posts {
		if !post.Published {
			continue
		}
		likers := rand.Intn(len(users)/2 + 1)
		for i := 0; i < likers; i++ {
			user := users[rand.Intn(len(users))]
			like := models.Like{PostID: post.ID, UserID: user.ID}
			err := s.db.Where("post_id = ? AND user_id = ?", post.ID, user.ID).
				FirstOrCreate(&like).Error
			if err != nil {
				return err
			}
		}

		reposters := rand.Intn(len(users)/5 + 1)
		for i := 0; i < reposters; i++ {
			user := users[rand.Intn(len(users))]
			repost := models.Repost{PostID: post.ID, UserID: user.ID}
			if rand.Float32() < 0.3 {
				repost.Content = gofakeit.Sentence(6)
			}
			err := s.db.Where("post_id = ? AND user_id = ?", post.ID, user.ID).
				FirstOrCreate(&repost).Error
			if err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Seeder) seedComments(users []models.Profile, posts []models.Post, count int) error {
	published := make([]models.Post, 0, len(posts))
	for _, p := range posts {
		if p.Published {
			published = append(published, p)
		}
	}
	if len(published) == 0 {
		return nil
	}

	var roots []models.Comment
	for i := 0; i < count; i++ {
		user := users[rand.Intn(len(users))]
		post := published[rand.Intn(len(published))]

		comment := models.Comment{
			PostID:  post.ID,
			UserID:  user.ID,
			Content: gofakeit.HipsterSentence(),
		}
		// Roughly a third of comments reply to an earlier root
		if len(roots) > 0 && rand.Float32() < 0.35 {
			parent := roots[rand.Intn(len(roots))]
			comment.PostID = parent.PostID
			comment.ParentID = &parent.ID
		}
		if err := s.db.Create(&comment).Error; err != nil {
			return err
		}
		if comment.ParentID == nil {
			roots = append(roots, comment)
		}
	}
	return nil
}

// Clean removes all seeded rows. Intended for development databases only.
func (s *Seeder) Clean() error {
	tables := []interface{}{
		&models.Comment{}, &models.Like{}, &models.Repost{},
		&models.PostTag{}, &models.Tag{}, &models.Post{},
		&models.Follow{}, &models.Category{}, &models.Profile{},
	}
	for _, table := range tables {
		if err := s.db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(table).Error; err != nil {
			return err
		}
	}
	return nil
}
