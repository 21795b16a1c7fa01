package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/quillfeed/quillfeed/internal/database"
	"github.com/quillfeed/quillfeed/internal/engagement"
	"github.com/quillfeed/quillfeed/internal/feed"
	"github.com/quillfeed/quillfeed/internal/logger"
	"github.com/quillfeed/quillfeed/internal/models"
	"github.com/quillfeed/quillfeed/internal/social"
	"github.com/quillfeed/quillfeed/internal/threads"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// APITestSuite exercises the HTTP surface against an in-memory database
type APITestSuite struct {
	suite.Suite
	db       *gorm.DB
	router   *gin.Engine
	handlers *Handlers
	author   *models.Profile
	reader   *models.Profile
}

func (suite *APITestSuite) SetupSuite() {
	require.NoError(suite.T(), logger.Initialize("error", suite.T().TempDir()+"/test.log"))
	gin.SetMode(gin.TestMode)
}

// SetupTest builds a fresh database, router, and fixture rows per test
func (suite *APITestSuite) SetupTest() {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		TranslateError:                           true,
		Logger:                                   gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(suite.T(), err)

	require.NoError(suite.T(), db.AutoMigrate(
		&models.Profile{}, &models.Post{}, &models.Category{},
		&models.Tag{}, &models.PostTag{},
		&models.Like{}, &models.Repost{}, &models.Comment{},
		&models.Follow{},
	))

	suite.db = db
	database.DB = db

	engagementSvc := engagement.NewService(db)
	socialSvc := social.NewService(db)
	threadsSvc := threads.NewService(db)
	feedSvc := feed.NewService(db, engagementSvc, socialSvc)
	suite.handlers = NewHandlers(engagementSvc, socialSvc, threadsSvc, feedSvc)

	suite.router = gin.New()
	suite.setupRoutes()

	suite.author = suite.createUser("author")
	suite.reader = suite.createUser("reader")
}

// Stub auth middleware reading the identity from an X-User-ID header
func (suite *APITestSuite) setupRoutes() {
	requireAuth := func(c *gin.Context) {
		userID := c.GetHeader("X-User-ID")
		if userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}
		var user models.Profile
		if err := suite.db.First(&user, "id = ?", userID).Error; err == nil {
			c.Set("user", &user)
		}
		c.Set("user_id", userID)
		c.Next()
	}
	optionalAuth := func(c *gin.Context) {
		if userID := c.GetHeader("X-User-ID"); userID != "" {
			c.Set("user_id", userID)
		}
		c.Next()
	}

	api := suite.router.Group("/api/v1")

	feedGroup := api.Group("/feed")
	feedGroup.GET("/global", optionalAuth, suite.handlers.GetGlobalFeed)
	feedGroup.GET("/following", requireAuth, suite.handlers.GetFollowingFeed)

	posts := api.Group("/posts")
	posts.POST("", requireAuth, suite.handlers.CreatePost)
	posts.GET("/:id", optionalAuth, suite.handlers.GetPost)
	posts.PATCH("/:id", requireAuth, suite.handlers.UpdatePost)
	posts.DELETE("/:id", requireAuth, suite.handlers.DeletePost)
	posts.GET("/:id/engagement", optionalAuth, suite.handlers.GetEngagement)
	posts.POST("/:id/like", requireAuth, suite.handlers.LikePost)
	posts.DELETE("/:id/like", requireAuth, suite.handlers.UnlikePost)
	posts.POST("/:id/repost", requireAuth, suite.handlers.RepostPost)
	posts.DELETE("/:id/repost", requireAuth, suite.handlers.UnrepostPost)
	posts.POST("/:id/comments", requireAuth, suite.handlers.CreateComment)
	posts.GET("/:id/comments", suite.handlers.ListComments)

	comments := api.Group("/comments")
	comments.Use(requireAuth)
	comments.PATCH("/:id", suite.handlers.UpdateComment)
	comments.DELETE("/:id", suite.handlers.DeleteComment)

	users := api.Group("/users")
	users.PATCH("/me", requireAuth, suite.handlers.UpdateMyProfile)
	users.POST("/:id/follow", requireAuth, suite.handlers.FollowUser)
	users.DELETE("/:id/follow", requireAuth, suite.handlers.UnfollowUser)
	users.GET("/:id/relationship", optionalAuth, suite.handlers.GetRelationship)
	users.GET("/:id/followers", suite.handlers.GetFollowers)
	users.GET("/:id/following", suite.handlers.GetFollowing)

	profiles := api.Group("/profiles")
	profiles.GET("/:username", optionalAuth, suite.handlers.GetProfile)
	profiles.GET("/:username/posts", optionalAuth, suite.handlers.ListUserPosts)

	api.GET("/search/users", suite.handlers.SearchUsers)

	categories := api.Group("/categories")
	categories.GET("", suite.handlers.ListCategories)
	categories.POST("", requireAuth, suite.handlers.CreateCategory)
	categories.GET("/:slug/posts", suite.handlers.ListCategoryPosts)
}

func (suite *APITestSuite) createUser(username string) *models.Profile {
	user := &models.Profile{
		Username:     username,
		Email:        username + "@example.com",
		DisplayName:  username,
		PasswordHash: "x",
	}
	require.NoError(suite.T(), suite.db.Create(user).Error)
	return user
}

func (suite *APITestSuite) createPost(authorID string, published bool) *models.Post {
	post := &models.Post{
		Title:     "fixture post",
		Content:   "fixture body",
		AuthorID:  authorID,
		Published: published,
	}
	require.NoError(suite.T(), suite.db.Create(post).Error)
	return post
}

// request performs an HTTP call against the test router. userID of ""
// means anonymous.
func (suite *APITestSuite) request(method, path, userID string, body interface{}) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(suite.T(), err)
		reqBody = bytes.NewBuffer(b)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}

	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func (suite *APITestSuite) TestCreatePost() {
	w := suite.request("POST", "/api/v1/posts", suite.author.ID, gin.H{
		"title":     "My First Post",
		"content":   "# Heading\n\nSome *content* here.",
		"tags":      []string{"Golang", "Opinion"},
		"published": true,
	})
	require.Equal(suite.T(), http.StatusCreated, w.Code)

	body := decode(suite.T(), w)
	assert.Equal(suite.T(), "My First Post", body["title"])
	assert.Equal(suite.T(), true, body["published"])
	// Excerpt is derived with markdown stripped
	assert.Equal(suite.T(), "Heading Some content here.", body["excerpt"])
	assert.Len(suite.T(), body["tags"], 2)
}

func (suite *APITestSuite) TestCreatePostRequiresAuth() {
	w := suite.request("POST", "/api/v1/posts", "", gin.H{"title": "t", "content": "c"})
	assert.Equal(suite.T(), http.StatusUnauthorized, w.Code)
}

func (suite *APITestSuite) TestCreatePostValidation() {
	w := suite.request("POST", "/api/v1/posts", suite.author.ID, gin.H{"content": "no title"})
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)

	w = suite.request("POST", "/api/v1/posts", suite.author.ID, gin.H{
		"title": "t", "content": "c", "category_id": "no-such-category",
	})
	assert.Equal(suite.T(), http.StatusUnprocessableEntity, w.Code)
}

func (suite *APITestSuite) TestGetPostDraftVisibility() {
	draft := suite.createPost(suite.author.ID, false)

	// Anonymous and non-author viewers see nothing
	w := suite.request("GET", "/api/v1/posts/"+draft.ID, "", nil)
	assert.Equal(suite.T(), http.StatusNotFound, w.Code)
	w = suite.request("GET", "/api/v1/posts/"+draft.ID, suite.reader.ID, nil)
	assert.Equal(suite.T(), http.StatusNotFound, w.Code)

	// The author sees their draft
	w = suite.request("GET", "/api/v1/posts/"+draft.ID, suite.author.ID, nil)
	assert.Equal(suite.T(), http.StatusOK, w.Code)
}

func (suite *APITestSuite) TestUpdatePostOwnership() {
	post := suite.createPost(suite.author.ID, true)

	// A foreign post reads as not found, not forbidden
	w := suite.request("PATCH", "/api/v1/posts/"+post.ID, suite.reader.ID, gin.H{"title": "hijack"})
	assert.Equal(suite.T(), http.StatusNotFound, w.Code)

	w = suite.request("PATCH", "/api/v1/posts/"+post.ID, suite.author.ID, gin.H{"title": "renamed"})
	require.Equal(suite.T(), http.StatusOK, w.Code)
	body := decode(suite.T(), w)
	assert.Equal(suite.T(), "renamed", body["title"])
}

func (suite *APITestSuite) TestUpdatePostRederivesExcerpt() {
	post := suite.createPost(suite.author.ID, true)

	w := suite.request("PATCH", "/api/v1/posts/"+post.ID, suite.author.ID, gin.H{
		"content": "## New\n\ncontent entirely",
	})
	require.Equal(suite.T(), http.StatusOK, w.Code)
	body := decode(suite.T(), w)
	assert.Equal(suite.T(), "New content entirely", body["excerpt"])
}

func (suite *APITestSuite) TestDeletePostCascades() {
	post := suite.createPost(suite.author.ID, true)
	require.NoError(suite.T(), suite.db.Create(&models.Like{PostID: post.ID, UserID: suite.reader.ID}).Error)
	require.NoError(suite.T(), suite.db.Create(&models.Comment{PostID: post.ID, UserID: suite.reader.ID, Content: "hi"}).Error)

	w := suite.request("DELETE", "/api/v1/posts/"+post.ID, suite.reader.ID, nil)
	assert.Equal(suite.T(), http.StatusNotFound, w.Code)

	w = suite.request("DELETE", "/api/v1/posts/"+post.ID, suite.author.ID, nil)
	require.Equal(suite.T(), http.StatusOK, w.Code)

	var likes, comments int64
	suite.db.Model(&models.Like{}).Where("post_id = ?", post.ID).Count(&likes)
	suite.db.Model(&models.Comment{}).Where("post_id = ?", post.ID).Count(&comments)
	assert.Zero(suite.T(), likes)
	assert.Zero(suite.T(), comments)
}

func (suite *APITestSuite) TestLikeUnlikeFlow() {
	post := suite.createPost(suite.author.ID, true)

	w := suite.request("POST", "/api/v1/posts/"+post.ID+"/like", suite.reader.ID, nil)
	require.Equal(suite.T(), http.StatusOK, w.Code)
	body := decode(suite.T(), w)
	assert.Equal(suite.T(), float64(1), body["like_count"])

	// Double like conflicts
	w = suite.request("POST", "/api/v1/posts/"+post.ID+"/like", suite.reader.ID, nil)
	assert.Equal(suite.T(), http.StatusConflict, w.Code)

	// Unlike twice succeeds both times
	w = suite.request("DELETE", "/api/v1/posts/"+post.ID+"/like", suite.reader.ID, nil)
	assert.Equal(suite.T(), http.StatusOK, w.Code)
	w = suite.request("DELETE", "/api/v1/posts/"+post.ID+"/like", suite.reader.ID, nil)
	assert.Equal(suite.T(), http.StatusOK, w.Code)
}

func (suite *APITestSuite) TestRepostWithQuote() {
	post := suite.createPost(suite.author.ID, true)

	w := suite.request("POST", "/api/v1/posts/"+post.ID+"/repost", suite.reader.ID, gin.H{"quote": "read this"})
	require.Equal(suite.T(), http.StatusOK, w.Code)

	var repost models.Repost
	require.NoError(suite.T(), suite.db.First(&repost, "post_id = ?", post.ID).Error)
	assert.Equal(suite.T(), "read this", repost.Content)

	w = suite.request("POST", "/api/v1/posts/"+post.ID+"/repost", suite.reader.ID, nil)
	assert.Equal(suite.T(), http.StatusConflict, w.Code)
}

func (suite *APITestSuite) TestEngagementState() {
	post := suite.createPost(suite.author.ID, true)
	suite.request("POST", "/api/v1/posts/"+post.ID+"/like", suite.reader.ID, nil)

	w := suite.request("GET", "/api/v1/posts/"+post.ID+"/engagement", suite.reader.ID, nil)
	require.Equal(suite.T(), http.StatusOK, w.Code)
	body := decode(suite.T(), w)
	assert.Equal(suite.T(), float64(1), body["like_count"])
	assert.Equal(suite.T(), true, body["user_liked"])

	// Anonymous viewer sees counts with flags down
	w = suite.request("GET", "/api/v1/posts/"+post.ID+"/engagement", "", nil)
	require.Equal(suite.T(), http.StatusOK, w.Code)
	body = decode(suite.T(), w)
	assert.Equal(suite.T(), float64(1), body["like_count"])
	assert.Equal(suite.T(), false, body["user_liked"])

	// Missing and draft posts are 404, not a zero snapshot
	w = suite.request("GET", "/api/v1/posts/no-such-post/engagement", suite.reader.ID, nil)
	assert.Equal(suite.T(), http.StatusNotFound, w.Code)

	draft := suite.createPost(suite.author.ID, false)
	w = suite.request("GET", "/api/v1/posts/"+draft.ID+"/engagement", suite.reader.ID, nil)
	assert.Equal(suite.T(), http.StatusNotFound, w.Code)
}

func (suite *APITestSuite) TestCommentThreadFlow() {
	post := suite.createPost(suite.author.ID, true)

	w := suite.request("POST", "/api/v1/posts/"+post.ID+"/comments", suite.reader.ID, gin.H{"content": "root comment"})
	require.Equal(suite.T(), http.StatusCreated, w.Code)
	root := decode(suite.T(), w)
	rootID := root["id"].(string)

	w = suite.request("POST", "/api/v1/posts/"+post.ID+"/comments", suite.author.ID, gin.H{
		"content": "a reply", "parent_id": rootID,
	})
	require.Equal(suite.T(), http.StatusCreated, w.Code)

	w = suite.request("GET", "/api/v1/posts/"+post.ID+"/comments", "", nil)
	require.Equal(suite.T(), http.StatusOK, w.Code)
	body := decode(suite.T(), w)
	comments := body["comments"].([]interface{})
	require.Len(suite.T(), comments, 1)
	replies := comments[0].(map[string]interface{})["replies"].([]interface{})
	assert.Len(suite.T(), replies, 1)
}

func (suite *APITestSuite) TestCommentOwnership() {
	post := suite.createPost(suite.author.ID, true)
	w := suite.request("POST", "/api/v1/posts/"+post.ID+"/comments", suite.reader.ID, gin.H{"content": "mine"})
	require.Equal(suite.T(), http.StatusCreated, w.Code)
	commentID := decode(suite.T(), w)["id"].(string)

	w = suite.request("PATCH", "/api/v1/comments/"+commentID, suite.author.ID, gin.H{"content": "hijack"})
	assert.Equal(suite.T(), http.StatusNotFound, w.Code)

	w = suite.request("PATCH", "/api/v1/comments/"+commentID, suite.reader.ID, gin.H{"content": "edited"})
	assert.Equal(suite.T(), http.StatusOK, w.Code)

	w = suite.request("DELETE", "/api/v1/comments/"+commentID, suite.reader.ID, nil)
	assert.Equal(suite.T(), http.StatusOK, w.Code)
}

func (suite *APITestSuite) TestFollowFlow() {
	w := suite.request("POST", "/api/v1/users/"+suite.author.ID+"/follow", suite.reader.ID, nil)
	require.Equal(suite.T(), http.StatusCreated, w.Code)

	w = suite.request("POST", "/api/v1/users/"+suite.author.ID+"/follow", suite.reader.ID, nil)
	assert.Equal(suite.T(), http.StatusConflict, w.Code)

	w = suite.request("POST", "/api/v1/users/"+suite.reader.ID+"/follow", suite.reader.ID, nil)
	assert.Equal(suite.T(), http.StatusUnprocessableEntity, w.Code)

	w = suite.request("GET", "/api/v1/users/"+suite.author.ID+"/relationship", suite.reader.ID, nil)
	require.Equal(suite.T(), http.StatusOK, w.Code)
	body := decode(suite.T(), w)
	assert.Equal(suite.T(), float64(1), body["follower_count"])
	assert.Equal(suite.T(), true, body["is_following"])

	w = suite.request("GET", "/api/v1/users/"+suite.author.ID+"/followers", "", nil)
	require.Equal(suite.T(), http.StatusOK, w.Code)
	body = decode(suite.T(), w)
	assert.Equal(suite.T(), float64(1), body["count"])

	w = suite.request("DELETE", "/api/v1/users/"+suite.author.ID+"/follow", suite.reader.ID, nil)
	assert.Equal(suite.T(), http.StatusOK, w.Code)
	// Unfollow is idempotent
	w = suite.request("DELETE", "/api/v1/users/"+suite.author.ID+"/follow", suite.reader.ID, nil)
	assert.Equal(suite.T(), http.StatusOK, w.Code)
}

func (suite *APITestSuite) TestGlobalFeedEndpoint() {
	post := suite.createPost(suite.author.ID, true)
	suite.createPost(suite.author.ID, false)
	suite.request("POST", "/api/v1/posts/"+post.ID+"/like", suite.reader.ID, nil)

	w := suite.request("GET", "/api/v1/feed/global", suite.reader.ID, nil)
	require.Equal(suite.T(), http.StatusOK, w.Code)
	body := decode(suite.T(), w)
	require.Equal(suite.T(), float64(1), body["count"])
	item := body["posts"].([]interface{})[0].(map[string]interface{})
	assert.Equal(suite.T(), float64(1), item["like_count"])
	assert.Equal(suite.T(), true, item["user_liked"])
}

func (suite *APITestSuite) TestFollowingFeedEndpoint() {
	suite.createPost(suite.author.ID, true)

	// Following nobody yields an empty feed
	w := suite.request("GET", "/api/v1/feed/following", suite.reader.ID, nil)
	require.Equal(suite.T(), http.StatusOK, w.Code)
	assert.Equal(suite.T(), float64(0), decode(suite.T(), w)["count"])

	suite.request("POST", "/api/v1/users/"+suite.author.ID+"/follow", suite.reader.ID, nil)

	w = suite.request("GET", "/api/v1/feed/following", suite.reader.ID, nil)
	require.Equal(suite.T(), http.StatusOK, w.Code)
	assert.Equal(suite.T(), float64(1), decode(suite.T(), w)["count"])
}

func (suite *APITestSuite) TestProfileEndpoints() {
	w := suite.request("GET", "/api/v1/profiles/author", suite.reader.ID, nil)
	require.Equal(suite.T(), http.StatusOK, w.Code)
	body := decode(suite.T(), w)
	user := body["user"].(map[string]interface{})
	assert.Equal(suite.T(), "author", user["username"])
	// Email is never serialized
	_, hasEmail := user["email"]
	assert.False(suite.T(), hasEmail)

	w = suite.request("GET", "/api/v1/profiles/nobody", "", nil)
	assert.Equal(suite.T(), http.StatusNotFound, w.Code)
}

func (suite *APITestSuite) TestUpdateProfileValidation() {
	w := suite.request("PATCH", "/api/v1/users/me", suite.reader.ID, gin.H{
		"display_name": "Reader Person",
		"bio":          "I read things.",
		"website_url":  "https://example.com",
	})
	require.Equal(suite.T(), http.StatusOK, w.Code)
	user := decode(suite.T(), w)["user"].(map[string]interface{})
	assert.Equal(suite.T(), "Reader Person", user["display_name"])

	longBio := make([]byte, 0, 200)
	for i := 0; i < 170; i++ {
		longBio = append(longBio, 'x')
	}
	w = suite.request("PATCH", "/api/v1/users/me", suite.reader.ID, gin.H{"bio": string(longBio)})
	assert.Equal(suite.T(), http.StatusUnprocessableEntity, w.Code)

	w = suite.request("PATCH", "/api/v1/users/me", suite.reader.ID, gin.H{"website_url": "notaurl"})
	assert.Equal(suite.T(), http.StatusUnprocessableEntity, w.Code)
}

func (suite *APITestSuite) TestSearchUsers() {
	w := suite.request("GET", "/api/v1/search/users?q=read", "", nil)
	require.Equal(suite.T(), http.StatusOK, w.Code)
	assert.Equal(suite.T(), float64(1), decode(suite.T(), w)["count"])

	w = suite.request("GET", "/api/v1/search/users", "", nil)
	assert.Equal(suite.T(), http.StatusUnprocessableEntity, w.Code)
}

func (suite *APITestSuite) TestCategories() {
	w := suite.request("POST", "/api/v1/categories", suite.author.ID, gin.H{"name": "Deep Thoughts"})
	require.Equal(suite.T(), http.StatusCreated, w.Code)
	category := decode(suite.T(), w)
	assert.Equal(suite.T(), "deep-thoughts", category["slug"])

	// Same slug conflicts
	w = suite.request("POST", "/api/v1/categories", suite.author.ID, gin.H{"name": "deep thoughts"})
	assert.Equal(suite.T(), http.StatusConflict, w.Code)

	categoryID := category["id"].(string)
	w = suite.request("POST", "/api/v1/posts", suite.author.ID, gin.H{
		"title": "Categorized", "content": "body", "category_id": categoryID, "published": true,
	})
	require.Equal(suite.T(), http.StatusCreated, w.Code)

	w = suite.request("GET", "/api/v1/categories/deep-thoughts/posts", "", nil)
	require.Equal(suite.T(), http.StatusOK, w.Code)
	assert.Equal(suite.T(), float64(1), decode(suite.T(), w)["count"])

	w = suite.request("GET", "/api/v1/categories", "", nil)
	require.Equal(suite.T(), http.StatusOK, w.Code)
	assert.Equal(suite.T(), float64(1), decode(suite.T(), w)["count"])
}

func (suite *APITestSuite) TestUserPostsDraftVisibility() {
	suite.createPost(suite.author.ID, true)
	suite.createPost(suite.author.ID, false)

	w := suite.request("GET", "/api/v1/profiles/author/posts", suite.reader.ID, nil)
	require.Equal(suite.T(), http.StatusOK, w.Code)
	assert.Equal(suite.T(), float64(1), decode(suite.T(), w)["count"])

	w = suite.request("GET", "/api/v1/profiles/author/posts", suite.author.ID, nil)
	require.Equal(suite.T(), http.StatusOK, w.Code)
	assert.Equal(suite.T(), float64(2), decode(suite.T(), w)["count"])
}

func TestAPITestSuite(t *testing.T) {
	suite.Run(t, new(APITestSuite))
}
