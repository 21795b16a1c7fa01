package threads

import (
	"context"
	"testing"
	"time"

	"github.com/quillfeed/quillfeed/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupTestDB creates an in-memory SQLite database for testing
func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		TranslateError:                           true,
	})
	require.NoError(t, err)

	err = db.AutoMigrate(&models.Profile{}, &models.Post{}, &models.Comment{})
	require.NoError(t, err)

	return db
}

func createUser(t *testing.T, db *gorm.DB, username string) models.Profile {
	user := models.Profile{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "x",
	}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func createPost(t *testing.T, db *gorm.DB, authorID string, published bool) models.Post {
	post := models.Post{
		Title:     "a post",
		Content:   "body",
		AuthorID:  authorID,
		Published: published,
	}
	require.NoError(t, db.Create(&post).Error)
	return post
}

func TestPostComment(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	author := createUser(t, db, "author")
	alice := createUser(t, db, "alice")
	post := createPost(t, db, author.ID, true)

	comment, err := svc.PostComment(ctx, post.ID, alice.ID, "first!", nil)
	require.NoError(t, err)
	assert.Equal(t, post.ID, comment.PostID)
	assert.Nil(t, comment.ParentID)
	assert.Equal(t, "alice", comment.User.Username)

	reply, err := svc.PostComment(ctx, post.ID, author.ID, "thanks", &comment.ID)
	require.NoError(t, err)
	require.NotNil(t, reply.ParentID)
	assert.Equal(t, comment.ID, *reply.ParentID)
}

func TestPostCommentValidation(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	author := createUser(t, db, "author")
	alice := createUser(t, db, "alice")
	post := createPost(t, db, author.ID, true)
	other := createPost(t, db, author.ID, true)
	draft := createPost(t, db, author.ID, false)

	_, err := svc.PostComment(ctx, post.ID, alice.ID, "", nil)
	assert.ErrorIs(t, err, ErrEmptyContent)

	_, err = svc.PostComment(ctx, "no-such-post", alice.ID, "hi", nil)
	assert.ErrorIs(t, err, ErrPostNotFound)

	_, err = svc.PostComment(ctx, draft.ID, alice.ID, "hi", nil)
	assert.ErrorIs(t, err, ErrPostNotFound)

	// Parent must belong to the same post
	onOther, err := svc.PostComment(ctx, other.ID, alice.ID, "elsewhere", nil)
	require.NoError(t, err)
	_, err = svc.PostComment(ctx, post.ID, alice.ID, "reply", &onOther.ID)
	assert.ErrorIs(t, err, ErrParentMismatch)

	missing := "no-such-comment"
	_, err = svc.PostComment(ctx, post.ID, alice.ID, "reply", &missing)
	assert.ErrorIs(t, err, ErrParentMismatch)

	// An empty parent ID means a root comment
	blank := ""
	root, err := svc.PostComment(ctx, post.ID, alice.ID, "root", &blank)
	require.NoError(t, err)
	assert.Nil(t, root.ParentID)
}

func TestUpdateComment(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	author := createUser(t, db, "author")
	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")
	post := createPost(t, db, author.ID, true)

	comment, err := svc.PostComment(ctx, post.ID, alice.ID, "original", nil)
	require.NoError(t, err)

	updated, err := svc.UpdateComment(ctx, comment.ID, alice.ID, "edited")
	require.NoError(t, err)
	assert.Equal(t, "edited", updated.Content)

	// Another user's edit reads as not found
	_, err = svc.UpdateComment(ctx, comment.ID, bob.ID, "hijacked")
	assert.ErrorIs(t, err, ErrCommentNotFound)

	_, err = svc.UpdateComment(ctx, comment.ID, alice.ID, "")
	assert.ErrorIs(t, err, ErrEmptyContent)
}

func TestDeleteComment(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	author := createUser(t, db, "author")
	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")
	post := createPost(t, db, author.ID, true)

	comment, err := svc.PostComment(ctx, post.ID, alice.ID, "to be removed", nil)
	require.NoError(t, err)

	assert.ErrorIs(t, svc.DeleteComment(ctx, comment.ID, bob.ID), ErrCommentNotFound)
	require.NoError(t, svc.DeleteComment(ctx, comment.ID, alice.ID))
	assert.ErrorIs(t, svc.DeleteComment(ctx, comment.ID, alice.ID), ErrCommentNotFound)
}

func TestListThread(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	author := createUser(t, db, "author")
	alice := createUser(t, db, "alice")
	post := createPost(t, db, author.ID, true)

	first, err := svc.PostComment(ctx, post.ID, alice.ID, "first root", nil)
	require.NoError(t, err)
	second, err := svc.PostComment(ctx, post.ID, author.ID, "second root", nil)
	require.NoError(t, err)
	_, err = svc.PostComment(ctx, post.ID, author.ID, "reply to first", &first.ID)
	require.NoError(t, err)

	thread, err := svc.ListThread(ctx, post.ID)
	require.NoError(t, err)
	require.Len(t, thread, 2)

	assert.Equal(t, first.ID, thread[0].ID)
	assert.Equal(t, second.ID, thread[1].ID)
	require.Len(t, thread[0].Replies, 1)
	assert.Equal(t, "reply to first", thread[0].Replies[0].Content)
	assert.Empty(t, thread[1].Replies)

	_, err = svc.ListThread(ctx, "no-such-post")
	assert.ErrorIs(t, err, ErrPostNotFound)
}

func TestBuild(t *testing.T) {
	base := time.Now()
	pid := func(s string) *string { return &s }

	comments := []models.Comment{
		{ID: "r1", Content: "root one", CreatedAt: base},
		{ID: "c1", ParentID: pid("r1"), Content: "reply", CreatedAt: base.Add(time.Minute)},
		{ID: "r2", Content: "root two", CreatedAt: base.Add(2 * time.Minute)},
		{ID: "c2", ParentID: pid("r2"), Content: "other reply", CreatedAt: base.Add(3 * time.Minute)},
		{ID: "c3", ParentID: pid("r1"), Content: "late reply", CreatedAt: base.Add(4 * time.Minute)},
	}

	threads := Build(comments)
	require.Len(t, threads, 2)
	assert.Equal(t, "r1", threads[0].ID)
	assert.Equal(t, "r2", threads[1].ID)
	require.Len(t, threads[0].Replies, 2)
	assert.Equal(t, "c1", threads[0].Replies[0].ID)
	assert.Equal(t, "c3", threads[0].Replies[1].ID)
	require.Len(t, threads[1].Replies, 1)
}

func TestBuildDropsNestedReplies(t *testing.T) {
	pid := func(s string) *string { return &s }

	comments := []models.Comment{
		{ID: "r1", Content: "root"},
		{ID: "c1", ParentID: pid("r1"), Content: "reply"},
		// Reply to a reply attaches to no root
		{ID: "c2", ParentID: pid("c1"), Content: "nested"},
		// Orphan whose parent was deleted
		{ID: "c3", ParentID: pid("gone"), Content: "orphan"},
	}

	threads := Build(comments)
	require.Len(t, threads, 1)
	require.Len(t, threads[0].Replies, 1)
	assert.Equal(t, "c1", threads[0].Replies[0].ID)
}

func TestBuildEmpty(t *testing.T) {
	assert.Empty(t, Build(nil))
	assert.Empty(t, Build([]models.Comment{}))
}
