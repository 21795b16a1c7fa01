package auth

import (
	"testing"

	"github.com/quillfeed/quillfeed/internal/database"
	"github.com/quillfeed/quillfeed/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupTestDB points the package-level connection at an in-memory SQLite
// database for the duration of one test
func setupTestDB(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		TranslateError:                           true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Profile{}))

	prev := database.DB
	database.DB = db
	t.Cleanup(func() { database.DB = prev })
}

func newTestService() *Service {
	return NewService([]byte("test-secret"))
}

func TestRegister(t *testing.T) {
	setupTestDB(t)
	svc := newTestService()

	resp, err := svc.Register(RegisterRequest{
		Email:       "alice@example.com",
		Username:    "alice",
		Password:    "supersecret",
		DisplayName: "Alice",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "alice", resp.User.Username)
	assert.Equal(t, "Alice", resp.User.DisplayName)
	assert.NotEmpty(t, resp.User.ID)

	// Password hash never equals the raw password
	var stored models.Profile
	require.NoError(t, database.DB.First(&stored, "id = ?", resp.User.ID).Error)
	assert.NotEqual(t, "supersecret", stored.PasswordHash)
	assert.NotEmpty(t, stored.PasswordHash)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	setupTestDB(t)
	svc := newTestService()

	_, err := svc.Register(RegisterRequest{Email: "alice@example.com", Username: "alice", Password: "supersecret"})
	require.NoError(t, err)

	_, err = svc.Register(RegisterRequest{Email: "Alice@Example.com", Username: "alice2", Password: "supersecret"})
	assert.ErrorIs(t, err, ErrUserExists)
}

func TestRegisterDuplicateUsername(t *testing.T) {
	setupTestDB(t)
	svc := newTestService()

	_, err := svc.Register(RegisterRequest{Email: "alice@example.com", Username: "alice", Password: "supersecret"})
	require.NoError(t, err)

	// Explicitly requested usernames conflict
	_, err = svc.Register(RegisterRequest{Email: "other@example.com", Username: "ALICE", Password: "supersecret"})
	assert.ErrorIs(t, err, ErrUsernameExists)
}

func TestRegisterDerivesUsername(t *testing.T) {
	setupTestDB(t)
	svc := newTestService()

	resp, err := svc.Register(RegisterRequest{Email: "Bob.Smith@example.com", Password: "supersecret"})
	require.NoError(t, err)
	assert.Equal(t, "bob.smith", resp.User.Username)

	// A derived collision gets a numeric suffix instead of failing
	resp2, err := svc.Register(RegisterRequest{Email: "bob.smith@other.com", Password: "supersecret"})
	require.NoError(t, err)
	assert.Equal(t, "bob.smith1", resp2.User.Username)
}

func TestLogin(t *testing.T) {
	setupTestDB(t)
	svc := newTestService()

	_, err := svc.Register(RegisterRequest{Email: "alice@example.com", Username: "alice", Password: "supersecret"})
	require.NoError(t, err)

	resp, err := svc.Login(LoginRequest{Email: "alice@example.com", Password: "supersecret"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "alice", resp.User.Username)

	_, err = svc.Login(LoginRequest{Email: "alice@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(LoginRequest{Email: "ghost@example.com", Password: "supersecret"})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestValidateToken(t *testing.T) {
	setupTestDB(t)
	svc := newTestService()

	resp, err := svc.Register(RegisterRequest{Email: "alice@example.com", Username: "alice", Password: "supersecret"})
	require.NoError(t, err)

	user, err := svc.ValidateToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, user.ID)

	_, err = svc.ValidateToken("not-a-token")
	assert.Error(t, err)

	// A token signed with another secret is rejected
	other := NewService([]byte("other-secret"))
	otherResp, err := other.Register(RegisterRequest{Email: "eve@example.com", Username: "eve", Password: "supersecret"})
	require.NoError(t, err)
	_, err = svc.ValidateToken(otherResp.Token)
	assert.Error(t, err)
}
