package repository

import (
	"fmt"
	"testing"
	"time"

	"picfeed/internal/database"
	"picfeed/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newTestDB returns a fresh migrated in-memory sqlite database.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

func createUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	u := &models.User{
		Username: username,
		Email:    fmt.Sprintf("%s@example.com", username),
		Password: "hash",
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

func createPost(t *testing.T, db *gorm.DB, author *models.User, caption string, createdAt time.Time) *models.Post {
	t.Helper()
	p := &models.Post{
		UserID:    author.ID,
		Caption:   caption,
		ImageURL:  "/media/posts/" + caption + ".webp",
		CreatedAt: createdAt,
	}
	require.NoError(t, db.Create(p).Error)
	return p
}

func follow(t *testing.T, db *gorm.DB, follower, following *models.User) {
	t.Helper()
	require.NoError(t, db.Create(&models.Follow{FollowerID: follower.ID, FollowingID: following.ID}).Error)
}

func like(t *testing.T, db *gorm.DB, u *models.User, p *models.Post) {
	t.Helper()
	require.NoError(t, db.Create(&models.Like{UserID: u.ID, PostID: p.ID}).Error)
}

func comment(t *testing.T, db *gorm.DB, u *models.User, p *models.Post, text string) {
	t.Helper()
	require.NoError(t, db.Create(&models.Comment{UserID: u.ID, PostID: p.ID, Text: text}).Error)
}

func captions(posts []*models.Post) []string {
	out := make([]string, 0, len(posts))
	for _, p := range posts {
		out = append(out, p.Caption)
	}
	return out
}
