package seed

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"picfeed/internal/database"
	"picfeed/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.OpenSQLite(":memory:")
	require.NoError(t, err)
	return db
}

func smallPreset() Preset {
	p := DefaultPreset()
	p.Users = 6
	p.Posts = 12
	p.FollowRatio = 0.5
	p.MaxLikesPerPost = 4
	p.MaxCommentsPerPost = 2
	p.RandomSeed = 42
	return p
}

func TestParsePreset(t *testing.T) {
	p, err := ParsePreset([]byte("name: tiny\nusers: 3\nposts: 5\n"))
	require.NoError(t, err)
	assert.Equal(t, "tiny", p.Name)
	assert.Equal(t, 3, p.Users)
	assert.Equal(t, 5, p.Posts)
	// Unset fields keep their defaults.
	assert.Equal(t, DefaultPreset().MaxDays, p.MaxDays)
	assert.Equal(t, DefaultPassword, p.Password)

	_, err = ParsePreset([]byte("users: 0"))
	assert.ErrorContains(t, err, "users")

	_, err = ParsePreset([]byte("follow_ratio: 2"))
	assert.ErrorContains(t, err, "follow_ratio")

	_, err = ParsePreset([]byte("users: [oops"))
	assert.Error(t, err)
}

func TestLoadPreset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "preset.yml")
	require.NoError(t, os.WriteFile(path, []byte("name: file\nusers: 2\nposts: 1\nmax_days: 3\n"), 0o600))

	p, err := LoadPreset(path)
	require.NoError(t, err)
	assert.Equal(t, "file", p.Name)
	assert.Equal(t, 3, p.MaxDays)

	_, err = LoadPreset(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)
}

func TestFactory_BuildUserIsValid(t *testing.T) {
	f, err := NewFactory(7, "", 5)
	require.NoError(t, err)

	allowed := regexp.MustCompile(`^[a-zA-Z0-9_.]+$`)
	seen := map[string]bool{}
	for i := 1; i <= 50; i++ {
		u := f.BuildUser(i)
		assert.Regexp(t, allowed, u.Username)
		assert.False(t, seen[u.Username], "duplicate username %s", u.Username)
		seen[u.Username] = true
		assert.True(t, u.CreatedAt.Before(f.now) || u.CreatedAt.Equal(f.now))
	}
	u := f.BuildUser(1)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(DefaultPassword)))
}

func TestFactory_PostsFollowTheirAuthor(t *testing.T) {
	f, err := NewFactory(7, "", 5)
	require.NoError(t, err)

	author := f.BuildUser(1)
	author.ID = 9
	post := f.BuildPost(author)
	assert.Equal(t, uint(9), post.UserID)
	assert.False(t, post.CreatedAt.Before(author.CreatedAt))
	assert.Contains(t, post.ImageURL, "picsum.photos")

	comment := f.BuildComment(post, author)
	assert.False(t, comment.CreatedAt.Before(post.CreatedAt))
	assert.NotEmpty(t, comment.Text)
}

func TestSeeder_Apply(t *testing.T) {
	db := newTestDB(t)
	s := NewSeeder(db)

	stats, err := s.Apply(context.Background(), smallPreset())
	require.NoError(t, err)
	assert.Equal(t, 6, stats.Users)
	assert.Equal(t, 12, stats.Posts)

	count := func(model any) int {
		var n int64
		require.NoError(t, db.Model(model).Count(&n).Error)
		return int(n)
	}
	assert.Equal(t, stats.Users, count(&models.User{}))
	assert.Equal(t, stats.Follows, count(&models.Follow{}))
	assert.Equal(t, stats.Posts, count(&models.Post{}))
	assert.Equal(t, stats.Likes, count(&models.Like{}))
	assert.Equal(t, stats.Comments, count(&models.Comment{}))
	assert.Equal(t, stats.Views, count(&models.PostView{}))

	var selfFollows int64
	require.NoError(t, db.Model(&models.Follow{}).Where("follower_id = following_id").Count(&selfFollows).Error)
	assert.Zero(t, selfFollows)

	require.NoError(t, s.ClearAll(context.Background()))
	assert.Zero(t, count(&models.User{}))
	assert.Zero(t, count(&models.Post{}))
	assert.Zero(t, count(&models.Like{}))
}

func TestSeeder_DryRunRollsBack(t *testing.T) {
	db := newTestDB(t)
	s := NewSeeder(db)
	s.DryRun = true

	stats, err := s.Apply(context.Background(), smallPreset())
	require.NoError(t, err)
	assert.Equal(t, 6, stats.Users)

	var n int64
	require.NoError(t, db.Model(&models.User{}).Count(&n).Error)
	assert.Zero(t, n)
}
