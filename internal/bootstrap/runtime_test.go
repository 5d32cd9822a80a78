package bootstrap

import (
	"testing"

	"picfeed/internal/config"
	"picfeed/internal/database"
	"picfeed/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestEnsureDevRootAdmin(t *testing.T) {
	db, err := database.OpenSQLite(":memory:")
	require.NoError(t, err)

	cfg := &config.Config{
		Env:              "development",
		DevBootstrapRoot: true,
		DevRootUsername:  "root",
		DevRootEmail:     "Root@Example.com",
		DevRootPassword:  "Sup3r!secret",
	}
	require.NoError(t, EnsureDevRootAdmin(cfg, db))

	var root models.User
	require.NoError(t, db.Where("username = ?", "root").First(&root).Error)
	assert.True(t, root.IsAdmin)
	assert.Equal(t, "root@example.com", root.Email)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(root.Password), []byte("Sup3r!secret")))

	// A demoted, deactivated root is restored on the next start.
	require.NoError(t, db.Model(&root).Updates(map[string]any{"is_admin": false, "is_deleted": true}).Error)
	require.NoError(t, EnsureDevRootAdmin(cfg, db))
	require.NoError(t, db.First(&root, root.ID).Error)
	assert.True(t, root.IsAdmin)
	assert.False(t, root.IsDeleted)

	var count int64
	require.NoError(t, db.Model(&models.User{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestEnsureDevRootAdmin_Skipped(t *testing.T) {
	db, err := database.OpenSQLite(":memory:")
	require.NoError(t, err)

	require.NoError(t, EnsureDevRootAdmin(&config.Config{Env: "production", DevBootstrapRoot: true}, db))
	require.NoError(t, EnsureDevRootAdmin(&config.Config{Env: "development"}, db))

	var count int64
	require.NoError(t, db.Model(&models.User{}).Count(&count).Error)
	assert.Zero(t, count)

	err = EnsureDevRootAdmin(&config.Config{Env: "development", DevBootstrapRoot: true}, db)
	assert.ErrorContains(t, err, "DEV_ROOT_PASSWORD")
}
