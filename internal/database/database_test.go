package database

import (
	"testing"

	"picfeed/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPersistentModels_UsersFirst(t *testing.T) {
	all := PersistentModels()
	require.NotEmpty(t, all)
	_, ok := all[0].(*models.User)
	assert.True(t, ok, "users must be migrated before tables that reference them")
}

func TestOpenSQLite_MigratesSchema(t *testing.T) {
	db, err := OpenSQLite(":memory:")
	require.NoError(t, err)

	for _, table := range []string{"users", "follows", "posts", "comments", "likes", "post_views"} {
		assert.True(t, db.Migrator().HasTable(table), "missing table %s", table)
	}
	assert.False(t, db.Migrator().HasColumn(&models.Post{}, "likes_count"), "computed columns must not be migrated")
	assert.True(t, db.Migrator().HasIndex(&models.Like{}, "idx_likes_post_user"))
	assert.True(t, db.Migrator().HasIndex(&models.Follow{}, "idx_follows_pair"))
}

func TestPostgresDSN(t *testing.T) {
	dsn := postgresDSN("db", "5432", "u", "p", "picfeed", " REQUIRE ")
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=picfeed sslmode=require TimeZone=UTC", dsn)

	assert.Contains(t, postgresDSN("db", "5432", "u", "p", "picfeed", ""), "sslmode=disable")
}
