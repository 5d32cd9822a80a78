package repository

import (
	"context"
	"testing"
	"time"

	"picfeed/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLikeRepository_DoubleLikeKeepsOneRow(t *testing.T) {
	db := newTestDB(t)
	repo := NewLikeRepository(db)
	ctx := context.Background()
	alice := createUser(t, db, "alice")
	post := createPost(t, db, alice, "p", time.Now().UTC())

	require.NoError(t, repo.Create(ctx, &models.Like{PostID: post.ID, UserID: alice.ID}))
	err := repo.Create(ctx, &models.Like{PostID: post.ID, UserID: alice.ID})
	assert.ErrorIs(t, err, ErrDuplicate)

	likes, total, err := repo.ListByPost(ctx, post.ID, 10, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, likes, 1)
	require.NotNil(t, likes[0].Author)
	assert.Equal(t, "alice", likes[0].Author.Username)

	removed, err := repo.Delete(ctx, post.ID, alice.ID)
	require.NoError(t, err)
	assert.True(t, removed)
	exists, err := repo.Exists(ctx, post.ID, alice.ID)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestCommentRepository_CreateAndList(t *testing.T) {
	db := newTestDB(t)
	repo := NewCommentRepository(db)
	ctx := context.Background()
	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")
	post := createPost(t, db, alice, "p", time.Now().UTC())

	first := &models.Comment{PostID: post.ID, UserID: bob.ID, Text: "first"}
	require.NoError(t, repo.Create(ctx, first))
	require.NotNil(t, first.Author)
	assert.Equal(t, "bob", first.Author.Username)
	require.NoError(t, repo.Create(ctx, &models.Comment{PostID: post.ID, UserID: alice.ID, Text: "second"}))

	comments, total, err := repo.ListByPost(ctx, post.ID, 10, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, comments, 2)
	assert.Equal(t, "second", comments[0].Text)

	require.NoError(t, repo.Delete(ctx, first.ID))
	_, err = repo.GetByID(ctx, first.ID)
	assert.True(t, models.HasCode(err, models.CodeNotFound))
}

func TestPostViewRepository_RecordIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	repo := NewPostViewRepository(db)
	ctx := context.Background()
	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")
	post := createPost(t, db, alice, "p", time.Now().UTC())

	require.NoError(t, repo.Record(ctx, post.ID, bob.ID))
	require.NoError(t, repo.Record(ctx, post.ID, bob.ID))
	require.NoError(t, repo.Record(ctx, post.ID, alice.ID))

	count, err := repo.Count(ctx, post.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)
}
