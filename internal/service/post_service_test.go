package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"picfeed/internal/featureflags"
	"picfeed/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPostService(posts *postRepoStub, views *viewRepoStub, images *imageStoreStub, flags flagsStub, admins ...uint) *PostService {
	return NewPostService(posts, views, images, flags, adminChecker(admins...))
}

func TestPostService_CreatePost(t *testing.T) {
	posts := noopPostRepo()
	var created *models.Post
	posts.createFn = func(_ context.Context, p *models.Post) error {
		p.ID = 11
		created = p
		return nil
	}
	posts.getByIDFn = func(_ context.Context, id, _ uint) (*models.Post, error) {
		return created, nil
	}
	images := &imageStoreStub{}
	svc := newTestPostService(posts, noopViewRepo(), images, nil)

	post, err := svc.CreatePost(context.Background(), CreatePostInput{
		Author:  &models.User{ID: 1, Username: "alice"},
		Caption: "sunset",
		Image:   []byte("img"),
	})
	require.NoError(t, err)
	assert.Equal(t, uint(11), post.ID)
	assert.Equal(t, "/media/posts/test.webp", post.ImageURL)
	assert.Equal(t, "posts/test.webp", post.ImageKey)
	assert.False(t, post.IsEdited)
}

func TestPostService_CreatePostValidation(t *testing.T) {
	images := &imageStoreStub{}
	svc := newTestPostService(noopPostRepo(), noopViewRepo(), images, nil)
	author := &models.User{ID: 1}

	_, err := svc.CreatePost(context.Background(), CreatePostInput{Author: author, Caption: strings.Repeat("x", 2201), Image: []byte("img")})
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Contains(t, appErr.Fields, "caption")
	assert.Empty(t, images.saved, "nothing is stored for an invalid caption")

	images.saveErr = models.NewFieldValidationError(map[string]string{"image": "Image is required"})
	_, err = svc.CreatePost(context.Background(), CreatePostInput{Author: author})
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "Image is required", appErr.Fields["image"])
}

func TestPostService_CreatePostRemovesImageOnFailure(t *testing.T) {
	posts := noopPostRepo()
	posts.createFn = func(_ context.Context, _ *models.Post) error { return errors.New("db down") }
	images := &imageStoreStub{}
	svc := newTestPostService(posts, noopViewRepo(), images, nil)

	_, err := svc.CreatePost(context.Background(), CreatePostInput{Author: &models.User{ID: 1}, Image: []byte("img")})
	assertCode(t, err, models.CodeInternal)
	assert.Equal(t, []string{"posts/test.webp"}, images.deleted)
}

func TestPostService_UpdatePostIsEdited(t *testing.T) {
	stored := &models.Post{ID: 3, UserID: 1, Caption: "first"}
	posts := noopPostRepo()
	posts.getByIDFn = func(_ context.Context, _, _ uint) (*models.Post, error) {
		cp := *stored
		return &cp, nil
	}
	updates := 0
	posts.updateCaptionFn = func(_ context.Context, _ uint, caption string, edited bool) error {
		updates++
		stored.Caption, stored.IsEdited = caption, edited
		return nil
	}
	svc := newTestPostService(posts, noopViewRepo(), &imageStoreStub{}, nil)
	ctx := context.Background()

	post, err := svc.UpdatePost(ctx, UpdatePostInput{UserID: 1, PostID: 3, Caption: "first"})
	require.NoError(t, err)
	assert.False(t, post.IsEdited, "same caption is not an edit")
	assert.Equal(t, 0, updates)

	post, err = svc.UpdatePost(ctx, UpdatePostInput{UserID: 1, PostID: 3, Caption: "second"})
	require.NoError(t, err)
	assert.True(t, post.IsEdited)
	assert.Equal(t, "second", post.Caption)

	_, err = svc.UpdatePost(ctx, UpdatePostInput{UserID: 2, PostID: 3, Caption: "hijack"})
	assertCode(t, err, models.CodeForbidden)
}

func TestPostService_DeletePost(t *testing.T) {
	ctx := context.Background()
	posts := noopPostRepo()
	posts.getByIDFn = func(_ context.Context, id, _ uint) (*models.Post, error) {
		return &models.Post{ID: id, UserID: 1, ImageKey: "posts/a.webp"}, nil
	}
	var deleted []uint
	posts.deleteFn = func(_ context.Context, id uint) error {
		deleted = append(deleted, id)
		return nil
	}
	images := &imageStoreStub{}
	svc := newTestPostService(posts, noopViewRepo(), images, nil, 99)

	err := svc.DeletePost(ctx, DeletePostInput{UserID: 2, PostID: 5})
	assertCode(t, err, models.CodeForbidden)
	assert.Empty(t, deleted)

	require.NoError(t, svc.DeletePost(ctx, DeletePostInput{UserID: 1, PostID: 5}))
	require.NoError(t, svc.DeletePost(ctx, DeletePostInput{UserID: 99, PostID: 6}))
	assert.Equal(t, []uint{5, 6}, deleted)
	assert.Equal(t, []string{"posts/a.webp", "posts/a.webp"}, images.deleted)

	posts.getByIDFn = func(_ context.Context, id, _ uint) (*models.Post, error) {
		return nil, models.NewNotFoundError("Post", id)
	}
	err = svc.DeletePost(ctx, DeletePostInput{UserID: 1, PostID: 7})
	assertCode(t, err, models.CodeNotFound)
}

func TestPostService_GetPostRecordsView(t *testing.T) {
	ctx := context.Background()
	viewers := map[uint]bool{}
	views := noopViewRepo()
	views.recordFn = func(_ context.Context, _, userID uint) error {
		viewers[userID] = true
		return nil
	}
	views.countFn = func(_ context.Context, _ uint) (int64, error) { return int64(len(viewers)), nil }

	svc := newTestPostService(noopPostRepo(), views, &imageStoreStub{}, flagsStub{featureflags.RecordPostViews: true})
	post, err := svc.GetPost(ctx, 1, 7)
	require.NoError(t, err)
	require.NotNil(t, post.ViewsCount)
	assert.Equal(t, int64(1), *post.ViewsCount)

	_, err = svc.GetPost(ctx, 1, 7)
	require.NoError(t, err)
	assert.Len(t, viewers, 1)

	off := newTestPostService(noopPostRepo(), views, &imageStoreStub{}, flagsStub{})
	post, err = off.GetPost(ctx, 1, 8)
	require.NoError(t, err)
	assert.False(t, viewers[8], "views are not recorded when the flag is off")
	assert.Equal(t, int64(1), *post.ViewsCount)
}

func TestPostService_ListPagination(t *testing.T) {
	posts := noopPostRepo()
	posts.listByUserFn = func(_ context.Context, userID, viewerID uint, limit, offset int) ([]*models.Post, int64, error) {
		assert.Equal(t, uint(2), userID)
		assert.Equal(t, uint(1), viewerID)
		assert.Equal(t, 10, limit)
		assert.Equal(t, 20, offset)
		return []*models.Post{{ID: 1}}, 21, nil
	}
	svc := newTestPostService(posts, noopViewRepo(), &imageStoreStub{}, nil)

	page, err := svc.ListUserPosts(context.Background(), 2, 1, PageRequest{Page: 3, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Page)
	assert.Equal(t, int64(21), page.Count)

	page, err = svc.ListPosts(context.Background(), 1, PageRequest{})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, DefaultPageSize, page.PageSize)
	assert.NotNil(t, page.Results)
}
