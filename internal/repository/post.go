package repository

import (
	"context"
	"errors"
	"time"

	"picfeed/internal/models"

	"gorm.io/gorm"
)

// PostRepository defines the interface for post data operations.
// Every read fills the computed counters for the given viewer.
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint, viewerID uint) (*models.Post, error)
	List(ctx context.Context, viewerID uint, limit, offset int) ([]*models.Post, int64, error)
	ListByUser(ctx context.Context, userID, viewerID uint, limit, offset int) ([]*models.Post, int64, error)
	// Feed returns the viewer's own posts and their followees' posts, newest first.
	Feed(ctx context.Context, viewerID uint, limit, offset int) ([]*models.Post, int64, error)
	// TopPosts ranks posts created at or after since by likes plus comments.
	TopPosts(ctx context.Context, since time.Time, viewerID uint, limit, offset int) ([]*models.Post, int64, error)
	UpdateCaption(ctx context.Context, id uint, caption string, edited bool) error
	// Delete removes the post together with its comments, likes and views.
	Delete(ctx context.Context, id uint) error
}

type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

const (
	likesCountSQL    = "(SELECT COUNT(DISTINCT likes.id) FROM likes WHERE likes.post_id = posts.id)"
	commentsCountSQL = "(SELECT COUNT(DISTINCT comments.id) FROM comments WHERE comments.post_id = posts.id)"
)

// applyPostDetails selects the counters and the viewer's like state alongside each post.
func applyPostDetails(db *gorm.DB, viewerID uint, extra ...string) *gorm.DB {
	selectQuery := "posts.*, " +
		likesCountSQL + " AS likes_count, " +
		commentsCountSQL + " AS comments_count"
	for _, col := range extra {
		selectQuery += ", " + col
	}

	if viewerID != 0 {
		return db.Select(selectQuery+", EXISTS(SELECT 1 FROM likes WHERE likes.post_id = posts.id AND likes.user_id = ?) AS is_liked", viewerID)
	}
	return db.Select(selectQuery + ", false AS is_liked")
}

func newestFirst(db *gorm.DB) *gorm.DB {
	return db.Order("posts.created_at DESC").Order("posts.id DESC")
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	return r.db.WithContext(ctx).Create(post).Error
}

func (r *postRepository) GetByID(ctx context.Context, id uint, viewerID uint) (*models.Post, error) {
	var post models.Post
	err := applyPostDetails(readDB(r.db).WithContext(ctx), viewerID).
		Preload("User").
		Scopes(activeAuthors).
		Where("posts.id = ?", id).
		First(&post).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Post", id)
		}
		return nil, err
	}
	return &post, nil
}

// page counts the rows matched by scope and returns one page of them.
func (r *postRepository) page(
	ctx context.Context,
	viewerID uint,
	limit, offset int,
	scope func(*gorm.DB) *gorm.DB,
	order func(*gorm.DB) *gorm.DB,
) ([]*models.Post, int64, error) {
	db := readDB(r.db).WithContext(ctx)

	var total int64
	if err := db.Model(&models.Post{}).Scopes(activeAuthors, scope).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var posts []*models.Post
	err := applyPostDetails(db, viewerID).
		Preload("User").
		Scopes(activeAuthors, scope, order).
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	if err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

func (r *postRepository) List(ctx context.Context, viewerID uint, limit, offset int) ([]*models.Post, int64, error) {
	all := func(db *gorm.DB) *gorm.DB { return db }
	return r.page(ctx, viewerID, limit, offset, all, newestFirst)
}

func (r *postRepository) ListByUser(ctx context.Context, userID, viewerID uint, limit, offset int) ([]*models.Post, int64, error) {
	byUser := func(db *gorm.DB) *gorm.DB { return db.Where("posts.user_id = ?", userID) }
	return r.page(ctx, viewerID, limit, offset, byUser, newestFirst)
}

func (r *postRepository) Feed(ctx context.Context, viewerID uint, limit, offset int) ([]*models.Post, int64, error) {
	followed := func(db *gorm.DB) *gorm.DB {
		return db.Where(
			"posts.user_id = ? OR posts.user_id IN (SELECT following_id FROM follows WHERE follower_id = ?)",
			viewerID, viewerID,
		)
	}
	return r.page(ctx, viewerID, limit, offset, followed, newestFirst)
}

func (r *postRepository) TopPosts(ctx context.Context, since time.Time, viewerID uint, limit, offset int) ([]*models.Post, int64, error) {
	db := readDB(r.db).WithContext(ctx)
	// sqlite compares timestamps as text, so the cutoff must share the stored UTC form.
	since = since.UTC()
	recent := func(db *gorm.DB) *gorm.DB { return db.Where("posts.created_at >= ?", since) }

	var total int64
	if err := db.Model(&models.Post{}).Scopes(activeAuthors, recent).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var posts []*models.Post
	err := applyPostDetails(db, viewerID, likesCountSQL+" + "+commentsCountSQL+" AS engagement_score").
		Preload("User").
		Scopes(activeAuthors, recent).
		Order("engagement_score DESC").
		Order("posts.created_at DESC").
		Order("posts.id DESC").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	if err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

func (r *postRepository) UpdateCaption(ctx context.Context, id uint, caption string, edited bool) error {
	res := r.db.WithContext(ctx).Model(&models.Post{}).Where("id = ?", id).
		Updates(map[string]interface{}{"caption": caption, "is_edited": edited})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Post", id)
	}
	return nil
}

func (r *postRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, dependent := range []interface{}{&models.PostView{}, &models.Like{}, &models.Comment{}} {
			if err := tx.Where("post_id = ?", id).Delete(dependent).Error; err != nil {
				return err
			}
		}
		res := tx.Delete(&models.Post{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return models.NewNotFoundError("Post", id)
		}
		return nil
	})
}
