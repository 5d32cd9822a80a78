package repository

import (
	"context"

	"picfeed/internal/models"

	"gorm.io/gorm"
)

// LikeRepository stores likes, at most one per (post, user).
type LikeRepository interface {
	Exists(ctx context.Context, postID, userID uint) (bool, error)
	// Create returns ErrDuplicate when the user already likes the post.
	Create(ctx context.Context, like *models.Like) error
	// Delete reports whether a like was removed.
	Delete(ctx context.Context, postID, userID uint) (bool, error)
	ListByPost(ctx context.Context, postID uint, limit, offset int) ([]*models.Like, int64, error)
}

type likeRepository struct {
	db *gorm.DB
}

func NewLikeRepository(db *gorm.DB) LikeRepository {
	return &likeRepository{db: db}
}

func (r *likeRepository) Exists(ctx context.Context, postID, userID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Like{}).
		Where("post_id = ? AND user_id = ?", postID, userID).
		Count(&count).Error
	return count > 0, err
}

func (r *likeRepository) Create(ctx context.Context, like *models.Like) error {
	return translate(r.db.WithContext(ctx).Create(like).Error)
}

func (r *likeRepository) Delete(ctx context.Context, postID, userID uint) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("post_id = ? AND user_id = ?", postID, userID).
		Delete(&models.Like{})
	return res.RowsAffected > 0, res.Error
}

func (r *likeRepository) ListByPost(ctx context.Context, postID uint, limit, offset int) ([]*models.Like, int64, error) {
	q := readDB(r.db).WithContext(ctx).Model(&models.Like{}).
		Where("likes.post_id = ?", postID).
		Where("likes.user_id IN (SELECT id FROM users WHERE is_deleted = ?)", false).
		Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var likes []*models.Like
	err := q.Preload("User").
		Order("likes.created_at DESC").
		Order("likes.id DESC").
		Limit(limit).
		Offset(offset).
		Find(&likes).Error
	return likes, total, err
}
