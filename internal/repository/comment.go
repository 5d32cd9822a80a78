package repository

import (
	"context"
	"errors"

	"picfeed/internal/models"

	"gorm.io/gorm"
)

// CommentRepository defines interface for comment operations
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id uint) (*models.Comment, error)
	ListByPost(ctx context.Context, postID uint, limit, offset int) ([]*models.Comment, int64, error)
	Delete(ctx context.Context, id uint) error
}

type commentRepository struct {
	db *gorm.DB
}

// NewCommentRepository creates a new CommentRepository
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

// Create inserts the comment and loads its author.
func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	db := r.db.WithContext(ctx)
	if err := db.Create(comment).Error; err != nil {
		return err
	}
	return db.Preload("User").First(comment, comment.ID).Error
}

func (r *commentRepository) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	var comment models.Comment
	if err := r.db.WithContext(ctx).Preload("User").First(&comment, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Comment", id)
		}
		return nil, err
	}
	return &comment, nil
}

func (r *commentRepository) ListByPost(ctx context.Context, postID uint, limit, offset int) ([]*models.Comment, int64, error) {
	q := readDB(r.db).WithContext(ctx).Model(&models.Comment{}).
		Where("comments.post_id = ?", postID).
		Where("comments.user_id IN (SELECT id FROM users WHERE is_deleted = ?)", false).
		Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var comments []*models.Comment
	err := q.Preload("User").
		Order("comments.created_at DESC").
		Order("comments.id DESC").
		Limit(limit).
		Offset(offset).
		Find(&comments).Error
	return comments, total, err
}

func (r *commentRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Comment{}, id).Error
}
