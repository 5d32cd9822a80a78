package repository

import (
	"context"

	"picfeed/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostViewRepository records which users opened which posts.
type PostViewRepository interface {
	// Record is a get-or-create: a repeated view by the same user is a no-op.
	Record(ctx context.Context, postID, userID uint) error
	Count(ctx context.Context, postID uint) (int64, error)
}

type postViewRepository struct {
	db *gorm.DB
}

func NewPostViewRepository(db *gorm.DB) PostViewRepository {
	return &postViewRepository{db: db}
}

func (r *postViewRepository) Record(ctx context.Context, postID, userID uint) error {
	view := models.PostView{PostID: postID, UserID: userID}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "post_id"}, {Name: "user_id"}},
			DoNothing: true,
		}).
		Create(&view).Error
}

func (r *postViewRepository) Count(ctx context.Context, postID uint) (int64, error) {
	var count int64
	err := readDB(r.db).WithContext(ctx).Model(&models.PostView{}).Where("post_id = ?", postID).Count(&count).Error
	return count, err
}
