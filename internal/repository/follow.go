package repository

import (
	"context"

	"picfeed/internal/models"

	"gorm.io/gorm"
)

// FollowRepository stores the directed follow graph.
type FollowRepository interface {
	Exists(ctx context.Context, followerID, followingID uint) (bool, error)
	// Create returns ErrDuplicate when the edge already exists.
	Create(ctx context.Context, follow *models.Follow) error
	// Delete reports whether an edge was removed.
	Delete(ctx context.Context, followerID, followingID uint) (bool, error)
	Followers(ctx context.Context, userID uint, limit, offset int) ([]models.User, int64, error)
	Following(ctx context.Context, userID uint, limit, offset int) ([]models.User, int64, error)
}

type followRepository struct {
	db *gorm.DB
}

// NewFollowRepository creates a new follow repository
func NewFollowRepository(db *gorm.DB) FollowRepository {
	return &followRepository{db: db}
}

func (r *followRepository) Exists(ctx context.Context, followerID, followingID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Follow{}).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Count(&count).Error
	return count > 0, err
}

func (r *followRepository) Create(ctx context.Context, follow *models.Follow) error {
	return translate(r.db.WithContext(ctx).Create(follow).Error)
}

func (r *followRepository) Delete(ctx context.Context, followerID, followingID uint) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Delete(&models.Follow{})
	return res.RowsAffected > 0, res.Error
}

func (r *followRepository) Followers(ctx context.Context, userID uint, limit, offset int) ([]models.User, int64, error) {
	return r.related(ctx, "follows.follower_id", "follows.following_id", userID, limit, offset)
}

func (r *followRepository) Following(ctx context.Context, userID uint, limit, offset int) ([]models.User, int64, error) {
	return r.related(ctx, "follows.following_id", "follows.follower_id", userID, limit, offset)
}

// related lists the active users on the other end of userID's edges, most recent edge first.
func (r *followRepository) related(ctx context.Context, otherCol, selfCol string, userID uint, limit, offset int) ([]models.User, int64, error) {
	q := readDB(r.db).WithContext(ctx).
		Model(&models.User{}).
		Joins("JOIN follows ON users.id = "+otherCol).
		Where(selfCol+" = ?", userID).
		Scopes(activeUsers).
		Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []models.User
	err := q.Select("users.*").
		Order("follows.created_at DESC").
		Order("follows.id DESC").
		Limit(limit).
		Offset(offset).
		Find(&users).Error
	return users, total, err
}
