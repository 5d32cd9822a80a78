package repository

import (
	"context"
	"errors"
	"time"

	"picfeed/internal/models"

	"gorm.io/gorm"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	// GetByID returns the user regardless of soft deletion.
	GetByID(ctx context.Context, id uint) (*models.User, error)
	// GetByEmail returns nil, nil when no account uses email. Soft-deleted accounts are included.
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	// GetByUsername returns nil, nil when no active account has username.
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	UsernameTaken(ctx context.Context, username string, exceptID uint) (bool, error)
	EmailTaken(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	SoftDelete(ctx context.Context, id uint, at time.Time) error
	// RecordLogin sets last_login and clears any soft deletion.
	RecordLogin(ctx context.Context, id uint, at time.Time) error
	SetAdmin(ctx context.Context, id uint, isAdmin bool) error
	ListAdmins(ctx context.Context) ([]models.User, error)
	Search(ctx context.Context, query string, limit, offset int) ([]models.User, int64, error)
	Suggested(ctx context.Context, userID uint, limit int) ([]models.User, error)
	// Profile returns nil, nil when no active account has username.
	Profile(ctx context.Context, username string) (*models.UserProfile, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository returns a new UserRepository implementation.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := readDB(r.db).WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("User", id)
		}
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := readDB(r.db).WithContext(ctx).Scopes(activeUsers).Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) UsernameTaken(ctx context.Context, username string, exceptID uint) (bool, error) {
	var count int64
	q := r.db.WithContext(ctx).Model(&models.User{}).Where("username = ?", username)
	if exceptID != 0 {
		q = q.Where("id <> ?", exceptID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *userRepository) EmailTaken(ctx context.Context, email string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	return translate(r.db.WithContext(ctx).Create(user).Error)
}

func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	return translate(r.db.WithContext(ctx).Save(user).Error)
}

func (r *userRepository) SoftDelete(ctx context.Context, id uint, at time.Time) error {
	return r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).
		Updates(map[string]interface{}{"is_deleted": true, "deleted_at": at}).Error
}

func (r *userRepository) RecordLogin(ctx context.Context, id uint, at time.Time) error {
	return r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).
		Updates(map[string]interface{}{"is_deleted": false, "deleted_at": nil, "last_login": at}).Error
}

func (r *userRepository) SetAdmin(ctx context.Context, id uint, isAdmin bool) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("is_admin", isAdmin)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("User", id)
	}
	return nil
}

func (r *userRepository) ListAdmins(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := r.db.WithContext(ctx).Where("is_admin = ?", true).Order("id ASC").Find(&users).Error
	return users, err
}

func (r *userRepository) Search(ctx context.Context, query string, limit, offset int) ([]models.User, int64, error) {
	q := readDB(r.db).WithContext(ctx).Model(&models.User{}).Scopes(activeUsers)
	if query != "" {
		p := containsPattern(query)
		q = q.Where(
			`LOWER(username) LIKE ? ESCAPE '\' OR LOWER(first_name) LIKE ? ESCAPE '\' OR LOWER(last_name) LIKE ? ESCAPE '\'`,
			p, p, p,
		)
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []models.User
	err := q.Order("username ASC").Limit(limit).Offset(offset).Find(&users).Error
	return users, total, err
}

func (r *userRepository) Suggested(ctx context.Context, userID uint, limit int) ([]models.User, error) {
	var users []models.User
	err := readDB(r.db).WithContext(ctx).
		Scopes(activeUsers).
		Where("id <> ?", userID).
		Where("id NOT IN (SELECT following_id FROM follows WHERE follower_id = ?)", userID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&users).Error
	return users, err
}

func (r *userRepository) Profile(ctx context.Context, username string) (*models.UserProfile, error) {
	var profile models.UserProfile
	res := readDB(r.db).WithContext(ctx).
		Model(&models.User{}).
		Select(
			"users.id, users.username, users.first_name, users.last_name, users.avatar, users.bio, "+
				"(SELECT COUNT(*) FROM follows JOIN users f ON f.id = follows.follower_id "+
				"WHERE follows.following_id = users.id AND f.is_deleted = ?) AS followers_count, "+
				"(SELECT COUNT(*) FROM follows JOIN users f ON f.id = follows.following_id "+
				"WHERE follows.follower_id = users.id AND f.is_deleted = ?) AS following_count, "+
				"(SELECT COUNT(*) FROM posts WHERE posts.user_id = users.id) AS posts_count",
			false, false,
		).
		Scopes(activeUsers).
		Where("users.username = ?", username).
		Limit(1).
		Scan(&profile)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return &profile, nil
}
