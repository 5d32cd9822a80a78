// Package models contains data structures for the application's domain models.
package models

import "time"

// Supported interface languages.
const (
	LanguageEnglish = "en"
	LanguageRussian = "ru"
	LanguageUzbek   = "uz"
)

// User is an account. Accounts are soft-deleted through IsDeleted/DeletedAt
// rather than gorm.DeletedAt so that login can still find and reactivate them.
type User struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	Username  string     `gorm:"uniqueIndex;size:150;not null" json:"username"`
	Email     string     `gorm:"uniqueIndex;size:254;not null" json:"email"`
	Password  string     `gorm:"not null" json:"-"`
	FirstName string     `gorm:"size:150" json:"first_name"`
	LastName  string     `gorm:"size:150" json:"last_name"`
	Bio       string     `gorm:"type:text" json:"bio"`
	Avatar    string     `json:"avatar"`
	Language  string     `gorm:"size:5;default:en" json:"language"`
	IsAdmin   bool       `gorm:"default:false" json:"is_admin"`
	IsDeleted bool       `gorm:"default:false;index" json:"-"`
	DeletedAt *time.Time `json:"-"`
	LastLogin *time.Time `json:"last_login,omitempty"`
	CreatedAt time.Time  `json:"date_joined"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// IsActive reports whether the account has not been soft-deleted.
func (u *User) IsActive() bool {
	return !u.IsDeleted
}

// UserSummary is the compact author representation embedded in posts, comments and likes.
type UserSummary struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
}

// Summary returns the compact representation of u.
func (u *User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Username: u.Username, Avatar: u.Avatar}
}

// UserProfile is a public profile with follow-graph counters.
type UserProfile struct {
	ID             uint   `json:"id"`
	Username       string `json:"username"`
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	Avatar         string `json:"avatar"`
	Bio            string `json:"bio"`
	FollowersCount int64  `json:"followers_count"`
	FollowingCount int64  `json:"following_count"`
	PostsCount     int64  `json:"posts_count"`
	IsFollowing    bool   `json:"is_following"`
}
