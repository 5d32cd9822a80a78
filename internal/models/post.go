package models

import (
	"time"

	"gorm.io/gorm"
)

// Post is an image with a caption, owned by a user.
type Post struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	UserID   uint   `gorm:"not null;index" json:"-"`
	User     *User  `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Caption  string `gorm:"type:text" json:"caption"`
	ImageURL string `gorm:"not null" json:"image"`
	// ImageKey is the media store key backing ImageURL.
	ImageKey string `json:"-"`
	IsEdited bool   `gorm:"default:false" json:"is_edited"`

	Author *UserSummary `gorm:"-" json:"user,omitempty"`

	// Computed at query time; never persisted.
	LikesCount      int64  `gorm:"->;-:migration" json:"likes_count"`
	CommentsCount   int64  `gorm:"->;-:migration" json:"comments_count"`
	IsLiked         bool   `gorm:"->;-:migration" json:"is_liked"`
	ViewsCount      *int64 `gorm:"->;-:migration" json:"views,omitempty"`
	EngagementScore *int64 `gorm:"->;-:migration" json:"engagement_score,omitempty"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AfterFind exposes the preloaded author as a summary.
func (p *Post) AfterFind(_ *gorm.DB) error {
	if p.User != nil {
		s := p.User.Summary()
		p.Author = &s
	}
	return nil
}

// Comment is a text reply to a post.
type Comment struct {
	ID     uint         `gorm:"primaryKey" json:"id"`
	PostID uint         `gorm:"not null;index" json:"post"`
	Post   *Post        `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"-"`
	UserID uint         `gorm:"not null;index" json:"-"`
	User   *User        `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Author *UserSummary `gorm:"-" json:"user,omitempty"`
	Text   string       `gorm:"type:text;not null" json:"text"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

// AfterFind exposes the preloaded author as a summary.
func (c *Comment) AfterFind(_ *gorm.DB) error {
	if c.User != nil {
		s := c.User.Summary()
		c.Author = &s
	}
	return nil
}

// Like records that a user liked a post. At most one per (post, user).
type Like struct {
	ID     uint         `gorm:"primaryKey" json:"id"`
	PostID uint         `gorm:"not null;uniqueIndex:idx_likes_post_user" json:"post"`
	Post   *Post        `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"-"`
	UserID uint         `gorm:"not null;uniqueIndex:idx_likes_post_user;index" json:"-"`
	User   *User        `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Author *UserSummary `gorm:"-" json:"user,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// AfterFind exposes the preloaded liker as a summary.
func (l *Like) AfterFind(_ *gorm.DB) error {
	if l.User != nil {
		s := l.User.Summary()
		l.Author = &s
	}
	return nil
}

// PostView records that a user opened a post. At most one per (post, user).
type PostView struct {
	ID     uint  `gorm:"primaryKey" json:"id"`
	PostID uint  `gorm:"not null;uniqueIndex:idx_post_views_post_user" json:"post"`
	Post   *Post `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"-"`
	UserID uint  `gorm:"not null;uniqueIndex:idx_post_views_post_user" json:"user"`
	User   *User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`

	CreatedAt time.Time `json:"created_at"`
}
