package models

import "time"

// Follow is a directed edge in the follow graph: Follower subscribes to Following.
type Follow struct {
	ID          uint  `gorm:"primaryKey" json:"id"`
	FollowerID  uint  `gorm:"not null;uniqueIndex:idx_follows_pair" json:"follower_id"`
	Follower    *User `gorm:"foreignKey:FollowerID;constraint:OnDelete:CASCADE" json:"-"`
	FollowingID uint  `gorm:"not null;uniqueIndex:idx_follows_pair;index" json:"following_id"`
	Following   *User `gorm:"foreignKey:FollowingID;constraint:OnDelete:CASCADE" json:"-"`

	CreatedAt time.Time `json:"created_at"`
}
