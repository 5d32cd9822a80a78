// Package seed provides helpers to create demo and test data for the
// application database. It is intended for development and testing only.
package seed

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Preset describes the size and shape of a seeded dataset.
type Preset struct {
	Name  string `yaml:"name"`
	Users int    `yaml:"users"`
	Posts int    `yaml:"posts"`
	// FollowRatio is the chance that one user follows another.
	FollowRatio float64 `yaml:"follow_ratio"`
	// MaxLikesPerPost and MaxCommentsPerPost bound the random engagement per post.
	MaxLikesPerPost    int `yaml:"max_likes_per_post"`
	MaxCommentsPerPost int `yaml:"max_comments_per_post"`
	// MaxDays spreads created_at over the trailing MaxDays days.
	MaxDays int `yaml:"max_days"`
	// RandomSeed makes a run reproducible; 0 picks a time-based seed.
	RandomSeed int64 `yaml:"random_seed"`
	Password   string `yaml:"password"`
}

// DefaultPassword is the password of every seeded account unless the preset sets one.
const DefaultPassword = "Passw0rd!"

// DefaultPreset is a small mesh suitable for local development.
func DefaultPreset() Preset {
	return Preset{
		Name:               "default",
		Users:              25,
		Posts:              120,
		FollowRatio:        0.2,
		MaxLikesPerPost:    15,
		MaxCommentsPerPost: 5,
		MaxDays:            21,
		Password:           DefaultPassword,
	}
}

// LoadPreset reads a YAML preset. Missing fields take their DefaultPreset values.
func LoadPreset(path string) (Preset, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Preset{}, fmt.Errorf("read preset: %w", err)
	}
	return ParsePreset(raw)
}

func ParsePreset(raw []byte) (Preset, error) {
	p := DefaultPreset()
	if err := yaml.Unmarshal(raw, &p); err != nil {
		return Preset{}, fmt.Errorf("parse preset: %w", err)
	}
	if err := p.Validate(); err != nil {
		return Preset{}, err
	}
	return p, nil
}

func (p Preset) Validate() error {
	switch {
	case p.Users < 1:
		return errors.New("preset: users must be at least 1")
	case p.Posts < 0:
		return errors.New("preset: posts must not be negative")
	case p.FollowRatio < 0 || p.FollowRatio > 1:
		return errors.New("preset: follow_ratio must be between 0 and 1")
	case p.MaxLikesPerPost < 0 || p.MaxCommentsPerPost < 0:
		return errors.New("preset: engagement limits must not be negative")
	case p.MaxDays < 1:
		return errors.New("preset: max_days must be at least 1")
	}
	return nil
}
