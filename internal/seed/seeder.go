package seed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"picfeed/internal/middleware"
	"picfeed/internal/models"

	"gorm.io/gorm"
)

const batchSize = 200

// Stats reports how many rows a seeding run inserted.
type Stats struct {
	Users    int
	Follows  int
	Posts    int
	Likes    int
	Comments int
	Views    int
}

// Seeder persists a Preset worth of generated data.
type Seeder struct {
	db     *gorm.DB
	DryRun bool
}

func NewSeeder(db *gorm.DB) *Seeder {
	return &Seeder{db: db}
}

// Apply generates the dataset described by p inside a single transaction.
// With DryRun set the transaction is rolled back after counting.
func (s *Seeder) Apply(ctx context.Context, p Preset) (Stats, error) {
	if err := p.Validate(); err != nil {
		return Stats{}, err
	}
	seed := p.RandomSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	f, err := NewFactory(seed, p.Password, p.MaxDays)
	if err != nil {
		return Stats{}, err
	}

	var stats Stats
	errDryRun := errors.New("dry run")
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		users := make([]*models.User, 0, p.Users)
		for i := 0; i < p.Users; i++ {
			users = append(users, f.BuildUser(i+1))
		}
		if err := tx.CreateInBatches(users, batchSize).Error; err != nil {
			return fmt.Errorf("create users: %w", err)
		}
		stats.Users = len(users)

		var follows []*models.Follow
		for _, a := range users {
			for _, b := range users {
				if a.ID == b.ID || f.rng.Float64() >= p.FollowRatio {
					continue
				}
				follows = append(follows, &models.Follow{FollowerID: a.ID, FollowingID: b.ID, CreatedAt: f.after(laterOf(a.CreatedAt, b.CreatedAt))})
			}
		}
		if len(follows) > 0 {
			if err := tx.CreateInBatches(follows, batchSize).Error; err != nil {
				return fmt.Errorf("create follows: %w", err)
			}
		}
		stats.Follows = len(follows)

		posts := make([]*models.Post, 0, p.Posts)
		for i := 0; i < p.Posts; i++ {
			posts = append(posts, f.BuildPost(users[f.rng.Intn(len(users))]))
		}
		if len(posts) > 0 {
			if err := tx.CreateInBatches(posts, batchSize).Error; err != nil {
				return fmt.Errorf("create posts: %w", err)
			}
		}
		stats.Posts = len(posts)

		var (
			likes    []*models.Like
			comments []*models.Comment
			views    []*models.PostView
		)
		for _, post := range posts {
			// Distinct likers per post keep (post, user) unique.
			order := f.rng.Perm(len(users))
			n := f.rng.Intn(min(p.MaxLikesPerPost, len(users)) + 1)
			for _, idx := range order[:n] {
				likes = append(likes, f.BuildLike(post, users[idx]))
				views = append(views, &models.PostView{PostID: post.ID, UserID: users[idx].ID})
			}
			for c := f.rng.Intn(p.MaxCommentsPerPost + 1); c > 0; c-- {
				comments = append(comments, f.BuildComment(post, users[f.rng.Intn(len(users))]))
			}
		}
		if len(likes) > 0 {
			if err := tx.CreateInBatches(likes, batchSize).Error; err != nil {
				return fmt.Errorf("create likes: %w", err)
			}
			if err := tx.CreateInBatches(views, batchSize).Error; err != nil {
				return fmt.Errorf("create views: %w", err)
			}
		}
		if len(comments) > 0 {
			if err := tx.CreateInBatches(comments, batchSize).Error; err != nil {
				return fmt.Errorf("create comments: %w", err)
			}
		}
		stats.Likes = len(likes)
		stats.Views = len(views)
		stats.Comments = len(comments)

		if s.DryRun {
			return errDryRun
		}
		return nil
	})
	if errors.Is(err, errDryRun) {
		err = nil
	}
	if err != nil {
		return Stats{}, err
	}

	middleware.Logger.Info("seed applied",
		"preset", p.Name,
		"dry_run", s.DryRun,
		"users", stats.Users,
		"follows", stats.Follows,
		"posts", stats.Posts,
		"likes", stats.Likes,
		"comments", stats.Comments,
	)
	return stats, nil
}

// ClearAll removes every seeded table's rows, children first.
func (s *Seeder) ClearAll(ctx context.Context) error {
	tables := []any{
		&models.PostView{},
		&models.Comment{},
		&models.Like{},
		&models.Post{},
		&models.Follow{},
		&models.User{},
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, t := range tables {
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(t).Error; err != nil {
				return fmt.Errorf("clear %T: %w", t, err)
			}
		}
		return nil
	})
}

func laterOf(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}
