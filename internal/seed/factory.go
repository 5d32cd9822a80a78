package seed

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"picfeed/internal/models"
	"picfeed/internal/validation"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
)

// Factory builds domain entities with realistic fake content. It does not
// touch the database; the Seeder persists what it builds.
type Factory struct {
	faker        *gofakeit.Faker
	rng          *rand.Rand
	passwordHash string
	maxDays      int
	now          time.Time
}

// NewFactory returns a factory whose output is fully determined by seed.
// Every built user gets password as its password.
func NewFactory(seed int64, password string, maxDays int) (*Factory, error) {
	if password == "" {
		password = DefaultPassword
	}
	// One hash for every account keeps large presets fast.
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return nil, fmt.Errorf("hash seed password: %w", err)
	}
	if maxDays < 1 {
		maxDays = 1
	}
	return &Factory{
		faker:        gofakeit.New(seed),
		rng:          rand.New(rand.NewSource(seed)),
		passwordHash: string(hash),
		maxDays:      maxDays,
		now:          time.Now().UTC(),
	}, nil
}

// username derives a valid, unique username from a fake one.
func username(fake string, n int) string {
	var b strings.Builder
	for _, r := range strings.ToLower(fake) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' || r == '.' {
			b.WriteRune(r)
		}
	}
	base := b.String()
	if len(base) < validation.MinUsernameLength {
		base = "user"
	}
	if len(base) > 20 {
		base = base[:20]
	}
	return fmt.Sprintf("%s_%d", base, n)
}

// BuildUser returns the n-th seeded user. n keeps usernames and emails unique.
func (f *Factory) BuildUser(n int) *models.User {
	name := username(f.faker.Username(), n)
	return &models.User{
		Username:  name,
		Email:     name + "@example.com",
		Password:  f.passwordHash,
		FirstName: f.faker.FirstName(),
		LastName:  f.faker.LastName(),
		Bio:       f.faker.Sentence(8),
		Avatar:    fmt.Sprintf("https://i.pravatar.cc/150?u=%s", f.faker.UUID()),
		Language:  models.LanguageEnglish,
		CreatedAt: f.pastTime(),
	}
}

// BuildPost returns a post by author with a remote placeholder image.
func (f *Factory) BuildPost(author *models.User) *models.Post {
	createdAt := f.pastTime()
	if createdAt.Before(author.CreatedAt) {
		createdAt = author.CreatedAt
	}
	caption := f.faker.Sentence(f.rng.Intn(12) + 3)
	if f.rng.Intn(3) == 0 {
		caption += " #" + strings.ToLower(f.faker.HipsterWord())
	}
	return &models.Post{
		UserID:    author.ID,
		Caption:   truncate(caption, validation.MaxCaptionLength),
		ImageURL:  fmt.Sprintf("https://picsum.photos/seed/%s/800/800", f.faker.UUID()),
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
}

// BuildComment returns a comment on post by author, posted after the post.
func (f *Factory) BuildComment(post *models.Post, author *models.User) *models.Comment {
	return &models.Comment{
		PostID:    post.ID,
		UserID:    author.ID,
		Text:      truncate(f.faker.Sentence(f.rng.Intn(10)+2), validation.MaxCommentLength),
		CreatedAt: f.after(post.CreatedAt),
	}
}

func (f *Factory) BuildLike(post *models.Post, user *models.User) *models.Like {
	return &models.Like{
		PostID:    post.ID,
		UserID:    user.ID,
		CreatedAt: f.after(post.CreatedAt),
	}
}

// pastTime is a random moment within the trailing maxDays.
func (f *Factory) pastTime() time.Time {
	span := time.Duration(f.maxDays) * 24 * time.Hour
	return f.now.Add(-time.Duration(f.rng.Int63n(int64(span))))
}

// after is a random moment between t and now.
func (f *Factory) after(t time.Time) time.Time {
	gap := f.now.Sub(t)
	if gap <= 0 {
		return f.now
	}
	return t.Add(time.Duration(f.rng.Int63n(int64(gap))))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
