package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"picfeed/internal/cache"
	"picfeed/internal/media"
	"picfeed/internal/middleware"
	"picfeed/internal/models"
	"picfeed/internal/repository"
	"picfeed/internal/validation"
)

// ImageStore persists uploaded images. media.Store satisfies it.
type ImageStore interface {
	SaveImage(ctx context.Context, content []byte) (*media.StoredImage, error)
	Delete(key string) error
	KeyForURL(u string) string
}

type UserService struct {
	userRepo       repository.UserRepository
	followRepo     repository.FollowRepository
	images         ImageStore
	suggestedLimit int
	now            func() time.Time
}

// UpdateMeInput carries the profile fields to change; nil fields are left as they are.
type UpdateMeInput struct {
	Username  *string `json:"username" validate:"omitempty,username_update"`
	FirstName *string `json:"first_name" validate:"omitempty,max=150"`
	LastName  *string `json:"last_name" validate:"omitempty,max=150"`
	Bio       *string `json:"bio" validate:"omitempty,max=1000"`
	Avatar    []byte  `json:"-"`
}

func NewUserService(
	userRepo repository.UserRepository,
	followRepo repository.FollowRepository,
	images ImageStore,
	suggestedLimit int,
) *UserService {
	if suggestedLimit <= 0 {
		suggestedLimit = 10
	}
	return &UserService{
		userRepo:       userRepo,
		followRepo:     followRepo,
		images:         images,
		suggestedLimit: suggestedLimit,
		now:            utcNow,
	}
}

func (s *UserService) GetMe(ctx context.Context, userID uint) (*models.User, error) {
	return s.userRepo.GetByID(ctx, userID)
}

// ResolveActive returns the active user with the given username.
func (s *UserService) ResolveActive(ctx context.Context, username string) (*models.User, error) {
	user, err := s.userRepo.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if user == nil {
		return nil, models.NewUserNotFoundError(username)
	}
	return user, nil
}

func (s *UserService) UpdateMe(ctx context.Context, userID uint, in UpdateMeInput) (*models.User, error) {
	if in.Username != nil {
		trimmed := strings.TrimSpace(*in.Username)
		in.Username = &trimmed
	}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	oldUsername := user.Username

	if in.Username != nil && *in.Username != user.Username {
		taken, err := s.userRepo.UsernameTaken(ctx, *in.Username, user.ID)
		if err != nil {
			return nil, models.NewInternalError(err)
		}
		if taken {
			middleware.Logger.WarnContext(ctx, "username conflict during update", "username", *in.Username)
			return nil, models.NewFieldValidationError(map[string]string{"username": "This username is already taken!"})
		}
		user.Username = *in.Username
	}
	if in.FirstName != nil {
		user.FirstName = *in.FirstName
	}
	if in.LastName != nil {
		user.LastName = *in.LastName
	}
	if in.Bio != nil {
		user.Bio = *in.Bio
	}

	var oldAvatarKey string
	if len(in.Avatar) > 0 {
		if s.images == nil {
			return nil, models.NewValidationError("Avatar uploads are not available")
		}
		saved, err := s.images.SaveImage(ctx, in.Avatar)
		if err != nil {
			return nil, err
		}
		oldAvatarKey = s.images.KeyForURL(user.Avatar)
		user.Avatar = saved.URL
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, conflict("user", "This username is already taken!", err)
		}
		return nil, models.NewInternalError(err)
	}
	if oldAvatarKey != "" {
		if err := s.images.Delete(oldAvatarKey); err != nil {
			middleware.Logger.WarnContext(ctx, "failed to delete previous avatar", "key", oldAvatarKey, "error", err)
		}
	}

	cache.InvalidateProfiles(ctx, oldUsername, user.Username)
	return user, nil
}

// DeleteMe soft-deletes the account. Logging in again reactivates it.
func (s *UserService) DeleteMe(ctx context.Context, userID uint) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.userRepo.SoftDelete(ctx, userID, s.now()); err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateProfiles(ctx, user.Username)
	middleware.Logger.InfoContext(ctx, "account soft-deleted", "user_id", userID)
	return nil
}

func (s *UserService) SetLanguage(ctx context.Context, userID uint, language string) (*models.User, error) {
	language = strings.ToLower(strings.TrimSpace(language))
	if err := validation.ValidateLanguage(language); err != nil {
		return nil, validation.FieldError("language", err)
	}
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.Language = language
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, models.NewInternalError(err)
	}
	return user, nil
}

// Search lists active users whose username or name contains query. An empty query lists everyone.
func (s *UserService) Search(ctx context.Context, query string, p PageRequest) (models.Page[models.UserSummary], error) {
	p = p.Normalize()
	users, total, err := s.userRepo.Search(ctx, strings.TrimSpace(query), p.PageSize, p.Offset())
	if err != nil {
		return models.Page[models.UserSummary]{}, models.NewInternalError(err)
	}
	return newPage(summaries(users), total, p), nil
}

// Suggested returns the newest active users the caller does not follow yet.
func (s *UserService) Suggested(ctx context.Context, userID uint) ([]models.UserSummary, error) {
	users, err := s.userRepo.Suggested(ctx, userID, s.suggestedLimit)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return summaries(users), nil
}

// Profile returns a public profile. Counters are cached briefly; is_following is always live.
func (s *UserService) Profile(ctx context.Context, viewerID uint, username string) (*models.UserProfile, error) {
	username = strings.TrimSpace(username)
	var profile models.UserProfile
	err := cache.Aside(ctx, cache.ProfileKey(username), &profile, cache.ProfileTTL, func() error {
		p, err := s.userRepo.Profile(ctx, username)
		if err != nil {
			return models.NewInternalError(err)
		}
		if p == nil {
			return models.NewUserNotFoundError(username)
		}
		profile = *p
		return nil
	})
	if err != nil {
		return nil, err
	}

	profile.IsFollowing = false
	if viewerID != 0 && viewerID != profile.ID {
		following, err := s.followRepo.Exists(ctx, viewerID, profile.ID)
		if err != nil {
			return nil, models.NewInternalError(err)
		}
		profile.IsFollowing = following
	}
	return &profile, nil
}

// IsAdmin satisfies AdminChecker.
func (s *UserService) IsAdmin(ctx context.Context, userID uint) (bool, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return false, err
	}
	return user.IsAdmin, nil
}

// IsActive reports whether the account exists and is not soft-deleted.
func (s *UserService) IsActive(ctx context.Context, userID uint) (bool, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if models.HasCode(err, models.CodeNotFound) {
			return false, nil
		}
		return false, err
	}
	return user.IsActive(), nil
}

// SetAdmin grants or revokes admin rights by username.
func (s *UserService) SetAdmin(ctx context.Context, username string, isAdmin bool) (*models.User, error) {
	user, err := s.ResolveActive(ctx, username)
	if err != nil {
		return nil, err
	}
	if err := s.userRepo.SetAdmin(ctx, user.ID, isAdmin); err != nil {
		return nil, err
	}
	user.IsAdmin = isAdmin
	return user, nil
}

func (s *UserService) ListAdmins(ctx context.Context) ([]models.User, error) {
	return s.userRepo.ListAdmins(ctx)
}

// Deactivate soft-deletes another account by username.
func (s *UserService) Deactivate(ctx context.Context, username string) (*models.User, error) {
	user, err := s.ResolveActive(ctx, username)
	if err != nil {
		return nil, err
	}
	if err := s.DeleteMe(ctx, user.ID); err != nil {
		return nil, err
	}
	return user, nil
}
