package service

import (
	"context"
	"errors"
	"fmt"

	"picfeed/internal/cache"
	"picfeed/internal/middleware"
	"picfeed/internal/models"
	"picfeed/internal/observability"
	"picfeed/internal/repository"
)

type FollowService struct {
	userRepo   repository.UserRepository
	followRepo repository.FollowRepository
	notifier   Notifier
}

// FollowResult names the other side of a follow change.
type FollowResult struct {
	Message string
	Target  models.UserSummary
}

func NewFollowService(userRepo repository.UserRepository, followRepo repository.FollowRepository, notifier Notifier) *FollowService {
	return &FollowService{userRepo: userRepo, followRepo: followRepo, notifier: notifier}
}

func (s *FollowService) target(ctx context.Context, username string) (*models.User, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if user == nil {
		return nil, models.NewUserNotFoundError(username)
	}
	return user, nil
}

// Follow makes actor follow the active user named username.
func (s *FollowService) Follow(ctx context.Context, actor *models.User, username string) (*FollowResult, error) {
	target, err := s.target(ctx, username)
	if err != nil {
		return nil, err
	}
	if target.ID == actor.ID {
		return nil, models.NewBusinessError(models.CodeSelfFollow, "You can not follow yourself")
	}

	exists, err := s.followRepo.Exists(ctx, actor.ID, target.ID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if exists {
		return nil, models.NewBusinessError(models.CodeAlreadyFollowed, "Follow already created")
	}

	if err := s.followRepo.Create(ctx, &models.Follow{FollowerID: actor.ID, FollowingID: target.ID}); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, conflict("follow", "Follow already created", err)
		}
		return nil, models.NewInternalError(err)
	}

	observability.RecordEngagement(observability.EventFollow)
	cache.InvalidateProfiles(ctx, actor.Username, target.Username)
	middleware.Logger.InfoContext(ctx, "follow created", "follower_id", actor.ID, "following_id", target.ID)
	notify(ctx, s.notifier, target.ID, actor.ID, NotifyFollow, map[string]interface{}{
		"user": actor.Summary(),
	})

	return &FollowResult{
		Message: fmt.Sprintf("You are now following %s", target.Username),
		Target:  target.Summary(),
	}, nil
}

// Unfollow removes the edge from actor to username.
func (s *FollowService) Unfollow(ctx context.Context, actor *models.User, username string) (*FollowResult, error) {
	target, err := s.target(ctx, username)
	if err != nil {
		return nil, err
	}
	if target.ID == actor.ID {
		return nil, models.NewBusinessError(models.CodeSelfFollow, "You can not unfollow yourself")
	}

	removed, err := s.followRepo.Delete(ctx, actor.ID, target.ID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if !removed {
		return nil, models.NewBusinessError(models.CodeNotFollowing, "You are not following this user")
	}

	observability.RecordEngagement(observability.EventUnfollow)
	cache.InvalidateProfiles(ctx, actor.Username, target.Username)
	return &FollowResult{
		Message: fmt.Sprintf("You have unfollowed %s", target.Username),
		Target:  target.Summary(),
	}, nil
}

func (s *FollowService) Followers(ctx context.Context, username string, p PageRequest) (models.Page[models.UserSummary], error) {
	return s.list(ctx, username, p, s.followRepo.Followers)
}

func (s *FollowService) Following(ctx context.Context, username string, p PageRequest) (models.Page[models.UserSummary], error) {
	return s.list(ctx, username, p, s.followRepo.Following)
}

func (s *FollowService) list(
	ctx context.Context,
	username string,
	p PageRequest,
	fetch func(context.Context, uint, int, int) ([]models.User, int64, error),
) (models.Page[models.UserSummary], error) {
	target, err := s.target(ctx, username)
	if err != nil {
		return models.Page[models.UserSummary]{}, err
	}
	p = p.Normalize()
	users, total, err := fetch(ctx, target.ID, p.PageSize, p.Offset())
	if err != nil {
		return models.Page[models.UserSummary]{}, models.NewInternalError(err)
	}
	return newPage(summaries(users), total, p), nil
}
