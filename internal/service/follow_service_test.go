package service

import (
	"context"
	"testing"
	"time"

	"picfeed/internal/models"
	"picfeed/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func followFixture() (*userRepoStub, *followRepoStub, map[[2]uint]bool) {
	edges := map[[2]uint]bool{}
	users := noopUserRepo()
	users.getByUsernameFn = func(_ context.Context, username string) (*models.User, error) {
		switch username {
		case "alice":
			return &models.User{ID: 1, Username: "alice"}, nil
		case "bob":
			return &models.User{ID: 2, Username: "bob"}, nil
		}
		return nil, nil
	}
	follows := noopFollowRepo()
	follows.existsFn = func(_ context.Context, a, b uint) (bool, error) { return edges[[2]uint{a, b}], nil }
	follows.createFn = func(_ context.Context, f *models.Follow) error {
		edges[[2]uint{f.FollowerID, f.FollowingID}] = true
		return nil
	}
	follows.deleteFn = func(_ context.Context, a, b uint) (bool, error) {
		key := [2]uint{a, b}
		existed := edges[key]
		delete(edges, key)
		return existed, nil
	}
	return users, follows, edges
}

func TestFollowService_FollowUnfollowRoundTrip(t *testing.T) {
	ctx := context.Background()
	users, follows, edges := followFixture()
	notifier := newNotifierStub()
	svc := NewFollowService(users, follows, notifier)
	alice := &models.User{ID: 1, Username: "alice"}

	res, err := svc.Follow(ctx, alice, "bob")
	require.NoError(t, err)
	assert.Equal(t, "You are now following bob", res.Message)
	assert.True(t, edges[[2]uint{1, 2}])

	require.True(t, notifier.wait(time.Second))
	assert.Equal(t, []notification{{recipient: 2, eventType: NotifyFollow}}, notifier.snapshot())

	_, err = svc.Follow(ctx, alice, "bob")
	assertCode(t, err, models.CodeAlreadyFollowed)

	res, err = svc.Unfollow(ctx, alice, "bob")
	require.NoError(t, err)
	assert.Equal(t, "You have unfollowed bob", res.Message)
	assert.Empty(t, edges, "unfollow restores the graph")

	_, err = svc.Unfollow(ctx, alice, "bob")
	assertCode(t, err, models.CodeNotFollowing)
}

func TestFollowService_Rejects(t *testing.T) {
	ctx := context.Background()
	users, follows, _ := followFixture()
	svc := NewFollowService(users, follows, nil)
	alice := &models.User{ID: 1, Username: "alice"}

	_, err := svc.Follow(ctx, alice, "alice")
	assertCode(t, err, models.CodeSelfFollow)

	_, err = svc.Unfollow(ctx, alice, "alice")
	assertCode(t, err, models.CodeSelfFollow)

	_, err = svc.Follow(ctx, alice, "ghost")
	assertCode(t, err, models.CodeUserNotFound)
}

func TestFollowService_RaceBecomesConflict(t *testing.T) {
	users, follows, _ := followFixture()
	follows.createFn = func(_ context.Context, _ *models.Follow) error { return repository.ErrDuplicate }
	svc := NewFollowService(users, follows, nil)

	_, err := svc.Follow(context.Background(), &models.User{ID: 1, Username: "alice"}, "bob")
	assertCode(t, err, models.CodeConflict)
}

func TestFollowService_Lists(t *testing.T) {
	users, follows, _ := followFixture()
	follows.followersFn = func(_ context.Context, userID uint, limit, offset int) ([]models.User, int64, error) {
		assert.Equal(t, uint(2), userID)
		assert.Equal(t, DefaultPageSize, limit)
		assert.Equal(t, 0, offset)
		return []models.User{{ID: 1, Username: "alice"}}, 1, nil
	}
	svc := NewFollowService(users, follows, nil)

	page, err := svc.Followers(context.Background(), "bob", PageRequest{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Count)
	assert.Equal(t, "alice", page.Results[0].Username)

	page, err = svc.Following(context.Background(), "bob", PageRequest{})
	require.NoError(t, err)
	assert.Empty(t, page.Results)
	assert.NotNil(t, page.Results)

	_, err = svc.Following(context.Background(), "ghost", PageRequest{})
	assertCode(t, err, models.CodeUserNotFound)
}
