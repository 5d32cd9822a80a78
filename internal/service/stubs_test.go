package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"picfeed/internal/media"
	"picfeed/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// userRepoStub is a stub for repository.UserRepository.
type userRepoStub struct {
	getByIDFn       func(context.Context, uint) (*models.User, error)
	getByEmailFn    func(context.Context, string) (*models.User, error)
	getByUsernameFn func(context.Context, string) (*models.User, error)
	usernameTakenFn func(context.Context, string, uint) (bool, error)
	emailTakenFn    func(context.Context, string) (bool, error)
	createFn        func(context.Context, *models.User) error
	updateFn        func(context.Context, *models.User) error
	softDeleteFn    func(context.Context, uint, time.Time) error
	recordLoginFn   func(context.Context, uint, time.Time) error
	setAdminFn      func(context.Context, uint, bool) error
	listAdminsFn    func(context.Context) ([]models.User, error)
	searchFn        func(context.Context, string, int, int) ([]models.User, int64, error)
	suggestedFn     func(context.Context, uint, int) ([]models.User, error)
	profileFn       func(context.Context, string) (*models.UserProfile, error)
}

func (s *userRepoStub) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getByEmailFn(ctx, email)
}
func (s *userRepoStub) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getByUsernameFn(ctx, username)
}
func (s *userRepoStub) UsernameTaken(ctx context.Context, username string, exceptID uint) (bool, error) {
	return s.usernameTakenFn(ctx, username, exceptID)
}
func (s *userRepoStub) EmailTaken(ctx context.Context, email string) (bool, error) {
	return s.emailTakenFn(ctx, email)
}
func (s *userRepoStub) Create(ctx context.Context, user *models.User) error {
	return s.createFn(ctx, user)
}
func (s *userRepoStub) Update(ctx context.Context, user *models.User) error {
	return s.updateFn(ctx, user)
}
func (s *userRepoStub) SoftDelete(ctx context.Context, id uint, at time.Time) error {
	return s.softDeleteFn(ctx, id, at)
}
func (s *userRepoStub) RecordLogin(ctx context.Context, id uint, at time.Time) error {
	return s.recordLoginFn(ctx, id, at)
}
func (s *userRepoStub) SetAdmin(ctx context.Context, id uint, isAdmin bool) error {
	return s.setAdminFn(ctx, id, isAdmin)
}
func (s *userRepoStub) ListAdmins(ctx context.Context) ([]models.User, error) {
	return s.listAdminsFn(ctx)
}
func (s *userRepoStub) Search(ctx context.Context, query string, limit, offset int) ([]models.User, int64, error) {
	return s.searchFn(ctx, query, limit, offset)
}
func (s *userRepoStub) Suggested(ctx context.Context, userID uint, limit int) ([]models.User, error) {
	return s.suggestedFn(ctx, userID, limit)
}
func (s *userRepoStub) Profile(ctx context.Context, username string) (*models.UserProfile, error) {
	return s.profileFn(ctx, username)
}

func noopUserRepo() *userRepoStub {
	return &userRepoStub{
		getByIDFn: func(_ context.Context, id uint) (*models.User, error) {
			return &models.User{ID: id, Username: "user"}, nil
		},
		getByEmailFn:    func(_ context.Context, _ string) (*models.User, error) { return nil, nil },
		getByUsernameFn: func(_ context.Context, _ string) (*models.User, error) { return nil, nil },
		usernameTakenFn: func(_ context.Context, _ string, _ uint) (bool, error) { return false, nil },
		emailTakenFn:    func(_ context.Context, _ string) (bool, error) { return false, nil },
		createFn:        func(_ context.Context, _ *models.User) error { return nil },
		updateFn:        func(_ context.Context, _ *models.User) error { return nil },
		softDeleteFn:    func(_ context.Context, _ uint, _ time.Time) error { return nil },
		recordLoginFn:   func(_ context.Context, _ uint, _ time.Time) error { return nil },
		setAdminFn:      func(_ context.Context, _ uint, _ bool) error { return nil },
		listAdminsFn:    func(_ context.Context) ([]models.User, error) { return nil, nil },
		searchFn:        func(_ context.Context, _ string, _, _ int) ([]models.User, int64, error) { return nil, 0, nil },
		suggestedFn:     func(_ context.Context, _ uint, _ int) ([]models.User, error) { return nil, nil },
		profileFn:       func(_ context.Context, _ string) (*models.UserProfile, error) { return nil, nil },
	}
}

// followRepoStub is a stub for repository.FollowRepository.
type followRepoStub struct {
	existsFn    func(context.Context, uint, uint) (bool, error)
	createFn    func(context.Context, *models.Follow) error
	deleteFn    func(context.Context, uint, uint) (bool, error)
	followersFn func(context.Context, uint, int, int) ([]models.User, int64, error)
	followingFn func(context.Context, uint, int, int) ([]models.User, int64, error)
}

func (s *followRepoStub) Exists(ctx context.Context, followerID, followingID uint) (bool, error) {
	return s.existsFn(ctx, followerID, followingID)
}
func (s *followRepoStub) Create(ctx context.Context, follow *models.Follow) error {
	return s.createFn(ctx, follow)
}
func (s *followRepoStub) Delete(ctx context.Context, followerID, followingID uint) (bool, error) {
	return s.deleteFn(ctx, followerID, followingID)
}
func (s *followRepoStub) Followers(ctx context.Context, userID uint, limit, offset int) ([]models.User, int64, error) {
	return s.followersFn(ctx, userID, limit, offset)
}
func (s *followRepoStub) Following(ctx context.Context, userID uint, limit, offset int) ([]models.User, int64, error) {
	return s.followingFn(ctx, userID, limit, offset)
}

func noopFollowRepo() *followRepoStub {
	return &followRepoStub{
		existsFn:    func(_ context.Context, _, _ uint) (bool, error) { return false, nil },
		createFn:    func(_ context.Context, _ *models.Follow) error { return nil },
		deleteFn:    func(_ context.Context, _, _ uint) (bool, error) { return true, nil },
		followersFn: func(_ context.Context, _ uint, _, _ int) ([]models.User, int64, error) { return nil, 0, nil },
		followingFn: func(_ context.Context, _ uint, _, _ int) ([]models.User, int64, error) { return nil, 0, nil },
	}
}

// postRepoStub is a stub for repository.PostRepository.
type postRepoStub struct {
	createFn        func(context.Context, *models.Post) error
	getByIDFn       func(context.Context, uint, uint) (*models.Post, error)
	listFn          func(context.Context, uint, int, int) ([]*models.Post, int64, error)
	listByUserFn    func(context.Context, uint, uint, int, int) ([]*models.Post, int64, error)
	feedFn          func(context.Context, uint, int, int) ([]*models.Post, int64, error)
	topPostsFn      func(context.Context, time.Time, uint, int, int) ([]*models.Post, int64, error)
	updateCaptionFn func(context.Context, uint, string, bool) error
	deleteFn        func(context.Context, uint) error
}

func (s *postRepoStub) Create(ctx context.Context, post *models.Post) error {
	return s.createFn(ctx, post)
}
func (s *postRepoStub) GetByID(ctx context.Context, id, viewerID uint) (*models.Post, error) {
	return s.getByIDFn(ctx, id, viewerID)
}
func (s *postRepoStub) List(ctx context.Context, viewerID uint, limit, offset int) ([]*models.Post, int64, error) {
	return s.listFn(ctx, viewerID, limit, offset)
}
func (s *postRepoStub) ListByUser(ctx context.Context, userID, viewerID uint, limit, offset int) ([]*models.Post, int64, error) {
	return s.listByUserFn(ctx, userID, viewerID, limit, offset)
}
func (s *postRepoStub) Feed(ctx context.Context, viewerID uint, limit, offset int) ([]*models.Post, int64, error) {
	return s.feedFn(ctx, viewerID, limit, offset)
}
func (s *postRepoStub) TopPosts(ctx context.Context, since time.Time, viewerID uint, limit, offset int) ([]*models.Post, int64, error) {
	return s.topPostsFn(ctx, since, viewerID, limit, offset)
}
func (s *postRepoStub) UpdateCaption(ctx context.Context, id uint, caption string, edited bool) error {
	return s.updateCaptionFn(ctx, id, caption, edited)
}
func (s *postRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}

func noopPostRepo() *postRepoStub {
	return &postRepoStub{
		createFn: func(_ context.Context, _ *models.Post) error { return nil },
		getByIDFn: func(_ context.Context, id, _ uint) (*models.Post, error) {
			return &models.Post{ID: id, UserID: 1}, nil
		},
		listFn:          func(_ context.Context, _ uint, _, _ int) ([]*models.Post, int64, error) { return nil, 0, nil },
		listByUserFn:    func(_ context.Context, _, _ uint, _, _ int) ([]*models.Post, int64, error) { return nil, 0, nil },
		feedFn:          func(_ context.Context, _ uint, _, _ int) ([]*models.Post, int64, error) { return nil, 0, nil },
		topPostsFn:      func(_ context.Context, _ time.Time, _ uint, _, _ int) ([]*models.Post, int64, error) { return nil, 0, nil },
		updateCaptionFn: func(_ context.Context, _ uint, _ string, _ bool) error { return nil },
		deleteFn:        func(_ context.Context, _ uint) error { return nil },
	}
}

// likeRepoStub is a stub for repository.LikeRepository.
type likeRepoStub struct {
	existsFn     func(context.Context, uint, uint) (bool, error)
	createFn     func(context.Context, *models.Like) error
	deleteFn     func(context.Context, uint, uint) (bool, error)
	listByPostFn func(context.Context, uint, int, int) ([]*models.Like, int64, error)
}

func (s *likeRepoStub) Exists(ctx context.Context, postID, userID uint) (bool, error) {
	return s.existsFn(ctx, postID, userID)
}
func (s *likeRepoStub) Create(ctx context.Context, like *models.Like) error {
	return s.createFn(ctx, like)
}
func (s *likeRepoStub) Delete(ctx context.Context, postID, userID uint) (bool, error) {
	return s.deleteFn(ctx, postID, userID)
}
func (s *likeRepoStub) ListByPost(ctx context.Context, postID uint, limit, offset int) ([]*models.Like, int64, error) {
	return s.listByPostFn(ctx, postID, limit, offset)
}

func noopLikeRepo() *likeRepoStub {
	return &likeRepoStub{
		existsFn:     func(_ context.Context, _, _ uint) (bool, error) { return false, nil },
		createFn:     func(_ context.Context, _ *models.Like) error { return nil },
		deleteFn:     func(_ context.Context, _, _ uint) (bool, error) { return true, nil },
		listByPostFn: func(_ context.Context, _ uint, _, _ int) ([]*models.Like, int64, error) { return nil, 0, nil },
	}
}

// commentRepoStub is a stub for repository.CommentRepository.
type commentRepoStub struct {
	createFn     func(context.Context, *models.Comment) error
	getByIDFn    func(context.Context, uint) (*models.Comment, error)
	listByPostFn func(context.Context, uint, int, int) ([]*models.Comment, int64, error)
	deleteFn     func(context.Context, uint) error
}

func (s *commentRepoStub) Create(ctx context.Context, comment *models.Comment) error {
	return s.createFn(ctx, comment)
}
func (s *commentRepoStub) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	return s.getByIDFn(ctx, id)
}
func (s *commentRepoStub) ListByPost(ctx context.Context, postID uint, limit, offset int) ([]*models.Comment, int64, error) {
	return s.listByPostFn(ctx, postID, limit, offset)
}
func (s *commentRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}

func noopCommentRepo() *commentRepoStub {
	return &commentRepoStub{
		createFn:     func(_ context.Context, _ *models.Comment) error { return nil },
		getByIDFn:    func(_ context.Context, id uint) (*models.Comment, error) { return &models.Comment{ID: id, UserID: 1}, nil },
		listByPostFn: func(_ context.Context, _ uint, _, _ int) ([]*models.Comment, int64, error) { return nil, 0, nil },
		deleteFn:     func(_ context.Context, _ uint) error { return nil },
	}
}

// viewRepoStub is a stub for repository.PostViewRepository.
type viewRepoStub struct {
	recordFn func(context.Context, uint, uint) error
	countFn  func(context.Context, uint) (int64, error)
}

func (s *viewRepoStub) Record(ctx context.Context, postID, userID uint) error {
	return s.recordFn(ctx, postID, userID)
}
func (s *viewRepoStub) Count(ctx context.Context, postID uint) (int64, error) {
	return s.countFn(ctx, postID)
}

func noopViewRepo() *viewRepoStub {
	return &viewRepoStub{
		recordFn: func(_ context.Context, _, _ uint) error { return nil },
		countFn:  func(_ context.Context, _ uint) (int64, error) { return 0, nil },
	}
}

// imageStoreStub records saved and deleted keys.
type imageStoreStub struct {
	saveErr error
	saved   []string
	deleted []string
}

func (s *imageStoreStub) SaveImage(_ context.Context, content []byte) (*media.StoredImage, error) {
	if s.saveErr != nil {
		return nil, s.saveErr
	}
	key := "posts/test.webp"
	s.saved = append(s.saved, key)
	return &media.StoredImage{Key: key, URL: "/media/" + key, Size: int64(len(content))}, nil
}

func (s *imageStoreStub) Delete(key string) error {
	if key != "" {
		s.deleted = append(s.deleted, key)
	}
	return nil
}

func (s *imageStoreStub) KeyForURL(u string) string {
	if len(u) > len("/media/") && u[:len("/media/")] == "/media/" {
		return u[len("/media/"):]
	}
	return ""
}

// notifierStub collects notifications; wait blocks until n have arrived.
type notifierStub struct {
	mu     sync.Mutex
	events []notification
	ch     chan struct{}
}

type notification struct {
	recipient uint
	eventType string
}

func newNotifierStub() *notifierStub {
	return &notifierStub{ch: make(chan struct{}, 16)}
}

func (n *notifierStub) Notify(_ context.Context, recipientID uint, eventType string, _ interface{}) error {
	n.mu.Lock()
	n.events = append(n.events, notification{recipient: recipientID, eventType: eventType})
	n.mu.Unlock()
	n.ch <- struct{}{}
	return nil
}

func (n *notifierStub) wait(timeout time.Duration) bool {
	select {
	case <-n.ch:
		return true
	case <-time.After(timeout):
		return false
	}
}

func (n *notifierStub) snapshot() []notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notification(nil), n.events...)
}

type flagsStub map[string]bool

func (f flagsStub) Enabled(name string, _ uint) bool { return f[name] }

func adminChecker(admins ...uint) AdminChecker {
	return func(_ context.Context, userID uint) (bool, error) {
		for _, id := range admins {
			if id == userID {
				return true, nil
			}
		}
		return false, nil
	}
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, code, appErr.Code)
}
