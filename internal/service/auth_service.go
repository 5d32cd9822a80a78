package service

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"picfeed/internal/cache"
	"picfeed/internal/mailer"
	"picfeed/internal/middleware"
	"picfeed/internal/models"
	"picfeed/internal/observability"
	"picfeed/internal/repository"
	"picfeed/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

// CodeStore holds pending registrations keyed by verification code.
type CodeStore interface {
	Put(ctx context.Context, code string, payload []byte) (bool, error)
	Take(ctx context.Context, code string) ([]byte, error)
}

type RegisterInput struct {
	Username  string `json:"username" validate:"required,username"`
	Email     string `json:"email" validate:"required,email_address"`
	Password  string `json:"password" validate:"required,password"`
	FirstName string `json:"first_name" validate:"max=150"`
	LastName  string `json:"last_name" validate:"max=150"`
	Bio       string `json:"bio" validate:"max=1000"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResult is the login payload: the account basics plus a token pair.
type LoginResult struct {
	User   LoginUser  `json:"user"`
	Tokens *TokenPair `json:"tokens"`
}

type LoginUser struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// pendingUser is the registration payload kept in redis until the code is verified.
type pendingUser struct {
	Username     string `json:"username"`
	Email        string `json:"email"`
	PasswordHash string `json:"password"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Bio          string `json:"bio"`
}

const codeAttempts = 5

type AuthService struct {
	userRepo repository.UserRepository
	codes    CodeStore
	mail     mailer.Mailer
	tokens   *TokenService
	now      func() time.Time
	// async runs background work; tests replace it to run synchronously.
	async func(func())
}

func NewAuthService(userRepo repository.UserRepository, codes CodeStore, mail mailer.Mailer, tokens *TokenService) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		codes:    codes,
		mail:     mail,
		tokens:   tokens,
		now:      utcNow,
		async:    func(fn func()) { go fn() },
	}
}

// Register validates the request and stores it under a fresh 6-digit code,
// which is mailed to the given address. No user exists until VerifyCode.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) error {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = validation.NormalizeEmail(in.Email)
	if err := validation.Struct(in); err != nil {
		middleware.Logger.WarnContext(ctx, "registration rejected", "email", in.Email, "error", err)
		return err
	}

	fields := map[string]string{}
	emailTaken, err := s.userRepo.EmailTaken(ctx, in.Email)
	if err != nil {
		return models.NewInternalError(err)
	}
	if emailTaken {
		fields["email"] = "Email already registered!"
	}
	usernameTaken, err := s.userRepo.UsernameTaken(ctx, in.Username, 0)
	if err != nil {
		return models.NewInternalError(err)
	}
	if usernameTaken {
		fields["username"] = "This username is already taken!"
	}
	if len(fields) > 0 {
		middleware.Logger.WarnContext(ctx, "registration rejected", "email", in.Email, "fields", fields)
		return models.NewFieldValidationError(fields)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return models.NewInternalError(err)
	}
	payload, err := json.Marshal(pendingUser{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: string(hash),
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Bio:          in.Bio,
	})
	if err != nil {
		return models.NewInternalError(err)
	}

	code, err := s.storeCode(ctx, payload)
	if err != nil {
		return models.NewInternalError(err)
	}

	to := in.Email
	s.async(func() {
		bg, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
		defer cancel()
		body := fmt.Sprintf("Your picfeed verification code is %s. It expires in a few minutes.", code)
		if err := s.mail.Send(bg, to, "Your verification code", body); err != nil {
			observability.MailDeliveries.WithLabelValues("failed").Inc()
			observability.LogAsyncOperationError(bg, "send_verification_code", err, map[string]interface{}{"email": to})
			return
		}
		observability.MailDeliveries.WithLabelValues("sent").Inc()
	})
	return nil
}

func (s *AuthService) storeCode(ctx context.Context, payload []byte) (string, error) {
	for i := 0; i < codeAttempts; i++ {
		code, err := newVerificationCode()
		if err != nil {
			return "", err
		}
		ok, err := s.codes.Put(ctx, code, payload)
		if err != nil {
			return "", err
		}
		if ok {
			return code, nil
		}
	}
	return "", errors.New("no free verification code")
}

func newVerificationCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

// VerifyCode consumes a code and creates the pending user stored under it.
func (s *AuthService) VerifyCode(ctx context.Context, code string) (*models.User, error) {
	code = strings.TrimSpace(code)
	if len(code) != 6 || strings.Trim(code, "0123456789") != "" {
		return nil, models.NewFieldValidationError(map[string]string{"code": "Code must be 6 digits."})
	}

	raw, err := s.codes.Take(ctx, code)
	if errors.Is(err, cache.ErrCodeNotFound) {
		middleware.Logger.WarnContext(ctx, "email verification failed", "code", code)
		return nil, models.NewBusinessError(models.CodeVerificationExpired, "Verification code is invalid or expired.")
	}
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	var pending pendingUser
	if err := json.Unmarshal(raw, &pending); err != nil {
		return nil, models.NewInternalError(err)
	}

	user := &models.User{
		Username:  pending.Username,
		Email:     pending.Email,
		Password:  pending.PasswordHash,
		FirstName: pending.FirstName,
		LastName:  pending.LastName,
		Bio:       pending.Bio,
		Language:  models.LanguageEnglish,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, conflict("user", "Username or email was registered in the meantime", err)
		}
		return nil, models.NewInternalError(err)
	}
	middleware.Logger.InfoContext(ctx, "email verified", "user_id", user.ID)
	return user, nil
}

// Login checks credentials, reactivates a soft-deleted account and issues tokens.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	invalid := models.NewBusinessError(models.CodeInvalidCredentials, "No active account found with the given credentials")

	user, err := s.userRepo.GetByEmail(ctx, validation.NormalizeEmail(in.Email))
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if user == nil {
		return nil, invalid
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(in.Password)); err != nil {
		return nil, invalid
	}

	if user.IsDeleted {
		middleware.Logger.InfoContext(ctx, "account reactivated on login", "user_id", user.ID)
	}
	if err := s.userRepo.RecordLogin(ctx, user.ID, s.now()); err != nil {
		return nil, models.NewInternalError(err)
	}

	pair, err := s.tokens.IssuePair(user.ID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	middleware.Logger.InfoContext(ctx, "login successful", "user_id", user.ID)
	return &LoginResult{
		User:   LoginUser{ID: user.ID, Username: user.Username, Email: user.Email},
		Tokens: pair,
	}, nil
}

// Refresh exchanges a refresh token for a new access token.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	claims, err := s.tokens.Parse(ctx, refreshToken, TokenTypeRefresh)
	if err != nil {
		return "", err
	}
	return s.tokens.IssueAccess(claims.UserID)
}

// Logout revokes the given access token and, when present, the refresh token.
func (s *AuthService) Logout(ctx context.Context, access *TokenClaims, refreshToken string) error {
	if err := s.tokens.Revoke(ctx, access); err != nil {
		return err
	}
	if refreshToken == "" {
		return nil
	}
	claims, err := s.tokens.Parse(ctx, refreshToken, TokenTypeRefresh)
	if err != nil {
		// An unusable refresh token needs no revocation.
		return nil
	}
	return s.tokens.Revoke(ctx, claims)
}

// Authenticate validates a bearer access token.
func (s *AuthService) Authenticate(ctx context.Context, raw string) (*TokenClaims, error) {
	return s.tokens.Parse(ctx, raw, TokenTypeAccess)
}
