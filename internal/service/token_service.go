package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"picfeed/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	tokenIssuer   = "picfeed-api"
	tokenAudience = "picfeed-client"
)

// Token types carried in the typ claim.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// TokenPair is returned on login.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// TokenClaims is the validated content of a token.
type TokenClaims struct {
	UserID    uint
	Type      string
	JTI       string
	ExpiresAt time.Time
}

// Revoker blacklists JWT IDs. cache.TokenBlacklist satisfies it.
type Revoker interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// TokenService issues and validates HS256 access and refresh tokens.
type TokenService struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	revoker    Revoker
	now        func() time.Time
}

func NewTokenService(secret string, accessTTL, refreshTTL time.Duration, revoker Revoker) *TokenService {
	return &TokenService{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		revoker:    revoker,
		now:        time.Now,
	}
}

func (s *TokenService) generate(userID uint, typ string, ttl time.Duration) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"sub": strconv.FormatUint(uint64(userID), 10),
		"typ": typ,
		"iss": tokenIssuer,
		"aud": tokenAudience,
		"exp": now.Add(ttl).Unix(),
		"iat": now.Unix(),
		"nbf": now.Unix(),
		"jti": uuid.NewString(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// IssuePair creates a fresh access and refresh token for userID.
func (s *TokenService) IssuePair(userID uint) (*TokenPair, error) {
	access, err := s.generate(userID, TokenTypeAccess, s.accessTTL)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}
	refresh, err := s.generate(userID, TokenTypeRefresh, s.refreshTTL)
	if err != nil {
		return nil, fmt.Errorf("sign refresh token: %w", err)
	}
	return &TokenPair{Access: access, Refresh: refresh}, nil
}

// IssueAccess creates an access token only.
func (s *TokenService) IssueAccess(userID uint) (string, error) {
	return s.generate(userID, TokenTypeAccess, s.accessTTL)
}

// Parse validates signature, issuer, audience, expiry, type and revocation.
func (s *TokenService) Parse(ctx context.Context, raw, wantType string) (*TokenClaims, error) {
	token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithAudience(tokenAudience),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid {
		return nil, models.NewUnauthorizedError("Invalid or expired token")
	}

	mc, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, models.NewUnauthorizedError("Invalid token claims")
	}
	typ, _ := mc["typ"].(string)
	if typ != wantType {
		return nil, models.NewUnauthorizedError("Token has wrong type")
	}
	sub, err := mc.GetSubject()
	if err != nil {
		return nil, models.NewUnauthorizedError("Invalid token subject")
	}
	id, err := strconv.ParseUint(sub, 10, 64)
	if err != nil || id == 0 {
		return nil, models.NewUnauthorizedError("Invalid token subject")
	}
	exp, err := mc.GetExpirationTime()
	if err != nil || exp == nil {
		return nil, models.NewUnauthorizedError("Invalid token expiry")
	}
	jti, _ := mc["jti"].(string)

	if s.revoker != nil && jti != "" {
		revoked, err := s.revoker.IsRevoked(ctx, jti)
		if err != nil {
			return nil, models.NewInternalError(err)
		}
		if revoked {
			return nil, models.NewUnauthorizedError("Token has been revoked")
		}
	}

	return &TokenClaims{UserID: uint(id), Type: typ, JTI: jti, ExpiresAt: exp.Time}, nil
}

// Revoke blacklists the token for the rest of its lifetime.
func (s *TokenService) Revoke(ctx context.Context, claims *TokenClaims) error {
	if s.revoker == nil || claims == nil {
		return nil
	}
	ttl := claims.ExpiresAt.Sub(s.now())
	if err := s.revoker.Revoke(ctx, claims.JTI, ttl); err != nil {
		return models.NewInternalError(fmt.Errorf("revoke token: %w", err))
	}
	return nil
}
