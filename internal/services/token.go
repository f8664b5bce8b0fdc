package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/taskhive/taskhive/internal/store"
	"github.com/taskhive/taskhive/types"
)

const authFailedMessage = "Authorization failed, please retry"

// TokenRepository defines persistence operations for session tokens.
type TokenRepository interface {
	Save(ctx context.Context, userID, token string) error
	Get(ctx context.Context, userID string) (string, error)
	Delete(ctx context.Context, userID string) error
}

// TokenService owns the single active session token per user. The signature
// on a token is only a fast pre-filter: a token is trusted when its
// signature and expiry check out AND the stored row for its user carries
// exactly that value. Deleting or overwriting the row therefore revokes a
// cryptographically still-valid token on the very next verification.
type TokenService struct {
	repo   TokenRepository
	secret []byte
	ttl    time.Duration
}

func NewTokenService(repo TokenRepository, secret string, ttl time.Duration) *TokenService {
	return &TokenService{repo: repo, secret: []byte(secret), ttl: ttl}
}

type tokenClaims struct {
	jwt.RegisteredClaims
	UserID string `json:"userId"`
}

// Issue signs a new token for the user and upserts it as the user's only
// active token, replacing any prior one.
func (s *TokenService) Issue(ctx context.Context, userID string) (string, error) {
	if userID == "" {
		return "", types.BadRequest("userId is required")
	}

	now := time.Now()
	claims := tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
		UserID: userID,
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}

	if err := s.repo.Save(ctx, userID, token); err != nil {
		return "", fmt.Errorf("saving token: %w", err)
	}
	return token, nil
}

// Verify checks the token's signature and expiry, then cross-checks the
// stored row for its user. Every failure mode is the same rejection; a
// caller learns nothing about why a token was refused.
func (s *TokenService) Verify(ctx context.Context, token string) (string, error) {
	userID, err := s.parseUserID(token)
	if err != nil {
		return "", types.Unauthorized(authFailedMessage)
	}

	stored, err := s.repo.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", types.Unauthorized(authFailedMessage)
		}
		return "", fmt.Errorf("looking up token: %w", err)
	}
	if stored != token {
		return "", types.Unauthorized(authFailedMessage)
	}
	return userID, nil
}

// Revoke deletes the user's token, if any.
func (s *TokenService) Revoke(ctx context.Context, userID string) error {
	if err := s.repo.Delete(ctx, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.NotFound("Token was not found")
		}
		return fmt.Errorf("deleting token: %w", err)
	}
	return nil
}

func (s *TokenService) parseUserID(token string) (string, error) {
	claims := &tokenClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return s.secret, nil
	})
	if err != nil {
		return "", err
	}
	if !parsed.Valid {
		return "", errors.New("invalid token")
	}
	// A well-signed token without a userId claim is still not a session token.
	if claims.UserID == "" {
		return "", errors.New("token has no userId claim")
	}
	return claims.UserID, nil
}
