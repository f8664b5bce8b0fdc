package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/taskhive/taskhive/internal/store"
	"github.com/taskhive/taskhive/types"
	"golang.org/x/crypto/bcrypt"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (types.User, error)
	GetByEmail(ctx context.Context, email string) (types.User, error)
	Create(ctx context.Context, user types.User) (types.User, error)
	List(ctx context.Context, offset, limit int) ([]types.User, int, error)
}

// UserService owns user records: registration, credential checks, and
// identity lookups. Lookup misses and password mismatches during a
// credential check are deliberately the same rejection, so callers cannot
// tell which credential was wrong.
type UserService struct {
	repo    UserRepository
	listURL string
}

// NewUserService constructs a UserService. listURL is the public endpoint
// the paginated user collection is served from, used for navigation links.
func NewUserService(repo UserRepository, listURL string) *UserService {
	return &UserService{repo: repo, listURL: listURL}
}

// Register creates a new user and returns its identifier. The email is
// normalized to lower case before the uniqueness check and the write.
func (s *UserService) Register(ctx context.Context, name, email, password string) (string, error) {
	email = normalizeEmail(email)
	if name == "" || email == "" || password == "" {
		return "", types.BadRequest("name, email and password are required")
	}

	_, err := s.repo.GetByEmail(ctx, email)
	if err == nil {
		return "", types.Conflict("Duplicated email address")
	}
	if !errors.Is(err, store.ErrNotFound) {
		return "", fmt.Errorf("checking email: %w", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}

	user, err := s.repo.Create(ctx, types.User{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         name,
		PasswordHash: string(hashed),
	})
	if err != nil {
		// A racing registration can slip past the lookup and hit the
		// unique index instead.
		if errors.Is(err, store.ErrDuplicate) {
			return "", types.Conflict("Duplicated email address")
		}
		return "", fmt.Errorf("creating user: %w", err)
	}
	return user.ID, nil
}

// ValidateCredentials returns the user matching the email/password pair.
func (s *UserService) ValidateCredentials(ctx context.Context, email, password string) (types.User, error) {
	user, err := s.repo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.User{}, types.Unauthorized("Invalid credentials")
		}
		return types.User{}, fmt.Errorf("looking up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return types.User{}, types.Unauthorized("Invalid credentials")
	}
	return user, nil
}

// FindOne returns the user with the given ID, password hash cleared.
func (s *UserService) FindOne(ctx context.Context, userID string) (types.User, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.User{}, types.NotFound("User not found")
		}
		return types.User{}, fmt.Errorf("looking up user: %w", err)
	}
	user.PasswordHash = ""
	return user, nil
}

// FindAll returns one page of users.
func (s *UserService) FindAll(ctx context.Context, page, limit int) (types.Page[types.User], error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	users, total, err := s.repo.List(ctx, (page-1)*limit, limit)
	if err != nil {
		return types.Page[types.User]{}, fmt.Errorf("listing users: %w", err)
	}
	return types.NewPage(users, total, page, limit, s.listURL), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
