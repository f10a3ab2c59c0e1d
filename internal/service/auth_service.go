package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/Abhirsi/HawalaSend-backend/internal/auth"
	apperrors "github.com/Abhirsi/HawalaSend-backend/internal/errors"
	"github.com/Abhirsi/HawalaSend-backend/internal/model"
	"github.com/Abhirsi/HawalaSend-backend/internal/repository"
)

// PasswordHasher is the credential hashing contract, implemented by
// auth.Hasher.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, digest string) bool
	VerifyDecoy(plaintext string)
}

// AuthService implements the registration and login protocols.
type AuthService interface {
	// Register runs Validate -> CheckDuplicate -> HashPassword ->
	// InsertAtomic -> IssueToken inside one unit of work and returns the
	// created user and a session token.
	Register(ctx context.Context, email, username, password string) (*model.User, string, error)
	// Login authenticates a user and returns a session token. source is the
	// client address used for the attempt limiter.
	Login(ctx context.Context, email, password, source string) (*model.User, string, error)
	// ResolveActiveUser maps a verified token subject to an active user.
	ResolveActiveUser(ctx context.Context, id uint) (*model.User, error)
}

type authService struct {
	users    repository.UserRepository
	hasher   PasswordHasher
	tokens   *auth.JWTService
	limiter  *auth.AttemptLimiter
	tokenTTL time.Duration
}

// NewAuthService creates a new authentication service.
func NewAuthService(
	users repository.UserRepository,
	hasher PasswordHasher,
	tokens *auth.JWTService,
	limiter *auth.AttemptLimiter,
	tokenTTL time.Duration,
) AuthService {
	return &authService{
		users:    users,
		hasher:   hasher,
		tokens:   tokens,
		limiter:  limiter,
		tokenTTL: tokenTTL,
	}
}

// Register creates a new account. The duplicate check and insert run in one
// transaction; the database uniqueness constraint closes the remaining race
// window, so a concurrent registration with the same email or username maps
// to the same conflict as a checked duplicate. The conflict never reveals
// which field collided.
func (s *authService) Register(ctx context.Context, email, username, password string) (*model.User, string, error) {
	if err := validateRegistration(email, username, password); err != nil {
		return nil, "", err
	}

	email = strings.ToLower(strings.TrimSpace(email))
	username = strings.ToLower(strings.TrimSpace(username))

	var user *model.User
	var token string

	err := s.users.WithTransaction(ctx, func(ctx context.Context, repo repository.UserRepository) error {
		existing, err := repo.FindByEmailOrUsername(ctx, email, username)
		if err == nil && existing != nil {
			return apperrors.ErrUserExists
		}
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("check user existence: %w", err)
		}

		hash, err := s.hasher.Hash(password)
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}

		user = &model.User{
			Email:        email,
			Username:     username,
			PasswordHash: hash,
			Role:         model.RoleUser,
			Status:       model.StatusActive,
		}
		if err := repo.Create(ctx, user); err != nil {
			if errors.Is(err, repository.ErrDuplicateUser) {
				return apperrors.ErrUserExists
			}
			return fmt.Errorf("create user: %w", err)
		}

		token, err = s.tokens.Issue(user.ID, user.Role, s.tokenTTL)
		if err != nil {
			return fmt.Errorf("issue token: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, "", err
	}

	return user, token, nil
}

// Login verifies credentials and issues a session token. When no account
// matches, a decoy verification runs anyway so response latency does not
// reveal account existence, and the error is identical to the wrong-password
// case.
func (s *authService) Login(ctx context.Context, email, password, source string) (*model.User, string, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, "", apperrors.NewValidationError(map[string]string{
			"email":    "must not be empty",
			"password": "must not be empty",
		})
	}

	if blocked, retryAfter := s.limiter.Blocked(ctx, source); blocked {
		return nil, "", &apperrors.RateLimitError{
			RetryAfterSeconds: int(retryAfter / time.Second),
		}
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.hasher.VerifyDecoy(password)
			s.limiter.RecordFailure(ctx, source)
			return nil, "", apperrors.ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("find user: %w", err)
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		s.limiter.RecordFailure(ctx, source)
		return nil, "", apperrors.ErrInvalidCredentials
	}

	// Identity is confirmed past this point, so the inactive status is a
	// distinct code rather than a generic credential failure.
	if !user.IsActive() {
		return nil, "", apperrors.ErrAccountInactive
	}

	s.limiter.Reset(ctx, source)

	token, err := s.tokens.Issue(user.ID, user.Role, s.tokenTTL)
	if err != nil {
		return nil, "", fmt.Errorf("issue token: %w", err)
	}

	return user, token, nil
}

// ResolveActiveUser loads the user behind a verified token. Absent and
// non-active users collapse to the same error.
func (s *authService) ResolveActiveUser(ctx context.Context, id uint) (*model.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserInactive
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	if !user.IsActive() {
		return nil, apperrors.ErrUserInactive
	}
	return user, nil
}
