package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"taskpilot/internal/auth"
	apperrors "taskpilot/internal/errors"
	"taskpilot/internal/model"
	"taskpilot/internal/repository"
)

// ProfileUpdate carries a partial profile update. Nil fields are untouched.
type ProfileUpdate struct {
	Email    *string
	Username *string
}

// AuthService handles registration, login, logout and profile operations.
type AuthService interface {
	Register(ctx context.Context, email, username, password string) (*model.User, error)
	Login(ctx context.Context, email, password, ipAddress, userAgent string) (accessToken string, user *model.User, err error)
	Logout(ctx context.Context, claims *auth.Claims) error
	GetProfile(ctx context.Context, userID uuid.UUID) (*model.User, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, update ProfileUpdate) (*model.User, error)
}

type authService struct {
	userRepo   repository.UserRepository
	jwtService *auth.JWTService
	tokenStore auth.TokenStoreInterface
	sessions   SessionService
}

// NewAuthService creates a new authentication service.
func NewAuthService(userRepo repository.UserRepository, jwtService *auth.JWTService, tokenStore auth.TokenStoreInterface, sessions SessionService) AuthService {
	return &authService{
		userRepo:   userRepo,
		jwtService: jwtService,
		tokenStore: tokenStore,
		sessions:   sessions,
	}
}

// Register creates a new user with a hashed password. A taken email or
// username fails with ErrConflict.
func (s *authService) Register(ctx context.Context, email, username, password string) (*model.User, error) {
	if existing, err := s.userRepo.FindByEmail(ctx, email); err == nil && existing != nil {
		return nil, apperrors.ErrConflict
	} else if err != nil && err != gorm.ErrRecordNotFound {
		return nil, fmt.Errorf("check email: %w", err)
	}

	if existing, err := s.userRepo.FindByUsername(ctx, username); err == nil && existing != nil {
		return nil, apperrors.ErrConflict
	} else if err != nil && err != gorm.ErrRecordNotFound {
		return nil, fmt.Errorf("check username: %w", err)
	}

	hashed, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Email:        email,
		Username:     username,
		PasswordHash: hashed,
		Active:       true,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// Login verifies credentials, issues an access token and opens a session.
// Every failure mode reads the same to the caller.
func (s *authService) Login(ctx context.Context, email, password, ipAddress, userAgent string) (string, *model.User, error) {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return "", nil, apperrors.ErrUnauthenticated
	}
	if !user.Active {
		return "", nil, apperrors.ErrUnauthenticated
	}
	if !auth.VerifyPassword(password, user.PasswordHash) {
		return "", nil, apperrors.ErrUnauthenticated
	}

	accessToken, err := s.jwtService.GenerateAccessToken(user.ID, user.Email)
	if err != nil {
		return "", nil, fmt.Errorf("generate access token: %w", err)
	}

	if _, err := s.sessions.Create(ctx, user.ID, ipAddress, userAgent); err != nil {
		return "", nil, fmt.Errorf("create session: %w", err)
	}

	return accessToken, user, nil
}

// Logout blacklists the caller's access token for its remaining lifetime and
// invalidates all of the user's sessions.
func (s *authService) Logout(ctx context.Context, claims *auth.Claims) error {
	userID, err := claims.UserID()
	if err != nil {
		return apperrors.ErrUnauthenticated
	}

	if claims.ID != "" && claims.ExpiresAt != nil {
		remaining := time.Until(claims.ExpiresAt.Time)
		if err := s.tokenStore.BlacklistAccessToken(ctx, claims.ID, remaining); err != nil {
			return fmt.Errorf("blacklist token: %w", err)
		}
	}

	if _, err := s.sessions.InvalidateAll(ctx, userID); err != nil {
		return err
	}
	return nil
}

// GetProfile returns the user's own record.
func (s *authService) GetProfile(ctx context.Context, userID uuid.UUID) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}

// UpdateProfile changes email and/or username, re-checking uniqueness for
// whichever fields are present.
func (s *authService) UpdateProfile(ctx context.Context, userID uuid.UUID, update ProfileUpdate) (*model.User, error) {
	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	if update.Email != nil && *update.Email != user.Email {
		if existing, err := s.userRepo.FindByEmail(ctx, *update.Email); err == nil && existing != nil {
			return nil, apperrors.ErrConflict
		} else if err != nil && err != gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("check email: %w", err)
		}
		user.Email = *update.Email
	}

	if update.Username != nil && *update.Username != user.Username {
		if existing, err := s.userRepo.FindByUsername(ctx, *update.Username); err == nil && existing != nil {
			return nil, apperrors.ErrConflict
		} else if err != nil && err != gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("check username: %w", err)
		}
		user.Username = *update.Username
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return user, nil
}
