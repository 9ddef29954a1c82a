package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"taskpilot/internal/model"
	"taskpilot/internal/repository"
)

// SessionTTL is how long a session stays valid after creation or refresh.
const SessionTTL = 30 * 24 * time.Hour

const sessionTokenBytes = 32

// SessionService tracks active sessions per user. Validity is a pure function
// of expires_at vs the clock: every read re-checks expiry, and an expired row
// is reported as absent even though it may still exist in storage.
type SessionService interface {
	Create(ctx context.Context, userID uuid.UUID, ipAddress, userAgent string) (*model.Session, error)
	GetByToken(ctx context.Context, token string) (*model.Session, error)
	GetByUser(ctx context.Context, userID uuid.UUID) (*model.Session, error)
	Invalidate(ctx context.Context, token string) (bool, error)
	InvalidateAll(ctx context.Context, userID uuid.UUID) (bool, error)
	Refresh(ctx context.Context, token string) (*model.Session, error)
}

type sessionService struct {
	repo repository.SessionRepository
	now  func() time.Time
}

// NewSessionService creates a new session service.
func NewSessionService(repo repository.SessionRepository) SessionService {
	return &sessionService{repo: repo, now: time.Now}
}

// generateSessionToken returns a cryptographically random URL-safe token.
func generateSessionToken() (string, error) {
	buf := make([]byte, sessionTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// Create issues a new session with a fresh opaque token and the default TTL.
func (s *sessionService) Create(ctx context.Context, userID uuid.UUID, ipAddress, userAgent string) (*model.Session, error) {
	token, err := generateSessionToken()
	if err != nil {
		return nil, err
	}

	session := &model.Session{
		UserID:    userID,
		Token:     token,
		ExpiresAt: s.now().Add(SessionTTL),
		IPAddress: ipAddress,
		UserAgent: userAgent,
	}
	if err := s.repo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return session, nil
}

// GetByToken returns the session for a token, or nil when it is missing or
// expired.
func (s *sessionService) GetByToken(ctx context.Context, token string) (*model.Session, error) {
	session, err := s.repo.FindByToken(ctx, token)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("find session: %w", err)
	}
	if session.Expired(s.now()) {
		return nil, nil
	}
	return session, nil
}

// GetByUser returns the user's most recent session, or nil when none is valid.
func (s *sessionService) GetByUser(ctx context.Context, userID uuid.UUID) (*model.Session, error) {
	session, err := s.repo.FindLatestByUser(ctx, userID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("find session: %w", err)
	}
	if session.Expired(s.now()) {
		return nil, nil
	}
	return session, nil
}

// Invalidate removes the session for a token.
func (s *sessionService) Invalidate(ctx context.Context, token string) (bool, error) {
	rows, err := s.repo.DeleteByToken(ctx, token)
	if err != nil {
		return false, fmt.Errorf("invalidate session: %w", err)
	}
	return rows > 0, nil
}

// InvalidateAll removes every session belonging to a user.
func (s *sessionService) InvalidateAll(ctx context.Context, userID uuid.UUID) (bool, error) {
	rows, err := s.repo.DeleteByUser(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("invalidate sessions: %w", err)
	}
	return rows > 0, nil
}

// Refresh extends a valid session by a full TTL window from now, not from
// its previous expiry. Missing or expired sessions are not refreshable.
func (s *sessionService) Refresh(ctx context.Context, token string) (*model.Session, error) {
	session, err := s.GetByToken(ctx, token)
	if err != nil || session == nil {
		return nil, err
	}

	session.ExpiresAt = s.now().Add(SessionTTL)
	if err := s.repo.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("refresh session: %w", err)
	}
	return session, nil
}
