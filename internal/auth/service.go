// Package auth implements session-cookie authentication and project-level
// authorization on top of the store.
package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/tallyhq/tally/internal/apperr"
	"github.com/tallyhq/tally/internal/models"
	"github.com/tallyhq/tally/internal/store"
)

// SessionCookie is the name of the session cookie.
const SessionCookie = "tally_session"

// Service verifies credentials and sessions and answers authorization checks.
type Service struct {
	db  *store.DB
	ttl time.Duration
}

// NewService creates an auth service. ttl is the session lifetime.
func NewService(db *store.DB, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	return &Service{db: db, ttl: ttl}
}

// Register creates a user with a bcrypt-hashed password.
func (s *Service) Register(ctx context.Context, email, name, password string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, apperr.New(apperr.CodeInvalidRequest, "email and password are required")
	}
	if len(password) < 8 {
		return nil, apperr.New(apperr.CodeInvalidRequest, "password must be at least 8 characters")
	}
	if _, err := s.db.GetUserByEmail(ctx, email); err == nil {
		return nil, apperr.New(apperr.CodeInvalidRequest, "email already registered")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "hash password", err)
	}
	u := models.User{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.db.CreateUser(ctx, u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Login checks credentials and opens a new session. Returns the session
// whose token goes into the cookie.
func (s *Service) Login(ctx context.Context, email, password string) (*models.Session, *models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	u, err := s.db.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil, apperr.New(apperr.CodeUnauthenticated, "invalid credentials")
		}
		return nil, nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, nil, apperr.New(apperr.CodeUnauthenticated, "invalid credentials")
	}
	sess := models.Session{
		Token:     uuid.NewString(),
		UserID:    u.ID,
		ExpiresAt: time.Now().UTC().Add(s.ttl),
	}
	if err := s.db.CreateSession(ctx, sess); err != nil {
		return nil, nil, err
	}
	return &sess, u, nil
}

// Logout deletes the session for token.
func (s *Service) Logout(ctx context.Context, token string) error {
	return s.db.DeleteSession(ctx, token)
}

// Verify resolves a session token to its user.
func (s *Service) Verify(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, apperr.New(apperr.CodeUnauthenticated, "missing session")
	}
	sess, err := s.db.GetSession(ctx, token, time.Now().UTC())
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.New(apperr.CodeUnauthenticated, "invalid or expired session")
		}
		return nil, err
	}
	u, err := s.db.GetUser(ctx, sess.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.New(apperr.CodeUnauthenticated, "invalid or expired session")
		}
		return nil, err
	}
	return u, nil
}

// Authorize checks that user holds at least role in project. A missing
// project maps to PROJECT_NOT_FOUND; a missing or insufficient membership to
// PERMISSION_DENIED.
func (s *Service) Authorize(ctx context.Context, projectID, userID, role string) (*models.Membership, error) {
	if _, err := s.db.GetProject(ctx, projectID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.New(apperr.CodeProjectNotFound, "project not found")
		}
		return nil, err
	}
	m, err := s.db.GetMembership(ctx, projectID, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.New(apperr.CodePermissionDenied, "not a project member")
		}
		return nil, err
	}
	if !models.RoleAtLeast(m.Role, role) {
		return nil, apperr.New(apperr.CodePermissionDenied, "insufficient role")
	}
	return m, nil
}
