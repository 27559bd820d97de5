package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"digitaldome/internal/database"
	"digitaldome/internal/logger"
	. "digitaldome/internal/models"
	"digitaldome/internal/repositories"

	"github.com/google/uuid"
)

const (
	SESSION_CACHE_PREFIX = "session:"
	MinPasswordLength    = 8
)

// AuthService owns registration, login, and the token-based account flows.
// Sessions are signed tokens mirrored in the session cache so logout can
// revoke them before expiry.
type AuthService struct {
	userRepo repositories.UserRepository
	tokens   *TokenService
	db       database.DB
	log      logger.Logger
}

func NewAuthService(
	db database.DB,
	userRepo repositories.UserRepository,
	tokens *TokenService,
) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		tokens:   tokens,
		db:       db,
		log:      logger.New("AuthService"),
	}
}

type AuthResult struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

func (s *AuthService) Register(ctx context.Context, request RegisterRequest) (*AuthResult, error) {
	log := s.log.Function("Register")

	displayName := strings.TrimSpace(request.DisplayName)
	email := strings.TrimSpace(strings.ToLower(request.Email))
	if displayName == "" || email == "" || !strings.Contains(email, "@") {
		return nil, ErrValidation
	}
	if len(request.Password) < MinPasswordLength {
		return nil, ErrValidation
	}

	if _, err := s.userRepo.GetByEmail(ctx, email); err == nil {
		return nil, ErrConflict
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	if _, err := s.userRepo.GetByDisplayName(ctx, displayName); err == nil {
		return nil, ErrConflict
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	user := &User{
		DisplayName: displayName,
		Email:       email,
		IsActive:    true,
	}
	if err := user.SetPassword(request.Password); err != nil {
		return nil, log.Err("failed to hash password", err)
	}

	if _, err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	log.Info("User registered", "userID", user.ID)
	return s.startSession(ctx, user)
}

func (s *AuthService) Login(ctx context.Context, request LoginRequest) (*AuthResult, error) {
	log := s.log.Function("Login")

	user, err := s.userRepo.GetByEmail(ctx, strings.TrimSpace(strings.ToLower(request.Email)))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrValidation
		}
		return nil, err
	}

	if !user.IsActive || !user.CheckPassword(request.Password) {
		return nil, ErrValidation
	}

	now := time.Now()
	user.LastLoginAt = &now
	if err := s.userRepo.Update(ctx, user); err != nil {
		log.Warn("failed to record login time", "userID", user.ID, "error", err)
	}

	return s.startSession(ctx, user)
}

func (s *AuthService) Logout(ctx context.Context, token string) error {
	log := s.log.Function("Logout")

	if err := database.NewCacheBuilder(s.db.Cache.Session, SESSION_CACHE_PREFIX+token).
		WithContext(ctx).
		Delete(); err != nil {
		return log.Err("failed to revoke session", err)
	}

	return nil
}

// Authenticate resolves a session token to its user. The token must both
// verify cryptographically and still exist in the session cache.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*User, error) {
	userID, err := s.tokens.Verify(token, TokenPurposeSession)
	if err != nil {
		return nil, ErrValidation
	}

	var cachedUserID string
	found, err := database.NewCacheBuilder(s.db.Cache.Session, SESSION_CACHE_PREFIX+token).
		WithContext(ctx).
		Get(&cachedUserID)
	if err != nil || !found || cachedUserID != userID.String() {
		return nil, ErrValidation
	}

	user, err := s.userRepo.GetByID(ctx, userID.String())
	if err != nil {
		return nil, ErrValidation
	}
	if !user.IsActive {
		return nil, ErrValidation
	}

	return user, nil
}

// EmailVerificationToken issues the link token sent after registration.
func (s *AuthService) EmailVerificationToken(userID uuid.UUID) (string, error) {
	return s.tokens.Generate(userID, TokenPurposeEmailVerification)
}

func (s *AuthService) VerifyEmail(ctx context.Context, token string) (*User, error) {
	log := s.log.Function("VerifyEmail")

	userID, err := s.tokens.Verify(token, TokenPurposeEmailVerification)
	if err != nil {
		return nil, ErrValidation
	}

	user, err := s.userRepo.GetByID(ctx, userID.String())
	if err != nil {
		return nil, ErrValidation
	}
	if user.EmailVerified {
		return user, nil
	}

	user.EmailVerified = true
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	log.Info("Email verified", "userID", user.ID)
	return user, nil
}

// PasswordResetToken issues a reset token for the account with the given
// email. Returns ErrNotFound when no account matches; callers should not
// expose that distinction to clients.
func (s *AuthService) PasswordResetToken(ctx context.Context, email string) (string, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	return s.tokens.Generate(user.ID, TokenPurposePasswordReset)
}

func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	log := s.log.Function("ResetPassword")

	if len(newPassword) < MinPasswordLength {
		return ErrValidation
	}

	userID, err := s.tokens.Verify(token, TokenPurposePasswordReset)
	if err != nil {
		return ErrValidation
	}

	user, err := s.userRepo.GetByID(ctx, userID.String())
	if err != nil {
		return ErrValidation
	}

	if err := user.SetPassword(newPassword); err != nil {
		return log.Err("failed to hash password", err)
	}
	if err := s.userRepo.Update(ctx, user); err != nil {
		return err
	}

	log.Info("Password reset", "userID", user.ID)
	return nil
}

func (s *AuthService) startSession(ctx context.Context, user *User) (*AuthResult, error) {
	log := s.log.Function("startSession")

	token, err := s.tokens.Generate(user.ID, TokenPurposeSession)
	if err != nil {
		return nil, err
	}

	if err := database.NewCacheBuilder(s.db.Cache.Session, SESSION_CACHE_PREFIX+token).
		WithStruct(user.ID.String()).
		WithTTL(SessionTokenTTL).
		WithContext(ctx).
		Set(); err != nil {
		return nil, log.Err("failed to store session", err, "userID", user.ID)
	}

	return &AuthResult{User: user, Token: token}, nil
}
