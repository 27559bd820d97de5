package services

import (
	"encoding/base64"
	"fmt"
	"time"

	"digitaldome/config"
	"digitaldome/internal/logger"
	"digitaldome/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type TokenPurpose string

const (
	TokenPurposeSession           TokenPurpose = "session"
	TokenPurposeEmailVerification TokenPurpose = "email_verification"
	TokenPurposePasswordReset     TokenPurpose = "password_reset"
)

const (
	SessionTokenTTL           = 7 * 24 * time.Hour
	EmailVerificationTokenTTL = 72 * time.Hour
	PasswordResetTokenTTL     = 6 * time.Hour
)

func (p TokenPurpose) ttl() time.Duration {
	switch p {
	case TokenPurposeEmailVerification:
		return EmailVerificationTokenTTL
	case TokenPurposePasswordReset:
		return PasswordResetTokenTTL
	default:
		return SessionTokenTTL
	}
}

type tokenClaims struct {
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies signed, expiring tokens for sessions
// and one-time account links. Tokens are HS256 JWTs wrapped in an extra
// base64url layer so they embed safely in email links.
type TokenService struct {
	secret []byte
	log    logger.Logger
}

func NewTokenService(config config.Config) *TokenService {
	return &TokenService{
		secret: []byte(config.SecretKey),
		log:    logger.New("TokenService"),
	}
}

func (s *TokenService) Generate(userID uuid.UUID, purpose TokenPurpose) (string, error) {
	log := s.log.Function("Generate")

	now := time.Now()
	claims := tokenClaims{
		Purpose: string(purpose),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			ID:        uuid.Must(uuid.NewV7()).String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(purpose.ttl())),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", log.Err("failed to sign token", err, "purpose", purpose)
	}

	return base64.RawURLEncoding.EncodeToString([]byte(signed)), nil
}

// Verify checks the signature, expiry, and purpose, and returns the user
// id the token was issued for. All failures map to ErrValidation so
// callers never leak why a token was rejected.
func (s *TokenService) Verify(token string, purpose TokenPurpose) (uuid.UUID, error) {
	log := s.log.Function("Verify")

	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return uuid.Nil, models.ErrValidation
	}

	claims := &tokenClaims{}
	parsed, err := jwt.ParseWithClaims(
		string(raw),
		claims,
		func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return s.secret, nil
		},
	)
	if err != nil || !parsed.Valid {
		return uuid.Nil, models.ErrValidation
	}

	if claims.Purpose != string(purpose) {
		log.Warn("token purpose mismatch", "expected", purpose, "got", claims.Purpose)
		return uuid.Nil, models.ErrValidation
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, models.ErrValidation
	}

	return userID, nil
}
