package services

import (
	"testing"

	"digitaldome/config"
	"digitaldome/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func newTestTokenService(secret string) *TokenService {
	return NewTokenService(config.Config{SecretKey: secret})
}

func TestTokenService_RoundTrip(t *testing.T) {
	service := newTestTokenService("test-secret")
	userID := uuid.Must(uuid.NewV7())

	purposes := []TokenPurpose{
		TokenPurposeSession,
		TokenPurposeEmailVerification,
		TokenPurposePasswordReset,
	}

	for _, purpose := range purposes {
		t.Run(string(purpose), func(t *testing.T) {
			token, err := service.Generate(userID, purpose)
			assert.NoError(t, err)
			assert.NotEmpty(t, token)

			got, err := service.Verify(token, purpose)
			assert.NoError(t, err)
			assert.Equal(t, userID, got)
		})
	}
}

func TestTokenService_Verify_PurposeMismatch(t *testing.T) {
	service := newTestTokenService("test-secret")

	token, err := service.Generate(uuid.Must(uuid.NewV7()), TokenPurposePasswordReset)
	assert.NoError(t, err)

	_, err = service.Verify(token, TokenPurposeSession)
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestTokenService_Verify_GarbageToken(t *testing.T) {
	service := newTestTokenService("test-secret")

	for _, token := range []string{"", "not-a-token", "!!!not base64url!!!"} {
		_, err := service.Verify(token, TokenPurposeSession)
		assert.ErrorIs(t, err, models.ErrValidation)
	}
}

func TestTokenService_Verify_WrongSecret(t *testing.T) {
	issuer := newTestTokenService("secret-one")
	verifier := newTestTokenService("secret-two")

	token, err := issuer.Generate(uuid.Must(uuid.NewV7()), TokenPurposeSession)
	assert.NoError(t, err)

	_, err = verifier.Verify(token, TokenPurposeSession)
	assert.ErrorIs(t, err, models.ErrValidation)
}
