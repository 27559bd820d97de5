package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUser_PasswordHashing(t *testing.T) {
	user := &User{}

	err := user.SetPassword("correct horse battery staple")
	assert.NoError(t, err)
	assert.NotEmpty(t, user.PasswordHash)
	assert.NotEqual(t, "correct horse battery staple", user.PasswordHash)

	assert.True(t, user.CheckPassword("correct horse battery staple"))
	assert.False(t, user.CheckPassword("wrong password"))
	assert.False(t, user.CheckPassword(""))
}

func TestUser_ToProfile(t *testing.T) {
	avatar := "avatars/abc.png"
	user := &User{
		DisplayName:   "Ada",
		Email:         "ada@example.com",
		PasswordHash:  "secret-hash",
		AvatarPath:    &avatar,
		EmailVerified: true,
		IsModerator:   true,
		IsActive:      true,
	}

	profile := user.ToProfile()
	assert.Equal(t, "Ada", profile.DisplayName)
	assert.Equal(t, "ada@example.com", profile.Email)
	assert.Equal(t, &avatar, profile.AvatarPath)
	assert.True(t, profile.EmailVerified)
	assert.True(t, profile.IsModerator)
}
