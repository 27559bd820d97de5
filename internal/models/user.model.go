package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type User struct {
	BaseUUIDModel
	DisplayName  string  `gorm:"type:varchar(150);not null;uniqueIndex" json:"displayName" validate:"required"`
	Email        string  `gorm:"type:text;not null;uniqueIndex"         json:"email" validate:"required,email"`
	PasswordHash string  `gorm:"type:text;not null"                     json:"-"`
	AvatarPath   *string `gorm:"type:text"                              json:"avatarPath,omitempty"`

	EmailVerified bool `gorm:"type:bool;default:false" json:"emailVerified"`
	IsModerator   bool `gorm:"type:bool;default:false" json:"isModerator"`
	IsActive      bool `gorm:"type:bool;default:true"  json:"isActive"`

	LastLoginAt *time.Time `gorm:"type:timestamp" json:"lastLoginAt,omitempty"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.DisplayName == "" || u.Email == "" {
		return gorm.ErrInvalidValue
	}
	return nil
}

// SetPassword hashes and stores the given plaintext password.
func (u *User) SetPassword(password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hash)
	return nil
}

// CheckPassword reports whether the plaintext password matches the stored hash.
func (u *User) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// UserProfile represents public user profile information
type UserProfile struct {
	ID            string     `json:"id"`
	DisplayName   string     `json:"displayName"`
	Email         string     `json:"email"`
	AvatarPath    *string    `json:"avatarPath,omitempty"`
	EmailVerified bool       `json:"emailVerified"`
	IsModerator   bool       `json:"isModerator"`
	IsActive      bool       `json:"isActive"`
	LastLoginAt   *time.Time `json:"lastLoginAt,omitempty"`
}

// ToProfile converts a User to a UserProfile (public information only)
func (u *User) ToProfile() UserProfile {
	return UserProfile{
		ID:            u.ID.String(),
		DisplayName:   u.DisplayName,
		Email:         u.Email,
		AvatarPath:    u.AvatarPath,
		EmailVerified: u.EmailVerified,
		IsModerator:   u.IsModerator,
		IsActive:      u.IsActive,
		LastLoginAt:   u.LastLoginAt,
	}
}

type RegisterRequest struct {
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
	Password    string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
