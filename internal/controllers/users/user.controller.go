package userController

import (
	"context"
	"io"
	"strings"

	"digitaldome/config"
	"digitaldome/internal/logger"
	. "digitaldome/internal/models"
	"digitaldome/internal/repositories"
	"digitaldome/internal/services"
)

type UserController struct {
	userRepo    repositories.UserRepository
	authService *services.AuthService
	storage     *services.StorageService
	Config      config.Config
}

type UpdateProfileRequest struct {
	DisplayName *string `json:"displayName,omitempty"`
}

type ResetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

type UserControllerInterface interface {
	Register(ctx context.Context, request RegisterRequest) (*services.AuthResult, error)
	Login(ctx context.Context, request LoginRequest) (*services.AuthResult, error)
	Logout(ctx context.Context, token string) error
	VerifyEmail(ctx context.Context, token string) (*User, error)
	RequestPasswordReset(ctx context.Context, email string) (string, error)
	ResetPassword(ctx context.Context, request *ResetPasswordRequest) error
	UpdateProfile(ctx context.Context, user *User, request *UpdateProfileRequest) (*User, error)
	UploadAvatar(ctx context.Context, user *User, filename string, content io.Reader) (*User, error)
}

func New(
	repos repositories.Repository,
	services services.Service,
	config config.Config,
) UserControllerInterface {
	return &UserController{
		userRepo:    repos.User,
		authService: services.Auth,
		storage:     services.Storage,
		Config:      config,
	}
}

func (c *UserController) Register(
	ctx context.Context,
	request RegisterRequest,
) (*services.AuthResult, error) {
	return c.authService.Register(ctx, request)
}

func (c *UserController) Login(
	ctx context.Context,
	request LoginRequest,
) (*services.AuthResult, error) {
	return c.authService.Login(ctx, request)
}

func (c *UserController) Logout(ctx context.Context, token string) error {
	return c.authService.Logout(ctx, token)
}

func (c *UserController) VerifyEmail(ctx context.Context, token string) (*User, error) {
	return c.authService.VerifyEmail(ctx, token)
}

// RequestPasswordReset returns the reset token. An unknown email returns
// an empty token with no error so handlers can answer uniformly and not
// leak which addresses have accounts.
func (c *UserController) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	log := logger.NewWithContext(ctx, "userController").Function("RequestPasswordReset")

	token, err := c.authService.PasswordResetToken(ctx, email)
	if err != nil {
		log.Info("password reset requested for unknown email")
		return "", nil
	}
	return token, nil
}

func (c *UserController) ResetPassword(
	ctx context.Context,
	request *ResetPasswordRequest,
) error {
	return c.authService.ResetPassword(ctx, request.Token, request.Password)
}

func (c *UserController) UpdateProfile(
	ctx context.Context,
	user *User,
	request *UpdateProfileRequest,
) (*User, error) {
	log := logger.NewWithContext(ctx, "userController").Function("UpdateProfile")

	if request.DisplayName != nil {
		displayName := strings.TrimSpace(*request.DisplayName)
		if displayName == "" {
			return nil, ErrValidation
		}
		user.DisplayName = displayName
	}

	if err := c.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	log.Info("Profile updated", "userID", user.ID)
	return user, nil
}

func (c *UserController) UploadAvatar(
	ctx context.Context,
	user *User,
	filename string,
	content io.Reader,
) (*User, error) {
	log := logger.NewWithContext(ctx, "userController").Function("UploadAvatar")

	relPath, err := c.storage.Save("avatars", user.ID.String()+"-"+filename, content)
	if err != nil {
		return nil, err
	}

	old := user.AvatarPath
	user.AvatarPath = &relPath
	if err := c.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	if old != nil && *old != relPath {
		if err := c.storage.Delete(*old); err != nil {
			log.Warn("failed to delete previous avatar", "path", *old, "error", err)
		}
	}

	return user, nil
}
