package controllers

import (
	"cashbook/config"
	"cashbook/middleware"
	"cashbook/services"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
)

type AuthController struct {
	users    *services.UserService
	validate *validator.Validate
	config   *config.Config
}

type SignInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type Token struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type AuthResponse struct {
	Token Token                 `json:"token"`
	User  services.UserResponse `json:"user"`
}

func NewAuthController(users *services.UserService, cfg *config.Config) *AuthController {
	return &AuthController{
		users:    users,
		validate: newValidator(),
		config:   cfg,
	}
}

// SignIn обрабатывает вход пользователя
func (c *AuthController) SignIn(w http.ResponseWriter, r *http.Request) {
	var req SignInRequest
	if err := decodeJSON(r, &req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	// Валидация запроса
	if err := validateRequest(c.validate, req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := c.users.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	c.respondWithToken(w, http.StatusOK, services.NewUserResponse(user))
}

// SignUp обрабатывает регистрацию пользователя
func (c *AuthController) SignUp(w http.ResponseWriter, r *http.Request) {
	var req services.CreateUserRequest
	if err := decodeJSON(r, &req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	// Валидация запроса
	if err := validateRequest(c.validate, req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := c.users.CreateUser(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	c.respondWithToken(w, http.StatusCreated, services.NewUserResponse(user))
}

// Me возвращает профиль текущего пользователя
func (c *AuthController) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		middleware.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	user, err := c.users.GetByID(r.Context(), claims.UserID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, services.NewUserResponse(user))
}

// respondWithToken выпускает JWT токен и отправляет его вместе с пользователем
func (c *AuthController) respondWithToken(w http.ResponseWriter, status int, user services.UserResponse) {
	token, expiresAt, err := middleware.GenerateToken(
		[]byte(c.config.JWT.SecretKey),
		middleware.Claims{
			UserID: user.ID,
			Email:  user.Email,
			Role:   string(user.Role),
			Branch: user.Branch,
		},
		time.Duration(c.config.JWT.ExpiresIn)*time.Hour,
	)
	if err != nil {
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	writeJSON(w, status, AuthResponse{
		Token: Token{Token: token, ExpiresAt: expiresAt},
		User:  user,
	})
}
