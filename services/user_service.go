package services

import (
	"cashbook/models"
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// UserService предоставляет методы для регистрации и входа пользователей
type UserService struct {
	store UserStore
}

// CreateUserRequest содержит данные регистрации
type CreateUserRequest struct {
	FullName string `json:"fullName" validate:"required,min=2,max=100"`
	Email    string `json:"email" validate:"required,email,max=100"`
	Password string `json:"password" validate:"required,min=8,password"`
	Branch   string `json:"branch" validate:"max=100"`
}

// UserResponse представляет пользователя в ответах API
type UserResponse struct {
	ID       string      `json:"id"`
	FullName string      `json:"fullName"`
	Email    string      `json:"email"`
	Role     models.Role `json:"role"`
	Branch   string      `json:"branch,omitempty"`
}

// NewUserResponse убирает из пользователя служебные поля
func NewUserResponse(u *models.User) UserResponse {
	return UserResponse{
		ID:       u.ID,
		FullName: u.FullName,
		Email:    u.Email,
		Role:     u.Role,
		Branch:   u.Branch,
	}
}

// NewUserService создает новый экземпляр UserService
func NewUserService(store UserStore) *UserService {
	return &UserService{store: store}
}

// CreateUser регистрирует пользователя.
// Первый пользователь становится администратором, остальные сотрудниками филиала.
func (s *UserService) CreateUser(ctx context.Context, req CreateUserRequest) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	// Проверяем, существует ли пользователь с таким email
	if _, err := s.store.GetUserByEmail(ctx, email); err == nil {
		return nil, ErrUserExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	// Хешируем пароль
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		FullName: strings.TrimSpace(req.FullName),
		Email:    email,
		Password: string(hashedPassword),
		Branch:   strings.TrimSpace(req.Branch),
	}

	err = s.store.CreateUser(ctx, user, func(existing int64) error {
		if existing == 0 {
			user.Role = models.RoleAdmin
			return nil
		}
		user.Role = models.RoleStaff
		if user.Branch == "" {
			return fmt.Errorf("%w: branch is required for staff", ErrInvalidInput)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrUserExists
		}
		return nil, err
	}

	return user, nil
}

// Authenticate проверяет email и пароль
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// GetByID возвращает пользователя по ID
func (s *UserService) GetByID(ctx context.Context, id string) (*models.User, error) {
	user, err := s.store.GetUserByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	return user, nil
}
