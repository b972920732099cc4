package services

import (
	"errors"

	"gorm.io/gorm"
)

var (
	ErrTransactionNotFound     = errors.New("transaction not found")
	ErrInvalidStatusTransition = errors.New("only pending transactions can be changed")
	ErrForbiddenBranch         = errors.New("access to this branch is forbidden")
	ErrAdminOnly               = errors.New("admin role required")
	ErrInvalidInput            = errors.New("invalid input")
	ErrUserExists              = errors.New("user with this email already exists")
	ErrUserNotFound            = errors.New("user not found")
	ErrInvalidCredentials      = errors.New("invalid credentials")
)

// notFound переводит ошибку GORM об отсутствии записи в ошибку сервиса
func notFound(err error, target error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return target
	}
	return err
}
