package database

import (
	"cashbook/models"
	"context"

	"gorm.io/gorm"
)

// CreateUser сохраняет пользователя.
// prepare получает число уже зарегистрированных пользователей и может изменить запись перед сохранением.
func (d *Database) CreateUser(ctx context.Context, user *models.User, prepare func(existing int64) error) error {
	return d.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Сериализуем регистрацию, чтобы первый пользователь определялся однозначно
		if err := tx.Exec("LOCK TABLE users IN SHARE ROW EXCLUSIVE MODE").Error; err != nil {
			return err
		}

		var existing int64
		if err := tx.Model(&models.User{}).Count(&existing).Error; err != nil {
			return err
		}
		if prepare != nil {
			if err := prepare(existing); err != nil {
				return err
			}
		}
		return tx.Create(user).Error
	})
}

// GetUserByID возвращает пользователя по ID
func (d *Database) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := d.DB.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByEmail ищет пользователя по email без учета регистра и пробелов
func (d *Database) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := d.DB.WithContext(ctx).
		Where("LOWER(TRIM(email)) = LOWER(TRIM(?))", email).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// ListAdmins возвращает всех администраторов
func (d *Database) ListAdmins(ctx context.Context) ([]models.User, error) {
	var admins []models.User
	err := d.DB.WithContext(ctx).Where("role = ?", models.RoleAdmin).Order("email").Find(&admins).Error
	return admins, err
}
