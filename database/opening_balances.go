package database

import (
	"cashbook/models"
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ListOpeningBalances возвращает остатки на начало всех филиалов
func (d *Database) ListOpeningBalances(ctx context.Context) ([]models.OpeningBalance, error) {
	var balances []models.OpeningBalance
	err := d.DB.WithContext(ctx).Order("branch").Find(&balances).Error
	return balances, err
}

// UpsertOpeningBalance создает или обновляет остаток филиала.
// Филиал ищется без учета регистра, сохраненное написание не меняется.
func (d *Database) UpsertOpeningBalance(ctx context.Context, branch string, amount decimal.Decimal) (*models.OpeningBalance, error) {
	var balance models.OpeningBalance
	err := d.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("LOWER(branch) = LOWER(?)", branch).
			First(&balance).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			balance = models.OpeningBalance{Branch: branch, OpeningBalance: amount}
			return tx.Create(&balance).Error
		}
		if err != nil {
			return err
		}

		balance.OpeningBalance = amount
		return tx.Save(&balance).Error
	})
	if err != nil {
		return nil, err
	}
	return &balance, nil
}
